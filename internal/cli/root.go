package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"kanban-cli/internal/config"
	"kanban-cli/internal/format"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type App struct {
	PrettyJSON bool
	Format     string
	NoColor    bool
	NoJournal  bool
	Verbose    bool

	settings config.Settings
	theme    format.Theme
	log      *log.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "kanban",
		Short:        "Edit markdown kanban boards from the command line",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Render a board
  kanban show board.md --format text

  # Move the first card of lane 0 to the end of lane 1
  kanban move board.md --from 0.0 --to 1

  # Move lane 2 before lane 0
  kanban move board.md --from 2 --to 0

  # Move a card into another board
  kanban transfer todo.md done.md --from 0.3 --to 0

  # Drop text onto a lane as new cards
  kanban add board.md --to 1 --text "- [ ] write docs"
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		s, err := config.Load()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.settings = s
		app.theme = format.NewTheme(app.NoColor)
		app.log = newLogger(cmd.ErrOrStderr(), app.Verbose)
		return nil
	}

	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("KANBAN_FORMAT", "json"), "Output format (json|text)")
	cmd.PersistentFlags().BoolVar(&app.NoColor, "no-color", envOr("KANBAN_NO_COLOR", "") != "", "Disable colors in text output")
	cmd.PersistentFlags().BoolVar(&app.NoJournal, "no-journal", false, "Do not record snapshots in the journal")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log engine decisions to stderr")

	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newGetCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newTransferCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newCollapseCmd(app))
	cmd.AddCommand(newHistoryCmd(app))

	return cmd
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	l := log.New()
	l.SetOutput(w)
	l.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	l.SetLevel(log.ErrorLevel)
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	if app.Format == "text" {
		if env, ok := v.(map[string]any); ok {
			if t, ok := env["data"].(format.Texter); ok {
				v = t
			}
		}
	}
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON, app.theme)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
