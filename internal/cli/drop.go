package cli

import (
	"fmt"
	"io"
	"strings"

	"kanban-cli/internal/dnd"
	"kanban-cli/internal/format"
	"kanban-cli/internal/model"

	"github.com/spf13/cobra"
)

type dropView struct {
	Topology    string         `json:"topology"`
	Moved       bool           `json:"moved"`
	Entity      *model.Entity  `json:"entity,omitempty"`
	Replacement *model.Entity  `json:"replacement,omitempty"`
	Inserted    []model.Entity `json:"inserted,omitempty"`
	From        string         `json:"from,omitempty"`
	To          string         `json:"to,omitempty"`
	ClearedSort bool           `json:"clearedSort,omitempty"`
}

func newDropView(out dnd.Outcome) dropView {
	v := dropView{Topology: out.Topology.String(), Moved: !out.NoOp}
	if out.NoOp {
		return v
	}
	e := out.Entity
	v.Entity = &e
	v.Replacement = out.Replacement
	v.Inserted = out.Inserted
	if len(out.From) > 0 {
		v.From = out.From.String()
	}
	v.To = out.To.String()
	v.ClearedSort = out.ClearedSort
	return v
}

func (v dropView) Text(th format.Theme) string {
	if !v.Moved {
		return th.Muted.Render("nothing moved")
	}
	var b strings.Builder
	switch {
	case len(v.Inserted) > 0:
		fmt.Fprintf(&b, "%s: added %d at %s", v.Topology, len(v.Inserted), v.To)
	default:
		fmt.Fprintf(&b, "%s: %s %s -> %s", v.Topology, v.Entity.ID, v.From, v.To)
	}
	if v.Replacement != nil {
		fmt.Fprintf(&b, " (left %s behind)", v.Replacement.ID)
	}
	if v.ClearedSort {
		b.WriteString(" (lane order reset)")
	}
	return b.String()
}

// drop runs one gesture through the reconciler and persists the result.
func drop(cmd *cobra.Command, app *App, s *session, drag, target dnd.Handle) error {
	if err := s.watch(cmd.Context()); err != nil {
		return writeErr(cmd, err)
	}
	out, err := s.reconciler().HandleDrop(drag, target)
	if ferr := s.finish(cmd.Context()); err == nil {
		err = ferr
	}
	if err != nil {
		return writeErr(cmd, err)
	}
	if out.Rejected != nil {
		return writeErr(cmd, rejectedError{reason: out.Rejected})
	}
	env := map[string]any{"data": newDropView(out)}
	if out.NoOp {
		env["_hints"] = []string{"the source path no longer resolves; run `kanban show` to see current paths"}
	}
	return writeOut(cmd, app, env)
}

func parsePaths(from, to string) (model.Path, model.Path, error) {
	f, err := model.ParsePath(from)
	if err != nil {
		return nil, nil, fmt.Errorf("--from: %w", err)
	}
	t, err := model.ParsePath(to)
	if err != nil {
		return nil, nil, fmt.Errorf("--to: %w", err)
	}
	return f, t, nil
}

func newMoveCmd(app *App) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "move <board.md>",
		Short: "Move a lane or card within a board",
		Long: strings.TrimSpace(`
Move the entity at --from to --to. A --to naming a container that accepts the moved entity
(a lane for cards, the board for lanes) drops into it at the head or tail per insertion
policy; any other --to inserts before the entity there.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, t, err := parsePaths(from, to)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openSession(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			doc := s.boards[0]
			return drop(cmd, app, s,
				dnd.StaticHandle{At: f, From: s.scope(doc)},
				dnd.StaticHandle{At: t, From: s.scope(doc)},
			)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Path of the entity to move, e.g. 0.2")
	cmd.Flags().StringVar(&to, "to", "", "Drop path, e.g. 1 or 1.0")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newTransferCmd(app *App) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "transfer <src.md> <dst.md>",
		Short: "Move a lane or card from one board to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, t, err := parsePaths(from, to)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openSession(cmd, app, args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return drop(cmd, app, s,
				dnd.StaticHandle{At: f, From: s.scope(s.boards[0])},
				dnd.StaticHandle{At: t, From: s.scope(s.boards[1])},
			)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Path in the source board")
	cmd.Flags().StringVar(&to, "to", "", "Drop path in the destination board")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	var to, text string
	cmd := &cobra.Command{
		Use:   "add <board.md>",
		Short: "Drop text onto a board as new cards (one per line; - reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := model.ParsePath(to)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("--to: %w", err))
			}
			if text == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return writeErr(cmd, err)
				}
				text = string(b)
			}
			if strings.TrimSpace(text) == "" {
				return writeErr(cmd, fmt.Errorf("--text is empty"))
			}
			s, err := openSession(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return drop(cmd, app, s,
				dnd.StaticHandle{Payload: text, From: dnd.Scope{External: true}},
				dnd.StaticHandle{At: t, From: s.scope(s.boards[0])},
			)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Drop path, e.g. 0 (a lane) or 0.1 (before a card)")
	cmd.Flags().StringVar(&text, "text", "", "Card text; multiple lines add multiple cards")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
