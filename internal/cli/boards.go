package cli

import (
	"errors"
	"fmt"
	"strings"

	"kanban-cli/internal/collapse"
	"kanban-cli/internal/format"
	"kanban-cli/internal/model"
	"kanban-cli/internal/statusutil"
	"kanban-cli/internal/store"
	"kanban-cli/internal/tree"

	"github.com/spf13/cobra"
)

func newShowCmd(app *App) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "show <board.md>",
		Short: "Show a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			doc := s.boards[0]
			snap := doc.Load()
			return writeOut(cmd, app, map[string]any{
				"data": format.BoardView{Board: snap.Board, Collapse: snap.Collapse, ColumnWidth: width},
				"meta": map[string]any{
					"path":  doc.Path,
					"lanes": len(snap.Board.Children),
					"items": model.CountItems(snap.Board),
				},
			})
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "Lane column width for text output")
	return cmd
}

func newGetCmd(app *App) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "get <board.md>",
		Short: "Print the entity at a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := model.ParsePath(at)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openSession(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			e, ok := tree.Lookup(s.boards[0].Load().Board, path)
			if !ok {
				return writeErr(cmd, errPathNotFound(args[0], path))
			}
			return writeOut(cmd, app, map[string]any{
				"data": e,
				"meta": map[string]any{"path": path.String()},
			})
		},
	}
	cmd.Flags().StringVar(&at, "path", "", "Entity path, e.g. 1.0 (empty = board)")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var at, title, char string
	var check, uncheck bool
	var sorted, marksComplete string
	cmd := &cobra.Command{
		Use:   "edit <board.md>",
		Short: "Change fields of a lane or card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := model.ParsePath(at)
			if err != nil {
				return writeErr(cmd, err)
			}
			if check && uncheck {
				return writeErr(cmd, errors.New("provide at most one of --check or --uncheck"))
			}
			s, err := openSession(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.watch(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			doc := s.boards[0]

			err = doc.SetState(func(snap store.Snapshot) (store.Snapshot, error) {
				e, ok := tree.Lookup(snap.Board, path)
				if !ok {
					return snap, errPathNotFound(args[0], path)
				}
				delta, err := editDelta(e.Type, cmd, title, char, check, uncheck, sorted, marksComplete)
				if err != nil {
					return snap, err
				}
				if len(delta.Set) == 0 && len(delta.Unset) == 0 {
					return snap, store.ErrUnchanged
				}
				b, err := tree.Patch(snap.Board, path, delta)
				if err != nil {
					return snap, err
				}
				snap.Board = b
				return snap, nil
			})
			if ferr := s.finish(cmd.Context()); err == nil {
				err = ferr
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			e, _ := tree.Lookup(doc.Load().Board, path)
			return writeOut(cmd, app, map[string]any{"data": e})
		},
	}
	cmd.Flags().StringVar(&at, "path", "", "Entity path, e.g. 1.0 (empty = board)")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&char, "char", "", "Card status character (e.g. x, -, /)")
	cmd.Flags().BoolVar(&check, "check", false, "Mark the card complete")
	cmd.Flags().BoolVar(&uncheck, "uncheck", false, "Mark the card open")
	cmd.Flags().StringVar(&sorted, "sorted", "", "Lane manual-order marker (true|false)")
	cmd.Flags().StringVar(&marksComplete, "marks-complete", "", "Lane completes cards moved into it (true|false)")
	return cmd
}

func editDelta(t model.EntityType, cmd *cobra.Command, title, char string, check, uncheck bool, sorted, marksComplete string) (tree.Delta, error) {
	d := tree.Delta{Set: map[tree.Field]any{}}
	if cmd.Flags().Changed("title") {
		d.Set[tree.FieldTitle] = title
		if t == model.EntityItem {
			d.Set[tree.FieldTitleRaw] = title
		}
	}
	switch {
	case check:
		d.Set[tree.FieldChecked] = true
		d.Set[tree.FieldCheckChar] = "x"
	case uncheck:
		d.Set[tree.FieldChecked] = false
		d.Set[tree.FieldCheckChar] = " "
	}
	if char != "" {
		r := []rune(char)
		if len(r) != 1 || !statusutil.ValidCheckChar(r[0]) {
			return d, fmt.Errorf("invalid status character: %q", char)
		}
		d.Set[tree.FieldCheckChar] = r[0]
		d.Set[tree.FieldChecked] = statusutil.IsChecked(r[0])
	}
	flags := []struct {
		value string
		field tree.Field
	}{
		{sorted, tree.FieldSorted},
		{marksComplete, tree.FieldMarksComplete},
	}
	for _, fl := range flags {
		switch strings.ToLower(fl.value) {
		case "":
		case "true", "yes", "1":
			d.Set[fl.field] = true
		case "false", "no", "0":
			d.Unset = append(d.Unset, fl.field)
		default:
			return d, fmt.Errorf("invalid %s value: %q", fl.field, fl.value)
		}
	}
	return d, nil
}

func newRemoveCmd(app *App) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "rm <board.md>",
		Short: "Remove a lane or card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := model.ParsePath(at)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openSession(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.watch(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			doc := s.boards[0]

			var removed model.Entity
			err = doc.SetState(func(snap store.Snapshot) (store.Snapshot, error) {
				e, ok := tree.Lookup(snap.Board, path)
				if !ok || len(path) == 0 {
					return snap, errPathNotFound(args[0], path)
				}
				removed = e
				if len(path) == 1 {
					st, _, err := collapse.RemoveLane(snap.State(), path[0])
					if err != nil {
						return snap, err
					}
					return snap.WithState(st), nil
				}
				b, err := tree.Remove(snap.Board, path, nil)
				if err != nil {
					return snap, err
				}
				snap.Board = b
				return snap, nil
			})
			if ferr := s.finish(cmd.Context()); err == nil {
				err = ferr
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": removed})
		},
	}
	cmd.Flags().StringVar(&at, "path", "", "Entity path, e.g. 1.0")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func newCollapseCmd(app *App) *cobra.Command {
	var lane int
	var off bool
	cmd := &cobra.Command{
		Use:   "collapse <board.md>",
		Short: "Collapse or expand a lane",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.watch(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			doc := s.boards[0]
			err = doc.SetState(func(snap store.Snapshot) (store.Snapshot, error) {
				st, err := collapse.Toggle(snap.State(), lane, !off)
				if err != nil {
					return snap, err
				}
				return snap.WithState(st), nil
			})
			if ferr := s.finish(cmd.Context()); err == nil {
				err = ferr
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"collapse": doc.Load().Collapse}})
		},
	}
	cmd.Flags().IntVar(&lane, "lane", 0, "Lane index")
	cmd.Flags().BoolVar(&off, "off", false, "Expand instead of collapse")
	_ = cmd.MarkFlagRequired("lane")
	return cmd
}

type historyView []store.JournalEntry

func (h historyView) Text(th format.Theme) string {
	if len(h) == 0 {
		return th.Muted.Render("no journal entries")
	}
	lines := make([]string, 0, len(h))
	for _, e := range h {
		lines = append(lines, fmt.Sprintf("v%-4d %s  %d lanes  %d items  %s",
			e.Version, e.CommittedAt.Local().Format("2006-01-02 15:04:05"), e.Lanes, e.Items, th.Muted.Render(e.ID)))
	}
	return strings.Join(lines, "\n")
}

func newHistoryCmd(app *App) *cobra.Command {
	var limit int
	var latest bool
	cmd := &cobra.Command{
		Use:   "history <board.md>",
		Short: "List journaled snapshots of a board, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			j, err := s.openJournal(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer j.Close()
			if latest {
				snap, ok, err := j.Latest(cmd.Context(), s.boards[0].ID)
				if err != nil {
					return writeErr(cmd, err)
				}
				if !ok {
					return writeErr(cmd, fmt.Errorf("no journal entries for %s", args[0]))
				}
				return writeOut(cmd, app, map[string]any{
					"data": format.BoardView{Board: snap.Board, Collapse: snap.Collapse},
					"meta": map[string]any{"version": snap.Version},
				})
			}
			entries, err := j.List(cmd.Context(), s.boards[0].ID, limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			if entries == nil {
				entries = []store.JournalEntry{}
			}
			return writeOut(cmd, app, map[string]any{"data": historyView(entries)})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries (0 = all)")
	cmd.Flags().BoolVar(&latest, "latest", false, "Show the most recently journaled board instead of the list")
	return cmd
}
