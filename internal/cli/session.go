package cli

import (
	"context"
	"time"

	"kanban-cli/internal/complete"
	"kanban-cli/internal/config"
	"kanban-cli/internal/dnd"
	"kanban-cli/internal/store"

	"github.com/spf13/cobra"
)

// session holds the documents one command works on.
type session struct {
	app  *App
	docs *store.Registry
	// boards follows argument order; the same file named twice maps to one document.
	boards  []*store.Document
	journal *store.Journal
	writer  *store.DebouncedWriter
}

func openSession(cmd *cobra.Command, app *App, paths ...string) (*session, error) {
	s := &session{app: app, docs: store.NewRegistry()}
	for _, p := range paths {
		d, err := store.OpenFile(p)
		if err != nil {
			return nil, err
		}
		if existing, ok := s.docs.Get(d.ID); ok {
			s.boards = append(s.boards, existing)
			continue
		}
		if err := s.docs.Add(d); err != nil {
			return nil, err
		}
		s.boards = append(s.boards, d)
	}
	app.log.WithField("boards", len(s.docs.IDs())).Debug("opened boards")
	return s, nil
}

func (s *session) openJournal(ctx context.Context) (*store.Journal, error) {
	if s.journal != nil {
		return s.journal, nil
	}
	dir := s.app.settings.JournalDir
	if dir == "" {
		d, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	j, err := store.OpenJournal(ctx, dir)
	if err != nil {
		return nil, err
	}
	s.journal = j
	return j, nil
}

// watch persists every later commit to the board files and, unless disabled, the journal.
func (s *session) watch(ctx context.Context) error {
	sinks := store.MultiSink{store.FileSink{}}
	if !s.app.NoJournal {
		j, err := s.openJournal(ctx)
		if err != nil {
			return err
		}
		sinks = append(sinks, j)
	}
	s.writer = store.NewDebouncedWriter(store.DebouncedWriterOpts{
		Sink:     sinks,
		Debounce: time.Duration(s.app.settings.Debounce),
		Logger:   s.app.log,
	})
	for _, id := range s.docs.IDs() {
		d, _ := s.docs.Get(id)
		d.ClearError()
		s.writer.Watch(d)
	}
	return nil
}

// finish flushes pending writes and returns the first persistence error.
func (s *session) finish(ctx context.Context) error {
	var first error
	if s.writer != nil {
		for _, id := range s.docs.IDs() {
			d, _ := s.docs.Get(id)
			d.ClearError()
		}
		s.writer.Close(ctx)
		for _, id := range s.docs.IDs() {
			d, _ := s.docs.Get(id)
			if err := d.LastError(); err != nil && first == nil {
				first = err
			}
		}
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *session) reconciler() *dnd.Reconciler {
	c := complete.NewClassifier(s.app.settings.RecurrenceMarker)
	return &dnd.Reconciler{
		Docs:      s.docs,
		Transform: c.Transform,
		Settings:  s.app.settings,
		Log:       s.app.log,
	}
}

func (s *session) scope(d *store.Document) dnd.Scope {
	return dnd.Scope{DocumentID: d.ID, WindowID: "cli"}
}
