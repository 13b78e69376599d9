package store

import (
	"errors"
	"sync"
	"sync/atomic"

	"kanban-cli/internal/collapse"
	"kanban-cli/internal/model"
)

// ErrUnchanged may be returned by a SetState updater to skip the commit.
var ErrUnchanged = errors.New("unchanged")

// Snapshot is one committed state of a document. Snapshots are never modified after commit.
type Snapshot struct {
	Board       model.Entity
	Collapse    []bool
	Frontmatter map[string]any
	Version     uint64
}

func (s Snapshot) State() collapse.State {
	return collapse.State{Board: s.Board, Collapse: s.Collapse}
}

// WithState returns a copy of s carrying st's board and collapse flags.
func (s Snapshot) WithState(st collapse.State) Snapshot {
	s.Board = st.Board
	s.Collapse = st.Collapse
	return s
}

// Document owns the current snapshot of one board. Commits are whole-snapshot pointer swaps,
// so a reader sees either the old or the new state.
type Document struct {
	ID   string
	Path string

	slot atomic.Pointer[Snapshot]

	// mu serializes writers; readers never take it.
	mu        sync.Mutex
	listeners []func(*Document, Snapshot)

	errMu   sync.Mutex
	lastErr error
}

func NewDocument(id string, snap Snapshot) *Document {
	d := &Document{ID: id}
	if snap.Collapse == nil {
		snap.Collapse = collapse.Normalize(nil, len(snap.Board.Children))
	}
	d.slot.Store(&snap)
	return d
}

// Load returns the current snapshot.
func (d *Document) Load() Snapshot {
	return *d.slot.Load()
}

// SetState applies fn to the current snapshot and swaps the result in. fn returning an error
// leaves the document untouched; ErrUnchanged is not reported to the caller. A result whose
// collapse flags disagree with its lane count is refused.
func (d *Document) SetState(fn func(Snapshot) (Snapshot, error)) error {
	d.mu.Lock()
	cur := d.Load()
	next, err := fn(cur)
	if err != nil {
		d.mu.Unlock()
		if errors.Is(err, ErrUnchanged) {
			return nil
		}
		return err
	}
	if err := next.State().Check(); err != nil {
		d.mu.Unlock()
		return err
	}
	next.Version = cur.Version + 1
	d.slot.Store(&next)
	listeners := append([]func(*Document, Snapshot){}, d.listeners...)
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(d, next)
	}
	return nil
}

// Subscribe registers fn to run after every commit.
func (d *Document) Subscribe(fn func(*Document, Snapshot)) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

// RecordError stores err on the document's error slot for the UI to surface.
func (d *Document) RecordError(err error) {
	d.errMu.Lock()
	d.lastErr = err
	d.errMu.Unlock()
}

func (d *Document) LastError() error {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	return d.lastErr
}

func (d *Document) ClearError() {
	d.RecordError(nil)
}
