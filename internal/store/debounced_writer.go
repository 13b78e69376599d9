package store

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Sink persists a committed snapshot.
type Sink interface {
	Write(ctx context.Context, doc *Document, snap Snapshot) error
}

type SinkFunc func(ctx context.Context, doc *Document, snap Snapshot) error

func (f SinkFunc) Write(ctx context.Context, doc *Document, snap Snapshot) error {
	return f(ctx, doc, snap)
}

// MultiSink writes to every sink in order and returns the first error.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, doc *Document, snap Snapshot) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, doc, snap); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// DebouncedWriter coalesces bursts of commits and persists only the latest snapshot of each
// document once the burst settles.
type DebouncedWriter struct {
	sink     Sink
	debounce time.Duration
	log      *log.Logger

	mu      sync.Mutex
	idle    *sync.Cond // signalled when a write finishes
	timer   *time.Timer
	pending map[string]*Document
	running bool
	closed  bool
}

type DebouncedWriterOpts struct {
	Sink     Sink
	Debounce time.Duration
	Logger   *log.Logger
}

func NewDebouncedWriter(opts DebouncedWriterOpts) *DebouncedWriter {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	w := &DebouncedWriter{
		sink:     opts.Sink,
		debounce: debounce,
		log:      logger,
		pending:  map[string]*Document{},
	}
	w.idle = sync.NewCond(&w.mu)
	return w
}

// Watch subscribes the writer to every commit of doc.
func (w *DebouncedWriter) Watch(doc *Document) {
	doc.Subscribe(func(d *Document, _ Snapshot) { w.Notify(d) })
}

// Notify marks doc dirty and (re)arms the timer.
func (w *DebouncedWriter) Notify(doc *Document) {
	if w == nil || doc == nil {
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.pending[doc.ID] = doc
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.onTimer)
		w.mu.Unlock()
		return
	}
	w.timer.Reset(w.debounce)
	w.mu.Unlock()
}

func (w *DebouncedWriter) onTimer() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	if w.running {
		// Another run is in-flight; schedule again to pick up pending changes.
		if w.timer != nil {
			w.timer.Reset(w.debounce)
		}
		w.mu.Unlock()
		return
	}
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.pending
	w.pending = map[string]*Document{}
	w.running = true
	w.mu.Unlock()

	w.write(context.Background(), batch)

	w.mu.Lock()
	w.running = false
	w.idle.Broadcast()
	if len(w.pending) > 0 && w.timer != nil && !w.closed {
		w.timer.Reset(w.debounce)
	}
	w.mu.Unlock()
}

func (w *DebouncedWriter) write(ctx context.Context, batch map[string]*Document) {
	for id, doc := range batch {
		snap := doc.Load()
		if err := w.sink.Write(ctx, doc, snap); err != nil {
			w.log.WithFields(log.Fields{"doc": id, "version": snap.Version}).WithError(err).Error("persist snapshot")
			doc.RecordError(err)
			continue
		}
		w.log.WithFields(log.Fields{"doc": id, "version": snap.Version}).Debug("persisted snapshot")
	}
}

// Flush waits for an in-flight write, then writes every pending document now.
func (w *DebouncedWriter) Flush(ctx context.Context) {
	if w == nil {
		return
	}
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	for w.running {
		w.idle.Wait()
	}
	batch := w.pending
	w.pending = map[string]*Document{}
	w.running = true
	w.mu.Unlock()

	w.write(ctx, batch)

	w.mu.Lock()
	w.running = false
	w.idle.Broadcast()
	w.mu.Unlock()
}

// Close stops accepting notifications and returns once everything pending is written.
func (w *DebouncedWriter) Close(ctx context.Context) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.Flush(ctx)
}
