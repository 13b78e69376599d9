package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
)

type recordingSink struct {
	mu       sync.Mutex
	versions []uint64
	err      error
}

func (s *recordingSink) Write(_ context.Context, _ *Document, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = append(s.versions, snap.Version)
	return s.err
}

func (s *recordingSink) got() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64{}, s.versions...)
}

func bump(t *testing.T, d *Document) {
	t.Helper()
	if err := d.SetState(func(s Snapshot) (Snapshot, error) { return s, nil }); err != nil {
		t.Fatalf("SetState error: %v", err)
	}
}

func TestDebouncedWriter_CoalescesAndFlushes(t *testing.T) {
	sink := &recordingSink{}
	logger, _ := test.NewNullLogger()
	w := NewDebouncedWriter(DebouncedWriterOpts{Sink: sink, Debounce: time.Hour, Logger: logger})
	d := newTestDoc()
	w.Watch(d)

	for i := 0; i < 5; i++ {
		bump(t, d)
	}
	w.Flush(context.Background())

	got := sink.got()
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("writes=%v, want [5]", got)
	}

	w.Flush(context.Background())
	if len(sink.got()) != 1 {
		t.Fatalf("flush without pending changes must not write")
	}
}

func TestDebouncedWriter_TimerFires(t *testing.T) {
	sink := &recordingSink{}
	logger, _ := test.NewNullLogger()
	w := NewDebouncedWriter(DebouncedWriterOpts{Sink: sink, Debounce: 10 * time.Millisecond, Logger: logger})
	d := newTestDoc()
	w.Watch(d)

	bump(t, d)
	bump(t, d)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := sink.got(); len(got) > 0 && got[len(got)-1] == 2 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timer never persisted latest version; writes=%v", sink.got())
}

func TestDebouncedWriter_ErrorsAreRecorded(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	logger, hook := test.NewNullLogger()
	w := NewDebouncedWriter(DebouncedWriterOpts{Sink: sink, Debounce: time.Hour, Logger: logger})
	d := newTestDoc()
	w.Watch(d)

	bump(t, d)
	w.Close(context.Background())

	if d.LastError() == nil {
		t.Fatalf("expected persistence error on document")
	}
	if e := hook.LastEntry(); e == nil || e.Message != "persist snapshot" {
		t.Fatalf("expected error log entry; got %+v", e)
	}

	bump(t, d)
	w.Flush(context.Background())
	if len(sink.got()) != 1 {
		t.Fatalf("closed writer must ignore notifications; writes=%v", sink.got())
	}
}

func TestDebouncedWriter_CloseWaitsForTimerWrite(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	sink := SinkFunc(func(context.Context, *Document, Snapshot) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return errors.New("disk full")
	})
	logger, _ := test.NewNullLogger()
	w := NewDebouncedWriter(DebouncedWriterOpts{Sink: sink, Debounce: time.Millisecond, Logger: logger})
	d := newTestDoc()
	w.Watch(d)

	bump(t, d)
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never started a write")
	}
	w.Close(context.Background())

	if !finished.Load() {
		t.Fatalf("Close returned while a write was still running")
	}
	if d.LastError() == nil {
		t.Fatalf("expected the write's error on the document once Close returns")
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{err: errors.New("b failed")}
	err := MultiSink{a, nil, b}.Write(context.Background(), newTestDoc(), Snapshot{Version: 3})
	if err == nil {
		t.Fatalf("expected error from second sink")
	}
	if len(a.got()) != 1 || len(b.got()) != 1 {
		t.Fatalf("every sink must be called")
	}
}
