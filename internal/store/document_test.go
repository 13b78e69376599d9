package store

import (
	"errors"
	"testing"

	"kanban-cli/internal/collapse"
	"kanban-cli/internal/model"
)

func newTestDoc() *Document {
	return NewDocument("doc-a", Snapshot{
		Board: model.NewBoard("b",
			model.NewLane("l0", "L0", model.NewItem("i0", "i0", false)),
			model.NewLane("l1", "L1"),
		),
	})
}

func TestDocument_SetState(t *testing.T) {
	d := newTestDoc()
	if got := d.Load().Collapse; len(got) != 2 {
		t.Fatalf("expected collapse normalized to lane count; got %v", got)
	}

	var seen []uint64
	d.Subscribe(func(_ *Document, s Snapshot) { seen = append(seen, s.Version) })

	before := d.Load()
	err := d.SetState(func(s Snapshot) (Snapshot, error) {
		st, _, err := collapse.MoveLane(s.State(), 1, 0)
		if err != nil {
			return s, err
		}
		return s.WithState(st), nil
	})
	if err != nil {
		t.Fatalf("SetState error: %v", err)
	}
	after := d.Load()
	if after.Version != before.Version+1 {
		t.Fatalf("version=%d, want %d", after.Version, before.Version+1)
	}
	if after.Board.Children[0].ID != "l1" {
		t.Fatalf("commit not visible")
	}
	if before.Board.Children[0].ID != "l0" {
		t.Fatalf("earlier snapshot mutated")
	}
	if len(seen) != 1 || seen[0] != after.Version {
		t.Fatalf("listener calls=%v", seen)
	}
}

func TestDocument_SetStateFailuresLeaveSnapshot(t *testing.T) {
	d := newTestDoc()
	before := d.Load()

	boom := errors.New("boom")
	if err := d.SetState(func(s Snapshot) (Snapshot, error) { return s, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom; got %v", err)
	}
	if err := d.SetState(func(s Snapshot) (Snapshot, error) { return s, ErrUnchanged }); err != nil {
		t.Fatalf("ErrUnchanged must not surface; got %v", err)
	}
	err := d.SetState(func(s Snapshot) (Snapshot, error) {
		s.Collapse = []bool{true}
		return s, nil
	})
	if err == nil {
		t.Fatalf("expected out of sync collapse to be refused")
	}
	if got := d.Load(); got.Version != before.Version || len(got.Collapse) != 2 {
		t.Fatalf("document changed after failed commits: %+v", got)
	}
}

func TestDocument_ErrorSlot(t *testing.T) {
	d := newTestDoc()
	if d.LastError() != nil {
		t.Fatalf("expected empty error slot")
	}
	d.RecordError(errors.New("nope"))
	if d.LastError() == nil {
		t.Fatalf("expected recorded error")
	}
	d.ClearError()
	if d.LastError() != nil {
		t.Fatalf("expected cleared error")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := newTestDoc()
	if err := r.Add(a); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := r.Add(a); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if got, ok := r.Get("doc-a"); !ok || got != a {
		t.Fatalf("Get mismatch")
	}
	if ids := r.IDs(); len(ids) != 1 || ids[0] != "doc-a" {
		t.Fatalf("IDs=%v", ids)
	}
	if _, ok := r.Get("doc-b"); ok {
		t.Fatalf("expected doc-b to be unknown")
	}
}
