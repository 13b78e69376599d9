package tree

import (
	"errors"
	"testing"

	"kanban-cli/internal/model"

	"github.com/google/go-cmp/cmp"
)

func fourItems() model.Entity {
	return model.NewBoard("b",
		model.NewLane("l0", "Todo",
			model.NewItem("a", "a", false),
			model.NewItem("b", "b", false),
			model.NewItem("c", "c", false),
			model.NewItem("d", "d", false),
		),
	)
}

func TestMove_Identity(t *testing.T) {
	t.Parallel()

	for _, p := range []model.Path{{0}, {1}, {0, 0}, {0, 1}, {1, 0}} {
		b := sampleBoard()
		got, res, err := Move(b, p, p, MoveOpts{
			TransformMoved:       func(e model.Entity) (model.Entity, error) { return e, nil },
			TransformReplacement: func(model.Entity) (*model.Entity, error) { return nil, nil },
		})
		if err != nil {
			t.Fatalf("Move(%s,%s) error: %v", p, p, err)
		}
		if !res.Moved {
			t.Fatalf("Move(%s,%s): expected Moved", p, p)
		}
		if diff := cmp.Diff(sampleBoard(), got); diff != "" {
			t.Fatalf("identity move changed tree (-want +got):\n%s", diff)
		}
	}
}

func TestMove_IndexShiftLaw(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from model.Path
		to   model.Path
		want []string
	}{
		{name: "forward", from: model.Path{0, 1}, to: model.Path{0, 3}, want: []string{"a", "c", "b", "d"}},
		{name: "to end", from: model.Path{0, 0}, to: model.Path{0, 4}, want: []string{"b", "c", "d", "a"}},
		{name: "backward", from: model.Path{0, 3}, to: model.Path{0, 0}, want: []string{"d", "a", "b", "c"}},
		{name: "slot after self", from: model.Path{0, 1}, to: model.Path{0, 2}, want: []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, res, err := Move(fourItems(), tt.from, tt.to, MoveOpts{})
			if err != nil {
				t.Fatalf("Move error: %v", err)
			}
			if diff := cmp.Diff(tt.want, childIDs(got.Children[0])); diff != "" {
				t.Fatalf("order mismatch (-want +got):\n%s", diff)
			}
			if at := mustLookup(t, got, res.To); at.ID != res.Entity.ID {
				t.Fatalf("result path %s addresses %q, want %q", res.To, at.ID, res.Entity.ID)
			}
		})
	}
}

func TestMove_AcrossLanes(t *testing.T) {
	b := sampleBoard()

	got, res, err := Move(b, model.Path{0, 0}, model.Path{1, 1}, MoveOpts{})
	if err != nil {
		t.Fatalf("Move error: %v", err)
	}
	if diff := cmp.Diff([]string{"i1"}, childIDs(got.Children[0])); diff != "" {
		t.Fatalf("source lane (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"i2", "i0"}, childIDs(got.Children[1])); diff != "" {
		t.Fatalf("dest lane (-want +got):\n%s", diff)
	}
	if !res.To.Equal(model.Path{1, 1}) {
		t.Fatalf("no correction expected across parents; got %s", res.To)
	}
	if model.CountItems(got) != model.CountItems(b) {
		t.Fatalf("item count changed: %d -> %d", model.CountItems(b), model.CountItems(got))
	}
}

func TestMove_LaneBeforeLane(t *testing.T) {
	got, res, err := Move(sampleBoard(), model.Path{1}, model.Path{0}, MoveOpts{})
	if err != nil {
		t.Fatalf("Move error: %v", err)
	}
	if diff := cmp.Diff([]string{"l1", "l0"}, childIDs(got)); diff != "" {
		t.Fatalf("lane order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"i2"}, childIDs(got.Children[0])); diff != "" {
		t.Fatalf("moved lane lost children (-want +got):\n%s", diff)
	}
	if !res.From.Equal(model.Path{1}) || !res.To.Equal(model.Path{0}) {
		t.Fatalf("unexpected result paths %s -> %s", res.From, res.To)
	}
}

func TestMove_MissingSourceIsNoOp(t *testing.T) {
	b := sampleBoard()
	got, res, err := Move(b, model.Path{5, 0}, model.Path{0, 0}, MoveOpts{})
	if err != nil {
		t.Fatalf("expected nil error; got %v", err)
	}
	if res.Moved {
		t.Fatalf("expected no move")
	}
	if diff := cmp.Diff(b, got); diff != "" {
		t.Fatalf("tree changed (-want +got):\n%s", diff)
	}

	got, res, err = Move(b, model.Path{0, 0}, model.Path{7, 0}, MoveOpts{})
	if err != nil || res.Moved {
		t.Fatalf("missing target parent: err=%v moved=%v", err, res.Moved)
	}
	if diff := cmp.Diff(b, got); diff != "" {
		t.Fatalf("tree changed (-want +got):\n%s", diff)
	}
}

func TestMove_TransformFailureAborts(t *testing.T) {
	b := sampleBoard()
	boom := errors.New("boom")
	got, _, err := Move(b, model.Path{0, 0}, model.Path{1, 0}, MoveOpts{
		TransformMoved: func(model.Entity) (model.Entity, error) { return model.Entity{}, boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom; got %v", err)
	}
	var te TransformError
	if !errors.As(err, &te) || te.EntityID != "i0" {
		t.Fatalf("expected TransformError for i0; got %#v", err)
	}
	if diff := cmp.Diff(b, got); diff != "" {
		t.Fatalf("tree changed (-want +got):\n%s", diff)
	}
}

func TestMove_TypeMismatchRejected(t *testing.T) {
	b := sampleBoard()
	got, _, err := Move(b, model.Path{0, 0}, model.Path{1}, MoveOpts{})
	if !errors.Is(err, ErrNotAccepted) {
		t.Fatalf("expected ErrNotAccepted; got %v", err)
	}
	if diff := cmp.Diff(b, got); diff != "" {
		t.Fatalf("tree changed (-want +got):\n%s", diff)
	}
	if _, _, err := Move(b, model.Path{0}, model.Path{0, 0}, MoveOpts{}); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle; got %v", err)
	}
}

func TestMove_ReplacementStaysBehind(t *testing.T) {
	b := sampleBoard()
	got, res, err := Move(b, model.Path{0, 0}, model.Path{0, 2}, MoveOpts{
		TransformReplacement: func(e model.Entity) (*model.Entity, error) {
			r := model.NewItem("i0-next", "first", false)
			return &r, nil
		},
	})
	if err != nil {
		t.Fatalf("Move error: %v", err)
	}
	// No index correction: the replacement keeps the sibling count.
	if diff := cmp.Diff([]string{"i0-next", "i1", "i0"}, childIDs(got.Children[0])); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if res.Replacement == nil || res.Replacement.ID != "i0-next" {
		t.Fatalf("expected replacement reported; got %+v", res.Replacement)
	}
}

func TestMove_ClearsSortedOnDestination(t *testing.T) {
	b := sampleBoard()
	b.Children[1].Data = model.LaneData{Title: "Done", Sorted: true}

	got, res, err := Move(b, model.Path{0, 0}, model.Path{1, 0}, MoveOpts{})
	if err != nil {
		t.Fatalf("Move error: %v", err)
	}
	ld, _ := got.Children[1].Lane()
	if ld.Sorted {
		t.Fatalf("expected sorted cleared")
	}
	if !res.ClearedSort {
		t.Fatalf("expected ClearedSort")
	}

	// A move that lands where it started keeps the marker.
	got, res, err = Move(b, model.Path{1, 0}, model.Path{1, 0}, MoveOpts{})
	if err != nil {
		t.Fatalf("Move error: %v", err)
	}
	if ld, _ := got.Children[1].Lane(); !ld.Sorted || res.ClearedSort {
		t.Fatalf("identity move must keep sorted marker")
	}
}

func TestCorrectTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to, want model.Path
	}{
		{from: model.Path{0, 1}, to: model.Path{0, 3}, want: model.Path{0, 2}},
		{from: model.Path{0, 3}, to: model.Path{0, 1}, want: model.Path{0, 1}},
		{from: model.Path{0, 1}, to: model.Path{1, 3}, want: model.Path{1, 3}},
		{from: model.Path{0}, to: model.Path{2}, want: model.Path{1}},
		{from: model.Path{0}, to: model.Path{2, 1}, want: model.Path{1, 1}},
		{from: model.Path{2}, to: model.Path{1, 1}, want: model.Path{1, 1}},
	}
	for _, tt := range tests {
		if got := CorrectTarget(tt.from, tt.to); !got.Equal(tt.want) {
			t.Fatalf("CorrectTarget(%s,%s)=%s, want %s", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestExtendDropPath(t *testing.T) {
	b := sampleBoard()
	p, ok := ExtendDropPath(b, model.Path{1}, InsertTail)
	if !ok || !p.Equal(model.Path{1, 1}) {
		t.Fatalf("tail: %s ok=%v", p, ok)
	}
	p, ok = ExtendDropPath(b, model.Path{1}, InsertHead)
	if !ok || !p.Equal(model.Path{1, 0}) {
		t.Fatalf("head: %s ok=%v", p, ok)
	}
	if _, ok := ExtendDropPath(b, model.Path{4}, InsertTail); ok {
		t.Fatalf("expected missing container")
	}
}
