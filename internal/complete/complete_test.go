package complete

import (
	"errors"
	"testing"

	"kanban-cli/internal/model"
)

func lane(id string, marks bool) model.Entity {
	l := model.NewLane(id, id)
	l.Data = model.LaneData{Title: id, MarksComplete: marks}
	return l
}

func itemData(t *testing.T, e model.Entity) model.ItemData {
	t.Helper()
	d, ok := e.Item()
	if !ok {
		t.Fatalf("expected item, got %s", e.Type)
	}
	return d
}

func TestClassifier_TogglesAcrossBoundary(t *testing.T) {
	c := NewClassifier("")
	todo := lane("todo", false)
	done := lane("done", true)
	it := model.NewItem("i0", "write tests", false)

	res, err := c.Transform(todo, done, it)
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	d := itemData(t, res.Next)
	if !d.Checked || d.CheckChar != 'x' {
		t.Fatalf("expected checked; got %+v", d)
	}
	if res.Replacement != nil {
		t.Fatalf("unexpected replacement")
	}
	if orig := itemData(t, it); orig.Checked {
		t.Fatalf("input item mutated")
	}

	back, err := c.Transform(done, todo, res.Next)
	if err != nil {
		t.Fatalf("Transform back error: %v", err)
	}
	if d := itemData(t, back.Next); d.Checked || d.CheckChar != ' ' {
		t.Fatalf("expected unchecked; got %+v", d)
	}
}

func TestClassifier_SameFlagIsUnchanged(t *testing.T) {
	c := NewClassifier("")
	it := model.NewItem("i0", "x", true)
	res, err := c.Transform(lane("a", false), lane("b", false), it)
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	if d := itemData(t, res.Next); !d.Checked {
		t.Fatalf("checked item in non-completing lanes must stay checked")
	}

	// External sources are not lanes and never mark complete.
	res, err = c.Transform(model.NewBoard("ext"), lane("b", true), model.NewItem("i1", "y", false))
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	if d := itemData(t, res.Next); !d.Checked {
		t.Fatalf("expected external item to be completed in completing lane")
	}
}

func TestClassifier_RecurringLeavesReplacement(t *testing.T) {
	c := NewClassifier("🔁")
	c.NewID = func(prefix string) string { return prefix + "-next" }
	it := model.NewItem("i0", "water plants 🔁 every week", false)

	res, err := c.Transform(lane("todo", false), lane("done", true), it)
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	if res.Replacement == nil {
		t.Fatalf("expected replacement for recurring item")
	}
	if res.Replacement.ID != "item-next" {
		t.Fatalf("replacement id=%q", res.Replacement.ID)
	}
	if d := itemData(t, *res.Replacement); d.Checked {
		t.Fatalf("replacement must be open")
	}
	if d := itemData(t, res.Next); !d.Checked {
		t.Fatalf("moved item must be checked")
	}
}

func TestClassifier_Failures(t *testing.T) {
	c := NewClassifier("")
	if _, err := c.Transform(lane("a", false), lane("b", true), lane("c", false)); !errors.Is(err, ErrNotItem) {
		t.Fatalf("expected ErrNotItem; got %v", err)
	}
	bad := model.NewItem("i0", "x", false)
	bad.Data = model.ItemData{Title: "x", TitleRaw: "x", CheckChar: 0}
	if _, err := c.Transform(lane("a", false), lane("b", true), bad); !errors.Is(err, ErrMalformedItem) {
		t.Fatalf("expected ErrMalformedItem; got %v", err)
	}
}

func TestIdentity(t *testing.T) {
	it := model.NewItem("i0", "x", false)
	res, err := Identity(lane("a", false), lane("b", true), it)
	if err != nil || res.Next.ID != "i0" || res.Replacement != nil {
		t.Fatalf("Identity: %+v %v", res, err)
	}
}
