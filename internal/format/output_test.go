package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"kanban-cli/internal/model"

	xansi "github.com/charmbracelet/x/ansi"
)

func sampleView() BoardView {
	done := model.NewLane("l1", "Done", model.NewItem("i2", "shipped", true))
	done.Data = model.LaneData{Title: "Done", MarksComplete: true}
	return BoardView{
		Board: model.NewBoard("b",
			model.NewLane("l0", "Todo",
				model.NewItem("i0", "write the release notes for the next version", false),
				model.NewItem("i1", "short", false)),
			done,
			model.NewLane("l2", "Archive", model.NewItem("i3", "old", true)),
		),
		Collapse:    []bool{false, false, true},
		ColumnWidth: 16,
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": 1}, "json", false, NewTheme(true)); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"data":1}` {
		t.Fatalf("unexpected output: %q", got)
	}
	if err := Write(&buf, 1, "edn", false, NewTheme(true)); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestWrite_TextFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]int{"n": 2}, "text", false, NewTheme(true)); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil || got["n"] != 2 {
		t.Fatalf("expected JSON fallback; got %q (%v)", buf.String(), err)
	}
}

func TestBoardView_Text(t *testing.T) {
	out := sampleView().Text(NewTheme(true))
	lines := strings.Split(out, "\n")

	want := 16 + 1 + 16 + 1 + collapsedColumnWidth
	for i, ln := range lines {
		if w := xansi.StringWidth(ln); w != want {
			t.Fatalf("line %d width=%d, want %d: %q", i, w, want, ln)
		}
	}
	for _, s := range []string{"Todo (2)", "Done (1)", "[x] shipped", "[ ] short", "…"} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in output:\n%s", s, out)
		}
	}
	if strings.Contains(out, "old") {
		t.Fatalf("collapsed lane must hide its items:\n%s", out)
	}
}

func TestBoardView_NoLanes(t *testing.T) {
	out := BoardView{Board: model.NewBoard("Empty")}.Text(NewTheme(true))
	if !strings.Contains(out, "no lanes") {
		t.Fatalf("unexpected output: %q", out)
	}
}
