package format

import (
	"fmt"
	"strings"

	"kanban-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

const (
	defaultColumnWidth   = 28
	collapsedColumnWidth = 6
)

// BoardView renders a board as side-by-side lane columns.
type BoardView struct {
	Board    model.Entity `json:"board"`
	Collapse []bool       `json:"collapse"`
	// ColumnWidth is the width of an expanded lane. Zero uses a default.
	ColumnWidth int `json:"-"`
}

func (v BoardView) Text(th Theme) string {
	colW := v.ColumnWidth
	if colW <= 0 {
		colW = defaultColumnWidth
	}

	if bd, ok := v.Board.Board(); ok && strings.TrimSpace(bd.Title) != "" && len(v.Board.Children) == 0 {
		return th.Muted.Render(bd.Title + " (no lanes)")
	}

	cols := make([]string, 0, len(v.Board.Children))
	widths := make([]int, 0, len(v.Board.Children))
	height := 0
	for i, lane := range v.Board.Children {
		col, w := renderLane(lane, colW, th), colW
		if i < len(v.Collapse) && v.Collapse[i] {
			col, w = renderCollapsed(lane, th), collapsedColumnWidth
		}
		if h := lipgloss.Height(col); h > height {
			height = h
		}
		cols = append(cols, col)
		widths = append(widths, w)
	}
	for i := range cols {
		cols[i] = fitPane(cols[i], widths[i], height)
	}
	if len(cols) == 0 {
		return ""
	}

	sep := strings.TrimSuffix(strings.Repeat("│\n", height), "\n")
	out := cols[0]
	for _, c := range cols[1:] {
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, th.Muted.Render(sep), c)
	}
	return out
}

func renderLane(lane model.Entity, width int, th Theme) string {
	ld, _ := lane.Lane()
	header := th.LaneHeader
	if ld.MarksComplete {
		header = th.DoneLaneHeader
	}
	title := fmt.Sprintf("%s (%d)", ld.Title, len(lane.Children))
	if ld.Sorted {
		title += " ⇅"
	}

	lines := []string{header.Render(truncate(title, width)), ""}
	for _, it := range lane.Children {
		d, ok := it.Item()
		if !ok {
			continue
		}
		box := fmt.Sprintf("[%c] ", d.CheckChar)
		first, _, _ := strings.Cut(d.Title, "\n")
		text := truncate(box+first, width)
		if d.Checked {
			lines = append(lines, th.Done.Render(text))
		} else {
			lines = append(lines, th.Open.Render(text))
		}
	}
	return strings.Join(lines, "\n")
}

func renderCollapsed(lane model.Entity, th Theme) string {
	ld, _ := lane.Lane()
	label := truncate("▸ "+ld.Title, collapsedColumnWidth)
	return th.Collapsed.Render(label) + "\n" + th.Muted.Render(fmt.Sprintf("(%d)", len(lane.Children)))
}

func truncate(s string, width int) string {
	if xansi.StringWidth(s) <= width {
		return s
	}
	if width <= 1 {
		return xansi.Cut(s, 0, width)
	}
	return xansi.Truncate(s, width, "…")
}

// fitPane forces s to be exactly width columns wide (ANSI-aware) and height lines tall so
// lipgloss.JoinHorizontal lines columns up.
func fitPane(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, ln := range lines {
		w := xansi.StringWidth(ln)
		if w > width {
			ln = truncate(ln, width)
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}
