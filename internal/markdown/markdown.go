// Package markdown converts between board files and board trees.
//
// A board file is a markdown document with YAML frontmatter, one "## " heading per lane, a task
// list under each heading, and a trailing settings block:
//
//	%% kanban:settings
//	```
//	{"kanban-plugin":"basic","list-collapse":[false,true]}
//	```
//	%%
package markdown

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"kanban-cli/internal/model"
	"kanban-cli/internal/statusutil"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

const (
	completeMarker  = "**Complete**"
	settingsOpen    = "%% kanban:settings"
	settingsClose   = "%%"
	collapseSetting = "list-collapse"
	pluginKey       = "kanban-plugin"
)

var ErrNotBoard = errors.New("not a kanban board")

// Board is a parsed board file.
type Board struct {
	Root        model.Entity
	Collapse    []bool
	Frontmatter map[string]any
}

// Parser builds board trees. NewID defaults to model.NewID.
type Parser struct {
	NewID func(prefix string) string
}

var md = goldmark.New()

// Parse parses a board file with random ids.
func Parse(src []byte) (Board, error) {
	return Parser{}.Parse(src)
}

func (p Parser) newID(prefix string) string {
	if p.NewID != nil {
		return p.NewID(prefix)
	}
	return model.NewID(prefix)
}

func (p Parser) Parse(src []byte) (Board, error) {
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))

	fm, body, err := splitFrontmatter(src)
	if err != nil {
		return Board{}, err
	}
	settings, body, err := splitSettings(body)
	if err != nil {
		return Board{}, err
	}

	root := model.Entity{ID: "board", Type: model.EntityBoard}
	bd := model.BoardData{}
	if t, ok := fm["title"].(string); ok {
		bd.Title = t
	}

	doc := md.Parser().Parse(text.NewReader(body))
	lead, chunks := splitBlocks(doc, body)

	var preamble, notes strings.Builder
	preamble.Write(lead)
	var cur *model.Entity
	flush := func() {
		if cur != nil {
			ld, _ := cur.Lane()
			ld.Notes = trimBlock(notes.String())
			cur.Data = ld
			root.Children = append(root.Children, *cur)
			cur = nil
		}
		notes.Reset()
	}
	for _, c := range chunks {
		raw := body[c.start:c.end]
		switch node := c.node.(type) {
		case *ast.Heading:
			if node.Level == 2 {
				flush()
				lane := model.Entity{
					ID:   p.newID("lane"),
					Type: model.EntityLane,
					Data: model.LaneData{Title: linesText(node, body)},
				}
				cur = &lane
				notes.Write(trailing(node, body, c.end))
				continue
			}
		case *ast.Paragraph:
			if cur != nil && strings.TrimSpace(linesText(node, body)) == completeMarker {
				ld, _ := cur.Lane()
				ld.MarksComplete = true
				cur.Data = ld
				notes.Write(trailing(node, body, c.end))
				continue
			}
		case *ast.List:
			if cur != nil {
				cur.Children = append(cur.Children, p.listItems(node, body, c.end)...)
				continue
			}
		}
		if cur == nil {
			preamble.Write(raw)
		} else {
			notes.Write(raw)
		}
	}
	flush()
	bd.Notes = trimBlock(preamble.String())

	collapse := make([]bool, len(root.Children))
	if raw, ok := settings[collapseSetting].([]any); ok {
		for i := 0; i < len(raw) && i < len(collapse); i++ {
			b, _ := raw[i].(bool)
			collapse[i] = b
		}
	}
	delete(settings, collapseSetting)
	if len(settings) > 0 {
		bd.Settings = settings
	}
	root.Data = bd

	return Board{Root: root, Collapse: collapse, Frontmatter: fm}, nil
}

// listItems turns every item of a list into a card. An item without a checkbox is an open card.
// The raw text of an item runs from its content to the next item, so nested blocks stay with it.
func (p Parser) listItems(list ast.Node, src []byte, end int) []model.Entity {
	var out []model.Entity
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		start, ok := firstSegment(li)
		if !ok {
			out = append(out, itemEntity(p.newID("item"), statusutil.OpenChar, ""))
			continue
		}
		stop := end
		for next := li.NextSibling(); next != nil; next = next.NextSibling() {
			if s, ok := firstSegment(next); ok {
				stop = lineStart(src, s)
				break
			}
		}
		raw := dedent(string(src[start:stop]), start-lineStart(src, start))
		ch, rest, ok := splitCheckbox(raw)
		if !ok {
			ch, rest = statusutil.OpenChar, raw
		}
		out = append(out, itemEntity(p.newID("item"), ch, rest))
	}
	return out
}

func itemEntity(id string, ch rune, raw string) model.Entity {
	title := raw
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	return model.Entity{
		ID:   id,
		Type: model.EntityItem,
		Data: model.ItemData{
			Title:     strings.TrimSpace(title),
			TitleRaw:  raw,
			Checked:   statusutil.IsChecked(ch),
			CheckChar: ch,
		},
	}
}

// splitCheckbox splits "[x] rest" as seen after the list marker.
func splitCheckbox(s string) (rune, string, bool) {
	r := []rune(s)
	if len(r) < 3 || r[0] != '[' || r[2] != ']' {
		return 0, "", false
	}
	rest := strings.TrimLeft(string(r[3:]), " \t")
	return r[1], rest, true
}

// chunk is the source range of one top-level block, up to the start of the next one.
type chunk struct {
	node       ast.Node
	start, end int
}

// splitBlocks partitions src into top-level block ranges. lead is whatever precedes the first
// block. Blocks goldmark keeps no source position for (thematic breaks) start at the first
// non-blank line after the previous block's content.
func splitBlocks(doc ast.Node, src []byte) ([]byte, []chunk) {
	var out []chunk
	prevEnd := 0
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		start, ok := blockStart(n, src)
		if !ok {
			start, ok = nextLine(src, prevEnd)
		}
		if end, known := contentEnd(n); known {
			prevEnd = end
		} else if ok {
			prevEnd = lineEnd(src, start+1)
		}
		if !ok || (len(out) > 0 && start <= out[len(out)-1].start) {
			continue
		}
		out = append(out, chunk{node: n, start: start})
	}
	if len(out) == 0 {
		return src, nil
	}
	for i := range out {
		if i+1 < len(out) {
			out[i].end = out[i+1].start
		} else {
			out[i].end = len(src)
		}
	}
	return src[:out[0].start], out
}

func blockStart(n ast.Node, src []byte) (int, bool) {
	if fc, ok := n.(*ast.FencedCodeBlock); ok {
		if fc.Info != nil {
			return lineStart(src, fc.Info.Segment.Start), true
		}
		pos, ok := firstSegment(n)
		if !ok {
			return 0, false
		}
		// The opening fence is the line above the first content line.
		ls := lineStart(src, pos)
		if ls == 0 {
			return 0, false
		}
		return lineStart(src, ls-1), true
	}
	pos, ok := firstSegment(n)
	if !ok {
		return 0, false
	}
	return lineStart(src, pos), true
}

// firstSegment returns the offset of the first source line of n or its first block descendant.
func firstSegment(n ast.Node) (int, bool) {
	if n.Type() != ast.TypeBlock {
		return 0, false
	}
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		return lines.At(0).Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if pos, ok := firstSegment(c); ok {
			return pos, true
		}
	}
	return 0, false
}

func contentEnd(n ast.Node) (int, bool) {
	if n.Type() != ast.TypeBlock {
		return 0, false
	}
	end, ok := 0, false
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		end, ok = lines.At(lines.Len()-1).Stop, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if e, known := contentEnd(c); known && e > end {
			end, ok = e, true
		}
	}
	return end, ok
}

// trailing returns the part of a chunk after the line n's content ends on.
func trailing(n ast.Node, src []byte, end int) []byte {
	stop, ok := contentEnd(n)
	if !ok {
		return nil
	}
	stop = lineEnd(src, stop)
	if _, ok := n.(*ast.Heading); ok && stop < end {
		// A setext heading's underline follows its content line.
		if next := lineEnd(src, stop+1); isUnderline(src[stop:next]) {
			stop = next
		}
	}
	if stop >= end {
		return nil
	}
	return src[stop:end]
}

func isUnderline(line []byte) bool {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return false
	}
	for _, c := range line {
		if c != '=' && c != '-' {
			return false
		}
	}
	return true
}

func lineStart(src []byte, pos int) int {
	if pos > len(src) {
		pos = len(src)
	}
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// lineEnd returns the offset just past the newline ending the line that holds byte pos-1.
func lineEnd(src []byte, pos int) int {
	if pos > 0 && pos <= len(src) && src[pos-1] == '\n' {
		return pos
	}
	if i := bytes.IndexByte(src[min(pos, len(src)):], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

// nextLine returns the start of the first non-blank line at or after the line end following pos.
func nextLine(src []byte, pos int) (int, bool) {
	if pos > 0 {
		pos = lineEnd(src, pos)
	}
	for pos < len(src) {
		next := lineEnd(src, pos+1)
		if len(bytes.TrimSpace(src[pos:next])) > 0 {
			return pos, true
		}
		pos = next
	}
	return 0, false
}

// dedent strips up to col leading blanks from every line after the first.
func dedent(s string, col int) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		l := lines[i]
		n := 0
		for n < col && n < len(l) && (l[n] == ' ' || l[n] == '\t') {
			n++
		}
		lines[i] = l[n:]
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \t\n")
}

// trimBlock drops leading blank lines and trailing whitespace from a verbatim block.
func trimBlock(s string) string {
	s = strings.TrimRight(s, " \t\n")
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 || strings.TrimSpace(s[:i]) != "" {
			break
		}
		s = s[i+1:]
	}
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

func linesText(n ast.Node, src []byte) string {
	lines := n.Lines()
	if lines == nil {
		return ""
	}
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(src)), "\n")
		if i > 0 {
			line = strings.TrimLeft(line, " \t")
		}
		parts = append(parts, line)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func splitFrontmatter(src []byte) (map[string]any, []byte, error) {
	fm := map[string]any{}
	s := string(src)
	if !strings.HasPrefix(s, "---\n") {
		return fm, src, nil
	}
	rest := s[len("---\n"):]
	if strings.HasPrefix(rest, "---") {
		rest = "\n" + rest
	}
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, nil, fmt.Errorf("%w: unterminated frontmatter", ErrNotBoard)
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return nil, nil, fmt.Errorf("frontmatter: %w", err)
	}
	if fm == nil {
		fm = map[string]any{}
	}
	body := rest[end+len("\n---"):]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return fm, []byte(body), nil
}

func splitSettings(body []byte) (map[string]any, []byte, error) {
	settings := map[string]any{}
	s := string(body)
	start := strings.Index(s, settingsOpen)
	if start < 0 {
		return settings, body, nil
	}
	block := s[start+len(settingsOpen):]
	end := strings.LastIndex(block, settingsClose)
	if end < 0 {
		return nil, nil, fmt.Errorf("%w: unterminated settings block", ErrNotBoard)
	}
	inner := strings.TrimSpace(block[:end])
	inner = strings.TrimPrefix(inner, "```json")
	inner = strings.TrimPrefix(inner, "```")
	inner = strings.TrimSuffix(inner, "```")
	inner = strings.TrimSpace(inner)
	if inner != "" {
		if err := json.Unmarshal([]byte(inner), &settings); err != nil {
			return nil, nil, fmt.Errorf("settings: %w", err)
		}
	}
	return settings, []byte(s[:start]), nil
}
