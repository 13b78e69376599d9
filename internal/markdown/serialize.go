package markdown

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"kanban-cli/internal/collapse"
	"kanban-cli/internal/model"
	"kanban-cli/internal/statusutil"

	"gopkg.in/yaml.v3"
)

// Serialize renders a board file. Collapse flags are stored in the settings block.
func Serialize(b Board) ([]byte, error) {
	if b.Root.Type != model.EntityBoard {
		return nil, fmt.Errorf("%w: root is %s", ErrNotBoard, b.Root.Type)
	}
	bd, _ := b.Root.Board()

	fm := map[string]any{}
	for k, v := range b.Frontmatter {
		fm[k] = v
	}
	if _, ok := fm[pluginKey]; !ok {
		fm[pluginKey] = "basic"
	}
	fmBytes, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n\n")
	buf.Write(fmBytes)
	buf.WriteString("\n---\n\n")
	if bd.Notes != "" {
		buf.WriteString(bd.Notes + "\n\n")
	}

	for _, lane := range b.Root.Children {
		ld, ok := lane.Lane()
		if !ok {
			return nil, fmt.Errorf("%w: %s %q under board", ErrNotBoard, lane.Type, lane.ID)
		}
		fmt.Fprintf(&buf, "## %s\n\n", ld.Title)
		if ld.Notes != "" {
			buf.WriteString(ld.Notes + "\n\n")
		}
		if ld.MarksComplete {
			buf.WriteString(completeMarker + "\n")
		}
		for _, it := range lane.Children {
			id, ok := it.Item()
			if !ok {
				return nil, fmt.Errorf("%w: %s %q under lane", ErrNotBoard, it.Type, it.ID)
			}
			// Continuation lines sit at the item's content column.
			raw := strings.ReplaceAll(id.TitleRaw, "\n", "\n  ")
			buf.WriteString(statusutil.FormatLine(id.CheckChar, raw))
			buf.WriteByte('\n')
		}
		buf.WriteString("\n\n")
	}

	settings := map[string]any{}
	for k, v := range bd.Settings {
		settings[k] = v
	}
	if _, ok := settings[pluginKey]; !ok {
		settings[pluginKey] = "basic"
	}
	settings[collapseSetting] = collapse.Normalize(b.Collapse, len(b.Root.Children))
	js, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	buf.WriteString("\n" + settingsOpen + "\n```\n")
	buf.Write(js)
	buf.WriteString("\n```\n" + settingsClose + "\n")
	return buf.Bytes(), nil
}

// ParseItems materializes externally dropped text into open items, one per non-empty line.
// Task list lines keep their check character.
func ParseItems(s string, newID func(prefix string) string) []model.Entity {
	if newID == nil {
		newID = model.NewID
	}
	var out []model.Entity
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if ch, raw, ok := statusutil.ParseLine(line); ok {
			out = append(out, itemEntity(newID("item"), ch, raw))
			continue
		}
		raw := strings.TrimSpace(line)
		for _, bullet := range []string{"- ", "* ", "+ "} {
			raw = strings.TrimPrefix(raw, bullet)
		}
		out = append(out, itemEntity(newID("item"), statusutil.OpenChar, raw))
	}
	return out
}
