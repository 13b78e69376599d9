package format

import (
	"encoding/json"
	"fmt"
	"io"
)

// Texter is implemented by values with a human-readable rendering.
type Texter interface {
	Text(th Theme) string
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - text (values implementing Texter; anything else falls back to indented JSON)
func Write(w io.Writer, v any, format string, pretty bool, th Theme) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "text":
		t, ok := v.(Texter)
		if !ok {
			return WriteJSON(w, v, true)
		}
		_, err := fmt.Fprintln(w, t.Text(th))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}
