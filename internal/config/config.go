package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kanban-cli/internal/model"
	"kanban-cli/internal/tree"

	"github.com/tailscale/hujson"
)

type InsertionPolicy string

const (
	InsertAppend  InsertionPolicy = "append"
	InsertPrepend InsertionPolicy = "prepend"

	// BoardInsertionKey is the board settings key that overrides the global policy.
	BoardInsertionKey = "new-card-insertion-method"

	DefaultDebounce         = 500 * time.Millisecond
	DefaultRecurrenceMarker = "🔁"
)

func ParseInsertionPolicy(s string) (InsertionPolicy, error) {
	switch InsertionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", InsertAppend:
		return InsertAppend, nil
	// Obsidian boards also write prepend-compact; it inserts the same way.
	case InsertPrepend, "prepend-compact":
		return InsertPrepend, nil
	default:
		return "", fmt.Errorf("invalid insertion method: %q", s)
	}
}

// DropAt maps the policy onto where a drop onto a container lands.
func (p InsertionPolicy) DropAt() tree.InsertAt {
	switch p {
	case InsertPrepend:
		return tree.InsertHead
	default:
		return tree.InsertTail
	}
}

type Settings struct {
	InsertionPolicy  InsertionPolicy `json:"insertionPolicy,omitempty"`
	Debounce         Duration        `json:"debounce,omitempty"`
	RecurrenceMarker string          `json:"recurrenceMarker,omitempty"`

	// JournalDir holds the sqlite journal. Empty disables the journal.
	JournalDir string `json:"journalDir,omitempty"`
}

// Duration is a time.Duration that reads "500ms"-style strings from config files.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return fmt.Errorf("invalid duration: %s", b)
		}
		*d = Duration(time.Duration(n) * time.Millisecond)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	*d = Duration(v)
	return nil
}

func Default() Settings {
	return Settings{
		InsertionPolicy:  InsertAppend,
		Debounce:         Duration(DefaultDebounce),
		RecurrenceMarker: DefaultRecurrenceMarker,
	}
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.kanban).
	if v := strings.TrimSpace(os.Getenv("KANBAN_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".kanban"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file (JSON with comments), then applies environment overrides.
// A missing file yields the defaults.
func Load() (Settings, error) {
	s := Default()
	path, err := ConfigPath()
	if err != nil {
		return s, err
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return s, err
	default:
		if s, err = Parse(b); err != nil {
			return s, fmt.Errorf("%s: %w", path, err)
		}
	}
	return ApplyEnv(s, os.Getenv)
}

// Parse decodes a JSONC config on top of the defaults.
func Parse(b []byte) (Settings, error) {
	s := Default()
	std, err := hujson.Standardize(b)
	if err != nil {
		return s, fmt.Errorf("invalid JSONC: %w", err)
	}
	if err := json.Unmarshal(std, &s); err != nil {
		return s, fmt.Errorf("invalid JSON: %w", err)
	}
	p, err := ParseInsertionPolicy(string(s.InsertionPolicy))
	if err != nil {
		return s, err
	}
	s.InsertionPolicy = p
	if s.Debounce < 0 {
		return s, fmt.Errorf("invalid debounce: %s", time.Duration(s.Debounce))
	}
	return s, nil
}

// ApplyEnv overlays KANBAN_INSERT, KANBAN_DEBOUNCE and KANBAN_JOURNAL_DIR.
func ApplyEnv(s Settings, getenv func(string) string) (Settings, error) {
	if v := strings.TrimSpace(getenv("KANBAN_INSERT")); v != "" {
		p, err := ParseInsertionPolicy(v)
		if err != nil {
			return s, err
		}
		s.InsertionPolicy = p
	}
	if v := strings.TrimSpace(getenv("KANBAN_DEBOUNCE")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return s, fmt.Errorf("KANBAN_DEBOUNCE: %w", err)
		}
		s.Debounce = Duration(d)
	}
	if v := strings.TrimSpace(getenv("KANBAN_JOURNAL_DIR")); v != "" {
		s.JournalDir = v
	}
	return s, nil
}

// PolicyFor returns the insertion policy for one board: the board's own setting when valid,
// the global one otherwise.
func (s Settings) PolicyFor(board model.Entity) InsertionPolicy {
	bd, ok := board.Board()
	if !ok {
		return s.InsertionPolicy
	}
	raw, ok := bd.Settings[BoardInsertionKey].(string)
	if !ok {
		return s.InsertionPolicy
	}
	p, err := ParseInsertionPolicy(raw)
	if err != nil {
		return s.InsertionPolicy
	}
	return p
}
