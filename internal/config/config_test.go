package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"kanban-cli/internal/model"
	"kanban-cli/internal/tree"
)

func TestParse_JSONC(t *testing.T) {
	s, err := Parse([]byte(`{
		// prepend new cards
		"insertionPolicy": "prepend",
		"debounce": "2s",
	}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if s.InsertionPolicy != InsertPrepend {
		t.Fatalf("policy=%q", s.InsertionPolicy)
	}
	if time.Duration(s.Debounce) != 2*time.Second {
		t.Fatalf("debounce=%v", time.Duration(s.Debounce))
	}
	if s.RecurrenceMarker != DefaultRecurrenceMarker {
		t.Fatalf("expected default recurrence marker; got %q", s.RecurrenceMarker)
	}

	if _, err := Parse([]byte(`{"insertionPolicy": "sideways"}`)); err == nil {
		t.Fatalf("expected invalid policy error")
	}
	if _, err := Parse([]byte(`{`)); err == nil {
		t.Fatalf("expected JSONC error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{"KANBAN_INSERT": "prepend-compact", "KANBAN_DEBOUNCE": "50ms", "KANBAN_JOURNAL_DIR": "/tmp/j"}
	s, err := ApplyEnv(Default(), func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("ApplyEnv error: %v", err)
	}
	if s.InsertionPolicy != InsertPrepend || time.Duration(s.Debounce) != 50*time.Millisecond || s.JournalDir != "/tmp/j" {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if s.InsertionPolicy.DropAt() != tree.InsertHead {
		t.Fatalf("prepend-compact must insert at head")
	}
	if _, err := ApplyEnv(Default(), func(k string) string {
		if k == "KANBAN_DEBOUNCE" {
			return "soon"
		}
		return ""
	}); err == nil {
		t.Fatalf("expected debounce error")
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KANBAN_CONFIG_DIR", dir)
	t.Setenv("KANBAN_INSERT", "")
	t.Setenv("KANBAN_DEBOUNCE", "")
	t.Setenv("KANBAN_JOURNAL_DIR", "")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load (missing file) error: %v", err)
	}
	if s.InsertionPolicy != InsertAppend {
		t.Fatalf("expected default policy; got %q", s.InsertionPolicy)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"insertionPolicy":"prepend"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	s, err = Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s.InsertionPolicy != InsertPrepend {
		t.Fatalf("policy=%q", s.InsertionPolicy)
	}
}

func TestPolicyFor(t *testing.T) {
	s := Default()
	b := model.NewBoard("b")
	if got := s.PolicyFor(b); got != InsertAppend {
		t.Fatalf("PolicyFor default=%q", got)
	}
	b.Data = model.BoardData{Settings: map[string]any{BoardInsertionKey: "prepend"}}
	if got := s.PolicyFor(b); got != InsertPrepend {
		t.Fatalf("PolicyFor board override=%q", got)
	}
	b.Data = model.BoardData{Settings: map[string]any{BoardInsertionKey: "bogus"}}
	if got := s.PolicyFor(b); got != InsertAppend {
		t.Fatalf("PolicyFor invalid override=%q", got)
	}
}

func TestParseInsertionPolicy_Spellings(t *testing.T) {
	cases := map[string]InsertionPolicy{
		"":                InsertAppend,
		"append":          InsertAppend,
		" Prepend ":       InsertPrepend,
		"prepend-compact": InsertPrepend,
	}
	for in, want := range cases {
		got, err := ParseInsertionPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseInsertionPolicy(%q)=%q, %v; want %q", in, got, err, want)
		}
	}
}
