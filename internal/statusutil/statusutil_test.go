package statusutil

import "testing"

func TestNormalizeCheckChar(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{in: "", want: ' '},
		{in: "todo", want: ' '},
		{in: "DONE", want: 'x'},
		{in: "x", want: 'x'},
		{in: "-", want: '-'},
		{in: "/", want: '/'},
		{in: "xx", wantErr: true},
		{in: "[", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NormalizeCheckChar(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("NormalizeCheckChar(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizeCheckChar(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("NormalizeCheckChar(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEndStates(t *testing.T) {
	if !IsChecked('x') || !IsChecked('X') || IsChecked(' ') || IsChecked('-') {
		t.Fatalf("IsChecked mismatch")
	}
	if !IsEndState('-') || IsEndState('/') {
		t.Fatalf("IsEndState mismatch")
	}
}

func TestParseAndFormatLine(t *testing.T) {
	tests := []struct {
		line   string
		ch     rune
		raw    string
		wantOK bool
	}{
		{line: "- [ ] buy milk", ch: ' ', raw: "buy milk", wantOK: true},
		{line: "* [x] done #tag", ch: 'x', raw: "done #tag", wantOK: true},
		{line: "  1. [/] half", ch: '/', raw: "half", wantOK: true},
		{line: "- [ ]", ch: ' ', raw: "", wantOK: true},
		{line: "- plain", wantOK: false},
		{line: "[x] no bullet", wantOK: false},
	}
	for _, tt := range tests {
		ch, raw, ok := ParseLine(tt.line)
		if ok != tt.wantOK {
			t.Fatalf("ParseLine(%q) ok=%v, want %v", tt.line, ok, tt.wantOK)
		}
		if !ok {
			continue
		}
		if ch != tt.ch || raw != tt.raw {
			t.Fatalf("ParseLine(%q)=(%q,%q), want (%q,%q)", tt.line, ch, raw, tt.ch, tt.raw)
		}
	}
	if got := FormatLine('x', "a b"); got != "- [x] a b" {
		t.Fatalf("FormatLine=%q", got)
	}
	if got := FormatLine(0, ""); got != "- [ ]" {
		t.Fatalf("FormatLine empty=%q", got)
	}
}
