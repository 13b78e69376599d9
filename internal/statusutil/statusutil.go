package statusutil

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	OpenChar = ' '
	DoneChar = 'x'
)

// NormalizeCheckChar maps user input ("x", "done", "todo", " ") to a checkbox character.
func NormalizeCheckChar(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "todo", "open", "none":
		return OpenChar, nil
	case "x", "done", "complete", "completed":
		return DoneChar, nil
	default:
		r := []rune(strings.TrimSpace(s))
		if len(r) != 1 {
			return 0, fmt.Errorf("invalid check char: %q", s)
		}
		if !ValidCheckChar(r[0]) {
			return 0, fmt.Errorf("invalid check char: %q", s)
		}
		return r[0], nil
	}
}

// ValidCheckChar reports whether r may appear between checkbox brackets.
func ValidCheckChar(r rune) bool {
	if r == OpenChar {
		return true
	}
	return r != 0 && r != '[' && r != ']' && !unicode.IsSpace(r) && unicode.IsPrint(r)
}

// IsChecked reports whether a checkbox character marks the item checked.
func IsChecked(ch rune) bool {
	return ch == 'x' || ch == 'X'
}

// IsEndState reports whether ch closes the item (checked or cancelled).
func IsEndState(ch rune) bool {
	return IsChecked(ch) || ch == '-'
}

var checkboxLine = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+\[(.)\](?:\s+(.*))?$`)

// ParseLine splits a task list line ("- [x] title") into its check character and raw title.
func ParseLine(line string) (ch rune, raw string, ok bool) {
	m := checkboxLine.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return 0, "", false
	}
	r := []rune(m[1])
	return r[0], m[2], true
}

// FormatLine renders a task list line.
func FormatLine(ch rune, raw string) string {
	if ch == 0 {
		ch = OpenChar
	}
	if raw == "" {
		return fmt.Sprintf("- [%c]", ch)
	}
	return fmt.Sprintf("- [%c] %s", ch, raw)
}
