package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses an entity within one tree snapshot as a sequence of child indices from the root.
// The empty path is the board, one index a lane, two indices an item.
//
// A path is only meaningful against the snapshot it was computed from: inserting or removing a
// sibling shifts the indices after it.
type Path []int

// Parent returns the path of the containing entity. The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return append(Path{}, p[:len(p)-1]...)
}

// Last returns the final index, or -1 for the root.
func (p Path) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// Append returns a new path with idx added. p is not modified.
func (p Path) Append(idx int) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, p...)
	return append(out, idx)
}

func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// SameParent reports whether p and o address siblings under one parent.
func (p Path) SameParent(o Path) bool {
	if len(p) == 0 || len(o) == 0 {
		return false
	}
	return p.Parent().Equal(o.Parent())
}

func (p Path) String() string {
	if len(p) == 0 {
		return "root"
	}
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// ParsePath parses the dotted form produced by String ("1.0"). "" and "root" are the board.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "root") {
		return Path{}, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == ',' || r == '/' })
	out := make(Path, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", s, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("invalid path %q: negative index", s)
		}
		out = append(out, n)
	}
	return out, nil
}
