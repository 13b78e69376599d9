// Package collapse keeps the per-lane collapse flags aligned with a board's lane list.
//
// The flags live beside the board rather than on lane entities. Every lane insert, remove or
// move must be mirrored here with the same positional algebra and committed together with the
// board change, so that len(flags) == len(board.Children) always holds.
package collapse

import (
	"errors"
	"fmt"

	"kanban-cli/internal/model"
	"kanban-cli/internal/tree"
)

var ErrOutOfRange = errors.New("collapse index out of range")

type OpKind int

const (
	OpInsert OpKind = iota
	OpRemove
	OpMove
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpMove:
		return "move"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// Op describes one splice. For OpMove, To is the target index against the array before the
// removal; Splice applies the same correction tree.Move applies to lane paths.
type Op struct {
	Kind   OpKind
	From   int
	To     int
	Values []bool
}

// Splice applies op to arr and returns a new slice. arr is never modified.
func Splice(arr []bool, op Op) ([]bool, error) {
	switch op.Kind {
	case OpInsert:
		if op.To < 0 || op.To > len(arr) {
			return arr, rangeErr(op, len(arr))
		}
		out := make([]bool, 0, len(arr)+len(op.Values))
		out = append(out, arr[:op.To]...)
		out = append(out, op.Values...)
		return append(out, arr[op.To:]...), nil
	case OpRemove:
		if op.From < 0 || op.From >= len(arr) {
			return arr, rangeErr(op, len(arr))
		}
		out := make([]bool, 0, len(arr)-1)
		out = append(out, arr[:op.From]...)
		return append(out, arr[op.From+1:]...), nil
	case OpMove:
		if op.From < 0 || op.From >= len(arr) || op.To < 0 || op.To > len(arr) {
			return arr, rangeErr(op, len(arr))
		}
		v := arr[op.From]
		rest, _ := Splice(arr, Op{Kind: OpRemove, From: op.From})
		return Splice(rest, Op{Kind: OpInsert, To: tree.CorrectIndex(op.From, op.To), Values: []bool{v}})
	default:
		return arr, fmt.Errorf("unknown collapse op %v", op.Kind)
	}
}

// Normalize pads with false or truncates so that the result has exactly n entries.
func Normalize(arr []bool, n int) []bool {
	out := make([]bool, n)
	copy(out, arr)
	return out
}

func rangeErr(op Op, n int) error {
	return fmt.Errorf("%w: %s from=%d to=%d len=%d", ErrOutOfRange, op.Kind, op.From, op.To, n)
}

// State pairs a board with its collapse flags so both change in one value.
type State struct {
	Board    model.Entity
	Collapse []bool
}

// Check reports a length mismatch between the flags and the board's lanes.
func (s State) Check() error {
	if len(s.Collapse) != len(s.Board.Children) {
		return fmt.Errorf("collapse flags out of sync: %d flags for %d lanes", len(s.Collapse), len(s.Board.Children))
	}
	return nil
}

// MoveLane moves the lane at from to the insertion point to (indices against s) and splices the
// flags with the same correction.
func MoveLane(s State, from, to int) (State, tree.MoveResult, error) {
	if err := s.Check(); err != nil {
		return s, tree.MoveResult{}, err
	}
	board, res, err := tree.Move(s.Board, model.Path{from}, model.Path{to}, tree.MoveOpts{})
	if err != nil || !res.Moved {
		return s, res, err
	}
	flags, err := Splice(s.Collapse, Op{Kind: OpMove, From: from, To: to})
	if err != nil {
		return s, tree.MoveResult{}, err
	}
	return State{Board: board, Collapse: flags}, res, nil
}

// InsertLanes inserts lanes at index at, each with the matching collapse flag (false when flags
// is shorter than lanes).
func InsertLanes(s State, at int, lanes []model.Entity, flags []bool) (State, error) {
	if err := s.Check(); err != nil {
		return s, err
	}
	board, err := tree.Insert(s.Board, model.Path{at}, lanes...)
	if err != nil {
		return s, err
	}
	vals := Normalize(flags, len(lanes))
	next, err := Splice(s.Collapse, Op{Kind: OpInsert, To: at, Values: vals})
	if err != nil {
		return s, err
	}
	return State{Board: board, Collapse: next}, nil
}

// RemoveLane removes the lane at idx and its flag. The removed flag is returned so callers can
// carry it into another board.
func RemoveLane(s State, idx int) (State, bool, error) {
	if err := s.Check(); err != nil {
		return s, false, err
	}
	board, err := tree.Remove(s.Board, model.Path{idx}, nil)
	if err != nil {
		return s, false, err
	}
	flag := s.Collapse[idx]
	next, err := Splice(s.Collapse, Op{Kind: OpRemove, From: idx})
	if err != nil {
		return s, false, err
	}
	return State{Board: board, Collapse: next}, flag, nil
}

// Toggle sets the flag of the lane at idx.
func Toggle(s State, idx int, collapsed bool) (State, error) {
	if idx < 0 || idx >= len(s.Collapse) {
		return s, rangeErr(Op{Kind: OpInsert, From: idx, To: idx}, len(s.Collapse))
	}
	next := append([]bool{}, s.Collapse...)
	next[idx] = collapsed
	return State{Board: s.Board, Collapse: next}, nil
}
