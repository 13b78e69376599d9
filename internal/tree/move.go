package tree

import "kanban-cli/internal/model"

// MoveOpts carries the per-move transforms. Either may be nil.
type MoveOpts struct {
	// TransformMoved returns the version of the entity to insert at the target.
	TransformMoved func(model.Entity) (model.Entity, error)
	// TransformReplacement returns what stays behind at the source instead of a plain
	// removal, or nil for a removal.
	TransformReplacement func(model.Entity) (*model.Entity, error)
}

type MoveResult struct {
	Moved       bool
	Entity      model.Entity
	Replacement *model.Entity

	From model.Path
	// To is the corrected target path in the tree returned by Move.
	To model.Path

	// ClearedSort is set when the destination lane lost its manual-order marker.
	ClearedSort bool
}

// CorrectIndex maps a target index chosen against the original sibling list onto the list
// after the source at from has been removed.
func CorrectIndex(from, to int) int {
	if from < to {
		return to - 1
	}
	return to
}

// CorrectTarget adjusts to for the removal of the entity at from. When to passes through the
// parent of from at an index after from, that index shifts left by one. Targets in a disjoint
// sibling array are returned unchanged.
func CorrectTarget(from, to model.Path) model.Path {
	out := append(model.Path{}, to...)
	if len(from) == 0 || len(to) < len(from) {
		return out
	}
	depth := len(from) - 1
	for i := 0; i < depth; i++ {
		if from[i] != to[i] {
			return out
		}
	}
	out[depth] = CorrectIndex(from[depth], to[depth])
	return out
}

// Move relocates the entity at from to the insertion point to (parent path + index, computed
// against root). A source that no longer resolves makes the move a no-op. Any failure after
// that returns root unchanged together with the error, so a move is never half applied.
func Move(root model.Entity, from, to model.Path, opts MoveOpts) (model.Entity, MoveResult, error) {
	ent, ok := Lookup(root, from)
	if !ok || len(from) == 0 {
		return root, MoveResult{}, nil
	}
	if len(to) == 0 {
		return root, MoveResult{}, NotFoundError{Path: to}
	}
	if isWithin(to.Parent(), from) {
		return root, MoveResult{}, ErrCycle
	}
	if _, ok := Lookup(root, to.Parent()); !ok {
		return root, MoveResult{}, nil
	}

	var replacement *model.Entity
	if opts.TransformReplacement != nil {
		r, err := opts.TransformReplacement(ent)
		if err != nil {
			return root, MoveResult{}, TransformError{EntityID: ent.ID, Err: err}
		}
		replacement = r
	}
	moved := ent
	if opts.TransformMoved != nil {
		m, err := opts.TransformMoved(ent)
		if err != nil {
			return root, MoveResult{}, TransformError{EntityID: ent.ID, Err: err}
		}
		moved = m
	}

	removed, err := Remove(root, from, replacement)
	if err != nil {
		return root, MoveResult{}, err
	}
	target := append(model.Path{}, to...)
	if replacement == nil {
		target = CorrectTarget(from, to)
	}
	next, err := Insert(removed, target, moved)
	if err != nil {
		return root, MoveResult{}, err
	}

	res := MoveResult{
		Moved:       true,
		Entity:      moved,
		Replacement: replacement,
		From:        append(model.Path{}, from...),
		To:          target,
	}
	stayed := replacement == nil && target.Equal(from)
	if moved.Type == model.EntityItem && !stayed {
		parent, _ := Lookup(next, target.Parent())
		if ld, ok := parent.Lane(); ok && ld.Sorted {
			next, err = Patch(next, target.Parent(), Delta{Unset: []Field{FieldSorted}})
			if err != nil {
				return root, MoveResult{}, err
			}
			res.ClearedSort = true
		}
	}
	return next, res, nil
}

// isWithin reports whether p equals or descends from ancestor.
func isWithin(p, ancestor model.Path) bool {
	if len(p) < len(ancestor) {
		return false
	}
	for i := range ancestor {
		if p[i] != ancestor[i] {
			return false
		}
	}
	return true
}

// InsertAt selects where a drop onto a container lands.
type InsertAt int

const (
	InsertTail InsertAt = iota
	InsertHead
)

// ExtendDropPath turns a container path into an insertion point: index 0 for InsertHead, the
// child count for InsertTail.
func ExtendDropPath(root model.Entity, container model.Path, at InsertAt) (model.Path, bool) {
	c, ok := Lookup(root, container)
	if !ok {
		return nil, false
	}
	if at == InsertHead {
		return container.Append(0), true
	}
	return container.Append(len(c.Children)), true
}
