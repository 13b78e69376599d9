package tree

import "kanban-cli/internal/model"

// Lookup resolves path against root. ok is false when any index is out of range, which happens
// legitimately when the path was captured before the tree changed shape.
func Lookup(root model.Entity, path model.Path) (model.Entity, bool) {
	cur := root
	for _, idx := range path {
		if idx < 0 || idx >= len(cur.Children) {
			return model.Entity{}, false
		}
		cur = cur.Children[idx]
	}
	return cur, true
}

// LookupParent resolves the entity containing path. The root has no parent.
func LookupParent(root model.Entity, path model.Path) (model.Entity, bool) {
	if len(path) == 0 {
		return model.Entity{}, false
	}
	return Lookup(root, path.Parent())
}

// Find returns the path of the first entity (pre-order) with the given id.
func Find(root model.Entity, id string) (model.Path, bool) {
	var found model.Path
	ok := false
	Walk(root, func(p model.Path, e model.Entity) bool {
		if e.ID == id {
			found = p
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// Walk visits every entity in pre-order. Returning false from fn stops the walk.
func Walk(root model.Entity, fn func(model.Path, model.Entity) bool) {
	walk(root, model.Path{}, fn)
}

func walk(e model.Entity, p model.Path, fn func(model.Path, model.Entity) bool) bool {
	if !fn(p, e) {
		return false
	}
	for i, ch := range e.Children {
		if !walk(ch, p.Append(i), fn) {
			return false
		}
	}
	return true
}
