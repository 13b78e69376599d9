package tree

import "kanban-cli/internal/model"

// Update replaces the entity at path with fn's result, copying every entity on the way down.
// Untouched subtrees are shared with root.
func Update(root model.Entity, path model.Path, fn func(model.Entity) (model.Entity, error)) (model.Entity, error) {
	return updateAt(root, path, 0, fn)
}

func updateAt(node model.Entity, path model.Path, depth int, fn func(model.Entity) (model.Entity, error)) (model.Entity, error) {
	if depth == len(path) {
		return fn(node)
	}
	idx := path[depth]
	if idx < 0 || idx >= len(node.Children) {
		return node, NotFoundError{Path: path}
	}
	child, err := updateAt(node.Children[idx], path, depth+1, fn)
	if err != nil {
		return node, err
	}
	out := node
	out.Children = make([]model.Entity, len(node.Children))
	copy(out.Children, node.Children)
	out.Children[idx] = child
	return out, nil
}

// Insert places entities at path, read as parent path + index. Siblings at and after the index
// shift right by len(entities). The index may equal the parent's child count (append).
func Insert(root model.Entity, path model.Path, entities ...model.Entity) (model.Entity, error) {
	if len(path) == 0 {
		return root, NotFoundError{Path: path}
	}
	if len(entities) == 0 {
		return root, nil
	}
	idx := path.Last()
	return Update(root, path.Parent(), func(parent model.Entity) (model.Entity, error) {
		if idx < 0 || idx > len(parent.Children) {
			return parent, NotFoundError{Path: path}
		}
		for _, e := range entities {
			if err := checkAccepts("insert", path, parent, e); err != nil {
				return parent, err
			}
		}
		children := make([]model.Entity, 0, len(parent.Children)+len(entities))
		children = append(children, parent.Children[:idx]...)
		children = append(children, entities...)
		children = append(children, parent.Children[idx:]...)
		parent.Children = children
		return parent, nil
	})
}

// Remove deletes the entity at path. When replacement is non-nil the entity is replaced in
// place instead and no sibling shifts.
func Remove(root model.Entity, path model.Path, replacement *model.Entity) (model.Entity, error) {
	if len(path) == 0 {
		return root, ErrRootImmutable
	}
	idx := path.Last()
	return Update(root, path.Parent(), func(parent model.Entity) (model.Entity, error) {
		if idx < 0 || idx >= len(parent.Children) {
			return parent, NotFoundError{Path: path}
		}
		if replacement != nil {
			if err := checkAccepts("replace", path, parent, *replacement); err != nil {
				return parent, err
			}
			children := make([]model.Entity, len(parent.Children))
			copy(children, parent.Children)
			children[idx] = *replacement
			parent.Children = children
			return parent, nil
		}
		children := make([]model.Entity, 0, len(parent.Children)-1)
		children = append(children, parent.Children[:idx]...)
		children = append(children, parent.Children[idx+1:]...)
		parent.Children = children
		return parent, nil
	})
}

func checkAccepts(op string, path model.Path, parent, child model.Entity) error {
	if !model.Accepts(parent.Type, child.Type) {
		return ContractError{Op: op, Path: path, Parent: parent.Type, Child: child.Type}
	}
	if err := child.Validate(); err != nil {
		return ContractError{Op: op, Path: path, Parent: parent.Type, Child: model.TypeOf(child.Data)}
	}
	return nil
}
