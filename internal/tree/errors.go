package tree

import (
	"errors"
	"fmt"

	"kanban-cli/internal/model"
)

var (
	ErrPathNotFound  = errors.New("path not found")
	ErrNotAccepted   = errors.New("entity not accepted by parent")
	ErrRootImmutable = errors.New("board cannot be removed or replaced")
	ErrInvalidField  = errors.New("invalid field")
	ErrInvalidValue  = errors.New("invalid value")
	ErrCycle         = errors.New("cannot move an entity into itself")
)

type NotFoundError struct {
	Path model.Path
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("path not found: %s", e.Path)
}

func (e NotFoundError) Is(target error) bool { return target == ErrPathNotFound }

// ContractError reports an insertion the accepts relation forbids.
type ContractError struct {
	Op     string
	Path   model.Path
	Parent model.EntityType
	Child  model.EntityType
}

func (e ContractError) Error() string {
	return fmt.Sprintf("%s at %s: %s does not accept %s", e.Op, e.Path, e.Parent, e.Child)
}

func (e ContractError) Is(target error) bool { return target == ErrNotAccepted }

// TransformError wraps a failure raised by a move transform.
type TransformError struct {
	EntityID string
	Err      error
}

func (e TransformError) Error() string {
	return fmt.Sprintf("transform %s: %v", e.EntityID, e.Err)
}

func (e TransformError) Unwrap() error { return e.Err }

// IsNoOp reports whether err means the addressed entity vanished and the operation should be
// dropped silently.
func IsNoOp(err error) bool {
	return errors.Is(err, ErrPathNotFound)
}
