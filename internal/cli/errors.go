package cli

import (
	"fmt"

	"kanban-cli/internal/model"
)

type pathNotFoundError struct {
	board string
	path  model.Path
}

func (e pathNotFoundError) Error() string {
	return fmt.Sprintf("nothing at %s in %s", e.path, e.board)
}

func errPathNotFound(board string, path model.Path) error {
	return pathNotFoundError{board: board, path: path}
}

type rejectedError struct {
	reason error
}

func (e rejectedError) Error() string {
	return fmt.Sprintf("drop rejected: %v", e.reason)
}

func (e rejectedError) Unwrap() error { return e.reason }
