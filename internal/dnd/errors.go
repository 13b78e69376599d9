package dnd

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDocument is returned when a handle names a document that is not open.
	ErrUnknownDocument = errors.New("unknown document")
	// ErrUnsupportedPayload is returned when an external payload cannot be materialized.
	ErrUnsupportedPayload = errors.New("unsupported drop payload")

	errStale = errors.New("document changed while the drop was staged")
)

// InvariantError reports a cross-document move that committed only one side. Copies is the
// number of documents that hold the moved entity afterwards (0 or 2).
type InvariantError struct {
	EntityID string
	Source   string
	Dest     string
	Copies   int
	Err      error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("cross-document move of %s from %s to %s left %d copies: %v", e.EntityID, e.Source, e.Dest, e.Copies, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }
