package dnd

import (
	"fmt"

	"kanban-cli/internal/model"
)

// Scope names where one side of a gesture originates.
type Scope struct {
	DocumentID string
	WindowID   string
	// External marks payloads from outside any managed document (another app, a text drop).
	External bool
}

func (s Scope) String() string {
	if s.External {
		return "external"
	}
	if s.WindowID == "" {
		return s.DocumentID
	}
	return fmt.Sprintf("%s@%s", s.DocumentID, s.WindowID)
}

// Handle is one side of a completed drag gesture.
type Handle interface {
	Path() model.Path
	// Data is the dragged payload. For managed documents it is the model.Entity seen when the
	// drag started; for external drags it is whatever Materializer understands.
	Data() any
	Scope() Scope
}

// StaticHandle is a Handle backed by plain values.
type StaticHandle struct {
	At      model.Path
	Payload any
	From    Scope
}

func (h StaticHandle) Path() model.Path { return h.At }
func (h StaticHandle) Data() any        { return h.Payload }
func (h StaticHandle) Scope() Scope     { return h.From }

type Topology int

const (
	SameList Topology = iota
	SameDocument
	CrossDocument
	External
)

func (t Topology) String() string {
	switch t {
	case SameList:
		return "same-list"
	case SameDocument:
		return "same-document"
	case CrossDocument:
		return "cross-document"
	case External:
		return "external"
	default:
		return fmt.Sprintf("topology(%d)", int(t))
	}
}

// Classify derives the move topology from the two handles. Windows do not matter: two windows
// on one document share its state.
func Classify(drag, drop Handle) Topology {
	ds, ps := drag.Scope(), drop.Scope()
	switch {
	case ds.External:
		return External
	case ds.DocumentID != ps.DocumentID:
		return CrossDocument
	case drag.Path().SameParent(drop.Path()):
		return SameList
	default:
		return SameDocument
	}
}
