// Package complete implements the completion transform applied to items that cross a lane
// boundary during a move.
package complete

import (
	"errors"
	"fmt"
	"strings"

	"kanban-cli/internal/model"
	"kanban-cli/internal/statusutil"
)

var (
	ErrNotItem       = errors.New("completion transform applies to items only")
	ErrMalformedItem = errors.New("malformed item")
)

// Result is what a Transform decided for one item.
type Result struct {
	// Next is the item to insert at the destination.
	Next model.Entity
	// Replacement, when set, stays at the source instead of a plain removal.
	Replacement *model.Entity
}

// Transform decides how an item changes when it moves from src to dst. It must only look at the
// two parents and the item.
type Transform func(src, dst model.Entity, item model.Entity) (Result, error)

// Identity leaves every item unchanged.
func Identity(_, _ model.Entity, item model.Entity) (Result, error) {
	return Result{Next: item}, nil
}

// Classifier toggles the completion marker when an item crosses between lanes whose
// MarksComplete flags differ.
type Classifier struct {
	// RecurrenceMarker identifies recurring items. Completing one leaves a fresh open copy at
	// the source. Empty disables recurrence handling.
	RecurrenceMarker string

	// NewID generates ids for replacement items. Defaults to model.NewID.
	NewID func(prefix string) string
}

func NewClassifier(recurrenceMarker string) *Classifier {
	return &Classifier{RecurrenceMarker: recurrenceMarker}
}

// Transform implements the completion hook contract.
func (c *Classifier) Transform(src, dst model.Entity, item model.Entity) (Result, error) {
	data, ok := item.Item()
	if !ok {
		return Result{}, fmt.Errorf("%w: got %s %q", ErrNotItem, item.Type, item.ID)
	}
	if !statusutil.ValidCheckChar(data.CheckChar) {
		return Result{}, fmt.Errorf("%w: %s has check char %q", ErrMalformedItem, item.ID, data.CheckChar)
	}
	if strings.ContainsAny(data.TitleRaw, "\r") {
		return Result{}, fmt.Errorf("%w: %s has carriage return in title", ErrMalformedItem, item.ID)
	}

	srcComplete := marksComplete(src)
	dstComplete := marksComplete(dst)
	if srcComplete == dstComplete {
		return Result{Next: item}, nil
	}

	next := item
	if dstComplete {
		if data.Checked {
			return Result{Next: item}, nil
		}
		data.Checked = true
		data.CheckChar = statusutil.DoneChar
		next.Data = data

		if c.recurring(data) {
			rep := c.reopened(item)
			return Result{Next: next, Replacement: &rep}, nil
		}
		return Result{Next: next}, nil
	}

	if !data.Checked && !statusutil.IsEndState(data.CheckChar) {
		return Result{Next: item}, nil
	}
	data.Checked = false
	data.CheckChar = statusutil.OpenChar
	next.Data = data
	return Result{Next: next}, nil
}

func (c *Classifier) recurring(d model.ItemData) bool {
	if c == nil || strings.TrimSpace(c.RecurrenceMarker) == "" {
		return false
	}
	return strings.Contains(d.TitleRaw, c.RecurrenceMarker)
}

// reopened returns an open copy of item with a new id.
func (c *Classifier) reopened(item model.Entity) model.Entity {
	gen := model.NewID
	if c.NewID != nil {
		gen = c.NewID
	}
	data, _ := item.Item()
	data.Checked = false
	data.CheckChar = statusutil.OpenChar
	return model.Entity{ID: gen("item"), Type: model.EntityItem, Data: data}
}

// marksComplete reads the lane flag. Non-lane parents (external sources) never mark complete.
func marksComplete(parent model.Entity) bool {
	switch d := parent.Data.(type) {
	case model.LaneData:
		return d.MarksComplete
	case model.BoardData, model.ItemData:
		return false
	default:
		return false
	}
}
