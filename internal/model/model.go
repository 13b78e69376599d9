package model

import "fmt"

type EntityType string

const (
	EntityBoard EntityType = "board"
	EntityLane  EntityType = "lane"
	EntityItem  EntityType = "item"
)

// Accepts reports whether a parent of type parent may contain a child of type child.
func Accepts(parent, child EntityType) bool {
	switch parent {
	case EntityBoard:
		return child == EntityLane
	case EntityLane:
		return child == EntityItem
	case EntityItem:
		return false
	default:
		return false
	}
}

// Entity is a node of a board tree. Entities are values: the engine never edits one in place,
// it returns a new tree that may share untouched subtrees with the old one.
type Entity struct {
	ID       string     `json:"id"`
	Type     EntityType `json:"type"`
	Data     Data       `json:"data"`
	Children []Entity   `json:"children,omitempty"`
}

// Data is the type-specific payload of an Entity. The set of variants is closed:
// BoardData, LaneData and ItemData.
type Data interface {
	entityType() EntityType
}

type BoardData struct {
	Title    string         `json:"title,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
	// Notes is markdown that precedes the first lane, kept verbatim.
	Notes string `json:"notes,omitempty"`
}

type LaneData struct {
	Title         string `json:"title"`
	MarksComplete bool   `json:"marksComplete,omitempty"`

	// Sorted marks a manually fixed child order. Display layers must not reorder
	// children of a sorted lane.
	Sorted bool `json:"sorted,omitempty"`

	// Notes is non-card markdown under the lane heading, kept verbatim.
	Notes string `json:"notes,omitempty"`
}

type ItemData struct {
	Title    string `json:"title"`
	TitleRaw string `json:"titleRaw"`
	Checked  bool   `json:"checked"`
	// CheckChar is the raw status character between the checkbox brackets (' ' when open).
	CheckChar rune `json:"checkChar"`
}

func (BoardData) entityType() EntityType { return EntityBoard }
func (LaneData) entityType() EntityType  { return EntityLane }
func (ItemData) entityType() EntityType  { return EntityItem }

// TypeOf returns the entity type a payload belongs to.
func TypeOf(d Data) EntityType {
	if d == nil {
		return ""
	}
	return d.entityType()
}

func NewBoard(title string, lanes ...Entity) Entity {
	return Entity{
		ID:       "board",
		Type:     EntityBoard,
		Data:     BoardData{Title: title},
		Children: lanes,
	}
}

func NewLane(id, title string, items ...Entity) Entity {
	return Entity{
		ID:       id,
		Type:     EntityLane,
		Data:     LaneData{Title: title},
		Children: items,
	}
}

func NewItem(id, title string, checked bool) Entity {
	ch := ' '
	if checked {
		ch = 'x'
	}
	return Entity{
		ID:   id,
		Type: EntityItem,
		Data: ItemData{
			Title:     title,
			TitleRaw:  title,
			Checked:   checked,
			CheckChar: ch,
		},
	}
}

// Lane returns the lane payload. ok is false for any other entity type.
func (e Entity) Lane() (LaneData, bool) {
	d, ok := e.Data.(LaneData)
	return d, ok
}

func (e Entity) Item() (ItemData, bool) {
	d, ok := e.Data.(ItemData)
	return d, ok
}

func (e Entity) Board() (BoardData, bool) {
	d, ok := e.Data.(BoardData)
	return d, ok
}

// Validate checks that the payload variant matches Type.
func (e Entity) Validate() error {
	if e.Data == nil {
		return fmt.Errorf("%s %q has no data", e.Type, e.ID)
	}
	if got := TypeOf(e.Data); got != e.Type {
		return fmt.Errorf("%s %q carries %s data", e.Type, e.ID, got)
	}
	return nil
}

// Clone returns a deep copy of e. Children slices and board settings are never shared with e.
func (e Entity) Clone() Entity {
	out := e
	if bd, ok := e.Data.(BoardData); ok && bd.Settings != nil {
		s := make(map[string]any, len(bd.Settings))
		for k, v := range bd.Settings {
			s[k] = v
		}
		bd.Settings = s
		out.Data = bd
	}
	if e.Children != nil {
		out.Children = make([]Entity, len(e.Children))
		for i := range e.Children {
			out.Children[i] = e.Children[i].Clone()
		}
	}
	return out
}

// CountItems returns the number of item entities in the subtree rooted at e.
func CountItems(e Entity) int {
	n := 0
	if e.Type == EntityItem {
		n++
	}
	for _, ch := range e.Children {
		n += CountItems(ch)
	}
	return n
}

// ContainsID reports whether any entity in the subtree rooted at e has the given id.
func ContainsID(e Entity, id string) bool {
	if e.ID == id {
		return true
	}
	for _, ch := range e.Children {
		if ContainsID(ch, id) {
			return true
		}
	}
	return false
}
