package model

import (
	"encoding/json"
	"fmt"
)

type wireEntity struct {
	ID       string          `json:"id"`
	Type     EntityType      `json:"type"`
	Data     json.RawMessage `json:"data"`
	Children []Entity        `json:"children,omitempty"`
}

// UnmarshalJSON decodes data according to the entity type tag.
func (e *Entity) UnmarshalJSON(b []byte) error {
	var w wireEntity
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var d Data
	switch w.Type {
	case EntityBoard:
		var bd BoardData
		if err := unmarshalData(w.Data, &bd); err != nil {
			return err
		}
		d = bd
	case EntityLane:
		var ld LaneData
		if err := unmarshalData(w.Data, &ld); err != nil {
			return err
		}
		d = ld
	case EntityItem:
		var id ItemData
		if err := unmarshalData(w.Data, &id); err != nil {
			return err
		}
		d = id
	default:
		return fmt.Errorf("unknown entity type %q", w.Type)
	}
	*e = Entity{ID: w.ID, Type: w.Type, Data: d, Children: w.Children}
	return nil
}

func unmarshalData(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
