package tree

import (
	"fmt"
	"strings"

	"kanban-cli/internal/model"
	"kanban-cli/internal/statusutil"
)

type Field string

const (
	FieldTitle         Field = "title"
	FieldTitleRaw      Field = "titleRaw"
	FieldChecked       Field = "checked"
	FieldCheckChar     Field = "checkChar"
	FieldMarksComplete Field = "marksComplete"
	FieldSorted        Field = "sorted"

	settingPrefix = "settings."
)

// FieldSetting addresses one key of a board's settings map.
func FieldSetting(key string) Field { return Field(settingPrefix + key) }

// Delta is a structural merge-patch. Unset fields are reset to their zero value (or deleted, for
// settings) before Set is applied. Children, when non-nil, replaces the child list wholesale.
type Delta struct {
	Set      map[Field]any
	Unset    []Field
	Children *[]model.Entity
}

// Patch applies delta to the entity at path.
func Patch(root model.Entity, path model.Path, delta Delta) (model.Entity, error) {
	return Update(root, path, func(e model.Entity) (model.Entity, error) {
		if len(delta.Set) > 0 || len(delta.Unset) > 0 {
			d, err := patchData(e.Data, delta.Set, delta.Unset)
			if err != nil {
				return e, err
			}
			e.Data = d
		}
		if delta.Children != nil {
			children := make([]model.Entity, len(*delta.Children))
			copy(children, *delta.Children)
			for i, ch := range children {
				if err := checkAccepts("patch", path.Append(i), e, ch); err != nil {
					return e, err
				}
			}
			e.Children = children
		}
		return e, nil
	})
}

func patchData(d model.Data, set map[Field]any, unset []Field) (model.Data, error) {
	switch x := d.(type) {
	case model.BoardData:
		return patchBoard(x, set, unset)
	case model.LaneData:
		return patchLane(x, set, unset)
	case model.ItemData:
		return patchItem(x, set, unset)
	default:
		return d, fmt.Errorf("%w: unknown data %T", ErrInvalidField, d)
	}
}

func patchBoard(d model.BoardData, set map[Field]any, unset []Field) (model.Data, error) {
	settings := make(map[string]any, len(d.Settings))
	for k, v := range d.Settings {
		settings[k] = v
	}
	for _, f := range unset {
		switch {
		case f == FieldTitle:
			d.Title = ""
		case strings.HasPrefix(string(f), settingPrefix):
			delete(settings, strings.TrimPrefix(string(f), settingPrefix))
		default:
			return d, fieldErr(model.EntityBoard, f)
		}
	}
	for f, v := range set {
		switch {
		case f == FieldTitle:
			s, ok := v.(string)
			if !ok {
				return d, valueErr(f, v)
			}
			d.Title = s
		case strings.HasPrefix(string(f), settingPrefix):
			settings[strings.TrimPrefix(string(f), settingPrefix)] = v
		default:
			return d, fieldErr(model.EntityBoard, f)
		}
	}
	if len(settings) == 0 {
		settings = nil
	}
	d.Settings = settings
	return d, nil
}

func patchLane(d model.LaneData, set map[Field]any, unset []Field) (model.Data, error) {
	for _, f := range unset {
		switch f {
		case FieldTitle:
			d.Title = ""
		case FieldMarksComplete:
			d.MarksComplete = false
		case FieldSorted:
			d.Sorted = false
		default:
			return d, fieldErr(model.EntityLane, f)
		}
	}
	for f, v := range set {
		switch f {
		case FieldTitle:
			s, ok := v.(string)
			if !ok {
				return d, valueErr(f, v)
			}
			d.Title = s
		case FieldMarksComplete, FieldSorted:
			b, ok := v.(bool)
			if !ok {
				return d, valueErr(f, v)
			}
			if f == FieldSorted {
				d.Sorted = b
			} else {
				d.MarksComplete = b
			}
		default:
			return d, fieldErr(model.EntityLane, f)
		}
	}
	return d, nil
}

// patchItem keeps Checked and CheckChar in agreement: touching one derives the other, and
// setting both to disagreeing values is rejected.
func patchItem(d model.ItemData, set map[Field]any, unset []Field) (model.Data, error) {
	var checkedTouched, charTouched bool
	for _, f := range unset {
		switch f {
		case FieldTitle:
			d.Title = ""
		case FieldTitleRaw:
			d.TitleRaw = ""
		case FieldChecked:
			d.Checked = false
			checkedTouched = true
		case FieldCheckChar:
			d.CheckChar = statusutil.OpenChar
			charTouched = true
		default:
			return d, fieldErr(model.EntityItem, f)
		}
	}
	for f, v := range set {
		switch f {
		case FieldTitle, FieldTitleRaw:
			s, ok := v.(string)
			if !ok {
				return d, valueErr(f, v)
			}
			if f == FieldTitle {
				d.Title = s
			} else {
				d.TitleRaw = s
			}
		case FieldChecked:
			b, ok := v.(bool)
			if !ok {
				return d, valueErr(f, v)
			}
			d.Checked = b
			checkedTouched = true
		case FieldCheckChar:
			var c rune
			switch x := v.(type) {
			case rune:
				c = x
			case string:
				r := []rune(x)
				if len(r) != 1 {
					return d, valueErr(f, v)
				}
				c = r[0]
			default:
				return d, valueErr(f, v)
			}
			if !statusutil.ValidCheckChar(c) {
				return d, valueErr(f, v)
			}
			d.CheckChar = c
			charTouched = true
		default:
			return d, fieldErr(model.EntityItem, f)
		}
	}

	switch {
	case charTouched && checkedTouched:
		if d.Checked != statusutil.IsChecked(d.CheckChar) {
			return d, fmt.Errorf("%w: %s = %v disagrees with %s = %q", ErrInvalidValue, FieldChecked, d.Checked, FieldCheckChar, d.CheckChar)
		}
	case charTouched:
		d.Checked = statusutil.IsChecked(d.CheckChar)
	case checkedTouched:
		if d.Checked && !statusutil.IsChecked(d.CheckChar) {
			d.CheckChar = statusutil.DoneChar
		} else if !d.Checked && statusutil.IsChecked(d.CheckChar) {
			d.CheckChar = statusutil.OpenChar
		}
	}
	return d, nil
}

func fieldErr(t model.EntityType, f Field) error {
	return fmt.Errorf("%w: %s has no field %q", ErrInvalidField, t, f)
}

func valueErr(f Field, v any) error {
	return fmt.Errorf("%w: %s = %v (%T)", ErrInvalidValue, f, v, v)
}
