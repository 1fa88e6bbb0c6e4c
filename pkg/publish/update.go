package publish

import (
	"errors"
	"maps"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Operation describes a partial update. The parts are applied in a fixed
// order: Add, Replace, Delete, then DeleteEntries, so entry deletion sees the
// array as it exists after additions and replacements.
type Operation struct {
	Add           map[string][]any `json:"add,omitempty"`
	Replace       map[string]any   `json:"replace,omitempty"`
	Delete        []string         `json:"delete,omitempty"`
	DeleteEntries map[string][]any `json:"deleteEntries,omitempty"`
}

// Empty reports whether the operation carries no changes.
func (op Operation) Empty() bool {
	return len(op.Add) == 0 && len(op.Replace) == 0 && len(op.Delete) == 0 && len(op.DeleteEntries) == 0
}

// Validate checks the structure of the operation without looking at any
// record.
func (op Operation) Validate() error {
	return validation.ValidateStruct(&op,
		validation.Field(&op.Add, validation.By(nonEmptyKeys)),
		validation.Field(&op.Replace, validation.By(nonEmptyKeys)),
		validation.Field(&op.Delete, validation.Each(validation.Required)),
		validation.Field(&op.DeleteEntries, validation.By(nonEmptyKeys)),
	)
}

func nonEmptyKeys(value any) error {
	var keys []string
	switch m := value.(type) {
	case map[string][]any:
		keys = slices.Collect(maps.Keys(m))
	case map[string]any:
		keys = slices.Collect(maps.Keys(m))
	}
	for _, k := range keys {
		if k == "" {
			return errors.New("property names must not be empty")
		}
	}
	return nil
}

// Apply returns a new property set with op applied to a copy of props.
func (op Operation) Apply(props Properties) (Properties, error) {
	if err := op.Validate(); err != nil {
		return nil, NewInvalidOperationError("update", "", err.Error())
	}
	out, err := AddProperties(props, op.Add)
	if err != nil {
		return nil, err
	}
	if out, err = ReplaceEntries(out, op.Replace); err != nil {
		return nil, err
	}
	out = DeleteProperties(out, op.Delete)
	return DeleteEntries(out, op.DeleteEntries)
}

// AddProperties appends values to array properties, creating them when
// absent. Adding to a scalar property is an *InvalidOperationError.
func AddProperties(props Properties, additions map[string][]any) (Properties, error) {
	out := props.Clone()
	if out == nil {
		out = Properties{}
	}
	for key, values := range additions {
		if len(values) == 0 {
			continue
		}
		added := make([]any, 0, len(values))
		for _, v := range values {
			cv, err := canonicalValue(key, v)
			if err != nil {
				return nil, err
			}
			added = append(added, cv)
		}
		existing, ok := out[key]
		if !ok {
			out[key] = added
			continue
		}
		list, ok := existing.([]any)
		if !ok {
			return nil, NewInvalidOperationError("add", key, "property is not an array")
		}
		out[key] = append(list, added...)
	}
	return out, nil
}

// ReplaceEntries replaces whole property values.
func ReplaceEntries(props Properties, replacements map[string]any) (Properties, error) {
	out := props.Clone()
	if out == nil {
		out = Properties{}
	}
	for key, v := range replacements {
		cv, err := canonicalValue(key, v)
		if err != nil {
			return nil, err
		}
		out[key] = cv
	}
	return out, nil
}

// DeleteProperties removes whole properties by name.
func DeleteProperties(props Properties, keys []string) Properties {
	out := props.Clone()
	if out == nil {
		out = Properties{}
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// DeleteEntries removes values from array properties. Each supplied value
// removes one matching occurrence, the last one first. A property left empty
// is removed. Targeting a scalar property is an *InvalidOperationError.
func DeleteEntries(props Properties, entries map[string][]any) (Properties, error) {
	out := props.Clone()
	if out == nil {
		out = Properties{}
	}
	for key, values := range entries {
		existing, ok := out[key]
		if !ok {
			continue
		}
		list, ok := existing.([]any)
		if !ok {
			return nil, NewInvalidOperationError("delete", key, "property is not an array")
		}
		for _, v := range values {
			for i := len(list) - 1; i >= 0; i-- {
				if Equal(list[i], v) {
					list = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		}
		if len(list) == 0 {
			delete(out, key)
		} else {
			out[key] = list
		}
	}
	return out, nil
}
