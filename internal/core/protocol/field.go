package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/zeusync/viewsync/internal/core/fields"
)

const clearedKind = "cleared"

// Field is one option value addressed by option name. On the wire the
// value is tagged with its kind so it can be decoded without the schema.
type Field struct {
	Name  string
	Value fields.Value
}

type wireField struct {
	Name  string          `json:"name"`
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
}

func (f Field) MarshalJSON() ([]byte, error) {
	if fields.IsCleared(f.Value) {
		return json.Marshal(wireField{Name: f.Name, Kind: clearedKind})
	}
	raw, err := json.Marshal(f.Value)
	if err != nil {
		return nil, fmt.Errorf("encode field %s: %w", f.Name, err)
	}
	return json.Marshal(wireField{Name: f.Name, Kind: f.Value.Kind().String(), Value: raw})
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var w wireField
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	f.Name = w.Name
	if w.Kind == clearedKind {
		f.Value = fields.Cleared{}
		return nil
	}
	kind, err := fields.ParseKind(w.Kind)
	if err != nil {
		return fmt.Errorf("field %s: %w", w.Name, err)
	}
	value, err := decodeValue(kind, w.Value)
	if err != nil {
		return fmt.Errorf("field %s: %w", w.Name, err)
	}
	f.Value = value
	return nil
}

func decodeValue(kind fields.Kind, raw json.RawMessage) (fields.Value, error) {
	if len(raw) == 0 {
		return fields.Zero(kind), nil
	}
	switch kind {
	case fields.KindEntityRef:
		return decodeInto[fields.EntityRef](raw)
	case fields.KindEntityRefList:
		return decodeInto[fields.EntityRefList](raw)
	case fields.KindFloat:
		return decodeInto[fields.Float](raw)
	case fields.KindBool:
		return decodeInto[fields.Bool](raw)
	case fields.KindInt:
		return decodeInto[fields.Int](raw)
	case fields.KindString:
		return decodeInto[fields.String](raw)
	case fields.KindVec2:
		return decodeInto[fields.Vec2](raw)
	case fields.KindVec3:
		return decodeInto[fields.Vec3](raw)
	case fields.KindVec4:
		return decodeInto[fields.Vec4](raw)
	case fields.KindBytes:
		return decodeInto[fields.Bytes](raw)
	default:
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}
}

func decodeInto[T fields.Value](raw json.RawMessage) (fields.Value, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// FieldMap indexes fields by name. Later duplicates win.
func FieldMap(fs []Field) map[string]fields.Value {
	m := make(map[string]fields.Value, len(fs))
	for _, f := range fs {
		m[f.Name] = f.Value
	}
	return m
}
