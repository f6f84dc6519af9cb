package fields

import "fmt"

// Kind is the declared value kind of a configuration option.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindEntityRef
	KindEntityRefList
	KindFloat
	KindBool
	KindInt
	KindString
	KindVec2
	KindVec3
	KindVec4
	KindBytes
)

var kindNames = map[Kind]string{
	KindEntityRef:     "entity_id",
	KindEntityRefList: "entity_id_array",
	KindFloat:         "float",
	KindBool:          "bool",
	KindInt:           "int",
	KindString:        "string",
	KindVec2:          "vector2",
	KindVec3:          "vector3",
	KindVec4:          "vector4",
	KindBytes:         "bytes",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsReference reports whether values of this kind form dependency edges.
func (k Kind) IsReference() bool {
	return k == KindEntityRef || k == KindEntityRefList
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, error) {
	for kind, n := range kindNames {
		if n == name {
			return kind, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown value kind %q", name)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}
