// Package fields holds the typed values stored in component configuration
// options.
package fields

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/viewsync/internal/core/models"
)

// Value is one canonical option value. The set of implementations is closed.
type Value interface {
	Kind() Kind
	Equal(other Value) bool
	String() string

	value()
}

type (
	EntityRef     models.EntityID
	EntityRefList []models.EntityID
	Float         float32
	Bool          bool
	Int           int32
	String        string
	Vec2          mgl32.Vec2
	Vec3          mgl32.Vec3
	Vec4          mgl32.Vec4
	Bytes         []byte
	// Cleared marks an optional option that holds no value.
	Cleared struct{}
)

var (
	_ Value = EntityRef(0)
	_ Value = EntityRefList(nil)
	_ Value = Float(0)
	_ Value = Bool(false)
	_ Value = Int(0)
	_ Value = String("")
	_ Value = Vec2{}
	_ Value = Vec3{}
	_ Value = Vec4{}
	_ Value = Bytes(nil)
	_ Value = Cleared{}
)

func (EntityRef) Kind() Kind     { return KindEntityRef }
func (EntityRefList) Kind() Kind { return KindEntityRefList }
func (Float) Kind() Kind         { return KindFloat }
func (Bool) Kind() Kind          { return KindBool }
func (Int) Kind() Kind           { return KindInt }
func (String) Kind() Kind        { return KindString }
func (Vec2) Kind() Kind          { return KindVec2 }
func (Vec3) Kind() Kind          { return KindVec3 }
func (Vec4) Kind() Kind          { return KindVec4 }
func (Bytes) Kind() Kind         { return KindBytes }
func (Cleared) Kind() Kind       { return KindInvalid }

func (EntityRef) value()     {}
func (EntityRefList) value() {}
func (Float) value()         {}
func (Bool) value()          {}
func (Int) value()           {}
func (String) value()        {}
func (Vec2) value()          {}
func (Vec3) value()          {}
func (Vec4) value()          {}
func (Bytes) value()         {}
func (Cleared) value()       {}

func (v EntityRef) Equal(other Value) bool {
	o, ok := other.(EntityRef)
	return ok && o == v
}

func (v EntityRefList) Equal(other Value) bool {
	o, ok := other.(EntityRefList)
	return ok && slices.Equal(v, o)
}

func (v Float) Equal(other Value) bool {
	o, ok := other.(Float)
	return ok && o == v
}

func (v Bool) Equal(other Value) bool {
	o, ok := other.(Bool)
	return ok && o == v
}

func (v Int) Equal(other Value) bool {
	o, ok := other.(Int)
	return ok && o == v
}

func (v String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o == v
}

func (v Vec2) Equal(other Value) bool {
	o, ok := other.(Vec2)
	return ok && o == v
}

func (v Vec3) Equal(other Value) bool {
	o, ok := other.(Vec3)
	return ok && o == v
}

func (v Vec4) Equal(other Value) bool {
	o, ok := other.(Vec4)
	return ok && o == v
}

func (v Bytes) Equal(other Value) bool {
	o, ok := other.(Bytes)
	return ok && bytes.Equal(v, o)
}

func (Cleared) Equal(other Value) bool {
	return IsCleared(other)
}

func (v EntityRef) String() string     { return fmt.Sprintf("entity(%d)", int64(v)) }
func (v EntityRefList) String() string { return fmt.Sprintf("entities%v", []models.EntityID(v)) }
func (v Float) String() string         { return fmt.Sprintf("%g", float32(v)) }
func (v Bool) String() string          { return fmt.Sprintf("%t", bool(v)) }
func (v Int) String() string           { return fmt.Sprintf("%d", int32(v)) }
func (v String) String() string        { return fmt.Sprintf("%q", string(v)) }
func (v Vec2) String() string          { return fmt.Sprintf("(%g, %g)", v[0], v[1]) }
func (v Vec3) String() string          { return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2]) }
func (v Vec4) String() string          { return fmt.Sprintf("(%g, %g, %g, %g)", v[0], v[1], v[2], v[3]) }
func (v Bytes) String() string         { return fmt.Sprintf("bytes[%d]", len(v)) }
func (Cleared) String() string         { return "cleared" }

// IsCleared reports whether v holds no value.
func IsCleared(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Cleared)
	return ok
}

// Zero returns the zero value of a kind, or Cleared for KindInvalid.
func Zero(kind Kind) Value {
	switch kind {
	case KindEntityRef:
		return EntityRef(0)
	case KindEntityRefList:
		return EntityRefList(nil)
	case KindFloat:
		return Float(0)
	case KindBool:
		return Bool(false)
	case KindInt:
		return Int(0)
	case KindString:
		return String("")
	case KindVec2:
		return Vec2{}
	case KindVec3:
		return Vec3{}
	case KindVec4:
		return Vec4{}
	case KindBytes:
		return Bytes(nil)
	default:
		return Cleared{}
	}
}

// Clone copies the backing storage of slice kinds so the result can be
// stored without aliasing the caller's buffer.
func Clone(v Value) Value {
	switch val := v.(type) {
	case EntityRefList:
		return EntityRefList(slices.Clone(val))
	case Bytes:
		return Bytes(bytes.Clone(val))
	default:
		return v
	}
}

// References lists the entities a value points at, in order.
func References(v Value) []models.EntityID {
	switch val := v.(type) {
	case EntityRef:
		return []models.EntityID{models.EntityID(val)}
	case EntityRefList:
		return []models.EntityID(val)
	default:
		return nil
	}
}
