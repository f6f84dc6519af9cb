package view

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/models"
)

// State is the activation state of a component.
type State uint8

const (
	StateInert State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "inert"
}

// Component is one component type attached to one entity. It is owned by the
// View and addressed by its Key; other components refer to it only by key.
type Component struct {
	view   *View
	entity models.EntityID
	typ    *ComponentType
	values []fields.Value
	state  State
	handle any
	// failed is set when Activate returned an error and cleared when an input
	// of the component changes.
	failed bool
}

func (c *Component) Entity() models.EntityID { return c.entity }
func (c *Component) Type() *ComponentType    { return c.typ }
func (c *Component) Key() models.Key         { return models.Key{Entity: c.entity, Type: c.typ.ID} }
func (c *Component) State() State            { return c.state }
func (c *Component) IsActive() bool          { return c.state == StateActive }

// Handle is the value returned by Activate, or nil while inert.
func (c *Component) Handle() any { return c.handle }

func (c *Component) IsAuthoritative() bool {
	return c.view.IsAuthoritative(c.entity, c.typ.ID)
}

// IsSet reports whether the option holds a canonical value.
func (c *Component) IsSet(option int) bool {
	if option < 0 || option >= len(c.values) {
		return false
	}
	return !fields.IsCleared(c.values[option])
}

// Value returns the canonical value of an option, or its default when unset.
func (c *Component) Value(option int) fields.Value {
	if option < 0 || option >= len(c.values) {
		return fields.Cleared{}
	}
	if v := c.values[option]; !fields.IsCleared(v) {
		return v
	}
	opt := c.typ.Options[option]
	if opt.Default != nil {
		return opt.Default
	}
	if opt.Optional && opt.Kind != fields.KindEntityRefList {
		return fields.Cleared{}
	}
	return fields.Zero(opt.Kind)
}

// Values returns every canonical value in option order. Unset options are
// reported as Cleared.
func (c *Component) Values() []fields.Value {
	out := make([]fields.Value, len(c.values))
	for i, v := range c.values {
		if v == nil {
			v = fields.Cleared{}
		}
		out[i] = v
	}
	return out
}

func (c *Component) EntityRef(option int) (models.EntityID, bool) {
	v, ok := c.Value(option).(fields.EntityRef)
	return models.EntityID(v), ok
}

func (c *Component) EntityRefs(option int) []models.EntityID {
	v, _ := c.Value(option).(fields.EntityRefList)
	return []models.EntityID(v)
}

func (c *Component) Float(option int) float32 {
	v, _ := c.Value(option).(fields.Float)
	return float32(v)
}

func (c *Component) Bool(option int) bool {
	v, _ := c.Value(option).(fields.Bool)
	return bool(v)
}

func (c *Component) Int(option int) int32 {
	v, _ := c.Value(option).(fields.Int)
	return int32(v)
}

func (c *Component) String(option int) string {
	v, _ := c.Value(option).(fields.String)
	return string(v)
}

func (c *Component) Vec2(option int) mgl32.Vec2 {
	v, _ := c.Value(option).(fields.Vec2)
	return mgl32.Vec2(v)
}

func (c *Component) Vec3(option int) mgl32.Vec3 {
	v, _ := c.Value(option).(fields.Vec3)
	return mgl32.Vec3(v)
}

func (c *Component) Vec4(option int) mgl32.Vec4 {
	v, _ := c.Value(option).(fields.Vec4)
	return mgl32.Vec4(v)
}

func (c *Component) Bytes(option int) []byte {
	v, _ := c.Value(option).(fields.Bytes)
	return []byte(v)
}

// Dependency returns the component an entity reference option points at.
func (c *Component) Dependency(option int) (*Component, bool) {
	id, ok := c.EntityRef(option)
	if !ok {
		return nil, false
	}
	return c.view.Component(id, c.typ.Options[option].Target)
}

// DependencyHandle returns the handle of the active component an entity
// reference option points at.
func (c *Component) DependencyHandle(option int) any {
	dep, ok := c.Dependency(option)
	if !ok || !dep.IsActive() {
		return nil
	}
	return dep.handle
}

// DependencyHandles resolves every element of an entity reference list.
func (c *Component) DependencyHandles(option int) []any {
	target := c.typ.Options[option].Target
	ids := c.EntityRefs(option)
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		if dep, ok := c.view.Component(id, target); ok && dep.IsActive() {
			out = append(out, dep.handle)
		}
	}
	return out
}

// stored returns the raw slot with unset normalized to the empty form of the
// option, so that comparisons treat "never set" and "cleared" alike.
func (c *Component) stored(option int) fields.Value {
	v := c.values[option]
	if v != nil {
		return v
	}
	opt := c.typ.Options[option]
	switch {
	case opt.Kind == fields.KindEntityRefList:
		return fields.EntityRefList(nil)
	case opt.Optional:
		return fields.Cleared{}
	default:
		return nil
	}
}
