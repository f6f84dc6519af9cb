package view

import (
	"fmt"

	"github.com/zeusync/viewsync/internal/core/fields"
)

// WritePolicy selects when a local write to an authoritative option reaches
// the canonical value.
type WritePolicy uint8

const (
	// PolicyLoopback applies the value once the runtime echoes it back.
	PolicyLoopback WritePolicy = iota
	// PolicyOptimistic applies the value as soon as it is sent.
	PolicyOptimistic
)

func (p WritePolicy) String() string {
	if p == PolicyOptimistic {
		return "optimistic"
	}
	return "loopback"
}

// Option describes one configuration option of a component type.
type Option struct {
	Name     string
	Kind     fields.Kind
	Optional bool
	// Target is the component type an entity reference depends on. Required
	// for reference kinds, empty otherwise.
	Target string
	// LiveUpdate lets an active component absorb a change through
	// Behavior.Update instead of being deactivated and activated again.
	// Reference options are never live.
	LiveUpdate bool
	// Default is returned for unset options. Nil means the kind's zero value.
	Default fields.Value
	Policy  WritePolicy
}

// Behavior is implemented per component type. Activate returns the opaque
// handle handed to the renderer.
type Behavior interface {
	Activate(c *Component) (any, error)
	Update(c *Component, option int, value fields.Value)
	Deactivate(c *Component)
}

// Funcs adapts plain functions to Behavior. Nil functions do nothing.
type Funcs struct {
	ActivateFunc   func(c *Component) (any, error)
	UpdateFunc     func(c *Component, option int, value fields.Value)
	DeactivateFunc func(c *Component)
}

func (f Funcs) Activate(c *Component) (any, error) {
	if f.ActivateFunc == nil {
		return struct{}{}, nil
	}
	return f.ActivateFunc(c)
}

func (f Funcs) Update(c *Component, option int, value fields.Value) {
	if f.UpdateFunc != nil {
		f.UpdateFunc(c, option, value)
	}
}

func (f Funcs) Deactivate(c *Component) {
	if f.DeactivateFunc != nil {
		f.DeactivateFunc(c)
	}
}

// ComponentType is the schema and behavior shared by all components of a kind.
type ComponentType struct {
	ID                string
	Options           []Option
	Behavior          Behavior
	RequiresAuthority bool
}

// OptionIndex looks an option up by name.
func (t *ComponentType) OptionIndex(name string) (int, bool) {
	for i, opt := range t.Options {
		if opt.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (t *ComponentType) validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidType)
	}
	seen := make(map[string]struct{}, len(t.Options))
	for _, opt := range t.Options {
		if _, ok := seen[opt.Name]; ok {
			return fmt.Errorf("%w: %s has option %q twice", ErrInvalidType, t.ID, opt.Name)
		}
		seen[opt.Name] = struct{}{}

		if opt.Kind == fields.KindInvalid || opt.Kind > fields.KindBytes {
			return fmt.Errorf("%w: %s.%s has kind %s", ErrInvalidType, t.ID, opt.Name, opt.Kind)
		}
		if opt.Kind.IsReference() != (opt.Target != "") {
			return fmt.Errorf("%w: %s.%s target must be set exactly for reference kinds", ErrInvalidType, t.ID, opt.Name)
		}
		if opt.Default != nil && !fields.IsCleared(opt.Default) && opt.Default.Kind() != opt.Kind {
			return fmt.Errorf("%w: %s.%s default is %s", ErrInvalidType, t.ID, opt.Name, opt.Default.Kind())
		}
	}
	return nil
}

// checkValue validates a value against an option and normalizes nil and
// cleared lists.
func checkValue(t *ComponentType, option int, value fields.Value) (fields.Value, error) {
	if option < 0 || option >= len(t.Options) {
		return nil, fmt.Errorf("%w: %s has no option %d", ErrUnknownOption, t.ID, option)
	}
	opt := t.Options[option]
	if fields.IsCleared(value) {
		switch {
		case opt.Kind == fields.KindEntityRefList:
			return fields.EntityRefList(nil), nil
		case opt.Optional:
			return fields.Cleared{}, nil
		default:
			return nil, fmt.Errorf("%w: clear for non-optional %s.%s", ErrTypeMismatch, t.ID, opt.Name)
		}
	}
	if value.Kind() != opt.Kind {
		return nil, fmt.Errorf("%w: %s.%s expects %s, got %s", ErrTypeMismatch, t.ID, opt.Name, opt.Kind, value.Kind())
	}
	return value, nil
}
