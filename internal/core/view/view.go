// Package view mirrors remote entities and components locally, tracks the
// dependencies between components and activates each component once
// everything it depends on is active.
//
// A View is owned by a single goroutine. None of its methods block.
package view

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/zeusync/viewsync/internal/core/events/bus"
	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
)

// Entity is a mirrored entity and the components attached to it.
type Entity struct {
	id         models.EntityID
	typeTag    string
	components map[string]*Component
}

func (e *Entity) ID() models.EntityID { return e.id }

// TypeTag is the free-form entity type, empty until metadata arrives.
func (e *Entity) TypeTag() string { return e.typeTag }

func (e *Entity) Component(typeID string) (*Component, bool) {
	c, ok := e.components[typeID]
	return c, ok
}

// ComponentTypes lists the attached types, sorted.
func (e *Entity) ComponentTypes() []string {
	return slices.Sorted(maps.Keys(e.components))
}

// Assignment sets one option while a component is being added.
type Assignment struct {
	Option int
	Value  fields.Value
}

type View struct {
	logger log.Log
	bus    bus.EventBus

	types      map[string]*ComponentType
	entities   map[models.EntityID]*Entity
	components map[models.Key]*Component
	deps       *dependencyIndex

	authority    map[models.Key]struct{}
	synchronizer Synchronizer
	pending      map[pendingWrite][]fields.Value
	echoes       map[pendingWrite][]fields.Value
}

// New creates an empty view. eventBus may be nil.
func New(logger log.Log, eventBus bus.EventBus) *View {
	return &View{
		logger:     logger.With(log.String("component", "view")),
		bus:        eventBus,
		types:      make(map[string]*ComponentType),
		entities:   make(map[models.EntityID]*Entity),
		components: make(map[models.Key]*Component),
		deps:       newDependencyIndex(),
		authority:  make(map[models.Key]struct{}),
		pending:    make(map[pendingWrite][]fields.Value),
		echoes:     make(map[pendingWrite][]fields.Value),
	}
}

// RegisterType makes a component type available to AddComponent.
func (v *View) RegisterType(t *ComponentType) error {
	if err := t.validate(); err != nil {
		return err
	}
	if _, ok := v.types[t.ID]; ok {
		return fmt.Errorf("%w: component type %s", ErrDuplicateDefinition, t.ID)
	}
	if t.Behavior == nil {
		t.Behavior = Funcs{}
	}
	v.types[t.ID] = t
	return nil
}

func (v *View) ComponentType(id string) (*ComponentType, bool) {
	t, ok := v.types[id]
	return t, ok
}

func (v *View) AddEntity(id models.EntityID) error {
	if _, ok := v.entities[id]; ok {
		return fmt.Errorf("%w: entity %d", ErrDuplicateDefinition, id)
	}
	v.entities[id] = &Entity{id: id, components: make(map[string]*Component)}
	return nil
}

// RemoveEntity removes every component of the entity, then the entity and
// any authority held over it.
func (v *View) RemoveEntity(id models.EntityID) error {
	entity, ok := v.entities[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}
	var errs []error
	for _, typeID := range entity.ComponentTypes() {
		if err := v.RemoveComponent(id, typeID); err != nil {
			errs = append(errs, err)
		}
	}
	for key := range v.authority {
		if key.Entity == id {
			delete(v.authority, key)
		}
	}
	delete(v.entities, id)
	return errors.Join(errs...)
}

func (v *View) Entity(id models.EntityID) (*Entity, bool) {
	e, ok := v.entities[id]
	return e, ok
}

// Entities returns all entity ids, sorted.
func (v *View) Entities() []models.EntityID {
	return slices.Sorted(maps.Keys(v.entities))
}

func (v *View) SetEntityType(id models.EntityID, typeTag string) error {
	entity, ok := v.entities[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}
	entity.typeTag = typeTag
	return nil
}

// AddComponent attaches a component, applies the initial assignments and
// then evaluates activation once. Assignments that fail validation are
// dropped and reported in the returned error next to the new component.
func (v *View) AddComponent(id models.EntityID, typeID string, initial ...Assignment) (*Component, error) {
	entity, ok := v.entities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}
	t, ok := v.types[typeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeID)
	}
	if _, ok := entity.components[typeID]; ok {
		return nil, fmt.Errorf("%w: component %s on entity %d", ErrDuplicateDefinition, typeID, id)
	}

	c := &Component{
		view:   v,
		entity: id,
		typ:    t,
		values: make([]fields.Value, len(t.Options)),
	}
	entity.components[typeID] = c
	v.components[c.Key()] = c

	var errs []error
	for _, a := range initial {
		value, err := checkValue(t, a.Option, a.Value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		v.store(c, a.Option, value)
	}
	v.publish(EventComponentAdded, ComponentEvent{Key: c.Key()})
	v.propagateActivation(c.Key())

	return c, errors.Join(errs...)
}

// RemoveComponent deactivates the component and its dependents, drops its
// dependency edges and forgets it.
func (v *View) RemoveComponent(id models.EntityID, typeID string) error {
	key := models.Key{Entity: id, Type: typeID}
	c, ok := v.components[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, key)
	}

	v.propagateDeactivation(key)
	for _, target := range v.deps.removeSource(key) {
		v.publish(EventDependencyRemoved, DependencyEvent{Source: key, Target: target})
	}
	v.forgetWrites(key)
	delete(v.entities[c.entity].components, typeID)
	delete(v.components, key)
	v.publish(EventComponentRemoved, ComponentEvent{Key: key})
	return nil
}

func (v *View) Component(id models.EntityID, typeID string) (*Component, bool) {
	c, ok := v.components[models.Key{Entity: id, Type: typeID}]
	return c, ok
}

// SetCanonicalValue validates and stores a canonical value. Storing the
// current value again does nothing.
func (v *View) SetCanonicalValue(c *Component, option int, value fields.Value) error {
	value, err := checkValue(c.typ, option, value)
	if err != nil {
		return err
	}
	if current := c.stored(option); current != nil && current.Equal(value) {
		return nil
	}

	opt := c.typ.Options[option]
	if c.state == StateActive && opt.LiveUpdate && !opt.Kind.IsReference() {
		c.values[option] = fields.Clone(value)
		c.typ.Behavior.Update(c, option, value)
		v.publish(EventComponentUpdated, ComponentUpdatedEvent{Key: c.Key(), Option: option})
		return nil
	}

	key := c.Key()
	if c.state == StateActive {
		v.propagateDeactivation(key)
	}
	v.store(c, option, value)
	c.failed = false
	v.propagateActivation(key)
	return nil
}

// store writes the slot and keeps the dependency index in step with it.
func (v *View) store(c *Component, option int, value fields.Value) {
	old := c.values[option]
	c.values[option] = fields.Clone(value)

	opt := c.typ.Options[option]
	if !opt.Kind.IsReference() {
		return
	}
	source := c.Key()
	// Add before remove so a target kept by the new value never loses its edge.
	for _, id := range fields.References(value) {
		target := models.Key{Entity: id, Type: opt.Target}
		if v.deps.add(source, target) {
			v.publish(EventDependencyAdded, DependencyEvent{Source: source, Target: target})
		}
	}
	if old == nil {
		return
	}
	for _, id := range fields.References(old) {
		target := models.Key{Entity: id, Type: opt.Target}
		if v.deps.remove(source, target) {
			v.publish(EventDependencyRemoved, DependencyEvent{Source: source, Target: target})
		}
	}
}

// SourcesDependingOn lists the components that reference the target, sorted.
func (v *View) SourcesDependingOn(id models.EntityID, typeID string) []models.Key {
	return v.deps.sources(models.Key{Entity: id, Type: typeID})
}

// TargetsRequiredBy lists the targets a component references, sorted.
func (v *View) TargetsRequiredBy(c *Component) []models.Key {
	return v.deps.targets(c.Key())
}

// DependencyTargets lists every target with at least one dependent, sorted.
func (v *View) DependencyTargets() []models.Key {
	return v.deps.keys()
}

// Stats is a snapshot of the view size.
type Stats struct {
	Entities          int
	Components        int
	ActiveComponents  int
	DependencyTargets int
	Authoritative     int
	PendingWrites     int
}

func (v *View) Stats() Stats {
	s := Stats{
		Entities:          len(v.entities),
		Components:        len(v.components),
		DependencyTargets: len(v.deps.reverse),
		Authoritative:     len(v.authority),
		PendingWrites:     len(v.pending),
	}
	for _, c := range v.components {
		if c.state == StateActive {
			s.ActiveComponents++
		}
	}
	return s
}
