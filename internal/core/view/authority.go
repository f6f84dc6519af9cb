package view

import (
	"fmt"

	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/models"
)

// Synchronizer sends local writes of authoritative options to the runtime.
type Synchronizer interface {
	SynchronizeUpdate(c *Component, option int, value fields.Value) error
}

// SynchronizerFunc adapts a function to Synchronizer.
type SynchronizerFunc func(c *Component, option int, value fields.Value) error

func (f SynchronizerFunc) SynchronizeUpdate(c *Component, option int, value fields.Value) error {
	return f(c, option, value)
}

// maxEchoes bounds the writes remembered per option while their echoes are
// outstanding.
const maxEchoes = 8

type pendingWrite struct {
	key    models.Key
	option int
}

func (v *View) SetSynchronizer(s Synchronizer) {
	v.synchronizer = s
}

func (v *View) IsAuthoritative(id models.EntityID, typeID string) bool {
	_, ok := v.authority[models.Key{Entity: id, Type: typeID}]
	return ok
}

// Delegate grants local authority over a component. It may arrive before
// the component itself.
func (v *View) Delegate(id models.EntityID, typeID string) {
	key := models.Key{Entity: id, Type: typeID}
	if _, ok := v.authority[key]; ok {
		return
	}
	v.authority[key] = struct{}{}
	v.publish(EventAuthorityChanged, AuthorityEvent{Key: key, Authoritative: true})

	if c, ok := v.components[key]; ok && c.typ.RequiresAuthority {
		c.failed = false
		v.propagateActivation(key)
	}
}

// Undelegate revokes local authority. Writes still waiting for loopback are
// forgotten, and components requiring authority are deactivated.
func (v *View) Undelegate(id models.EntityID, typeID string) {
	key := models.Key{Entity: id, Type: typeID}
	if _, ok := v.authority[key]; !ok {
		return
	}
	delete(v.authority, key)
	v.forgetWrites(key)
	v.publish(EventAuthorityChanged, AuthorityEvent{Key: key, Authoritative: false})

	if c, ok := v.components[key]; ok && c.typ.RequiresAuthority {
		v.propagateDeactivation(key)
	}
}

// RequestUpdate is the local write path for authoritative components. The
// value goes to the Synchronizer; the canonical value changes right away
// only for optimistic options and otherwise once the runtime echoes it.
func (v *View) RequestUpdate(c *Component, option int, value fields.Value) error {
	value, err := checkValue(c.typ, option, value)
	if err != nil {
		return err
	}
	key := c.Key()
	if !c.IsAuthoritative() {
		return fmt.Errorf("%w: %s", ErrNotAuthoritative, key)
	}
	if v.synchronizer == nil {
		return ErrNoSynchronizer
	}
	pw := pendingWrite{key: key, option: option}
	current := c.stored(option)
	if pending := v.pending[pw]; len(pending) > 0 {
		current = pending[len(pending)-1]
	}
	if current != nil && current.Equal(value) {
		return nil
	}

	if err := v.synchronizer.SynchronizeUpdate(c, option, value); err != nil {
		return fmt.Errorf("synchronize %s option %d: %w", key, option, err)
	}

	if c.typ.Options[option].Policy == PolicyOptimistic {
		v.echoes[pw] = remember(v.echoes[pw], value)
		return v.SetCanonicalValue(c, option, value)
	}
	v.pending[pw] = remember(v.pending[pw], value)
	return nil
}

func remember(values []fields.Value, value fields.Value) []fields.Value {
	values = append(values, fields.Clone(value))
	if len(values) > maxEchoes {
		values = values[len(values)-maxEchoes:]
	}
	return values
}

// consume drops every value up to and including the first one equal to
// value, and reports whether there was one.
func consume(values map[pendingWrite][]fields.Value, pw pendingWrite, value fields.Value) bool {
	for i, v := range values[pw] {
		if v.Equal(value) {
			if rest := values[pw][i+1:]; len(rest) > 0 {
				values[pw] = rest
			} else {
				delete(values, pw)
			}
			return true
		}
	}
	return false
}

// ApplyRemoteUpdate applies an inbound update. For authoritative components
// only the echo of a pending local write is accepted; anything else is
// reported as ErrAuthorityHazard and dropped.
func (v *View) ApplyRemoteUpdate(id models.EntityID, typeID string, option int, value fields.Value) error {
	c, ok := v.Component(id, typeID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, models.Key{Entity: id, Type: typeID})
	}
	if !c.IsAuthoritative() {
		return v.SetCanonicalValue(c, option, value)
	}

	value, err := checkValue(c.typ, option, value)
	if err != nil {
		return err
	}
	pw := pendingWrite{key: c.Key(), option: option}
	if consume(v.pending, pw, value) {
		return v.SetCanonicalValue(c, option, value)
	}
	// Echoes of optimistic writes arrive after the value was applied.
	if consume(v.echoes, pw, value) {
		return nil
	}
	return fmt.Errorf("%w: %s option %s", ErrAuthorityHazard, c.Key(), c.typ.Options[option].Name)
}

// PendingValue returns the latest local write still waiting for loopback.
func (v *View) PendingValue(c *Component, option int) (fields.Value, bool) {
	pending := v.pending[pendingWrite{key: c.Key(), option: option}]
	if len(pending) == 0 {
		return nil, false
	}
	return pending[len(pending)-1], true
}

func (v *View) forgetWrites(key models.Key) {
	for pw := range v.pending {
		if pw.key == key {
			delete(v.pending, pw)
		}
	}
	for pw := range v.echoes {
		if pw.key == key {
			delete(v.echoes, pw)
		}
	}
}
