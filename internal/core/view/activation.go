package view

import (
	"fmt"

	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
)

// ready reports whether an inert component may be activated now.
func (v *View) ready(c *Component) bool {
	if c.failed {
		return false
	}
	if c.typ.RequiresAuthority && !c.IsAuthoritative() {
		return false
	}
	for i, opt := range c.typ.Options {
		if opt.Kind == fields.KindEntityRef && !opt.Optional && !c.IsSet(i) {
			return false
		}
	}
	for _, target := range v.deps.targets(c.Key()) {
		dep, ok := v.components[target]
		if !ok || dep.state != StateActive {
			return false
		}
	}
	return true
}

// propagateActivation activates the given components if they are ready and
// then walks up the reverse edges of everything that became active. Each
// component activates at most once per pass, so the walk terminates on
// self and mutual references.
func (v *View) propagateActivation(start ...models.Key) {
	queue := append([]models.Key(nil), start...)
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]

		c, ok := v.components[key]
		if !ok || c.state == StateActive || !v.ready(c) {
			continue
		}
		if !v.activate(c) {
			continue
		}
		for _, source := range v.deps.sources(key) {
			if dependent, ok := v.components[source]; ok && dependent.state == StateInert {
				dependent.failed = false
				queue = append(queue, source)
			}
		}
	}
}

func (v *View) activate(c *Component) bool {
	handle, err := c.typ.Behavior.Activate(c)
	if err != nil {
		c.failed = true
		v.logger.Warn("Failed to activate component",
			log.String("key", c.Key().String()),
			log.Error(fmt.Errorf("%w: %w", ErrActivationFailure, err)))
		return false
	}
	c.handle = handle
	c.state = StateActive
	v.logger.Debug("Component activated", log.String("key", c.Key().String()))
	v.publish(EventComponentActivated, ComponentEvent{Key: c.Key()})
	return true
}

// propagateDeactivation deactivates the root and every active component
// depending on it, transitively. Dependents are torn down before the
// components they depend on, using an explicit stack.
func (v *View) propagateDeactivation(root models.Key) {
	type frame struct {
		key      models.Key
		expanded bool
	}
	stack := []frame{{key: root}}
	onStack := map[models.Key]bool{root: true}

	for len(stack) > 0 {
		top := len(stack) - 1
		f := stack[top]

		c, ok := v.components[f.key]
		if !ok || c.state != StateActive {
			stack = stack[:top]
			delete(onStack, f.key)
			continue
		}

		if !f.expanded {
			stack[top].expanded = true
			for _, source := range v.deps.sources(f.key) {
				if onStack[source] {
					continue
				}
				if dependent, ok := v.components[source]; ok && dependent.state == StateActive {
					stack = append(stack, frame{key: source})
					onStack[source] = true
				}
			}
			continue
		}

		stack = stack[:top]
		delete(onStack, f.key)
		v.deactivate(c)
	}
}

func (v *View) deactivate(c *Component) {
	c.typ.Behavior.Deactivate(c)
	c.handle = nil
	c.state = StateInert
	v.logger.Debug("Component deactivated", log.String("key", c.Key().String()))
	v.publish(EventComponentDeactivated, ComponentEvent{Key: c.Key()})
}
