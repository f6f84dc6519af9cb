package view

import (
	"github.com/zeusync/viewsync/internal/core/events/bus"
	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
)

// Event types published on the bus.
const (
	EventComponentAdded       = "view.component.added"
	EventComponentRemoved     = "view.component.removed"
	EventComponentActivated   = "view.component.activated"
	EventComponentDeactivated = "view.component.deactivated"
	EventComponentUpdated     = "view.component.updated"
	EventDependencyAdded      = "view.dependency.added"
	EventDependencyRemoved    = "view.dependency.removed"
	EventAuthorityChanged     = "view.authority.changed"
)

const eventSource = "view"

type ComponentEvent struct {
	Key models.Key
}

// ComponentUpdatedEvent is published for live updates of active components.
type ComponentUpdatedEvent struct {
	Key    models.Key
	Option int
}

type DependencyEvent struct {
	Source models.Key
	Target models.Key
}

type AuthorityEvent struct {
	Key           models.Key
	Authoritative bool
}

func (v *View) publish(eventType string, data any) {
	if v.bus == nil {
		return
	}
	if err := v.bus.Publish(bus.NewEvent(eventType, eventSource, data)); err != nil {
		v.logger.Warn("View event handler failed", log.String("event", eventType), log.Error(err))
	}
}
