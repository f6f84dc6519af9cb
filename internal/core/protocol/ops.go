package protocol

import (
	"github.com/google/uuid"

	"github.com/zeusync/viewsync/internal/core/models"
)

type AddEntity struct {
	Entity models.EntityID `json:"entity"`
}

type RemoveEntity struct {
	Entity models.EntityID `json:"entity"`
}

// AddComponent carries the initial value of every option the runtime knows.
type AddComponent struct {
	Entity    models.EntityID    `json:"entity"`
	Component models.ComponentID `json:"component"`
	Fields    []Field            `json:"fields,omitempty"`
}

// UpdateComponent carries changed options. Cleared names options that were
// reset to no value.
type UpdateComponent struct {
	Entity    models.EntityID    `json:"entity"`
	Component models.ComponentID `json:"component"`
	Fields    []Field            `json:"fields,omitempty"`
	Cleared   []string           `json:"cleared,omitempty"`
}

type RemoveComponent struct {
	Entity    models.EntityID    `json:"entity"`
	Component models.ComponentID `json:"component"`
}

// AuthorityChange grants or revokes authority over one component, or over
// every component of a set when Set is non-zero.
type AuthorityChange struct {
	Entity        models.EntityID       `json:"entity"`
	Component     models.ComponentID    `json:"component,omitempty"`
	Set           models.ComponentSetID `json:"set,omitempty"`
	Authoritative bool                  `json:"authoritative"`
}

// FlagUpdate changes a worker flag. An empty Value means the flag was unset.
type FlagUpdate struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Metrics are the runtime's gauges. The client answers with a report.
type Metrics struct {
	Gauges map[string]float64 `json:"gauges,omitempty"`
}

// CommandResponse answers a Command or DeleteEntity request.
type CommandResponse struct {
	RequestID uuid.UUID       `json:"request_id"`
	Command   CommandKind     `json:"command"`
	Entity    models.EntityID `json:"entity,omitempty"`
	Success   bool            `json:"success"`
	Message   string          `json:"message,omitempty"`
}

// Disconnect is the last op of a connection.
type Disconnect struct {
	Reason string `json:"reason"`
}

func (AddEntity) Type() MessageType       { return TypeAddEntity }
func (RemoveEntity) Type() MessageType    { return TypeRemoveEntity }
func (AddComponent) Type() MessageType    { return TypeAddComponent }
func (UpdateComponent) Type() MessageType { return TypeUpdateComponent }
func (RemoveComponent) Type() MessageType { return TypeRemoveComponent }
func (AuthorityChange) Type() MessageType { return TypeAuthorityChange }
func (FlagUpdate) Type() MessageType      { return TypeFlagUpdate }
func (Metrics) Type() MessageType         { return TypeMetrics }
func (CommandResponse) Type() MessageType { return TypeCommandResponse }
func (Disconnect) Type() MessageType      { return TypeDisconnect }

func (AddEntity) op()       {}
func (RemoveEntity) op()    {}
func (AddComponent) op()    {}
func (UpdateComponent) op() {}
func (RemoveComponent) op() {}
func (AuthorityChange) op() {}
func (FlagUpdate) op()      {}
func (Metrics) op()         {}
func (CommandResponse) op() {}
func (Disconnect) op()      {}
