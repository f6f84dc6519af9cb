package protocol

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/zeusync/viewsync/internal/core/models"
)

// CommandKind selects what a bootstrap command does.
type CommandKind uint8

const (
	CommandCreateClientEntity CommandKind = iota + 1
	CommandSpawnCube
	CommandDigHole
	CommandUpdateResource
	CommandDeleteEntity
)

func (k CommandKind) String() string {
	switch k {
	case CommandCreateClientEntity:
		return "create_client_entity"
	case CommandSpawnCube:
		return "spawn_cube"
	case CommandDigHole:
		return "dig_hole"
	case CommandUpdateResource:
		return "update_resource"
	case CommandDeleteEntity:
		return "delete_entity"
	default:
		return fmt.Sprintf("command(%d)", uint8(k))
	}
}

// ComponentUpdate publishes local writes to an authoritative component.
type ComponentUpdate struct {
	Entity    models.EntityID    `json:"entity"`
	Component models.ComponentID `json:"component"`
	Fields    []Field            `json:"fields,omitempty"`
	Cleared   []string           `json:"cleared,omitempty"`
}

// InterestQuery is one query of an interest declaration. Entity is used by
// entity constraints, Center by absolute boxes and Extent by both box kinds.
type InterestQuery struct {
	Constraint string               `json:"constraint"`
	Entity     models.EntityID      `json:"entity,omitempty"`
	Center     *mgl32.Vec3          `json:"center,omitempty"`
	Extent     *mgl32.Vec3          `json:"extent,omitempty"`
	Components []models.ComponentID `json:"components"`
}

// InterestUpdate replaces the interest declared on the client entity.
type InterestUpdate struct {
	Entity  models.EntityID `json:"entity"`
	Queries []InterestQuery `json:"queries"`
}

// Command is sent to the bootstrap entity. Entity names the acting client,
// Position and Direction are only used by commands acting on the world.
type Command struct {
	RequestID uuid.UUID       `json:"request_id"`
	Target    models.EntityID `json:"target"`
	Command   CommandKind     `json:"command"`
	Entity    models.EntityID `json:"entity,omitempty"`
	Position  mgl32.Vec3      `json:"position"`
	Direction mgl32.Vec3      `json:"direction"`
}

type DeleteEntity struct {
	RequestID uuid.UUID       `json:"request_id"`
	Entity    models.EntityID `json:"entity"`
}

// MetricsReport answers a Metrics op.
type MetricsReport struct {
	Gauges map[string]float64 `json:"gauges"`
}

func (ComponentUpdate) Type() MessageType { return TypeComponentUpdate }
func (InterestUpdate) Type() MessageType  { return TypeInterestUpdate }
func (Command) Type() MessageType         { return TypeCommand }
func (DeleteEntity) Type() MessageType    { return TypeDeleteEntity }
func (MetricsReport) Type() MessageType   { return TypeMetricsReport }

func (ComponentUpdate) request() {}
func (InterestUpdate) request()  {}
func (Command) request()         {}
func (DeleteEntity) request()    {}
func (MetricsReport) request()   {}
