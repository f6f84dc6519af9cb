package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
	"github.com/zeusync/viewsync/internal/core/view"
)

const (
	PositionOptionCoordinates = iota
)

// PositionHandle is shared by pointer with every handle that follows the
// position, so live updates are visible without reactivation.
type PositionHandle struct {
	Coordinates mgl32.Vec3
}

type positionBehavior struct{}

func (positionBehavior) Activate(c *view.Component) (any, error) {
	return &PositionHandle{Coordinates: c.Vec3(PositionOptionCoordinates)}, nil
}

func (positionBehavior) Update(c *view.Component, option int, _ fields.Value) {
	if option == PositionOptionCoordinates {
		c.Handle().(*PositionHandle).Coordinates = c.Vec3(PositionOptionCoordinates)
	}
}

func (positionBehavior) Deactivate(*view.Component) {}

func positionType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypePosition,
		Options: []view.Option{
			{Name: "coordinates", Kind: fields.KindVec3, LiveUpdate: true, Policy: view.PolicyOptimistic},
		},
		Behavior: positionBehavior{},
	}
}

// PositionOf resolves a position reference option to its handle.
func PositionOf(c *view.Component, option int) *PositionHandle {
	h, _ := c.DependencyHandle(option).(*PositionHandle)
	return h
}
