package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
	"github.com/zeusync/viewsync/internal/core/view"
)

const (
	ClientOptionPosition = iota
	ClientOptionRotation
	ClientOptionSpeed
	ClientOptionDisablePositionTracking
	ClientOptionModel
)

const DefaultClientSpeed = 2.0

// ClientHandle is the locally controlled actor.
type ClientHandle struct {
	Position         *PositionHandle
	Rotation         mgl32.Vec3
	Speed            float32
	TrackingDisabled bool
}

func clientType() *view.ComponentType {
	return &view.ComponentType{
		ID:                registry.TypeClient,
		RequiresAuthority: true,
		Options: []view.Option{
			{Name: "position", Kind: fields.KindEntityRef, Target: registry.TypePosition},
			{Name: "rotation", Kind: fields.KindVec3, LiveUpdate: true, Policy: view.PolicyOptimistic},
			{Name: "speed", Kind: fields.KindFloat, LiveUpdate: true, Default: fields.Float(DefaultClientSpeed)},
			{Name: "disable_position_tracking", Kind: fields.KindBool, LiveUpdate: true},
			{Name: "model", Kind: fields.KindEntityRef, Target: registry.TypeModel, Optional: true},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				return &ClientHandle{
					Position:         PositionOf(c, ClientOptionPosition),
					Rotation:         c.Vec3(ClientOptionRotation),
					Speed:            c.Float(ClientOptionSpeed),
					TrackingDisabled: c.Bool(ClientOptionDisablePositionTracking),
				}, nil
			},
			UpdateFunc: func(c *view.Component, option int, _ fields.Value) {
				h := c.Handle().(*ClientHandle)
				switch option {
				case ClientOptionRotation:
					h.Rotation = c.Vec3(option)
				case ClientOptionSpeed:
					h.Speed = c.Float(option)
				case ClientOptionDisablePositionTracking:
					h.TrackingDisabled = c.Bool(option)
				}
			},
		},
	}
}
