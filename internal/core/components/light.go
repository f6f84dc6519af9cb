package components

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
	"github.com/zeusync/viewsync/internal/core/view"
)

const (
	LightOptionPosition = iota
	LightOptionType
	LightOptionWidth
	LightOptionHeight
	LightOptionSamples
	LightOptionAmbientFactor
	LightOptionExponentialFactor
	LightOptionColor
)

type LightType int32

const (
	LightSpot LightType = iota
	LightPoint
)

var ErrInvalidLight = errors.New("light shadow map must be at least 1x1")

type LightHandle struct {
	Position          *PositionHandle
	Type              LightType
	Width             int
	Height            int
	Samples           int
	AmbientFactor     float32
	ExponentialFactor float32
	Color             mgl32.Vec3
}

func lightType(scene Scene) *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeLight,
		Options: []view.Option{
			{Name: "position", Kind: fields.KindEntityRef, Target: registry.TypePosition},
			{Name: "type", Kind: fields.KindInt},
			{Name: "width", Kind: fields.KindInt, Default: fields.Int(1024)},
			{Name: "height", Kind: fields.KindInt, Default: fields.Int(1024)},
			{Name: "samples", Kind: fields.KindInt, Default: fields.Int(1)},
			{Name: "ambient_factor", Kind: fields.KindFloat, LiveUpdate: true, Default: fields.Float(0.2)},
			{Name: "exponential_factor", Kind: fields.KindFloat, LiveUpdate: true, Default: fields.Float(80)},
			{Name: "color", Kind: fields.KindVec3, LiveUpdate: true, Default: fields.Vec3{1, 1, 1}},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				width, height := c.Int(LightOptionWidth), c.Int(LightOptionHeight)
				if width < 1 || height < 1 {
					return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidLight, width, height)
				}
				l := &LightHandle{
					Position:          PositionOf(c, LightOptionPosition),
					Type:              LightType(c.Int(LightOptionType)),
					Width:             int(width),
					Height:            int(height),
					Samples:           int(c.Int(LightOptionSamples)),
					AmbientFactor:     c.Float(LightOptionAmbientFactor),
					ExponentialFactor: c.Float(LightOptionExponentialFactor),
					Color:             c.Vec3(LightOptionColor),
				}
				scene.AddLight(c.Entity(), l)
				return l, nil
			},
			UpdateFunc: func(c *view.Component, option int, _ fields.Value) {
				l := c.Handle().(*LightHandle)
				switch option {
				case LightOptionAmbientFactor:
					l.AmbientFactor = c.Float(option)
				case LightOptionExponentialFactor:
					l.ExponentialFactor = c.Float(option)
				case LightOptionColor:
					l.Color = c.Vec3(option)
				}
			},
			DeactivateFunc: func(c *view.Component) {
				scene.RemoveLight(c.Entity())
			},
		},
	}
}
