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
	CanvasOptionNumLayers = iota
)

const (
	DrawableOptionType = iota
)

const (
	MaterialOptionType = iota
	MaterialOptionColor
	MaterialOptionTexture
	MaterialOptionTextureSampler
	MaterialOptionTilemap
	MaterialOptionCanvas
	MaterialOptionCanvasRegionPosition
	MaterialOptionCanvasRegionSize
)

const (
	ModelOptionPosition = iota
	ModelOptionDrawable
	ModelOptionMaterial
	ModelOptionRotation
	ModelOptionScale
	ModelOptionVisible
	ModelOptionEmitter
	ModelOptionCastsShadow
	ModelOptionPolygonMode
)

type DrawableType int32

const (
	DrawableCube DrawableType = iota
	DrawableQuad
	DrawablePoint
	DrawablePlane
	DrawableTiles
)

type MaterialType int32

const (
	MaterialColor MaterialType = iota
	MaterialTexture
	MaterialParticle
	MaterialTilemap
	MaterialCanvas
	MaterialChunk
)

type PolygonMode int32

const (
	PolygonFill PolygonMode = iota
	PolygonLine
	PolygonPoint
)

var (
	ErrInvalidCanvas   = errors.New("canvas needs at least one layer")
	ErrInvalidDrawable = errors.New("unknown drawable type")
	ErrInvalidMaterial = errors.New("material is missing the reference its type needs")
)

type CanvasHandle struct {
	NumLayers int
}

type DrawableHandle struct {
	Type DrawableType
}

type MaterialHandle struct {
	Type           MaterialType
	Color          mgl32.Vec3
	Texture        *TextureHandle
	Sampler        *SamplerHandle
	Tilemap        *TilemapHandle
	Canvas         *CanvasHandle
	RegionPosition mgl32.Vec2
	RegionSize     mgl32.Vec2
}

type ModelHandle struct {
	Position    *PositionHandle
	Drawable    *DrawableHandle
	Material    *MaterialHandle
	Rotation    mgl32.Vec3
	Scale       mgl32.Vec3
	Visible     bool
	Emitter     bool
	CastsShadow bool
	PolygonMode PolygonMode
}

// Transform composes translation, rotation and scale of the model.
func (m *ModelHandle) Transform() mgl32.Mat4 {
	translation := mgl32.Ident4()
	if m.Position != nil {
		translation = mgl32.Translate3D(m.Position.Coordinates.Elem())
	}
	rotation := mgl32.AnglesToQuat(m.Rotation.X(), m.Rotation.Y(), m.Rotation.Z(), mgl32.XYZ).Mat4()
	scale := mgl32.Scale3D(m.Scale.Elem())
	return translation.Mul4(rotation).Mul4(scale)
}

func canvasType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeCanvas,
		Options: []view.Option{
			{Name: "num_layers", Kind: fields.KindInt},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				layers := c.Int(CanvasOptionNumLayers)
				if layers < 1 {
					return nil, fmt.Errorf("%w: got %d", ErrInvalidCanvas, layers)
				}
				return &CanvasHandle{NumLayers: int(layers)}, nil
			},
		},
	}
}

func drawableType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeDrawable,
		Options: []view.Option{
			{Name: "type", Kind: fields.KindInt},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				t := DrawableType(c.Int(DrawableOptionType))
				if t < DrawableCube || t > DrawableTiles {
					return nil, fmt.Errorf("%w: %d", ErrInvalidDrawable, t)
				}
				return &DrawableHandle{Type: t}, nil
			},
		},
	}
}

func materialType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeMaterial,
		Options: []view.Option{
			{Name: "type", Kind: fields.KindInt},
			{Name: "color", Kind: fields.KindVec3, LiveUpdate: true},
			{Name: "texture", Kind: fields.KindEntityRef, Target: registry.TypeTexture, Optional: true},
			{Name: "texture_sampler", Kind: fields.KindEntityRef, Target: registry.TypeSampler, Optional: true},
			{Name: "tilemap", Kind: fields.KindEntityRef, Target: registry.TypeTilemap, Optional: true},
			{Name: "canvas", Kind: fields.KindEntityRef, Target: registry.TypeCanvas, Optional: true},
			{Name: "canvas_region_position", Kind: fields.KindVec2},
			{Name: "canvas_region_size", Kind: fields.KindVec2},
		},
		Behavior: view.Funcs{
			ActivateFunc: activateMaterial,
			UpdateFunc: func(c *view.Component, option int, _ fields.Value) {
				if option == MaterialOptionColor {
					c.Handle().(*MaterialHandle).Color = c.Vec3(option)
				}
			},
		},
	}
}

func activateMaterial(c *view.Component) (any, error) {
	m := &MaterialHandle{
		Type:           MaterialType(c.Int(MaterialOptionType)),
		Color:          c.Vec3(MaterialOptionColor),
		RegionPosition: c.Vec2(MaterialOptionCanvasRegionPosition),
		RegionSize:     c.Vec2(MaterialOptionCanvasRegionSize),
	}

	var required []int
	switch m.Type {
	case MaterialColor, MaterialParticle, MaterialChunk:
	case MaterialTexture:
		required = []int{MaterialOptionTexture, MaterialOptionTextureSampler}
	case MaterialTilemap:
		required = []int{MaterialOptionTilemap}
	case MaterialCanvas:
		required = []int{MaterialOptionCanvas}
	default:
		return nil, fmt.Errorf("unknown material type %d", m.Type)
	}
	for _, option := range required {
		if !c.IsSet(option) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMaterial, c.Type().Options[option].Name)
		}
	}

	m.Texture, _ = c.DependencyHandle(MaterialOptionTexture).(*TextureHandle)
	m.Sampler, _ = c.DependencyHandle(MaterialOptionTextureSampler).(*SamplerHandle)
	m.Tilemap, _ = c.DependencyHandle(MaterialOptionTilemap).(*TilemapHandle)
	m.Canvas, _ = c.DependencyHandle(MaterialOptionCanvas).(*CanvasHandle)
	return m, nil
}

func modelType(scene Scene) *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeModel,
		Options: []view.Option{
			{Name: "position", Kind: fields.KindEntityRef, Target: registry.TypePosition},
			{Name: "drawable", Kind: fields.KindEntityRef, Target: registry.TypeDrawable},
			{Name: "material", Kind: fields.KindEntityRef, Target: registry.TypeMaterial},
			{Name: "rotation", Kind: fields.KindVec3, LiveUpdate: true},
			{Name: "scale", Kind: fields.KindVec3, LiveUpdate: true, Default: fields.Vec3{1, 1, 1}},
			{Name: "visible", Kind: fields.KindBool, LiveUpdate: true, Default: fields.Bool(true)},
			{Name: "emitter", Kind: fields.KindBool},
			{Name: "casts_shadow", Kind: fields.KindBool, Default: fields.Bool(true)},
			{Name: "polygon_mode", Kind: fields.KindInt},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				m := &ModelHandle{
					Position:    PositionOf(c, ModelOptionPosition),
					Rotation:    c.Vec3(ModelOptionRotation),
					Scale:       c.Vec3(ModelOptionScale),
					Visible:     c.Bool(ModelOptionVisible),
					Emitter:     c.Bool(ModelOptionEmitter),
					CastsShadow: c.Bool(ModelOptionCastsShadow),
					PolygonMode: PolygonMode(c.Int(ModelOptionPolygonMode)),
				}
				m.Drawable, _ = c.DependencyHandle(ModelOptionDrawable).(*DrawableHandle)
				m.Material, _ = c.DependencyHandle(ModelOptionMaterial).(*MaterialHandle)
				scene.AddModel(c.Entity(), m)
				return m, nil
			},
			UpdateFunc: func(c *view.Component, option int, _ fields.Value) {
				m := c.Handle().(*ModelHandle)
				switch option {
				case ModelOptionRotation:
					m.Rotation = c.Vec3(option)
				case ModelOptionScale:
					m.Scale = c.Vec3(option)
				case ModelOptionVisible:
					m.Visible = c.Bool(option)
				}
			},
			DeactivateFunc: func(c *view.Component) {
				scene.RemoveModel(c.Entity())
			},
		},
	}
}
