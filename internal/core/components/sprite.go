package components

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
	"github.com/zeusync/viewsync/internal/core/view"
)

const (
	SpriteOptionPosition = iota
	SpriteOptionPositionMappingX
	SpriteOptionPositionMappingY
	SpriteOptionCanvas
	SpriteOptionLayer
	SpriteOptionSize
	SpriteOptionTileSprite
	SpriteOptionTilemapSprite
	SpriteOptionText
)

const (
	TextOptionContent = iota
	TextOptionFontSize
)

var ErrInvalidSprite = errors.New("sprite needs exactly one of tile_sprite, tilemap_sprite, text")

type TextHandle struct {
	Content  string
	FontSize float32
}

type SpriteHandle struct {
	Position      *PositionHandle
	MappingX      CoordinateMapping
	MappingY      CoordinateMapping
	Canvas        *CanvasHandle
	Layer         int
	Size          mgl32.Vec2
	TileSprite    *TileSpriteHandle
	TilemapSprite *TilemapSpriteHandle
	Text          *TextHandle
}

// Location is the sprite position projected onto the canvas plane.
func (s *SpriteHandle) Location() mgl32.Vec2 {
	if s.Position == nil {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{s.MappingX.Apply(s.Position.Coordinates), s.MappingY.Apply(s.Position.Coordinates)}
}

func spriteType(scene Scene) *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeSprite,
		Options: []view.Option{
			{Name: "position", Kind: fields.KindEntityRef, Target: registry.TypePosition},
			{Name: "position_mapping_x", Kind: fields.KindInt, Default: fields.Int(MappingPositiveX)},
			{Name: "position_mapping_y", Kind: fields.KindInt, Default: fields.Int(MappingPositiveZ)},
			{Name: "canvas", Kind: fields.KindEntityRef, Target: registry.TypeCanvas},
			{Name: "layer", Kind: fields.KindInt},
			{Name: "size", Kind: fields.KindVec2, LiveUpdate: true, Default: fields.Vec2{1, 1}},
			{Name: "tile_sprite", Kind: fields.KindEntityRef, Target: registry.TypeTileSprite, Optional: true},
			{Name: "tilemap_sprite", Kind: fields.KindEntityRef, Target: registry.TypeTilemapSprite, Optional: true},
			{Name: "text", Kind: fields.KindEntityRef, Target: registry.TypeText, Optional: true},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				kinds := 0
				for _, option := range []int{SpriteOptionTileSprite, SpriteOptionTilemapSprite, SpriteOptionText} {
					if c.IsSet(option) {
						kinds++
					}
				}
				if kinds != 1 {
					return nil, ErrInvalidSprite
				}

				canvas, _ := c.DependencyHandle(SpriteOptionCanvas).(*CanvasHandle)
				layer := int(c.Int(SpriteOptionLayer))
				if canvas != nil && (layer < 0 || layer >= canvas.NumLayers) {
					return nil, ErrInvalidSprite
				}
				s := &SpriteHandle{
					Position: PositionOf(c, SpriteOptionPosition),
					MappingX: CoordinateMapping(c.Int(SpriteOptionPositionMappingX)),
					MappingY: CoordinateMapping(c.Int(SpriteOptionPositionMappingY)),
					Canvas:   canvas,
					Layer:    layer,
					Size:     c.Vec2(SpriteOptionSize),
				}
				s.TileSprite, _ = c.DependencyHandle(SpriteOptionTileSprite).(*TileSpriteHandle)
				s.TilemapSprite, _ = c.DependencyHandle(SpriteOptionTilemapSprite).(*TilemapSpriteHandle)
				s.Text, _ = c.DependencyHandle(SpriteOptionText).(*TextHandle)
				scene.AddSprite(c.Entity(), s)
				return s, nil
			},
			UpdateFunc: func(c *view.Component, option int, _ fields.Value) {
				if option == SpriteOptionSize {
					c.Handle().(*SpriteHandle).Size = c.Vec2(option)
				}
			},
			DeactivateFunc: func(c *view.Component) {
				scene.RemoveSprite(c.Entity())
			},
		},
	}
}

func textType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeText,
		Options: []view.Option{
			{Name: "content", Kind: fields.KindString, LiveUpdate: true},
			{Name: "font_size", Kind: fields.KindFloat, LiveUpdate: true, Default: fields.Float(16)},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				return &TextHandle{
					Content:  c.String(TextOptionContent),
					FontSize: c.Float(TextOptionFontSize),
				}, nil
			},
			UpdateFunc: func(c *view.Component, option int, _ fields.Value) {
				h := c.Handle().(*TextHandle)
				switch option {
				case TextOptionContent:
					h.Content = c.String(option)
				case TextOptionFontSize:
					h.FontSize = c.Float(option)
				}
			},
		},
	}
}
