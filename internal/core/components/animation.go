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
	TileSpriteAnimationOptionPosition = iota
	TileSpriteAnimationOptionTileSprite
	TileSpriteAnimationOptionPositionMappingX
	TileSpriteAnimationOptionPositionMappingY
	TileSpriteAnimationOptionMoveAmountThreshold
)

const (
	TilemapCollidersOptionNumColumns = iota
	TilemapCollidersOptionNumRows
	TilemapCollidersOptionColliders
)

var ErrInvalidTilemapColliders = errors.New("tilemap colliders need at least one column and row and a byte per tile")

// AnimationDirection is the tileset row of a walking animation.
type AnimationDirection int

const (
	DirectionDown AnimationDirection = iota
	DirectionUp
	DirectionLeft
	DirectionRight
)

// TileSpriteAnimationHandle walks a tile sprite through its tileset as the
// followed position moves. Column 0 is the idle frame, steps alternate
// between columns 1 and 2.
type TileSpriteAnimationHandle struct {
	Position   *PositionHandle
	TileSprite *TileSpriteHandle
	MappingX   CoordinateMapping
	MappingY   CoordinateMapping
	Threshold  float32
	Direction  AnimationDirection

	last mgl32.Vec2
	step int
}

func (h *TileSpriteAnimationHandle) location() mgl32.Vec2 {
	if h.Position == nil {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{h.MappingX.Apply(h.Position.Coordinates), h.MappingY.Apply(h.Position.Coordinates)}
}

// Animate advances the animation if the position moved at least the
// threshold since the last frame change, and reports whether it did.
func (h *TileSpriteAnimationHandle) Animate() bool {
	current := h.location()
	moved := current.Sub(h.last)
	if moved.Len() < h.Threshold || moved.Len() == 0 {
		return false
	}
	h.last = current

	switch {
	case mgl32.Abs(moved.X()) > mgl32.Abs(moved.Y()) && moved.X() > 0:
		h.Direction = DirectionRight
	case mgl32.Abs(moved.X()) > mgl32.Abs(moved.Y()):
		h.Direction = DirectionLeft
	case moved.Y() > 0:
		h.Direction = DirectionUp
	default:
		h.Direction = DirectionDown
	}
	h.step = h.step%2 + 1

	if h.TileSprite != nil {
		h.TileSprite.Row = int(h.Direction)
		h.TileSprite.Column = h.step
	}
	return true
}

// Reset shows the idle frame of the current direction.
func (h *TileSpriteAnimationHandle) Reset() {
	h.step = 0
	h.last = h.location()
	if h.TileSprite != nil {
		h.TileSprite.Row = int(h.Direction)
		h.TileSprite.Column = 0
	}
}

// TilemapCollidersHandle marks the blocked cells of a tilemap.
type TilemapCollidersHandle struct {
	NumColumns int
	NumRows    int
	Colliders  []byte
}

// Collides reports whether a cell is blocked. Cells outside the map are.
func (h *TilemapCollidersHandle) Collides(column, row int) bool {
	if column < 0 || row < 0 || column >= h.NumColumns || row >= h.NumRows {
		return true
	}
	return h.Colliders[row*h.NumColumns+column] != 0
}

func tileSpriteAnimationType(scene Scene) *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeTileSpriteAnimation,
		Options: []view.Option{
			{Name: "position", Kind: fields.KindEntityRef, Target: registry.TypePosition},
			{Name: "tile_sprite", Kind: fields.KindEntityRef, Target: registry.TypeTileSprite},
			{Name: "position_mapping_x", Kind: fields.KindInt, Default: fields.Int(MappingPositiveX)},
			{Name: "position_mapping_y", Kind: fields.KindInt, Default: fields.Int(MappingPositiveZ)},
			{Name: "move_amount_threshold", Kind: fields.KindFloat, LiveUpdate: true},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				h := &TileSpriteAnimationHandle{
					Position:  PositionOf(c, TileSpriteAnimationOptionPosition),
					MappingX:  CoordinateMapping(c.Int(TileSpriteAnimationOptionPositionMappingX)),
					MappingY:  CoordinateMapping(c.Int(TileSpriteAnimationOptionPositionMappingY)),
					Threshold: c.Float(TileSpriteAnimationOptionMoveAmountThreshold),
				}
				h.TileSprite, _ = c.DependencyHandle(TileSpriteAnimationOptionTileSprite).(*TileSpriteHandle)
				h.Reset()
				scene.AddAnimation(c.Entity(), h)
				return h, nil
			},
			UpdateFunc: func(c *view.Component, option int, _ fields.Value) {
				if option == TileSpriteAnimationOptionMoveAmountThreshold {
					c.Handle().(*TileSpriteAnimationHandle).Threshold = c.Float(option)
				}
			},
			DeactivateFunc: func(c *view.Component) {
				scene.RemoveAnimation(c.Entity())
			},
		},
	}
}

func tilemapCollidersType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeTilemapColliders,
		Options: []view.Option{
			{Name: "num_columns", Kind: fields.KindInt},
			{Name: "num_rows", Kind: fields.KindInt},
			{Name: "colliders", Kind: fields.KindBytes},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				columns, rows := int(c.Int(TilemapCollidersOptionNumColumns)), int(c.Int(TilemapCollidersOptionNumRows))
				colliders := c.Bytes(TilemapCollidersOptionColliders)
				if columns < 1 || rows < 1 || len(colliders) < columns*rows {
					return nil, fmt.Errorf("%w: %dx%d with %d bytes", ErrInvalidTilemapColliders, columns, rows, len(colliders))
				}
				return &TilemapCollidersHandle{NumColumns: columns, NumRows: rows, Colliders: colliders}, nil
			},
		},
	}
}
