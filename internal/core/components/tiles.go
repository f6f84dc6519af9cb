package components

import (
	"errors"
	"fmt"

	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
	"github.com/zeusync/viewsync/internal/core/view"
)

const (
	TilesetOptionImage = iota
	TilesetOptionNumColumns
	TilesetOptionNumRows
	TilesetOptionPadding
)

const (
	TilemapTilesOptionImage = iota
	TilemapTilesOptionNumColumns
	TilemapTilesOptionNumRows
	TilemapTilesOptionTilesetColumns
	TilemapTilesOptionTilesetRows
	TilemapTilesOptionTilesetIDs
)

const (
	TilemapOptionTiles = iota
	TilemapOptionColliders
	TilemapOptionTilesets
)

const (
	TileSpriteOptionMaterial = iota
	TileSpriteOptionTileset
	TileSpriteOptionTilesetColumn
	TileSpriteOptionTilesetRow
)

const (
	TilemapSpriteOptionMaterial = iota
	TilemapSpriteOptionTilemap
)

var (
	ErrInvalidTileset      = errors.New("tileset needs at least one column and row")
	ErrInvalidTilemapTiles = errors.New("tilemap tiles are neither an image definition nor a configuration definition")
)

type TilesetHandle struct {
	Image      *ImageHandle
	NumColumns int
	NumRows    int
	Padding    int
}

// Tile addresses one cell of a tileset.
type Tile struct {
	Column  byte
	Row     byte
	Tileset byte
}

// TilemapTilesHandle holds either an image to decode tiles from, or the
// tiles themselves in row-major order.
type TilemapTilesHandle struct {
	Image      *ImageHandle
	NumColumns int
	NumRows    int
	Tiles      []Tile
}

// At returns the tile of a cell in a configuration definition.
func (h *TilemapTilesHandle) At(column, row int) (Tile, bool) {
	if h.Image != nil || column < 0 || row < 0 || column >= h.NumColumns || row >= h.NumRows {
		return Tile{}, false
	}
	return h.Tiles[row*h.NumColumns+column], true
}

type TilemapHandle struct {
	Tiles     *TilemapTilesHandle
	Colliders *TilemapCollidersHandle
	Tilesets  []*TilesetHandle
}

type TileSpriteHandle struct {
	Material *MaterialHandle
	Tileset  *TilesetHandle
	Column   int
	Row      int
}

type TilemapSpriteHandle struct {
	Material *MaterialHandle
	Tilemap  *TilemapHandle
}

func tilesetType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeTileset,
		Options: []view.Option{
			{Name: "image", Kind: fields.KindEntityRef, Target: registry.TypeImage},
			{Name: "num_columns", Kind: fields.KindInt, Default: fields.Int(1)},
			{Name: "num_rows", Kind: fields.KindInt, Default: fields.Int(1)},
			{Name: "padding", Kind: fields.KindInt},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				columns, rows := c.Int(TilesetOptionNumColumns), c.Int(TilesetOptionNumRows)
				if columns < 1 || rows < 1 {
					return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidTileset, columns, rows)
				}
				image, _ := c.DependencyHandle(TilesetOptionImage).(*ImageHandle)
				return &TilesetHandle{
					Image:      image,
					NumColumns: int(columns),
					NumRows:    int(rows),
					Padding:    int(c.Int(TilesetOptionPadding)),
				}, nil
			},
		},
	}
}

func tilemapTilesType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeTilemapTiles,
		Options: []view.Option{
			{Name: "image", Kind: fields.KindEntityRef, Target: registry.TypeImage, Optional: true},
			{Name: "num_columns", Kind: fields.KindInt, Optional: true},
			{Name: "num_rows", Kind: fields.KindInt, Optional: true},
			{Name: "tileset_columns", Kind: fields.KindBytes, Optional: true, LiveUpdate: true},
			{Name: "tileset_rows", Kind: fields.KindBytes, Optional: true, LiveUpdate: true},
			{Name: "tileset_ids", Kind: fields.KindBytes, Optional: true, LiveUpdate: true},
		},
		Behavior: view.Funcs{
			ActivateFunc: activateTilemapTiles,
			UpdateFunc: func(c *view.Component, _ int, _ fields.Value) {
				h := c.Handle().(*TilemapTilesHandle)
				if h.Image == nil {
					h.Tiles = decodeTiles(c, h.NumColumns*h.NumRows)
				}
			},
		},
	}
}

func activateTilemapTiles(c *view.Component) (any, error) {
	isImage := c.IsSet(TilemapTilesOptionImage)
	isConfiguration := true
	for option := TilemapTilesOptionNumColumns; option <= TilemapTilesOptionTilesetIDs; option++ {
		isConfiguration = isConfiguration && c.IsSet(option)
	}
	if isImage == isConfiguration {
		return nil, ErrInvalidTilemapTiles
	}

	if isImage {
		image, _ := c.DependencyHandle(TilemapTilesOptionImage).(*ImageHandle)
		return &TilemapTilesHandle{Image: image}, nil
	}

	columns, rows := int(c.Int(TilemapTilesOptionNumColumns)), int(c.Int(TilemapTilesOptionNumRows))
	if columns < 1 || rows < 1 {
		return nil, fmt.Errorf("%w: got %dx%d tiles", ErrInvalidTilemapTiles, columns, rows)
	}
	for option := TilemapTilesOptionTilesetColumns; option <= TilemapTilesOptionTilesetIDs; option++ {
		if n := len(c.Bytes(option)); n < columns*rows {
			return nil, fmt.Errorf("%w: %s holds %d of %d tiles",
				ErrInvalidTilemapTiles, c.Type().Options[option].Name, n, columns*rows)
		}
	}
	return &TilemapTilesHandle{
		NumColumns: columns,
		NumRows:    rows,
		Tiles:      decodeTiles(c, columns*rows),
	}, nil
}

// decodeTiles zips the three byte planes. Short planes leave the remaining
// tiles zeroed.
func decodeTiles(c *view.Component, n int) []Tile {
	columns := c.Bytes(TilemapTilesOptionTilesetColumns)
	rows := c.Bytes(TilemapTilesOptionTilesetRows)
	ids := c.Bytes(TilemapTilesOptionTilesetIDs)
	tiles := make([]Tile, n)
	for i := range tiles {
		if i < len(columns) {
			tiles[i].Column = columns[i]
		}
		if i < len(rows) {
			tiles[i].Row = rows[i]
		}
		if i < len(ids) {
			tiles[i].Tileset = ids[i]
		}
	}
	return tiles
}

func tilemapType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeTilemap,
		Options: []view.Option{
			{Name: "tiles", Kind: fields.KindEntityRef, Target: registry.TypeTilemapTiles},
			{Name: "colliders", Kind: fields.KindEntityRef, Target: registry.TypeTilemapColliders, Optional: true},
			{Name: "tilesets", Kind: fields.KindEntityRefList, Target: registry.TypeTileset},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				h := &TilemapHandle{}
				h.Colliders, _ = c.DependencyHandle(TilemapOptionColliders).(*TilemapCollidersHandle)
				h.Tiles, _ = c.DependencyHandle(TilemapOptionTiles).(*TilemapTilesHandle)
				for _, dep := range c.DependencyHandles(TilemapOptionTilesets) {
					h.Tilesets = append(h.Tilesets, dep.(*TilesetHandle))
				}
				return h, nil
			},
		},
	}
}

func tileSpriteType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeTileSprite,
		Options: []view.Option{
			{Name: "material", Kind: fields.KindEntityRef, Target: registry.TypeMaterial},
			{Name: "tileset", Kind: fields.KindEntityRef, Target: registry.TypeTileset},
			{Name: "tileset_column", Kind: fields.KindInt, LiveUpdate: true},
			{Name: "tileset_row", Kind: fields.KindInt, LiveUpdate: true},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				h := &TileSpriteHandle{
					Column: int(c.Int(TileSpriteOptionTilesetColumn)),
					Row:    int(c.Int(TileSpriteOptionTilesetRow)),
				}
				h.Material, _ = c.DependencyHandle(TileSpriteOptionMaterial).(*MaterialHandle)
				h.Tileset, _ = c.DependencyHandle(TileSpriteOptionTileset).(*TilesetHandle)
				return h, nil
			},
			UpdateFunc: func(c *view.Component, option int, _ fields.Value) {
				h := c.Handle().(*TileSpriteHandle)
				switch option {
				case TileSpriteOptionTilesetColumn:
					h.Column = int(c.Int(option))
				case TileSpriteOptionTilesetRow:
					h.Row = int(c.Int(option))
				}
			},
		},
	}
}

func tilemapSpriteType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeTilemapSprite,
		Options: []view.Option{
			{Name: "material", Kind: fields.KindEntityRef, Target: registry.TypeMaterial},
			{Name: "tilemap", Kind: fields.KindEntityRef, Target: registry.TypeTilemap},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				h := &TilemapSpriteHandle{}
				h.Material, _ = c.DependencyHandle(TilemapSpriteOptionMaterial).(*MaterialHandle)
				h.Tilemap, _ = c.DependencyHandle(TilemapSpriteOptionTilemap).(*TilemapHandle)
				return h, nil
			},
		},
	}
}
