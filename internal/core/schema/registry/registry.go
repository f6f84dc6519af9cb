// Package registry is the fixed lookup table between the runtime's numeric
// component ids and the local component type ids.
package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zeusync/viewsync/internal/core/models"
)

// Local component types.
const (
	TypePosition            = "position"
	TypeClient              = "client"
	TypeResource            = "resource"
	TypeImage               = "image"
	TypeTexture             = "texture"
	TypeSampler             = "sampler"
	TypeTileset             = "tileset"
	TypeTilemapTiles        = "tilemap_tiles"
	TypeTilemap             = "tilemap"
	TypeTilemapSprite       = "tilemap_sprite"
	TypeSprite              = "sprite"
	TypeTileSprite          = "tile_sprite"
	TypeTileSpriteAnimation = "tile_sprite_animation"
	TypeTilemapColliders    = "tilemap_colliders"
	TypeCanvas              = "canvas"
	TypeDrawable            = "drawable"
	TypeMaterial            = "material"
	TypeModel               = "model"
	TypeLight               = "light"
	TypeText                = "text"
)

// Runtime components that are interpreted by the client itself instead of
// being mirrored into the view.
const (
	TypeAccessControl      = "access_control"
	TypeMetadata           = "metadata"
	TypeImprobablePosition = "improbable_position"
	TypeInterest           = "interest"
	TypeBootstrap          = "bootstrap"
	TypeClientInfo         = "client_info"
	TypeHeartbeatPing      = "client_heartbeat_ping"
	TypeHeartbeatPong      = "client_heartbeat_pong"
)

// Component sets.
const (
	SetClientPlayerAuthority       models.ComponentSetID = 1100
	SetClientPlayerSpatialInterest models.ComponentSetID = 1101
)

var (
	ErrUnknownComponent = errors.New("unknown component id")
	ErrUnknownSet       = errors.New("unknown component set id")
	ErrDuplicateEntry   = errors.New("component id already registered")
)

// Entry is one row of the table.
type Entry struct {
	ID   models.ComponentID
	Type string
	// Mirrored is true for components that live in the view. The others are
	// handled directly by the client loop.
	Mirrored bool
}

// Table maps component ids to types and back.
type Table struct {
	byID   map[models.ComponentID]Entry
	byType map[string]Entry
	sets   map[models.ComponentSetID][]string
}

func New() *Table {
	return &Table{
		byID:   make(map[models.ComponentID]Entry),
		byType: make(map[string]Entry),
		sets:   make(map[models.ComponentSetID][]string),
	}
}

// Default returns the table for the shipped schema.
func Default() *Table {
	t := New()
	for _, e := range []Entry{
		{ID: 50, Type: TypeAccessControl},
		{ID: 53, Type: TypeMetadata},
		{ID: 54, Type: TypeImprobablePosition},
		{ID: 58, Type: TypeInterest},
		{ID: 1334, Type: TypeBootstrap},
		{ID: 133742, Type: TypeClientInfo},
		{ID: 13351, Type: TypeHeartbeatPing},
		{ID: 13352, Type: TypeHeartbeatPong},
		{ID: 5454, Type: TypePosition, Mirrored: true},
		{ID: 1335, Type: TypeClient, Mirrored: true},
		{ID: 1337, Type: TypeResource, Mirrored: true},
		{ID: 13377, Type: TypeImage, Mirrored: true},
		{ID: 1338, Type: TypeTexture, Mirrored: true},
		{ID: 13381, Type: TypeSampler, Mirrored: true},
		{ID: 1339, Type: TypeTileset, Mirrored: true},
		{ID: 1340, Type: TypeTilemapTiles, Mirrored: true},
		{ID: 1341, Type: TypeTilemap, Mirrored: true},
		{ID: 13421, Type: TypeTilemapSprite, Mirrored: true},
		{ID: 13422, Type: TypeSprite, Mirrored: true},
		{ID: 1342, Type: TypeTileSprite, Mirrored: true},
		{ID: 1343, Type: TypeTileSpriteAnimation, Mirrored: true},
		{ID: 134132, Type: TypeTilemapColliders, Mirrored: true},
		{ID: 1344, Type: TypeCanvas, Mirrored: true},
		{ID: 1346, Type: TypeDrawable, Mirrored: true},
		{ID: 1347, Type: TypeMaterial, Mirrored: true},
		{ID: 1348, Type: TypeModel, Mirrored: true},
		{ID: 1349, Type: TypeLight, Mirrored: true},
		{ID: 1353, Type: TypeText, Mirrored: true},
	} {
		if err := t.Register(e); err != nil {
			panic(err)
		}
	}
	t.RegisterSet(SetClientPlayerAuthority, TypeClient, TypePosition, TypeHeartbeatPing, TypeInterest)
	t.RegisterSet(SetClientPlayerSpatialInterest, TypeLight, TypeModel, TypeSprite, TypeTilemapTiles)
	return t
}

func (t *Table) Register(e Entry) error {
	if _, ok := t.byID[e.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateEntry, e.ID)
	}
	if _, ok := t.byType[e.Type]; ok {
		return fmt.Errorf("%w: type %s", ErrDuplicateEntry, e.Type)
	}
	t.byID[e.ID] = e
	t.byType[e.Type] = e
	return nil
}

// Resolve looks up a numeric id.
func (t *Table) Resolve(id models.ComponentID) (Entry, error) {
	e, ok := t.byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %d", ErrUnknownComponent, id)
	}
	return e, nil
}

// ComponentID returns the numeric id of a type.
func (t *Table) ComponentID(typeID string) (models.ComponentID, bool) {
	e, ok := t.byType[typeID]
	return e.ID, ok
}

func (t *Table) RegisterSet(id models.ComponentSetID, types ...string) {
	t.sets[id] = slices.Clone(types)
}

// Set returns the types delegated together under a component set id.
func (t *Table) Set(id models.ComponentSetID) ([]string, error) {
	types, ok := t.sets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSet, id)
	}
	return slices.Clone(types), nil
}

// MirroredTypes lists the types that live in the view, sorted.
func (t *Table) MirroredTypes() []string {
	var types []string
	for typeID, e := range t.byType {
		if e.Mirrored {
			types = append(types, typeID)
		}
	}
	slices.Sort(types)
	return types
}
