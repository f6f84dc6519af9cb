// Package components defines the component types mirrored by the client
// and the handles their activation produces for the renderer.
package components

import (
	"github.com/zeusync/viewsync/internal/core/view"
)

// Catalog builds the component types and routes activated handles to the
// scene.
type Catalog struct {
	scene Scene
}

func NewCatalog(scene Scene) *Catalog {
	if scene == nil {
		scene = NopScene{}
	}
	return &Catalog{scene: scene}
}

// Types returns fresh definitions of every component type.
func (c *Catalog) Types() []*view.ComponentType {
	return []*view.ComponentType{
		positionType(),
		clientType(),
		resourceType(),
		imageType(),
		textureType(),
		samplerType(),
		canvasType(),
		drawableType(),
		materialType(),
		modelType(c.scene),
		lightType(c.scene),
		tilesetType(),
		tilemapTilesType(),
		tilemapType(),
		spriteType(c.scene),
		tileSpriteType(),
		tileSpriteAnimationType(c.scene),
		tilemapCollidersType(),
		tilemapSpriteType(),
		textType(),
	}
}

// Register adds every component type to the view.
func (c *Catalog) Register(v *view.View) error {
	for _, t := range c.Types() {
		if err := v.RegisterType(t); err != nil {
			return err
		}
	}
	return nil
}
