package components

import (
	"maps"
	"slices"

	"github.com/zeusync/viewsync/internal/core/models"
)

// Scene receives the handles that become visible or go away. It is the
// boundary to the renderer.
type Scene interface {
	AddModel(entity models.EntityID, model *ModelHandle)
	RemoveModel(entity models.EntityID)
	AddLight(entity models.EntityID, light *LightHandle)
	RemoveLight(entity models.EntityID)
	AddSprite(entity models.EntityID, sprite *SpriteHandle)
	RemoveSprite(entity models.EntityID)
	AddAnimation(entity models.EntityID, animation *TileSpriteAnimationHandle)
	RemoveAnimation(entity models.EntityID)
}

type NopScene struct{}

func (NopScene) AddModel(models.EntityID, *ModelHandle)   {}
func (NopScene) RemoveModel(models.EntityID)              {}
func (NopScene) AddLight(models.EntityID, *LightHandle)   {}
func (NopScene) RemoveLight(models.EntityID)              {}
func (NopScene) AddSprite(models.EntityID, *SpriteHandle) {}
func (NopScene) RemoveSprite(models.EntityID)             {}

func (NopScene) AddAnimation(models.EntityID, *TileSpriteAnimationHandle) {}
func (NopScene) RemoveAnimation(models.EntityID)                          {}

// SceneGraph is an in-memory Scene. The frame loop reads it to draw.
type SceneGraph struct {
	Models  map[models.EntityID]*ModelHandle
	Lights  map[models.EntityID]*LightHandle
	Sprites map[models.EntityID]*SpriteHandle
	// Animations are advanced once per frame by Animate.
	Animations map[models.EntityID]*TileSpriteAnimationHandle
	// Hidden models are kept but not reported by VisibleModels.
	Hidden map[models.EntityID]bool
}

func NewSceneGraph() *SceneGraph {
	return &SceneGraph{
		Models:     make(map[models.EntityID]*ModelHandle),
		Lights:     make(map[models.EntityID]*LightHandle),
		Sprites:    make(map[models.EntityID]*SpriteHandle),
		Animations: make(map[models.EntityID]*TileSpriteAnimationHandle),
		Hidden:     make(map[models.EntityID]bool),
	}
}

func (s *SceneGraph) AddModel(entity models.EntityID, model *ModelHandle) { s.Models[entity] = model }
func (s *SceneGraph) RemoveModel(entity models.EntityID)                  { delete(s.Models, entity) }
func (s *SceneGraph) AddLight(entity models.EntityID, light *LightHandle) { s.Lights[entity] = light }
func (s *SceneGraph) RemoveLight(entity models.EntityID)                  { delete(s.Lights, entity) }
func (s *SceneGraph) AddSprite(entity models.EntityID, sprite *SpriteHandle) {
	s.Sprites[entity] = sprite
}
func (s *SceneGraph) RemoveSprite(entity models.EntityID) { delete(s.Sprites, entity) }
func (s *SceneGraph) AddAnimation(entity models.EntityID, animation *TileSpriteAnimationHandle) {
	s.Animations[entity] = animation
}
func (s *SceneGraph) RemoveAnimation(entity models.EntityID) { delete(s.Animations, entity) }

// Animate advances every animation and returns how many changed frame.
func (s *SceneGraph) Animate() int {
	changed := 0
	for _, animation := range s.Animations {
		if animation.Animate() {
			changed++
		}
	}
	return changed
}

// VisibleModels lists the entities of visible, non hidden models, sorted.
func (s *SceneGraph) VisibleModels() []models.EntityID {
	var out []models.EntityID
	for _, id := range slices.Sorted(maps.Keys(s.Models)) {
		if s.Models[id].Visible && !s.Hidden[id] {
			out = append(out, id)
		}
	}
	return out
}
