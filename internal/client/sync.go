package client

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/viewsync/internal/core/components"
	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
	"github.com/zeusync/viewsync/internal/core/view"
)

// improbableThreshold is the squared distance the player moves before the
// runtime's own position component is updated.
const improbableThreshold = 1.0

var ErrNoClientEntity = errors.New("no client entity")

// SynchronizeUpdate sends a local write of an authoritative option.
func (c *Client) SynchronizeUpdate(comp *view.Component, option int, value fields.Value) error {
	id, err := c.componentID(comp.Type().ID)
	if err != nil {
		return err
	}
	update := protocol.ComponentUpdate{Entity: comp.Entity(), Component: id}
	name := comp.Type().Options[option].Name
	if fields.IsCleared(value) {
		update.Cleared = []string{name}
	} else {
		update.Fields = []protocol.Field{{Name: name, Value: value}}
	}
	if err := c.conn.Send(update); err != nil {
		return fmt.Errorf("send %s update: %w", comp.Key(), err)
	}

	if comp.Type().ID == registry.TypePosition && option == components.PositionOptionCoordinates {
		if coords, ok := value.(fields.Vec3); ok {
			c.syncImprobablePosition(comp, mgl32.Vec3(coords))
		}
	}
	return nil
}

// syncImprobablePosition mirrors the player's position into the runtime
// position used for spatial queries, in world coordinates.
func (c *Client) syncImprobablePosition(comp *view.Component, local mgl32.Vec3) {
	if !c.improbablePositionAuthoritative || comp.Entity() != c.clientEntity {
		return
	}
	world := c.config.Mapping().Apply(local)
	delta := world.Sub(c.lastImprobablePosition)
	if delta.Dot(delta) <= improbableThreshold {
		return
	}
	id, err := c.componentID(registry.TypeImprobablePosition)
	if err != nil {
		c.logger.Error("Cannot update runtime position", log.Error(err))
		return
	}
	err = c.conn.Send(protocol.ComponentUpdate{
		Entity:    c.clientEntity,
		Component: id,
		Fields:    []protocol.Field{{Name: "coords", Value: fields.Vec3(world)}},
	})
	if err != nil {
		c.logger.Warn("Failed to send runtime position", log.Error(err))
		return
	}
	c.lastImprobablePosition = world
}

func (c *Client) clientComponent() (*view.Component, bool) {
	if c.clientEntity == 0 {
		return nil, false
	}
	return c.view.Component(c.clientEntity, registry.TypeClient)
}

// positionComponent is the position the client component follows, or the
// position on the client entity while the client component is incomplete.
func (c *Client) positionComponent() (*view.Component, bool) {
	if client, ok := c.clientComponent(); ok {
		if pos, ok := client.Dependency(components.ClientOptionPosition); ok {
			return pos, true
		}
		if id, ok := client.EntityRef(components.ClientOptionPosition); ok {
			if pos, ok := c.view.Component(id, registry.TypePosition); ok {
				return pos, true
			}
		}
	}
	if c.clientEntity == 0 {
		return nil, false
	}
	return c.view.Component(c.clientEntity, registry.TypePosition)
}

// Position is the player position in local coordinates.
func (c *Client) Position() (mgl32.Vec3, bool) {
	pos, ok := c.positionComponent()
	if !ok || !pos.IsSet(components.PositionOptionCoordinates) {
		return mgl32.Vec3{}, false
	}
	return pos.Vec3(components.PositionOptionCoordinates), true
}

// WorldPosition is the player position in runtime coordinates, or the
// origin before the player exists.
func (c *Client) WorldPosition() mgl32.Vec3 {
	local, _ := c.Position()
	return c.config.Mapping().Apply(local)
}

// MoveTo writes the player position in local coordinates.
func (c *Client) MoveTo(local mgl32.Vec3) error {
	pos, ok := c.positionComponent()
	if !ok {
		return ErrNoClientEntity
	}
	return c.view.RequestUpdate(pos, components.PositionOptionCoordinates, fields.Vec3(local))
}

// Rotate writes the player rotation.
func (c *Client) Rotate(rotation mgl32.Vec3) error {
	client, ok := c.clientComponent()
	if !ok {
		return ErrNoClientEntity
	}
	return c.view.RequestUpdate(client, components.ClientOptionRotation, fields.Vec3(rotation))
}

// refreshHiddenModel keeps the player's own model out of the scene while
// hide_player_client_entity_model is set.
func (c *Client) refreshHiddenModel() {
	if c.scene == nil {
		return
	}
	var (
		model models.EntityID
		hide  bool
	)
	if client, ok := c.clientComponent(); ok && client.IsActive() && c.config.HidePlayerClientEntityModel {
		model, hide = client.EntityRef(components.ClientOptionModel)
	}
	if c.hasHiddenModel && (!hide || c.hiddenModel != model) {
		delete(c.scene.Hidden, c.hiddenModel)
		c.hasHiddenModel = false
	}
	if hide {
		c.scene.Hidden[model] = true
		c.hiddenModel, c.hasHiddenModel = model, true
	}
}
