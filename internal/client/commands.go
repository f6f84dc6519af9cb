package client

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
)

// sendCommand addresses a command to the bootstrap entity and remembers it
// until the response arrives.
func (c *Client) sendCommand(kind protocol.CommandKind, position, direction mgl32.Vec3) (uuid.UUID, error) {
	req := protocol.Command{
		RequestID: uuid.New(),
		Target:    c.config.BootstrapEntity,
		Command:   kind,
		Entity:    c.clientEntity,
		Position:  position,
		Direction: direction,
	}
	if err := c.conn.Send(req); err != nil {
		return uuid.Nil, err
	}
	c.commands[req.RequestID] = kind
	c.logger.Debug("Sent command",
		log.String("command", kind.String()),
		log.String("request_id", req.RequestID.String()),
	)
	return req.RequestID, nil
}

// SpawnCube asks for a cube at the player position, thrown along the
// controller frame direction.
func (c *Client) SpawnCube() (uuid.UUID, error) {
	position, ok := c.Position()
	if !ok {
		return uuid.Nil, ErrNoClientEntity
	}
	return c.sendCommand(protocol.CommandSpawnCube, position, c.config.ControllerFrameDirection)
}

// DigHole asks for the tile under the player to be removed.
func (c *Client) DigHole() (uuid.UUID, error) {
	position, ok := c.Position()
	if !ok {
		return uuid.Nil, ErrNoClientEntity
	}
	return c.sendCommand(protocol.CommandDigHole, position, mgl32.Vec3{})
}

// Interact is the primary action of the current game type.
func (c *Client) Interact() (uuid.UUID, error) {
	if c.config.GameType == GameTypeTiles {
		return c.DigHole()
	}
	return c.SpawnCube()
}

// SetViewDirection changes the direction cubes are spawned in.
func (c *Client) SetViewDirection(direction mgl32.Vec3) {
	c.config.ControllerFrameDirection = direction
}

func (c *Client) DeleteEntity(entity models.EntityID) (uuid.UUID, error) {
	req := protocol.DeleteEntity{RequestID: uuid.New(), Entity: entity}
	if err := c.conn.Send(req); err != nil {
		return uuid.Nil, err
	}
	c.commands[req.RequestID] = protocol.CommandDeleteEntity
	return req.RequestID, nil
}

// PendingCommands is the number of commands without a response.
func (c *Client) PendingCommands() int {
	return len(c.commands)
}

func (c *Client) onCommandResponse(op protocol.CommandResponse) {
	kind, ok := c.commands[op.RequestID]
	if !ok {
		c.logger.Debug("Response to unknown request", log.String("request_id", op.RequestID.String()))
		kind = op.Command
	}
	delete(c.commands, op.RequestID)

	fields := []log.Field{
		log.String("command", kind.String()),
		log.Int64("entity", int64(op.Entity)),
	}
	if !op.Success {
		c.logger.Error("Command failed", append(fields, log.String("message", op.Message))...)
		return
	}
	if kind == protocol.CommandCreateClientEntity {
		c.logger.Info("Created client entity", fields...)
		return
	}
	c.logger.Debug("Command succeeded", fields...)
}
