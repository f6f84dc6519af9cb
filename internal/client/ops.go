package client

import (
	"errors"

	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
	"github.com/zeusync/viewsync/internal/core/view"
)

const (
	metadataEntityType = "entity_type"
	lastUpdatedTime    = "last_updated_time"
)

func (c *Client) apply(op protocol.Op) {
	c.stats.OpsApplied++
	var err error
	switch op := op.(type) {
	case protocol.AddEntity:
		err = c.view.AddEntity(op.Entity)
	case protocol.RemoveEntity:
		err = c.onRemoveEntity(op)
	case protocol.AddComponent:
		err = c.onAddComponent(op)
	case protocol.UpdateComponent:
		err = c.onUpdateComponent(op)
	case protocol.RemoveComponent:
		err = c.onRemoveComponent(op)
	case protocol.AuthorityChange:
		err = c.onAuthorityChange(op)
	case protocol.FlagUpdate:
		c.onFlagUpdate(op)
	case protocol.Metrics:
		c.onMetrics(op)
	case protocol.CommandResponse:
		c.onCommandResponse(op)
	case protocol.LogMessage:
		c.onLogMessage(op)
	case protocol.Disconnect:
		c.logger.Info("Disconnected", log.String("reason", op.Reason))
		c.disconnected = true
	default:
		c.logger.Warn("Ignoring unexpected op", log.String("type", string(op.Type())))
	}
	if err != nil {
		c.stats.OpErrors++
		c.logger.Warn("Failed to apply op", log.String("type", string(op.Type())), log.Error(err))
	}
}

func (c *Client) onRemoveEntity(op protocol.RemoveEntity) error {
	if op.Entity == c.clientEntity && c.clientEntity != 0 {
		c.logger.Warn("Client entity removed", log.Int64("entity", int64(op.Entity)))
		c.stopPing()
		c.clientEntity = 0
		c.interestAuthoritative = false
		c.improbablePositionAuthoritative = false
	}
	return c.view.RemoveEntity(op.Entity)
}

// resolve maps a wire id to its entry. Unknown ids are logged and yield ok
// false; they are not op errors.
func (c *Client) resolve(id models.ComponentID, entity models.EntityID) (registry.Entry, bool) {
	entry, err := c.table.Resolve(id)
	if err != nil {
		c.logger.Warn("Ignoring unknown component",
			log.Uint32("component", uint32(id)),
			log.Int64("entity", int64(entity)),
		)
		return registry.Entry{}, false
	}
	return entry, true
}

func (c *Client) onAddComponent(op protocol.AddComponent) error {
	entry, ok := c.resolve(op.Component, op.Entity)
	if !ok {
		return nil
	}
	if !entry.Mirrored {
		c.onSpecialComponent(op.Entity, entry.Type, op.Fields)
		return nil
	}

	t, ok := c.view.ComponentType(entry.Type)
	if !ok {
		return view.ErrUnknownType
	}
	assignments := make([]view.Assignment, 0, len(op.Fields))
	for _, f := range op.Fields {
		option, ok := t.OptionIndex(f.Name)
		if !ok {
			c.logger.Warn("Ignoring unknown option",
				log.String("type", entry.Type),
				log.String("option", f.Name),
			)
			continue
		}
		assignments = append(assignments, view.Assignment{Option: option, Value: f.Value})
	}
	_, err := c.view.AddComponent(op.Entity, entry.Type, assignments...)
	return err
}

func (c *Client) onUpdateComponent(op protocol.UpdateComponent) error {
	entry, ok := c.resolve(op.Component, op.Entity)
	if !ok {
		return nil
	}
	if !entry.Mirrored {
		c.onSpecialComponent(op.Entity, entry.Type, op.Fields)
		return nil
	}

	t, ok := c.view.ComponentType(entry.Type)
	if !ok {
		return view.ErrUnknownType
	}
	updates := make([]protocol.Field, 0, len(op.Fields)+len(op.Cleared))
	updates = append(updates, op.Fields...)
	for _, name := range op.Cleared {
		updates = append(updates, protocol.Field{Name: name, Value: fields.Cleared{}})
	}

	var errs []error
	for _, f := range updates {
		option, ok := t.OptionIndex(f.Name)
		if !ok {
			c.logger.Warn("Ignoring unknown option",
				log.String("type", entry.Type),
				log.String("option", f.Name),
			)
			continue
		}
		err := c.view.ApplyRemoteUpdate(op.Entity, entry.Type, option, f.Value)
		if errors.Is(err, view.ErrAuthorityHazard) {
			c.logger.Warn("Dropped update for authoritative component",
				log.String("type", entry.Type),
				log.Int64("entity", int64(op.Entity)),
				log.String("option", f.Name),
			)
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Client) onRemoveComponent(op protocol.RemoveComponent) error {
	entry, ok := c.resolve(op.Component, op.Entity)
	if !ok || !entry.Mirrored {
		return nil
	}
	return c.view.RemoveComponent(op.Entity, entry.Type)
}

// onSpecialComponent handles the runtime components the client reads
// itself instead of mirroring.
func (c *Client) onSpecialComponent(entity models.EntityID, typeID string, values []protocol.Field) {
	fm := protocol.FieldMap(values)
	switch typeID {
	case registry.TypeMetadata:
		tag, ok := fm[metadataEntityType].(fields.String)
		if !ok {
			return
		}
		if err := c.view.SetEntityType(entity, string(tag)); err != nil {
			c.logger.Warn("Failed to set entity type", log.Int64("entity", int64(entity)), log.Error(err))
		}
	case registry.TypeHeartbeatPong:
		c.onPong(entity, fm)
	default:
		c.logger.Debug("Ignoring runtime component",
			log.String("type", typeID),
			log.Int64("entity", int64(entity)),
		)
	}
}

func (c *Client) onFlagUpdate(op protocol.FlagUpdate) {
	if op.Value == "" {
		delete(c.flags, op.Name)
	} else {
		c.flags[op.Name] = op.Value
	}

	applied, err := c.config.ApplyFlag(op.Name, op.Value)
	if err != nil {
		c.logger.Warn("Invalid worker flag", log.String("flag", op.Name), log.String("value", op.Value), log.Error(err))
		return
	}
	if !applied {
		c.logger.Debug("Worker flag", log.String("flag", op.Name), log.String("value", op.Value))
		return
	}
	c.logger.Info("Applied worker flag", log.String("flag", op.Name), log.String("value", op.Value))

	switch op.Name {
	case "absolute_interest":
		c.absoluteInterest = c.config.AbsoluteInterest
		c.dependenciesChanged = true
	case "view_distance":
		c.dependenciesChanged = true
	case "hide_player_client_entity_model":
		c.refreshHiddenModel()
	}
}

// onLogMessage relays a runtime log line. Fatal lines are logged as errors
// so the runtime cannot stop the process.
func (c *Client) onLogMessage(op protocol.LogMessage) {
	level, err := log.ParseLevel(op.Level)
	if err != nil {
		level = log.LevelInfo
	}
	if level > log.LevelError {
		level = log.LevelError
	}
	c.logger.Log(level, op.Message, log.String("source", "runtime"), log.String("logger", op.Logger))
}
