package client

import (
	"fmt"

	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
)

func (c *Client) onAuthorityChange(op protocol.AuthorityChange) error {
	var types []string
	if op.Set != 0 {
		set, err := c.table.Set(op.Set)
		if err != nil {
			return err
		}
		types = set
	} else {
		entry, err := c.table.Resolve(op.Component)
		if err != nil {
			c.logger.Warn("Ignoring authority over unknown component",
				log.Uint32("component", uint32(op.Component)),
				log.Int64("entity", int64(op.Entity)),
			)
			return nil
		}
		types = []string{entry.Type}
	}

	for _, typeID := range types {
		c.setAuthority(op.Entity, typeID, op.Authoritative)
	}

	if op.Set == registry.SetClientPlayerAuthority {
		c.improbablePositionAuthoritative = op.Authoritative
		c.dependenciesChanged = true
		msg := "Lost authority over client player"
		if op.Authoritative {
			msg = "Gained authority over client player"
		}
		c.logger.Info(msg, log.Int64("entity", int64(op.Entity)))
	}
	return nil
}

func (c *Client) setAuthority(entity models.EntityID, typeID string, authoritative bool) {
	switch typeID {
	case registry.TypeClient:
		if authoritative {
			if c.clientEntity != 0 && c.clientEntity != entity {
				c.logger.Warn("Client entity changed",
					log.Int64("previous", int64(c.clientEntity)),
					log.Int64("entity", int64(entity)),
				)
			}
			c.clientEntity = entity
			c.dependenciesChanged = true
			c.startPing()
		} else if entity == c.clientEntity {
			c.stopPing()
			c.clientEntity = 0
		}
	case registry.TypeInterest:
		c.interestAuthoritative = authoritative
		if authoritative {
			c.dependenciesChanged = true
			c.interestSent = false
		}
	case registry.TypeImprobablePosition:
		c.improbablePositionAuthoritative = authoritative
	}

	entry, ok := c.entry(typeID)
	if !ok || !entry.Mirrored {
		return
	}
	if authoritative {
		c.view.Delegate(entity, typeID)
	} else {
		c.view.Undelegate(entity, typeID)
	}
}

func (c *Client) entry(typeID string) (registry.Entry, bool) {
	id, ok := c.table.ComponentID(typeID)
	if !ok {
		return registry.Entry{}, false
	}
	entry, err := c.table.Resolve(id)
	return entry, err == nil
}

func (c *Client) componentID(typeID string) (models.ComponentID, error) {
	id, ok := c.table.ComponentID(typeID)
	if !ok {
		return 0, fmt.Errorf("no wire id for component type %s", typeID)
	}
	return id, nil
}
