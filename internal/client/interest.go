package client

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/viewsync/internal/core/interest"
	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
)

// edgeHysteresis is how far the viewer must climb or descend before the
// relative box is resized.
const edgeHysteresis = 0.5

func (c *Client) updateEdgeLength(position mgl32.Vec3) {
	if c.absoluteInterest {
		return
	}
	if mgl32.Abs(position.Y()-c.lastInterestY) < edgeHysteresis {
		return
	}
	c.edgeLength = interest.EdgeLength(position.Y())
	c.lastInterestY = position.Y()
	c.dependenciesChanged = true
}

func (c *Client) policy(position mgl32.Vec3) interest.Policy {
	return interest.Policy{
		Absolute:     c.absoluteInterest,
		Position:     position,
		ViewDistance: max(c.edgeLength, c.config.ViewDistance),
	}
}

// updateInterest derives the queries and sends them unless they equal the
// last declaration.
func (c *Client) updateInterest(position mgl32.Vec3) {
	if c.clientEntity == 0 {
		c.logger.Debug("No client entity yet, interest deferred")
		c.interestPending = true
		return
	}
	queries := c.deriver.Derive(c.view, c.policy(position))
	fingerprint := interest.Fingerprint(queries)
	if c.interestSent && fingerprint == c.lastFingerprint {
		c.logger.Debug("Interest unchanged", log.Int("queries", len(queries)))
		c.interestPending = false
		return
	}

	update := protocol.InterestUpdate{Entity: c.clientEntity, Queries: make([]protocol.InterestQuery, 0, len(queries))}
	for _, q := range queries {
		update.Queries = append(update.Queries, c.wireQuery(q))
	}
	if err := c.conn.Send(update); err != nil {
		c.logger.Warn("Failed to send interest update", log.Error(err))
		c.interestPending = true
		return
	}
	c.interestPending = false
	c.lastFingerprint = fingerprint
	c.interestSent = true
	c.stats.InterestUpdates++
	c.logger.Info("Sent interest update",
		log.Int("queries", len(queries)),
		log.Bool("absolute", c.absoluteInterest),
		log.Float32("edge_length", c.policy(position).Edge()),
	)
}

func (c *Client) wireQuery(q interest.Query) protocol.InterestQuery {
	wq := protocol.InterestQuery{
		Constraint: q.Constraint.Kind.String(),
		Components: make([]models.ComponentID, 0, len(q.Types)),
	}
	switch q.Constraint.Kind {
	case interest.ConstraintEntity:
		wq.Entity = q.Constraint.Entity
	case interest.ConstraintBox:
		center, extent := q.Constraint.Center, q.Constraint.Extent
		wq.Center, wq.Extent = &center, &extent
	case interest.ConstraintRelativeBox:
		extent := q.Constraint.Extent
		wq.Extent = &extent
	}
	for _, t := range q.Types {
		// The deriver drops types without a wire id.
		if id, ok := c.table.ComponentID(t); ok {
			wq.Components = append(wq.Components, id)
		}
	}
	return wq
}

// ToggleAbsoluteInterest switches between a box following the viewer and a
// box fixed at the current position, and declares the new interest.
func (c *Client) ToggleAbsoluteInterest() {
	c.absoluteInterest = !c.absoluteInterest
	c.config.AbsoluteInterest = c.absoluteInterest
	c.logger.Info("Toggled interest mode", log.Bool("absolute", c.absoluteInterest))

	position := c.WorldPosition()
	c.updateEdgeLength(position)
	if !c.interestAuthoritative {
		c.interestPending = true
		return
	}
	c.updateInterest(position)
}
