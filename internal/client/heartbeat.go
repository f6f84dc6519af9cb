package client

import (
	"math"

	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
)

const (
	latencySmoothing   = 0.5
	sincePongHistory   = 0.95
	sincePongSmoothing = 1 - sincePongHistory
)

func (c *Client) startPing() {
	if c.pingTask != nil {
		return
	}
	c.pingTask = c.executor.Schedule("client_ping", c.config.PingInterval, c.ping)
}

func (c *Client) stopPing() {
	c.executor.Cancel(c.pingTask)
	c.pingTask = nil
}

func (c *Client) ping() {
	if c.clientEntity == 0 {
		return
	}
	id, err := c.componentID(registry.TypeHeartbeatPing)
	if err != nil {
		c.logger.Error("Cannot ping", log.Error(err))
		return
	}
	err = c.conn.Send(protocol.ComponentUpdate{
		Entity:    c.clientEntity,
		Component: id,
		Fields:    []protocol.Field{{Name: lastUpdatedTime, Value: fields.Int(c.sinceStart())}},
	})
	if err != nil {
		c.logger.Warn("Failed to send ping", log.Error(err))
		return
	}
	c.stats.PingsSent++
}

func (c *Client) onPong(entity models.EntityID, fm map[string]fields.Value) {
	if entity != c.clientEntity {
		c.logger.Warn("Received pong for another client, interest is too broad",
			log.Int64("entity", int64(entity)),
			log.Int64("client_entity", int64(c.clientEntity)),
		)
		return
	}
	sent, ok := fm[lastUpdatedTime].(fields.Int)
	if !ok {
		c.logger.Warn("Pong without timestamp", log.Int64("entity", int64(entity)))
		return
	}
	now := c.sinceStart()
	c.lastPong = now
	c.latency = c.latency*(1-latencySmoothing) + latencySmoothing*float64(now-int64(sent))
	c.stats.PongsReceived++
}

// status folds the time since the last pong into a running mean. With a
// healthy connection the mean settles at half the ping interval; the
// distance from that is reported as desync.
func (c *Client) status() {
	since := float64(c.sinceStart() - c.lastPong)
	c.meanTimeSincePong = c.meanTimeSincePong*sincePongHistory + sincePongSmoothing*since
	c.logger.Info("Latency / Desync",
		log.Float64("latency_ms", c.latency),
		log.Float64("desync_ms", c.Desync()),
	)
}

// Latency is the smoothed round trip of the heartbeat in milliseconds.
func (c *Client) Latency() float64 {
	return c.latency
}

func (c *Client) Desync() float64 {
	return math.Abs(c.meanTimeSincePong - 0.5*float64(c.config.PingInterval.Milliseconds()))
}
