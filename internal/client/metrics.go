package client

import (
	"maps"

	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
)

// Gauges reports the client state under stable names.
func (c *Client) Gauges() map[string]float64 {
	vs := c.view.Stats()
	gauges := map[string]float64{
		"client.latency_ms":       c.latency,
		"client.desync_ms":        c.Desync(),
		"client.ops_applied":      float64(c.stats.OpsApplied),
		"client.op_errors":        float64(c.stats.OpErrors),
		"client.interest_updates": float64(c.stats.InterestUpdates),
		"client.pings_sent":       float64(c.stats.PingsSent),
		"client.pongs_received":   float64(c.stats.PongsReceived),
		"client.pending_commands": float64(len(c.commands)),
		"client.tasks":            float64(c.executor.Len()),
		"view.entities":           float64(vs.Entities),
		"view.components":         float64(vs.Components),
		"view.active_components":  float64(vs.ActiveComponents),
		"view.dependency_targets": float64(vs.DependencyTargets),
		"view.authoritative":      float64(vs.Authoritative),
		"view.pending_writes":     float64(vs.PendingWrites),
	}
	if c.bus != nil {
		bm := c.bus.GetMetrics()
		gauges["bus.published"] = float64(bm.Published)
		gauges["bus.errors"] = float64(bm.Errors)
	}
	return gauges
}

// onMetrics answers the runtime's gauges with its own merged with the
// client's.
func (c *Client) onMetrics(op protocol.Metrics) {
	report := protocol.MetricsReport{Gauges: make(map[string]float64, len(op.Gauges))}
	maps.Copy(report.Gauges, op.Gauges)
	maps.Copy(report.Gauges, c.Gauges())
	if err := c.conn.Send(report); err != nil {
		c.logger.Warn("Failed to send metrics report", log.Error(err))
	}
}
