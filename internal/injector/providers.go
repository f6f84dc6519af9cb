package injector

import (
	"context"
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/viewsync/internal/client"
	"github.com/zeusync/viewsync/internal/core/components"
	"github.com/zeusync/viewsync/internal/core/events/bus"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
	"github.com/zeusync/viewsync/internal/core/protocol/quic"
	"github.com/zeusync/viewsync/internal/core/protocol/websocket"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
	"github.com/zeusync/viewsync/internal/core/view"
)

// ClientSet provides everything a client needs from its Config.
var ClientSet = wire.NewSet(
	ProvideLogger,
	ProvideEventBus,
	ProvideTable,
	ProvideScene,
	ProvideView,
	ProvideConnection,
	ProvideClient,
)

func ProvideLogger(config client.Config) log.Log {
	return log.New(config.LogLevel)
}

func ProvideEventBus() bus.EventBus {
	return bus.New()
}

func ProvideTable() *registry.Table {
	return registry.Default()
}

func ProvideScene() *components.SceneGraph {
	return components.NewSceneGraph()
}

// ProvideView builds a view that knows every component type of the catalog.
func ProvideView(logger log.Log, eventBus bus.EventBus, scene *components.SceneGraph) (*view.View, error) {
	v := view.New(logger, eventBus)
	if err := components.NewCatalog(scene).Register(v); err != nil {
		return nil, fmt.Errorf("register component types: %w", err)
	}
	return v, nil
}

// ProvideConnection dials the configured transport. The cleanup closes the
// connection.
func ProvideConnection(ctx context.Context, logger log.Log, config client.Config) (protocol.Connection, func(), error) {
	var (
		conn protocol.Connection
		err  error
	)
	switch config.Transport {
	case client.TransportWebsocket:
		conn, err = websocket.Dial(ctx, logger, config.Connection)
	case client.TransportQUIC:
		conn, err = quic.Dial(ctx, logger, config.Connection, nil)
	case client.TransportMemory:
		conn = protocol.NewMemoryConnection(config.Connection.QueueSize)
	default:
		err = fmt.Errorf("unknown transport %q", config.Transport)
	}
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := conn.Close(); err != nil {
			logger.Warn("Failed to close connection", log.Error(err))
		}
	}
	return conn, cleanup, nil
}

func ProvideClient(
	logger log.Log,
	config client.Config,
	conn protocol.Connection,
	v *view.View,
	eventBus bus.EventBus,
	table *registry.Table,
	scene *components.SceneGraph,
) (*client.Client, error) {
	return client.New(logger, config, conn, v, eventBus, table, client.WithScene(scene))
}
