package injector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/viewsync/internal/client"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
)

func TestInitializeClientWithMemoryTransport(t *testing.T) {
	config := client.DefaultConfig()
	config.Transport = client.TransportMemory

	c, cleanup, err := InitializeClient(context.Background(), config)
	require.NoError(t, err)
	defer cleanup()

	for _, typeID := range registry.Default().MirroredTypes() {
		_, ok := c.View().ComponentType(typeID)
		assert.True(t, ok, typeID)
	}
}

func TestProvideConnectionRejectsUnknownTransport(t *testing.T) {
	config := client.DefaultConfig()
	config.Transport = "pigeon"
	_, _, err := ProvideConnection(context.Background(), log.NewNop(), config)
	assert.Error(t, err)
}

func TestProvideConnectionFailsToDial(t *testing.T) {
	config := client.DefaultConfig()
	config.Connection.Address = "http://localhost:1/ws"
	_, _, err := ProvideConnection(context.Background(), log.NewNop(), config)
	assert.ErrorIs(t, err, protocol.ErrInvalidAddress)
}
