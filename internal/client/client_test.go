package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/viewsync/internal/core/components"
	"github.com/zeusync/viewsync/internal/core/events/bus"
	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/interest"
	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
	"github.com/zeusync/viewsync/internal/core/view"
)

const player models.EntityID = 5

type fixture struct {
	t      *testing.T
	now    time.Time
	conn   *protocol.MemoryConnection
	view   *view.View
	scene  *components.SceneGraph
	table  *registry.Table
	client *Client
}

func newFixture(t *testing.T, configure ...func(*Config)) *fixture {
	t.Helper()
	config := DefaultConfig()
	config.OpWait = time.Millisecond
	for _, fn := range configure {
		fn(&config)
	}

	f := &fixture{
		t:     t,
		now:   time.Unix(1_700_000_000, 0),
		conn:  protocol.NewMemoryConnection(256),
		scene: components.NewSceneGraph(),
		table: registry.Default(),
	}
	eventBus := bus.New()
	f.view = view.New(log.NewNop(), eventBus)
	require.NoError(t, components.NewCatalog(f.scene).Register(f.view))

	c, err := New(log.NewNop(), config, f.conn, f.view, eventBus, f.table,
		WithScene(f.scene),
		WithClock(func() time.Time { return f.now }),
	)
	require.NoError(t, err)
	f.client = c
	return f
}

func (f *fixture) step(ops ...protocol.Op) {
	f.t.Helper()
	require.NoError(f.t, f.conn.Push(ops...))
	require.NoError(f.t, f.client.Step(context.Background()))
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) id(typeID string) models.ComponentID {
	id, ok := f.table.ComponentID(typeID)
	require.True(f.t, ok, typeID)
	return id
}

func field(name string, value fields.Value) protocol.Field {
	return protocol.Field{Name: name, Value: value}
}

// spawnPlayer mirrors a player entity and hands its component set to the
// client.
func (f *fixture) spawnPlayer(coords mgl32.Vec3, extra ...protocol.Field) {
	f.t.Helper()
	f.step(
		protocol.AddEntity{Entity: player},
		protocol.AddComponent{Entity: player, Component: f.id(registry.TypePosition), Fields: []protocol.Field{
			field("coordinates", fields.Vec3(coords)),
		}},
		protocol.AddComponent{Entity: player, Component: f.id(registry.TypeClient), Fields: append([]protocol.Field{
			field("position", fields.EntityRef(player)),
		}, extra...)},
		protocol.AuthorityChange{Entity: player, Set: registry.SetClientPlayerAuthority, Authoritative: true},
	)
}

func constraints(update protocol.InterestUpdate) []string {
	out := make([]string, 0, len(update.Queries))
	for _, q := range update.Queries {
		out = append(out, q.Constraint)
	}
	return out
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.OpBatchSize = 0
	v := view.New(log.NewNop(), bus.New())
	_, err := New(log.NewNop(), config, protocol.NewMemoryConnection(1), v, bus.New(), registry.Default())
	assert.Error(t, err)
}

func TestStartRequestsClientEntity(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.BootstrapEntity = 3 })
	require.NoError(t, f.client.Start())
	require.NoError(t, f.client.Start())

	commands := protocol.SentOf[protocol.Command](f.conn.Drain())
	require.Len(t, commands, 1)
	assert.Equal(t, protocol.CommandCreateClientEntity, commands[0].Command)
	assert.Equal(t, models.EntityID(3), commands[0].Target)
	assert.Equal(t, 1, f.client.PendingCommands())

	f.step(protocol.CommandResponse{RequestID: commands[0].RequestID, Success: true, Entity: player})
	assert.Zero(t, f.client.PendingCommands())
}

func TestStartFailsWhenSendFails(t *testing.T) {
	f := newFixture(t)
	f.conn.FailSends(protocol.ErrConnectionLost)
	assert.ErrorIs(t, f.client.Start(), protocol.ErrConnectionLost)
}

func TestPlayerAuthorityDeclaresInterest(t *testing.T) {
	f := newFixture(t)
	f.spawnPlayer(mgl32.Vec3{})

	assert.Equal(t, player, f.client.ClientEntity())
	assert.True(t, f.client.InterestAuthoritative())
	clientComp, ok := f.view.Component(player, registry.TypeClient)
	require.True(t, ok)
	assert.True(t, clientComp.IsActive())
	assert.True(t, f.view.IsAuthoritative(player, registry.TypePosition))

	updates := protocol.SentOf[protocol.InterestUpdate](f.conn.Drain())
	require.Len(t, updates, 1)
	update := updates[0]
	assert.Equal(t, player, update.Entity)
	assert.Equal(t, []string{"entity", "relative_box", "self"}, constraints(update))
	assert.Equal(t, player, update.Queries[0].Entity)
	assert.Contains(t, update.Queries[0].Components, f.id(registry.TypePosition))
	require.NotNil(t, update.Queries[1].Extent)
	assert.Nil(t, update.Queries[1].Center)
	assert.Equal(t, mgl32.Vec3{interest.MinEdgeLength, interest.VerticalExtent, interest.MinEdgeLength}, *update.Queries[1].Extent)

	// Nothing changed, nothing is sent.
	f.step()
	assert.Empty(t, protocol.SentOf[protocol.InterestUpdate](f.conn.Drain()))
}

func TestInterestWaitsForAuthority(t *testing.T) {
	f := newFixture(t)
	f.step(
		protocol.AddEntity{Entity: 8},
		protocol.AddComponent{Entity: 8, Component: f.id(registry.TypeClient), Fields: []protocol.Field{
			field("position", fields.EntityRef(9)),
		}},
	)
	assert.Empty(t, protocol.SentOf[protocol.InterestUpdate](f.conn.Drain()))
	assert.Len(t, f.view.DependencyTargets(), 1)
}

func TestNewDependencyRedeclaresInterest(t *testing.T) {
	f := newFixture(t)
	f.spawnPlayer(mgl32.Vec3{})
	f.conn.Drain()

	f.step(
		protocol.AddEntity{Entity: 20},
		protocol.AddComponent{Entity: 20, Component: f.id(registry.TypeModel), Fields: []protocol.Field{
			field("position", fields.EntityRef(21)),
			field("drawable", fields.EntityRef(22)),
			field("material", fields.EntityRef(23)),
		}},
	)
	updates := protocol.SentOf[protocol.InterestUpdate](f.conn.Drain())
	require.Len(t, updates, 1)
	assert.Equal(t, []string{"entity", "entity", "entity", "entity", "relative_box", "self"}, constraints(updates[0]))
	assert.Equal(t, player, updates[0].Queries[0].Entity)
	assert.Equal(t, models.EntityID(21), updates[0].Queries[1].Entity)
}

func TestEdgeLengthFollowsHeight(t *testing.T) {
	f := newFixture(t)
	f.spawnPlayer(mgl32.Vec3{})
	f.conn.Drain()

	require.NoError(t, f.client.MoveTo(mgl32.Vec3{0, 0.2, 0}))
	f.step()
	assert.Equal(t, float32(interest.MinEdgeLength), f.client.EdgeLength())
	assert.Empty(t, protocol.SentOf[protocol.InterestUpdate](f.conn.Drain()))

	require.NoError(t, f.client.MoveTo(mgl32.Vec3{0, 10, 0}))
	f.step()
	assert.InDelta(t, 41, f.client.EdgeLength(), 1e-4)
	updates := protocol.SentOf[protocol.InterestUpdate](f.conn.Drain())
	require.Len(t, updates, 1)
	assert.InDelta(t, 41, updates[0].Queries[1].Extent.X(), 1e-4)
}

func TestToggleAbsoluteInterest(t *testing.T) {
	f := newFixture(t)
	f.spawnPlayer(mgl32.Vec3{4, 0, 2})
	f.conn.Drain()

	f.client.ToggleAbsoluteInterest()
	assert.True(t, f.client.AbsoluteInterest())
	updates := protocol.SentOf[protocol.InterestUpdate](f.conn.Drain())
	require.Len(t, updates, 1)
	assert.Equal(t, []string{"entity", "box", "self"}, constraints(updates[0]))
	require.NotNil(t, updates[0].Queries[1].Center)
	assert.Equal(t, mgl32.Vec3{4, 0, 2}, *updates[0].Queries[1].Center)

	f.client.ToggleAbsoluteInterest()
	updates = protocol.SentOf[protocol.InterestUpdate](f.conn.Drain())
	require.Len(t, updates, 1)
	assert.Equal(t, []string{"entity", "relative_box", "self"}, constraints(updates[0]))
}

func TestMoveUpdatesRuntimePosition(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.PositionMappingX = components.MappingNegativeX })
	f.spawnPlayer(mgl32.Vec3{})
	f.conn.Drain()

	require.NoError(t, f.client.MoveTo(mgl32.Vec3{3, 0, 0}))
	updates := protocol.SentOf[protocol.ComponentUpdate](f.conn.Drain())
	require.Len(t, updates, 2)
	assert.Equal(t, f.id(registry.TypePosition), updates[0].Component)
	assert.Equal(t, []protocol.Field{field("coordinates", fields.Vec3{3, 0, 0})}, updates[0].Fields)
	assert.Equal(t, f.id(registry.TypeImprobablePosition), updates[1].Component)
	assert.Equal(t, []protocol.Field{field("coords", fields.Vec3{-3, 0, 0})}, updates[1].Fields)

	// Optimistic: visible before the runtime echoes it.
	position, ok := f.client.Position()
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{3, 0, 0}, position)
	assert.Equal(t, mgl32.Vec3{-3, 0, 0}, f.client.WorldPosition())

	require.NoError(t, f.client.MoveTo(mgl32.Vec3{3.5, 0, 0}))
	updates = protocol.SentOf[protocol.ComponentUpdate](f.conn.Drain())
	require.Len(t, updates, 1)
	assert.Equal(t, f.id(registry.TypePosition), updates[0].Component)
}

func TestEchoOfOwnWriteIsAbsorbed(t *testing.T) {
	f := newFixture(t)
	f.spawnPlayer(mgl32.Vec3{})
	require.NoError(t, f.client.MoveTo(mgl32.Vec3{1, 2, 3}))

	f.step(
		protocol.UpdateComponent{Entity: player, Component: f.id(registry.TypePosition), Fields: []protocol.Field{
			field("coordinates", fields.Vec3{1, 2, 3}),
		}},
		protocol.UpdateComponent{Entity: player, Component: f.id(registry.TypePosition), Fields: []protocol.Field{
			field("coordinates", fields.Vec3{9, 9, 9}),
		}},
	)
	position, ok := f.client.Position()
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, position)
	assert.Zero(t, f.client.Stats().OpErrors)
}

func TestMoveWithoutPlayer(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.client.MoveTo(mgl32.Vec3{1, 0, 0}), ErrNoClientEntity)
	assert.ErrorIs(t, f.client.Rotate(mgl32.Vec3{1, 0, 0}), ErrNoClientEntity)
	_, err := f.client.SpawnCube()
	assert.ErrorIs(t, err, ErrNoClientEntity)
}

func TestLosingAuthorityDeactivatesPlayer(t *testing.T) {
	f := newFixture(t)
	f.spawnPlayer(mgl32.Vec3{})

	f.step(protocol.AuthorityChange{Entity: player, Set: registry.SetClientPlayerAuthority, Authoritative: false})
	clientComp, ok := f.view.Component(player, registry.TypeClient)
	require.True(t, ok)
	assert.False(t, clientComp.IsActive())
	assert.False(t, f.client.InterestAuthoritative())
	assert.False(t, f.view.IsAuthoritative(player, registry.TypePosition))
	assert.Zero(t, f.client.ClientEntity())
}

func TestHeartbeat(t *testing.T) {
	f := newFixture(t)
	f.spawnPlayer(mgl32.Vec3{})
	f.conn.Drain()

	f.advance(999 * time.Millisecond)
	f.step()
	pings := protocol.SentOf[protocol.ComponentUpdate](f.conn.Drain())
	require.Len(t, pings, 1)
	assert.Equal(t, f.id(registry.TypeHeartbeatPing), pings[0].Component)
	assert.Equal(t, player, pings[0].Entity)
	assert.Equal(t, []protocol.Field{field(lastUpdatedTime, fields.Int(999))}, pings[0].Fields)

	f.advance(100 * time.Millisecond)
	f.step(protocol.UpdateComponent{Entity: player, Component: f.id(registry.TypeHeartbeatPong), Fields: []protocol.Field{
		field(lastUpdatedTime, fields.Int(999)),
	}})
	assert.InDelta(t, 50, f.client.Latency(), 1e-9)
	assert.Equal(t, uint64(1), f.client.Stats().PongsReceived)

	// A pong of another client only shows that interest is too broad.
	f.step(protocol.UpdateComponent{Entity: 6, Component: f.id(registry.TypeHeartbeatPong), Fields: []protocol.Field{
		field(lastUpdatedTime, fields.Int(0)),
	}})
	assert.InDelta(t, 50, f.client.Latency(), 1e-9)
	assert.Equal(t, uint64(1), f.client.Stats().PongsReceived)
}

func TestStatusTracksDesync(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.client.Start())
	assert.Zero(t, f.client.Desync())

	f.advance(2449 * time.Millisecond)
	f.step()
	// 0.95 * 499.5 + 0.05 * 2449 = 596.975
	assert.InDelta(t, 596.975-499.5, f.client.Desync(), 1e-6)
}

func TestPingFollowsClientAuthority(t *testing.T) {
	f := newFixture(t)
	f.step(
		protocol.AddEntity{Entity: player},
		protocol.AddComponent{Entity: player, Component: f.id(registry.TypeClient), Fields: []protocol.Field{
			field("position", fields.EntityRef(player)),
		}},
	)
	f.step(protocol.AuthorityChange{Entity: player, Component: f.id(registry.TypeClient), Authoritative: true})
	assert.Equal(t, player, f.client.ClientEntity())

	for range 3 {
		f.advance(time.Second)
		f.step()
	}
	assert.Equal(t, uint64(3), f.client.Stats().PingsSent)

	f.step(protocol.AuthorityChange{Entity: player, Component: f.id(registry.TypeClient), Authoritative: false})
	assert.Zero(t, f.client.ClientEntity())
	f.conn.Drain()

	f.advance(5 * time.Second)
	f.step()
	assert.Empty(t, protocol.SentOf[protocol.ComponentUpdate](f.conn.Drain()))
	assert.Equal(t, uint64(3), f.client.Stats().PingsSent)
}

func TestInterestDeclaredWhenAuthorityArrivesPerComponent(t *testing.T) {
	for _, order := range [][]string{
		{registry.TypeInterest, registry.TypeClient},
		{registry.TypeClient, registry.TypeInterest},
	} {
		t.Run(order[0]+"_first", func(t *testing.T) {
			f := newFixture(t)
			f.step(
				protocol.AddEntity{Entity: player},
				protocol.AddComponent{Entity: player, Component: f.id(registry.TypePosition), Fields: []protocol.Field{
					field("coordinates", fields.Vec3(mgl32.Vec3{})),
				}},
				protocol.AddComponent{Entity: player, Component: f.id(registry.TypeClient), Fields: []protocol.Field{
					field("position", fields.EntityRef(player)),
				}},
			)
			f.step(protocol.AuthorityChange{Entity: player, Component: f.id(order[0]), Authoritative: true})
			f.step()
			f.step(protocol.AuthorityChange{Entity: player, Component: f.id(order[1]), Authoritative: true})
			f.step()

			updates := protocol.SentOf[protocol.InterestUpdate](f.conn.Drain())
			require.Len(t, updates, 1)
			assert.Equal(t, player, updates[0].Entity)
			assert.Equal(t, uint64(1), f.client.Stats().InterestUpdates)
		})
	}
}

func TestFailedInterestSendIsRetried(t *testing.T) {
	f := newFixture(t)
	f.conn.FailSends(protocol.ErrConnectionLost)
	f.spawnPlayer(mgl32.Vec3{})
	assert.Zero(t, f.client.Stats().InterestUpdates)

	f.conn.FailSends(nil)
	f.step()
	assert.Len(t, protocol.SentOf[protocol.InterestUpdate](f.conn.Drain()), 1)
}

func TestTemporaryReceiveErrorKeepsRunning(t *testing.T) {
	f := newFixture(t)
	f.conn.FailNextReceive(protocol.ErrConnectionTimeout)
	require.NoError(t, f.client.Step(context.Background()))
	assert.False(t, f.client.Disconnected())

	f.conn.FailNextReceive(fmt.Errorf("read: %w", protocol.ErrConnectionLost))
	require.NoError(t, f.client.Step(context.Background()))
	assert.True(t, f.client.Disconnected())
}

func TestMetadataSetsEntityType(t *testing.T) {
	f := newFixture(t)
	f.step(
		protocol.AddEntity{Entity: 7},
		protocol.AddComponent{Entity: 7, Component: f.id(registry.TypeMetadata), Fields: []protocol.Field{
			field(metadataEntityType, fields.String("cube")),
		}},
	)
	entity, ok := f.view.Entity(7)
	require.True(t, ok)
	assert.Equal(t, "cube", entity.TypeTag())
}

func TestUnknownComponentsAreIgnored(t *testing.T) {
	f := newFixture(t)
	f.step(
		protocol.AddEntity{Entity: 7},
		protocol.AddComponent{Entity: 7, Component: 424242},
		protocol.UpdateComponent{Entity: 7, Component: 424242},
		protocol.AuthorityChange{Entity: 7, Component: 424242, Authoritative: true},
	)
	assert.Zero(t, f.client.Stats().OpErrors)
	assert.Equal(t, uint64(4), f.client.Stats().OpsApplied)
}

func TestInvalidOpIsCounted(t *testing.T) {
	f := newFixture(t)
	f.step(protocol.RemoveEntity{Entity: 99})
	assert.Equal(t, uint64(1), f.client.Stats().OpErrors)
}

func TestClearedOption(t *testing.T) {
	f := newFixture(t)
	f.step(
		protocol.AddEntity{Entity: 7},
		protocol.AddComponent{Entity: 7, Component: f.id(registry.TypeClient), Fields: []protocol.Field{
			field("position", fields.EntityRef(7)),
			field("model", fields.EntityRef(8)),
		}},
		protocol.UpdateComponent{Entity: 7, Component: f.id(registry.TypeClient), Cleared: []string{"model"}},
	)
	comp, ok := f.view.Component(7, registry.TypeClient)
	require.True(t, ok)
	assert.False(t, comp.IsSet(components.ClientOptionModel))
	assert.Zero(t, f.client.Stats().OpErrors)
}

func TestClearedOptionLeavesOpFieldsAlone(t *testing.T) {
	f := newFixture(t)
	f.step(
		protocol.AddEntity{Entity: 7},
		protocol.AddComponent{Entity: 7, Component: f.id(registry.TypeClient), Fields: []protocol.Field{
			field("position", fields.EntityRef(7)),
			field("model", fields.EntityRef(8)),
		}},
	)

	updated := make([]protocol.Field, 1, 4)
	updated[0] = field("position", fields.EntityRef(9))
	f.step(protocol.UpdateComponent{Entity: 7, Component: f.id(registry.TypeClient), Fields: updated, Cleared: []string{"model"}})

	assert.Equal(t, protocol.Field{}, updated[:2][1])
	comp, ok := f.view.Component(7, registry.TypeClient)
	require.True(t, ok)
	assert.False(t, comp.IsSet(components.ClientOptionModel))
}

func TestFlagUpdates(t *testing.T) {
	f := newFixture(t)
	f.spawnPlayer(mgl32.Vec3{1, 0, 1})
	f.conn.Drain()

	f.step(protocol.FlagUpdate{Name: "absolute_interest", Value: "true"})
	assert.True(t, f.client.AbsoluteInterest())
	value, ok := f.client.Flag("absolute_interest")
	assert.True(t, ok)
	assert.Equal(t, "true", value)
	updates := protocol.SentOf[protocol.InterestUpdate](f.conn.Drain())
	require.Len(t, updates, 1)
	assert.Equal(t, "box", updates[0].Queries[1].Constraint)

	f.step(protocol.FlagUpdate{Name: "absolute_interest", Value: "maybe"})
	assert.True(t, f.client.AbsoluteInterest())

	f.step(protocol.FlagUpdate{Name: "game_type", Value: GameTypeTiles})
	_, err := f.client.Interact()
	require.NoError(t, err)
	commands := protocol.SentOf[protocol.Command](f.conn.Drain())
	require.Len(t, commands, 1)
	assert.Equal(t, protocol.CommandDigHole, commands[0].Command)
	assert.Equal(t, player, commands[0].Entity)
	assert.Equal(t, mgl32.Vec3{1, 0, 1}, commands[0].Position)

	f.step(protocol.FlagUpdate{Name: "custom", Value: "x"})
	_, ok = f.client.Flag("custom")
	assert.True(t, ok)
	f.step(protocol.FlagUpdate{Name: "custom"})
	_, ok = f.client.Flag("custom")
	assert.False(t, ok)
}

func TestSpawnCubeUsesViewDirection(t *testing.T) {
	f := newFixture(t)
	f.spawnPlayer(mgl32.Vec3{0, 1, 0})
	f.conn.Drain()

	f.client.SetViewDirection(mgl32.Vec3{1, 0, 0})
	id, err := f.client.Interact()
	require.NoError(t, err)
	commands := protocol.SentOf[protocol.Command](f.conn.Drain())
	require.Len(t, commands, 1)
	assert.Equal(t, id, commands[0].RequestID)
	assert.Equal(t, protocol.CommandSpawnCube, commands[0].Command)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, commands[0].Direction)
	assert.Equal(t, models.EntityID(1), commands[0].Target)

	f.step(protocol.CommandResponse{RequestID: id, Success: false, Message: "no"})
	assert.Zero(t, f.client.PendingCommands())
}

func TestDeleteEntity(t *testing.T) {
	f := newFixture(t)
	id, err := f.client.DeleteEntity(12)
	require.NoError(t, err)
	reqs := protocol.SentOf[protocol.DeleteEntity](f.conn.Drain())
	require.Len(t, reqs, 1)
	assert.Equal(t, protocol.DeleteEntity{RequestID: id, Entity: 12}, reqs[0])
	assert.Equal(t, 1, f.client.PendingCommands())
}

func TestMetricsReport(t *testing.T) {
	f := newFixture(t)
	f.spawnPlayer(mgl32.Vec3{})
	f.conn.Drain()

	f.step(protocol.Metrics{Gauges: map[string]float64{"runtime.load": 0.5}})
	reports := protocol.SentOf[protocol.MetricsReport](f.conn.Drain())
	require.Len(t, reports, 1)
	gauges := reports[0].Gauges
	assert.Equal(t, 0.5, gauges["runtime.load"])
	assert.Equal(t, float64(1), gauges["view.entities"])
	assert.Equal(t, float64(2), gauges["view.active_components"])
	assert.Contains(t, gauges, "client.latency_ms")
}

func TestHidePlayerModel(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.HidePlayerClientEntityModel = true })

	// A complete model on entity 20.
	for id := models.EntityID(20); id <= 22; id++ {
		require.NoError(t, f.view.AddEntity(id))
	}
	_, err := f.view.AddComponent(20, registry.TypePosition)
	require.NoError(t, err)
	_, err = f.view.AddComponent(21, registry.TypeDrawable,
		view.Assignment{Option: components.DrawableOptionType, Value: fields.Int(components.DrawableQuad)})
	require.NoError(t, err)
	_, err = f.view.AddComponent(22, registry.TypeMaterial,
		view.Assignment{Option: components.MaterialOptionType, Value: fields.Int(components.MaterialColor)},
		view.Assignment{Option: components.MaterialOptionColor, Value: fields.Vec3{1, 1, 1}})
	require.NoError(t, err)
	model, err := f.view.AddComponent(20, registry.TypeModel,
		view.Assignment{Option: components.ModelOptionPosition, Value: fields.EntityRef(20)},
		view.Assignment{Option: components.ModelOptionDrawable, Value: fields.EntityRef(21)},
		view.Assignment{Option: components.ModelOptionMaterial, Value: fields.EntityRef(22)})
	require.NoError(t, err)
	require.True(t, model.IsActive())

	f.spawnPlayer(mgl32.Vec3{}, field("model", fields.EntityRef(20)))
	assert.True(t, f.scene.Hidden[20])

	f.step(protocol.FlagUpdate{Name: "hide_player_client_entity_model", Value: "false"})
	assert.False(t, f.scene.Hidden[20])

	f.step(protocol.FlagUpdate{Name: "hide_player_client_entity_model", Value: "true"})
	assert.True(t, f.scene.Hidden[20])

	f.step(protocol.AuthorityChange{Entity: player, Set: registry.SetClientPlayerAuthority, Authoritative: false})
	assert.False(t, f.scene.Hidden[20])
}

func TestRemovingPlayerEntity(t *testing.T) {
	f := newFixture(t)
	f.spawnPlayer(mgl32.Vec3{})
	f.step(protocol.RemoveEntity{Entity: player})

	assert.Zero(t, f.client.ClientEntity())
	assert.False(t, f.client.InterestAuthoritative())
	f.conn.Drain()
	f.advance(2 * time.Second)
	f.step()
	assert.Empty(t, protocol.SentOf[protocol.ComponentUpdate](f.conn.Drain()))
}

func TestRunStopsOnDisconnect(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.conn.Push(protocol.Disconnect{Reason: "shutdown"}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.client.Run(ctx))
	assert.True(t, f.client.Disconnected())
}

func TestRunEndsWhenConnectionCloses(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.client.Start())
	require.NoError(t, f.conn.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.client.Run(ctx))
	assert.True(t, f.client.Disconnected())
}

func TestRunFailsWithoutBootstrapRequest(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.conn.Close())
	err := f.client.Run(context.Background())
	assert.True(t, errors.Is(err, protocol.ErrConnectionClosed))
}

func TestRunStopsOnContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	f.client.frame = FrameFunc(func(*Client) {
		frames++
		if frames == 3 {
			cancel()
		}
	})
	require.NoError(t, f.client.Run(ctx))
	assert.Equal(t, 3, frames)
	assert.False(t, f.client.Disconnected())
}

func TestLogMessagesAreRelayed(t *testing.T) {
	f := newFixture(t)
	f.step(
		protocol.LogMessage{Level: "fatal", Logger: "runtime", Message: "would exit"},
		protocol.LogMessage{Level: "bogus", Message: "still logged"},
	)
	assert.Equal(t, uint64(2), f.client.Stats().OpsApplied)
	assert.False(t, f.client.Disconnected())
}

func TestCloseClosesConnection(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.client.Start())
	require.NoError(t, f.client.Close())
	assert.Zero(t, f.client.Executor().Len())
	assert.ErrorIs(t, f.conn.Send(protocol.MetricsReport{}), protocol.ErrConnectionClosed)
}
