// Package client drives a view from a runtime connection: it applies ops,
// keeps the player's authoritative components in sync, runs the heartbeat
// and declares interest derived from the view's dependency graph.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/zeusync/viewsync/internal/core/components"
	"github.com/zeusync/viewsync/internal/core/events/bus"
	"github.com/zeusync/viewsync/internal/core/executor"
	"github.com/zeusync/viewsync/internal/core/interest"
	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
	"github.com/zeusync/viewsync/internal/core/view"
)

// Frame is called once per loop iteration, after ops and periodic tasks.
// Rendering and input live behind it.
type Frame interface {
	Frame(c *Client)
}

// FrameFunc adapts a function to Frame.
type FrameFunc func(c *Client)

func (f FrameFunc) Frame(c *Client) { f(c) }

type Option func(*Client)

func WithFrame(frame Frame) Option {
	return func(c *Client) { c.frame = frame }
}

// WithScene lets the client hide the player's own model.
func WithScene(scene *components.SceneGraph) Option {
	return func(c *Client) { c.scene = scene }
}

// WithClock replaces time.Now for the loop, the heartbeat and the executor.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Stats counts what the loop did.
type Stats struct {
	OpsApplied      uint64
	OpErrors        uint64
	InterestUpdates uint64
	PingsSent       uint64
	PongsReceived   uint64
}

type Client struct {
	logger   log.Log
	config   Config
	conn     protocol.Connection
	view     *view.View
	bus      bus.EventBus
	table    *registry.Table
	deriver  *interest.Deriver
	executor *executor.Executor
	frame    Frame
	scene    *components.SceneGraph
	now      func() time.Time
	start    time.Time

	subscriptions []bus.Subscription
	started       bool
	disconnected  bool

	clientEntity models.EntityID
	flags        map[string]string
	commands     map[uuid.UUID]protocol.CommandKind

	// Interest state.
	interestAuthoritative bool
	dependenciesChanged   bool
	absoluteInterest      bool
	edgeLength            float32
	lastInterestY         float32
	lastFingerprint       uint64
	interestSent          bool
	// interestPending survives the per-step reset of dependenciesChanged
	// until a declaration was actually sent.
	interestPending bool

	improbablePositionAuthoritative bool
	lastImprobablePosition          mgl32.Vec3

	hiddenModel    models.EntityID
	hasHiddenModel bool

	// Heartbeat state, in milliseconds since start.
	pingTask          *executor.Task
	statusTask        *executor.Task
	lastPong          int64
	latency           float64
	meanTimeSincePong float64

	stats Stats
}

var _ view.Synchronizer = (*Client)(nil)

// New wires a client to a view. The view must already know the component
// types; the client becomes its synchronizer.
func New(logger log.Log, config Config, conn protocol.Connection, v *view.View, eventBus bus.EventBus, table *registry.Table, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	c := &Client{
		logger:           logger.With(log.String("component", "client")),
		config:           config,
		conn:             conn,
		view:             v,
		bus:              eventBus,
		table:            table,
		deriver:          interest.NewDeriver(logger, table),
		now:              time.Now,
		flags:            make(map[string]string),
		commands:         make(map[uuid.UUID]protocol.CommandKind),
		absoluteInterest: config.AbsoluteInterest,
		edgeLength:       interest.MinEdgeLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.start = c.now()
	c.executor = executor.New(logger, executor.WithClock(c.now))
	c.meanTimeSincePong = 0.5 * float64(config.PingInterval.Milliseconds())

	v.SetSynchronizer(c)
	if err := c.subscribe(); err != nil {
		c.unsubscribe()
		return nil, err
	}
	return c, nil
}

func (c *Client) subscribe() error {
	markChanged := func(bus.Event) error {
		c.dependenciesChanged = true
		return nil
	}
	refreshModel := func(e bus.Event) error {
		if ev, ok := e.Data().(view.ComponentEvent); ok && ev.Key.Type == registry.TypeClient {
			c.refreshHiddenModel()
		}
		return nil
	}
	for _, s := range []struct {
		event   string
		handler bus.EventHandler
	}{
		{view.EventDependencyAdded, markChanged},
		{view.EventDependencyRemoved, markChanged},
		{view.EventComponentActivated, refreshModel},
		{view.EventComponentDeactivated, refreshModel},
	} {
		sub, err := c.bus.Subscribe(s.event, s.handler)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", s.event, err)
		}
		c.subscriptions = append(c.subscriptions, sub)
	}
	return nil
}

func (c *Client) unsubscribe() {
	for _, sub := range c.subscriptions {
		_ = c.bus.Unsubscribe(sub)
	}
	c.subscriptions = nil
}

// Start schedules the status task and asks the bootstrap entity for a
// client entity. It runs once; Run calls it.
func (c *Client) Start() error {
	if c.started {
		return nil
	}
	c.started = true
	c.statusTask = c.executor.Schedule("client_status", c.config.StatusInterval, c.status)
	if _, err := c.sendCommand(protocol.CommandCreateClientEntity, mgl32.Vec3{}, mgl32.Vec3{}); err != nil {
		return fmt.Errorf("request client entity: %w", err)
	}
	return nil
}

// Run steps the loop until the connection reports a disconnect or ctx ends.
func (c *Client) Run(ctx context.Context) error {
	if err := c.Start(); err != nil {
		return err
	}
	c.logger = c.logger.WithContext(ctx)
	for !c.disconnected && ctx.Err() == nil {
		if err := c.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return err
		}
	}
	c.logger.Info("Exiting main loop, goodbye")
	return nil
}

// Step runs one iteration: apply a batch of ops, run due tasks, advance
// animations, call the frame, then declare interest if the dependency graph
// or the edge length changed.
func (c *Client) Step(ctx context.Context) error {
	c.dependenciesChanged = false

	ops, err := c.conn.Receive(ctx, c.config.OpBatchSize, c.config.OpWait)
	switch {
	case err == nil:
	case protocol.IsFatal(err):
		c.logger.Info("Connection closed", log.Error(err))
		c.disconnected = true
		return nil
	case protocol.IsTemporary(err):
		c.logger.Warn("Receive failed, retrying", log.Error(err))
	default:
		return err
	}
	for _, op := range ops {
		c.apply(op)
	}

	c.executor.RunDue(c.now())

	if c.scene != nil {
		c.scene.Animate()
	}
	if c.frame != nil {
		c.frame.Frame(c)
	}

	position := c.WorldPosition()
	c.updateEdgeLength(position)
	if c.interestAuthoritative && (c.dependenciesChanged || c.interestPending) {
		c.updateInterest(position)
	}
	return nil
}

// Close stops the periodic tasks and closes the connection.
func (c *Client) Close() error {
	c.unsubscribe()
	c.executor.Cancel(c.statusTask)
	c.stopPing()
	return c.conn.Close()
}

func (c *Client) View() *view.View              { return c.view }
func (c *Client) Config() Config                { return c.config }
func (c *Client) Stats() Stats                  { return c.stats }
func (c *Client) Disconnected() bool            { return c.disconnected }
func (c *Client) ClientEntity() models.EntityID { return c.clientEntity }
func (c *Client) AbsoluteInterest() bool        { return c.absoluteInterest }
func (c *Client) EdgeLength() float32           { return c.edgeLength }
func (c *Client) InterestAuthoritative() bool   { return c.interestAuthoritative }
func (c *Client) Executor() *executor.Executor  { return c.executor }

// Flag returns the last value of a worker flag.
func (c *Client) Flag(name string) (string, bool) {
	v, ok := c.flags[name]
	return v, ok
}

// sinceStart is the heartbeat clock.
func (c *Client) sinceStart() int64 {
	return c.now().Sub(c.start).Milliseconds()
}
