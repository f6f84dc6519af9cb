// Package websocket carries protocol envelopes over gorilla/websocket text
// messages, one envelope per message.
package websocket

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
)

var _ protocol.Connection = (*Connection)(nil)

// Connection is a websocket link to the runtime.
type Connection struct {
	id     string
	conn   *websocket.Conn
	config protocol.Config
	codec  protocol.Codec
	logger log.Log
	inbox  *protocol.Inbox

	cancel context.CancelFunc
	group  *errgroup.Group
	closed atomic.Bool

	// Write mutex to ensure thread-safe writes
	writeMu sync.Mutex

	messagesSent     atomic.Uint64
	messagesReceived atomic.Uint64
}

// Dial connects to config.Address, e.g. ws://localhost:7777/ws.
func Dial(ctx context.Context, logger log.Log, config protocol.Config) (*Connection, error) {
	u, err := url.Parse(config.Address)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return nil, protocol.NewProtocolError(protocol.ErrorCodeInvalidAddress, "dial websocket", protocol.ErrInvalidAddress).
			WithContext("address", config.Address)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: config.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, config.Address, nil)
	if err != nil {
		return nil, protocol.NewProtocolError(protocol.ErrorCodeDialFailed, "dial websocket",
			errors.Wrapf(err, "failed to connect to %s", config.Address))
	}
	return NewConnection(conn, logger, config), nil
}

// NewConnection takes over an established websocket and starts reading.
func NewConnection(conn *websocket.Conn, logger log.Log, config protocol.Config) *Connection {
	id := uuid.New().String()
	c := &Connection{
		id:     id,
		conn:   conn,
		config: config,
		codec:  protocol.JSONCodec{},
		logger: logger.With(log.String("component", "websocket"), log.String("connection_id", id)),
		inbox:  protocol.NewInbox(config.QueueSize),
	}
	if config.MaxMessageSize > 0 {
		conn.SetReadLimit(int64(config.MaxMessageSize))
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	c.cancel = cancel
	c.group = group
	group.Go(func() error {
		return protocol.ReadLoop(gctx, c.logger, c.codec, c.inbox, c.read)
	})

	c.logger.Info("Connected", log.String("address", conn.RemoteAddr().String()))
	return c
}

func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) read() ([]byte, error) {
	if c.config.ReadTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read message")
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		c.messagesReceived.Add(1)
		return data, nil
	}
}

func (c *Connection) Receive(ctx context.Context, max int, wait time.Duration) ([]protocol.Op, error) {
	return c.inbox.Receive(ctx, max, wait)
}

// Send encodes and writes one request.
func (c *Connection) Send(req protocol.Request) error {
	if c.closed.Load() {
		return protocol.ErrConnectionClosed
	}

	data, err := c.codec.EncodeRequest(req)
	if err != nil {
		return err
	}
	if c.config.MaxMessageSize > 0 && uint32(len(data)) > c.config.MaxMessageSize {
		return protocol.NewProtocolError(protocol.ErrorCodeMessageTooLarge, "send", protocol.ErrMessageTooLarge).
			WithContext("size", len(data)).
			WithContext("type", string(req.Type()))
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.config.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(err, "failed to write message")
	}
	c.messagesSent.Add(1)
	return nil
}

// Close sends a close frame, stops the reader and waits for it.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.cancel()

	c.writeMu.Lock()
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	c.writeMu.Unlock()

	err := c.conn.Close()
	_ = c.group.Wait()
	c.inbox.Close(protocol.ErrConnectionClosed)

	c.logger.Info("Closed",
		log.Uint64("messages_sent", c.messagesSent.Load()),
		log.Uint64("messages_received", c.messagesReceived.Load()),
	)
	if err != nil {
		return errors.Wrap(err, "failed to close connection")
	}
	return nil
}
