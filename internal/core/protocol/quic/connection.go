// Package quic carries protocol envelopes over a single bidirectional QUIC
// stream using length-prefixed frames.
package quic

import (
	"context"
	"crypto/tls"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
)

var _ protocol.Connection = (*Connection)(nil)

// Connection is a QUIC link to the runtime.
type Connection struct {
	id     string
	conn   *quic.Conn
	stream *quic.Stream
	config protocol.Config
	codec  protocol.Codec
	logger log.Log
	inbox  *protocol.Inbox

	cancel context.CancelFunc
	group  *errgroup.Group
	closed atomic.Bool

	writeMu sync.Mutex

	framesSent     atomic.Uint64
	framesReceived atomic.Uint64
}

// Dial connects to config.Address (host:port) and opens the session stream.
// The stream is announced with an empty frame, since the peer only learns
// about a stream once data arrives on it.
func Dial(ctx context.Context, logger log.Log, config protocol.Config, tlsConfig *tls.Config) (*Connection, error) {
	if tlsConfig == nil {
		tlsConfig = ClientTLSConfig(config.InsecureSkipVerify)
	}
	quicConfig := &quic.Config{
		HandshakeIdleTimeout: config.HandshakeTimeout,
		KeepAlivePeriod:      config.KeepAlive,
		MaxIdleTimeout:       60 * time.Second,
	}

	conn, err := quic.DialAddr(ctx, config.Address, tlsConfig, quicConfig)
	if err != nil {
		return nil, protocol.NewProtocolError(protocol.ErrorCodeDialFailed, "dial quic",
			errors.Wrapf(err, "failed to connect to %s", config.Address))
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "failed to open stream")
		return nil, errors.Wrap(err, "failed to open stream")
	}
	if err := WriteFrame(stream, nil); err != nil {
		_ = conn.CloseWithError(0, "failed to announce stream")
		return nil, err
	}
	return NewConnection(conn, stream, logger, config), nil
}

// NewConnection takes over an established session stream and starts reading.
func NewConnection(conn *quic.Conn, stream *quic.Stream, logger log.Log, config protocol.Config) *Connection {
	id := uuid.New().String()
	c := &Connection{
		id:     id,
		conn:   conn,
		stream: stream,
		config: config,
		codec:  protocol.JSONCodec{},
		logger: logger.With(log.String("component", "quic"), log.String("connection_id", id)),
		inbox:  protocol.NewInbox(config.QueueSize),
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
		_ = c.stream.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
	data, err := ReadFrame(c.stream, c.config.MaxMessageSize)
	if err != nil {
		return nil, err
	}
	c.framesReceived.Add(1)
	return data, nil
}

func (c *Connection) Receive(ctx context.Context, max int, wait time.Duration) ([]protocol.Op, error) {
	return c.inbox.Receive(ctx, max, wait)
}

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
		_ = c.stream.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := WriteFrame(c.stream, data); err != nil {
		return err
	}
	c.framesSent.Add(1)
	return nil
}

// Close closes the stream and the session and waits for the reader.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()

	c.writeMu.Lock()
	_ = c.stream.Close()
	c.writeMu.Unlock()

	err := c.conn.CloseWithError(0, "client closing")
	_ = c.group.Wait()
	c.inbox.Close(protocol.ErrConnectionClosed)

	c.logger.Info("Closed",
		log.Uint64("frames_sent", c.framesSent.Load()),
		log.Uint64("frames_received", c.framesReceived.Load()),
	)
	if err != nil {
		return errors.Wrap(err, "failed to close session")
	}
	return nil
}
