package protocol

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zeusync/viewsync/internal/core/observability/log"
)

// Connection is the client's link to the runtime. Receive and Send are
// called from the client loop only; ops are produced by a reader goroutine
// owned by the connection.
type Connection interface {
	// Receive returns up to max ops. It waits at most wait for the first
	// one and returns an empty batch on timeout. Once the connection is
	// closed and drained it returns ErrConnectionClosed.
	Receive(ctx context.Context, max int, wait time.Duration) ([]Op, error)
	Send(req Request) error
	Close() error
}

// Config holds the transport settings shared by all connections.
type Config struct {
	Address          string        `json:"address" yaml:"address"`
	HandshakeTimeout time.Duration `json:"handshake_timeout" yaml:"handshake_timeout"`
	ReadTimeout      time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout     time.Duration `json:"write_timeout" yaml:"write_timeout"`
	KeepAlive        time.Duration `json:"keep_alive" yaml:"keep_alive"`
	MaxMessageSize   uint32        `json:"max_message_size" yaml:"max_message_size"`
	QueueSize        int           `json:"queue_size" yaml:"queue_size"`
	// InsecureSkipVerify accepts self-signed certificates.
	InsecureSkipVerify bool `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

func DefaultConfig() Config {
	return Config{
		Address:          "ws://localhost:7777/ws",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		KeepAlive:        15 * time.Second,
		MaxMessageSize:   4 << 20,
		QueueSize:        1024,
	}
}

// Inbox is the buffered hand-over between a reader goroutine and the loop.
type Inbox struct {
	ops  chan Op
	done chan struct{}
	once sync.Once
	mu   sync.Mutex
	err  error
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = 1
	}
	return &Inbox{
		ops:  make(chan Op, size),
		done: make(chan struct{}),
	}
}

// Deliver blocks until the op is buffered, the inbox is closed or ctx ends.
func (b *Inbox) Deliver(ctx context.Context, op Op) error {
	select {
	case <-b.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case b.ops <- op:
		return nil
	case <-b.done:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops deliveries. Buffered ops can still be received. The first
// cause wins.
func (b *Inbox) Close(cause error) {
	b.once.Do(func() {
		b.mu.Lock()
		b.err = cause
		b.mu.Unlock()
		close(b.done)
	})
}

// Err returns the close cause.
func (b *Inbox) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *Inbox) Receive(ctx context.Context, max int, wait time.Duration) ([]Op, error) {
	if max <= 0 {
		max = 1
	}
	first, err := b.first(ctx, wait)
	if err != nil || first == nil {
		return nil, err
	}
	batch := []Op{first}
	for len(batch) < max {
		select {
		case op := <-b.ops:
			batch = append(batch, op)
		default:
			return batch, nil
		}
	}
	return batch, nil
}

func (b *Inbox) first(ctx context.Context, wait time.Duration) (Op, error) {
	select {
	case op := <-b.ops:
		return op, nil
	default:
	}
	if wait <= 0 {
		return nil, b.closedErr()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case op := <-b.ops:
		return op, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.done:
		select {
		case op := <-b.ops:
			return op, nil
		default:
			return nil, b.closedErr()
		}
	}
}

func (b *Inbox) closedErr() error {
	select {
	case <-b.done:
	default:
		return nil
	}
	if cause := b.Err(); cause != nil && !errors.Is(cause, ErrConnectionClosed) {
		return NewProtocolError(ErrorCodeConnectionClosed, "receive", errors.Join(ErrConnectionClosed, cause))
	}
	return ErrConnectionClosed
}

// ReadLoop decodes frames returned by next into the inbox until next fails.
// Undecodable frames are logged and skipped. A read failure that was not
// caused by ctx is reported to the loop as a final Disconnect op.
func ReadLoop(ctx context.Context, logger log.Log, codec Codec, inbox *Inbox, next func() ([]byte, error)) error {
	for {
		data, err := next()
		if err != nil {
			if ctx.Err() != nil {
				inbox.Close(ErrConnectionClosed)
				return nil
			}
			logger.Warn("Connection lost", log.Error(err))
			_ = inbox.Deliver(ctx, Disconnect{Reason: err.Error()})
			inbox.Close(err)
			return WrapError(errors.Join(ErrConnectionLost, err), "read")
		}
		if len(data) == 0 {
			continue
		}

		op, err := codec.DecodeOp(data)
		if err != nil {
			logger.Warn("Dropping undecodable message", log.Int("bytes", len(data)), log.Error(err))
			continue
		}
		if err := inbox.Deliver(ctx, op); err != nil {
			return nil
		}
		if _, ok := op.(Disconnect); ok {
			inbox.Close(ErrConnectionClosed)
			return nil
		}
	}
}
