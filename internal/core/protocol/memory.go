package protocol

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryConnection is an in-process Connection. Ops are pushed by the test
// or embedding code, and sent requests are recorded.
type MemoryConnection struct {
	inbox *Inbox

	mu      sync.Mutex
	sent    []Request
	sendErr error
	recvErr error
	closed  bool
}

var _ Connection = (*MemoryConnection)(nil)

func NewMemoryConnection(queueSize int) *MemoryConnection {
	return &MemoryConnection{inbox: NewInbox(queueSize)}
}

// Push queues ops for Receive. It blocks while the queue is full.
func (c *MemoryConnection) Push(ops ...Op) error {
	for _, op := range ops {
		if err := c.inbox.Deliver(context.Background(), op); err != nil {
			return err
		}
	}
	return nil
}

func (c *MemoryConnection) Receive(ctx context.Context, max int, wait time.Duration) ([]Op, error) {
	c.mu.Lock()
	err := c.recvErr
	c.recvErr = nil
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.inbox.Receive(ctx, max, wait)
}

func (c *MemoryConnection) Send(req Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, req)
	return nil
}

// FailSends makes every following Send return err. Nil restores sending.
func (c *MemoryConnection) FailSends(err error) {
	c.mu.Lock()
	c.sendErr = err
	c.mu.Unlock()
}

// FailNextReceive makes the next Receive return err without touching the
// queued ops.
func (c *MemoryConnection) FailNextReceive(err error) {
	c.mu.Lock()
	c.recvErr = err
	c.mu.Unlock()
}

// Sent returns a copy of every request sent so far.
func (c *MemoryConnection) Sent() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.sent)
}

// Drain returns the sent requests and forgets them.
func (c *MemoryConnection) Drain() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	sent := c.sent
	c.sent = nil
	return sent
}

func (c *MemoryConnection) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.inbox.Close(ErrConnectionClosed)
	return nil
}

// SentOf filters requests by their concrete type.
func SentOf[T Request](reqs []Request) []T {
	var out []T
	for _, r := range reqs {
		if t, ok := r.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
