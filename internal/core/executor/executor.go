// Package executor runs periodic tasks from the client loop. It never
// starts goroutines: due tasks run inside RunDue on the caller's goroutine.
package executor

import (
	"time"

	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/pkg/sequence"
)

// Task is a periodic callback. The pointer doubles as the cancel handle.
type Task struct {
	name     string
	interval time.Duration
	next     time.Time
	fn       func()
	item     *sequence.Item[*Task]
	runs     uint64
	seq      uint64
}

func (t *Task) Name() string            { return t.name }
func (t *Task) Interval() time.Duration { return t.interval }
func (t *Task) Next() time.Time         { return t.next }
func (t *Task) Runs() uint64            { return t.runs }

// Active reports whether the task will run again.
func (t *Task) Active() bool { return t.item != nil && t.item.Queued() }

type Executor struct {
	logger log.Log
	now    func() time.Time
	queue  *sequence.PriorityQueue[*Task]
	seq    uint64
}

type Option func(*Executor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

func New(logger log.Log, opts ...Option) *Executor {
	e := &Executor{
		logger: logger.With(log.String("component", "executor")),
		now:    time.Now,
		queue: sequence.NewPriorityQueue(func(a, b *Task) bool {
			if a.next.Equal(b.next) {
				return a.seq < b.seq
			}
			return a.next.Before(b.next)
		}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schedule runs fn every interval, the first time one interval from now.
func (e *Executor) Schedule(name string, interval time.Duration, fn func()) *Task {
	if interval <= 0 {
		interval = time.Millisecond
	}
	t := &Task{
		name:     name,
		interval: interval,
		next:     e.now().Add(interval),
		fn:       fn,
		seq:      e.seq,
	}
	e.seq++
	t.item = e.queue.Enqueue(t)
	e.logger.Debug("Scheduled task", log.String("task", name), log.Duration("interval", interval))
	return t
}

// Cancel guarantees the task never runs again. Cancelling twice, or from
// inside the task itself, is fine.
func (e *Executor) Cancel(t *Task) {
	if t == nil || t.item == nil {
		return
	}
	if e.queue.Remove(t.item) {
		e.logger.Debug("Cancelled task", log.String("task", t.name), log.Uint64("runs", t.runs))
	}
}

// RunDue runs every task due at now and returns how many ran. Tasks due at
// the same time run in scheduling order, each at most once per call. The
// next run keeps the original cadence unless the task fell behind by more
// than one interval.
func (e *Executor) RunDue(now time.Time) int {
	var due []*Task
	for {
		t, ok := e.queue.Peek()
		if !ok || t.next.After(now) {
			break
		}
		e.queue.Dequeue()
		due = append(due, t)
	}

	for _, t := range due {
		t.next = t.next.Add(t.interval)
		if t.next.Before(now) {
			t.next = now.Add(t.interval)
		}
		t.item = e.queue.Enqueue(t)
	}

	ran := 0
	for _, t := range due {
		// An earlier task in this batch may have cancelled it.
		if !t.Active() {
			continue
		}
		t.runs++
		t.fn()
		ran++
	}
	return ran
}

// NextDue returns when the earliest task is due.
func (e *Executor) NextDue() (time.Time, bool) {
	t, ok := e.queue.Peek()
	if !ok {
		return time.Time{}, false
	}
	return t.next, true
}

func (e *Executor) Len() int {
	return e.queue.Len()
}
