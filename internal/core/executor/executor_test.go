package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/viewsync/internal/core/observability/log"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestExecutor() (*Executor, *clock) {
	c := &clock{now: time.Unix(1000, 0)}
	return New(log.NewNop(), WithClock(c.Now)), c
}

func TestRunDueRespectsInterval(t *testing.T) {
	e, c := newTestExecutor()
	var pings int
	e.Schedule("ping", 999*time.Millisecond, func() { pings++ })

	assert.Equal(t, 0, e.RunDue(c.now.Add(500*time.Millisecond)))
	assert.Equal(t, 1, e.RunDue(c.now.Add(999*time.Millisecond)))
	assert.Equal(t, 0, e.RunDue(c.now.Add(1500*time.Millisecond)))
	assert.Equal(t, 1, e.RunDue(c.now.Add(2100*time.Millisecond)))
	assert.Equal(t, 2, pings)

	next, ok := e.NextDue()
	require.True(t, ok)
	assert.Equal(t, c.now.Add(3*999*time.Millisecond), next)
}

func TestRunDueCatchesUpWithoutBursts(t *testing.T) {
	e, c := newTestExecutor()
	var runs int
	task := e.Schedule("status", time.Second, func() { runs++ })

	late := c.now.Add(10 * time.Second)
	assert.Equal(t, 1, e.RunDue(late))
	assert.Equal(t, late.Add(time.Second), task.Next())
	assert.Equal(t, 0, e.RunDue(late))
	assert.Equal(t, uint64(1), task.Runs())
}

func TestTasksRunInDueOrder(t *testing.T) {
	e, c := newTestExecutor()
	var order []string
	e.Schedule("slow", 3*time.Second, func() { order = append(order, "slow") })
	e.Schedule("fast", time.Second, func() { order = append(order, "fast") })

	for i := 1; i <= 3; i++ {
		e.RunDue(c.now.Add(time.Duration(i) * time.Second))
	}
	assert.Equal(t, []string{"fast", "fast", "slow", "fast"}, order)
}

func TestCancel(t *testing.T) {
	e, c := newTestExecutor()
	var runs int
	task := e.Schedule("ping", time.Second, func() { runs++ })
	require.True(t, task.Active())

	e.Cancel(task)
	e.Cancel(task)
	e.Cancel(nil)
	assert.False(t, task.Active())
	assert.Equal(t, 0, e.RunDue(c.now.Add(time.Minute)))
	assert.Equal(t, 0, runs)
	_, ok := e.NextDue()
	assert.False(t, ok)
}

func TestCancelFromInsideBatch(t *testing.T) {
	e, c := newTestExecutor()
	var second *Task
	var secondRuns int
	e.Schedule("first", time.Second, func() { e.Cancel(second) })
	second = e.Schedule("second", 2*time.Second, func() { secondRuns++ })

	assert.Equal(t, 1, e.RunDue(c.now.Add(2*time.Second)))
	assert.Equal(t, 0, secondRuns)
	assert.Equal(t, 1, e.Len())
}

func TestCancelSelf(t *testing.T) {
	e, c := newTestExecutor()
	var task *Task
	runs := 0
	task = e.Schedule("once", time.Second, func() {
		runs++
		e.Cancel(task)
	})

	e.RunDue(c.now.Add(time.Second))
	e.RunDue(c.now.Add(2 * time.Second))
	assert.Equal(t, 1, runs)
	assert.False(t, task.Active())
}
