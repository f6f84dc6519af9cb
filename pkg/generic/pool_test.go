package generic

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolResetsValues(t *testing.T) {
	created := 0
	p := NewPool(func() *bytes.Buffer {
		created++
		return new(bytes.Buffer)
	}, (*bytes.Buffer).Reset)

	buf := p.Get()
	buf.WriteString("frame")
	p.Put(buf)
	assert.Zero(t, buf.Len())

	other := p.Get()
	assert.Zero(t, other.Len())
	assert.GreaterOrEqual(t, created, 1)
}

func TestPoolWithoutReset(t *testing.T) {
	p := NewPool(func() []int { return make([]int, 0, 4) }, nil)
	s := p.Get()
	assert.Equal(t, 4, cap(s))
	p.Put(append(s, 1))
}
