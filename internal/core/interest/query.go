// Package interest turns the reverse dependency index of a view into the
// subscription queries that keep the mirror populated.
package interest

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/viewsync/internal/core/models"
)

type ConstraintKind uint8

const (
	ConstraintEntity ConstraintKind = iota + 1
	ConstraintBox
	ConstraintRelativeBox
	ConstraintSelf
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintEntity:
		return "entity"
	case ConstraintBox:
		return "box"
	case ConstraintRelativeBox:
		return "relative_box"
	case ConstraintSelf:
		return "self"
	default:
		return fmt.Sprintf("constraint(%d)", uint8(k))
	}
}

// Constraint selects the entities a query applies to. Entity is used by
// entity constraints, Center by absolute boxes and Extent by both box kinds.
type Constraint struct {
	Kind   ConstraintKind
	Entity models.EntityID
	Center mgl32.Vec3
	Extent mgl32.Vec3
}

func (c Constraint) String() string {
	switch c.Kind {
	case ConstraintEntity:
		return fmt.Sprintf("entity(%d)", c.Entity)
	case ConstraintBox:
		return fmt.Sprintf("box(%v, %v)", c.Center, c.Extent)
	case ConstraintRelativeBox:
		return fmt.Sprintf("relative_box(%v)", c.Extent)
	default:
		return c.Kind.String()
	}
}

// Query requests a sorted set of component types for the entities matching
// its constraint.
type Query struct {
	Constraint Constraint
	Types      []string
}

func (q Query) Equal(other Query) bool {
	return q.Constraint == other.Constraint && slices.Equal(q.Types, other.Types)
}

// Fingerprint hashes a query list so that an unchanged declaration can be
// recognized without keeping the previous list around.
func Fingerprint(queries []Query) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, q := range queries {
		_, _ = d.Write([]byte{byte(q.Constraint.Kind)})
		binary.LittleEndian.PutUint64(buf[:], uint64(q.Constraint.Entity))
		_, _ = d.Write(buf[:])
		for _, v := range [...]mgl32.Vec3{q.Constraint.Center, q.Constraint.Extent} {
			for _, f := range v {
				binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(f))
				_, _ = d.Write(buf[:4])
			}
		}
		for _, t := range q.Types {
			_, _ = d.WriteString(t)
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.Write([]byte{0xff})
	}
	return d.Sum64()
}
