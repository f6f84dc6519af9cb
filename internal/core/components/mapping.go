package components

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// CoordinateMapping selects which position axis, and with which sign, feeds
// a target axis.
type CoordinateMapping int32

const (
	MappingPositiveX CoordinateMapping = iota
	MappingNegativeX
	MappingPositiveY
	MappingNegativeY
	MappingPositiveZ
	MappingNegativeZ
)

var mappingNames = [...]string{"+x", "-x", "+y", "-y", "+z", "-z"}

// ParseCoordinateMapping accepts "+x", "-x", "+y", "-y", "+z" and "-z".
func ParseCoordinateMapping(s string) (CoordinateMapping, error) {
	for i, name := range mappingNames {
		if name == s {
			return CoordinateMapping(i), nil
		}
	}
	return MappingPositiveX, fmt.Errorf("invalid coordinate mapping %q", s)
}

func (m CoordinateMapping) String() string {
	if m >= 0 && int(m) < len(mappingNames) {
		return mappingNames[m]
	}
	return fmt.Sprintf("mapping(%d)", int32(m))
}

func (m CoordinateMapping) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *CoordinateMapping) UnmarshalText(text []byte) error {
	parsed, err := ParseCoordinateMapping(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Apply picks the mapped coordinate out of a position.
func (m CoordinateMapping) Apply(p mgl32.Vec3) float32 {
	switch m {
	case MappingNegativeX:
		return -p.X()
	case MappingPositiveY:
		return p.Y()
	case MappingNegativeY:
		return -p.Y()
	case MappingPositiveZ:
		return p.Z()
	case MappingNegativeZ:
		return -p.Z()
	default:
		return p.X()
	}
}

// Mapping3 maps a local position onto world axes.
type Mapping3 [3]CoordinateMapping

// IdentityMapping keeps every axis.
var IdentityMapping = Mapping3{MappingPositiveX, MappingPositiveY, MappingPositiveZ}

func (m Mapping3) Apply(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{m[0].Apply(p), m[1].Apply(p), m[2].Apply(p)}
}
