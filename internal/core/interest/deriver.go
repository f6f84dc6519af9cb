package interest

import (
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
)

const (
	// MinEdgeLength is the smallest horizontal edge of the proximity box.
	MinEdgeLength = 20.5
	// VerticalExtent makes the proximity box cover every height.
	VerticalExtent = 9999
	// edgeHeightRatio grows the box with the height of the viewer.
	edgeHeightRatio = 5
)

// ProximityTypes are requested for everything near the viewer.
var ProximityTypes = []string{
	registry.TypeLight,
	registry.TypeModel,
	registry.TypeSprite,
	registry.TypeTilemapTiles,
}

// EntityTypes are added to every entity query so that the entity can be
// interpreted at all.
var EntityTypes = []string{
	registry.TypeAccessControl,
	registry.TypeMetadata,
}

// SelfTypes are requested for the locally controlled entity.
var SelfTypes = []string{
	registry.TypeHeartbeatPong,
}

// Index is the read side of a view dependency graph.
type Index interface {
	// DependencyTargets lists every target with at least one dependent.
	DependencyTargets() []models.Key
}

// Policy carries the spatial inputs of a derivation.
type Policy struct {
	// Absolute centers a fixed box on Position instead of following the
	// viewer.
	Absolute     bool
	Position     mgl32.Vec3
	ViewDistance float32
}

// Edge is the horizontal edge of the proximity box.
func (p Policy) Edge() float32 {
	return max(p.ViewDistance, MinEdgeLength)
}

// EdgeLength is the view distance for a viewer at the given height.
func EdgeLength(height float32) float32 {
	return max(MinEdgeLength, MinEdgeLength*height/edgeHeightRatio)
}

type Deriver struct {
	logger log.Log
	table  *registry.Table
}

func NewDeriver(logger log.Log, table *registry.Table) *Deriver {
	return &Deriver{
		logger: logger.With(log.String("component", "interest")),
		table:  table,
	}
}

// Derive builds one query per depended-upon entity, one proximity query and
// one self query. Entity queries are sorted by entity id and every type
// list is sorted, so the result only depends on the index content.
func (d *Deriver) Derive(index Index, policy Policy) []Query {
	byEntity := make(map[models.EntityID]map[string]struct{})
	for _, target := range index.DependencyTargets() {
		if !d.known(target.Type) {
			d.logger.Warn("Ignoring dependency on component without wire id",
				log.String("type", target.Type),
				log.Int64("entity", int64(target.Entity)),
			)
			continue
		}
		types := byEntity[target.Entity]
		if types == nil {
			types = make(map[string]struct{})
			byEntity[target.Entity] = types
		}
		types[target.Type] = struct{}{}
	}

	queries := make([]Query, 0, len(byEntity)+2)
	for _, id := range slices.Sorted(maps.Keys(byEntity)) {
		types := byEntity[id]
		for _, t := range EntityTypes {
			types[t] = struct{}{}
		}
		queries = append(queries, Query{
			Constraint: Constraint{Kind: ConstraintEntity, Entity: id},
			Types:      slices.Sorted(maps.Keys(types)),
		})
	}

	edge := policy.Edge()
	proximity := Constraint{Kind: ConstraintRelativeBox, Extent: mgl32.Vec3{edge, VerticalExtent, edge}}
	if policy.Absolute {
		proximity.Kind = ConstraintBox
		proximity.Center = policy.Position
	}
	queries = append(queries,
		Query{Constraint: proximity, Types: d.filter(ProximityTypes)},
		Query{Constraint: Constraint{Kind: ConstraintSelf}, Types: d.filter(SelfTypes)},
	)
	return queries
}

func (d *Deriver) known(typeID string) bool {
	if d.table == nil {
		return true
	}
	_, ok := d.table.ComponentID(typeID)
	return ok
}

func (d *Deriver) filter(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if d.known(t) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}
