package interest

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/viewsync/internal/core/events/bus"
	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
	"github.com/zeusync/viewsync/internal/core/view"
)

type staticIndex []models.Key

func (s staticIndex) DependencyTargets() []models.Key { return s }

func newDeriver() *Deriver {
	return NewDeriver(log.NewNop(), registry.Default())
}

func TestSingleTilesetDependency(t *testing.T) {
	index := staticIndex{{Entity: 5, Type: registry.TypeTileset}}

	queries := newDeriver().Derive(index, Policy{})
	require.Len(t, queries, 3)

	assert.Equal(t, Query{
		Constraint: Constraint{Kind: ConstraintEntity, Entity: 5},
		Types:      []string{registry.TypeAccessControl, registry.TypeMetadata, registry.TypeTileset},
	}, queries[0])

	assert.Equal(t, ConstraintRelativeBox, queries[1].Constraint.Kind)
	assert.Equal(t, mgl32.Vec3{MinEdgeLength, VerticalExtent, MinEdgeLength}, queries[1].Constraint.Extent)
	assert.Equal(t, []string{"light", "model", "sprite", "tilemap_tiles"}, queries[1].Types)

	assert.Equal(t, Query{
		Constraint: Constraint{Kind: ConstraintSelf},
		Types:      []string{registry.TypeHeartbeatPong},
	}, queries[2])
}

func TestEntityQueriesMergeTypesPerEntity(t *testing.T) {
	index := staticIndex{
		{Entity: 9, Type: registry.TypeMaterial},
		{Entity: 2, Type: registry.TypePosition},
		{Entity: 9, Type: registry.TypeDrawable},
	}

	queries := newDeriver().Derive(index, Policy{})
	require.Len(t, queries, 4)

	assert.Equal(t, models.EntityID(2), queries[0].Constraint.Entity)
	assert.Equal(t, []string{"access_control", "metadata", "position"}, queries[0].Types)
	assert.Equal(t, models.EntityID(9), queries[1].Constraint.Entity)
	assert.Equal(t, []string{"access_control", "drawable", "material", "metadata"}, queries[1].Types)
}

func TestUnknownTypesAreDropped(t *testing.T) {
	index := staticIndex{
		{Entity: 1, Type: "not_on_the_wire"},
		{Entity: 2, Type: registry.TypeModel},
	}

	queries := newDeriver().Derive(index, Policy{})
	require.Len(t, queries, 3)
	assert.Equal(t, models.EntityID(2), queries[0].Constraint.Entity)
}

func TestAbsolutePolicy(t *testing.T) {
	policy := Policy{Absolute: true, Position: mgl32.Vec3{1, 2, 3}, ViewDistance: 50}

	queries := newDeriver().Derive(staticIndex{}, policy)
	require.Len(t, queries, 2)
	assert.Equal(t, Constraint{
		Kind:   ConstraintBox,
		Center: mgl32.Vec3{1, 2, 3},
		Extent: mgl32.Vec3{50, VerticalExtent, 50},
	}, queries[0].Constraint)
}

func TestEdgeLength(t *testing.T) {
	assert.InDelta(t, MinEdgeLength, EdgeLength(0), 1e-6)
	assert.InDelta(t, MinEdgeLength, EdgeLength(5), 1e-6)
	assert.InDelta(t, 41, EdgeLength(10), 1e-4)
	assert.InDelta(t, MinEdgeLength, Policy{ViewDistance: 3}.Edge(), 1e-6)
}

func TestDeriveFromViewIsMinimalAndDeterministic(t *testing.T) {
	v := view.New(log.NewNop(), bus.New())
	for _, typeID := range []string{registry.TypePosition, registry.TypeDrawable, registry.TypeModel} {
		options := []view.Option{{Name: "value", Kind: fields.KindInt}}
		if typeID == registry.TypeModel {
			options = []view.Option{
				{Name: "position", Kind: fields.KindEntityRef, Target: registry.TypePosition},
				{Name: "drawable", Kind: fields.KindEntityRef, Target: registry.TypeDrawable},
			}
		}
		require.NoError(t, v.RegisterType(&view.ComponentType{ID: typeID, Options: options, Behavior: view.Funcs{}}))
	}
	for id := models.EntityID(1); id <= 4; id++ {
		require.NoError(t, v.AddEntity(id))
	}
	for _, id := range []models.EntityID{1, 2, 3} {
		_, err := v.AddComponent(id, registry.TypeModel,
			view.Assignment{Option: 0, Value: fields.EntityRef(4)},
			view.Assignment{Option: 1, Value: fields.EntityRef(id % 2)},
		)
		require.NoError(t, err)
	}

	d := newDeriver()
	first := d.Derive(v, Policy{})
	second := d.Derive(v, Policy{})
	require.Equal(t, first, second)
	assert.Equal(t, Fingerprint(first), Fingerprint(second))

	seen := make(map[models.EntityID]bool)
	for _, q := range first {
		if q.Constraint.Kind != ConstraintEntity {
			continue
		}
		assert.False(t, seen[q.Constraint.Entity], "entity %d queried twice", q.Constraint.Entity)
		seen[q.Constraint.Entity] = true
	}
	assert.Equal(t, map[models.EntityID]bool{0: true, 1: true, 4: true}, seen)
	assert.Equal(t, []string{"access_control", "drawable", "metadata"}, first[1].Types)
	assert.Equal(t, []string{"access_control", "metadata", "position"}, first[2].Types)

	// Dropping the only dependent on entity 0 removes its query.
	require.NoError(t, v.RemoveComponent(2, registry.TypeModel))
	after := d.Derive(v, Policy{})
	assert.Len(t, after, len(first)-1)
	assert.NotEqual(t, Fingerprint(first), Fingerprint(after))
}

func TestFingerprintSeesEveryField(t *testing.T) {
	base := []Query{{Constraint: Constraint{Kind: ConstraintEntity, Entity: 1}, Types: []string{"a", "b"}}}
	variants := [][]Query{
		{{Constraint: Constraint{Kind: ConstraintEntity, Entity: 2}, Types: []string{"a", "b"}}},
		{{Constraint: Constraint{Kind: ConstraintEntity, Entity: 1}, Types: []string{"ab"}}},
		{{Constraint: Constraint{Kind: ConstraintBox, Entity: 1}, Types: []string{"a", "b"}}},
		{{Constraint: Constraint{Kind: ConstraintEntity, Entity: 1, Extent: mgl32.Vec3{1}}, Types: []string{"a", "b"}}},
		append(base, Query{Constraint: Constraint{Kind: ConstraintSelf}}),
	}
	for i, v := range variants {
		assert.NotEqual(t, Fingerprint(base), Fingerprint(v), "variant %d", i)
	}
}
