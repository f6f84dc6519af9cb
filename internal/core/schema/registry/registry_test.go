package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableResolves(t *testing.T) {
	table := Default()

	entry, err := table.Resolve(1348)
	require.NoError(t, err)
	assert.Equal(t, TypeModel, entry.Type)
	assert.True(t, entry.Mirrored)

	entry, err = table.Resolve(53)
	require.NoError(t, err)
	assert.Equal(t, TypeMetadata, entry.Type)
	assert.False(t, entry.Mirrored)

	id, ok := table.ComponentID(TypeHeartbeatPong)
	assert.True(t, ok)
	assert.EqualValues(t, 13352, id)

	entry, err = table.Resolve(134132)
	require.NoError(t, err)
	assert.Equal(t, TypeTilemapColliders, entry.Type)
	id, ok = table.ComponentID(TypeTileSpriteAnimation)
	assert.True(t, ok)
	assert.EqualValues(t, 1343, id)
}

func TestUnknownComponent(t *testing.T) {
	_, err := Default().Resolve(424242)
	assert.ErrorIs(t, err, ErrUnknownComponent)

	_, ok := Default().ComponentID("teapot")
	assert.False(t, ok)
}

func TestDuplicateRegistration(t *testing.T) {
	table := New()
	require.NoError(t, table.Register(Entry{ID: 1, Type: "a"}))
	assert.ErrorIs(t, table.Register(Entry{ID: 1, Type: "b"}), ErrDuplicateEntry)
	assert.ErrorIs(t, table.Register(Entry{ID: 2, Type: "a"}), ErrDuplicateEntry)
}

func TestSets(t *testing.T) {
	table := Default()
	types, err := table.Set(SetClientPlayerAuthority)
	require.NoError(t, err)
	assert.Contains(t, types, TypeClient)
	assert.Contains(t, types, TypePosition)

	_, err = table.Set(9)
	assert.ErrorIs(t, err, ErrUnknownSet)
}

func TestMirroredTypesSorted(t *testing.T) {
	types := Default().MirroredTypes()
	assert.IsIncreasing(t, types)
	assert.Contains(t, types, TypeTileset)
	assert.NotContains(t, types, TypeMetadata)
}
