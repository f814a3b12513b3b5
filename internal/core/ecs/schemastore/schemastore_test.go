package schemastore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tailormade/ecs/internal/core/ecs/component"
	"github.com/tailormade/ecs/internal/core/ecs/value"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	schema, err := component.NewFromSchemaDoc(map[string]any{
		"name": "health",
		"data": map[string]any{"hp": "int"},
	})
	require.NoError(t, err)
	return New(schema)
}

func TestSubscribeIsIdempotent(t *testing.T) {
	s := newStore(t)
	s.Subscribe(1)
	c1, err := s.GetComponent(1)
	require.NoError(t, err)
	c1.Set("hp", value.Int(7))

	s.Subscribe(1) // no-op, must not reset hp
	c2, err := s.GetComponent(1)
	require.NoError(t, err)
	require.Equal(t, int32(7), component.Get[int32](c2, "hp"))
}

func TestSubscribeWithOverrides(t *testing.T) {
	s := newStore(t)
	s.SubscribeWithOverrides(1, map[string]value.V{"hp": value.Int(50)})

	c, err := s.GetComponent(1)
	require.NoError(t, err)
	require.Equal(t, int32(50), component.Get[int32](c, "hp"))
}

func TestUnsubscribeRemovesEntry(t *testing.T) {
	s := newStore(t)
	s.Subscribe(1)
	s.Unsubscribe(1)

	_, err := s.GetComponent(1)
	require.ErrorIs(t, err, ErrNotSubscribed)

	require.NotPanics(t, func() { s.Unsubscribe(1) })
}

func TestHasEntityRequiresActive(t *testing.T) {
	s := newStore(t)
	s.Subscribe(1)
	require.True(t, s.HasEntity(1))
	require.True(t, s.HasRawEntity(1))

	s.SetState(1, false)
	require.False(t, s.HasEntity(1))
	require.True(t, s.HasRawEntity(1), "inactive entity is still present, just not visible")

	require.False(t, s.HasEntity(2))
	require.False(t, s.State(2), "missing entity reads state as false")
}

func TestGetComponentFailsWhenAbsent(t *testing.T) {
	s := newStore(t)
	_, err := s.GetComponent(99)
	require.ErrorIs(t, err, ErrNotSubscribed)
}

func TestEntitiesFiltersInactiveUnlessRequested(t *testing.T) {
	s := newStore(t)
	s.Subscribe(1)
	s.Subscribe(2)
	s.SetState(2, false)

	require.ElementsMatch(t, []int64{1}, s.Entities(false))
	require.ElementsMatch(t, []int64{1, 2}, s.Entities(true))
}

func TestEntitiesEmptyStoreReturnsNil(t *testing.T) {
	s := newStore(t)
	require.Empty(t, s.Entities(true))
}

func TestGiveCopyPreservesGiver(t *testing.T) {
	s := newStore(t)
	s.Subscribe(1)
	c, _ := s.GetComponent(1)
	c.Set("hp", value.Int(10))

	s.Give(1, 2, true)

	require.True(t, s.HasRawEntity(1))
	recv, err := s.GetComponent(2)
	require.NoError(t, err)
	require.Equal(t, int32(10), component.Get[int32](recv, "hp"))
}

func TestGiveMoveErasesGiver(t *testing.T) {
	s := newStore(t)
	s.Subscribe(1)
	s.Give(1, 2, false)

	require.False(t, s.HasRawEntity(1))
	require.True(t, s.HasRawEntity(2))
}

func TestGiveNoOpWhenGiverAbsent(t *testing.T) {
	s := newStore(t)
	s.Give(42, 2, true)
	require.False(t, s.HasRawEntity(2))
}

func TestAppendTextCoversEveryInstance(t *testing.T) {
	s := newStore(t)
	s.Subscribe(1)
	s.Subscribe(2)

	var buf bytes.Buffer
	require.NoError(t, s.AppendText(&buf))
	require.Contains(t, buf.String(), "health:\n")
}
