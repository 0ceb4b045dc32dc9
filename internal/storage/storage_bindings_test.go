package storage

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "store.json"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBindingRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.SetBinding("g1", "c1", Binding{Server: "main", Map: "chernarus"}))

	b := s.GetBinding("g1", "c1")
	require.NotNil(t, b)
	assert.Equal(t, "main", b.Server)
	assert.Equal(t, "chernarus", b.Map)

	assert.Nil(t, s.GetBinding("g1", "other"))
	assert.Nil(t, s.GetBinding("other-guild", "c1"))
}

func TestBindingUniquenessEviction(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.SetBinding("g1", "c1", Binding{Server: "main", Map: "livonia"}))
	require.NoError(t, s.SetBinding("g1", "c2", Binding{Server: "main", Map: "livonia"}))

	assert.Nil(t, s.GetBinding("g1", "c1"), "older binding for the same dataset must be evicted")

	b := s.GetBinding("g1", "c2")
	require.NotNil(t, b)
	assert.Equal(t, Binding{Server: "main", Map: "livonia"}, *b)
}

func TestBindingEvictionScopedToGuild(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.SetBinding("g1", "c1", Binding{Server: "main", Map: "namalsk"}))
	require.NoError(t, s.SetBinding("g2", "c1", Binding{Server: "main", Map: "namalsk"}))

	assert.NotNil(t, s.GetBinding("g1", "c1"), "same dataset in another guild must not evict")
	assert.NotNil(t, s.GetBinding("g2", "c1"))
}

func TestBindingDistinctDatasetsCoexist(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.SetBinding("g1", "c1", Binding{Server: "main", Map: "livonia"}))
	require.NoError(t, s.SetBinding("g1", "c2", Binding{Server: "main", Map: "sakhal"}))
	require.NoError(t, s.SetBinding("g1", "c3", Binding{Server: "hardcore", Map: "livonia"}))

	all := s.AllBindings("g1")
	assert.Len(t, all, 3)
}

func TestRebindSameChannelOverwrites(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.SetBinding("g1", "c1", Binding{Server: "main", Map: "livonia"}))
	require.NoError(t, s.SetBinding("g1", "c1", Binding{Server: "main", Map: "sakhal"}))

	b := s.GetBinding("g1", "c1")
	require.NotNil(t, b)
	assert.Equal(t, "sakhal", b.Map)
	assert.Len(t, s.AllBindings("g1"), 1)
}

func TestRemoveBinding(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.SetBinding("g1", "c1", Binding{Server: "main", Map: "banov"}))
	require.NoError(t, s.RemoveBinding("g1", "c1"))
	assert.Nil(t, s.GetBinding("g1", "c1"))

	// Removing a never-bound channel is a no-op.
	require.NoError(t, s.RemoveBinding("g1", "ghost"))
}

func TestCommandHistoryCapped(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < commandHistoryLimit+5; i++ {
		require.NoError(t, s.AppendCommandToHistory("g1", CommandHistoryRecord{Command: "update"}))
	}

	history, err := s.CommandHistory("g1")
	require.NoError(t, err)
	assert.Len(t, history, commandHistoryLimit)
}
