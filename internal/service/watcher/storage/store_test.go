package storage_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeenOfferStore(t *testing.T) {
	t.Parallel()

	t.Run("MissingFileStartsEmpty", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "seen_offers.json")

		store, err := storage.NewSeenOfferStore(path)

		require.NoError(t, err)
		assert.Zero(t, store.Len())
		assert.False(t, store.Contains("o1"))
	})

	t.Run("CorruptFileStartsEmpty", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "seen_offers.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		store, err := storage.NewSeenOfferStore(path)

		require.NoError(t, err)
		assert.Zero(t, store.Len())
	})

	t.Run("Error_EmptyPath", func(t *testing.T) {
		t.Parallel()

		_, err := storage.NewSeenOfferStore("")

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})
}

func TestSeenOfferStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seen_offers.json")

	store, err := storage.NewSeenOfferStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Add("o1"))
	require.NoError(t, store.Add("o2"))
	require.NoError(t, store.Add("o1"))

	assert.True(t, store.Contains("o1"))
	assert.True(t, store.Contains("o2"))
	assert.False(t, store.Contains("o3"))
	assert.Equal(t, 2, store.Len())

	reloaded, err := storage.NewSeenOfferStore(path)
	require.NoError(t, err)

	assert.True(t, reloaded.Contains("o1"))
	assert.True(t, reloaded.Contains("o2"))
	assert.False(t, reloaded.Contains("o3"))
	assert.Equal(t, 2, reloaded.Len())
}

func TestSeenOfferStore_PersistsAsSortedIDList(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seen_offers.json")

	store, err := storage.NewSeenOfferStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Add("o2"))
	require.NoError(t, store.Add("o1"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var ids []string
	require.NoError(t, json.Unmarshal(data, &ids))
	assert.Equal(t, []string{"o1", "o2"}, ids)
}

func TestSeenOfferStore_CreatesContainingDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "seen_offers.json")

	store, err := storage.NewSeenOfferStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Add("o1"))

	reloaded, err := storage.NewSeenOfferStore(path)
	require.NoError(t, err)
	assert.True(t, reloaded.Contains("o1"))
}
