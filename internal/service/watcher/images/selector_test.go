package images_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/darkkaiser/resale-watcher/internal/service/watcher/images"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageDir(t *testing.T, names ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("jpg"), 0o644))
	}

	return dir
}

func TestSelector_Select(t *testing.T) {
	t.Parallel()

	t.Run("FloorKeywordWinsOverSector", func(t *testing.T) {
		t.Parallel()

		dir := newImageDir(t, "pista.jpg", "100.jpg", "200.jpg")
		selector := images.NewSelector(dir)

		path, ok := selector.Select("Pista Standing", "217")

		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, "pista.jpg"), path)
	})

	t.Run("GoldenKeywordPicksPremiumImage", func(t *testing.T) {
		t.Parallel()

		dir := newImageDir(t, "golden.jpg")
		selector := images.NewSelector(dir)

		path, ok := selector.Select("Golden Circle", "100")

		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, "golden.jpg"), path)
	})

	t.Run("SectorPicksLargestThresholdNotAbove", func(t *testing.T) {
		t.Parallel()

		dir := newImageDir(t, "100.jpg", "200.jpg", "300.jpg")
		selector := images.NewSelector(dir)

		path, ok := selector.Select("General", "250")

		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, "200.jpg"), path)
	})

	t.Run("ExactSectorMatch", func(t *testing.T) {
		t.Parallel()

		dir := newImageDir(t, "100.jpg", "200.jpg")
		selector := images.NewSelector(dir)

		path, ok := selector.Select("General", "200")

		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, "200.jpg"), path)
	})

	t.Run("SectorBelowEveryThreshold", func(t *testing.T) {
		t.Parallel()

		dir := newImageDir(t, "100.jpg", "200.jpg")
		selector := images.NewSelector(dir)

		_, ok := selector.Select("General", "50")

		assert.False(t, ok)
	})

	t.Run("NonNumericSector", func(t *testing.T) {
		t.Parallel()

		dir := newImageDir(t, "100.jpg")
		selector := images.NewSelector(dir)

		_, ok := selector.Select("General", "Balcony")

		assert.False(t, ok)
	})

	t.Run("IgnoresFilesThatAreNotSectorThresholds", func(t *testing.T) {
		t.Parallel()

		dir := newImageDir(t, "readme.txt", "map.png", "100.jpg")
		selector := images.NewSelector(dir)

		path, ok := selector.Select("General", "150")

		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, "100.jpg"), path)
	})

	t.Run("MissingCategoryFile", func(t *testing.T) {
		t.Parallel()

		dir := newImageDir(t, "100.jpg")
		selector := images.NewSelector(dir)

		_, ok := selector.Select("Pista", "100")

		assert.False(t, ok)
	})

	t.Run("MissingCategoryFileIsLogged", func(t *testing.T) {
		hook := test.NewGlobal()
		defer hook.Reset()

		dir := newImageDir(t, "100.jpg")
		selector := images.NewSelector(dir)

		_, ok := selector.Select("Golden Circle", "100")
		assert.False(t, ok)

		var warning *logrus.Entry
		for _, entry := range hook.AllEntries() {
			if entry.Level == logrus.WarnLevel && entry.Data["path"] == filepath.Join(dir, "golden.jpg") {
				warning = entry
				break
			}
		}
		require.NotNil(t, warning)
		assert.Contains(t, warning.Message, "category image is missing")
	})

	t.Run("EmptyDirectoryDisablesSelection", func(t *testing.T) {
		t.Parallel()

		selector := images.NewSelector("")

		_, ok := selector.Select("Pista", "100")

		assert.False(t, ok)
	})
}
