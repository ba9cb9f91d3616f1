package imagecache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCachePutGet(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Put("abc-w", []byte("payload")))
	data, ok := cache.Get("abc-w")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), data)

	_, ok = cache.Get("absent")
	assert.False(t, ok)
}

func TestDiskCacheCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	_, err := NewDiskCache(dir)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDiskCacheSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewDiskCache(dir)
	require.NoError(t, err)

	require.NoError(t, cache.Put("../escape/attempt", []byte("x")))
	data, ok := cache.Get("../escape/attempt")
	require.True(t, ok)
	assert.Equal(t, []byte("x"), data)

	// Everything stays inside the cache directory.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDiskCacheClear(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Put("a", []byte("1")))
	require.NoError(t, cache.Put("b", []byte("2")))
	require.NoError(t, cache.Clear())

	_, ok := cache.Get("a")
	assert.False(t, ok)
	_, ok = cache.Get("b")
	assert.False(t, ok)
}

func TestDiskCacheOverwrite(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Put("a", []byte("old")))
	require.NoError(t, cache.Put("a", []byte("new")))
	data, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), data)
}
