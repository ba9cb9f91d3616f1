package imagecache

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retroview/retroview-go/internal/conf"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	return &conf.Settings{
		ImageService: conf.ImageServiceSettings{
			BaseURL:        "https://images.example.org/index.php",
			TimeoutSeconds: 5,
			RatePerSecond:  1000,
			Concurrency:    4,
			FailureTTLMin:  1,
		},
		Cache: conf.CacheSettings{
			MemoryLimitBytes: 1 << 20,
			DiskPath:         t.TempDir(),
			ThumbnailSize:    32,
			Concurrency:      2,
		},
	}
}

// jpegBytes encodes a solid image of the given size.
func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := New(testSettings(t))
	require.NoError(t, err)
	httpmock.ActivateNonDefault(cache.fetcher.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return cache
}

func TestCacheGetFetchesAndBackfills(t *testing.T) {
	cache := newTestCache(t)
	payload := jpegBytes(t, 64, 48)
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=G90F186_030F&t=w",
		httpmock.NewBytesResponder(http.StatusOK, payload))

	img, err := cache.Get(context.Background(), "G90F186_030F", QualityStandard)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())

	// Second get is served from memory, not the network.
	_, err = cache.Get(context.Background(), "G90F186_030F", QualityStandard)
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	// The encoded bytes landed on disk.
	data, ok := cache.disk.Get(CacheKey("G90F186_030F", QualityStandard))
	require.True(t, ok)
	assert.Equal(t, payload, data)
}

func TestCacheGetServesFromDiskAfterMemoryClear(t *testing.T) {
	cache := newTestCache(t)
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=G90F186_030F&t=w",
		httpmock.NewBytesResponder(http.StatusOK, jpegBytes(t, 16, 16)))

	_, err := cache.Get(context.Background(), "G90F186_030F", QualityStandard)
	require.NoError(t, err)

	cache.ClearMemory()
	_, err = cache.Get(context.Background(), "G90F186_030F", QualityStandard)
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestCacheGetDownloadFailure(t *testing.T) {
	cache := newTestCache(t)
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=missing&t=w",
		httpmock.NewStringResponder(http.StatusNotFound, "no such image"))

	_, err := cache.Get(context.Background(), "missing", QualityStandard)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDownloadFailed)
}

func TestCacheGetDecodeFailure(t *testing.T) {
	cache := newTestCache(t)
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=garbage&t=w",
		httpmock.NewStringResponder(http.StatusOK, "this is not a JPEG"))

	_, err := cache.Get(context.Background(), "garbage", QualityStandard)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecodeFailed)

	// Nothing was cached for the broken payload.
	_, ok := cache.disk.Get(CacheKey("garbage", QualityStandard))
	assert.False(t, ok)
}

func TestCacheQualityTiersAreDistinctEntries(t *testing.T) {
	cache := newTestCache(t)
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=X&t=t",
		httpmock.NewBytesResponder(http.StatusOK, jpegBytes(t, 8, 8)))
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=X&t=q",
		httpmock.NewBytesResponder(http.StatusOK, jpegBytes(t, 128, 128)))

	thumb, err := cache.Get(context.Background(), "X", QualityThumbnail)
	require.NoError(t, err)
	high, err := cache.Get(context.Background(), "X", QualityHigh)
	require.NoError(t, err)

	assert.Equal(t, 8, thumb.Bounds().Dx())
	assert.Equal(t, 128, high.Bounds().Dx())
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestCacheGetBytes(t *testing.T) {
	cache := newTestCache(t)
	payload := jpegBytes(t, 16, 16)
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=Y&t=w",
		httpmock.NewBytesResponder(http.StatusOK, payload))

	data, err := cache.GetBytes(context.Background(), "Y", QualityStandard)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	// Disk tier satisfies the repeat call.
	_, err = cache.GetBytes(context.Background(), "Y", QualityStandard)
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestQualityTokens(t *testing.T) {
	assert.Equal(t, "t", QualityThumbnail.Token())
	assert.Equal(t, "w", QualityStandard.Token())
	assert.Equal(t, "q", QualityHigh.Token())
	assert.Equal(t, "abc-t", CacheKey("abc", QualityThumbnail))
}
