package imagecache

import (
	"context"
	"image"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThumbnailPrefersRemoteTier(t *testing.T) {
	cache := newTestCache(t)
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=X&t=t",
		httpmock.NewBytesResponder(http.StatusOK, jpegBytes(t, 24, 24)))

	thumb, err := cache.Thumbnail(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, 24, thumb.Bounds().Dx())
}

func TestThumbnailFallsBackToLocalRender(t *testing.T) {
	cache := newTestCache(t)
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=X&t=t",
		httpmock.NewStringResponder(http.StatusNotFound, "no thumbnail tier"))
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=X&t=w",
		httpmock.NewBytesResponder(http.StatusOK, jpegBytes(t, 640, 480)))

	thumb, err := cache.Thumbnail(context.Background(), "X")
	require.NoError(t, err)

	// ThumbnailSize is 32 in the test settings; the long edge is scaled to
	// it with aspect ratio preserved.
	assert.Equal(t, 32, thumb.Bounds().Dx())
	assert.Equal(t, 24, thumb.Bounds().Dy())

	// The render result is cached; a second request does no new work.
	again, err := cache.Thumbnail(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, thumb, again)
}

func TestThumbnailConcurrentRequestsCoalesce(t *testing.T) {
	cache := newTestCache(t)
	var fetches atomic.Int32
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=X&t=t",
		func(req *http.Request) (*http.Response, error) {
			fetches.Add(1)
			return httpmock.NewBytesResponse(http.StatusOK, jpegBytes(t, 16, 16)), nil
		})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Thumbnail(context.Background(), "X")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), fetches.Load())
}

func TestThumbnailSharedFetchSurvivesInitiatorCancel(t *testing.T) {
	cache := newTestCache(t)
	started := make(chan struct{})
	release := make(chan struct{})
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=X&t=t",
		func(req *http.Request) (*http.Response, error) {
			close(started)
			<-release
			return httpmock.NewBytesResponse(http.StatusOK, jpegBytes(t, 16, 16)), nil
		})

	// The initiator starts the shared fetch, then gives up.
	initiatorCtx, cancel := context.WithCancel(context.Background())
	initiatorDone := make(chan error, 1)
	go func() {
		_, err := cache.Thumbnail(initiatorCtx, "X")
		initiatorDone <- err
	}()
	<-started

	// A second caller joins the in-flight fetch.
	survivorDone := make(chan struct{})
	var survivorThumb image.Image
	var survivorErr error
	go func() {
		defer close(survivorDone)
		survivorThumb, survivorErr = cache.Thumbnail(context.Background(), "X")
	}()

	// Give the survivor time to join before the initiator gives up.
	time.Sleep(20 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-initiatorDone, context.Canceled)

	close(release)
	<-survivorDone
	require.NoError(t, survivorErr)
	assert.Equal(t, 16, survivorThumb.Bounds().Dx())
}

func TestScaleToFit(t *testing.T) {
	tests := []struct {
		name           string
		w, h, maxEdge  int
		wantW, wantH   int
	}{
		{"landscape downscale", 640, 480, 32, 32, 24},
		{"portrait downscale", 480, 640, 32, 24, 32},
		{"already small passes through", 20, 10, 32, 20, 10},
		{"square", 100, 100, 50, 50, 50},
		{"extreme aspect clamps to one pixel", 1000, 1, 100, 100, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := scaleToFit(testImage(tc.w, tc.h), tc.maxEdge)
			assert.Equal(t, tc.wantW, got.Bounds().Dx())
			assert.Equal(t, tc.wantH, got.Bounds().Dy())
		})
	}
}
