package imagecache

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retroview/retroview-go/internal/datastore"
)

// fakeStore records image writes and serves a fixed card list.
type fakeStore struct {
	mu         sync.Mutex
	images     map[string][]byte // uuid+side -> data
	appearance map[string]string // uuid -> background hex
	cards      []datastore.Card
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		images:     make(map[string][]byte),
		appearance: make(map[string]string),
	}
}

func (s *fakeStore) SaveCardImage(uuid, side string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[uuid+"/"+side] = data
	return nil
}

func (s *fakeStore) SetCardAppearance(uuid, backgroundHex string, opacity float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appearance[uuid] = backgroundHex
	return nil
}

func (s *fakeStore) CardsWithoutImage(side string) ([]datastore.Card, error) {
	return s.cards, nil
}

func (s *fakeStore) saved(uuid, side string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.images[uuid+"/"+side]
	return data, ok
}

func TestPopulateQueueStoresBothSides(t *testing.T) {
	cache := newTestCache(t)
	front := jpegBytes(t, 16, 16)
	back := jpegBytes(t, 16, 8)
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=IMG_F&t=w",
		httpmock.NewBytesResponder(http.StatusOK, front))
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=IMG_B&t=w",
		httpmock.NewBytesResponder(http.StatusOK, back))

	store := newFakeStore()
	queue := NewPopulateQueue(store, cache, 2)
	queue.EnqueueCardImages("uuid-1", "IMG_F", "IMG_B")
	queue.Stop()

	data, ok := store.saved("uuid-1", datastore.SideFront)
	require.True(t, ok)
	assert.Equal(t, front, data)
	data, ok = store.saved("uuid-1", datastore.SideBack)
	require.True(t, ok)
	assert.Equal(t, back, data)

	// The front image drives the derived appearance.
	store.mu.Lock()
	hex, ok := store.appearance["uuid-1"]
	store.mu.Unlock()
	require.True(t, ok)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, hex)
}

func TestPopulateQueueSwallowsFetchFailures(t *testing.T) {
	cache := newTestCache(t)
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=IMG_F&t=w",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	store := newFakeStore()
	queue := NewPopulateQueue(store, cache, 1)
	queue.EnqueueCardImages("uuid-1", "IMG_F", "")
	queue.Stop()

	_, ok := store.saved("uuid-1", datastore.SideFront)
	assert.False(t, ok)
}

func TestPopulateQueueSkipsEmptySides(t *testing.T) {
	cache := newTestCache(t)
	store := newFakeStore()
	queue := NewPopulateQueue(store, cache, 1)
	queue.EnqueueCardImages("uuid-1", "", "")
	queue.Stop()
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestPrefetchMissingThumbnails(t *testing.T) {
	cache := newTestCache(t)
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=IMG_1&t=t",
		httpmock.NewBytesResponder(http.StatusOK, jpegBytes(t, 8, 8)))
	httpmock.RegisterResponder(http.MethodGet,
		"https://images.example.org/index.php?id=IMG_2&t=t",
		httpmock.NewStringResponder(http.StatusNotFound, "missing"))

	store := newFakeStore()
	store.cards = []datastore.Card{
		{UUID: "u1", FrontImageID: "IMG_1"},
		{UUID: "u2", FrontImageID: "IMG_2"}, // failure is logged, not fatal
		{UUID: "u3"},                        // no image id, skipped
	}

	prefetcher := NewPrefetcher(store, cache)
	prefetcher.chunkDelay = time.Millisecond
	require.NoError(t, prefetcher.PrefetchMissingThumbnails(context.Background()))

	_, ok := cache.mem.Get(CacheKey("IMG_1", QualityThumbnail))
	assert.True(t, ok)
}

func TestPrefetchCancelled(t *testing.T) {
	cache := newTestCache(t)
	store := newFakeStore()
	store.cards = []datastore.Card{{UUID: "u1", FrontImageID: "IMG_1"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewPrefetcher(store, cache).PrefetchMissingThumbnails(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
