// collections_test.go: Tests for ordered card collections
package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retroview/retroview-go/internal/errors"
)

func seedCards(t *testing.T, ds *DataStore, uuids ...string) {
	t.Helper()
	for _, uuid := range uuids {
		require.NoError(t, ds.InsertCard(&Card{UUID: uuid}))
	}
}

func TestCreateAndGetCollection(t *testing.T) {
	ds := setupTestDB(t)

	created, err := ds.CreateCollection("Rocky Mountains")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := ds.GetCollection("Rocky Mountains")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Empty(t, got.Cards)
}

func TestCreateCollectionDuplicateName(t *testing.T) {
	ds := setupTestDB(t)

	_, err := ds.CreateCollection("Favorites")
	require.NoError(t, err)
	_, err = ds.CreateCollection("Favorites")
	assert.Error(t, err)
}

func TestAddCardPreservesOrder(t *testing.T) {
	ds := setupTestDB(t)
	seedCards(t, ds, "a", "b", "c")
	_, err := ds.CreateCollection("trip")
	require.NoError(t, err)

	require.NoError(t, ds.AddCardToCollection("trip", "b"))
	require.NoError(t, ds.AddCardToCollection("trip", "a"))
	require.NoError(t, ds.AddCardToCollection("trip", "c"))

	cards, err := ds.ResolveCollection("trip")
	require.NoError(t, err)
	uuids := cardUUIDs(cards)
	assert.Equal(t, []string{"b", "a", "c"}, uuids)
}

func TestAddCardTwiceIsNoOp(t *testing.T) {
	ds := setupTestDB(t)
	seedCards(t, ds, "a")
	_, err := ds.CreateCollection("trip")
	require.NoError(t, err)

	require.NoError(t, ds.AddCardToCollection("trip", "a"))
	require.NoError(t, ds.AddCardToCollection("trip", "a"))

	cards, err := ds.ResolveCollection("trip")
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}

func TestRemoveCardKeepsRelativeOrder(t *testing.T) {
	ds := setupTestDB(t)
	seedCards(t, ds, "a", "b", "c")
	_, err := ds.CreateCollection("trip")
	require.NoError(t, err)
	for _, uuid := range []string{"a", "b", "c"} {
		require.NoError(t, ds.AddCardToCollection("trip", uuid))
	}

	require.NoError(t, ds.RemoveCardFromCollection("trip", "b"))

	cards, err := ds.ResolveCollection("trip")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, cardUUIDs(cards))
}

func TestReorderCollectionIsFullReplace(t *testing.T) {
	ds := setupTestDB(t)
	seedCards(t, ds, "a", "b", "c")
	_, err := ds.CreateCollection("trip")
	require.NoError(t, err)
	for _, uuid := range []string{"a", "b", "c"} {
		require.NoError(t, ds.AddCardToCollection("trip", uuid))
	}

	require.NoError(t, ds.ReorderCollection("trip", []string{"c", "a", "b"}))

	cards, err := ds.ResolveCollection("trip")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, cardUUIDs(cards))
}

func TestResolveCollectionSkipsDanglingReferences(t *testing.T) {
	ds := setupTestDB(t)
	seedCards(t, ds, "a", "c")
	_, err := ds.CreateCollection("trip")
	require.NoError(t, err)

	// "ghost" was never stored; the reference dangles.
	require.NoError(t, ds.ReorderCollection("trip", []string{"a", "ghost", "c"}))

	cards, err := ds.ResolveCollection("trip")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, cardUUIDs(cards))
}

func TestDeleteCollectionLeavesCards(t *testing.T) {
	ds := setupTestDB(t)
	seedCards(t, ds, "a")
	_, err := ds.CreateCollection("trip")
	require.NoError(t, err)
	require.NoError(t, ds.AddCardToCollection("trip", "a"))

	require.NoError(t, ds.DeleteCollection("trip"))

	_, err = ds.GetCollection("trip")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	exists, err := ds.CardExists("a")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCollectionOpsOnMissingCollection(t *testing.T) {
	ds := setupTestDB(t)

	assert.True(t, errors.IsNotFound(ds.AddCardToCollection("nope", "a")))
	assert.True(t, errors.IsNotFound(ds.RemoveCardFromCollection("nope", "a")))
	assert.True(t, errors.IsNotFound(ds.ReorderCollection("nope", nil)))
	assert.True(t, errors.IsNotFound(ds.DeleteCollection("nope")))
}

func cardUUIDs(cards []Card) []string {
	uuids := make([]string, 0, len(cards))
	for i := range cards {
		uuids = append(uuids, cards[i].UUID)
	}
	return uuids
}
