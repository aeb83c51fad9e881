package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanneslatzel/storm/storeerr"
)

func TestItemManagerGetBeforePayloadReturnsErrNotLoaded(t *testing.T) {
	im := NewItemManager[string]()
	im.NewItem(Description{Live: true, ID: 1, Index: 0, Range: DataRange{Offset: 0, Length: 4}})

	_, err := im.Get(1)
	assert.True(t, errors.Is(err, ErrNotLoaded))
}

func TestItemManagerSetPayloadThenGet(t *testing.T) {
	im := NewItemManager[string]()
	im.NewItem(Description{Live: true, ID: 1, Index: 0, Range: DataRange{Offset: 0, Length: 4}})
	require.NoError(t, im.SetPayload(1, "hello"))

	item, err := im.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "hello", item.Payload)
	assert.Equal(t, StoreID(1), item.ID)
}

func TestItemManagerGetUnknownIDReturnsNotFound(t *testing.T) {
	im := NewItemManager[string]()
	_, err := im.Get(42)
	assert.Error(t, err)
	assert.True(t, storeerr.Is(err, storeerr.KindNotFound))
	assert.False(t, errors.Is(err, ErrNotLoaded))
}

func TestItemManagerRemoveDropsContains(t *testing.T) {
	im := NewItemManager[string]()
	im.NewItem(Description{Live: true, ID: 1})
	require.True(t, im.Contains(1))
	im.Remove(1)
	assert.False(t, im.Contains(1))
}

func TestItemManagerClearCacheKeepsDescriptionDropsPayload(t *testing.T) {
	im := NewItemManager[string]()
	im.NewItem(Description{Live: true, ID: 1, Range: DataRange{Offset: 10, Length: 5}})
	require.NoError(t, im.SetPayload(1, "hi"))

	im.ClearCache()

	_, err := im.Get(1)
	assert.True(t, errors.Is(err, ErrNotLoaded))
	loc, err := im.GetStoreLocation(1)
	require.NoError(t, err)
	assert.Equal(t, DataRange{Offset: 10, Length: 5}, loc)
}

func TestItemManagerIDsAndLen(t *testing.T) {
	im := NewItemManager[int]()
	im.NewItem(Description{ID: 1})
	im.NewItem(Description{ID: 2})
	assert.Equal(t, 2, im.Len())
	assert.ElementsMatch(t, []StoreID{1, 2}, im.IDs())
}
