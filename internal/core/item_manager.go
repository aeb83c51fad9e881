package core

import (
	"errors"
	"sync"

	"github.com/johanneslatzel/storm/storeerr"
)

// ErrNotLoaded is returned by Get when the entry exists but its payload
// has not been read from disk yet (as opposed to the entry not existing
// at all, which is KindNotFound). It never escapes the storm package:
// Store.Get checks it with errors.Is and triggers a disk read instead of
// surfacing it to the caller.
var ErrNotLoaded = errors.New("core: item payload not loaded")

// ItemManager is the in-memory index mapping StoreID to its CacheEntry.
type ItemManager[T any] struct {
	mu    sync.Mutex
	items map[StoreID]CacheEntry[T]
}

// NewItemManager returns an empty ItemManager.
func NewItemManager[T any]() *ItemManager[T] {
	return &ItemManager[T]{items: make(map[StoreID]CacheEntry[T])}
}

// NewItem installs an entry for d with no cached payload.
func (im *ItemManager[T]) NewItem(d Description) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.items[d.ID] = CacheEntry[T]{Description: d}
}

// SetEntry replaces the whole entry for id.
func (im *ItemManager[T]) SetEntry(id StoreID, entry CacheEntry[T]) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.items[id] = entry
}

// SetPayload updates the cached payload for id, preserving its
// Description.
func (im *ItemManager[T]) SetPayload(id StoreID, payload T) error {
	im.mu.Lock()
	defer im.mu.Unlock()
	entry, ok := im.items[id]
	if !ok {
		return storeerr.New(storeerr.KindNotFound, "ItemManager.SetPayload", nil)
	}
	entry.Payload = payload
	entry.Loaded = true
	im.items[id] = entry
	return nil
}

// Get returns the Item for id. If the entry exists but has no cached
// payload, it returns ErrNotLoaded instead of the usual KindNotFound
// error.
func (im *ItemManager[T]) Get(id StoreID) (Item[T], error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	entry, ok := im.items[id]
	if !ok {
		return Item[T]{}, storeerr.New(storeerr.KindNotFound, "ItemManager.Get", nil)
	}
	if !entry.Loaded {
		return Item[T]{}, ErrNotLoaded
	}
	return Item[T]{ID: id, Payload: entry.Payload}, nil
}

// Remove drops the entry for id.
func (im *ItemManager[T]) Remove(id StoreID) {
	im.mu.Lock()
	defer im.mu.Unlock()
	delete(im.items, id)
}

// Contains reports whether id has a live entry.
func (im *ItemManager[T]) Contains(id StoreID) bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	_, ok := im.items[id]
	return ok
}

// GetStoreLocation returns the current DataRange for id.
func (im *ItemManager[T]) GetStoreLocation(id StoreID) (DataRange, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	entry, ok := im.items[id]
	if !ok {
		return DataRange{}, storeerr.New(storeerr.KindNotFound, "ItemManager.GetStoreLocation", nil)
	}
	return entry.Description.Range, nil
}

// GetStoreIndex returns the current description-slot Index for id.
func (im *ItemManager[T]) GetStoreIndex(id StoreID) (Index, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	entry, ok := im.items[id]
	if !ok {
		return 0, storeerr.New(storeerr.KindNotFound, "ItemManager.GetStoreIndex", nil)
	}
	return entry.Description.Index, nil
}

// ClearCache drops the cached payload from every entry, keeping
// descriptions.
func (im *ItemManager[T]) ClearCache() {
	im.mu.Lock()
	defer im.mu.Unlock()
	for id, entry := range im.items {
		var zero T
		entry.Payload = zero
		entry.Loaded = false
		im.items[id] = entry
	}
}

// IDs returns a snapshot of every live StoreID. No ordering is
// guaranteed.
func (im *ItemManager[T]) IDs() []StoreID {
	im.mu.Lock()
	defer im.mu.Unlock()
	ids := make([]StoreID, 0, len(im.items))
	for id := range im.items {
		ids = append(ids, id)
	}
	return ids
}

// Len is the number of live entries.
func (im *ItemManager[T]) Len() int {
	im.mu.Lock()
	defer im.mu.Unlock()
	return len(im.items)
}
