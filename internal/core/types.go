// Package core implements the three components coordinating logical
// identifiers, description slots, data locations, and cached payloads:
// FileManager, LocationManager, and ItemManager. None of it is exported
// outside the module; only storm.Store constructs and drives it.
package core

// StoreID is a 64-bit identifier for a live item. Allocated monotonically
// and never reused, even after the item holding it is deleted.
type StoreID uint64

// Index names a fixed-size position in the description file. Reusable:
// once an item is deleted its Index is handed out to the next allocation.
type Index uint64

// DataRange is a half-open [Offset, Offset+Length) byte range into the
// data file.
type DataRange struct {
	Offset int64
	Length int64
}

// End is the exclusive end of the range.
func (r DataRange) End() int64 { return r.Offset + r.Length }

// Description is the fixed-size on-disk record backing one description
// slot: a liveness flag plus the StoreID and DataRange it currently
// names.
type Description struct {
	Live  bool
	ID    StoreID
	Index Index
	Range DataRange
}

// CacheEntry pairs a Description with an optional deserialized payload.
type CacheEntry[T any] struct {
	Description Description
	Payload     T
	Loaded      bool
}

// Item is the immutable (StoreID, Payload) pair handed back to callers.
type Item[T any] struct {
	ID      StoreID
	Payload T
}
