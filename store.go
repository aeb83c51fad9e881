// Package storm is an embedded, single-process, persistent object store
// mapping opaque StoreIDs to user-supplied values serialized to
// variable-length byte payloads. Store composes a Buffer, FileManager,
// LocationManager and ItemManager into store/get/update/delete/
// contains/organize/close plus ad-hoc queries.
//
// A Store assumes single-threaded use: every public method asserts no
// other call is already in flight and panics rather than silently
// serializing concurrent callers.
package storm

import (
	"sync"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/johanneslatzel/storm/buffer"
	"github.com/johanneslatzel/storm/internal/core"
	"github.com/johanneslatzel/storm/storeconfig"
	"github.com/johanneslatzel/storm/storeerr"
)

// StoreID identifies a live item. Allocated monotonically and never
// reused, even after the item holding it is deleted.
type StoreID = core.StoreID

// Item is the immutable (StoreID, Payload) pair handed back to callers.
type Item[T any] = core.Item[T]

// PutFunc serializes value into the writable view of the store's shared
// buffer. Implementations must not retain w past the call.
type PutFunc[T any] func(value T, w buffer.Writable) error

// GetFunc deserializes exactly one value from the readable view of the
// store's shared buffer. Implementations must not retain r past the
// call.
type GetFunc[T any] func(r buffer.Readable) (T, error)

// Option customizes a Store at construction time.
type Option[T any] func(*Store[T])

// WithLogger sets the go-kit logger used for lifecycle and error
// logging. Defaults to a no-op logger.
func WithLogger[T any](logger kitlog.Logger) Option[T] {
	return func(s *Store[T]) { s.logger = logger }
}

// WithRegisterer sets a prometheus.Registerer to publish operation
// counters to. Defaults to nil, which disables metrics entirely.
func WithRegisterer[T any](reg prometheus.Registerer) Option[T] {
	return func(s *Store[T]) { s.registerer = reg }
}

// Store is the public façade. See the package doc for its concurrency
// contract.
type Store[T any] struct {
	cfg     storeconfig.Config
	fm      *core.FileManager
	lm      *core.LocationManager
	im      *core.ItemManager[T]
	buf     *buffer.Buffer
	putInto PutFunc[T]
	getFrom GetFunc[T]

	logger     kitlog.Logger
	registerer prometheus.Registerer
	metrics    *storeMetrics

	guard  sync.Mutex
	closed bool
}

// Open creates or recovers a store at cfg.StoreDirectory(), using putInto
// and getFrom to serialize and deserialize values of type T.
func Open[T any](cfg storeconfig.Config, putInto PutFunc[T], getFrom GetFunc[T], opts ...Option[T]) (*Store[T], error) {
	if putInto == nil || getFrom == nil {
		return nil, storeerr.New(storeerr.KindInvalidArgument, "Open",
			errors.New("putInto and getFrom must not be nil"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, storeerr.New(storeerr.KindInvalidArgument, "Open", err)
	}

	s := &Store[T]{
		cfg:     cfg,
		fm:      core.NewFileManager(cfg),
		im:      core.NewItemManager[T](),
		buf:     buffer.New(cfg.ByteBufferSize),
		putInto: putInto,
		getFrom: getFrom,
		logger:  kitlog.NewNopLogger(),
	}
	s.lm = core.NewLocationManager(s.fm, cfg)

	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newStoreMetrics(s.registerer)

	live, err := s.fm.Initialize(s.buf)
	if err != nil {
		level.Error(s.logger).Log("msg", "failed to initialize store", "store", cfg.StoreName, "err", err)
		return nil, err
	}
	s.lm.Initialize(live)
	for _, d := range live {
		s.im.NewItem(d)
	}

	level.Info(s.logger).Log("msg", "store opened", "store", cfg.StoreName, "liveItems", len(live))
	return s, nil
}

func (s *Store[T]) lock(op string) {
	if !s.guard.TryLock() {
		panic("storm: " + op + ": concurrent access detected; Store is not safe for concurrent use")
	}
}

func (s *Store[T]) unlock() {
	s.guard.Unlock()
}

func (s *Store[T]) assureOpen(op string) error {
	if s.closed {
		return storeerr.New(storeerr.KindClosed, op, nil)
	}
	return nil
}

// serialize stages value into s.buf via s.putInto, leaving the buffer in
// ModeRead afterward. A Buffer mode violation is a programmer error, so
// it panics inside putInto; this recovers it at the Store boundary and
// turns it into a KindInvalidState error instead of crashing the
// caller's process.
func (s *Store[T]) serialize(value T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = storeerr.New(storeerr.KindInvalidState, "Store.serialize", errors.Errorf("%v", r))
		}
	}()
	s.buf.SetMode(buffer.ModeWrite)
	if perr := s.putInto(value, s.buf); perr != nil {
		return storeerr.New(storeerr.KindInvalidArgument, "Store.serialize", perr)
	}
	s.buf.SetMode(buffer.ModeRead)
	return nil
}

func (s *Store[T]) decode() (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = storeerr.New(storeerr.KindInvalidState, "Store.decode", errors.Errorf("%v", r))
		}
	}()
	v, gerr := s.getFrom(s.buf)
	if gerr != nil {
		return v, storeerr.New(storeerr.KindCorruption, "Store.decode", gerr)
	}
	return v, nil
}

func (s *Store[T]) saveDescription(d core.Description) error {
	core.PutDescription(s.buf, d)
	s.buf.SetMode(buffer.ModeRead)
	if err := s.fm.WriteDescription(d.Index, s.buf); err != nil {
		return err
	}
	s.buf.SetMode(buffer.ModeWrite)
	return nil
}

// Store serializes value, persists it, and installs a cache entry for
// it, returning the new Item.
func (s *Store[T]) Store(value T) (Item[T], error) {
	s.lock("Store")
	defer s.unlock()

	if err := s.assureOpen("Store"); err != nil {
		return Item[T]{}, err
	}

	if err := s.serialize(value); err != nil {
		return Item[T]{}, err
	}

	loc, err := s.lm.GetFreeLocation(int64(s.buf.TransferableData()))
	if err != nil {
		return Item[T]{}, err
	}
	if err := s.fm.WriteData(loc, s.buf); err != nil {
		return Item[T]{}, err
	}
	s.buf.SetMode(buffer.ModeWrite)

	desc, err := s.fm.CreateNewStoreCacheEntryDescription(loc)
	if err != nil {
		return Item[T]{}, err
	}
	if err := s.saveDescription(desc); err != nil {
		return Item[T]{}, err
	}

	s.im.NewItem(desc)
	if err := s.im.SetPayload(desc.ID, value); err != nil {
		return Item[T]{}, err
	}

	s.metrics.observeStore(loc.Length)
	return Item[T]{ID: desc.ID, Payload: value}, nil
}

// Update re-serializes value into a fresh DataRange, persists the new
// description in the item's existing slot, and only then releases the
// old range: a crash between the two writes leaves either the old or the
// new state fully consistent, never a mix of both.
func (s *Store[T]) Update(id StoreID, value T) (Item[T], error) {
	s.lock("Update")
	defer s.unlock()

	if err := s.assureOpen("Update"); err != nil {
		return Item[T]{}, err
	}
	if !s.im.Contains(id) {
		return Item[T]{}, storeerr.New(storeerr.KindNotFound, "Update", nil)
	}

	oldRange, err := s.im.GetStoreLocation(id)
	if err != nil {
		return Item[T]{}, err
	}
	index, err := s.im.GetStoreIndex(id)
	if err != nil {
		return Item[T]{}, err
	}

	if err := s.serialize(value); err != nil {
		return Item[T]{}, err
	}

	newRange, err := s.lm.GetFreeLocation(int64(s.buf.TransferableData()))
	if err != nil {
		return Item[T]{}, err
	}
	if err := s.fm.WriteData(newRange, s.buf); err != nil {
		return Item[T]{}, err
	}
	s.buf.SetMode(buffer.ModeWrite)

	desc := core.Description{Live: true, ID: id, Index: index, Range: newRange}
	if err := s.saveDescription(desc); err != nil {
		return Item[T]{}, err
	}

	if err := s.lm.AddFreeLocation(oldRange); err != nil {
		return Item[T]{}, err
	}

	s.im.SetEntry(id, core.CacheEntry[T]{Description: desc, Payload: value, Loaded: true})

	s.metrics.observeUpdate(newRange.Length)
	return Item[T]{ID: id, Payload: value}, nil
}

func (s *Store[T]) cacheFromDisk(id StoreID) error {
	loc, err := s.im.GetStoreLocation(id)
	if err != nil {
		return err
	}
	if err := s.fm.ReadData(loc, s.buf); err != nil {
		return err
	}
	s.buf.SetMode(buffer.ModeRead)

	value, err := s.decode()
	if err != nil {
		return err
	}
	s.buf.SetMode(buffer.ModeWrite)

	return s.im.SetPayload(id, value)
}

// Get returns the item for id, reading it from disk on first access and
// serving cached payloads afterward.
func (s *Store[T]) Get(id StoreID) (Item[T], error) {
	s.lock("Get")
	defer s.unlock()

	if err := s.assureOpen("Get"); err != nil {
		return Item[T]{}, err
	}
	if !s.im.Contains(id) {
		return Item[T]{}, storeerr.New(storeerr.KindNotFound, "Get", nil)
	}

	item, err := s.im.Get(id)
	if errors.Is(err, core.ErrNotLoaded) {
		if cerr := s.cacheFromDisk(id); cerr != nil {
			return Item[T]{}, cerr
		}
		item, err = s.im.Get(id)
	}
	if err != nil {
		return Item[T]{}, err
	}

	s.metrics.observeGet()
	return item, nil
}

// Delete clears the item's description slot, frees its slot index and
// data range, and drops its cache entry.
func (s *Store[T]) Delete(id StoreID) error {
	s.lock("Delete")
	defer s.unlock()

	if err := s.assureOpen("Delete"); err != nil {
		return err
	}
	if !s.im.Contains(id) {
		return storeerr.New(storeerr.KindNotFound, "Delete", nil)
	}

	loc, err := s.im.GetStoreLocation(id)
	if err != nil {
		return err
	}
	index, err := s.im.GetStoreIndex(id)
	if err != nil {
		return err
	}

	if err := s.fm.ClearDescription(index); err != nil {
		return err
	}
	s.fm.AddEmptyIndex(index)
	s.im.Remove(id)

	if err := s.lm.AddFreeLocation(loc); err != nil {
		return err
	}

	s.metrics.observeDelete()
	return nil
}

// Contains reports whether id currently names a live item. Always false
// once the store is closed.
func (s *Store[T]) Contains(id StoreID) bool {
	s.lock("Contains")
	defer s.unlock()
	if s.closed {
		return false
	}
	return s.im.Contains(id)
}

// Organize opportunistically compacts the store: it trims the
// description file, merges adjacent free data ranges, and trims the
// data file tail. It never moves live data.
func (s *Store[T]) Organize() error {
	s.lock("Organize")
	defer s.unlock()

	if err := s.assureOpen("Organize"); err != nil {
		return err
	}
	if err := s.fm.TrimDescriptionFileSize(); err != nil {
		return err
	}
	s.lm.MergeFreeLocations()
	if err := s.lm.TrimDataFile(); err != nil {
		return err
	}
	return nil
}

// GetTotalSpace is the current data-file length.
func (s *Store[T]) GetTotalSpace() int64 {
	s.lock("GetTotalSpace")
	defer s.unlock()
	return s.fm.GetTotalSpace()
}

// GetFreeSpace is the sum of all free data ranges.
func (s *Store[T]) GetFreeSpace() int64 {
	s.lock("GetFreeSpace")
	defer s.unlock()
	return s.lm.GetFreeSpace()
}

// GetUsedSpace is GetTotalSpace() - GetFreeSpace().
func (s *Store[T]) GetUsedSpace() int64 {
	return s.GetTotalSpace() - s.GetFreeSpace()
}

// ClearCache drops every cached payload, keeping descriptions.
func (s *Store[T]) ClearCache() {
	s.lock("ClearCache")
	defer s.unlock()
	s.im.ClearCache()
}

// IsClosed reports whether Close has been called.
func (s *Store[T]) IsClosed() bool {
	return s.closed
}

// Close is idempotent. After Close, Store, Update, Get, Delete and
// Organize fail with KindClosed and Contains reports false. GetTotalSpace,
// GetFreeSpace, GetUsedSpace, ClearCache and IsClosed do not check
// whether the store is closed, and Query methods fail only once they
// read an item through Get.
func (s *Store[T]) Close() error {
	s.lock("Close")
	defer s.unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	level.Info(s.logger).Log("msg", "store closing", "store", s.cfg.StoreName)
	return s.fm.Close()
}
