package core

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/johanneslatzel/storm/storeconfig"
	"github.com/johanneslatzel/storm/storeerr"
)

// LocationManager owns the set of free byte ranges in the data file. It
// satisfies allocate(size) requests first-fit, accepts release(range),
// merges adjacent ranges on request, and shrinks the data file when tail
// space is free.
//
// Free ranges are kept as a slice sorted by Offset rather than a linked
// list: the merge pass this enables is a single linear scan, and an
// embedded store's free-range count stays small enough that insertion
// sort cost is immaterial.
type LocationManager struct {
	fm  *FileManager
	cfg storeconfig.Config

	mu    sync.Mutex
	free  []DataRange // sorted by Offset, non-overlapping
	total int64
}

// NewLocationManager constructs a LocationManager backed by fm.
func NewLocationManager(fm *FileManager, cfg storeconfig.Config) *LocationManager {
	return &LocationManager{fm: fm, cfg: cfg}
}

// Initialize computes the free set as the complement of the live ranges
// inside [0, dataFileSize). It must be called exactly once, after
// FileManager.Initialize.
func (lm *LocationManager) Initialize(live []Description) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.total = lm.fm.GetTotalSpace()

	ranges := make([]DataRange, 0, len(live))
	for _, d := range live {
		ranges = append(ranges, d.Range)
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Offset < ranges[j].Offset })

	lm.free = lm.free[:0]
	var cursor int64
	for _, r := range ranges {
		if r.Offset > cursor {
			lm.free = append(lm.free, DataRange{Offset: cursor, Length: r.Offset - cursor})
		}
		cursor = r.End()
	}
	if cursor < lm.total {
		lm.free = append(lm.free, DataRange{Offset: cursor, Length: lm.total - cursor})
	}
}

// GetFreeLocation returns a free range of exactly size bytes, growing the
// data file if no free range is large enough.
func (lm *LocationManager) GetFreeLocation(size int64) (DataRange, error) {
	if size <= 0 {
		return DataRange{}, storeerr.New(storeerr.KindInvalidArgument, "LocationManager.GetFreeLocation",
			errors.New("size must be positive"))
	}

	lm.mu.Lock()
	for i, r := range lm.free {
		if r.Length < size {
			continue
		}
		carved := DataRange{Offset: r.Offset, Length: size}
		if r.Length == size {
			lm.free = append(lm.free[:i], lm.free[i+1:]...)
		} else {
			lm.free[i] = DataRange{Offset: r.Offset + size, Length: r.Length - size}
		}
		lm.mu.Unlock()
		return carved, nil
	}
	lm.mu.Unlock()

	if err := lm.grow(size); err != nil {
		return DataRange{}, err
	}
	return lm.GetFreeLocation(size)
}

func (lm *LocationManager) grow(size int64) error {
	lm.mu.Lock()
	oldSize := lm.total
	growth := size
	if lm.cfg.MinimumDataFileSize > growth {
		growth = lm.cfg.MinimumDataFileSize
	}
	newSize := oldSize + growth
	lm.mu.Unlock()

	if err := lm.fm.SetDataFileLength(newSize); err != nil {
		return err
	}

	lm.mu.Lock()
	lm.total = newSize
	lm.free = append(lm.free, DataRange{Offset: oldSize, Length: newSize - oldSize})
	lm.mu.Unlock()
	return nil
}

// AddFreeLocation adds r to the free set without merging. Adjacent
// ranges are tolerated until MergeFreeLocations is called.
func (lm *LocationManager) AddFreeLocation(r DataRange) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if r.Length <= 0 || r.Offset < 0 || r.End() > lm.total {
		return storeerr.New(storeerr.KindCorruption, "LocationManager.AddFreeLocation",
			errors.Errorf("range %+v is not contained in [0, %d)", r, lm.total))
	}
	for _, f := range lm.free {
		if r.Offset < f.End() && f.Offset < r.End() {
			return storeerr.New(storeerr.KindCorruption, "LocationManager.AddFreeLocation",
				errors.Errorf("range %+v overlaps existing free range %+v", r, f))
		}
	}

	idx := sort.Search(len(lm.free), func(i int) bool { return lm.free[i].Offset >= r.Offset })
	lm.free = append(lm.free, DataRange{})
	copy(lm.free[idx+1:], lm.free[idx:])
	lm.free[idx] = r
	return nil
}

// MergeFreeLocations coalesces all pairs (a, b) where a.Offset+a.Length
// == b.Offset.
func (lm *LocationManager) MergeFreeLocations() {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if len(lm.free) == 0 {
		return
	}
	merged := make([]DataRange, 0, len(lm.free))
	merged = append(merged, lm.free[0])
	for _, r := range lm.free[1:] {
		last := &merged[len(merged)-1]
		if last.End() == r.Offset {
			last.Length += r.Length
			continue
		}
		merged = append(merged, r)
	}
	lm.free = merged
}

// TrimDataFile removes the highest-offset free range from the free set
// and truncates the data file by its length, if that range touches the
// end of the file. Call MergeFreeLocations first so the trailing free
// range is maximal.
func (lm *LocationManager) TrimDataFile() error {
	lm.mu.Lock()
	if len(lm.free) == 0 {
		lm.mu.Unlock()
		return nil
	}
	last := lm.free[len(lm.free)-1]
	if last.End() != lm.total {
		lm.mu.Unlock()
		return nil
	}
	newSize := last.Offset
	if newSize < 0 {
		newSize = 0
	}
	lm.free = lm.free[:len(lm.free)-1]
	lm.mu.Unlock()

	if err := lm.fm.SetDataFileLength(newSize); err != nil {
		return err
	}

	lm.mu.Lock()
	lm.total = newSize
	lm.mu.Unlock()
	return nil
}

// GetFreeSpace is the sum of all free range lengths.
func (lm *LocationManager) GetFreeSpace() int64 {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	var sum int64
	for _, r := range lm.free {
		sum += r.Length
	}
	return sum
}

// GetFreeLocationCount is the number of disjoint free ranges.
func (lm *LocationManager) GetFreeLocationCount() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.free)
}
