package core

import (
	"container/list"
	"encoding/binary"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/johanneslatzel/storm/buffer"
	"github.com/johanneslatzel/storm/storeconfig"
	"github.com/johanneslatzel/storm/storeerr"
)

// FileManager owns the three files backing a store: the description file
// (fixed-size slots addressed by Index), the data file (byte-ranged
// payloads), and the id file (a single monotonic counter). It performs
// all positioned I/O and recovers slot/free-list state in Initialize.
//
// All three files are opened with O_SYNC, so every WriteAt and Truncate
// below reaches stable storage before returning, with no separate flush
// step required.
type FileManager struct {
	cfg storeconfig.Config

	descFile *os.File
	dataFile *os.File
	idFile   *os.File

	mu           sync.Mutex
	freeIndexes  *list.List
	freeIndexSet map[Index]*list.Element
	totalSlots   Index
	dataFileSize int64
}

// NewFileManager constructs a FileManager for cfg. Initialize must be
// called before any other method.
func NewFileManager(cfg storeconfig.Config) *FileManager {
	return &FileManager{
		cfg:          cfg,
		freeIndexes:  list.New(),
		freeIndexSet: make(map[Index]*list.Element),
	}
}

// Initialize opens (creating if absent) the three backing files and scans
// the description file for live slots. It returns every live Description
// found; slots with live=false are folded into the free-slot list.
func (fm *FileManager) Initialize(buf *buffer.Buffer) ([]Description, error) {
	if err := os.MkdirAll(fm.cfg.StoreDirectory(), 0o755); err != nil {
		return nil, storeerr.New(storeerr.KindIO, "FileManager.Initialize", err)
	}

	var err error
	if fm.descFile, err = openSynced(fm.cfg.DescriptionFilePath()); err != nil {
		return nil, storeerr.New(storeerr.KindIO, "FileManager.Initialize", err)
	}
	if fm.dataFile, err = openSynced(fm.cfg.DataFilePath()); err != nil {
		return nil, storeerr.New(storeerr.KindIO, "FileManager.Initialize", err)
	}
	if fm.idFile, err = openSynced(fm.cfg.IDFilePath()); err != nil {
		return nil, storeerr.New(storeerr.KindIO, "FileManager.Initialize", err)
	}

	idInfo, err := fm.idFile.Stat()
	if err != nil {
		return nil, storeerr.New(storeerr.KindIO, "FileManager.Initialize", err)
	}
	if idInfo.Size() == 0 {
		if err := fm.writeIDCounter(1); err != nil {
			return nil, err
		}
	}

	dataInfo, err := fm.dataFile.Stat()
	if err != nil {
		return nil, storeerr.New(storeerr.KindIO, "FileManager.Initialize", err)
	}
	fm.dataFileSize = dataInfo.Size()

	descInfo, err := fm.descFile.Stat()
	if err != nil {
		return nil, storeerr.New(storeerr.KindIO, "FileManager.Initialize", err)
	}
	if descInfo.Size()%DescriptionSlotSize != 0 {
		return nil, storeerr.New(storeerr.KindCorruption, "FileManager.Initialize",
			errors.Errorf("description file size %d is not a multiple of slot size %d", descInfo.Size(), DescriptionSlotSize))
	}
	fm.totalSlots = Index(descInfo.Size() / DescriptionSlotSize)

	live := make([]Description, 0, fm.totalSlots)
	slot := make([]byte, DescriptionSlotSize)
	for i := Index(0); i < fm.totalSlots; i++ {
		if _, err := fm.descFile.ReadAt(slot, int64(i)*DescriptionSlotSize); err != nil {
			return nil, storeerr.New(storeerr.KindIO, "FileManager.Initialize", err)
		}
		buf.SetMode(buffer.ModeWrite)
		buf.PutBytes(slot)
		buf.SetMode(buffer.ModeRead)
		d := GetDescription(buf, i)
		if d.Live {
			live = append(live, d)
		} else {
			fm.pushFreeIndex(i)
		}
	}

	return live, nil
}

func openSynced(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_SYNC, 0o600)
}

func (fm *FileManager) pushFreeIndex(i Index) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if _, exists := fm.freeIndexSet[i]; exists {
		return
	}
	el := fm.freeIndexes.PushBack(i)
	fm.freeIndexSet[i] = el
}

func (fm *FileManager) popFreeIndex() (Index, bool) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	el := fm.freeIndexes.Front()
	if el == nil {
		return 0, false
	}
	fm.freeIndexes.Remove(el)
	idx := el.Value.(Index)
	delete(fm.freeIndexSet, idx)
	return idx, true
}

// WriteDescription writes exactly one slot's bytes at index*slotSize. buf
// must be in buffer.ModeRead with exactly DescriptionSlotSize bytes
// pending.
func (fm *FileManager) WriteDescription(index Index, buf *buffer.Buffer) error {
	if buf.Mode() != buffer.ModeRead {
		return storeerr.New(storeerr.KindInvalidState, "FileManager.WriteDescription",
			errors.New("buffer must be in Read mode"))
	}
	if buf.TransferableData() != DescriptionSlotSize {
		return storeerr.New(storeerr.KindCorruption, "FileManager.WriteDescription",
			errors.Errorf("expected %d bytes, got %d", DescriptionSlotSize, buf.TransferableData()))
	}
	slot := buf.GetBytes(DescriptionSlotSize)
	if _, err := fm.descFile.WriteAt(slot, int64(index)*DescriptionSlotSize); err != nil {
		return storeerr.New(storeerr.KindIO, "FileManager.WriteDescription", err)
	}
	fm.mu.Lock()
	if index >= fm.totalSlots {
		fm.totalSlots = index + 1
	}
	fm.mu.Unlock()
	return nil
}

// ClearDescription overwrites the live byte of the given slot with 0. The
// rest of the slot may remain stale.
func (fm *FileManager) ClearDescription(index Index) error {
	if _, err := fm.descFile.WriteAt([]byte{0}, int64(index)*DescriptionSlotSize); err != nil {
		return storeerr.New(storeerr.KindIO, "FileManager.ClearDescription", err)
	}
	return nil
}

// AddEmptyIndex records index as reusable.
func (fm *FileManager) AddEmptyIndex(index Index) {
	fm.pushFreeIndex(index)
}

// CreateNewStoreCacheEntryDescription allocates a fresh identifier
// (incrementing and persisting the id counter) and chooses an Index (from
// the free-slot list if non-empty, else the next unused index), returning
// the Description to persist.
func (fm *FileManager) CreateNewStoreCacheEntryDescription(r DataRange) (Description, error) {
	id, err := fm.nextID()
	if err != nil {
		return Description{}, err
	}
	index, ok := fm.popFreeIndex()
	if !ok {
		fm.mu.Lock()
		index = fm.totalSlots
		fm.mu.Unlock()
	}
	return Description{Live: true, ID: id, Index: index, Range: r}, nil
}

func (fm *FileManager) nextID() (StoreID, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	var raw [8]byte
	if _, err := fm.idFile.ReadAt(raw[:], 0); err != nil {
		return 0, storeerr.New(storeerr.KindIO, "FileManager.nextID", err)
	}
	id := binary.BigEndian.Uint64(raw[:])
	binary.BigEndian.PutUint64(raw[:], id+1)
	if _, err := fm.idFile.WriteAt(raw[:], 0); err != nil {
		return 0, storeerr.New(storeerr.KindIO, "FileManager.nextID", err)
	}
	return StoreID(id), nil
}

func (fm *FileManager) writeIDCounter(v uint64) error {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], v)
	if _, err := fm.idFile.WriteAt(raw[:], 0); err != nil {
		return storeerr.New(storeerr.KindIO, "FileManager.writeIDCounter", err)
	}
	return nil
}

// ReadData reads range.Length bytes at range.Offset from the data file
// into buf, switching buf to buffer.ModeWrite first. The caller is
// expected to switch buf back to buffer.ModeRead to consume it.
func (fm *FileManager) ReadData(r DataRange, buf *buffer.Buffer) error {
	data := make([]byte, r.Length)
	if _, err := fm.dataFile.ReadAt(data, r.Offset); err != nil {
		return storeerr.New(storeerr.KindIO, "FileManager.ReadData", err)
	}
	buf.SetMode(buffer.ModeWrite)
	buf.PutBytes(data)
	return nil
}

// WriteData writes buf.TransferableData() bytes at range.Offset. buf must
// be in buffer.ModeRead. Fails with KindCorruption if the pending byte
// count does not equal range.Length.
func (fm *FileManager) WriteData(r DataRange, buf *buffer.Buffer) error {
	if buf.Mode() != buffer.ModeRead {
		return storeerr.New(storeerr.KindInvalidState, "FileManager.WriteData",
			errors.New("buffer must be in Read mode"))
	}
	if int64(buf.TransferableData()) != r.Length {
		return storeerr.New(storeerr.KindCorruption, "FileManager.WriteData",
			errors.Errorf("expected %d bytes, got %d", r.Length, buf.TransferableData()))
	}
	data := buf.GetBytes(buf.TransferableData())
	if _, err := fm.dataFile.WriteAt(data, r.Offset); err != nil {
		return storeerr.New(storeerr.KindIO, "FileManager.WriteData", err)
	}
	fm.mu.Lock()
	if end := r.End(); end > fm.dataFileSize {
		fm.dataFileSize = end
	}
	fm.mu.Unlock()
	return nil
}

// TrimDescriptionFileSize truncates the description file so its trailing
// boundary is the highest live Index+1, dropping any higher indices from
// the free-slot list.
func (fm *FileManager) TrimDescriptionFileSize() error {
	fm.mu.Lock()
	total := fm.totalSlots
	for total > 0 {
		el, ok := fm.freeIndexSet[total-1]
		if !ok {
			break
		}
		fm.freeIndexes.Remove(el)
		delete(fm.freeIndexSet, total-1)
		total--
	}
	fm.totalSlots = total
	fm.mu.Unlock()

	if err := fm.descFile.Truncate(int64(total) * DescriptionSlotSize); err != nil {
		return storeerr.New(storeerr.KindIO, "FileManager.TrimDescriptionFileSize", err)
	}
	return nil
}

// GetTotalSpace reports the current data-file length.
func (fm *FileManager) GetTotalSpace() int64 {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.dataFileSize
}

// SetDataFileLength truncates (or extends) the data file to n bytes.
// Exposed for the LocationManager's growth and trim paths.
func (fm *FileManager) SetDataFileLength(n int64) error {
	if err := fm.dataFile.Truncate(n); err != nil {
		return storeerr.New(storeerr.KindIO, "FileManager.SetDataFileLength", err)
	}
	fm.mu.Lock()
	fm.dataFileSize = n
	fm.mu.Unlock()
	return nil
}

// Close flushes and releases all three file handles.
func (fm *FileManager) Close() error {
	var errs []error
	if err := fm.descFile.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := fm.dataFile.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := fm.idFile.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return storeerr.New(storeerr.KindIO, "FileManager.Close", errors.Wrap(joinErrors(errs), "closing store files"))
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msg := errs[0].Error()
	for _, e := range errs[1:] {
		msg += "; " + e.Error()
	}
	return errors.New(msg)
}
