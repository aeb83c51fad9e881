// Package buffer implements a reusable, mode-switched byte staging area.
// A single Buffer is reused to stage both descriptions and payloads so
// that neither the description codec nor a put/get callback needs to
// allocate a fresh []byte per call.
package buffer

import (
	"encoding/binary"
	"fmt"
)

// Mode selects which view of a Buffer is active.
type Mode int

const (
	// ModeWrite is the default mode: callers append bytes and the read
	// cursor stays pinned at the start of the buffer.
	ModeWrite Mode = iota
	// ModeRead lets callers consume bytes staged in ModeWrite.
	ModeRead
)

func (m Mode) String() string {
	if m == ModeRead {
		return "Read"
	}
	return "Write"
}

// ModeError reports a put/get call issued against the wrong Mode.
type ModeError struct {
	Want Mode
	Got  Mode
}

func (e ModeError) Error() string {
	return fmt.Sprintf("buffer: expected %s mode, got %s mode", e.Want, e.Got)
}

// Writable is the capability set available in ModeWrite.
type Writable interface {
	PutU8(v uint8)
	PutU16(v uint16)
	PutU32(v uint32)
	PutU64(v uint64)
	PutBytes(p []byte)
}

// Readable is the capability set available in ModeRead.
type Readable interface {
	GetU8() uint8
	GetU16() uint16
	GetU32() uint32
	GetU64() uint64
	GetBytes(n int) []byte
}

var (
	_ Writable = (*Buffer)(nil)
	_ Readable = (*Buffer)(nil)
)

// Buffer is a bounded, growable byte buffer with the Write and Read views
// folded into one mode-checked object (spec permits either shape; this
// module picks the single-object form). capacity is only a growth hint:
// the buffer reallocates past it on demand.
type Buffer struct {
	data     []byte
	mode     Mode
	writeLen int
	readPos  int
}

// New returns a Buffer starting in ModeWrite with the given capacity hint.
func New(capacityHint int) *Buffer {
	if capacityHint <= 0 {
		capacityHint = 64
	}
	return &Buffer{data: make([]byte, 0, capacityHint)}
}

// Mode reports the active mode.
func (b *Buffer) Mode() Mode { return b.mode }

// SetMode switches the active view. Switching to ModeWrite discards any
// previously staged content and resets the write cursor to the start, since
// a Buffer stages exactly one record at a time. Switching to ModeRead
// resets the read cursor to the start of the region populated by the prior
// ModeWrite, making that whole region available for consumption.
func (b *Buffer) SetMode(m Mode) {
	b.mode = m
	switch m {
	case ModeWrite:
		b.data = b.data[:0]
		b.writeLen = 0
	case ModeRead:
		b.readPos = 0
	}
}

// TransferableData reports how many bytes are pending transfer: the
// populated length in ModeWrite, or the remaining unread length in
// ModeRead.
func (b *Buffer) TransferableData() int {
	if b.mode == ModeWrite {
		return b.writeLen
	}
	return b.writeLen - b.readPos
}

func (b *Buffer) requireWrite() {
	if b.mode != ModeWrite {
		panic(ModeError{Want: ModeWrite, Got: b.mode})
	}
}

func (b *Buffer) requireRead() {
	if b.mode != ModeRead {
		panic(ModeError{Want: ModeRead, Got: b.mode})
	}
}

func (b *Buffer) grow(n int) {
	need := b.writeLen + n
	if need <= cap(b.data) {
		return
	}
	grown := make([]byte, b.writeLen, need*2)
	copy(grown, b.data[:b.writeLen])
	b.data = grown
}

func (b *Buffer) mustHaveUnread(n int) {
	if b.readPos+n > b.writeLen {
		panic(fmt.Errorf("buffer: short read: need %d bytes, have %d", n, b.writeLen-b.readPos))
	}
}

// PutU8 appends a single byte.
func (b *Buffer) PutU8(v uint8) {
	b.requireWrite()
	b.grow(1)
	b.data = append(b.data[:b.writeLen], v)
	b.writeLen++
}

// PutU16 appends a big-endian uint16.
func (b *Buffer) PutU16(v uint16) {
	b.requireWrite()
	b.grow(2)
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.data = append(b.data[:b.writeLen], tmp[:]...)
	b.writeLen += 2
}

// PutU32 appends a big-endian uint32.
func (b *Buffer) PutU32(v uint32) {
	b.requireWrite()
	b.grow(4)
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.data = append(b.data[:b.writeLen], tmp[:]...)
	b.writeLen += 4
}

// PutU64 appends a big-endian uint64.
func (b *Buffer) PutU64(v uint64) {
	b.requireWrite()
	b.grow(8)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.data = append(b.data[:b.writeLen], tmp[:]...)
	b.writeLen += 8
}

// PutBytes appends p verbatim.
func (b *Buffer) PutBytes(p []byte) {
	b.requireWrite()
	b.grow(len(p))
	b.data = append(b.data[:b.writeLen], p...)
	b.writeLen += len(p)
}

// GetU8 consumes a single byte.
func (b *Buffer) GetU8() uint8 {
	b.requireRead()
	b.mustHaveUnread(1)
	v := b.data[b.readPos]
	b.readPos++
	return v
}

// GetU16 consumes a big-endian uint16.
func (b *Buffer) GetU16() uint16 {
	b.requireRead()
	b.mustHaveUnread(2)
	v := binary.BigEndian.Uint16(b.data[b.readPos : b.readPos+2])
	b.readPos += 2
	return v
}

// GetU32 consumes a big-endian uint32.
func (b *Buffer) GetU32() uint32 {
	b.requireRead()
	b.mustHaveUnread(4)
	v := binary.BigEndian.Uint32(b.data[b.readPos : b.readPos+4])
	b.readPos += 4
	return v
}

// GetU64 consumes a big-endian uint64.
func (b *Buffer) GetU64() uint64 {
	b.requireRead()
	b.mustHaveUnread(8)
	v := binary.BigEndian.Uint64(b.data[b.readPos : b.readPos+8])
	b.readPos += 8
	return v
}

// GetBytes consumes and returns the next n bytes. The returned slice
// aliases the Buffer's backing array: callers must not retain it past the
// current call, since the next SetMode(ModeWrite) reuses the array.
func (b *Buffer) GetBytes(n int) []byte {
	b.requireRead()
	b.mustHaveUnread(n)
	p := b.data[b.readPos : b.readPos+n]
	b.readPos += n
	return p
}
