package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriteThenRead(t *testing.T) {
	b := New(16)

	b.PutU8(7)
	b.PutU16(0x1234)
	b.PutU32(0xdeadbeef)
	b.PutU64(0x0102030405060708)
	b.PutBytes([]byte("payload"))

	require.Equal(t, 1+2+4+8+len("payload"), b.TransferableData())

	b.SetMode(ModeRead)
	assert.Equal(t, uint8(7), b.GetU8())
	assert.Equal(t, uint16(0x1234), b.GetU16())
	assert.Equal(t, uint32(0xdeadbeef), b.GetU32())
	assert.Equal(t, uint64(0x0102030405060708), b.GetU64())
	assert.Equal(t, []byte("payload"), b.GetBytes(len("payload")))
	assert.Equal(t, 0, b.TransferableData())
}

func TestBufferGrowsPastCapacityHint(t *testing.T) {
	b := New(1)
	large := make([]byte, 4096)
	for i := range large {
		large[i] = byte(i)
	}
	b.PutBytes(large)
	b.SetMode(ModeRead)
	assert.Equal(t, large, b.GetBytes(len(large)))
}

func TestSetModeWriteResetsContent(t *testing.T) {
	b := New(16)
	b.PutU8(1)
	b.SetMode(ModeWrite)
	assert.Equal(t, 0, b.TransferableData())
}

func TestSetModeReadResetsCursorToStart(t *testing.T) {
	b := New(16)
	b.PutU8(1)
	b.PutU8(2)
	b.SetMode(ModeRead)
	b.GetU8()
	b.SetMode(ModeRead)
	assert.Equal(t, uint8(1), b.GetU8())
}

func TestWriteInReadModePanics(t *testing.T) {
	b := New(16)
	b.SetMode(ModeRead)
	assert.PanicsWithValue(t, ModeError{Want: ModeWrite, Got: ModeRead}, func() {
		b.PutU8(1)
	})
}

func TestReadInWriteModePanics(t *testing.T) {
	b := New(16)
	assert.PanicsWithValue(t, ModeError{Want: ModeRead, Got: ModeWrite}, func() {
		b.GetU8()
	})
}

func TestShortReadPanics(t *testing.T) {
	b := New(16)
	b.PutU8(1)
	b.SetMode(ModeRead)
	assert.Panics(t, func() {
		b.GetU64()
	})
}
