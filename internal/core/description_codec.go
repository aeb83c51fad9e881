package core

import "github.com/johanneslatzel/storm/buffer"

// DescriptionSlotSize is the fixed size, in bytes, of one description
// slot: live:u8 | storeId:u64be | offset:u64be | length:u64be.
const DescriptionSlotSize = 1 + 8 + 8 + 8

// PutDescription encodes d into buf, which must be in buffer.ModeWrite.
// The Index is not encoded: it is implied by the slot's position in the
// description file.
func PutDescription(buf *buffer.Buffer, d Description) {
	if d.Live {
		buf.PutU8(1)
	} else {
		buf.PutU8(0)
	}
	buf.PutU64(uint64(d.ID))
	buf.PutU64(uint64(d.Range.Offset))
	buf.PutU64(uint64(d.Range.Length))
}

// GetDescription decodes a single slot from buf, which must be in
// buffer.ModeRead, attaching the given Index (the slot's position, known
// only to the caller).
func GetDescription(buf *buffer.Buffer, index Index) Description {
	live := buf.GetU8() != 0
	id := StoreID(buf.GetU64())
	offset := int64(buf.GetU64())
	length := int64(buf.GetU64())
	return Description{
		Live:  live,
		ID:    id,
		Index: index,
		Range: DataRange{Offset: offset, Length: length},
	}
}
