package codec

import (
	"encoding/binary"
	"strconv"

	"go.einride.tech/can"

	"github.com/karlding/canmsggen/pkg/schema"
)

// UnsupportedSizeError is returned for a field width that has no extraction
// rule
type UnsupportedSizeError struct {
	Field string
	Size  int
}

func (e *UnsupportedSizeError) Error() string {
	return "field " + strconv.Quote(e.Field) + ": unsupported size " + strconv.Itoa(e.Size)
}

// OutOfRangeError is returned when a field does not fit inside the frame
type OutOfRangeError struct {
	Field  string
	Offset int
	Size   int
}

func (e *OutOfRangeError) Error() string {
	return "field " + strconv.Quote(e.Field) + ": " + strconv.Itoa(e.Size) + " bytes at offset " +
		strconv.Itoa(e.Offset) + " are outside the frame"
}

// CheckSize reports whether size has an extraction rule. 8 byte fields only
// have one when wide is set.
func CheckSize(f schema.Field, wide bool) error {
	switch f.Size {
	case 1, 2, 4:
		return nil
	case 8:
		if wide {
			return nil
		}
	}
	return &UnsupportedSizeError{Field: f.Name, Size: f.Size}
}

// inFrame reports whether the field's bytes lie inside the frame. The end
// offset is never computed so huge offsets cannot wrap around.
func inFrame(f schema.Field) bool {
	return f.OffsetInGroup >= 0 && f.Size >= 0 && f.OffsetInGroup <= schema.FrameSize-f.Size
}

// Extract reads the raw bits of a field out of a frame.
//
// Multi-byte fields are stored most significant byte first, which is what
// MSG_GET_U16 and MSG_GET_U32 undo on the little endian controller:
//
// +------+------+------+------+
// | MSB  |      |      | LSB  |  data[off] .. data[off+size-1]
// +------+------+------+------+
func Extract(data can.Data, f schema.Field, wide bool) (Value, error) {
	if err := CheckSize(f, wide); err != nil {
		return Value{}, err
	}
	if !inFrame(f) {
		return Value{}, &OutOfRangeError{Field: f.Name, Offset: f.OffsetInGroup, Size: f.Size}
	}

	b := data[f.OffsetInGroup:f.End()]
	v := Value{Size: f.Size, Signed: f.Signed}
	switch f.Size {
	case 1:
		v.Bits = uint64(b[0])
	case 2:
		v.Bits = uint64(binary.BigEndian.Uint16(b))
	case 4:
		v.Bits = uint64(binary.BigEndian.Uint32(b))
	case 8:
		v.Bits = binary.BigEndian.Uint64(b)
	}
	return v, nil
}

// Put writes the raw bits of v into the frame at the field's offset, using
// the same byte order as Extract
func Put(data *can.Data, f schema.Field, v uint64) error {
	if !inFrame(f) {
		return &OutOfRangeError{Field: f.Name, Offset: f.OffsetInGroup, Size: f.Size}
	}

	b := data[f.OffsetInGroup:f.End()]
	switch f.Size {
	case 1:
		b[0] = uint8(v)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(v))
	case 8:
		binary.BigEndian.PutUint64(b, v)
	default:
		return &UnsupportedSizeError{Field: f.Name, Size: f.Size}
	}
	return nil
}
