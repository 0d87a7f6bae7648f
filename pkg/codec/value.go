package codec

import (
	"math/big"
	"strconv"
)

// Value is the raw integer of a field at its declared width and signedness
type Value struct {
	Bits   uint64
	Size   int
	Signed bool
}

// Int64 returns the value sign extended from its declared width when signed,
// and zero extended otherwise. Unsigned 8 byte values of 2^63 and above do
// not fit and wrap negative; use Big or Uint64 for those.
func (v Value) Int64() int64 {
	if !v.Signed {
		return int64(v.Bits)
	}
	switch v.Size {
	case 1:
		return int64(int8(v.Bits))
	case 2:
		return int64(int16(v.Bits))
	case 4:
		return int64(int32(v.Bits))
	default:
		return int64(v.Bits)
	}
}

// Big returns the exact value at its declared width and signedness
func (v Value) Big() *big.Int {
	if !v.Signed {
		return new(big.Int).SetUint64(v.Bits)
	}
	return big.NewInt(v.Int64())
}

// Uint64 returns the raw bits
func (v Value) Uint64() uint64 {
	return v.Bits
}

// Uint16 narrows the raw bits to 16 bits
func (v Value) Uint16() uint16 {
	return uint16(v.Bits)
}

// Float64 returns the typed value as a float
func (v Value) Float64() float64 {
	if !v.Signed && v.Size == 8 {
		return float64(v.Bits)
	}
	return float64(v.Int64())
}

func (v Value) String() string {
	if v.Signed {
		return strconv.FormatInt(v.Int64(), 10)
	}
	return strconv.FormatUint(v.Bits, 10)
}

// CType returns the fixed width C integer type matching the declared width
// and signedness, e.g. uint16_t
func (v Value) CType() string {
	return CType(v.Size, v.Signed)
}

// CType returns the fixed width C integer type for size bytes
func CType(size int, signed bool) string {
	t := "int" + strconv.Itoa(size*8) + "_t"
	if !signed {
		t = "u" + t
	}
	return t
}
