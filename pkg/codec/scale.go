package codec

import (
	"math/big"

	"github.com/cockroachdb/errors"
)

// ErrZeroDivisor is returned when a field is scaled by a divisor of 0
var ErrZeroDivisor = errors.New("scale divisor is 0")

// ErrOverflow is returned when a scaled result does not fit in an int64
var ErrOverflow = errors.New("scaled value overflows int64")

// scale returns raw * mult / div and raw * mult % div, both truncated toward
// zero like C integer division
func scale(raw *big.Int, mult, div int64) (quo, rem *big.Int) {
	n := new(big.Int).Mul(raw, big.NewInt(mult))
	return new(big.Int).QuoRem(n, big.NewInt(div), new(big.Int))
}

// Scaled is a raw value with its linear scale mult/div. It mirrors the
// MsgAttr<T,MULT,DIV> wrapper of the typed accessors: scaling only happens
// when the value is read.
type Scaled struct {
	Raw  Value
	Mult int64
	Div  int64
}

// IsIdentity reports whether reading the value leaves the raw value unchanged
func (s Scaled) IsIdentity() bool {
	return s.Mult == 1 && s.Div == 1
}

// Value returns raw * mult / div, truncated toward zero. The product is
// computed exactly, so unsigned 8 byte values keep their magnitude.
func (s Scaled) Value() (int64, error) {
	if s.Div == 0 {
		return 0, ErrZeroDivisor
	}
	quo, _ := scale(s.Raw.Big(), s.Mult, s.Div)
	if !quo.IsInt64() {
		return 0, errors.Wrapf(ErrOverflow, "%s * %d / %d", s.Raw, s.Mult, s.Div)
	}
	return quo.Int64(), nil
}

// Float returns raw * mult / div without truncation
func (s Scaled) Float() float64 {
	return s.Raw.Float64() * float64(s.Mult) / float64(s.Div)
}

// Quirks selects how the multi-view accessors compute their results
type Quirks int

const (
	// QuirksStrict reproduces the reference output: every view works on the
	// raw value narrowed to 16 bits unsigned, and _frac is the same
	// expression as _whole.
	QuirksStrict Quirks = iota
	// QuirksCorrected uses the field's real type for _raw and _whole, and
	// makes _frac the remainder of raw * mult / div.
	QuirksCorrected
)

func (q Quirks) String() string {
	switch q {
	case QuirksStrict:
		return "strict"
	case QuirksCorrected:
		return "corrected"
	default:
		return "unknown"
	}
}

// ParseQuirks converts a configuration string to a Quirks value
func ParseQuirks(s string) (Quirks, error) {
	switch s {
	case "", "strict":
		return QuirksStrict, nil
	case "corrected":
		return QuirksCorrected, nil
	}
	return QuirksStrict, errors.Newf("unknown quirks mode %q", s)
}

// Views holds the four results of the multi-view accessors of a field
type Views struct {
	Raw   Value
	Whole int64
	Frac  int64
	Flt   float32
}

// NewViews computes the _raw, _whole, _frac and _flt views of v
func NewViews(v Value, mult, div int64, q Quirks) (Views, error) {
	if div == 0 {
		return Views{}, ErrZeroDivisor
	}

	if q == QuirksStrict {
		raw := v.Uint16()
		whole := int64(uint16(int64(raw) * mult / div))
		return Views{
			Raw:   Value{Bits: uint64(raw), Size: 2},
			Whole: whole,
			Frac:  whole,
			Flt:   float32(raw) * float32(mult) / float32(div),
		}, nil
	}

	whole, frac := scale(v.Big(), mult, div)
	if !whole.IsInt64() || !frac.IsInt64() {
		return Views{}, errors.Wrapf(ErrOverflow, "%s * %d / %d", v, mult, div)
	}
	return Views{
		Raw:   v,
		Whole: whole.Int64(),
		Frac:  frac.Int64(),
		Flt:   float32(v.Float64()) * float32(mult) / float32(div),
	}, nil
}
