package synth

import (
	"bytes"
	"fmt"
	"io"

	"github.com/karlding/canmsggen/pkg/codec"
	"github.com/karlding/canmsggen/pkg/schema"
)

// MultiView emits four accessors for every field, whether or not it is
// scaled. With strict quirks the output matches the reference firmware
// headers: _raw and _whole are uint16_t whatever the field's width, and
// _frac repeats the _whole expression.
type MultiView struct {
	opts Options
}

// Name implements Strategy
func (s *MultiView) Name() string {
	return string(ModeMultiView)
}

// Emit implements Strategy
func (s *MultiView) Emit(w io.Writer, g *schema.Group) error {
	return emitGroup(w, g, s.opts, s.emitField)
}

func (s *MultiView) emitField(buf *bytes.Buffer, f schema.Field, extract string) error {
	if f.Div == 0 {
		return codec.ErrZeroDivisor
	}

	if s.opts.Quirks == codec.QuirksStrict {
		fmt.Fprintf(buf, "  uint16_t %s_raw() const {return %s;}\n", f.Name, extract)
		fmt.Fprintf(buf, "  uint16_t %s_whole() const {return (uint16_t)(%s_raw() * %d / %d);}\n", f.Name, f.Name, f.Mult, f.Div)
		fmt.Fprintf(buf, "  uint16_t %s_frac() const {return (uint16_t)(%s_raw() * %d / %d);}\n", f.Name, f.Name, f.Mult, f.Div)
	} else if !f.Signed && f.Size == 8 {
		// Casting a uint64_t above INT64_MAX first would flip its sign.
		fmt.Fprintf(buf, "  uint64_t %s_raw() const {return %s;}\n", f.Name, extract)
		fmt.Fprintf(buf, "  int64_t %s_whole() const {return (int64_t)(%s_raw() * %d / %d);}\n", f.Name, f.Name, f.Mult, f.Div)
		fmt.Fprintf(buf, "  int64_t %s_frac() const {return (int64_t)(%s_raw() * %d %% %d);}\n", f.Name, f.Name, f.Mult, f.Div)
	} else {
		fmt.Fprintf(buf, "  %s %s_raw() const {return %s;}\n", codec.CType(f.Size, f.Signed), f.Name, extract)
		fmt.Fprintf(buf, "  int64_t %s_whole() const {return (int64_t)%s_raw() * %d / %d;}\n", f.Name, f.Name, f.Mult, f.Div)
		fmt.Fprintf(buf, "  int64_t %s_frac() const {return (int64_t)%s_raw() * %d %% %d;}\n", f.Name, f.Name, f.Mult, f.Div)
	}
	fmt.Fprintf(buf, "  float %s_flt() const {return %s_raw() * (float)%d / (float)%d;}\n", f.Name, f.Name, f.Mult, f.Div)
	return nil
}
