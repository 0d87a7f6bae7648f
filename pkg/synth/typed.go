package synth

import (
	"bytes"
	"fmt"
	"io"

	"github.com/karlding/canmsggen/pkg/codec"
	"github.com/karlding/canmsggen/pkg/schema"
)

// TypedScaled emits a single accessor per field. Scaled fields return a
// MsgAttr<T,MULT,DIV> which applies the scale when read, other fields
// return the raw integer.
//
//	MsgAttr<uint16_t,1,10> baro() const {return MSG_GET_U16(data,0);}
//	uint16_t seconds() {return MSG_GET_U16(data,0);}
type TypedScaled struct {
	opts Options
}

// Name implements Strategy
func (s *TypedScaled) Name() string {
	return string(ModeTyped)
}

// Emit implements Strategy
func (s *TypedScaled) Emit(w io.Writer, g *schema.Group) error {
	return emitGroup(w, g, s.opts, s.emitField)
}

func (s *TypedScaled) emitField(buf *bytes.Buffer, f schema.Field, extract string) error {
	ctype := codec.CType(f.Size, f.Signed)
	if f.IsScaled() {
		fmt.Fprintf(buf, "  MsgAttr<%s,%d,%d> %s() const {return %s;}\n", ctype, f.Mult, f.Div, f.Name, extract)
	} else {
		fmt.Fprintf(buf, "  %s %s() {return %s;}\n", ctype, f.Name, extract)
	}
	return nil
}
