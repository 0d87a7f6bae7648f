package synth

import (
	"bytes"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/karlding/canmsggen/pkg/codec"
	"github.com/karlding/canmsggen/pkg/schema"
)

// DefaultStructFormat names the accessor struct of a group
const DefaultStructFormat = "RtMsg%02d_t"

// Mode selects the accessor style
type Mode string

const (
	// ModeTyped emits one accessor per field, wrapped in MsgAttr when the
	// field is scaled
	ModeTyped Mode = "typed"
	// ModeMultiView emits _raw, _whole, _frac and _flt accessors for every
	// field
	ModeMultiView Mode = "multiview"
)

// Options is shared by all strategies
type Options struct {
	StructFormat string
	Wide         bool
	Quirks       codec.Quirks
}

// Strategy turns a message group into the text of its accessor struct
type Strategy interface {
	Name() string
	Emit(w io.Writer, g *schema.Group) error
}

// New returns the strategy for mode
func New(mode Mode, opts Options) (Strategy, error) {
	if opts.StructFormat == "" {
		opts.StructFormat = DefaultStructFormat
	}

	switch mode {
	case ModeTyped, "":
		return &TypedScaled{opts: opts}, nil
	case ModeMultiView:
		return &MultiView{opts: opts}, nil
	}
	return nil, errors.Newf("unknown mode %q", mode)
}

// fieldEmitter writes the accessors of one field
type fieldEmitter func(buf *bytes.Buffer, f schema.Field, extract string) error

// emitGroup renders a group into a buffer and only writes it out once every
// field has been rendered
func emitGroup(w io.Writer, g *schema.Group, opts Options, emitField fieldEmitter) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "struct "+opts.StructFormat+"\n", g.ID)
	buf.WriteString("{\n")
	fmt.Fprintf(&buf, "  uint8_t data[%d];\n", schema.FrameSize)

	for _, f := range g.Fields {
		buf.WriteString("\n")
		fmt.Fprintf(&buf, "  // %s\n", f.Description)
		if f.HasUnits() {
			fmt.Fprintf(&buf, "  // units: %s\n", f.Units)
		}

		extract, err := extractExpr(f, opts.Wide)
		if err != nil {
			return errors.Wrapf(err, "group %d", g.ID)
		}
		if err := emitField(&buf, f, extract); err != nil {
			return errors.Wrapf(err, "group %d", g.ID)
		}
	}

	buf.WriteString("};\n")
	buf.WriteString("\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// extractExpr returns the C expression reading a field out of the data
// buffer. It must agree with codec.Extract.
func extractExpr(f schema.Field, wide bool) (string, error) {
	if err := codec.CheckSize(f, wide); err != nil {
		return "", err
	}

	switch f.Size {
	case 1:
		return fmt.Sprintf("data[%d]", f.OffsetInGroup), nil
	case 2:
		return fmt.Sprintf("MSG_GET_U16(data,%d)", f.OffsetInGroup), nil
	case 4:
		return fmt.Sprintf("MSG_GET_U32(data,%d)", f.OffsetInGroup), nil
	default:
		return fmt.Sprintf("MSG_GET_U64(data,%d)", f.OffsetInGroup), nil
	}
}
