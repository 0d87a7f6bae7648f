package codec

import (
	"strconv"
	"strings"

	"go.einride.tech/can"

	"github.com/cockroachdb/errors"

	"github.com/karlding/canmsggen/pkg/schema"
)

// Options controls how fields are decoded
type Options struct {
	// Wide enables the 64 bit extraction rule for 8 byte fields
	Wide   bool
	Quirks Quirks
}

// Reading is a decoded field, projected through both accessor styles
type Reading struct {
	Field  schema.Field
	Raw    Value
	Scaled Scaled
	Views  Views
}

// TruncatedFrameError is returned by DecodeFrame when a frame is shorter
// than its group's layout. Missing lists the fields that were not decoded.
type TruncatedFrameError struct {
	ID      uint32
	Length  int
	Missing []string
}

func (e *TruncatedFrameError) Error() string {
	return "frame 0x" + strings.ToUpper(strconv.FormatUint(uint64(e.ID), 16)) + " has " +
		strconv.Itoa(e.Length) + " data bytes, missing fields " + strings.Join(e.Missing, ",")
}

// DecodeField decodes a single field of a frame
func DecodeField(data can.Data, f schema.Field, opts Options) (Reading, error) {
	raw, err := Extract(data, f, opts.Wide)
	if err != nil {
		return Reading{}, err
	}

	views, err := NewViews(raw, int64(f.Mult), int64(f.Div), opts.Quirks)
	if err != nil {
		return Reading{}, errors.Wrapf(err, "field %q", f.Name)
	}

	return Reading{
		Field:  f,
		Raw:    raw,
		Scaled: Scaled{Raw: raw, Mult: int64(f.Mult), Div: int64(f.Div)},
		Views:  views,
	}, nil
}

// DecodeGroup decodes every field of a group, in schema order
func DecodeGroup(g *schema.Group, data can.Data, opts Options) ([]Reading, error) {
	readings := make([]Reading, 0, len(g.Fields))
	for _, f := range g.Fields {
		r, err := DecodeField(data, f, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "group %d", g.ID)
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// DecodeFrame decodes a broadcast frame. The group is selected by the
// frame's offset from the base id. A frame shorter than the group's layout
// returns the readings that fit along with a *TruncatedFrameError.
//
// Realtime broadcast identifiers:
//
// +-----------------------------+
// | baseId + 0 | group 0        |
// +-----------------------------+
// | baseId + 1 | group 1        |
// +-----------------------------+
// | ...                         |
// +-----------------------------+
func DecodeFrame(groups []*schema.Group, baseID uint32, frame can.Frame, opts Options) (*schema.Group, []Reading, error) {
	if frame.IsRemote || frame.IsExtended {
		return nil, nil, errors.Newf("frame 0x%X is not a standard data frame", frame.ID)
	}
	if frame.ID < baseID {
		return nil, nil, errors.Newf("frame id 0x%X is below the base id 0x%X", frame.ID, baseID)
	}

	id := int(frame.ID - baseID)
	for _, g := range groups {
		if g.ID != id {
			continue
		}
		readings, err := decodeFrameFields(g, frame, opts)
		return g, readings, err
	}
	return nil, nil, errors.Newf("no group %d for frame id 0x%X", id, frame.ID)
}

// decodeFrameFields decodes the fields that lie within the frame's length.
// Bytes past the length are padding, so fields reaching into them are
// reported as missing instead of decoded.
func decodeFrameFields(g *schema.Group, frame can.Frame, opts Options) ([]Reading, error) {
	length := int(frame.Length)
	if length > len(frame.Data) {
		length = len(frame.Data)
	}

	readings := make([]Reading, 0, len(g.Fields))
	var missing []string
	for _, f := range g.Fields {
		if inFrame(f) && f.OffsetInGroup > length-f.Size {
			missing = append(missing, f.Name)
			continue
		}
		r, err := DecodeField(frame.Data, f, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "group %d", g.ID)
		}
		readings = append(readings, r)
	}

	if len(missing) > 0 {
		return readings, &TruncatedFrameError{ID: frame.ID, Length: length, Missing: missing}
	}
	return readings, nil
}
