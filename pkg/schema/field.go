package schema

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// FrameSize is the size in bytes of every realtime broadcast message
const FrameSize = 8

// UnusedDescription marks a row that carries no units or scaling metadata
const UnusedDescription = "Unused"

// NoUnits marks a field without a unit label
const NoUnits = "-"

// Column positions of a schema row
const (
	colGroup = iota
	colOffsetInGroup
	colTotalOffset
	colSize
	colSigned
	colName
	colDescription
	colUnits
	colMult
	colDiv
	colAdd
	colMS2

	minColumns  = colDescription + 1
	fullColumns = colMS2 + 1
)

var columnNames = [...]string{
	"group", "offset_in_group", "total_offset", "size", "signed", "name",
	"description", "units", "mult", "div", "add", "ms2",
}

// Field is a single scalar value within a message group
type Field struct {
	Group         int    `json:"group" yaml:"group" toml:"group"`
	OffsetInGroup int    `json:"offset_in_group" yaml:"offset_in_group" toml:"offset_in_group"`
	TotalOffset   int    `json:"total_offset" yaml:"total_offset" toml:"total_offset"`
	Size          int    `json:"size" yaml:"size" toml:"size"`
	Signed        bool   `json:"signed" yaml:"signed" toml:"signed"`
	Name          string `json:"name" yaml:"name" toml:"name"`
	Description   string `json:"description" yaml:"description" toml:"description"`
	Units         string `json:"units" yaml:"units" toml:"units"`

	// Linear scale applied to the raw value: raw * Mult / Div
	Mult int `json:"mult" yaml:"mult" toml:"mult"`
	Div  int `json:"div" yaml:"div" toml:"div"`

	// Add and MS2 are carried through from the schema but no accessor
	// applies them.
	Add int  `json:"add" yaml:"add" toml:"add"`
	MS2 bool `json:"ms2" yaml:"ms2" toml:"ms2"`
}

// IsScaled reports whether the field has a non-identity scale
func (f Field) IsScaled() bool {
	return f.Mult != 1 || f.Div != 1
}

// HasUnits reports whether a units comment should accompany the field
func (f Field) HasUnits() bool {
	return f.Units != NoUnits
}

// End returns the offset one past the last byte of the field
func (f Field) End() int {
	return f.OffsetInGroup + f.Size
}

// Group is an ordered list of fields sharing a single 8 byte frame
type Group struct {
	ID     int     `json:"id" yaml:"id" toml:"id"`
	Fields []Field `json:"fields" yaml:"fields" toml:"fields"`
}

// Field looks up a field by name
func (g *Group) Field(name string) (Field, bool) {
	for _, f := range g.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MalformedRowError is returned when a row does not have enough columns
type MalformedRowError struct {
	Line    int
	Columns int
	Want    int
}

func (e *MalformedRowError) Error() string {
	return "line " + strconv.Itoa(e.Line) + ": malformed row: got " +
		strconv.Itoa(e.Columns) + " columns, want at least " + strconv.Itoa(e.Want)
}

// ParseError is returned when a column value cannot be interpreted
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "line " + strconv.Itoa(e.Line) + ": column " + e.Column + ": cannot parse " + strconv.Quote(e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseRow converts the columns of one schema row into a Field.
//
// Row layout:
//
// +-----------------+
// | group           | 0
// +-----------------+
// | offset_in_group | 1
// +-----------------+
// | total_offset    | 2
// +-----------------+
// | size            | 3
// +-----------------+
// | signed (Y/N)    | 4
// +-----------------+
// | name            | 5
// +-----------------+
// | description     | 6
// +-----------------+
// | units           | 7  \
// +-----------------+     |
// | mult            | 8   |
// +-----------------+     |
// | div             | 9   |  absent when description is "Unused"
// +-----------------+     |
// | add             | 10  |
// +-----------------+     |
// | ms2 (Y/N)       | 11 /
// +-----------------+
func ParseRow(line int, cols []string) (Field, error) {
	if len(cols) < minColumns {
		return Field{}, &MalformedRowError{Line: line, Columns: len(cols), Want: minColumns}
	}

	p := rowParser{line: line, cols: cols}
	f := Field{
		Group:         p.int(colGroup),
		OffsetInGroup: p.int(colOffsetInGroup),
		TotalOffset:   p.int(colTotalOffset),
		Size:          p.int(colSize),
		Signed:        p.bool(colSigned),
		Name:          strings.ReplaceAll(strings.TrimSpace(cols[colName]), " ", ""),
		Description:   cols[colDescription],
		Mult:          1,
		Div:           1,
	}

	if f.Description != UnusedDescription {
		if len(cols) < fullColumns {
			return Field{}, &MalformedRowError{Line: line, Columns: len(cols), Want: fullColumns}
		}
		f.Units = cols[colUnits]
		f.Mult = p.int(colMult)
		f.Div = p.int(colDiv)
		f.Add = p.int(colAdd)
		f.MS2 = p.bool(colMS2)
	}

	if p.err != nil {
		return Field{}, p.err
	}
	return f, nil
}

// rowParser keeps the first conversion error of a row
type rowParser struct {
	line int
	cols []string
	err  error
}

func (p *rowParser) int(col int) int {
	if p.err != nil {
		return 0
	}
	raw := p.cols[col]
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		p.err = &ParseError{Line: p.line, Column: columnNames[col], Value: raw, Err: errors.UnwrapOnce(err)}
		return 0
	}
	return v
}

func (p *rowParser) bool(col int) bool {
	if p.err != nil {
		return false
	}
	raw := p.cols[col]
	switch strings.TrimSpace(raw) {
	case "Y":
		return true
	case "N":
		return false
	}
	p.err = &ParseError{Line: p.line, Column: columnNames[col], Value: raw, Err: errors.New("expected Y or N")}
	return false
}
