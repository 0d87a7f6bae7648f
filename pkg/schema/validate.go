package schema

import (
	"fmt"
)

// IssueKind classifies a schema problem found by Validate
type IssueKind int

const (
	DuplicateName IssueKind = iota
	Overlap
	OutOfFrame
	BadSize
	ZeroDivisor
)

func (k IssueKind) String() string {
	switch k {
	case DuplicateName:
		return "duplicate-name"
	case Overlap:
		return "overlap"
	case OutOfFrame:
		return "out-of-frame"
	case BadSize:
		return "bad-size"
	case ZeroDivisor:
		return "zero-divisor"
	default:
		return "unknown"
	}
}

// Issue is a schema level problem within one group
type Issue struct {
	Group int
	Field string
	Kind  IssueKind
	Msg   string
}

func (i Issue) String() string {
	return fmt.Sprintf("group %d field %q: %s: %s", i.Group, i.Field, i.Kind, i.Msg)
}

// Validate checks the invariants a group must hold for its accessors to be
// correct. The loader does not enforce any of them.
func Validate(g *Group, wide bool) []Issue {
	var issues []Issue
	add := func(f Field, kind IssueKind, format string, args ...interface{}) {
		issues = append(issues, Issue{Group: g.ID, Field: f.Name, Kind: kind, Msg: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]int, len(g.Fields))
	var owner [FrameSize]int

	for i, f := range g.Fields {
		if j, ok := seen[f.Name]; ok {
			add(f, DuplicateName, "name already used by field #%d", j)
		} else {
			seen[f.Name] = i
		}

		switch f.Size {
		case 1, 2, 4:
		case 8:
			if !wide {
				add(f, BadSize, "8 byte fields are not enabled")
			}
		default:
			add(f, BadSize, "unsupported size %d", f.Size)
		}

		if f.Div == 0 {
			add(f, ZeroDivisor, "div is 0")
		}

		if f.OffsetInGroup < 0 || f.Size < 0 || f.OffsetInGroup > FrameSize-f.Size {
			add(f, OutOfFrame, "%d bytes at offset %d do not fit in %d", f.Size, f.OffsetInGroup, FrameSize)
			continue
		}

		for b := f.OffsetInGroup; b < f.End(); b++ {
			if owner[b] != 0 {
				add(f, Overlap, "byte %d already belongs to %q", b, g.Fields[owner[b]-1].Name)
				break
			}
			owner[b] = i + 1
		}
	}

	return issues
}
