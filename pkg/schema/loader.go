package schema

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// TrailingGroupNotEmittedError reports the group that was still being
// accumulated when the input ended, and which legacy flushing drops
type TrailingGroupNotEmittedError struct {
	Group  int
	Fields int
}

func (e *TrailingGroupNotEmittedError) Error() string {
	return "trailing group " + strconv.Itoa(e.Group) + " with " + strconv.Itoa(e.Fields) +
		" fields was not emitted"
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// FlushTrailing controls what happens to the group being accumulated when
// the input ends. When false the loader behaves like the original generator:
// a group is only completed by a change of group id, the previous id starts
// out as 0, and the final group is dropped.
func FlushTrailing(flush bool) LoaderOption {
	return func(l *Loader) {
		l.flushTrailing = flush
	}
}

// Loader streams schema rows and hands out completed message groups
type Loader struct {
	s             *bufio.Scanner
	flushTrailing bool

	line    int
	prevID  int
	started bool
	pending []Field
	done    bool
}

// NewLoader creates a Loader reading comma separated rows from r. Rows are
// split on every comma; quote characters have no special meaning. Blank
// lines and lines starting with # are skipped.
func NewLoader(r io.Reader, opts ...LoaderOption) *Loader {
	l := &Loader{
		s:             bufio.NewScanner(r),
		flushTrailing: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	// The original generator compares every row against a previous id that
	// starts out as 0.
	l.started = !l.flushTrailing
	return l
}

// Line returns the number of the last row read
func (l *Loader) Line() int {
	return l.line
}

// Next returns the next completed group. A group is completed as soon as a
// row belonging to a different group is read; that row becomes the first
// field of the following group. Next returns io.EOF once the input is
// exhausted.
func (l *Loader) Next() (*Group, error) {
	if l.done {
		return nil, io.EOF
	}

	for l.s.Scan() {
		l.line++
		line := strings.TrimSpace(l.s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		field, err := ParseRow(l.line, strings.Split(line, ","))
		if err != nil {
			l.done = true
			return nil, err
		}

		if l.started && field.Group != l.prevID {
			completed := &Group{ID: l.prevID, Fields: l.pending}
			l.pending = []Field{field}
			l.prevID = field.Group
			return completed, nil
		}

		l.started = true
		l.prevID = field.Group
		l.pending = append(l.pending, field)
	}

	if err := l.s.Err(); err != nil {
		l.done = true
		return nil, errors.Wrapf(err, "reading schema row after line %d", l.line)
	}
	return l.finish()
}

func (l *Loader) finish() (*Group, error) {
	l.done = true
	if len(l.pending) == 0 {
		return nil, io.EOF
	}

	pending := l.pending
	l.pending = nil
	if !l.flushTrailing {
		return nil, &TrailingGroupNotEmittedError{Group: l.prevID, Fields: len(pending)}
	}
	return &Group{ID: l.prevID, Fields: pending}, nil
}

// ReadAll loads every group from r. In legacy mode the dropped trailing
// group is reported alongside the groups that were completed.
func ReadAll(r io.Reader, opts ...LoaderOption) ([]*Group, error) {
	l := NewLoader(r, opts...)

	var groups []*Group
	for {
		g, err := l.Next()
		if err == io.EOF {
			return groups, nil
		}
		if err != nil {
			return groups, err
		}
		groups = append(groups, g)
	}
}
