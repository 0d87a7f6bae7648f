package synth

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/karlding/canmsggen/pkg/schema"
)

// Validation selects what happens to schema issues found in a group
type Validation string

const (
	ValidationOff  Validation = "off"
	ValidationWarn Validation = "warn"
	ValidationErr  Validation = "error"
)

// ParseValidation converts a configuration string to a Validation
func ParseValidation(s string) (Validation, error) {
	switch v := Validation(s); v {
	case ValidationOff, ValidationWarn, ValidationErr:
		return v, nil
	case "":
		return ValidationWarn, nil
	}
	return ValidationWarn, errors.Newf("unknown validation policy %q", s)
}

// ValidationError is returned when a group has schema issues and validation
// is set to error
type ValidationError struct {
	Group  int
	Issues []schema.Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.String())
	}
	return fmt.Sprintf("group %d has %d schema issues: %s", e.Group, len(e.Issues), strings.Join(msgs, "; "))
}

// Stats summarises a generator run
type Stats struct {
	Groups int
	Fields int
	Issues int
}

// Generator reads schema rows and writes the accessor struct of every group
// as soon as the group is complete
type Generator struct {
	Strategy Strategy

	// FlushTrailing emits the last group at the end of the input. When false
	// the last group is dropped and Run returns a
	// *schema.TrailingGroupNotEmittedError.
	FlushTrailing bool
	Wide          bool
	Validation    Validation

	// HeaderGuard, when set, wraps the output in #ifndef/#define/#endif
	HeaderGuard string
	Includes    []string

	Log logrus.FieldLogger
}

// Run generates accessors for every group in r and writes them to w. Groups
// that were written before an error are not retracted.
func (g *Generator) Run(r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats

	log := g.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("mode", g.Strategy.Name())

	if err := g.writePreamble(w); err != nil {
		return stats, err
	}

	loader := schema.NewLoader(r, schema.FlushTrailing(g.FlushTrailing))
	var trailing error
	for {
		group, err := loader.Next()
		if err == io.EOF {
			break
		}
		var dropped *schema.TrailingGroupNotEmittedError
		if errors.As(err, &dropped) {
			log.WithFields(logrus.Fields{
				"group":  dropped.Group,
				"fields": dropped.Fields,
			}).Warn("Input ended before the last group was completed, it was not emitted")
			trailing = err
			break
		}
		if err != nil {
			return stats, errors.Wrap(err, "loading schema")
		}

		if err := g.check(log, group, &stats); err != nil {
			return stats, err
		}

		if err := g.Strategy.Emit(w, group); err != nil {
			return stats, err
		}
		stats.Groups++
		stats.Fields += len(group.Fields)
		log.WithFields(logrus.Fields{
			"group":  group.ID,
			"fields": len(group.Fields),
		}).Debug("Emitted group")
	}

	if g.HeaderGuard != "" {
		if _, err := fmt.Fprintf(w, "#endif\n"); err != nil {
			return stats, err
		}
	}
	return stats, trailing
}

func (g *Generator) check(log logrus.FieldLogger, group *schema.Group, stats *Stats) error {
	if g.Validation == ValidationOff {
		return nil
	}

	issues := schema.Validate(group, g.Wide)
	stats.Issues += len(issues)
	if len(issues) == 0 {
		return nil
	}
	if g.Validation == ValidationErr {
		return &ValidationError{Group: group.ID, Issues: issues}
	}
	for _, issue := range issues {
		log.WithFields(logrus.Fields{
			"group": issue.Group,
			"field": issue.Field,
			"issue": issue.Kind.String(),
		}).Warn(issue.Msg)
	}
	return nil
}

func (g *Generator) writePreamble(w io.Writer) error {
	var b strings.Builder
	if g.HeaderGuard != "" {
		fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", g.HeaderGuard, g.HeaderGuard)
	}
	for _, inc := range g.Includes {
		fmt.Fprintf(&b, "#include \"%s\"\n", inc)
	}
	if len(g.Includes) > 0 {
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
