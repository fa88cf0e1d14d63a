// Package schema validates documents against schemas and reports violations
// as differences.
package schema

import (
	"fmt"
	"strings"

	"go.keploy.io/comparator/pkg/models"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// ParseSeverity defaults to error for an empty value.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "fatal":
		return SeverityFatal, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Violation is one finding of a schema validator. Line and Column are 1-based;
// zero means unknown.
type Violation struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Line     int      `json:"line" yaml:"line"`
	Column   int      `json:"column" yaml:"column"`
	Message  string   `json:"message" yaml:"message"`
}

// Validator validates document against schema. Violations in the document are
// returned as values; an error means the schema itself is unusable.
type Validator interface {
	Validate(schema, document string) ([]Violation, error)
}

// ValidateFunc adapts a function, for example a binding to an external XSD
// engine, to Validator.
type ValidateFunc func(schema, document string) ([]Violation, error)

func (f ValidateFunc) Validate(schema, document string) ([]Violation, error) {
	return f(schema, document)
}

// Side selects which coordinate of a difference a violation is reported on.
type Side int

const (
	Expected Side = iota
	Actual
)

func SeverityOutcome(s Severity) models.Outcome {
	switch s {
	case SeverityWarning:
		return models.OutcomeSimilar
	case SeverityFatal:
		return models.OutcomeError
	}
	return models.OutcomeModified
}

// ToDifferences turns violations into renumbered differences positioned at
// line:column on side.
func ToDifferences(vs []Violation, side Side) []models.Difference {
	diffs := make([]models.Difference, 0, len(vs))
	for _, v := range vs {
		coord := position(v.Line, v.Column)
		d := models.Difference{
			Outcome:     SeverityOutcome(v.Severity),
			Description: fmt.Sprintf("%s: %s", v.Severity, v.Message),
		}
		if side == Expected {
			d.ExpectedCoord = coord
		} else {
			d.ActualCoord = coord
		}
		diffs = append(diffs, d)
	}
	return models.Renumber(diffs)
}

func position(line, col int) string {
	if line < 1 {
		line = 1
	}
	c := models.Coordinate{Row: line, RowEnd: line}
	if col > 0 {
		c.Columns = []models.Range{{Start: col, End: col}}
	}
	return c.String()
}
