package models

import (
	"fmt"
	"strings"
)

// Outcome classifies a single difference between expected and actual content.
type Outcome string

const (
	OutcomeIdentical   Outcome = "IDENTICAL"
	OutcomeSimilar     Outcome = "SIMILAR"
	OutcomeModified    Outcome = "MODIFIED"
	OutcomeExtra       Outcome = "EXTRA"
	OutcomeMissed      Outcome = "MISSED"
	OutcomeSkipped     Outcome = "SKIPPED"
	OutcomeFailed      Outcome = "FAILED"
	OutcomeError       Outcome = "ERROR"
	OutcomeBrokenOrder Outcome = "BROKEN_ORDER"
)

// Outcomes lists every outcome in display order.
var Outcomes = []Outcome{
	OutcomeIdentical,
	OutcomeSimilar,
	OutcomeModified,
	OutcomeExtra,
	OutcomeMissed,
	OutcomeSkipped,
	OutcomeFailed,
	OutcomeError,
	OutcomeBrokenOrder,
}

func (o Outcome) String() string {
	return string(o)
}

// IsFailure reports whether the outcome should make a comparison fail.
func (o Outcome) IsFailure() bool {
	switch o {
	case OutcomeIdentical, OutcomeSimilar, OutcomeSkipped:
		return false
	}
	return true
}

func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IDENTICAL":
		return OutcomeIdentical, nil
	case "SIMILAR":
		return OutcomeSimilar, nil
	case "MODIFIED":
		return OutcomeModified, nil
	case "EXTRA":
		return OutcomeExtra, nil
	case "MISSED":
		return OutcomeMissed, nil
	case "SKIPPED":
		return OutcomeSkipped, nil
	case "FAILED":
		return OutcomeFailed, nil
	case "ERROR":
		return OutcomeError, nil
	case "BROKEN_ORDER", "BROKENORDER":
		return OutcomeBrokenOrder, nil
	default:
		return "", fmt.Errorf("invalid outcome: %s", s)
	}
}
