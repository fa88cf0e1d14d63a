// Package diff implements the line and character level diff used by the text
// and table comparators.
package diff

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/pmezard/go-difflib/difflib"
	"go.keploy.io/comparator/pkg/models"
)

// DefaultThreshold is the minimum similarity, in percent, for a changed line to
// be reported as Similar with inline ranges.
const DefaultThreshold = 20.0

type DeltaType int

const (
	Insert DeltaType = iota
	Change
	Delete
)

func (t DeltaType) String() string {
	switch t {
	case Insert:
		return "insert"
	case Change:
		return "change"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Chunk is a run of lines starting at a 0-based Position.
type Chunk struct {
	Position int
	Lines    []string
}

type Delta struct {
	Type     DeltaType
	Original Chunk
	Revised  Chunk
}

// Lines computes the line deltas turning a into b.
func Lines(a, b []string) []Delta {
	m := difflib.NewMatcherWithJunk(a, b, false, nil)
	var deltas []Delta
	for _, op := range m.GetOpCodes() {
		d := Delta{
			Original: Chunk{Position: op.I1, Lines: a[op.I1:op.I2]},
			Revised:  Chunk{Position: op.J1, Lines: b[op.J1:op.J2]},
		}
		switch op.Tag {
		case 'i':
			d.Type = Insert
		case 'd':
			d.Type = Delete
		case 'r':
			d.Type = Change
		default:
			continue
		}
		deltas = append(deltas, d)
	}
	return deltas
}

// Similarity returns 100 - distance/maxLen*100 over runes. Two empty strings
// are fully similar.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 - float64(dist)*100/float64(maxLen)
}

// Chars returns the changed 1-based inclusive rune ranges on each side.
func Chars(a, b string) (expected, actual []models.Range) {
	ra, rb := splitRunes(a), splitRunes(b)
	m := difflib.NewMatcherWithJunk(ra, rb, false, nil)
	for _, op := range m.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		if op.I2 > op.I1 {
			expected = appendRange(expected, op.I1+1, op.I2)
		}
		if op.J2 > op.J1 {
			actual = appendRange(actual, op.J1+1, op.J2)
		}
	}
	return expected, actual
}

func appendRange(rs []models.Range, start, end int) []models.Range {
	if n := len(rs); n > 0 && rs[n-1].End+1 >= start {
		rs[n-1].End = end
		return rs
	}
	return append(rs, models.Range{Start: start, End: end})
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Line is a line of content with its number in the original document.
type Line struct {
	Number int
	Text   string
}

// NewLines numbers lines from 1.
func NewLines(texts []string) []Line {
	out := make([]Line, len(texts))
	for i, t := range texts {
		out[i] = Line{Number: i + 1, Text: t}
	}
	return out
}

type Options struct {
	SaveValue bool
	// Threshold overrides DefaultThreshold when positive.
	Threshold float64
}

func (o Options) threshold() float64 {
	if o.Threshold > 0 {
		return o.Threshold
	}
	return DefaultThreshold
}

// Compare diffs two numbered line sequences and returns renumbered differences.
func Compare(expected, actual []Line, opts Options) []models.Difference {
	a, b := texts(expected), texts(actual)
	var diffs []models.Difference
	for _, d := range Lines(a, b) {
		ers := expected[d.Original.Position : d.Original.Position+len(d.Original.Lines)]
		ars := actual[d.Revised.Position : d.Revised.Position+len(d.Revised.Lines)]
		switch d.Type {
		case Insert:
			diffs = append(diffs, Block(models.OutcomeExtra, ars, opts))
		case Delete:
			diffs = append(diffs, Block(models.OutcomeMissed, ers, opts))
		case Change:
			diffs = append(diffs, compareChange(ers, ars, opts)...)
		}
	}
	return models.Renumber(diffs)
}

func compareChange(ers, ars []Line, opts Options) []models.Difference {
	n := len(ers)
	if len(ars) < n {
		n = len(ars)
	}
	var diffs []models.Difference
	for i := 0; i < n; i++ {
		if d, ok := CompareLine(ers[i], ars[i], opts); ok {
			diffs = append(diffs, d)
		}
	}
	switch {
	case len(ers) > n:
		diffs = append(diffs, Excess(models.OutcomeMissed, ers[n:], opts))
	case len(ars) > n:
		diffs = append(diffs, Excess(models.OutcomeExtra, ars[n:], opts))
	}
	return diffs
}

// CompareLine classifies a changed line pair by similarity. ok is false when
// the lines are equal.
func CompareLine(e, a Line, opts Options) (models.Difference, bool) {
	if e.Text == a.Text {
		return models.Difference{}, false
	}
	sim := Similarity(e.Text, a.Text)
	d := models.Difference{
		ExpectedCoord: models.RowCoord(e.Number, e.Number).String(),
		ActualCoord:   models.RowCoord(a.Number, a.Number).String(),
		Outcome:       models.OutcomeModified,
		Description:   fmt.Sprintf("line %d differs from line %d (similarity %.0f%%)", e.Number, a.Number, sim),
	}
	if sim >= opts.threshold() {
		er, ar := Chars(e.Text, a.Text)
		d.ExpectedCoord = models.Coordinate{Row: e.Number, RowEnd: e.Number, Columns: er}.String()
		d.ActualCoord = models.Coordinate{Row: a.Number, RowEnd: a.Number, Columns: ar}.String()
		d.Outcome = models.OutcomeSimilar
	}
	d.SetValues(opts.SaveValue, e.Text, a.Text)
	return d, true
}

// Block reports a whole inserted (Extra) or deleted (Missed) block.
func Block(outcome models.Outcome, lines []Line, opts Options) models.Difference {
	coord := models.RowCoord(lines[0].Number, lines[len(lines)-1].Number).String()
	d := models.Difference{Outcome: outcome}
	body := joinLines(lines)
	if outcome == models.OutcomeExtra {
		d.ActualCoord = coord
		d.Description = fmt.Sprintf("%d extra line(s) at %s", len(lines), coord)
		d.SetValues(opts.SaveValue, "", body)
	} else {
		d.ExpectedCoord = coord
		d.Description = fmt.Sprintf("%d missed line(s) at %s", len(lines), coord)
		d.SetValues(opts.SaveValue, body, "")
	}
	return d
}

// Excess reports the surplus lines of an unequal change block in the
// "N-emptyM" form on the side that holds them.
func Excess(outcome models.Outcome, lines []Line, opts Options) models.Difference {
	d := Block(outcome, lines, opts)
	coord := models.EmptyCoord(lines[0].Number, len(lines)).String()
	if outcome == models.OutcomeExtra {
		d.ActualCoord = coord
	} else {
		d.ExpectedCoord = coord
	}
	return d
}

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func joinLines(lines []Line) string {
	return strings.Join(texts(lines), "\n")
}
