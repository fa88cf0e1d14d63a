// Package text compares plain text line by line.
package text

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	"go.keploy.io/comparator/pkg/matcher"
	"go.keploy.io/comparator/pkg/matcher/diff"
	"go.keploy.io/comparator/pkg/models"
	"go.uber.org/zap"
)

type Matcher struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Matcher {
	return &Matcher{logger: logger}
}

// Compare diffs expected and actual text under params.
func (m *Matcher) Compare(expected, actual string, params *models.Parameters) (*models.Result, error) {
	res := &models.Result{}
	r, err := parseRules(params, res)
	if err != nil {
		return nil, err
	}

	if len(r.successIfMatch) > 0 || len(r.failIfMatch) > 0 {
		m.matchRules(r, actual, res)
		return res, nil
	}

	exp := r.normalize(splitLines(expected))
	act := r.normalize(splitLines(actual))
	m.logger.Debug("comparing text", zap.Int("expectedLines", len(exp)), zap.Int("actualLines", len(act)), zap.Bool("singleRow", r.singleRow))

	opts := diff.Options{SaveValue: r.saveValue, Threshold: r.threshold}
	if r.singleRow {
		res.Differences = compareRows(exp, act, opts)
	} else {
		res.Differences = diff.Compare(exp, act, opts)
	}
	if len(r.mappings) > 0 {
		res.Differences = r.applyMappings(res.Differences, exp, act)
	}
	matcher.ApplyTemplate(res.Differences, r.template)
	res.Differences = models.Renumber(res.Differences)
	return res, nil
}

// matchRules handles the whole-value rules. successIfMatch wins over
// failIfMatch when both are configured.
func (m *Matcher) matchRules(r *rules, actual string, res *models.Result) {
	lines := len(splitLines(actual))
	if lines == 0 {
		lines = 1
	}
	if len(r.successIfMatch) > 0 {
		if ok, _ := matcher.MatchesAny(actual, r.successIfMatch); ok {
			return
		}
		res.Add(models.Difference{
			ActualCoord: models.RowCoord(1, lines).String(),
			Outcome:     models.OutcomeFailed,
			Description: "actual content does not match any successIfMatch pattern",
		})
		models.Renumber(res.Differences)
		return
	}
	for _, re := range r.failIfMatch {
		match, err := re.FindStringMatch(actual)
		if err != nil || match == nil {
			continue
		}
		row := lineOfRuneIndex(actual, match.Index)
		m.logger.Debug("failIfMatch hit", zap.String("pattern", re.String()), zap.Int("row", row))
		res.Add(models.Difference{
			ActualCoord: models.RowCoord(row, row).String(),
			Outcome:     models.OutcomeFailed,
			Description: fmt.Sprintf("actual content matches failIfMatch pattern %q", re.String()),
		})
		break
	}
	models.Renumber(res.Differences)
}

// compareRows aligns rows by index and reports one trailing block for the
// longer side.
func compareRows(exp, act []diff.Line, opts diff.Options) []models.Difference {
	n := len(exp)
	if len(act) < n {
		n = len(act)
	}
	var diffs []models.Difference
	for i := 0; i < n; i++ {
		if d, ok := diff.CompareLine(exp[i], act[i], opts); ok {
			diffs = append(diffs, d)
		}
	}
	switch {
	case len(exp) > n:
		diffs = append(diffs, diff.Block(models.OutcomeMissed, exp[n:], opts))
	case len(act) > n:
		diffs = append(diffs, diff.Block(models.OutcomeExtra, act[n:], opts))
	}
	return diffs
}

// normalize applies case folding, block exclusion, replacements, ignored
// lines and masks. Line numbers stay those of the original content.
func (r *rules) normalize(lines []diff.Line) []diff.Line {
	out := make([]diff.Line, 0, len(lines))
	inBlock := -1
	for _, l := range lines {
		text := l.Text
		if r.ignoreCase {
			text = matcher.Fold(text)
		}
		if inBlock >= 0 {
			if matcher.MatchString(r.blocks[inBlock].end, text) {
				inBlock = -1
			}
			continue
		}
		if i := r.blockStart(text); i >= 0 {
			if !matcher.MatchString(r.blocks[i].end, afterMatch(r.blocks[i].start, text)) {
				inBlock = i
			}
			continue
		}
		for _, rp := range r.replacements {
			if replaced, err := rp.re.Replace(text, rp.with, -1, -1); err == nil {
				text = replaced
			}
		}
		if ok, _ := matcher.MatchesAny(text, r.ignoreLines); ok {
			continue
		}
		for _, re := range r.masks {
			text = mask(re, text)
		}
		out = append(out, diff.Line{Number: l.Number, Text: text})
	}
	return out
}

func (r *rules) blockStart(text string) int {
	for i, b := range r.blocks {
		if matcher.MatchString(b.start, text) {
			return i
		}
	}
	return -1
}

// afterMatch returns the remainder of text following the first match of re,
// so a block opened and closed on one line ends there.
func afterMatch(re *regexp2.Regexp, text string) string {
	m, err := re.FindStringMatch(text)
	if err != nil || m == nil {
		return ""
	}
	runes := []rune(text)
	return string(runes[m.Index+m.Length:])
}

// mask replaces every match with asterisks of the same length so inline
// column ranges stay aligned with the original text.
func mask(re *regexp2.Regexp, text string) string {
	out, err := re.ReplaceFunc(text, func(m regexp2.Match) string {
		return strings.Repeat("*", len([]rune(m.String())))
	}, -1, -1)
	if err != nil {
		return text
	}
	return out
}

func splitLines(s string) []diff.Line {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	return diff.NewLines(strings.Split(s, "\n"))
}

func lineOfRuneIndex(s string, idx int) int {
	runes := []rune(s)
	if idx > len(runes) {
		idx = len(runes)
	}
	return strings.Count(string(runes[:idx]), "\n") + 1
}
