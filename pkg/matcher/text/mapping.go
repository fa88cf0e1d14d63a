package text

import (
	"fmt"
	"slices"

	"go.keploy.io/comparator/pkg/matcher"
	"go.keploy.io/comparator/pkg/matcher/diff"
	"go.keploy.io/comparator/pkg/models"
)

type rowPair struct {
	expected, actual int
}

// applyMappings evaluates mappingRegexp on every changed row pair. Pairs whose
// capture groups agree are promoted: first every difference touching either
// row is flipped to Skipped, then an Identical marker is appended. Pairs where
// only the expected row matches are forced to Modified.
func (r *rules) applyMappings(diffs []models.Difference, exp, act []diff.Line) []models.Difference {
	expText, actText := byNumber(exp), byNumber(act)

	var identical []rowPair
	for i := range diffs {
		d := &diffs[i]
		er, ok1 := singleRow(d.ExpectedCoord)
		ar, ok2 := singleRow(d.ActualCoord)
		if !ok1 || !ok2 {
			continue
		}
		et, at := expText[er], actText[ar]
		for _, re := range r.mappings {
			ge := matcher.Groups(re, et)
			if ge == nil {
				continue
			}
			ga := matcher.Groups(re, at)
			if ga != nil && slices.Equal(ge, ga) {
				identical = append(identical, rowPair{expected: er, actual: ar})
			} else {
				d.Outcome = models.OutcomeModified
			}
			break
		}
	}

	for _, p := range identical {
		for i := range diffs {
			if models.CoordTouchesRow(diffs[i].ExpectedCoord, p.expected) || models.CoordTouchesRow(diffs[i].ActualCoord, p.actual) {
				diffs[i].Outcome = models.OutcomeSkipped
			}
		}
	}
	for _, p := range identical {
		d := models.Difference{
			ExpectedCoord: models.RowCoord(p.expected, p.expected).String(),
			ActualCoord:   models.RowCoord(p.actual, p.actual).String(),
			Outcome:       models.OutcomeIdentical,
			Description:   fmt.Sprintf("line %d maps to line %d", p.expected, p.actual),
		}
		d.SetValues(r.saveValue, expText[p.expected], actText[p.actual])
		diffs = append(diffs, d)
	}
	return models.Renumber(diffs)
}

func singleRow(coord string) (int, bool) {
	c, err := models.ParseCoordinate(coord)
	if err != nil || c.Empty > 0 || c.RowEnd != c.Row {
		return 0, false
	}
	return c.Row, true
}

func byNumber(lines []diff.Line) map[int]string {
	out := make(map[int]string, len(lines))
	for _, l := range lines {
		out[l.Number] = l.Text
	}
	return out
}
