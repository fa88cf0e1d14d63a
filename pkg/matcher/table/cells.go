package table

import (
	"fmt"
	"strconv"

	"go.keploy.io/comparator/pkg/matcher"
	"go.keploy.io/comparator/pkg/models"
)

// cellRule is the equality rule shared by the default comparison and
// CheckPOC relations and checks.
type cellRule struct {
	ignoreCase     bool
	cellRegexp     bool
	numericCompare bool
}

// equal reports whether the expected and actual cells match. A numeric match
// between differently written values is returned as a warning.
func (c cellRule) equal(expected, actual string) (bool, string) {
	if c.cellRegexp {
		if o, ok, err := matcher.InlineOutcome(expected, actual, c.ignoreCase); ok {
			return err == nil && o == models.OutcomeIdentical, ""
		}
	}
	if matcher.EqualValues(expected, actual, c.ignoreCase) {
		return true, ""
	}
	if c.numericCompare {
		fe, ok1 := parseNumber(expected)
		fa, ok2 := parseNumber(actual)
		if ok1 && ok2 && fe == fa {
			return true, fmt.Sprintf("numeric value stored as text: %q vs %q", expected, actual)
		}
	}
	return false, ""
}

// rowNumber returns the physical row number kept in cell 0, or pos+1.
func rowNumber(row models.TableRow, pos int) int {
	if n, err := strconv.Atoi(row.Cell(0)); err == nil && n > 0 {
		return n
	}
	return pos + 1
}

func cellCoord(row, col int) string {
	return models.Coordinate{Row: row, RowEnd: row, Columns: []models.Range{{Start: col, End: col}}}.String()
}

func rowCoord(row int) string {
	return models.RowCoord(row, row).String()
}
