package table

import (
	"strconv"
	"strings"

	"go.keploy.io/comparator/pkg/matcher"
	"go.keploy.io/comparator/pkg/models"
)

// filtered is a view over a table's rows. Index maps a filtered row position
// back to the row's position in the source table.
type filtered struct {
	Rows  []models.TableRow
	Index []int
}

// filterRows keeps the non-delimiter rows satisfying every filter.
func filterRows(t *models.Table, filters []models.Filter, ignoreCase bool) (filtered, error) {
	cols := make([]int, len(filters))
	for i, f := range filters {
		cols[i] = t.ColumnIndex(f.Column)
		if cols[i] < 0 {
			return filtered{}, models.NewRuleConfigError("filter column %q not found in table %s", f.Column, t.Name)
		}
	}
	var out filtered
	for ri, row := range t.Rows {
		if row.IsDelimiter() {
			continue
		}
		keep := true
		for i, f := range filters {
			ok, err := applyFilter(row.Cell(cols[i]), f, ignoreCase)
			if err != nil {
				return filtered{}, err
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			out.Rows = append(out.Rows, row)
			out.Index = append(out.Index, ri)
		}
	}
	return out, nil
}

func applyFilter(cell string, f models.Filter, ignoreCase bool) (bool, error) {
	op := strings.ToUpper(strings.TrimSpace(f.Operator))
	switch op {
	case "=", "==":
		for _, v := range f.Values {
			if compareValues(cell, v, ignoreCase) == 0 {
				return true, nil
			}
		}
		return false, nil
	case "<>", "!=":
		for _, v := range f.Values {
			if compareValues(cell, v, ignoreCase) == 0 {
				return false, nil
			}
		}
		return true, nil
	case "<", ">", "<=", ">=":
		if len(f.Values) == 0 {
			return false, models.NewRuleConfigError("filter %s %s needs a value", f.Column, op)
		}
		c := compareValues(cell, f.Values[0], ignoreCase)
		switch op {
		case "<":
			return c < 0, nil
		case ">":
			return c > 0, nil
		case "<=":
			return c <= 0, nil
		default:
			return c >= 0, nil
		}
	case "LIKE", "UNLIKE":
		like, err := likeAny(cell, f.Values, ignoreCase)
		if err != nil {
			return false, err
		}
		return like == (op == "LIKE"), nil
	}
	return false, models.NewRuleConfigError("unknown filter operator %q on column %s", f.Operator, f.Column)
}

func likeAny(cell string, values []string, ignoreCase bool) (bool, error) {
	for _, v := range values {
		if expr, ok := strings.CutPrefix(v, matcher.RegexpPrefix); ok {
			re, err := matcher.Compile(expr, ignoreCase)
			if err != nil {
				return false, models.NewRuleConfigError("LIKE pattern %q: %v", expr, err)
			}
			if matcher.MatchString(re, cell) {
				return true, nil
			}
			continue
		}
		c, needle := cell, v
		if ignoreCase {
			c, needle = matcher.Fold(c), matcher.Fold(needle)
		}
		if strings.Contains(c, needle) {
			return true, nil
		}
	}
	return false, nil
}

// compareValues orders two cells numerically when both parse as numbers and
// as strings otherwise.
func compareValues(a, b string, ignoreCase bool) int {
	if fa, ok := parseNumber(a); ok {
		if fb, ok := parseNumber(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ignoreCase {
		a, b = matcher.Fold(a), matcher.Fold(b)
	}
	return strings.Compare(a, b)
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
