package table

import (
	"fmt"
	"strings"

	"go.keploy.io/comparator/pkg/models"
)

// compareDefault aligns rows and cells by index. Cell 0 holds the physical
// row number and is not compared.
func (c *call) compareDefault(exp, act *models.Table) {
	if !sameHeaders(exp.Headers, act.Headers, c.cells.ignoreCase) {
		c.res.Warn(fmt.Sprintf("headers differ: expected [%s], actual [%s]", strings.Join(exp.Headers, ", "), strings.Join(act.Headers, ", ")))
	}
	n := len(exp.Rows)
	if len(act.Rows) < n {
		n = len(act.Rows)
	}
	for i := 0; i < n; i++ {
		c.compareRow(exp, i, act, i)
	}
	for i := n; i < len(exp.Rows); i++ {
		er := rowNumber(exp.Rows[i], i)
		d := models.Difference{
			ExpectedCoord: rowCoord(er),
			Outcome:       models.OutcomeMissed,
			Description:   fmt.Sprintf("expected row %d is missing", er),
		}
		d.SetValues(c.saveValue, joinRow(exp.Rows[i]), "")
		c.res.Add(d)
	}
	for i := n; i < len(act.Rows); i++ {
		ar := rowNumber(act.Rows[i], i)
		d := models.Difference{
			ActualCoord: rowCoord(ar),
			Outcome:     models.OutcomeExtra,
			Description: fmt.Sprintf("actual row %d is extra", ar),
		}
		d.SetValues(c.saveValue, "", joinRow(act.Rows[i]))
		c.res.Add(d)
	}
}

func (c *call) compareRow(exp *models.Table, ei int, act *models.Table, ai int) {
	erow, arow := exp.Rows[ei], act.Rows[ai]
	er, ar := rowNumber(erow, ei), rowNumber(arow, ai)
	if len(erow) != len(arow) {
		d := models.Difference{
			ExpectedCoord: rowCoord(er),
			ActualCoord:   rowCoord(ar),
			Outcome:       models.OutcomeModified,
			Description:   fmt.Sprintf("row %d has %d cells, expected %d", ar, len(arow), len(erow)),
		}
		d.SetValues(c.saveValue, joinRow(erow), joinRow(arow))
		c.res.Add(d)
	}
	n := len(erow)
	if len(arow) < n {
		n = len(arow)
	}
	for j := 1; j < n; j++ {
		ok, warn := c.cells.equal(erow[j], arow[j])
		if warn != "" {
			c.res.Warn(fmt.Sprintf("%s at %s", warn, cellCoord(ar, j)))
		}
		if ok {
			continue
		}
		d := models.Difference{
			ExpectedCoord: cellCoord(er, j),
			ActualCoord:   cellCoord(ar, j),
			Outcome:       models.OutcomeModified,
			Description:   fmt.Sprintf("column %s: expected %q, actual %q", header(exp, j), erow[j], arow[j]),
		}
		d.SetValues(c.saveValue, erow[j], arow[j])
		c.res.Add(d)
	}
}

func sameHeaders(a, b []string, ignoreCase bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 1; i < len(a); i++ {
		if ignoreCase && !strings.EqualFold(a[i], b[i]) || !ignoreCase && a[i] != b[i] {
			return false
		}
	}
	return true
}

func header(t *models.Table, i int) string {
	if i >= 0 && i < len(t.Headers) {
		return t.Headers[i]
	}
	return fmt.Sprintf("#%d", i)
}

func joinRow(r models.TableRow) string {
	return strings.Join(r, "|")
}
