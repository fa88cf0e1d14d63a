package table

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.keploy.io/comparator/pkg/models"
)

type columnCheck struct {
	column int
	source string
	prog   *vm.Program
}

// compileColumnChecks pairs checkColumn with checkExpression values and
// compiles each expression as a boolean predicate over value, row, rowNumber
// and header.
func (m *Matcher) compileColumnChecks(params *models.Parameters, act *models.Table) ([]columnCheck, error) {
	cols, exprs := params.GetAll(RuleCheckColumn), params.GetAll(RuleCheckExpression)
	if len(cols) != len(exprs) {
		return nil, models.NewRuleConfigError("%s has %d values but %s has %d", RuleCheckColumn, len(cols), RuleCheckExpression, len(exprs))
	}
	opts := []expr.Option{expr.Env(checkEnv{}), expr.AsBool()}
	for _, name := range m.transforms.Names() {
		fn, _ := m.transforms.Lookup(name)
		opts = append(opts, expr.Function(name, fn))
	}
	checks := make([]columnCheck, 0, len(cols))
	for i, col := range cols {
		j := act.ColumnIndex(col)
		if j < 0 {
			return nil, models.NewRuleConfigError("%s: column %q not found in table %s", RuleCheckColumn, col, act.Name)
		}
		prog, err := expr.Compile(exprs[i], opts...)
		if err != nil {
			return nil, models.NewRuleConfigError("%s %q: %v", RuleCheckExpression, exprs[i], err)
		}
		checks = append(checks, columnCheck{column: j, source: exprs[i], prog: prog})
	}
	return checks, nil
}

type checkEnv struct {
	Value     string            `expr:"value"`
	Row       map[string]string `expr:"row"`
	RowNumber int               `expr:"rowNumber"`
	Header    string            `expr:"header"`
}

// checkColumns evaluates every predicate on every actual row.
func (c *call) checkColumns(checks []columnCheck, act *models.Table) {
	for i, row := range act.Rows {
		if row.IsDelimiter() {
			continue
		}
		rn := rowNumber(row, i)
		cells := make(map[string]string, len(act.Headers))
		for j, h := range act.Headers {
			cells[h] = row.Cell(j)
		}
		for _, chk := range checks {
			env := checkEnv{Value: row.Cell(chk.column), Row: cells, RowNumber: rn, Header: header(act, chk.column)}
			out, err := expr.Run(chk.prog, env)
			d := models.Difference{ActualCoord: cellCoord(rn, chk.column)}
			switch {
			case err != nil:
				d.Outcome = models.OutcomeError
				d.Description = fmt.Sprintf("check %q on %s failed: %v", chk.source, env.Header, err)
			case out != true:
				d.Outcome = models.OutcomeModified
				d.Description = fmt.Sprintf("value %q of %s does not satisfy %q", env.Value, env.Header, chk.source)
			default:
				continue
			}
			d.SetValues(c.saveValue, chk.source, env.Value)
			c.res.Add(d)
		}
	}
}
