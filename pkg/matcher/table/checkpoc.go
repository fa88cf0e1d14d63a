package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mitchellh/copystructure"
	"go.keploy.io/comparator/pkg/matcher"
	"go.keploy.io/comparator/pkg/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ProvenanceHeader names the synthetic trailing column added by alias
// expansion.
const ProvenanceHeader = "#provenance"

// ParseSections decodes CheckPOC sections. Each value is a YAML (or JSON)
// mapping, or a sequence of mappings.
func ParseSections(values []string) ([]models.Section, error) {
	var sections []models.Section
	for _, v := range values {
		var raw interface{}
		if err := yaml.Unmarshal([]byte(v), &raw); err != nil {
			return nil, models.NewRuleConfigError("checkPoc section %q: %v", v, err)
		}
		items, ok := raw.([]interface{})
		if !ok {
			items = []interface{}{raw}
		}
		for _, item := range items {
			s, err := decodeSection(item)
			if err != nil {
				return nil, models.NewRuleConfigError("checkPoc section %q: %v", v, err)
			}
			sections = append(sections, s)
		}
	}
	return sections, nil
}

func decodeSection(raw interface{}) (models.Section, error) {
	var s models.Section
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &s,
	})
	if err != nil {
		return s, err
	}
	if err := dec.Decode(raw); err != nil {
		return s, err
	}
	s.Type = models.SectionType(strings.ToLower(string(s.Type)))
	switch s.Type {
	case models.SectionReplace:
		if len(s.Replacements) == 0 {
			return s, fmt.Errorf("replace section needs replacements")
		}
	case models.SectionAlias:
		if s.Name == "" || s.Table == "" || s.Column == "" {
			return s, fmt.Errorf("alias section needs name, table and column")
		}
	case models.SectionCheck:
		if s.Table == "" || len(s.Relations) == 0 {
			return s, fmt.Errorf("check section needs table and relations")
		}
	default:
		return s, fmt.Errorf("unknown section type %q", s.Type)
	}
	return s, nil
}

// checkPoc runs the sections in order against copies of the inputs.
func (c *call) checkPoc(sections []models.Section, expected []*models.Table, actual *models.Table) error {
	cp, err := copystructure.Copy(expected)
	if err != nil {
		return models.NewComparisonFailure("copy expected tables: %v", err)
	}
	expCopy := cp.([]*models.Table)
	cp, err = copystructure.Copy(actual)
	if err != nil {
		return models.NewComparisonFailure("copy actual table: %v", err)
	}
	act := cp.(*models.Table)

	tables := make(map[string]*models.Table, len(expCopy))
	for _, t := range expCopy {
		tables[strings.ToLower(t.Name)] = t
	}
	aliases := map[string][]string{}

	for i, s := range sections {
		c.logger.Debug("checkPoc section", zap.Int("index", i), zap.String("type", string(s.Type)), zap.String("table", s.Table))
		switch s.Type {
		case models.SectionReplace:
			if err := c.replace(s, act); err != nil {
				return err
			}
		case models.SectionAlias:
			values, err := c.alias(s, tables)
			if err != nil {
				return err
			}
			aliases[s.Name] = values
		case models.SectionCheck:
			if err := c.check(s, tables, act, aliases); err != nil {
				return err
			}
		}
	}
	return nil
}

// replace rewrites actual cells in place. The <prev> sentinel copies the
// value the previous row holds in the same column.
func (c *call) replace(s models.Section, act *models.Table) error {
	cols, err := scopeColumns(act, s)
	if err != nil {
		return err
	}
	prev := make(map[int]string, len(cols))
	for _, row := range act.Rows {
		if row.IsDelimiter() {
			continue
		}
		for _, j := range cols {
			if j >= len(row) {
				continue
			}
			for _, rp := range s.Replacements {
				v, err := c.replaceCell(row[j], prev[j], rp)
				if err != nil {
					return err
				}
				row[j] = v
			}
			prev[j] = row[j]
		}
	}
	return nil
}

func (c *call) replaceCell(cell, prev string, rp models.Replacement) (string, error) {
	if expr, ok := strings.CutPrefix(rp.Search, matcher.RegexpPrefix); ok {
		re, err := matcher.Compile(expr, c.cells.ignoreCase)
		if err != nil {
			return "", models.NewRuleConfigError("replace pattern %q: %v", expr, err)
		}
		if !matcher.MatchString(re, cell) {
			return cell, nil
		}
		if rp.Replace == models.PrevValue {
			return prev, nil
		}
		out, err := re.Replace(cell, rp.Replace, -1, -1)
		if err != nil {
			return cell, nil
		}
		return out, nil
	}
	if rp.Search == "" {
		if cell != "" {
			return cell, nil
		}
		if rp.Replace == models.PrevValue {
			return prev, nil
		}
		return rp.Replace, nil
	}
	if !strings.Contains(cell, rp.Search) {
		return cell, nil
	}
	if rp.Replace == models.PrevValue {
		return prev, nil
	}
	return strings.ReplaceAll(cell, rp.Search, rp.Replace), nil
}

func scopeColumns(t *models.Table, s models.Section) ([]int, error) {
	names := append([]string(nil), s.Columns...)
	if s.Column != "" {
		names = append(names, s.Column)
	}
	if len(names) == 0 {
		cols := make([]int, 0, len(t.Headers))
		for j := 1; j < len(t.Headers); j++ {
			cols = append(cols, j)
		}
		return cols, nil
	}
	cols := make([]int, 0, len(names))
	for _, n := range names {
		j := t.ColumnIndex(n)
		if j < 0 {
			return nil, models.NewRuleConfigError("column %q not found in table %s", n, t.Name)
		}
		cols = append(cols, j)
	}
	return cols, nil
}

// alias returns the distinct values of the section column among the filtered
// rows of the named expected table, in order of first appearance.
func (c *call) alias(s models.Section, tables map[string]*models.Table) ([]string, error) {
	t, err := lookupTable(tables, s.Table)
	if err != nil {
		return nil, err
	}
	col := t.ColumnIndex(s.Column)
	if col < 0 {
		return nil, models.NewRuleConfigError("alias %s: column %q not found in table %s", s.Name, s.Column, t.Name)
	}
	view, err := filterRows(t, s.Filters, c.cells.ignoreCase)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var values []string
	for _, row := range view.Rows {
		v := row.Cell(col)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	c.logger.Debug("alias resolved", zap.String("alias", s.Name), zap.Int("rows", len(view.Index)), zap.Strings("values", values))
	return values, nil
}

type pair struct {
	expected, actual int
	name             string
}

// check matches expected rows to actual rows through the section relations.
// Matching is first-available: every actual row takes the first expected row
// not matched yet, so results depend on row order.
func (c *call) check(s models.Section, tables map[string]*models.Table, act *models.Table, aliases map[string][]string) error {
	et, err := lookupTable(tables, s.Table)
	if err != nil {
		return err
	}
	view, err := filterRows(et, s.Filters, c.cells.ignoreCase)
	if err != nil {
		return err
	}
	work := expandAliases(et, view, aliases)
	relations, err := resolvePairs(et, act, s.Relations)
	if err != nil {
		return err
	}
	checks, err := resolvePairs(et, act, s.Checks)
	if err != nil {
		return err
	}
	candidates, err := filterRows(act, s.ActualFilters, c.cells.ignoreCase)
	if err != nil {
		return err
	}
	prov := len(work.Headers) - 1

	matched := make([]bool, len(work.Rows))
	for k, arow := range candidates.Rows {
		ar := rowNumber(arow, candidates.Index[k])
		idx := -1
		for i, erow := range work.Rows {
			if !matched[i] && c.related(erow, arow, relations) {
				idx = i
				break
			}
		}
		if idx < 0 {
			d := models.Difference{
				ActualCoord: rowCoord(ar),
				Outcome:     models.OutcomeExtra,
				Description: fmt.Sprintf("actual row %d has no matching row in %s", ar, et.Name),
			}
			d.SetValues(c.saveValue, "", joinRow(arow))
			c.res.Add(d)
			continue
		}
		matched[idx] = true
		erow := work.Rows[idx]
		er, _ := parseProvenance(erow.Cell(prov))
		for _, p := range checks {
			ev, av := erow.Cell(p.expected), arow.Cell(p.actual)
			ok, warn := c.cells.equal(ev, av)
			if warn != "" {
				c.res.Warn(fmt.Sprintf("%s at %s", warn, cellCoord(ar, p.actual)))
			}
			if ok {
				continue
			}
			d := models.Difference{
				ExpectedCoord: cellCoord(er, p.expected),
				ActualCoord:   cellCoord(ar, p.actual),
				Outcome:       models.OutcomeModified,
				Description:   fmt.Sprintf("%s: expected %q, actual %q", p.name, ev, av),
			}
			d.SetValues(c.saveValue, ev, av)
			c.res.Add(d)
		}
	}

	for i, erow := range work.Rows {
		if matched[i] {
			continue
		}
		er, cols := parseProvenance(erow.Cell(prov))
		desc := fmt.Sprintf("expected row %d of %s not found in actual", er, et.Name)
		if len(cols) > 0 {
			desc += fmt.Sprintf(" (alias expanded in %s: %s)", strings.Join(cols, ", "), joinRow(erow[1:prov]))
		}
		d := models.Difference{
			ExpectedCoord: rowCoord(er),
			Outcome:       models.OutcomeMissed,
			Description:   desc,
		}
		d.SetValues(c.saveValue, joinRow(erow[:prov]), "")
		c.res.Add(d)
	}
	return nil
}

func (c *call) related(erow, arow models.TableRow, relations []pair) bool {
	for _, p := range relations {
		if ok, _ := c.cells.equal(erow.Cell(p.expected), arow.Cell(p.actual)); !ok {
			return false
		}
	}
	return true
}

func resolvePairs(et, act *models.Table, rels []models.Relation) ([]pair, error) {
	out := make([]pair, 0, len(rels))
	for _, r := range rels {
		e, a := et.ColumnIndex(r.Expected), act.ColumnIndex(r.Actual)
		if e < 0 {
			return nil, models.NewRuleConfigError("column %q not found in table %s", r.Expected, et.Name)
		}
		if a < 0 {
			return nil, models.NewRuleConfigError("column %q not found in table %s", r.Actual, act.Name)
		}
		name := r.Expected
		if !strings.EqualFold(r.Expected, r.Actual) {
			name = r.Expected + "/" + r.Actual
		}
		out = append(out, pair{expected: e, actual: a, name: name})
	}
	return out, nil
}

func lookupTable(tables map[string]*models.Table, name string) (*models.Table, error) {
	t, ok := tables[strings.ToLower(name)]
	if !ok {
		return nil, models.NewRuleConfigError("expected table %q not found", name)
	}
	return t, nil
}

// expandAliases fans every row out over the values of the aliases its cells
// name and appends a provenance cell holding the source row number and the
// expanded columns.
func expandAliases(t *models.Table, view filtered, aliases map[string][]string) *models.Table {
	width := len(t.Headers)
	work := &models.Table{
		Name:    t.Name,
		Headers: append(append([]string(nil), t.Headers...), ProvenanceHeader),
	}
	for k, row := range view.Rows {
		base := make(models.TableRow, width)
		copy(base, row)
		origin := rowNumber(row, view.Index[k])

		var cols []int
		for j := 1; j < width; j++ {
			if _, ok := aliases[base[j]]; ok {
				cols = append(cols, j)
			}
		}
		names := make([]string, len(cols))
		for i, j := range cols {
			names[i] = t.Headers[j]
		}
		prov := formatProvenance(origin, names)

		rows := []models.TableRow{base}
		for _, j := range cols {
			values := aliases[base[j]]
			next := make([]models.TableRow, 0, len(rows)*len(values))
			for _, r := range rows {
				for _, v := range values {
					nr := append(models.TableRow(nil), r...)
					nr[j] = v
					next = append(next, nr)
				}
			}
			rows = next
		}
		for _, r := range rows {
			work.Rows = append(work.Rows, append(r, prov))
		}
	}
	return work
}

func formatProvenance(row int, cols []string) string {
	return "row=" + strconv.Itoa(row) + ";alias=" + strings.Join(cols, ",")
}

func parseProvenance(s string) (int, []string) {
	rowPart, aliasPart, _ := strings.Cut(s, ";")
	row, _ := strconv.Atoi(strings.TrimPrefix(rowPart, "row="))
	cols := strings.TrimPrefix(aliasPart, "alias=")
	if cols == "" {
		return row, nil
	}
	return row, strings.Split(cols, ",")
}
