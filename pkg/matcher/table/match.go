// Package table compares tabular data: cell by cell by default, through
// column predicates, or through CheckPOC rule sections.
package table

import (
	"fmt"
	"strings"

	"go.keploy.io/comparator/pkg/matcher"
	"go.keploy.io/comparator/pkg/models"
	"go.uber.org/zap"
)

// Recognised rule names.
const (
	RuleCheckPoc            = "checkPoc"
	RuleCheckColumn         = "checkColumn"
	RuleCheckExpression     = "checkExpression"
	RuleIgnoreCase          = "ignoreCase"
	RuleCellRegexp          = "cellRegexp"
	RuleNumericCompare      = "numericCompare"
	RuleIgnoreMissed        = "ignoreMissed"
	RuleIgnoreExtra         = "ignoreExtra"
	RuleSaveValue           = "saveValue"
	RuleInputFormat         = "inputFormat"
	RuleDelimiter           = "delimiter"
	RuleTableName           = "tableName"
	RuleDescriptionTemplate = "descriptionTemplate"
	// RuleColumns limits the default comparison to the named columns.
	// Column coordinates then count within the kept columns.
	RuleColumns = "columns"
)

type Matcher struct {
	logger     *zap.Logger
	transforms *Transforms
}

// New returns a table matcher using the default transforms registry.
func New(logger *zap.Logger) *Matcher {
	return NewWithTransforms(logger, DefaultTransforms)
}

func NewWithTransforms(logger *zap.Logger, transforms *Transforms) *Matcher {
	return &Matcher{logger: logger, transforms: transforms}
}

// call carries the per-comparison state.
type call struct {
	logger    *zap.Logger
	params    *models.Parameters
	cells     cellRule
	saveValue bool
	res       *models.Result
}

// Compare parses both sides and runs CheckPOC, column checks or the default
// comparison, in that order of priority.
func (m *Matcher) Compare(expected, actual string, params *models.Parameters) (*models.Result, error) {
	var expTables []*models.Table
	if strings.TrimSpace(expected) != "" {
		var err error
		if expTables, err = m.parse(expected, params); err != nil {
			return nil, fmt.Errorf("expected: %w", err)
		}
	}
	actTables, err := m.parse(actual, params)
	if err != nil {
		return nil, fmt.Errorf("actual: %w", err)
	}
	if len(actTables) == 0 {
		return nil, models.NewParseError("actual contains no table")
	}
	return m.CompareTables(expTables, actTables[0], params)
}

// CompareTables compares already decoded tables. Inputs are not modified.
func (m *Matcher) CompareTables(expected []*models.Table, actual *models.Table, params *models.Parameters) (*models.Result, error) {
	c := &call{
		logger: m.logger,
		params: params,
		cells: cellRule{
			ignoreCase:     params.GetBool(RuleIgnoreCase, false),
			cellRegexp:     params.GetBool(RuleCellRegexp, false),
			numericCompare: params.GetBool(RuleNumericCompare, false),
		},
		saveValue: params.GetBool(RuleSaveValue, false),
		res:       &models.Result{},
	}

	switch {
	case params.Has(RuleCheckPoc):
		sections, err := ParseSections(params.GetAll(RuleCheckPoc))
		if err != nil {
			return nil, err
		}
		m.logger.Debug("running checkPoc", zap.Int("sections", len(sections)))
		if err := c.checkPoc(sections, expected, actual); err != nil {
			return nil, err
		}
	case params.Has(RuleCheckColumn):
		checks, err := m.compileColumnChecks(params, actual)
		if err != nil {
			return nil, err
		}
		c.checkColumns(checks, actual)
	default:
		if len(expected) == 0 {
			return nil, models.NewParseError("expected contains no table")
		}
		exp, act := expected[0], actual
		if cols := params.GetAll(RuleColumns); len(cols) > 0 {
			var err error
			if exp, err = project(exp, cols); err != nil {
				return nil, err
			}
			if act, err = project(act, cols); err != nil {
				return nil, err
			}
		}
		c.compareDefault(exp, act)
	}

	c.applyIgnoreRules()
	matcher.ApplyTemplate(c.res.Differences, params.GetString(RuleDescriptionTemplate, ""))
	c.res.Differences = models.Renumber(c.res.Differences)
	return c.res, nil
}

// project keeps the row number column and the named columns of t.
func project(t *models.Table, cols []string) (*models.Table, error) {
	keep := cols
	if len(t.Headers) > 0 && !strings.EqualFold(cols[0], t.Headers[0]) {
		keep = append([]string{t.Headers[0]}, cols...)
	}
	out, err := t.Filter(keep)
	if err != nil {
		return nil, models.NewRuleConfigError("rule %s: %v", RuleColumns, err)
	}
	return out, nil
}

func (m *Matcher) parse(content string, params *models.Parameters) ([]*models.Table, error) {
	if params.GetString(RuleInputFormat, "json") == "csv" {
		t, err := ParseCSV(content, params.GetString(RuleTableName, "csv"), params.GetString(RuleDelimiter, ","))
		if err != nil {
			return nil, err
		}
		return []*models.Table{t}, nil
	}
	return models.ParseTables(content)
}

// applyIgnoreRules rewrites Missed/Extra differences to Identical when the
// matching ignore rule is set.
func (c *call) applyIgnoreRules() {
	ignoreMissed := c.params.GetBool(RuleIgnoreMissed, false)
	ignoreExtra := c.params.GetBool(RuleIgnoreExtra, false)
	for i := range c.res.Differences {
		d := &c.res.Differences[i]
		switch {
		case ignoreMissed && d.Outcome == models.OutcomeMissed:
			d.Outcome = models.OutcomeIdentical
			d.Description = "ignored by rule " + RuleIgnoreMissed + ": " + d.Description
		case ignoreExtra && d.Outcome == models.OutcomeExtra:
			d.Outcome = models.OutcomeIdentical
			d.Description = "ignored by rule " + RuleIgnoreExtra + ": " + d.Description
		}
	}
}
