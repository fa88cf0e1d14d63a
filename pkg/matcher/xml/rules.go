package xml

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/dlclark/regexp2"
	"github.com/go-viper/mapstructure/v2"
	"go.keploy.io/comparator/pkg/matcher"
	"go.keploy.io/comparator/pkg/models"
	"gopkg.in/yaml.v3"
)

// Recognised rule names.
const (
	RuleSortAlphabetically  = "sortAlphabetically"
	RuleExcludeXPath        = "excludeXPath"
	RuleKeyNode             = "keyNode"
	RuleOutcomeRule         = "outcomeRule"
	RuleExtraCheckXPath     = "extraCheckXPath"
	RuleExtraCheckRegexp    = "extraCheckRegexp"
	RuleDescriptionTemplate = "descriptionTemplate"
	RuleSaveValue           = "saveValue"
	RuleIgnoreCase          = "ignoreCase"
	RuleSchemaValidation    = "schemaValidation"
	RuleSchema              = "schema"
)

const (
	ActionIgnore = "ignore"
	ActionChange = "change"
)

// OutcomeRule rewrites the outcome of differences located under XPath.
type OutcomeRule struct {
	XPath  string `mapstructure:"xpath" yaml:"xpath"`
	Action string `mapstructure:"action" yaml:"action"`
	From   string `mapstructure:"from" yaml:"from"`
	To     string `mapstructure:"to" yaml:"to"`

	expr     *xpath.Expr
	from, to models.Outcome
}

type extraCheck struct {
	source string
	expr   *xpath.Expr
	re     *regexp2.Regexp
}

// rules is the immutable per-call configuration of the XML matcher.
type rules struct {
	sort        bool
	exclude     []*xpath.Expr
	keys        []keyNode
	outcomes    []OutcomeRule
	extraChecks []extraCheck
	template    string
	saveValue   bool
	ignoreCase  bool
}

func parseRules(params *models.Parameters, res *models.Result) (*rules, error) {
	r := &rules{
		sort:       params.GetBool(RuleSortAlphabetically, false),
		template:   params.GetString(RuleDescriptionTemplate, ""),
		saveValue:  params.GetBool(RuleSaveValue, false),
		ignoreCase: params.GetBool(RuleIgnoreCase, false),
	}
	for _, x := range params.GetAll(RuleExcludeXPath) {
		e, err := compileXPath(RuleExcludeXPath, x)
		if err != nil {
			return nil, err
		}
		r.exclude = append(r.exclude, e)
	}
	keys, err := parseKeyNodes(params.GetAll(RuleKeyNode))
	if err != nil {
		return nil, err
	}
	r.keys = keys
	if r.outcomes, err = parseOutcomeRules(params.GetAll(RuleOutcomeRule)); err != nil {
		return nil, err
	}

	xpaths, patterns := params.GetAll(RuleExtraCheckXPath), params.GetAll(RuleExtraCheckRegexp)
	if len(xpaths) != len(patterns) {
		return nil, models.NewRuleConfigError("%s has %d values but %s has %d", RuleExtraCheckXPath, len(xpaths), RuleExtraCheckRegexp, len(patterns))
	}
	for i := range xpaths {
		e, err := compileXPath(RuleExtraCheckXPath, xpaths[i])
		if err != nil {
			return nil, err
		}
		re, err := matcher.CompileFull(patterns[i], r.ignoreCase)
		if err != nil {
			res.Warn(fmt.Sprintf("rule %s: pattern %q excluded: %v", RuleExtraCheckRegexp, patterns[i], err))
			continue
		}
		r.extraChecks = append(r.extraChecks, extraCheck{source: patterns[i], expr: e, re: re})
	}
	return r, nil
}

func compileXPath(rule, expr string) (*xpath.Expr, error) {
	e, err := xpath.Compile(expr)
	if err != nil {
		return nil, models.NewRuleConfigError("%s %q: %v", rule, expr, err)
	}
	return e, nil
}

func parseOutcomeRules(values []string) ([]OutcomeRule, error) {
	out := make([]OutcomeRule, 0, len(values))
	for _, v := range values {
		var raw map[string]interface{}
		if err := yaml.Unmarshal([]byte(v), &raw); err != nil {
			return nil, models.NewRuleConfigError("%s %q: %v", RuleOutcomeRule, v, err)
		}
		var or OutcomeRule
		if err := mapstructure.WeakDecode(raw, &or); err != nil {
			return nil, models.NewRuleConfigError("%s %q: %v", RuleOutcomeRule, v, err)
		}
		e, err := compileXPath(RuleOutcomeRule, or.XPath)
		if err != nil {
			return nil, err
		}
		or.expr = e
		switch strings.ToLower(or.Action) {
		case ActionIgnore:
			or.Action = ActionIgnore
		case ActionChange:
			or.Action = ActionChange
			if or.from, err = models.ParseOutcome(or.From); err != nil {
				return nil, models.NewRuleConfigError("%s %q: %v", RuleOutcomeRule, v, err)
			}
			if or.to, err = models.ParseOutcome(or.To); err != nil {
				return nil, models.NewRuleConfigError("%s %q: %v", RuleOutcomeRule, v, err)
			}
			if or.to == models.OutcomeExtra || or.to == models.OutcomeMissed {
				return nil, models.NewRuleConfigError("%s %q: cannot change an outcome to %s", RuleOutcomeRule, v, or.to)
			}
		default:
			return nil, models.NewRuleConfigError("%s %q: unknown action %q", RuleOutcomeRule, v, or.Action)
		}
		out = append(out, or)
	}
	return out, nil
}

// applyOutcomeRules rewrites differences located under a rule's subtree. The
// first rule that applies to a difference wins.
func applyOutcomeRules(diffs []models.Difference, rs []OutcomeRule, exp, act *xmlquery.Node) {
	if len(rs) == 0 {
		return
	}
	roots := make([][]string, len(rs))
	for i, r := range rs {
		for _, doc := range []*xmlquery.Node{exp, act} {
			for _, n := range xmlquery.QuerySelectorAll(doc, r.expr) {
				roots[i] = append(roots[i], nodePath(n))
			}
		}
	}
	for i := range diffs {
		d := &diffs[i]
		for ri, r := range rs {
			if !underAny(d.ExpectedCoord, roots[ri]) && !underAny(d.ActualCoord, roots[ri]) {
				continue
			}
			if r.Action == ActionChange && d.Outcome != r.from {
				continue
			}
			if r.Action == ActionIgnore {
				d.Outcome = models.OutcomeIdentical
			} else {
				d.Outcome = r.to
			}
			break
		}
	}
}

func underAny(path string, roots []string) bool {
	for _, r := range roots {
		if underPath(path, r) {
			return true
		}
	}
	return false
}

// runExtraChecks validates every selected node of both documents against the
// paired pattern and reports the failures as Modified.
func (w *walker) runExtraChecks(exp, act *xmlquery.Node) {
	for _, chk := range w.r.extraChecks {
		for side, doc := range []*xmlquery.Node{exp, act} {
			for _, n := range xmlquery.QuerySelectorAll(doc, chk.expr) {
				v := nodeValue(n)
				if matcher.MatchString(chk.re, v) {
					continue
				}
				p := nodePath(n)
				ep, ap, ev, av := p, "", v, ""
				if side == 1 {
					ep, ap, ev, av = "", p, "", v
				}
				w.add(models.OutcomeModified, "extra check", ep, ap, ev, av,
					fmt.Sprintf("value %q at %s does not match %q", v, p, chk.source))
			}
		}
	}
}
