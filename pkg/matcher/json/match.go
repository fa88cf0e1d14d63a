// Package json compares JSON documents as a patch between expected and
// actual, filtered by path rules.
package json

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/wI2L/jsondiff"
	"go.keploy.io/comparator/pkg/matcher"
	"go.keploy.io/comparator/pkg/matcher/schema"
	"go.keploy.io/comparator/pkg/models"
	"go.uber.org/zap"
)

// OpTypeMismatch is reported when a value changed its JSON type.
const OpTypeMismatch = "type_not_matched"

type Matcher struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Matcher {
	return &Matcher{logger: logger}
}

// candidate is a patch operation before filtering.
type candidate struct {
	op       string
	expPath  string
	actPath  string
	expSide  bool
	actSide  bool
	expected interface{}
	actual   interface{}
	hasExp   bool
	hasAct   bool
	outcome  models.Outcome
}

func (m *Matcher) Compare(expected, actual string, params *models.Parameters) (*models.Result, error) {
	res := &models.Result{}
	if s := params.GetString(RuleSchema, ""); s != "" {
		return m.validate(s, actual, params, res)
	}
	r, err := parseRules(params, res)
	if err != nil {
		return nil, err
	}
	exp, err := parse("expected", expected)
	if err != nil {
		return nil, err
	}
	act, err := parse("actual", actual)
	if err != nil {
		return nil, err
	}
	exp, act = narrow(exp, r.readPath), narrow(act, r.readPath)
	for _, k := range r.keys {
		alignByKey(exp, k)
		alignByKey(act, k)
	}

	var opts []jsondiff.Option
	if r.ignoreOrder {
		pairArrays(exp, act)
		opts = append(opts, jsondiff.Equivalent())
	}
	if r.moves {
		opts = append(opts, jsondiff.Factorize())
	}
	patch, err := jsondiff.Compare(exp, act, opts...)
	if err != nil {
		return nil, models.NewComparisonFailure("json diff: %v", err)
	}

	f := newFilter(r, exp, act)
	appended, removed := map[string]int{}, map[string]int{}
	for _, op := range patch {
		switch op.Type {
		case jsondiff.OperationAdd:
			op.Path = appendIndex(op.Path, exp, appended)
		case jsondiff.OperationRemove:
			op.Path = removeIndex(op.Path, removed)
		}
		c, ok := m.classify(op, exp, r, res)
		if !ok || !f.keep(c) {
			continue
		}
		res.Add(r.difference(c))
	}
	m.logger.Debug("json compared", zap.Int("operations", len(patch)), zap.Int("differences", len(res.Differences)))
	res.Differences = models.Renumber(res.Differences)
	return res, nil
}

func parse(side, s string) (interface{}, error) {
	v, err := oj.ParseString(s)
	if err != nil {
		return nil, models.NewParseError("invalid %s json: %v", side, err)
	}
	return v, nil
}

// appendIndex replaces the "-" end-of-array token with the index the value
// takes in actual.
func appendIndex(path string, exp interface{}, appended map[string]int) string {
	parent, found := strings.CutSuffix(path, "/-")
	if !found {
		return path
	}
	n, seen := appended[parent]
	if !seen {
		if arr, ok := lookup(exp, parent); ok {
			if a, ok := arr.([]interface{}); ok {
				n = len(a)
			}
		}
	}
	appended[parent] = n + 1
	return parent + "/" + strconv.Itoa(n)
}

// removeIndex spreads repeated removals of a trailing array index, which
// address the shrinking array, over the indexes they had in expected.
func removeIndex(path string, removed map[string]int) string {
	n := removed[path]
	removed[path] = n + 1
	if n == 0 {
		return path
	}
	i := strings.LastIndex(path, "/")
	idx, err := strconv.Atoi(path[i+1:])
	if err != nil {
		return path
	}
	return path[:i+1] + strconv.Itoa(idx+n)
}

func oldValue(op jsondiff.Operation, exp interface{}, path string) (interface{}, bool) {
	if op.OldValue != nil {
		return op.OldValue, true
	}
	return lookup(exp, path)
}

// classify maps one patch operation to an outcome.
func (m *Matcher) classify(op jsondiff.Operation, exp interface{}, r *rules, res *models.Result) (candidate, bool) {
	if op.Path == "" && (op.Type == jsondiff.OperationAdd || op.Type == jsondiff.OperationRemove) {
		return rootChange(op, exp), true
	}
	c := candidate{op: op.Type}
	switch op.Type {
	case jsondiff.OperationAdd, jsondiff.OperationCopy:
		c.actPath, c.actSide = op.Path, true
		c.actual, c.hasAct = op.Value, true
		c.outcome = models.OutcomeExtra
	case jsondiff.OperationRemove:
		c.expPath, c.expSide = op.Path, true
		c.expected, c.hasExp = oldValue(op, exp, op.Path)
		c.outcome = models.OutcomeMissed
	case jsondiff.OperationMove:
		c.expPath, c.actPath = op.From, op.Path
		c.expSide, c.actSide = true, true
		c.expected, c.hasExp = lookup(exp, op.From)
		c.outcome = models.OutcomeModified
	case jsondiff.OperationReplace:
		c.expPath, c.actPath = op.Path, op.Path
		c.expSide, c.actSide = true, true
		c.expected, c.hasExp = oldValue(op, exp, op.Path)
		c.actual, c.hasAct = op.Value, true
		pattern, isPattern := c.expected.(string)
		isPattern = isPattern && strings.HasPrefix(pattern, matcher.RegexpPrefix) && scalar(c.actual)
		switch {
		case op.Path == "":
			c.outcome = models.OutcomeModified
		case isPattern:
			c.outcome = inline(pattern, render(c.actual), r.ignoreCase, res, models.OutcomeSimilar)
		case kind(c.expected) != kind(c.actual):
			c.op = OpTypeMismatch
			c.outcome = models.OutcomeModified
		default:
			c.outcome = models.OutcomeSimilar
		}
	default:
		m.logger.Debug("skipping patch operation", zap.String("op", op.Type), zap.String("path", op.Path))
		return c, false
	}
	return c, true
}

// rootChange classifies a root that was added or removed as a whole, which
// is how a change of root type or an empty readPath selection shows up.
// It is always Modified.
func rootChange(op jsondiff.Operation, exp interface{}) candidate {
	c := candidate{
		op:      jsondiff.OperationReplace,
		expSide: true,
		actSide: true,
		outcome: models.OutcomeModified,
	}
	c.expected, c.hasExp = exp, exp != nil
	if op.Type == jsondiff.OperationAdd {
		c.actual, c.hasAct = op.Value, true
	}
	if c.hasExp && c.hasAct && kind(c.expected) != kind(c.actual) {
		c.op = OpTypeMismatch
	}
	return c
}

// inline resolves a "regexp:" expected value, keeping def otherwise.
func inline(expected, actual string, ignoreCase bool, res *models.Result, def models.Outcome) models.Outcome {
	o, ok, err := matcher.InlineOutcome(expected, actual, ignoreCase)
	if err != nil {
		res.Warn(fmt.Sprintf("inline pattern %q: %v", expected, err))
	}
	if !ok {
		return def
	}
	return o
}

func (r *rules) difference(c candidate) models.Difference {
	d := models.Difference{Outcome: c.outcome}
	if c.expSide {
		d.ExpectedCoord = coord(c.expPath)
	}
	if c.actSide {
		d.ActualCoord = coord(c.actPath)
	}
	var ev, av string
	if c.hasExp {
		ev = render(c.expected)
	}
	if c.hasAct {
		av = render(c.actual)
	}
	d.SetValues(r.saveValue, ev, av)

	var def string
	switch c.op {
	case jsondiff.OperationAdd:
		def = fmt.Sprintf("extra value at %s", d.ActualCoord)
	case jsondiff.OperationCopy:
		def = fmt.Sprintf("extra copy of a value at %s", d.ActualCoord)
	case jsondiff.OperationRemove:
		def = fmt.Sprintf("missed value at %s", d.ExpectedCoord)
	case jsondiff.OperationMove:
		def = fmt.Sprintf("value moved from %s to %s", d.ExpectedCoord, d.ActualCoord)
	case OpTypeMismatch:
		def = fmt.Sprintf("type changed from %s to %s at %s", kind(c.expected), kind(c.actual), d.ExpectedCoord)
	default:
		def = fmt.Sprintf("value changed at %s", d.ExpectedCoord)
	}
	value := av
	if c.op == jsondiff.OperationRemove {
		value = ev
	}
	d.Description = matcher.Describe(r.template, def, matcher.Macros{
		matcher.MacroERPath:    d.ExpectedCoord,
		matcher.MacroARPath:    d.ActualCoord,
		matcher.MacroValue:     value,
		matcher.MacroERValue:   ev,
		matcher.MacroARValue:   av,
		matcher.MacroSummary:   def,
		matcher.MacroOperation: c.op,
	})
	return d
}

// filter holds the rule path sets resolved against both documents.
type filter struct {
	r           *rules
	mandatory   []string
	ignorePath  []string
	checkArray  []string
	ignoreValue []string
}

func newFilter(r *rules, exp, act interface{}) *filter {
	return &filter{
		r:           r,
		mandatory:   locate(r.mandatory, exp, act),
		ignorePath:  locate(r.ignorePath, exp, act),
		checkArray:  locate(r.checkArray, exp, act),
		ignoreValue: locate(r.ignoreValue, exp, act),
	}
}

func (f *filter) paths(c candidate) []string {
	var out []string
	if c.expSide {
		out = append(out, c.expPath)
	}
	if c.actSide {
		out = append(out, c.actPath)
	}
	return out
}

func (f *filter) keep(c candidate) bool {
	paths := f.paths(c)
	for _, p := range paths {
		for _, prop := range f.r.properties {
			if prop.match(p) {
				return false
			}
		}
	}
	if len(f.r.mandatory) > 0 {
		ok := false
		for _, p := range paths {
			for _, mp := range f.mandatory {
				if under(p, mp) || under(mp, p) {
					ok = true
				}
			}
		}
		if !ok {
			return false
		}
	}
	for _, p := range paths {
		if underAny(p, f.ignorePath) && !underAny(p, f.checkArray) {
			return false
		}
	}
	if c.op == jsondiff.OperationReplace {
		for _, p := range paths {
			if underAny(p, f.ignoreValue) {
				return false
			}
		}
	}
	return true
}

// validate checks actual against a JSON schema instead of diffing.
func (m *Matcher) validate(s, actual string, params *models.Parameters, res *models.Result) (*models.Result, error) {
	vs, err := schema.ValidateJSON([]byte(s), []byte(actual))
	if err != nil {
		return nil, err
	}
	template := params.GetString(RuleDescriptionTemplate, "")
	for _, v := range vs {
		d := models.Difference{Outcome: SchemaOutcome(v.Field)}
		switch d.Outcome {
		case models.OutcomeMissed:
			d.ExpectedCoord = coord(v.Pointer)
		default:
			d.ActualCoord = coord(v.Pointer)
		}
		d.Description = matcher.Describe(template, v.Message, matcher.Macros{
			matcher.MacroERPath:    d.ExpectedCoord,
			matcher.MacroARPath:    d.ActualCoord,
			matcher.MacroSummary:   v.Message,
			matcher.MacroOperation: v.Field,
		})
		res.Add(d)
	}
	m.logger.Debug("json schema validated", zap.Int("violations", len(vs)))
	res.Differences = models.Renumber(res.Differences)
	return res, nil
}

// SchemaOutcome maps a failed schema keyword to an outcome.
func SchemaOutcome(field string) models.Outcome {
	switch field {
	case "additionalProperties":
		return models.OutcomeExtra
	case "pattern", "minLength", "maxLength", "minimum", "maximum":
		return models.OutcomeSimilar
	case "required":
		return models.OutcomeMissed
	}
	return models.OutcomeModified
}
