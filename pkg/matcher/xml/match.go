// Package xml compares XML documents node by node.
package xml

import (
	"github.com/antchfx/xmlquery"
	"go.keploy.io/comparator/pkg/matcher/schema"
	"go.keploy.io/comparator/pkg/models"
	"go.uber.org/zap"
)

type Matcher struct {
	logger    *zap.Logger
	validator schema.Validator
}

// New returns an XML matcher validating schemas with the built-in simple
// schema validator.
func New(logger *zap.Logger) *Matcher {
	return &Matcher{logger: logger, validator: schema.SimpleXML{}}
}

// WithValidator returns a copy of m using v in schema validation mode, for
// example an XSD engine wrapped in schema.ValidateFunc.
func (m *Matcher) WithValidator(v schema.Validator) *Matcher {
	return &Matcher{logger: m.logger, validator: v}
}

func (m *Matcher) Compare(expected, actual string, params *models.Parameters) (*models.Result, error) {
	res := &models.Result{}
	if params.GetBool(RuleSchemaValidation, false) {
		return m.validate(actual, params, res)
	}

	r, err := parseRules(params, res)
	if err != nil {
		return nil, err
	}
	exp, err := parse(expected)
	if err != nil {
		return nil, err
	}
	act, err := parse(actual)
	if err != nil {
		return nil, err
	}
	for _, doc := range []*xmlquery.Node{exp, act} {
		excludeNodes(doc, r.exclude)
		if r.sort {
			if root := rootElement(doc); root != nil {
				sortTree(root)
			}
		}
	}
	expRoot, actRoot := rootElement(exp), rootElement(act)
	if expRoot == nil || actRoot == nil {
		return nil, models.NewRuleConfigError("%s removed the root element", RuleExcludeXPath)
	}

	w := &walker{r: r, res: res}
	w.walk(expRoot, actRoot)
	applyOutcomeRules(res.Differences, r.outcomes, exp, act)
	w.runExtraChecks(exp, act)

	m.logger.Debug("xml compared", zap.Int("differences", len(res.Differences)), zap.Int("warnings", len(res.Warnings)))
	res.Differences = models.Renumber(res.Differences)
	return res, nil
}

// validate checks actual against the schema rule instead of diffing.
func (m *Matcher) validate(actual string, params *models.Parameters, res *models.Result) (*models.Result, error) {
	s := params.GetString(RuleSchema, "")
	if s == "" {
		return nil, models.NewRuleConfigError("%s needs a %s rule", RuleSchemaValidation, RuleSchema)
	}
	vs, err := m.validator.Validate(s, actual)
	if err != nil {
		return nil, err
	}
	res.Differences = schema.ToDifferences(vs, schema.Actual)
	return res, nil
}
