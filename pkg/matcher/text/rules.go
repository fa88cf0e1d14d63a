package text

import (
	"fmt"

	"github.com/dlclark/regexp2"
	"go.keploy.io/comparator/pkg/matcher"
	"go.keploy.io/comparator/pkg/models"
)

// Recognised rule names.
const (
	RuleSuccessIfMatch      = "successIfMatch"
	RuleFailIfMatch         = "failIfMatch"
	RuleIgnoreCase          = "ignoreCase"
	RuleExcludeBlockStart   = "excludeBlockStart"
	RuleExcludeBlockEnd     = "excludeBlockEnd"
	RuleReplaceRegexp       = "replaceRegexp"
	RuleReplaceWith         = "replaceWith"
	RuleIgnoreLine          = "ignoreLine"
	RuleMask                = "mask"
	RuleSingleRow           = "singleRow"
	RuleSaveValue           = "saveValue"
	RuleMappingRegexp       = "mappingRegexp"
	RuleDescriptionTemplate = "descriptionTemplate"
	RuleThreshold           = "similarityThreshold"
)

type block struct {
	start, end *regexp2.Regexp
}

type replacement struct {
	re   *regexp2.Regexp
	with string
}

// rules is the immutable per-call view of the text comparator configuration.
type rules struct {
	successIfMatch []*regexp2.Regexp
	failIfMatch    []*regexp2.Regexp
	ignoreCase     bool
	blocks         []block
	replacements   []replacement
	ignoreLines    []*regexp2.Regexp
	masks          []*regexp2.Regexp
	singleRow      bool
	saveValue      bool
	mappings       []*regexp2.Regexp
	template       string
	threshold      float64
}

func parseRules(params *models.Parameters, res *models.Result) (*rules, error) {
	r := &rules{
		ignoreCase: params.GetBool(RuleIgnoreCase, false),
		singleRow:  params.GetBool(RuleSingleRow, false),
		saveValue:  params.GetBool(RuleSaveValue, false),
		template:   params.GetString(RuleDescriptionTemplate, ""),
		threshold:  float64(params.GetInt(RuleThreshold, 0)),
	}
	r.successIfMatch = matcher.CompileRules(RuleSuccessIfMatch, params.GetAll(RuleSuccessIfMatch), r.ignoreCase, res)
	r.failIfMatch = matcher.CompileRules(RuleFailIfMatch, params.GetAll(RuleFailIfMatch), r.ignoreCase, res)
	r.ignoreLines = matcher.CompileRules(RuleIgnoreLine, params.GetAll(RuleIgnoreLine), r.ignoreCase, res)
	r.masks = matcher.CompileRules(RuleMask, params.GetAll(RuleMask), r.ignoreCase, res)
	r.mappings = matcher.CompileRules(RuleMappingRegexp, params.GetAll(RuleMappingRegexp), r.ignoreCase, res)

	starts, ends := params.GetAll(RuleExcludeBlockStart), params.GetAll(RuleExcludeBlockEnd)
	if len(starts) != len(ends) {
		return nil, models.NewRuleConfigError("%s has %d values but %s has %d", RuleExcludeBlockStart, len(starts), RuleExcludeBlockEnd, len(ends))
	}
	for i := range starts {
		s, err1 := matcher.Compile(starts[i], r.ignoreCase)
		e, err2 := matcher.Compile(ends[i], r.ignoreCase)
		if err1 != nil || err2 != nil {
			res.Warn(fmt.Sprintf("rule %s: block %q..%q excluded", RuleExcludeBlockStart, starts[i], ends[i]))
			continue
		}
		r.blocks = append(r.blocks, block{start: s, end: e})
	}

	exprs, withs := params.GetAll(RuleReplaceRegexp), params.GetAll(RuleReplaceWith)
	if len(exprs) != len(withs) {
		return nil, models.NewRuleConfigError("%s has %d values but %s has %d", RuleReplaceRegexp, len(exprs), RuleReplaceWith, len(withs))
	}
	for i := range exprs {
		re, err := matcher.Compile(exprs[i], r.ignoreCase)
		if err != nil {
			res.Warn(fmt.Sprintf("rule %s: pattern %q excluded: %v", RuleReplaceRegexp, exprs[i], err))
			continue
		}
		r.replacements = append(r.replacements, replacement{re: re, with: withs[i]})
	}
	return r, nil
}
