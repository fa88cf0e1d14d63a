package json

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dlclark/regexp2"
	"github.com/ohler55/ojg/jp"
	"go.keploy.io/comparator/pkg/matcher"
	"go.keploy.io/comparator/pkg/models"
)

// Recognised rule names.
const (
	RuleReadPath            = "readPath"
	RuleIgnoreArrayOrder    = "ignoreArrayOrder"
	RulePrimaryKey          = "primaryKey"
	RuleDetectMoves         = "detectMoves"
	RuleIgnoreProperties    = "ignoreProperties"
	RuleMandatoryAttributes = "mandatoryAttributes"
	RuleIgnorePath          = "ignorePath"
	RuleCheckArray          = "checkArray"
	RuleIgnoreValue         = "ignoreValue"
	RuleDescriptionTemplate = "descriptionTemplate"
	RuleSaveValue           = "saveValue"
	RuleIgnoreCase          = "ignoreCase"
	RuleSchema              = "schema"
)

type primaryKey struct {
	path  jp.Expr
	field string
}

// property is one ignoreProperties entry: a glob over the pointer when it
// contains a slash, a glob over single property names otherwise, or a
// regular expression searched in the pointer.
type property struct {
	glob     string
	segments bool
	re       *regexp2.Regexp
}

func (p property) match(pointer string) bool {
	if p.re != nil {
		return matcher.MatchString(p.re, pointer)
	}
	if !p.segments {
		ok, _ := doublestar.Match(p.glob, strings.TrimPrefix(pointer, "/"))
		return ok
	}
	for _, tok := range splitPointer(pointer) {
		if ok, _ := doublestar.Match(p.glob, tok); ok {
			return true
		}
	}
	return false
}

type rules struct {
	readPath    jp.Expr
	ignoreOrder bool
	keys        []primaryKey
	moves       bool
	properties  []property
	mandatory   []jp.Expr
	ignorePath  []jp.Expr
	checkArray  []jp.Expr
	ignoreValue []jp.Expr
	template    string
	saveValue   bool
	ignoreCase  bool
}

func parseRules(params *models.Parameters, res *models.Result) (*rules, error) {
	r := &rules{
		ignoreOrder: params.GetBool(RuleIgnoreArrayOrder, false),
		moves:       params.GetBool(RuleDetectMoves, false),
		template:    params.GetString(RuleDescriptionTemplate, ""),
		saveValue:   params.GetBool(RuleSaveValue, false),
		ignoreCase:  params.GetBool(RuleIgnoreCase, false),
	}
	var err error
	if rp := params.GetString(RuleReadPath, ""); rp != "" {
		if r.readPath, err = compilePath(RuleReadPath, rp); err != nil {
			return nil, err
		}
	}
	for _, v := range params.GetAll(RulePrimaryKey) {
		i := strings.LastIndex(v, ":")
		if i <= 0 || i == len(v)-1 {
			return nil, models.NewRuleConfigError("%s %q: expected <jsonpath>:<key field>", RulePrimaryKey, v)
		}
		x, err := compilePath(RulePrimaryKey, v[:i])
		if err != nil {
			return nil, err
		}
		r.keys = append(r.keys, primaryKey{path: x, field: v[i+1:]})
	}
	for _, v := range params.GetAll(RuleIgnoreProperties) {
		if expr, ok := strings.CutPrefix(v, matcher.RegexpPrefix); ok {
			re, err := matcher.Compile(expr, r.ignoreCase)
			if err != nil {
				res.Warn(fmt.Sprintf("rule %s: pattern %q excluded: %v", RuleIgnoreProperties, v, err))
				continue
			}
			r.properties = append(r.properties, property{re: re})
			continue
		}
		if !doublestar.ValidatePattern(v) {
			res.Warn(fmt.Sprintf("rule %s: pattern %q excluded: bad glob", RuleIgnoreProperties, v))
			continue
		}
		r.properties = append(r.properties, property{glob: v, segments: !strings.Contains(v, "/")})
	}
	for _, set := range []struct {
		rule string
		dst  *[]jp.Expr
	}{
		{RuleMandatoryAttributes, &r.mandatory},
		{RuleIgnorePath, &r.ignorePath},
		{RuleCheckArray, &r.checkArray},
		{RuleIgnoreValue, &r.ignoreValue},
	} {
		for _, v := range params.GetAll(set.rule) {
			x, err := compilePath(set.rule, v)
			if err != nil {
				return nil, err
			}
			*set.dst = append(*set.dst, x)
		}
	}
	return r, nil
}

func compilePath(rule, path string) (jp.Expr, error) {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, models.NewRuleConfigError("%s %q: %v", rule, path, err)
	}
	return x, nil
}
