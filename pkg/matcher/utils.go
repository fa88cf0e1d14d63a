// Package matcher holds the rule helpers shared by every comparator: the
// compiled pattern cache, inline "regexp:" values, description templates and
// case folding.
package matcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.keploy.io/comparator/pkg/models"
	"golang.org/x/text/cases"
)

// RegexpPrefix marks an expected value that must be matched as a pattern.
const RegexpPrefix = "regexp:"

// MatchTimeout bounds a single user pattern evaluation.
const MatchTimeout = 2 * time.Second

const patternCacheSize = 512

var patterns *lru.Cache[string, *regexp2.Regexp]

func init() {
	var err error
	patterns, err = lru.New[string, *regexp2.Regexp](patternCacheSize)
	if err != nil {
		panic(err)
	}
}

// Compile compiles a user pattern, reusing a cached instance when possible.
// regexp2 values are safe for concurrent use.
func Compile(expr string, ignoreCase bool) (*regexp2.Regexp, error) {
	key := expr
	opts := regexp2.None
	if ignoreCase {
		key = "(?i)" + expr
		opts = regexp2.IgnoreCase
	}
	if re, ok := patterns.Get(key); ok {
		return re, nil
	}
	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = MatchTimeout
	patterns.Add(key, re)
	return re, nil
}

// CompileFull compiles expr anchored at both ends.
func CompileFull(expr string, ignoreCase bool) (*regexp2.Regexp, error) {
	return Compile(`\A(?:`+expr+`)\z`, ignoreCase)
}

// MatchString reports whether re matches s. Timeouts count as no match.
func MatchString(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}

// FullMatch reports whether the whole value matches expr.
func FullMatch(expr, value string, ignoreCase bool) (bool, error) {
	re, err := CompileFull(expr, ignoreCase)
	if err != nil {
		return false, err
	}
	return MatchString(re, value), nil
}

// Groups returns the capture groups of the first match, or nil when re does
// not match.
func Groups(re *regexp2.Regexp, s string) []string {
	m, err := re.FindStringMatch(s)
	if err != nil || m == nil {
		return nil
	}
	gs := m.Groups()
	out := make([]string, 0, len(gs))
	for _, g := range gs[1:] {
		out = append(out, g.String())
	}
	return out
}

// CompileRules compiles every pattern of a rule. Patterns that fail are
// reported as warnings on res and left out of the returned set.
func CompileRules(rule string, exprs []string, ignoreCase bool, res *models.Result) []*regexp2.Regexp {
	out := make([]*regexp2.Regexp, 0, len(exprs))
	for _, e := range exprs {
		re, err := Compile(e, ignoreCase)
		if err != nil {
			res.Warn(fmt.Sprintf("rule %s: pattern %q excluded: %v", rule, e, err))
			continue
		}
		out = append(out, re)
	}
	return out
}

// MatchesAny reports whether s matches one of res, returning the pattern.
func MatchesAny(s string, res []*regexp2.Regexp) (bool, string) {
	for _, re := range res {
		if MatchString(re, s) {
			return true, re.String()
		}
	}
	return false, ""
}

// InlineOutcome resolves an expected value carrying the "regexp:" prefix.
// ok is false when expected is a plain value.
func InlineOutcome(expected, actual string, ignoreCase bool) (outcome models.Outcome, ok bool, err error) {
	expr, found := strings.CutPrefix(expected, RegexpPrefix)
	if !found {
		return "", false, nil
	}
	matched, err := FullMatch(expr, actual, ignoreCase)
	if err != nil {
		return models.OutcomeModified, true, err
	}
	if matched {
		return models.OutcomeIdentical, true, nil
	}
	return models.OutcomeModified, true, nil
}

// ValueOutcome classifies two differing scalar values: blank against
// non-blank is Modified, otherwise Similar unless an inline pattern decides.
func ValueOutcome(expected, actual string, ignoreCase bool, res *models.Result) models.Outcome {
	if (strings.TrimSpace(expected) == "") != (strings.TrimSpace(actual) == "") {
		return models.OutcomeModified
	}
	o, ok, err := InlineOutcome(expected, actual, ignoreCase)
	if err != nil && res != nil {
		res.Warn(fmt.Sprintf("inline pattern %q: %v", expected, err))
	}
	if ok {
		return o
	}
	return models.OutcomeSimilar
}

// Fold case-folds s. Casers are not safe for concurrent use, so one is built
// per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// EqualValues compares two cells or values, honouring ignoreCase.
func EqualValues(a, b string, ignoreCase bool) bool {
	if ignoreCase {
		return Fold(a) == Fold(b)
	}
	return a == b
}
