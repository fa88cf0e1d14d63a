package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.keploy.io/comparator/pkg/matcher/schema"
	"go.keploy.io/comparator/pkg/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func compare(t *testing.T, expected, actual string, params *models.Parameters) *models.Result {
	t.Helper()
	res, err := New(zaptest.NewLogger(t)).Compare(expected, actual, params)
	require.NoError(t, err)
	return res
}

func TestIdenticalDocuments(t *testing.T) {
	doc := `<?xml version="1.0"?><root a="1"><item>x</item><!-- c --></root>`
	res := compare(t, doc, doc, models.NewParameters())
	assert.Empty(t, res.Differences)
}

func TestComparisonKinds(t *testing.T) {
	expected := `<root><item id="1" kind="a">alpha</item><item id="2">beta</item><gone/></root>`
	actual := `<root><item id="1" extra="y">alpha!</item><item id="2">  </item><new/></root>`

	res := compare(t, expected, actual, models.NewParameters())
	got := map[string]models.Difference{}
	for _, d := range res.Differences {
		got[d.ExpectedCoord+"|"+d.ActualCoord] = d
	}

	assert.Equal(t, models.OutcomeMissed, got["/root[1]/item[1]/@kind|"].Outcome)
	assert.Equal(t, models.OutcomeExtra, got["|/root[1]/item[1]/@extra"].Outcome)
	assert.Equal(t, models.OutcomeSimilar, got["/root[1]/item[1]/text()|/root[1]/item[1]/text()"].Outcome)
	assert.Equal(t, models.OutcomeModified, got["/root[1]/item[2]/text()|/root[1]/item[2]/text()"].Outcome, "blank against non-blank")
	assert.Equal(t, models.OutcomeMissed, got["/root[1]/gone[1]|"].Outcome)
	assert.Equal(t, models.OutcomeExtra, got["|/root[1]/new[1]"].Outcome)
	assert.Len(t, res.Differences, 6)

	for i, d := range res.Differences {
		assert.Equal(t, i+1, d.OrderID)
	}
}

func TestRootTagName(t *testing.T) {
	res := compare(t, `<a/>`, `<b/>`, models.NewParameters())
	require.Len(t, res.Differences, 1)
	assert.Equal(t, models.OutcomeModified, res.Differences[0].Outcome)
	assert.Equal(t, "/a[1]", res.Differences[0].ExpectedCoord)
	assert.Equal(t, "/b[1]", res.Differences[0].ActualCoord)
}

func TestInlineRegexpValues(t *testing.T) {
	expected := `<r><id>regexp:\d+</id><code v="regexp:[A-Z]{3}"/></r>`
	res := compare(t, expected, `<r><id>123</id><code v="abcd"/></r>`, models.NewParameters())
	require.Len(t, res.Differences, 2)
	assert.Equal(t, models.OutcomeIdentical, res.Differences[0].Outcome)
	assert.Equal(t, models.OutcomeModified, res.Differences[1].Outcome)
}

func TestKeyNodeMatching(t *testing.T) {
	expected := `<order><line><sku>A</sku><qty>1</qty></line><line><sku>B</sku><qty>2</qty></line></order>`
	actual := `<order><line><sku>B</sku><qty>2</qty></line><line><sku>A</sku><qty>1</qty></line></order>`

	res := compare(t, expected, actual, models.NewParameters())
	assert.NotEmpty(t, res.Differences, "positional matching sees swapped lines")

	res = compare(t, expected, actual, models.NewParameters().Add(RuleKeyNode, "order:line/sku"))
	assert.Empty(t, res.Differences)

	res = compare(t, expected, actual, models.NewParameters().Add(RuleKeyNode, "!order:line/sku"))
	assert.NotEmpty(t, res.Differences, "negated scope excludes the order parent")
}

func TestKeyNodeConfigErrors(t *testing.T) {
	for _, v := range []string{"!line/sku", "parent:", ""} {
		_, err := New(zap.NewNop()).Compare("<a/>", "<a/>", models.NewParameters().Add(RuleKeyNode, v))
		assert.True(t, models.IsErrorType(err, models.ErrRuleConfig), v)
	}
}

func TestSortAndExclude(t *testing.T) {
	expected := `<r><b>2</b><a>1</a><item10/><item9/><ts>100</ts></r>`
	actual := `<r><a>1</a><item9/><b>2</b><item10/><ts>200</ts></r>`
	params := models.NewParameters().
		Add(RuleSortAlphabetically, "true").
		Add(RuleExcludeXPath, "//ts")

	res := compare(t, expected, actual, params)
	assert.Empty(t, res.Differences)
}

func TestExcludeAttribute(t *testing.T) {
	res := compare(t, `<r id="1" at="x"/>`, `<r id="1" at="y"/>`, models.NewParameters().Add(RuleExcludeXPath, "//@at"))
	assert.Empty(t, res.Differences)

	ns := `xmlns:x="urn:x"`
	res = compare(t, `<r `+ns+`><i id="1" x:id="a"/></r>`, `<r `+ns+`><i id="2" x:id="b"/></r>`, models.NewParameters().Add(RuleExcludeXPath, "//i/@id"))
	require.Len(t, res.Differences, 1)
	assert.Contains(t, res.Differences[0].Description, "x:id")
}

func TestOutcomeRules(t *testing.T) {
	expected := `<r><meta><ts>1</ts></meta><body><v>a</v><w/></body></r>`
	actual := `<r><meta><ts>2</ts></meta><body><v>b</v></body></r>`
	params := models.NewParameters().
		Add(RuleOutcomeRule,
			`{xpath: /r/meta, action: ignore}`,
			`{xpath: /r/body, action: change, from: MISSED, to: SIMILAR}`,
			`{xpath: /r, action: change, from: SIMILAR, to: FAILED}`,
		)

	res := compare(t, expected, actual, params)
	require.Len(t, res.Differences, 3)
	byPath := map[string]models.Outcome{}
	for _, d := range res.Differences {
		byPath[d.ExpectedCoord] = d.Outcome
	}
	assert.Equal(t, models.OutcomeIdentical, byPath["/r[1]/meta[1]/ts[1]/text()"])
	assert.Equal(t, models.OutcomeSimilar, byPath["/r[1]/body[1]/w[1]"])
	assert.Equal(t, models.OutcomeFailed, byPath["/r[1]/body[1]/v[1]/text()"], "first matching rule wins")
}

func TestOutcomeRuleErrors(t *testing.T) {
	for _, v := range []string{
		`{xpath: "//[", action: ignore}`,
		`{xpath: /r, action: drop}`,
		`{xpath: /r, action: change, from: NOPE, to: SIMILAR}`,
		`{xpath: /r, action: change, from: SIMILAR, to: EXTRA}`,
	} {
		_, err := New(zap.NewNop()).Compare("<r/>", "<r/>", models.NewParameters().Add(RuleOutcomeRule, v))
		assert.True(t, models.IsErrorType(err, models.ErrRuleConfig), v)
	}
}

func TestExtraChecks(t *testing.T) {
	expected := `<r><id>12</id><id>x</id></r>`
	actual := `<r><id>12</id><id>x</id><code k="AB"/></r>`
	params := models.NewParameters().
		Add(RuleExtraCheckXPath, "//id", "//code/@k").
		Add(RuleExtraCheckRegexp, `\d+`, `[A-Z]{3}`)

	res := compare(t, expected, actual, params)
	var checks []models.Difference
	for _, d := range res.Differences {
		if d.Outcome == models.OutcomeModified {
			checks = append(checks, d)
		}
	}
	require.Len(t, checks, 3)
	assert.Equal(t, "/r[1]/id[2]", checks[0].ExpectedCoord)
	assert.Empty(t, checks[0].ActualCoord)
	assert.Equal(t, "/r[1]/id[2]", checks[1].ActualCoord)
	assert.Equal(t, "/r[1]/code[1]/@k", checks[2].ActualCoord)

	_, err := New(zap.NewNop()).Compare("<r/>", "<r/>", models.NewParameters().Add(RuleExtraCheckXPath, "//id"))
	assert.True(t, models.IsErrorType(err, models.ErrRuleConfig))
}

func TestDescriptionTemplateAndSaveValue(t *testing.T) {
	params := models.NewParameters().
		Add(RuleDescriptionTemplate, "{OPERATION}: {ERVALUE} -> {ARVALUE} at {ARPATH}").
		Add(RuleSaveValue, "true")
	res := compare(t, `<r a="1"/>`, `<r a="2"/>`, params)
	require.Len(t, res.Differences, 1)
	d := res.Differences[0]
	assert.Equal(t, "attribute value: 1 -> 2 at /r[1]/@a", d.Description)
	require.NotNil(t, d.ExpectedValue)
	assert.Equal(t, "1", *d.ExpectedValue)
}

func TestParseError(t *testing.T) {
	_, err := New(zap.NewNop()).Compare("<r>", "<r/>", models.NewParameters())
	assert.True(t, models.IsErrorType(err, models.ErrParse))
}

func TestDeepTreeIsIterative(t *testing.T) {
	depth := 2000
	open, closeTags := "", ""
	for i := 0; i < depth; i++ {
		open += "<n>"
		closeTags += "</n>"
	}
	res := compare(t, open+"x"+closeTags, open+"y"+closeTags, models.NewParameters())
	require.Len(t, res.Differences, 1)
	assert.Equal(t, models.OutcomeSimilar, res.Differences[0].Outcome)
}

func TestSchemaValidationMode(t *testing.T) {
	params := models.NewParameters().
		Add(RuleSchemaValidation, "true").
		Add(RuleSchema, "- path: /r/id\n  required: true\n")
	res := compare(t, "", "<r>\n</r>", params)
	require.Len(t, res.Differences, 1)
	assert.Equal(t, models.OutcomeModified, res.Differences[0].Outcome)
	assert.Equal(t, "1:1-1", res.Differences[0].ActualCoord)

	xsd := schema.ValidateFunc(func(s, doc string) ([]schema.Violation, error) {
		return []schema.Violation{{Severity: schema.SeverityFatal, Line: 2, Column: 4, Message: "cvc-elt.1"}}, nil
	})
	res, err := New(zap.NewNop()).WithValidator(xsd).Compare("", "<r/>", params)
	require.NoError(t, err)
	require.Len(t, res.Differences, 1)
	assert.Equal(t, models.OutcomeError, res.Differences[0].Outcome)
	assert.Equal(t, "2:4-4", res.Differences[0].ActualCoord)
}
