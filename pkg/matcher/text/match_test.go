package text

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.keploy.io/comparator/pkg/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestCompareIdentical(t *testing.T) {
	m := New(zap.NewNop())
	res, err := m.Compare("a\nb\n", "a\r\nb", models.NewParameters())
	require.NoError(t, err)
	assert.Empty(t, res.Differences)
	assert.True(t, res.Passed())
}

func TestMatchRules(t *testing.T) {
	tests := []struct {
		name    string
		params  *models.Parameters
		actual  string
		outcome models.Outcome
		coord   string
	}{
		{
			name:   "success pattern hit",
			params: models.NewParameters().Add(RuleSuccessIfMatch, `status: OK`),
			actual: "x\nstatus: OK",
		},
		{
			name:    "success pattern miss",
			params:  models.NewParameters().Add(RuleSuccessIfMatch, `status: OK`),
			actual:  "x\nstatus: DOWN",
			outcome: models.OutcomeFailed,
			coord:   "1-2",
		},
		{
			name:    "fail pattern hit",
			params:  models.NewParameters().Add(RuleFailIfMatch, `ERROR \d+`),
			actual:  "ok\nok\nERROR 42",
			outcome: models.OutcomeFailed,
			coord:   "3",
		},
		{
			name:   "success takes priority",
			params: models.NewParameters().Add(RuleFailIfMatch, `ERROR`).Add(RuleSuccessIfMatch, `done`),
			actual: "ERROR\ndone",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(zaptest.NewLogger(t)).Compare("ignored", tt.actual, tt.params)
			require.NoError(t, err)
			if tt.outcome == "" {
				assert.Empty(t, res.Differences)
				return
			}
			require.Len(t, res.Differences, 1)
			assert.Equal(t, tt.outcome, res.Differences[0].Outcome)
			assert.Equal(t, tt.coord, res.Differences[0].ActualCoord)
			assert.Equal(t, 1, res.Differences[0].OrderID)
		})
	}
}

func TestNormalizationRules(t *testing.T) {
	expected := "Header\n# begin\nnoise 1\n# end\nid=100 time=10:00\nstable"
	actual := "HEADER\nid=200 time=11:30\nstable\ndebug: extra"
	params := models.NewParameters().
		Add(RuleIgnoreCase, "true").
		Add(RuleExcludeBlockStart, `^# begin`).
		Add(RuleExcludeBlockEnd, `^# end`).
		Add(RuleReplaceRegexp, `time=\d\d:\d\d`).
		Add(RuleReplaceWith, `time=HH:MM`).
		Add(RuleMask, `\d+`).
		Add(RuleIgnoreLine, `^debug:`)

	res, err := New(zap.NewNop()).Compare(expected, actual, params)
	require.NoError(t, err)
	assert.Empty(t, res.Differences)
	assert.Empty(t, res.Warnings)
}

func TestLineNumbersSurviveFiltering(t *testing.T) {
	expected := "skip me\nalpha\nbeta"
	actual := "alpha\nqqqqqqqq"
	params := models.NewParameters().Add(RuleIgnoreLine, `^skip`)

	res, err := New(zap.NewNop()).Compare(expected, actual, params)
	require.NoError(t, err)
	require.Len(t, res.Differences, 1)
	d := res.Differences[0]
	assert.Equal(t, "3", d.ExpectedCoord)
	assert.Equal(t, "2", d.ActualCoord)
}

func TestPairedRulesCountMismatch(t *testing.T) {
	params := models.NewParameters().Add(RuleReplaceRegexp, "a", "b").Add(RuleReplaceWith, "c")
	_, err := New(zap.NewNop()).Compare("a", "b", params)
	assert.True(t, models.IsErrorType(err, models.ErrRuleConfig))

	params = models.NewParameters().Add(RuleExcludeBlockStart, "a")
	_, err = New(zap.NewNop()).Compare("a", "b", params)
	assert.True(t, models.IsErrorType(err, models.ErrRuleConfig))
}

func TestBadPatternBecomesWarning(t *testing.T) {
	params := models.NewParameters().Add(RuleIgnoreLine, `(`, `^x`)
	res, err := New(zap.NewNop()).Compare("x1\nsame", "x2\nsame", params)
	require.NoError(t, err)
	assert.Empty(t, res.Differences)
	assert.Len(t, res.Warnings, 1)
}

func TestSingleRow(t *testing.T) {
	params := models.NewParameters().Add(RuleSingleRow, "true").Add(RuleSaveValue, "true")
	res, err := New(zap.NewNop()).Compare("a\nb\nc", "a\nB\nc\nd\ne", params)
	require.NoError(t, err)
	require.Len(t, res.Differences, 2)

	assert.Equal(t, models.OutcomeModified, res.Differences[0].Outcome)
	assert.Equal(t, "2", res.Differences[0].ExpectedCoord)
	assert.Equal(t, models.OutcomeExtra, res.Differences[1].Outcome)
	assert.Equal(t, "", res.Differences[1].ExpectedCoord)
	assert.Equal(t, "4-5", res.Differences[1].ActualCoord)
	require.NotNil(t, res.Differences[1].ActualValue)
	assert.Equal(t, "d\ne", *res.Differences[1].ActualValue)
}

func TestMappingRegexp(t *testing.T) {
	expected := "order 1 ref=ABC status=new\nline two"
	actual := "order 1 ref=ABC status=old\nline 2"
	params := models.NewParameters().Add(RuleMappingRegexp, `ref=(\w+)`)

	res, err := New(zap.NewNop()).Compare(expected, actual, params)
	require.NoError(t, err)
	require.Len(t, res.Differences, 3)

	assert.Equal(t, models.OutcomeSkipped, res.Differences[0].Outcome, "kept for audit")
	assert.Equal(t, models.OutcomeSimilar, res.Differences[1].Outcome)
	assert.Equal(t, models.OutcomeIdentical, res.Differences[2].Outcome)
	assert.Equal(t, "1", res.Differences[2].ExpectedCoord)
	for i, d := range res.Differences {
		assert.Equal(t, i+1, d.OrderID)
	}
}

func TestMappingRegexpForcesModified(t *testing.T) {
	params := models.NewParameters().Add(RuleMappingRegexp, `ref=(\w+)`)
	res, err := New(zap.NewNop()).Compare("ref=ABC x", "ref=ABD x", params)
	require.NoError(t, err)
	require.Len(t, res.Differences, 1)
	assert.Equal(t, models.OutcomeModified, res.Differences[0].Outcome)
}

func TestDescriptionTemplate(t *testing.T) {
	params := models.NewParameters().Add(RuleDescriptionTemplate, "{OPERATION} {ERPATH} -> {ARPATH}")
	res, err := New(zap.NewNop()).Compare("abc", "abd", params)
	require.NoError(t, err)
	require.Len(t, res.Differences, 1)
	assert.Equal(t, "SIMILAR 1:3-3 -> 1:3-3", res.Differences[0].Description)
}

func TestConcurrentCompare(t *testing.T) {
	m := New(zap.NewNop())
	params := models.NewParameters().Add(RuleMask, `\d+`).Add(RuleIgnoreCase, "true")
	want, err := m.Compare("A 1\nb\nc", "a 2\nB\nd", params)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.Compare("A 1\nb\nc", "a 2\nB\nd", params)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
