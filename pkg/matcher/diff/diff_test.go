package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.keploy.io/comparator/pkg/models"
)

func TestSimilarityThresholdBoundary(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		sim      float64
		want     models.Outcome
	}{
		{"one substitution", "abcde", "abcdX", 80, models.OutcomeSimilar},
		{"exactly twenty percent", "abcde", "aWXYZ", 20, models.OutcomeSimilar},
		{"below twenty percent", "abcde", "VWXYZ", 0, models.OutcomeModified},
		{"ten percent", "abcdefghij", "aXXXXXXXXX", 10, models.OutcomeModified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.sim, Similarity(tt.expected, tt.actual), 0.0001)
			d, ok := CompareLine(Line{1, tt.expected}, Line{1, tt.actual}, Options{})
			require.True(t, ok)
			assert.Equal(t, tt.want, d.Outcome)
		})
	}
}

func TestSimilarityEmpty(t *testing.T) {
	assert.Equal(t, 100.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("", "abc"))
}

func TestCompareLineInlineRanges(t *testing.T) {
	d, ok := CompareLine(Line{3, "value=10;name=x"}, Line{4, "value=12;name=y"}, Options{SaveValue: true})
	require.True(t, ok)
	assert.Equal(t, models.OutcomeSimilar, d.Outcome)
	assert.Equal(t, "3:8-8,15-15", d.ExpectedCoord)
	assert.Equal(t, "4:8-8,15-15", d.ActualCoord)
	require.NotNil(t, d.ExpectedValue)
	assert.Equal(t, "value=10;name=x", *d.ExpectedValue)
}

func TestCompareLinePureInsertionKeepsBareRow(t *testing.T) {
	d, ok := CompareLine(Line{1, "abc"}, Line{1, "abcdef"}, Options{})
	require.True(t, ok)
	assert.Equal(t, "1", d.ExpectedCoord)
	assert.Equal(t, "1:4-6", d.ActualCoord)
}

func TestCompareBlocks(t *testing.T) {
	expected := NewLines([]string{"a", "b", "c", "d"})
	actual := NewLines([]string{"a", "c", "d", "e", "f"})
	diffs := Compare(expected, actual, Options{})
	require.Len(t, diffs, 2)

	assert.Equal(t, models.OutcomeMissed, diffs[0].Outcome)
	assert.Equal(t, "2", diffs[0].ExpectedCoord)
	assert.Equal(t, "", diffs[0].ActualCoord)

	assert.Equal(t, models.OutcomeExtra, diffs[1].Outcome)
	assert.Equal(t, "", diffs[1].ExpectedCoord)
	assert.Equal(t, "4-5", diffs[1].ActualCoord)
	assert.Equal(t, 2, diffs[1].OrderID)
}

func TestCompareUnequalChangeBlock(t *testing.T) {
	expected := NewLines([]string{"head", "alpha 1", "tail"})
	actual := NewLines([]string{"head", "alpha 2", "bravo", "charlie", "tail"})
	diffs := Compare(expected, actual, Options{})
	require.Len(t, diffs, 2)

	assert.Equal(t, models.OutcomeSimilar, diffs[0].Outcome)
	assert.Equal(t, "2:7-7", diffs[0].ExpectedCoord)
	assert.Equal(t, models.OutcomeExtra, diffs[1].Outcome)
	assert.Equal(t, "", diffs[1].ExpectedCoord)
	assert.Equal(t, "3-empty2", diffs[1].ActualCoord)
}

func TestCompareIsIdempotentAndKeepsInvariant(t *testing.T) {
	expected := NewLines([]string{"1", "two", "three", "4", "five"})
	actual := NewLines([]string{"one", "two", "3", "five", "six", "seven"})
	first := Compare(expected, actual, Options{})
	second := Compare(expected, actual, Options{})
	assert.Equal(t, first, second)
	for i, d := range first {
		assert.Equal(t, i+1, d.OrderID)
		if d.Outcome == models.OutcomeExtra {
			assert.Empty(t, d.ExpectedCoord)
		}
		if d.Outcome == models.OutcomeMissed {
			assert.Empty(t, d.ActualCoord)
		}
	}
}

func TestLinesDeltaTypes(t *testing.T) {
	deltas := Lines([]string{"a", "b"}, []string{"a", "c", "d"})
	require.Len(t, deltas, 1)
	assert.Equal(t, Change, deltas[0].Type)
	assert.Equal(t, 1, deltas[0].Original.Position)
	assert.Equal(t, []string{"c", "d"}, deltas[0].Revised.Lines)
}
