package compare

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.keploy.io/comparator/config"
	jsonMatcher "go.keploy.io/comparator/pkg/matcher/json"
	"go.keploy.io/comparator/pkg/matcher/text"
	"go.keploy.io/comparator/pkg/models"
	"go.keploy.io/comparator/pkg/service/decode"
	"go.uber.org/zap"
	yaml3 "gopkg.in/yaml.v3"
)

type panicking struct{}

func (panicking) Compare(string, string, *models.Parameters) (*models.Result, error) {
	panic("index out of range")
}

func newService(t *testing.T, parallel int) *Compare {
	t.Helper()
	logger := zap.NewNop()
	svc := New(logger, decode.New(logger), parallel)
	svc.Register(FormatText, text.New(logger))
	svc.Register(FormatJSON, jsonMatcher.New(logger))
	svc.Register("broken", panicking{})
	return svc
}

func TestCompare(t *testing.T) {
	svc := newService(t, 1)
	ctx := context.Background()

	res, err := svc.Compare(ctx, Request{Name: "same", Format: "TEXT", Expected: []byte("a\nb"), Actual: []byte("a\nb")})
	require.NoError(t, err)
	assert.True(t, res.Passed())

	res, err = svc.Compare(ctx, Request{Name: "differs", Format: FormatJSON, Expected: []byte(`{"a":1}`), Actual: []byte(`{"a":1,"b":2}`)})
	require.NoError(t, err)
	require.Len(t, res.Differences, 1)
	assert.Equal(t, models.OutcomeExtra, res.Differences[0].Outcome)

	_, err = svc.Compare(ctx, Request{Format: "csv"})
	assert.True(t, models.IsErrorType(err, models.ErrRuleConfig))

	_, err = svc.Compare(ctx, Request{Format: "broken"})
	assert.True(t, models.IsErrorType(err, models.ErrComparisonFailure))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.Compare(cancelled, Request{Format: FormatText})
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{"broken", FormatJSON, FormatText}, svc.Formats())
}

func TestCompareEncoded(t *testing.T) {
	svc := newService(t, 1)
	enc := func(s string) []byte { return []byte(base64.StdEncoding.EncodeToString([]byte(s))) }

	res, err := svc.Compare(context.Background(), Request{
		Format:   FormatText,
		Expected: enc("line one\nline two\n"),
		Actual:   enc("line one\nline 2\n"),
		Encoded:  true,
	})
	require.NoError(t, err)
	require.Len(t, res.Differences, 1)
	assert.Equal(t, "2", res.Differences[0].ExpectedCoord[:1])

	_, err = CompareEncoded(context.Background(), text.New(zap.NewNop()), nil, nil, nil, true, nil)
	assert.Error(t, err)
}

func TestBatchKeepsOrderAndCollectsErrors(t *testing.T) {
	svc := newService(t, 3)
	reqs := []Request{
		{Name: "ok", Format: FormatText, Expected: []byte("x"), Actual: []byte("x")},
		{Name: "bad json", Format: FormatJSON, Expected: []byte("{"), Actual: []byte("{}")},
		{Name: "diff", Format: FormatJSON, Expected: []byte(`{"a":1}`), Actual: []byte(`{}`)},
		{Name: "unknown", Format: "nope"},
	}
	for i := 0; i < 20; i++ {
		reqs = append(reqs, Request{Name: "more", Format: FormatText, Expected: []byte("a"), Actual: []byte("b")})
	}

	results, err := svc.Batch(context.Background(), reqs)
	require.Error(t, err)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)

	require.Len(t, results, len(reqs))
	ids := map[string]bool{}
	for i, r := range results {
		assert.Equal(t, reqs[i].Name, r.Name)
		assert.NotEmpty(t, r.ID)
		ids[r.ID] = true
	}
	assert.Len(t, ids, len(reqs))
	assert.True(t, results[0].Result.Passed())
	assert.True(t, models.IsErrorType(results[1].Err, models.ErrParse))
	assert.False(t, results[2].Result.Passed())
	assert.Error(t, results[3].Err)
}

func TestLoadRequest(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}
	exp := write("e.txt", "a")
	act := write("a.txt", "b")
	rules := write("rules.yaml", "ignoreLine: ['^#', '^//']\nignoreCase: true\n")

	conf := config.New()
	req, err := LoadRequest(config.ResolveJob(conf, config.Job{Expected: exp, Actual: act, RulesFile: rules}))
	require.NoError(t, err)
	assert.Equal(t, "a", string(req.Expected))
	assert.Equal(t, FormatText, req.Format)
	assert.Equal(t, []string{"ignoreLine", "ignoreCase"}, req.Params.Names())
	assert.Equal(t, []string{"^#", "^//"}, req.Params.GetAll("ignoreLine"))

	req, err = LoadRequest(config.Job{Expected: exp, Actual: act, Rules: map[string]interface{}{"b": "1", "a": []interface{}{"x", "y"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, req.Params.Names())

	_, err = LoadRequest(config.Job{Expected: filepath.Join(dir, "missing"), Actual: act})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	value := "42"
	reports := []Report{
		NewReport(JobResult{ID: "1", Name: "orders", Format: FormatJSON, Result: &models.Result{
			Differences: []models.Difference{{OrderID: 1, ExpectedCoord: "/id", ActualCoord: "/id", ActualValue: &value, Outcome: models.OutcomeModified, Description: "value changed"}},
			Warnings:    []string{"pattern excluded"},
		}}),
		NewReport(JobResult{ID: "2", Name: "broken", Format: FormatXML, Err: models.NewParseError("bad xml")}),
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, config.OutputTable, reports))
	out := buf.String()
	assert.Contains(t, out, "FAILED  orders [json]")
	assert.Contains(t, out, "/id = 42")
	assert.Contains(t, out, "MODIFIED: 1")
	assert.Contains(t, out, "warning: pattern excluded")
	assert.Contains(t, out, "error 1001")

	buf.Reset()
	require.NoError(t, Render(&buf, config.OutputYAML, reports))
	var decoded []Report
	require.NoError(t, yaml3.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, 1, decoded[0].Summary[models.OutcomeModified])
	assert.Equal(t, 1001, decoded[1].Code)

	buf.Reset()
	require.NoError(t, Render(&buf, config.OutputJSON, reports))
	assert.True(t, strings.HasPrefix(buf.String(), "["))

	assert.Error(t, Render(&buf, "html", reports))
}

func TestSideBySide(t *testing.T) {
	out, err := SideBySide(`{"a":1,"b":"x"}`, `{"a":1,"b":"y"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Expect")
	assert.Contains(t, out, "Actual")

	var buf bytes.Buffer
	Dump(&buf, map[string]int{"a": 1})
	assert.NotEmpty(t, buf.String())
}
