package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml3 "gopkg.in/yaml.v3"
)

func TestNewUsesDefaults(t *testing.T) {
	conf := New()
	assert.Equal(t, "text", conf.Format)
	assert.Equal(t, OutputTable, conf.Output)
	assert.Equal(t, 4, conf.Parallel)
	assert.True(t, conf.FailOnDiff)
	assert.Empty(t, conf.Jobs)
}

func TestReadMergesOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comparator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
format: xml
parallel: 8
rules:
  sortAlphabetically: true
jobs:
  - name: orders
    expected: a.xml
    actual: b.xml
`), 0o600))

	merged, err := Read(path)
	require.NoError(t, err)
	conf := &Config{}
	require.NoError(t, yaml3.Unmarshal([]byte(merged), conf))
	assert.Equal(t, "xml", conf.Format)
	assert.Equal(t, 8, conf.Parallel)
	assert.Equal(t, OutputTable, conf.Output)
	assert.Equal(t, true, conf.Rules["sortAlphabetically"])
	require.Len(t, conf.Jobs, 1)
	assert.Equal(t, "orders", conf.Jobs[0].Name)

	_, err = Read(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMergeStringsInvalidYAML(t *testing.T) {
	_, err := Merge("invalid: [unclosed", "format: text")
	assert.Error(t, err)
	_, err = Merge("format: text", "invalid: {unclosed")
	assert.Error(t, err)
}

func TestSetRules(t *testing.T) {
	conf := New()
	require.NoError(t, SetRules(conf, []string{"ignoreCase=true", "excludeXPath=//a", "excludeXPath=//b", "excludeXPath=//c"}))
	assert.Equal(t, "true", conf.Rules["ignoreCase"])
	assert.Equal(t, []interface{}{"//a", "//b", "//c"}, conf.Rules["excludeXPath"])

	assert.Error(t, SetRules(conf, []string{"novalue"}))
	assert.Error(t, SetRules(conf, []string{"=x"}))
}

func TestResolveJob(t *testing.T) {
	conf := New()
	conf.Format = "json"
	conf.Encoded = true
	conf.Rules = map[string]interface{}{"ignoreArrayOrder": true}

	j := ResolveJob(conf, Job{Expected: "e.json", Actual: "a.json"})
	assert.Equal(t, "json", j.Format)
	require.NotNil(t, j.Encoded)
	assert.True(t, *j.Encoded)
	assert.Equal(t, conf.Rules, j.Rules)
	assert.Equal(t, "e.json vs a.json", j.Name)

	plain := false
	j = ResolveJob(conf, Job{Name: "x", Format: "text", Encoded: &plain, Rules: map[string]interface{}{"ignoreCase": true}})
	assert.Equal(t, "text", j.Format)
	assert.False(t, *j.Encoded)
	assert.Equal(t, map[string]interface{}{"ignoreCase": true}, j.Rules)
}

func TestReadRulesKeepsKeyCase(t *testing.T) {
	conf := New()
	merged := `
rules:
  ignoreColumns: "2"
jobs:
  - expected: a.json
    actual: b.json
    rules:
      ignoreArrayOrder: true
`
	require.NoError(t, ReadRules(merged, conf))
	assert.Equal(t, "2", conf.Rules["ignoreColumns"])
	require.Len(t, conf.Jobs, 1)
	assert.Equal(t, true, conf.Jobs[0].Rules["ignoreArrayOrder"])

	assert.Error(t, ReadRules("rules: [", conf))
}
