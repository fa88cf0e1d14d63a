package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.keploy.io/comparator/cli/provider"
	"go.keploy.io/comparator/config"
	compareSvc "go.keploy.io/comparator/pkg/service/compare"
	"go.uber.org/zap"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	logger := zap.NewNop()
	conf := config.New()
	root := Root(context.Background(), logger, conf, provider.NewServiceProvider(logger, conf), provider.NewCmdConfigurator(logger, conf))
	require.NotNil(t, root)

	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFiles(t *testing.T, expected, actual string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	exp, act := filepath.Join(dir, "expected.txt"), filepath.Join(dir, "actual.txt")
	require.NoError(t, os.WriteFile(exp, []byte(expected), 0o644))
	require.NoError(t, os.WriteFile(act, []byte(actual), 0o644))
	return exp, act
}

func TestCompareCommand(t *testing.T) {
	tests := []struct {
		name       string
		actual     string
		failOnDiff string
		wantErr    error
		wantPassed bool
	}{
		{name: "identical", actual: "alpha\nbeta\n", failOnDiff: "true", wantPassed: true},
		{name: "differences fail", actual: "alpha\nzz\n", failOnDiff: "true", wantErr: ErrDifferences},
		{name: "differences reported only", actual: "alpha\nzz\n", failOnDiff: "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, act := writeFiles(t, "alpha\nbeta\n", tt.actual)
			out, err := execute(t, "compare", "-f", "text", "-e", exp, "-a", act, "-o", "json", "--failOnDiff="+tt.failOnDiff)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			var reports []compareSvc.Report
			require.NoError(t, json.Unmarshal([]byte(out), &reports))
			require.Len(t, reports, 1)
			assert.Equal(t, tt.wantPassed, reports[0].Passed)
			assert.Equal(t, "text", reports[0].Format)
		})
	}
}

func TestCompareCommandNeedsDocuments(t *testing.T) {
	_, err := execute(t, "compare", "-f", "text")
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	exp, act := writeFiles(t, "alpha\n", "alpha\n")
	path := filepath.Join(t.TempDir(), "comparator.yaml")
	content := "jobs:\n" +
		"  - name: same\n    expected: " + exp + "\n    actual: " + act + "\n" +
		"  - name: broken\n    format: csv\n    expected: " + exp + "\n    actual: " + act + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, err := execute(t, "batch", "--configPath", path, "-o", "json")
	require.Error(t, err)

	var reports []compareSvc.Report
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "same", reports[0].Name)
	assert.True(t, reports[0].Passed)
	assert.Equal(t, "broken", reports[1].Name)
	assert.NotEmpty(t, reports[1].Error)
}

func TestOutcomesCommand(t *testing.T) {
	out, err := execute(t, "outcomes")
	require.NoError(t, err)
	assert.Contains(t, out, "MODIFIED")
	assert.Contains(t, out, "fail")
}

func TestConfigCommandGenerates(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "config", "--generate", "-p", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	require.NoError(t, err)
	assert.Equal(t, config.GetDefaultConfig(), string(data))

	_, err = execute(t, "config", "--generate", "-p", dir)
	assert.Error(t, err)
}
