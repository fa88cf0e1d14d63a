package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.keploy.io/comparator/config"
	"go.keploy.io/comparator/pkg/service/compare"
	"go.uber.org/zap"
)

func newCommand(t *testing.T, configurator *CmdConfigurator, name string) *cobra.Command {
	t.Helper()
	root := &cobra.Command{Use: "comparator"}
	require.NoError(t, configurator.AddFlags(root))
	cmd := &cobra.Command{Use: name, RunE: func(*cobra.Command, []string) error { return nil }}
	require.NoError(t, configurator.AddFlags(cmd))
	root.AddCommand(cmd)
	return cmd
}

func TestAddFlags_UnknownCommand(t *testing.T) {
	configurator := NewCmdConfigurator(zap.NewNop(), config.New())
	err := configurator.AddFlags(&cobra.Command{Use: "record"})
	assert.Error(t, err)
}

func TestValidate_CompareNeedsDocuments(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	configurator := NewCmdConfigurator(zap.NewNop(), config.New())
	cmd := newCommand(t, configurator, "compare")
	require.NoError(t, cmd.ParseFlags([]string{"-e", "exp.txt"}))

	err := configurator.Validate(context.Background(), cmd)
	assert.EqualError(t, err, "missing required --expected and --actual flags")
}

func TestValidate_CompareFlags(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg := config.New()
	configurator := NewCmdConfigurator(zap.NewNop(), cfg)
	cmd := newCommand(t, configurator, "compare")
	require.NoError(t, cmd.ParseFlags([]string{
		"-f", "xml", "-e", "exp.xml", "-a", "act.xml", "-o", "json",
		"--rule", "excludeXPath=//a", "--rule", "excludeXPath=//b", "--rule", "sortAlphabetically=true",
	}))

	require.NoError(t, configurator.Validate(context.Background(), cmd))
	assert.Equal(t, "xml", cfg.Format)
	assert.Equal(t, "exp.xml", cfg.Expected)
	assert.Equal(t, "act.xml", cfg.Actual)
	assert.Equal(t, config.OutputJSON, cfg.Output)
	assert.Equal(t, []interface{}{"//a", "//b"}, cfg.Rules["excludeXPath"])
	assert.Equal(t, "true", cfg.Rules["sortAlphabetically"])
}

func TestValidate_RejectsUnknownOutput(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	configurator := NewCmdConfigurator(zap.NewNop(), config.New())
	cmd := newCommand(t, configurator, "compare")
	require.NoError(t, cmd.ParseFlags([]string{"-e", "a", "-a", "b", "-o", "html"}))

	assert.Error(t, configurator.Validate(context.Background(), cmd))
}

func TestValidate_BatchReadsConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "comparator.yaml")
	content := `
format: json
parallel: 2
jobs:
  - name: orders
    expected: exp.json
    actual: act.json
  - expected: a.csv
    actual: b.csv
    format: table
    rules:
      ignoreColumns: "1"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := config.New()
	configurator := NewCmdConfigurator(zap.NewNop(), cfg)
	cmd := newCommand(t, configurator, "batch")
	require.NoError(t, cmd.ParseFlags([]string{"--configPath", path}))

	require.NoError(t, configurator.Validate(context.Background(), cmd))
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 2, cfg.Parallel)
	require.Len(t, cfg.Jobs, 2)
	assert.Equal(t, "orders", cfg.Jobs[0].Name)
	assert.Equal(t, "table", cfg.Jobs[1].Format)
	assert.Equal(t, "1", cfg.Jobs[1].Rules["ignoreColumns"])
}

func TestValidate_BatchNeedsJobs(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	configurator := NewCmdConfigurator(zap.NewNop(), config.New())
	cmd := newCommand(t, configurator, "batch")
	require.NoError(t, cmd.ParseFlags(nil))

	assert.EqualError(t, configurator.Validate(context.Background(), cmd), "missing jobs in config file")
}

func TestGetService(t *testing.T) {
	sp := NewServiceProvider(zap.NewNop(), config.New())

	svc, err := sp.GetService(context.Background(), "compare")
	require.NoError(t, err)
	comparer, ok := svc.(compare.Service)
	require.True(t, ok)
	assert.Equal(t, []string{"json", "table", "text", "xml"}, comparer.Formats())

	_, err = sp.GetService(context.Background(), "record")
	assert.EqualError(t, err, "invalid command")
}
