// Package provider configures the cli commands and builds their services.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.keploy.io/comparator/config"
	"go.keploy.io/comparator/utils"
	"go.keploy.io/comparator/utils/log"
	"go.uber.org/zap"
)

func LogExample(example string) string {
	return fmt.Sprintf("Example usage: %s", example)
}

var RootCustomHelpTemplate = `{{.Short}}

Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Available Commands:{{range .Commands}}{{if .IsAvailableCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}

Examples:
{{.Example}}

Use "{{.CommandPath}} [command] --help" for more information about a command.
`

var RootExamples = `
  Compare two files:
	comparator compare -f text -e expected.txt -a actual.txt

  Compare with rules:
	comparator compare -f table -e expected.json -a actual.json -r rules.yaml

  Run the jobs of a config file:
	comparator batch --configPath comparator.yaml

  Config:
	comparator config --generate -p "/path/to/localdir"
`

var VersionTemplate = `{{with .Version}}{{printf "comparator %s" .}}{{end}}{{"\n"}}`

type CmdConfigurator struct {
	logger *zap.Logger
	cfg    *config.Config
}

func NewCmdConfigurator(logger *zap.Logger, cfg *config.Config) *CmdConfigurator {
	return &CmdConfigurator{
		logger: logger,
		cfg:    cfg,
	}
}

func (c *CmdConfigurator) AddFlags(cmd *cobra.Command) error {
	switch cmd.Name() {
	case "comparator":
		cmd.PersistentFlags().Bool("debug", c.cfg.Debug, "Run in debug mode")
		cmd.PersistentFlags().StringSlice("debugModules", c.cfg.DebugModules, "Modules to run in debug mode e.g. --debugModules xml,table")
		cmd.PersistentFlags().Bool("disableANSI", c.cfg.DisableANSI, "Disable colored output")
		cmd.PersistentFlags().String("configPath", c.cfg.ConfigPath, "Path to the comparator configuration file")
		cmd.PersistentFlags().String("logFile", c.cfg.LogFile, "Also write logs to this file")
		return nil
	case "compare":
		cmd.Flags().StringP("format", "f", c.cfg.Format, "Format of the documents: text, table, xml or json")
		cmd.Flags().StringP("expected", "e", c.cfg.Expected, "Path of the expected document, - for stdin")
		cmd.Flags().StringP("actual", "a", c.cfg.Actual, "Path of the actual document, - for stdin")
		cmd.Flags().Bool("encoded", c.cfg.Encoded, "Documents are base64, gzip or brotli encoded")
		cmd.Flags().StringP("rulesFile", "r", c.cfg.RulesFile, "YAML file with the comparison rules")
		cmd.Flags().StringArray("rule", nil, "Comparison rule as name=value, repeat for several values")
		cmd.Flags().Bool("sideBySide", false, "Print JSON documents side by side when they differ")
		c.addReportFlags(cmd)
	case "batch":
		cmd.Flags().StringP("format", "f", c.cfg.Format, "Format of the jobs that do not set one")
		cmd.Flags().IntP("parallel", "j", c.cfg.Parallel, "Number of comparisons run at once")
		c.addReportFlags(cmd)
	case "config":
		cmd.Flags().StringP("path", "p", ".", "Path to local directory where generated config is stored")
		cmd.Flags().Bool("generate", false, "Generate a new comparator configuration file")
		return nil
	default:
		return errors.New("unknown command name")
	}
	return nil
}

func (c *CmdConfigurator) addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", c.cfg.Output, "Report format: table, json or yaml")
	cmd.Flags().Bool("failOnDiff", c.cfg.FailOnDiff, "Exit with an error when differences fail the comparison")
}

func (c *CmdConfigurator) Validate(ctx context.Context, cmd *cobra.Command) error {
	if err := c.ValidateFlags(ctx, cmd); err != nil {
		return err
	}
	switch cmd.Name() {
	case "compare":
		if c.cfg.Expected == "" || c.cfg.Actual == "" {
			utils.LogError(c.logger, nil, "missing the documents to compare")
			c.logger.Info(LogExample(cmd.Example))
			return errors.New("missing required --expected and --actual flags")
		}
		if c.cfg.Expected == "-" && c.cfg.Actual == "-" {
			return errors.New("only one document can be read from stdin")
		}
		rules, err := cmd.Flags().GetStringArray("rule")
		if err != nil {
			utils.LogError(c.logger, err, "failed to read the rules")
			return err
		}
		if err := config.SetRules(c.cfg, rules); err != nil {
			utils.LogError(c.logger, err, "invalid rule")
			return err
		}
		return c.validateOutput()
	case "batch":
		if len(c.cfg.Jobs) == 0 {
			utils.LogError(c.logger, nil, "no jobs found, list them under jobs in the config file")
			return errors.New("missing jobs in config file")
		}
		if c.cfg.Parallel < 1 {
			return fmt.Errorf("parallel must be at least 1, got %d", c.cfg.Parallel)
		}
		return c.validateOutput()
	}
	return nil
}

func (c *CmdConfigurator) validateOutput() error {
	switch c.cfg.Output {
	case config.OutputTable, config.OutputJSON, config.OutputYAML:
		return nil
	}
	return fmt.Errorf("unknown output %q, expected table, json or yaml", c.cfg.Output)
}

// ValidateFlags loads the config file, lays the flags over it and applies
// the logging settings.
func (c *CmdConfigurator) ValidateFlags(_ context.Context, cmd *cobra.Command) error {
	if err := utils.BindFlagsToViper(c.logger, cmd, ""); err != nil {
		errMsg := "failed to bind flags to config"
		utils.LogError(c.logger, err, errMsg)
		return errors.New(errMsg)
	}
	configPath, err := cmd.Flags().GetString("configPath")
	if err != nil {
		utils.LogError(c.logger, err, "failed to read the config path")
		return err
	}
	var merged string
	if configPath != "" {
		merged, err = config.Read(configPath)
		if err != nil {
			utils.LogError(c.logger, err, "failed to read config file")
			return err
		}
		viper.SetConfigType("yaml")
		if err := viper.ReadConfig(strings.NewReader(merged)); err != nil {
			errMsg := "failed to read config file"
			utils.LogError(c.logger, err, errMsg)
			return errors.New(errMsg)
		}
	}
	if err := viper.Unmarshal(c.cfg); err != nil {
		errMsg := "failed to unmarshal the config"
		utils.LogError(c.logger, err, errMsg)
		return errors.New(errMsg)
	}
	if merged != "" {
		// viper lower-cases map keys, rule names are case sensitive
		if err := config.ReadRules(merged, c.cfg); err != nil {
			utils.LogError(c.logger, err, "failed to read the rules of the config file")
			return err
		}
	}

	if c.cfg.DisableANSI {
		color.NoColor = true
	}
	if c.cfg.LogFile != "" && c.cfg.LogFile != utils.LogFile {
		logger, err := log.New(c.cfg.LogFile)
		if err != nil {
			errMsg := "failed to open the log file"
			utils.LogError(c.logger, err, errMsg, zap.String("path", c.cfg.LogFile))
			return errors.New(errMsg)
		}
		*c.logger = *logger
		utils.LogFile = c.cfg.LogFile
	}
	if c.cfg.Debug {
		logger, err := log.ChangeLogLevel(zap.DebugLevel)
		if err != nil {
			errMsg := "failed to change log level"
			utils.LogError(c.logger, err, errMsg)
			return errors.New(errMsg)
		}
		*c.logger = *logger
	}
	c.logger.Debug("config has been initialised", zap.String("for cmd", cmd.Name()), zap.Any("config", c.cfg))
	return nil
}
