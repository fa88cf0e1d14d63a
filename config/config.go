// Package config provides the configuration of the comparator cli.
package config

import (
	"fmt"
	"strings"
)

// Output formats of compare and batch reports.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

type Config struct {
	Format       string                 `json:"format" yaml:"format" mapstructure:"format"`
	Expected     string                 `json:"expected" yaml:"expected" mapstructure:"expected"`
	Actual       string                 `json:"actual" yaml:"actual" mapstructure:"actual"`
	Encoded      bool                   `json:"encoded" yaml:"encoded" mapstructure:"encoded"`
	Output       string                 `json:"output" yaml:"output" mapstructure:"output"`
	Debug        bool                   `json:"debug" yaml:"debug" mapstructure:"debug"`
	DebugModules []string               `json:"debugModules" yaml:"debugModules" mapstructure:"debugModules"`
	DisableANSI  bool                   `json:"disableANSI" yaml:"disableANSI" mapstructure:"disableANSI"`
	LogFile      string                 `json:"logFile" yaml:"logFile" mapstructure:"logFile"`
	Parallel     int                    `json:"parallel" yaml:"parallel" mapstructure:"parallel"`
	FailOnDiff   bool                   `json:"failOnDiff" yaml:"failOnDiff" mapstructure:"failOnDiff"`
	ConfigPath   string                 `json:"configPath" yaml:"configPath" mapstructure:"configPath"`
	RulesFile    string                 `json:"rulesFile" yaml:"rulesFile" mapstructure:"rulesFile"`
	Rules        map[string]interface{} `json:"rules" yaml:"rules" mapstructure:"rules"`
	Jobs         []Job                  `json:"jobs" yaml:"jobs" mapstructure:"jobs"`
}

// Job is one comparison of a batch. Empty fields fall back to the top
// level values.
type Job struct {
	Name      string                 `json:"name" yaml:"name" mapstructure:"name"`
	Format    string                 `json:"format" yaml:"format" mapstructure:"format"`
	Expected  string                 `json:"expected" yaml:"expected" mapstructure:"expected"`
	Actual    string                 `json:"actual" yaml:"actual" mapstructure:"actual"`
	Encoded   *bool                  `json:"encoded,omitempty" yaml:"encoded,omitempty" mapstructure:"encoded"`
	RulesFile string                 `json:"rulesFile" yaml:"rulesFile" mapstructure:"rulesFile"`
	Rules     map[string]interface{} `json:"rules" yaml:"rules" mapstructure:"rules"`
}

// ResolveJob fills the unset fields of j from conf.
func ResolveJob(conf *Config, j Job) Job {
	if j.Format == "" {
		j.Format = conf.Format
	}
	if j.Encoded == nil {
		encoded := conf.Encoded
		j.Encoded = &encoded
	}
	if j.RulesFile == "" && len(j.Rules) == 0 {
		j.RulesFile = conf.RulesFile
		j.Rules = conf.Rules
	}
	if j.Name == "" {
		j.Name = fmt.Sprintf("%s vs %s", j.Expected, j.Actual)
	}
	return j
}

// SetRules parses name=value pairs given on the command line. Repeated
// names collect several values.
func SetRules(conf *Config, pairs []string) error {
	if len(pairs) == 0 {
		return nil
	}
	if conf.Rules == nil {
		conf.Rules = make(map[string]interface{})
	}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("invalid rule %q, expected name=value", p)
		}
		name = strings.TrimSpace(name)
		switch prev := conf.Rules[name].(type) {
		case nil:
			conf.Rules[name] = value
		case []interface{}:
			conf.Rules[name] = append(prev, value)
		default:
			conf.Rules[name] = []interface{}{prev, value}
		}
	}
	return nil
}
