package config

import (
	"fmt"
	"os"

	yaml3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/kustomize/kyaml/yaml"
	"sigs.k8s.io/kustomize/kyaml/yaml/merge2"
	"sigs.k8s.io/kustomize/kyaml/yaml/walk"
)

// defaultConfig is the configuration written by "comparator config
// --generate" and the base every config file is merged onto.
var defaultConfig = `
# text, table, xml or json
format: "text"
expected: ""
actual: ""
encoded: false
# table, json or yaml
output: "table"
debug: false
debugModules: []
disableANSI: false
logFile: ""
parallel: 4
failOnDiff: true
rulesFile: ""
rules: {}
jobs: []
`

func GetDefaultConfig() string {
	return defaultConfig
}

func SetDefaultConfig(cfgStr string) {
	defaultConfig = cfgStr
}

func New() *Config {
	conf := &Config{}
	if err := yaml3.Unmarshal([]byte(defaultConfig), conf); err != nil {
		panic(err)
	}
	return conf
}

// Read merges the config file at path onto the defaults and returns the
// merged YAML.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read config file: %w", err)
	}
	merged, err := Merge(string(data), defaultConfig)
	if err != nil {
		return "", fmt.Errorf("failed to merge config file %s: %w", path, err)
	}
	return merged, nil
}

// Merge lays srcStr over destStr, keeping the comments of both.
func Merge(srcStr, destStr string) (string, error) {
	return mergeStrings(srcStr, destStr, false, yaml.MergeOptions{})
}

// Reference: https://github.com/kubernetes-sigs/kustomize/blob/537c4fa5c2bf3292b273876f50c62ce1c81714d7/kyaml/yaml/merge2/merge2.go#L24
func mergeStrings(srcStr, destStr string, infer bool, mergeOptions yaml.MergeOptions) (string, error) {
	src, err := yaml.Parse(srcStr)
	if err != nil {
		return "", err
	}
	dest, err := yaml.Parse(destStr)
	if err != nil {
		return "", err
	}
	result, err := walk.Walker{
		Sources:               []*yaml.RNode{dest, src},
		Visitor:               merge2.Merger{},
		InferAssociativeLists: infer,
		VisitKeysAsScalars:    true,
		MergeOptions:          mergeOptions,
	}.Walk()
	if err != nil {
		return "", err
	}
	return result.String()
}

// ReadRules copies the rules and jobs of merged YAML into conf with the
// case of their keys intact.
func ReadRules(merged string, conf *Config) error {
	var file struct {
		Rules map[string]interface{} `yaml:"rules"`
		Jobs  []Job                  `yaml:"jobs"`
	}
	if err := yaml3.Unmarshal([]byte(merged), &file); err != nil {
		return fmt.Errorf("failed to parse the config rules: %w", err)
	}
	conf.Rules = file.Rules
	conf.Jobs = file.Jobs
	return nil
}
