package models

// SectionType selects what a CheckPOC section does.
type SectionType string

const (
	SectionReplace SectionType = "replace"
	SectionAlias   SectionType = "alias"
	SectionCheck   SectionType = "check"
)

// PrevValue is the replacement sentinel that copies the previous row's value.
const PrevValue = "<prev>"

// Section is one CheckPOC rule section.
type Section struct {
	Type          SectionType   `json:"type" yaml:"type" mapstructure:"type"`
	Name          string        `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Table         string        `json:"table,omitempty" yaml:"table,omitempty" mapstructure:"table"`
	Column        string        `json:"column,omitempty" yaml:"column,omitempty" mapstructure:"column"`
	Columns       []string      `json:"columns,omitempty" yaml:"columns,omitempty" mapstructure:"columns"`
	Filters       []Filter      `json:"filters,omitempty" yaml:"filters,omitempty" mapstructure:"filters"`
	ActualFilters []Filter      `json:"actualFilters,omitempty" yaml:"actualFilters,omitempty" mapstructure:"actualFilters"`
	Relations     []Relation    `json:"relations,omitempty" yaml:"relations,omitempty" mapstructure:"relations"`
	Checks        []Relation    `json:"checks,omitempty" yaml:"checks,omitempty" mapstructure:"checks"`
	Replacements  []Replacement `json:"replacements,omitempty" yaml:"replacements,omitempty" mapstructure:"replacements"`
}

// Filter keeps rows whose Column satisfies Operator against Values.
type Filter struct {
	Column   string   `json:"column" yaml:"column" mapstructure:"column"`
	Operator string   `json:"operator" yaml:"operator" mapstructure:"operator"`
	Values   []string `json:"values" yaml:"values" mapstructure:"values"`
}

// Relation pairs an expected column with an actual column.
type Relation struct {
	Expected string `json:"expected" yaml:"expected" mapstructure:"expected"`
	Actual   string `json:"actual" yaml:"actual" mapstructure:"actual"`
}

type Replacement struct {
	Search  string `json:"search" yaml:"search" mapstructure:"search"`
	Replace string `json:"replace" yaml:"replace" mapstructure:"replace"`
}
