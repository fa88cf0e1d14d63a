package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parameters is the rule configuration handed to every comparator: an ordered
// multimap from rule name to one or many string values. Names are matched
// case-insensitively and unknown names are simply never read.
type Parameters struct {
	entries []paramEntry
}

type paramEntry struct {
	name   string
	values []string
}

func NewParameters() *Parameters {
	return &Parameters{}
}

func (p *Parameters) find(name string) int {
	if p == nil {
		return -1
	}
	for i, e := range p.entries {
		if strings.EqualFold(e.name, name) {
			return i
		}
	}
	return -1
}

// Add appends values to the rule, creating it at the end if it does not exist.
func (p *Parameters) Add(name string, values ...string) *Parameters {
	if i := p.find(name); i >= 0 {
		p.entries[i].values = append(p.entries[i].values, values...)
		return p
	}
	p.entries = append(p.entries, paramEntry{name: name, values: append([]string(nil), values...)})
	return p
}

// Set replaces the rule's values keeping its position.
func (p *Parameters) Set(name string, values ...string) *Parameters {
	if i := p.find(name); i >= 0 {
		p.entries[i].values = append([]string(nil), values...)
		return p
	}
	return p.Add(name, values...)
}

func (p *Parameters) Has(name string) bool {
	return p.find(name) >= 0
}

// Names returns rule names in insertion order.
func (p *Parameters) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		names = append(names, e.name)
	}
	return names
}

// GetAll returns a copy of every value of the rule.
func (p *Parameters) GetAll(name string) []string {
	i := p.find(name)
	if i < 0 {
		return nil
	}
	return append([]string(nil), p.entries[i].values...)
}

// GetString returns the first value of the rule or def.
func (p *Parameters) GetString(name, def string) string {
	i := p.find(name)
	if i < 0 || len(p.entries[i].values) == 0 {
		return def
	}
	return p.entries[i].values[0]
}

// GetBool accepts case-insensitive true/false; anything else yields def.
func (p *Parameters) GetBool(name string, def bool) bool {
	v := strings.TrimSpace(p.GetString(name, ""))
	switch {
	case strings.EqualFold(v, "true"):
		return true
	case strings.EqualFold(v, "false"):
		return false
	}
	return def
}

// GetInt returns the first value parsed as an integer or def.
func (p *Parameters) GetInt(name string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(p.GetString(name, "")))
	if err != nil {
		return def
	}
	return v
}

func (p *Parameters) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("rules must be a mapping, got %s", kindName(node.Kind))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		values, err := nodeValues(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("rule %s: %w", name, err)
		}
		p.Add(name, values...)
	}
	return nil
}

// UnmarshalJSON goes through the YAML decoder, which keeps key order.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	return p.UnmarshalYAML(&node)
}

func (p Parameters) MarshalYAML() (interface{}, error) {
	out := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range p.entries {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: e.name}
		var val *yaml.Node
		if len(e.values) == 1 {
			val = &yaml.Node{Kind: yaml.ScalarNode, Value: e.values[0]}
		} else {
			val = &yaml.Node{Kind: yaml.SequenceNode}
			for _, v := range e.values {
				val.Content = append(val.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: v})
			}
		}
		out.Content = append(out.Content, key, val)
	}
	return out, nil
}

// ParametersFromMap converts a decoded map (viper, JSON) into Parameters.
// Map order is lost, so names are sorted.
func ParametersFromMap(m map[string]interface{}) (*Parameters, error) {
	p := NewParameters()
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		var node yaml.Node
		if err := node.Encode(m[name]); err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
		values, err := nodeValues(&node)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
		p.Add(name, values...)
	}
	return p, nil
}

func nodeValues(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		var out []string
		for _, c := range n.Content {
			if c.Kind == yaml.SequenceNode {
				return nil, fmt.Errorf("nested sequences are not supported")
			}
			v, err := nodeValues(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v...)
		}
		return out, nil
	case yaml.MappingNode:
		// structured values such as checkPoc sections are kept as flow YAML
		n.Style = yaml.FlowStyle
		b, err := yaml.Marshal(n)
		if err != nil {
			return nil, err
		}
		return []string{strings.TrimSpace(string(b))}, nil
	case yaml.AliasNode:
		return nodeValues(n.Alias)
	}
	return nil, fmt.Errorf("unsupported value of kind %s", kindName(n.Kind))
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
