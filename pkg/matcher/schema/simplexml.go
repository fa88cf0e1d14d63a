package schema

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"go.keploy.io/comparator/pkg/matcher"
	"go.keploy.io/comparator/pkg/models"
	"gopkg.in/yaml.v3"
)

// Rule constrains the element or attribute at Path, written as
// /root/child/@attr.
type Rule struct {
	Path      string `yaml:"path"`
	Required  bool   `yaml:"required"`
	Pattern   string `yaml:"pattern"`
	MinOccurs int    `yaml:"minOccurs"`
	MaxOccurs int    `yaml:"maxOccurs"`
	MaxLength int    `yaml:"maxLength"`
	Severity  string `yaml:"severity"`
	// Closed rejects child elements that have no rule of their own.
	Closed bool `yaml:"closed"`

	severity Severity
	re       *regexp2.Regexp
}

// SimpleXML validates XML documents against a YAML list of Rules.
type SimpleXML struct{}

func (SimpleXML) Validate(schema, document string) ([]Violation, error) {
	rules, err := ParseSimpleRules(schema)
	if err != nil {
		return nil, err
	}
	return validateXML(rules, document), nil
}

// SimpleRules keeps rules in declaration order, which is also the order
// violations of one element are reported in.
type SimpleRules struct {
	list   []*Rule
	byPath map[string]*Rule
}

func (s *SimpleRules) get(path string) (*Rule, bool) {
	r, ok := s.byPath[path]
	return r, ok
}

func ParseSimpleRules(schema string) (*SimpleRules, error) {
	var list []*Rule
	if err := yaml.Unmarshal([]byte(schema), &list); err != nil {
		return nil, models.NewSchemaError("invalid simple schema: %v", err)
	}
	rules := &SimpleRules{list: list, byPath: make(map[string]*Rule, len(list))}
	for _, r := range list {
		r.Path = "/" + strings.Trim(r.Path, "/")
		if r.Path == "/" {
			return nil, models.NewSchemaError("simple schema rule without path")
		}
		sev, err := ParseSeverity(r.Severity)
		if err != nil {
			return nil, models.NewSchemaError("rule %s: %v", r.Path, err)
		}
		r.severity = sev
		if r.Pattern != "" {
			if r.re, err = matcher.CompileFull(r.Pattern, false); err != nil {
				return nil, models.NewSchemaError("rule %s: invalid pattern: %v", r.Path, err)
			}
		}
		if _, dup := rules.byPath[r.Path]; dup {
			return nil, models.NewSchemaError("duplicate rule for %s", r.Path)
		}
		rules.byPath[r.Path] = r
	}
	return rules, nil
}

type element struct {
	path      string
	line, col int
	text      strings.Builder
	counts    map[string]int
}

// validateXML streams the document once. Positions come from the decoder, so
// they point at the start of the offending element.
func validateXML(rules *SimpleRules, document string) []Violation {
	var out []Violation
	report := func(r *Rule, line, col int, format string, args ...interface{}) {
		out = append(out, Violation{Severity: r.severity, Line: line, Column: col, Message: fmt.Sprintf(format, args...)})
	}
	lineCol := positions(document)

	dec := xml.NewDecoder(strings.NewReader(document))
	root := &element{path: "", counts: map[string]int{}}
	stack := []*element{root}
	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, col := lineCol(offset)
			var se *xml.SyntaxError
			if errors.As(err, &se) {
				line, col = se.Line, 0
			}
			return append(out, Violation{Severity: SeverityFatal, Line: line, Column: col, Message: err.Error()})
		}
		parent := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			line, col := lineCol(offset)
			el := &element{path: parent.path + "/" + t.Name.Local, line: line, col: col, counts: map[string]int{}}
			parent.counts[t.Name.Local]++
			if pr, ok := rules.get(parent.path); ok && pr.Closed {
				if _, known := rules.get(el.path); !known {
					report(pr, line, col, "element %s is not allowed", el.path)
				}
			}
			checkAttributes(rules, el, t.Attr, report)
			stack = append(stack, el)
		case xml.CharData:
			parent.text.Write(t)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
			if r, ok := rules.get(parent.path); ok {
				checkValue(r, strings.TrimSpace(parent.text.String()), parent.line, parent.col, report)
			}
			checkOccurrences(rules, parent, report)
		}
	}
	checkOccurrences(rules, root, report)
	return out
}

func checkAttributes(rules *SimpleRules, el *element, attrs []xml.Attr, report func(*Rule, int, int, string, ...interface{})) {
	present := make(map[string]string, len(attrs))
	for _, a := range attrs {
		present[a.Name.Local] = a.Value
	}
	prefix := el.path + "/@"
	for _, r := range rules.list {
		path := r.Path
		name, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(name, "/") {
			continue
		}
		v, found := present[name]
		if !found {
			if r.Required {
				report(r, el.line, el.col, "attribute %s is required", path)
			}
			continue
		}
		checkValue(r, v, el.line, el.col, report)
	}
}

func checkValue(r *Rule, v string, line, col int, report func(*Rule, int, int, string, ...interface{})) {
	if r.MaxLength > 0 && utf8.RuneCountInString(v) > r.MaxLength {
		report(r, line, col, "%s is longer than %d characters", r.Path, r.MaxLength)
	}
	if r.re != nil && !matcher.MatchString(r.re, v) {
		report(r, line, col, "%s value %q does not match %q", r.Path, v, r.Pattern)
	}
}

// checkOccurrences validates the child element counts of el.
func checkOccurrences(rules *SimpleRules, el *element, report func(*Rule, int, int, string, ...interface{})) {
	prefix := el.path + "/"
	for _, r := range rules.list {
		path := r.Path
		name, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(name, "/") || strings.HasPrefix(name, "@") {
			continue
		}
		n := el.counts[name]
		line, col := el.line, el.col
		if line == 0 {
			line = 1
		}
		switch {
		case n == 0 && r.Required:
			report(r, line, col, "element %s is required", path)
		case r.MinOccurs > 0 && n < r.MinOccurs:
			report(r, line, col, "element %s occurs %d times, at least %d expected", path, n, r.MinOccurs)
		case r.MaxOccurs > 0 && n > r.MaxOccurs:
			report(r, line, col, "element %s occurs %d times, at most %d expected", path, n, r.MaxOccurs)
		}
	}
}

// positions returns a converter from byte offsets to 1-based line and column.
func positions(doc string) func(int64) (int, int) {
	starts := []int{0}
	for i := 0; i < len(doc); i++ {
		if doc[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return func(off int64) (int, int) {
		o := int(off)
		line := 0
		for line+1 < len(starts) && starts[line+1] <= o {
			line++
		}
		return line + 1, utf8.RuneCountInString(doc[starts[line]:min(o, len(doc))]) + 1
	}
}
