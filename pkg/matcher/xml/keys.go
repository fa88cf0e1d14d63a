package xml

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"go.keploy.io/comparator/pkg/models"
)

// keyNode correlates same-named siblings by the text found along a chain of
// descendant names. Written as [!]parent:sibling/key/path; the parent scope is
// optional and "!" applies the key everywhere except under that parent.
type keyNode struct {
	negate  bool
	parent  string
	sibling string
	path    []string
}

func parseKeyNodes(values []string) ([]keyNode, error) {
	keys := make([]keyNode, 0, len(values))
	for _, v := range values {
		var k keyNode
		s := strings.TrimSpace(v)
		if rest, ok := strings.CutPrefix(s, "!"); ok {
			k.negate = true
			s = rest
		}
		if parent, chain, ok := strings.Cut(s, ":"); ok {
			k.parent, s = strings.TrimSpace(parent), chain
		}
		if k.negate && k.parent == "" {
			return nil, models.NewRuleConfigError("%s %q: negation needs a parent name", RuleKeyNode, v)
		}
		parts := strings.Split(strings.Trim(s, "/"), "/")
		if parts[0] == "" {
			return nil, models.NewRuleConfigError("%s %q: empty node chain", RuleKeyNode, v)
		}
		k.sibling, k.path = parts[0], parts[1:]
		keys = append(keys, k)
	}
	return keys, nil
}

func (k keyNode) applies(parent, child string) bool {
	if k.sibling != child {
		return false
	}
	if k.parent == "" {
		return true
	}
	return (k.parent == parent) != k.negate
}

// value returns the key text of n, following the chain of first children
// with the given names. An empty chain keys on n's own text.
func (k keyNode) value(n *xmlquery.Node) (string, bool) {
	cur := n
	for _, step := range k.path {
		var next *xmlquery.Node
		for _, c := range elementChildren(cur) {
			if name(c) == step {
				next = c
				break
			}
		}
		if next == nil {
			return "", false
		}
		cur = next
	}
	return textValue(cur), true
}

func keyFor(keys []keyNode, parent, child string) (keyNode, bool) {
	for _, k := range keys {
		if k.applies(parent, child) {
			return k, true
		}
	}
	return keyNode{}, false
}
