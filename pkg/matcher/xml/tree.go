package xml

import (
	"sort"
	"strconv"
	"strings"

	"facette.io/natsort"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/emirpasic/gods/stacks/arraystack"
	"go.keploy.io/comparator/pkg/models"
)

func parse(content string) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(strings.NewReader(content))
	if err != nil {
		return nil, models.NewParseError("invalid xml: %v", err)
	}
	if rootElement(doc) == nil {
		return nil, models.NewParseError("xml has no root element")
	}
	return doc, nil
}

func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

func childNodes(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func elementChildren(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// relink replaces the children of n with kids, in order.
func relink(n *xmlquery.Node, kids []*xmlquery.Node) {
	n.FirstChild, n.LastChild = nil, nil
	var prev *xmlquery.Node
	for _, k := range kids {
		k.Parent = n
		k.PrevSibling = prev
		k.NextSibling = nil
		if prev == nil {
			n.FirstChild = k
		} else {
			prev.NextSibling = k
		}
		prev = k
	}
	n.LastChild = prev
}

// detach removes n from its parent.
func detach(n *xmlquery.Node) {
	p := n.Parent
	if p == nil {
		return
	}
	kids := childNodes(p)
	out := kids[:0]
	for _, k := range kids {
		if k != n {
			out = append(out, k)
		}
	}
	relink(p, out)
	n.Parent, n.PrevSibling, n.NextSibling = nil, nil, nil
}

// removeAttr drops the attribute prefix:local from n.
func removeAttr(n *xmlquery.Node, prefix, local string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Name.Local != local || a.Name.Space != prefix {
			attrs = append(attrs, a)
		}
	}
	n.Attr = attrs
}

// excludeNodes removes every node selected by exprs. Selected attributes
// are removed from their element by prefix and local name.
func excludeNodes(doc *xmlquery.Node, exprs []*xpath.Expr) {
	type target struct {
		node          *xmlquery.Node
		attr          bool
		prefix, local string
	}
	for _, e := range exprs {
		var targets []target
		it := e.Select(xmlquery.CreateXPathNavigator(doc))
		for it.MoveNext() {
			nav, ok := it.Current().(*xmlquery.NodeNavigator)
			if !ok {
				continue
			}
			t := target{node: nav.Current()}
			if nav.NodeType() == xpath.AttributeNode {
				t.attr, t.prefix, t.local = true, nav.Prefix(), nav.LocalName()
			}
			targets = append(targets, t)
		}
		for _, t := range targets {
			if t.attr {
				removeAttr(t.node, t.prefix, t.local)
			} else {
				detach(t.node)
			}
		}
	}
}

// sortTree orders element children by natural name order, ties broken by
// their serialized form. Other child nodes are dropped from sorted parents.
func sortTree(root *xmlquery.Node) {
	stack := arraystack.New()
	stack.Push(root)
	for !stack.Empty() {
		v, _ := stack.Pop()
		n := v.(*xmlquery.Node)
		kids := elementChildren(n)
		if len(kids) > 1 {
			texts := textChildren(n)
			keys := make(map[*xmlquery.Node]string, len(kids))
			for _, k := range kids {
				keys[k] = k.OutputXML(true)
			}
			sort.SliceStable(kids, func(i, j int) bool {
				a, b := name(kids[i]), name(kids[j])
				if a != b {
					return natsort.Compare(a, b)
				}
				return natsort.Compare(keys[kids[i]], keys[kids[j]])
			})
			relink(n, append(texts, kids...))
		}
		for _, k := range kids {
			stack.Push(k)
		}
	}
}

func textChildren(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.TextNode || c.Type == xmlquery.CharDataNode {
			out = append(out, c)
		}
	}
	return out
}

// textValue is the trimmed concatenation of the direct text children.
func textValue(n *xmlquery.Node) string {
	var sb strings.Builder
	for _, c := range textChildren(n) {
		sb.WriteString(c.Data)
	}
	return strings.TrimSpace(sb.String())
}

func name(n *xmlquery.Node) string {
	return qualified(n.Prefix, n.Data)
}

func qualified(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// nodePath renders the XPath-like location of n: element steps carry their
// 1-based position among same-named siblings.
func nodePath(n *xmlquery.Node) string {
	var steps []string
	switch n.Type {
	case xmlquery.AttributeNode:
		steps = append(steps, "@"+name(n))
		n = n.Parent
	case xmlquery.TextNode, xmlquery.CharDataNode:
		steps = append(steps, "text()")
		n = n.Parent
	}
	for ; n != nil && n.Type == xmlquery.ElementNode; n = n.Parent {
		steps = append(steps, name(n)+"["+strconv.Itoa(position(n))+"]")
	}
	var sb strings.Builder
	for i := len(steps) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(steps[i])
	}
	return sb.String()
}

func position(n *xmlquery.Node) int {
	pos := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == xmlquery.ElementNode && name(s) == name(n) {
			pos++
		}
	}
	return pos
}

func nodeValue(n *xmlquery.Node) string {
	if n.Type == xmlquery.ElementNode {
		return textValue(n)
	}
	return strings.TrimSpace(n.InnerText())
}

// underPath reports whether path equals prefix or lies below it.
func underPath(path, prefix string) bool {
	if path == "" || prefix == "" {
		return false
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix) && (path[len(prefix)] == '/')
}
