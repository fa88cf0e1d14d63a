package xml

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/emirpasic/gods/stacks/arraystack"
	"go.keploy.io/comparator/pkg/matcher"
	"go.keploy.io/comparator/pkg/models"
)

// Comparison kinds reported by the walker. Anything else the trees differ in
// is not reported.
const (
	KindTagName        = "element tag name"
	KindAttributeName  = "attribute name"
	KindAttributeValue = "attribute value"
	KindTextValue      = "text value"
	KindChildLookup    = "child lookup"
)

type nodePair struct {
	exp, act *xmlquery.Node
}

type walker struct {
	r   *rules
	res *models.Result
}

// walk compares the two element trees iteratively.
func (w *walker) walk(expRoot, actRoot *xmlquery.Node) {
	stack := arraystack.New()
	stack.Push(nodePair{exp: expRoot, act: actRoot})
	for !stack.Empty() {
		v, _ := stack.Pop()
		p := v.(nodePair)
		w.compareNode(p.exp, p.act)
		pairs := w.matchChildren(p.exp, p.act)
		for i := len(pairs) - 1; i >= 0; i-- {
			stack.Push(pairs[i])
		}
	}
}

func (w *walker) compareNode(e, a *xmlquery.Node) {
	ep, ap := nodePath(e), nodePath(a)
	if name(e) != name(a) {
		w.add(models.OutcomeModified, KindTagName, ep, ap, name(e), name(a),
			fmt.Sprintf("expected element %s, actual %s", name(e), name(a)))
	}
	w.compareAttributes(e, a, ep, ap)

	ev, av := textValue(e), textValue(a)
	if !matcher.EqualValues(ev, av, w.r.ignoreCase) {
		o := matcher.ValueOutcome(ev, av, w.r.ignoreCase, w.res)
		w.add(o, KindTextValue, ep+"/text()", ap+"/text()", ev, av,
			fmt.Sprintf("text of %s: expected %q, actual %q", ep, ev, av))
	}
}

func (w *walker) compareAttributes(e, a *xmlquery.Node, ep, ap string) {
	actual := make(map[string]string, len(a.Attr))
	for _, at := range a.Attr {
		if !isNamespaceDecl(at.Name.Space, at.Name.Local) {
			actual[qualified(at.Name.Space, at.Name.Local)] = at.Value
		}
	}
	seen := make(map[string]bool, len(e.Attr))
	for _, at := range e.Attr {
		if isNamespaceDecl(at.Name.Space, at.Name.Local) {
			continue
		}
		n := qualified(at.Name.Space, at.Name.Local)
		seen[n] = true
		av, ok := actual[n]
		if !ok {
			w.add(models.OutcomeMissed, KindAttributeName, ep+"/@"+n, "", at.Value, "",
				fmt.Sprintf("attribute %s of %s is missing", n, ep))
			continue
		}
		if matcher.EqualValues(at.Value, av, w.r.ignoreCase) {
			continue
		}
		o := matcher.ValueOutcome(at.Value, av, w.r.ignoreCase, w.res)
		w.add(o, KindAttributeValue, ep+"/@"+n, ap+"/@"+n, at.Value, av,
			fmt.Sprintf("attribute %s of %s: expected %q, actual %q", n, ep, at.Value, av))
	}
	for _, at := range a.Attr {
		n := qualified(at.Name.Space, at.Name.Local)
		if seen[n] || isNamespaceDecl(at.Name.Space, at.Name.Local) {
			continue
		}
		w.add(models.OutcomeExtra, KindAttributeName, "", ap+"/@"+n, "", at.Value,
			fmt.Sprintf("attribute %s of %s is extra", n, ap))
	}
}

// matchChildren pairs element children by key descriptor when one applies,
// else by position among same-named siblings. Unpaired children are reported.
func (w *walker) matchChildren(e, a *xmlquery.Node) []nodePair {
	ekids, akids := elementChildren(e), elementChildren(a)
	used := make([]bool, len(akids))
	var pairs []nodePair
	for _, ek := range ekids {
		idx := -1
		key, keyed := keyFor(w.r.keys, name(e), name(ek))
		kv, hasKey := "", false
		if keyed {
			kv, hasKey = key.value(ek)
		}
		for i, ak := range akids {
			if used[i] || name(ak) != name(ek) {
				continue
			}
			if hasKey {
				av, ok := key.value(ak)
				if !ok || !matcher.EqualValues(kv, av, w.r.ignoreCase) {
					continue
				}
			}
			idx = i
			break
		}
		if idx < 0 {
			ep := nodePath(ek)
			w.add(models.OutcomeMissed, KindChildLookup, ep, "", name(ek), "",
				fmt.Sprintf("expected child %s is missing", ep))
			continue
		}
		used[idx] = true
		pairs = append(pairs, nodePair{exp: ek, act: akids[idx]})
	}
	for i, ak := range akids {
		if used[i] {
			continue
		}
		ap := nodePath(ak)
		w.add(models.OutcomeExtra, KindChildLookup, "", ap, "", name(ak),
			fmt.Sprintf("actual child %s is extra", ap))
	}
	return pairs
}

func (w *walker) add(o models.Outcome, kind, ep, ap, ev, av, summary string) {
	d := models.Difference{
		ExpectedCoord: ep,
		ActualCoord:   ap,
		Outcome:       o,
		Description: matcher.Describe(w.r.template, summary, matcher.Macros{
			matcher.MacroERPath:    ep,
			matcher.MacroARPath:    ap,
			matcher.MacroERValue:   ev,
			matcher.MacroARValue:   av,
			matcher.MacroValue:     ev,
			matcher.MacroSummary:   summary,
			matcher.MacroOperation: kind,
		}),
	}
	d.SetValues(w.r.saveValue, ev, av)
	w.res.Add(d)
}

func isNamespaceDecl(space, local string) bool {
	return space == "xmlns" || (space == "" && local == "xmlns") || strings.HasPrefix(local, "xmlns:")
}
