package json

import (
	"sort"
	"strconv"
	"strings"

	"facette.io/natsort"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/go-openapi/jsonpointer"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/tidwall/gjson"
)

// RootCoord addresses the whole document.
const RootCoord = "$"

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")
var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// toPointer turns a normalized location such as $.a[2].b into /a/2/b.
func toPointer(loc jp.Expr) (string, bool) {
	var sb strings.Builder
	for _, frag := range loc {
		switch f := frag.(type) {
		case jp.Root, jp.At:
		case jp.Child:
			sb.WriteString("/")
			sb.WriteString(pointerEscaper.Replace(string(f)))
		case jp.Nth:
			sb.WriteString("/")
			sb.WriteString(strconv.Itoa(int(f)))
		default:
			return "", false
		}
	}
	return sb.String(), true
}

func splitPointer(p string) []string {
	if p == "" {
		return nil
	}
	toks := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, t := range toks {
		toks[i] = pointerUnescaper.Replace(t)
	}
	return toks
}

// coord renders a pointer as a difference coordinate.
func coord(p string) string {
	if p == "" {
		return RootCoord
	}
	return p
}

// locate resolves every expression against each document into the set of
// pointers it selects.
func locate(exprs []jp.Expr, docs ...interface{}) []string {
	seen := map[string]bool{}
	var out []string
	for _, x := range exprs {
		for _, doc := range docs {
			for _, loc := range x.Locate(doc, 0) {
				p, ok := toPointer(loc)
				if !ok || seen[p] {
					continue
				}
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

func under(path, root string) bool {
	return root == "" || path == root || strings.HasPrefix(path, root+"/")
}

func underAny(path string, roots []string) bool {
	for _, r := range roots {
		if under(path, r) {
			return true
		}
	}
	return false
}

// lookup returns the value a pointer addresses in doc.
func lookup(doc interface{}, p string) (interface{}, bool) {
	ptr, err := jsonpointer.New(p)
	if err != nil {
		return nil, false
	}
	v, _, err := ptr.Get(doc)
	if err != nil {
		return nil, false
	}
	return v, true
}

// narrow applies the readPath selection. Several matches become an array.
func narrow(doc interface{}, x jp.Expr) interface{} {
	if x == nil {
		return doc
	}
	got := x.Get(doc)
	switch len(got) {
	case 0:
		return nil
	case 1:
		return got[0]
	}
	return got
}

// alignByKey reorders in place every array selected by k so that elements
// sort naturally by their key field.
func alignByKey(doc interface{}, k primaryKey) {
	for _, v := range k.path.Get(doc) {
		arr, ok := v.([]interface{})
		if !ok || len(arr) < 2 {
			continue
		}
		type keyed struct {
			key  string
			elem interface{}
		}
		items := make([]keyed, len(arr))
		for i, e := range arr {
			items[i] = keyed{key: gjson.Get(oj.JSON(e), k.field).String(), elem: e}
		}
		sort.SliceStable(items, func(i, j int) bool {
			return natsort.Compare(items[i].key, items[j].key)
		})
		for i := range items {
			arr[i] = items[i].elem
		}
	}
}

// pairArrays reorders, in place, every pair of arrays found at the same
// place in exp and act so that equal elements share an index. Paired
// elements come first in expected order, the leftovers of each side follow
// in their original order and are compared with each other.
func pairArrays(exp, act interface{}) {
	type pair struct{ exp, act interface{} }
	stack := arraystack.New()
	stack.Push(pair{exp, act})
	for !stack.Empty() {
		v, _ := stack.Pop()
		p := v.(pair)
		switch e := p.exp.(type) {
		case map[string]interface{}:
			a, ok := p.act.(map[string]interface{})
			if !ok {
				continue
			}
			for k, ev := range e {
				if av, ok := a[k]; ok {
					stack.Push(pair{ev, av})
				}
			}
		case []interface{}:
			a, ok := p.act.([]interface{})
			if !ok {
				continue
			}
			paired := pairElements(e, a)
			for i := paired; i < len(e) && i < len(a); i++ {
				stack.Push(pair{e[i], a[i]})
			}
		}
	}
}

// pairElements moves the elements of exp and act that have an equal
// counterpart to the front of both slices and returns how many it paired.
func pairElements(exp, act []interface{}) int {
	free := map[string][]int{}
	for i, v := range act {
		k := canonical(v)
		free[k] = append(free[k], i)
	}
	var expPaired, expLeft, actPaired []interface{}
	used := make([]bool, len(act))
	for _, v := range exp {
		k := canonical(v)
		idx := free[k]
		if len(idx) == 0 {
			expLeft = append(expLeft, v)
			continue
		}
		free[k] = idx[1:]
		used[idx[0]] = true
		expPaired = append(expPaired, v)
		actPaired = append(actPaired, act[idx[0]])
	}
	n := len(expPaired)
	actLeft := make([]interface{}, 0, len(act)-n)
	for i, v := range act {
		if !used[i] {
			actLeft = append(actLeft, v)
		}
	}
	copy(exp, append(expPaired, expLeft...))
	copy(act, append(actPaired, actLeft...))
	return n
}

func canonical(v interface{}) string {
	return oj.JSON(v, &oj.Options{Sort: true})
}

func render(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return canonical(v)
}

func kind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number"
	}
	return "unknown"
}

func scalar(v interface{}) bool {
	switch kind(v) {
	case "object", "array":
		return false
	}
	return true
}
