package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Transform is a named value function callable from column check expressions.
type Transform func(args ...any) (any, error)

// Transforms is a registry of named transforms. It is safe for concurrent use.
type Transforms struct {
	mu    sync.RWMutex
	funcs map[string]Transform
}

func NewTransforms() *Transforms {
	return &Transforms{funcs: map[string]Transform{}}
}

// DefaultTransforms holds the built-in transforms.
var DefaultTransforms = func() *Transforms {
	t := NewTransforms()
	t.Register("upper", stringTransform(strings.ToUpper))
	t.Register("lower", stringTransform(strings.ToLower))
	t.Register("trim", stringTransform(strings.TrimSpace))
	t.Register("number", toNumber)
	t.Register("formatDate", formatDate)
	return t
}()

func (t *Transforms) Register(name string, fn Transform) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.funcs[name] = fn
}

func (t *Transforms) Lookup(name string) (Transform, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.funcs[name]
	return fn, ok
}

// Names returns the registered names, sorted.
func (t *Transforms) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.funcs))
	for n := range t.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RegisterTransform adds fn to the default registry.
func RegisterTransform(name string, fn Transform) {
	DefaultTransforms.Register(name, fn)
}

func stringTransform(fn func(string) string) Transform {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return fn(fmt.Sprint(args[0])), nil
	}
}

func toNumber(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprint(args[0])), 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %v", args[0])
	}
	return f, nil
}

// formatDate(value, fromLayout, toLayout) reformats a date using Go layouts.
func formatDate(args ...any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("formatDate expects value, from layout and to layout")
	}
	ts, err := time.Parse(fmt.Sprint(args[1]), fmt.Sprint(args[0]))
	if err != nil {
		return nil, err
	}
	return ts.Format(fmt.Sprint(args[2])), nil
}
