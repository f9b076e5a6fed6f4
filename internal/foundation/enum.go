// Package foundation holds small generic helpers shared by the config layer.
package foundation

import (
	"sort"
	"strings"
)

// Enum maps free-form strings onto typed values. Lookups ignore case and
// surrounding whitespace.
type Enum[T comparable] struct {
	values   map[string]T
	fallback T
}

// NewEnum creates an Enum whose Parse returns fallback for unknown input.
func NewEnum[T comparable](fallback T, values map[string]T) *Enum[T] {
	e := &Enum[T]{values: make(map[string]T, len(values)), fallback: fallback}
	for k, v := range values {
		e.values[clean(k)] = v
	}
	return e
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Lookup returns the value for raw and whether it is known.
func (e *Enum[T]) Lookup(raw string) (T, bool) {
	v, ok := e.values[clean(raw)]
	return v, ok
}

// Parse returns the value for raw, or the fallback.
func (e *Enum[T]) Parse(raw string) T {
	if v, ok := e.Lookup(raw); ok {
		return v
	}
	return e.fallback
}

// Names lists the accepted spellings, sorted.
func (e *Enum[T]) Names() []string {
	names := make([]string, 0, len(e.values))
	for k := range e.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
