// Package filters holds the active label-category filter selection.
//
// A Selection is immutable: every transition returns a new value, so callers
// may keep older snapshots around.
package filters

import (
	"maps"
	"slices"
	"strings"
)

// Selection maps a category to its selected values. A category is present
// only while it has at least one value.
type Selection struct {
	m map[string][]string
}

// Action replaces the selection for one category. Empty Values clears it.
type Action struct {
	Category string
	Values   []string
}

// New builds a selection from a plain map, dropping empty categories.
func New(m map[string][]string) Selection {
	var sel Selection
	for c, vs := range m {
		sel = Set(sel, c, vs)
	}
	return sel
}

// Set returns a copy of sel where category selects exactly values. Previous
// values for category are discarded; empty values removes the category.
func Set(sel Selection, category string, values []string) Selection {
	normalized := normalize(values)

	next := make(map[string][]string, len(sel.m)+1)
	for c, vs := range sel.m {
		if c != category {
			next[c] = vs
		}
	}
	if len(normalized) > 0 {
		next[category] = normalized
	}
	return Selection{m: next}
}

// Reduce applies action to sel.
func Reduce(sel Selection, action Action) Selection {
	return Set(sel, action.Category, action.Values)
}

// normalize returns the distinct non-blank values, sorted.
func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Len returns the number of categories with a selection.
func (s Selection) Len() int {
	return len(s.m)
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return len(s.m) == 0
}

// Has reports whether category has a selection.
func (s Selection) Has(category string) bool {
	_, ok := s.m[category]
	return ok
}

// Values returns a copy of the selected values for category, sorted.
func (s Selection) Values(category string) []string {
	return slices.Clone(s.m[category])
}

// Contains reports whether value is selected for category.
func (s Selection) Contains(category, value string) bool {
	_, found := slices.BinarySearch(s.m[category], value)
	return found
}

// Categories returns the selected categories, sorted.
func (s Selection) Categories() []string {
	return slices.Sorted(maps.Keys(s.m))
}

// Map returns the selection as a plain map.
func (s Selection) Map() map[string][]string {
	out := make(map[string][]string, len(s.m))
	for c, vs := range s.m {
		out[c] = slices.Clone(vs)
	}
	return out
}

// Equal reports whether two selections select the same values.
func (s Selection) Equal(other Selection) bool {
	return maps.EqualFunc(s.m, other.m, slices.Equal[[]string])
}
