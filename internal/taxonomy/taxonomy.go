// Package taxonomy turns a repository's flat label list into categories.
//
// Labels named "<category>: <value>" are grouped under their category.
// Labels without the separator are unstructured and are left out.
package taxonomy

import (
	"slices"
	"strings"

	"issuebrowser/internal/models"
)

// Separator splits a structured label name into category and value.
const Separator = ": "

// Taxonomy maps categories to their values. Category order and value order
// follow label discovery order.
type Taxonomy struct {
	categories []string
	values     map[string][]string
}

// Category is one category with its values, used for rendering.
type Category struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Build groups labels by category. The input is not modified. A label that
// repeats an existing category/value pair is ignored, and so is one that
// cannot be quoted in a search query.
func Build(labels []models.Label) *Taxonomy {
	t := &Taxonomy{values: make(map[string][]string)}
	for _, l := range labels {
		if !Quotable(l.Name) {
			continue
		}
		category, value, ok := SplitLabel(l.Name)
		if !ok {
			continue
		}
		existing, seen := t.values[category]
		if !seen {
			t.categories = append(t.categories, category)
		}
		if slices.Contains(existing, value) {
			continue
		}
		t.values[category] = append(existing, value)
	}
	return t
}

// SplitLabel splits name on the first separator.
func SplitLabel(name string) (category, value string, ok bool) {
	return strings.Cut(name, Separator)
}

// Quotable reports whether name can appear inside a quoted search qualifier.
// GitHub search has no escape for a double quote.
func Quotable(name string) bool {
	return !strings.Contains(name, `"`)
}

// JoinLabel rebuilds the full label name for a category value.
func JoinLabel(category, value string) string {
	return category + Separator + value
}

// Empty returns a taxonomy with no categories.
func Empty() *Taxonomy {
	return &Taxonomy{values: map[string][]string{}}
}

// Len returns the number of categories.
func (t *Taxonomy) Len() int {
	if t == nil {
		return 0
	}
	return len(t.categories)
}

// Categories returns the category names in order.
func (t *Taxonomy) Categories() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.categories)
}

// Values returns a copy of the values for category.
func (t *Taxonomy) Values(category string) []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.values[category])
}

// Has reports whether value is listed under category.
func (t *Taxonomy) Has(category, value string) bool {
	if t == nil {
		return false
	}
	return slices.Contains(t.values[category], value)
}

// List returns every category with its values, in order.
func (t *Taxonomy) List() []Category {
	if t == nil {
		return nil
	}
	out := make([]Category, 0, len(t.categories))
	for _, c := range t.categories {
		out = append(out, Category{Name: c, Values: slices.Clone(t.values[c])})
	}
	return out
}

// Map returns the taxonomy as a plain map.
func (t *Taxonomy) Map() map[string][]string {
	out := make(map[string][]string, t.Len())
	if t == nil {
		return out
	}
	for c, vs := range t.values {
		out[c] = slices.Clone(vs)
	}
	return out
}

// Arrange returns a copy with the categories in order placed first (in that
// order) and the categories in hidden removed. Names in order that are not in
// the taxonomy are ignored.
func (t *Taxonomy) Arrange(order, hidden []string) *Taxonomy {
	out := Empty()
	if t == nil {
		return out
	}
	add := func(c string) {
		if slices.Contains(hidden, c) || slices.Contains(out.categories, c) {
			return
		}
		vs, ok := t.values[c]
		if !ok {
			return
		}
		out.categories = append(out.categories, c)
		out.values[c] = slices.Clone(vs)
	}
	for _, c := range order {
		add(c)
	}
	for _, c := range t.categories {
		add(c)
	}
	return out
}
