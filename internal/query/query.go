// Package query composes the remote search query from the user's filters,
// keywords and sort choice.
package query

import (
	"strings"

	"issuebrowser/internal/filters"
	"issuebrowser/internal/models"
	"issuebrowser/internal/taxonomy"
)

// Spec is everything the user currently asks to search for.
type Spec struct {
	Keywords  string
	Filters   filters.Selection
	SortField models.SortField
	SortOrder models.SortOrder
}

// Params are the transport-level search parameters.
type Params struct {
	Q     string
	Sort  models.SortField
	Order models.SortOrder
}

// DefaultSpec is the spec before the user has done anything.
func DefaultSpec() Spec {
	return Spec{SortField: models.SortCreated, SortOrder: models.OrderDesc}
}

// Compose builds the search query string for spec scoped to repo. Terms are
// joined with single spaces and empty terms are left out, so identical specs
// always produce identical strings.
func Compose(spec Spec, repo string) string {
	terms := make([]string, 0, 3+spec.Filters.Len())
	if kw := strings.TrimSpace(spec.Keywords); kw != "" {
		terms = append(terms, kw)
	}
	terms = append(terms, "repo:"+repo)
	for _, category := range spec.Filters.Categories() {
		if clause := LabelClause(category, spec.Filters.Values(category)); clause != "" {
			terms = append(terms, clause)
		}
	}
	terms = append(terms, "sort:"+string(sortField(spec)))
	return strings.Join(terms, " ")
}

// LabelClause renders one category's selection as label:"c: v1","c: v2".
// Labels that cannot be quoted are left out; with none left the clause is "".
func LabelClause(category string, values []string) string {
	var b strings.Builder
	for _, v := range values {
		name := taxonomy.JoinLabel(category, v)
		if !taxonomy.Quotable(name) {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("label:")
		} else {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(name)
		b.WriteByte('"')
	}
	return b.String()
}

// ParamsFor returns the transport parameters for spec.
func ParamsFor(spec Spec, repo string) Params {
	return Params{
		Q:     Compose(spec, repo),
		Sort:  sortField(spec),
		Order: sortOrder(spec),
	}
}

// Key identifies spec for change detection: two specs with the same key
// would send the same request.
func Key(spec Spec, repo string) string {
	return Compose(spec, repo) + "|order:" + string(sortOrder(spec))
}

func sortField(spec Spec) models.SortField {
	if spec.SortField.Valid() {
		return spec.SortField
	}
	return models.SortCreated
}

func sortOrder(spec Spec) models.SortOrder {
	if spec.SortOrder.Valid() {
		return spec.SortOrder
	}
	return sortField(spec).DefaultOrder()
}
