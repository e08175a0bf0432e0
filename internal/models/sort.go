package models

import "fmt"

// SortField is a search sort key understood by the tracker.
type SortField string

// Sort fields offered in the sort selector.
const (
	SortCreated  SortField = "created"
	SortUpdated  SortField = "updated"
	SortComments SortField = "comments"
)

// SortOrder is the direction of a search sort.
type SortOrder string

// Sort orders.
const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// SortFields lists the selectable sort fields in display order.
var SortFields = []SortField{SortCreated, SortUpdated, SortComments}

// DefaultSortLabels are the display names for each sort field.
var DefaultSortLabels = map[SortField]string{
	SortCreated:  "Created",
	SortUpdated:  "Last Updated",
	SortComments: "Most Comments",
}

// Valid reports whether f is a known sort field.
func (f SortField) Valid() bool {
	switch f {
	case SortCreated, SortUpdated, SortComments:
		return true
	}
	return false
}

// DefaultOrder is the order applied when the user picks f without an explicit
// order: oldest first for creation date, largest first otherwise.
func (f SortField) DefaultOrder() SortOrder {
	if f == SortCreated {
		return OrderAsc
	}
	return OrderDesc
}

// Valid reports whether o is a known sort order.
func (o SortOrder) Valid() bool {
	return o == OrderAsc || o == OrderDesc
}

// ParseSortField converts s into a SortField.
func ParseSortField(s string) (SortField, error) {
	f := SortField(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown sort field %q", s)
	}
	return f, nil
}

// ParseSortOrder converts s into a SortOrder.
func ParseSortOrder(s string) (SortOrder, error) {
	o := SortOrder(s)
	if !o.Valid() {
		return "", fmt.Errorf("unknown sort order %q", s)
	}
	return o, nil
}
