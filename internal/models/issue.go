package models

import "time"

// ShortDateLayout renders dates as "MMM D, YYYY", e.g. "Mar 4, 2024".
const ShortDateLayout = "Jan 2, 2006"

// BadgeLimit is how many labels an issue card shows before collapsing the rest.
const BadgeLimit = 2

// Issue is a search result item from the tracker.
type Issue struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	User      User      `json:"user"`
	Labels    []Label   `json:"labels"`
	Body      string    `json:"body"`
	Comments  int       `json:"comments"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatedDate returns the creation date in short display form.
func (i Issue) CreatedDate() string {
	return FormatShortDate(i.CreatedAt)
}

// UpdatedDate returns the last-updated date in short display form.
func (i Issue) UpdatedDate() string {
	return FormatShortDate(i.UpdatedAt)
}

// BadgeLabels returns the labels shown as badges on the issue card.
func (i Issue) BadgeLabels() []Label {
	if len(i.Labels) <= BadgeLimit {
		return i.Labels
	}
	return i.Labels[:BadgeLimit]
}

// ExtraLabelCount is the number of labels hidden behind "+N other tags".
func (i Issue) ExtraLabelCount() int {
	if len(i.Labels) <= BadgeLimit {
		return 0
	}
	return len(i.Labels) - BadgeLimit
}

// FormatShortDate formats t in the local zone, or returns "" for the zero time.
func FormatShortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(ShortDateLayout)
}

// SearchResult is one page of issues returned by the search endpoint.
type SearchResult struct {
	TotalCount        int     `json:"total_count"`
	IncompleteResults bool    `json:"incomplete_results"`
	Items             []Issue `json:"items"`
}
