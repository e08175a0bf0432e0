package models

import (
	"time"
)

// TaxonomyResponse is the label taxonomy as served by the JSON API.
type TaxonomyResponse struct {
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	LoadedAt   *time.Time         `json:"loaded_at,omitempty"`
	Categories []CategoryResponse `json:"categories"`
}

// CategoryResponse is one label category and its values.
type CategoryResponse struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// QueryResponse is the composed search query for the current state.
type QueryResponse struct {
	Query string    `json:"query"`
	Sort  SortField `json:"sort"`
	Order SortOrder `json:"order"`
}

// StateResponse is a browser session's state as served by the JSON API.
type StateResponse struct {
	Version   uint64              `json:"version"`
	Filters   map[string][]string `json:"filters"`
	Keywords  string              `json:"keywords"`
	SortField SortField           `json:"sort_field"`
	SortOrder SortOrder           `json:"sort_order"`
	Search    SearchStateResponse `json:"search"`
	Selected  *Issue              `json:"selected,omitempty"`
	Content   ContentResponse     `json:"content"`
}

// SearchStateResponse describes the visible issue list.
type SearchStateResponse struct {
	Status     string     `json:"status"`
	Seq        uint64     `json:"seq"`
	Query      string     `json:"query"`
	Total      int        `json:"total_count"`
	Incomplete bool       `json:"incomplete_results"`
	Stale      bool       `json:"stale"`
	Error      string     `json:"error,omitempty"`
	Issues     []Issue    `json:"issues"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// ContentResponse describes the rendered body of the selected issue.
type ContentResponse struct {
	Status  string `json:"status"`
	IssueID int64  `json:"issue_id,omitempty"`
	HTML    string `json:"html,omitempty"`
	Error   string `json:"error,omitempty"`
}
