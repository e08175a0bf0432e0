// Package browser keeps one visitor's view of the issue browser consistent
// while filters, keywords, sort and selection change and remote results
// arrive asynchronously and out of order.
//
// All state transitions go through Reduce. Results of asynchronous work carry
// the sequence number they were issued under and are dropped by Reduce when a
// newer request has been issued since.
package browser

import (
	"html/template"
	"time"

	"issuebrowser/internal/filters"
	"issuebrowser/internal/models"
	"issuebrowser/internal/query"
)

// SearchStatus is the lifecycle of the current search.
type SearchStatus string

const (
	SearchIdle         SearchStatus = "idle"
	SearchPending      SearchStatus = "pending"
	SearchFulfilled    SearchStatus = "fulfilled"
	SearchStatusFailed SearchStatus = "failed"
)

// ContentStatus is the lifecycle of the selected issue's rendered body.
type ContentStatus string

const (
	ContentEmpty   ContentStatus = "empty"
	ContentPending ContentStatus = "pending"
	ContentReady   ContentStatus = "ready"
	ContentFailed  ContentStatus = "failed"
)

// SearchState is the visible issue list and the search that produced it.
//
// Issues are only ever replaced as a whole. When a search fails the previous
// issues are kept and Stale is set, so a failed search is never shown as if
// its results were current.
type SearchState struct {
	Status      SearchStatus
	Seq         uint64
	Query       string
	Issues      []models.Issue
	Total       int
	Incomplete  bool
	Stale       bool
	Err         error
	IssuedAt    time.Time
	CompletedAt time.Time
}

// Searched reports whether any search has completed successfully.
func (s SearchState) Searched() bool {
	return !s.CompletedAt.IsZero()
}

// NoResults reports whether the latest search succeeded and found nothing.
func (s SearchState) NoResults() bool {
	return s.Status == SearchFulfilled && len(s.Issues) == 0
}

// ContentState is the rendered body of the selected issue.
type ContentState struct {
	Status  ContentStatus
	Seq     uint64
	IssueID int64
	HTML    template.HTML
	Err     error
}

// State is everything one visitor sees.
type State struct {
	Filters   filters.Selection
	Keywords  string
	SortField models.SortField
	SortOrder models.SortOrder

	Search   SearchState
	Selected *models.Issue
	Content  ContentState

	// Version increases on every applied transition.
	Version uint64
}

// NewState returns the initial state: nothing searched, nothing selected,
// sorted by field in descending order.
func NewState(field models.SortField) State {
	if !field.Valid() {
		field = models.SortCreated
	}
	return State{
		SortField: field,
		SortOrder: models.OrderDesc,
		Search:    SearchState{Status: SearchIdle},
		Content:   ContentState{Status: ContentEmpty},
	}
}

// Spec derives the query spec from the state.
func (s State) Spec() query.Spec {
	return query.Spec{
		Keywords:  s.Keywords,
		Filters:   s.Filters,
		SortField: s.SortField,
		SortOrder: s.SortOrder,
	}
}

// IsSelected reports whether the issue with id is the current selection.
func (s State) IsSelected(id int64) bool {
	return s.Selected != nil && s.Selected.ID == id
}

// Action is a state transition applied by Reduce.
type Action interface {
	reduce(State) (State, bool)
}

// Reduce applies a to s and returns the new state and whether anything was
// applied. Results carrying an outdated sequence number are not applied.
func Reduce(s State, a Action) (State, bool) {
	next, applied := a.reduce(s)
	if applied {
		next.Version = s.Version + 1
	}
	return next, applied
}

// SetFilter replaces the selection of one label category.
type SetFilter struct {
	Category string
	Values   []string
}

func (a SetFilter) reduce(s State) (State, bool) {
	next := filters.Reduce(s.Filters, filters.Action{Category: a.Category, Values: a.Values})
	if next.Equal(s.Filters) {
		return s, false
	}
	s.Filters = next
	return s, true
}

// SetKeywords replaces the free-text keywords.
type SetKeywords struct {
	Keywords string
}

func (a SetKeywords) reduce(s State) (State, bool) {
	if a.Keywords == s.Keywords {
		return s, false
	}
	s.Keywords = a.Keywords
	return s, true
}

// SetSort changes the sort field. An empty Order uses the field's default.
type SetSort struct {
	Field models.SortField
	Order models.SortOrder
}

func (a SetSort) reduce(s State) (State, bool) {
	if !a.Field.Valid() {
		return s, false
	}
	order := a.Order
	if !order.Valid() {
		order = a.Field.DefaultOrder()
	}
	if a.Field == s.SortField && order == s.SortOrder {
		return s, false
	}
	s.SortField = a.Field
	s.SortOrder = order
	return s, true
}

// SearchIssued starts a new search and supersedes any in flight.
type SearchIssued struct {
	Query string
	At    time.Time
}

func (a SearchIssued) reduce(s State) (State, bool) {
	s.Search.Seq++
	s.Search.Status = SearchPending
	s.Search.Query = a.Query
	s.Search.IssuedAt = a.At
	s.Search.Err = nil
	return s, true
}

// SearchSucceeded delivers the result of search Seq.
type SearchSucceeded struct {
	Seq    uint64
	Result *models.SearchResult
	At     time.Time
}

func (a SearchSucceeded) reduce(s State) (State, bool) {
	if a.Seq != s.Search.Seq || s.Search.Status != SearchPending {
		return s, false
	}
	s.Search.Status = SearchFulfilled
	s.Search.Issues = []models.Issue{}
	s.Search.Total = 0
	s.Search.Incomplete = false
	if a.Result != nil {
		if a.Result.Items != nil {
			s.Search.Issues = a.Result.Items
		}
		s.Search.Total = a.Result.TotalCount
		s.Search.Incomplete = a.Result.IncompleteResults
	}
	s.Search.Stale = false
	s.Search.Err = nil
	s.Search.CompletedAt = a.At
	return s, true
}

// SearchFailed delivers the failure of search Seq. The previous issues stay
// visible and are marked stale.
type SearchFailed struct {
	Seq uint64
	Err error
	At  time.Time
}

func (a SearchFailed) reduce(s State) (State, bool) {
	if a.Seq != s.Search.Seq || s.Search.Status != SearchPending {
		return s, false
	}
	s.Search.Status = SearchStatusFailed
	s.Search.Err = a.Err
	s.Search.Stale = s.Search.Searched()
	return s, true
}

// SelectIssue makes issue the selection and starts rendering its body.
// Selecting the already selected issue with an unchanged body does nothing.
type SelectIssue struct {
	Issue models.Issue
}

func (a SelectIssue) reduce(s State) (State, bool) {
	if s.Selected != nil && s.Selected.ID == a.Issue.ID && s.Selected.Body == a.Issue.Body &&
		(s.Content.Status == ContentPending || s.Content.Status == ContentReady) {
		return s, false
	}
	issue := a.Issue
	s.Selected = &issue
	s.Content = ContentState{
		Status:  ContentPending,
		Seq:     s.Content.Seq + 1,
		IssueID: issue.ID,
	}
	return s, true
}

// Deselect clears the selection and its content immediately.
type Deselect struct{}

func (Deselect) reduce(s State) (State, bool) {
	if s.Selected == nil && s.Content.Status == ContentEmpty {
		return s, false
	}
	s.Selected = nil
	s.Content = ContentState{Status: ContentEmpty, Seq: s.Content.Seq + 1}
	return s, true
}

// RenderSucceeded delivers the rendered body for render Seq.
type RenderSucceeded struct {
	Seq  uint64
	HTML template.HTML
}

func (a RenderSucceeded) reduce(s State) (State, bool) {
	if a.Seq != s.Content.Seq || s.Content.Status != ContentPending {
		return s, false
	}
	s.Content.Status = ContentReady
	s.Content.HTML = a.HTML
	s.Content.Err = nil
	return s, true
}

// RenderFailed reports that render Seq failed; no content is shown for the
// selected issue.
type RenderFailed struct {
	Seq uint64
	Err error
}

func (a RenderFailed) reduce(s State) (State, bool) {
	if a.Seq != s.Content.Seq || s.Content.Status != ContentPending {
		return s, false
	}
	s.Content.Status = ContentFailed
	s.Content.HTML = ""
	s.Content.Err = a.Err
	return s, true
}
