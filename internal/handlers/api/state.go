package api

import (
	"github.com/gofiber/fiber/v3"

	"issuebrowser/internal/browser"
	"issuebrowser/internal/middleware"
	"issuebrowser/internal/models"
	"issuebrowser/internal/query"
)

// StateHandler exposes the visitor's browser session via JSON API.
type StateHandler struct {
	repository string
}

// NewStateHandler creates a new API state handler.
func NewStateHandler(repository string) *StateHandler {
	return &StateHandler{repository: repository}
}

// Get returns the current browser state.
func (h *StateHandler) Get(c fiber.Ctx) error {
	b := middleware.Browser(c)
	if b == nil {
		return jsonError(c, fiber.StatusInternalServerError, "no browser session")
	}
	return jsonSuccess(c, toStateResponse(b.Snapshot()))
}

// Query returns the search query the current state composes to.
func (h *StateHandler) Query(c fiber.Ctx) error {
	b := middleware.Browser(c)
	if b == nil {
		return jsonError(c, fiber.StatusInternalServerError, "no browser session")
	}
	p := query.ParamsFor(b.Snapshot().Spec(), h.repository)
	return jsonSuccess(c, models.QueryResponse{Query: p.Q, Sort: p.Sort, Order: p.Order})
}

func toStateResponse(st browser.State) models.StateResponse {
	resp := models.StateResponse{
		Version:   st.Version,
		Filters:   st.Filters.Map(),
		Keywords:  st.Keywords,
		SortField: st.SortField,
		SortOrder: st.SortOrder,
		Search: models.SearchStateResponse{
			Status:     string(st.Search.Status),
			Seq:        st.Search.Seq,
			Query:      st.Search.Query,
			Total:      st.Search.Total,
			Incomplete: st.Search.Incomplete,
			Stale:      st.Search.Stale,
			Issues:     st.Search.Issues,
		},
		Selected: st.Selected,
		Content: models.ContentResponse{
			Status:  string(st.Content.Status),
			IssueID: st.Content.IssueID,
			HTML:    string(st.Content.HTML),
		},
	}
	if resp.Search.Issues == nil {
		resp.Search.Issues = []models.Issue{}
	}
	if st.Search.Err != nil {
		resp.Search.Error = st.Search.Err.Error()
	}
	if st.Search.Searched() {
		at := st.Search.CompletedAt
		resp.Search.UpdatedAt = &at
	}
	if st.Content.Err != nil {
		resp.Content.Error = st.Content.Err.Error()
	}
	return resp
}
