package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"issuebrowser/internal/browser"
	"issuebrowser/internal/config"
	"issuebrowser/internal/models"
	"issuebrowser/internal/taxonomy"
	"issuebrowser/internal/validation"
)

// DefaultPollTimeout bounds how long a long-poll request waits for a change.
const DefaultPollTimeout = 25 * time.Second

// BrowseHandler serves the issue browser page and its HTMX partials.
type BrowseHandler struct {
	cfg         *config.Config
	taxonomy    *taxonomy.Store
	sortLabels  map[models.SortField]string
	pollTimeout time.Duration
}

// NewBrowseHandler creates a new browse handler.
func NewBrowseHandler(cfg *config.Config, store *taxonomy.Store, sortLabels map[models.SortField]string) *BrowseHandler {
	return &BrowseHandler{
		cfg:         cfg,
		taxonomy:    store,
		sortLabels:  sortLabels,
		pollTimeout: DefaultPollTimeout,
	}
}

// SetPollTimeout overrides the long-poll wait.
func (h *BrowseHandler) SetPollTimeout(d time.Duration) {
	h.pollTimeout = d
}

// Index renders the full browser page.
func (h *BrowseHandler) Index(c fiber.Ctx) error {
	b, err := sessionFrom(c)
	if err != nil {
		return err
	}
	st := b.Snapshot()

	tax, status, loadErr := h.taxonomy.Snapshot()
	data := MergeBranding(fiber.Map{
		"Filters":     buildFilterPanel(tax, status, loadErr, st.Filters),
		"SortOptions": buildSortOptions(h.sortLabels, st.SortField),
		"SortOrder":   st.SortOrder,
		"Keywords":    st.Keywords,
		"Results":     resultsData(b, st),
		"Detail":      contentData(st),
	}, h.cfg)

	return c.Render("index", data)
}

// Filters renders the filter panel partial.
func (h *BrowseHandler) Filters(c fiber.Ctx) error {
	b, err := sessionFrom(c)
	if err != nil {
		return err
	}
	return h.renderFilters(c, b.Snapshot())
}

func (h *BrowseHandler) renderFilters(c fiber.Ctx, st browser.State) error {
	tax, status, loadErr := h.taxonomy.Snapshot()
	return c.Render("partials/filters", fiber.Map{
		"Filters": buildFilterPanel(tax, status, loadErr, st.Filters),
	}, "")
}

// Results renders the results partial. With ?v=N it long-polls until the
// state moves past version N or the poll times out.
func (h *BrowseHandler) Results(c fiber.Ctx) error {
	b, err := sessionFrom(c)
	if err != nil {
		return err
	}
	st := h.waitForChange(c, b)
	return c.Render("partials/results", resultsData(b, st), "")
}

// Content renders the issue content partial, long-polling like Results.
func (h *BrowseHandler) Content(c fiber.Ctx) error {
	b, err := sessionFrom(c)
	if err != nil {
		return err
	}
	st := h.waitForChange(c, b)
	return c.Render("partials/content", contentData(st), "")
}

// waitForChange blocks while the request's version is current and work is
// still in flight.
func (h *BrowseHandler) waitForChange(c fiber.Ctx, b *browser.Session) browser.State {
	st := b.Snapshot()
	raw := c.Query("v")
	if raw == "" {
		return st
	}
	version, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || st.Version > version {
		return st
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.pollTimeout)
	defer cancel()
	next, err := b.WaitSettled(ctx, version)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logrus.WithField("session", b.ID()).WithError(err).Debug("long-poll ended early")
	}
	return next
}

// SetFilter replaces the selection of one label category.
func (h *BrowseHandler) SetFilter(c fiber.Ctx) error {
	b, err := sessionFrom(c)
	if err != nil {
		return err
	}

	category := c.FormValue("category")
	values := formValues(c, "value")

	tax, status, _ := h.taxonomy.Snapshot()
	if status == taxonomy.StatusLoading {
		return badRequest(c, "Labels are still loading")
	}
	if ok, msg := validation.ValidateFilterValues(tax, category, values); !ok {
		return badRequest(c, msg)
	}

	st := b.SetCategoryFilter(category, values)
	c.Set("HX-Trigger", "filters-changed")
	return c.Render("partials/results", resultsData(b, st), "")
}

// Keywords records keyword input. Typing is debounced; submitting the form
// (submit=1) applies the keywords immediately.
func (h *BrowseHandler) Keywords(c fiber.Ctx) error {
	b, err := sessionFrom(c)
	if err != nil {
		return err
	}

	keywords := c.FormValue("q")
	if ok, msg := validation.ValidateKeywords(keywords); !ok {
		return badRequest(c, msg)
	}

	if c.FormValue("submit") == "1" {
		b.SetKeywords(keywords)
	} else {
		b.TypeKeywords(keywords)
	}
	return c.Render("partials/results", resultsData(b, b.Snapshot()), "")
}

// Sort changes the sort field and order.
func (h *BrowseHandler) Sort(c fiber.Ctx) error {
	b, err := sessionFrom(c)
	if err != nil {
		return err
	}

	field, order, msg := validation.ParseSort(c.FormValue("field"), c.FormValue("order"))
	if msg != "" {
		return badRequest(c, msg)
	}

	st := b.SetSort(field, order)
	return c.Render("partials/results", resultsData(b, st), "")
}

// Refresh re-issues the current search.
func (h *BrowseHandler) Refresh(c fiber.Ctx) error {
	b, err := sessionFrom(c)
	if err != nil {
		return err
	}
	st := b.Refresh()
	return c.Render("partials/results", resultsData(b, st), "")
}

// Select selects an issue from the visible results.
func (h *BrowseHandler) Select(c fiber.Ctx) error {
	b, err := sessionFrom(c)
	if err != nil {
		return err
	}

	id, ok := validation.ParseIssueID(c.Params("id"))
	if !ok {
		return badRequest(c, "Invalid issue id")
	}

	st, found := b.SelectIssueByID(id)
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "issue not in the current results")
	}
	c.Set("HX-Trigger", "issue-selected")
	return c.Render("partials/content", contentData(st), "")
}

// Deselect clears the selection.
func (h *BrowseHandler) Deselect(c fiber.Ctx) error {
	b, err := sessionFrom(c)
	if err != nil {
		return err
	}
	st := b.Deselect()
	c.Set("HX-Trigger", "issue-selected")
	return c.Render("partials/content", contentData(st), "")
}

// formValues returns every value of a repeated form field.
func formValues(c fiber.Ctx, key string) []string {
	raw := c.RequestCtx().PostArgs().PeekMulti(key)
	if len(raw) == 0 {
		if mf, err := c.MultipartForm(); err == nil {
			return mf.Value[key]
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, string(v))
	}
	return out
}
