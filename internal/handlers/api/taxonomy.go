package api

import (
	"github.com/gofiber/fiber/v3"

	"issuebrowser/internal/models"
	"issuebrowser/internal/taxonomy"
)

// TaxonomyHandler serves the label taxonomy via JSON API.
type TaxonomyHandler struct {
	store *taxonomy.Store
}

// NewTaxonomyHandler creates a new API taxonomy handler.
func NewTaxonomyHandler(store *taxonomy.Store) *TaxonomyHandler {
	return &TaxonomyHandler{store: store}
}

// Get returns the categories and values available for filtering.
func (h *TaxonomyHandler) Get(c fiber.Ctx) error {
	tax, status, err := h.store.Snapshot()

	resp := models.TaxonomyResponse{
		Status:     string(status),
		Categories: make([]models.CategoryResponse, 0, tax.Len()),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	if loadedAt := h.store.LoadedAt(); !loadedAt.IsZero() {
		resp.LoadedAt = &loadedAt
	}
	for _, cat := range tax.List() {
		resp.Categories = append(resp.Categories, models.CategoryResponse{Name: cat.Name, Values: cat.Values})
	}

	return jsonSuccess(c, resp)
}
