package handlers

import (
	"github.com/gofiber/fiber/v3"

	"issuebrowser/internal/browser"
	"issuebrowser/internal/filters"
	"issuebrowser/internal/models"
	"issuebrowser/internal/taxonomy"
)

// FilterValue is one checkbox in the filter panel.
type FilterValue struct {
	Name     string
	Selected bool
}

// FilterCategory is one label category in the filter panel.
type FilterCategory struct {
	Name     string
	Values   []FilterValue
	Selected int
}

// FilterPanel is the view model of the filter panel.
type FilterPanel struct {
	Status     taxonomy.Status
	Error      string
	Categories []FilterCategory
}

// SortOption is one entry of the sort selector.
type SortOption struct {
	Field    models.SortField
	Label    string
	Selected bool
}

func buildFilterPanel(tax *taxonomy.Taxonomy, status taxonomy.Status, loadErr error, sel filters.Selection) FilterPanel {
	panel := FilterPanel{Status: status}
	if loadErr != nil {
		panel.Error = "Labels could not be loaded; filtering by label is unavailable."
	}
	for _, c := range tax.List() {
		fc := FilterCategory{Name: c.Name, Values: make([]FilterValue, 0, len(c.Values))}
		for _, v := range c.Values {
			selected := sel.Contains(c.Name, v)
			if selected {
				fc.Selected++
			}
			fc.Values = append(fc.Values, FilterValue{Name: v, Selected: selected})
		}
		panel.Categories = append(panel.Categories, fc)
	}
	return panel
}

func buildSortOptions(labels map[models.SortField]string, current models.SortField) []SortOption {
	opts := make([]SortOption, 0, len(models.SortFields))
	for _, f := range models.SortFields {
		label := labels[f]
		if label == "" {
			label = models.DefaultSortLabels[f]
		}
		opts = append(opts, SortOption{Field: f, Label: label, Selected: f == current})
	}
	return opts
}

// resultsData is the template data of the results partial. An idle session
// polls too: the poll request starts it.
func resultsData(b *browser.Session, st browser.State) fiber.Map {
	return fiber.Map{
		"Version":    st.Version,
		"Search":     st.Search,
		"SelectedID": selectedID(st),
		"Keywords":   st.Keywords,
		"Polling":    st.Search.Status == browser.SearchIdle || st.Search.Status == browser.SearchPending || b.KeywordsPending(),
	}
}

// contentData is the template data of the content partial.
func contentData(st browser.State) fiber.Map {
	return fiber.Map{
		"Version":  st.Version,
		"Selected": st.Selected,
		"Content":  st.Content,
		"Polling":  st.Content.Status == browser.ContentPending,
	}
}

func selectedID(st browser.State) int64 {
	if st.Selected == nil {
		return 0
	}
	return st.Selected.ID
}
