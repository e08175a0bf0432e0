package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"issuebrowser/internal/browser"
	"issuebrowser/internal/handlers"
	"issuebrowser/internal/handlers/api"
	"issuebrowser/internal/middleware"
	"issuebrowser/internal/models"
	"issuebrowser/internal/taxonomy"
)

// Deps are the long-lived components the routes are wired to.
type Deps struct {
	Registry   *browser.Registry
	Taxonomy   *taxonomy.Store
	SortLabels map[models.SortField]string
	Gatherer   prometheus.Gatherer
}

// RegisterRoutes registers all application routes and returns the browse
// handler so callers can tune it.
func (s *Server) RegisterRoutes(deps Deps) *handlers.BrowseHandler {
	// Initialize middleware
	browserMiddleware := middleware.NewBrowserMiddleware(deps.Registry)

	// Initialize handlers
	browseHandler := handlers.NewBrowseHandler(s.Cfg, deps.Taxonomy, deps.SortLabels)
	probeHandler := handlers.NewProbeHandler(deps.Taxonomy)
	taxonomyAPI := api.NewTaxonomyHandler(deps.Taxonomy)
	stateAPI := api.NewStateHandler(s.Cfg.GitHubRepository)

	// Probes and metrics
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	if deps.Gatherer != nil {
		s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Browser page and HTMX partials
	s.App.Get("/", browserMiddleware.AttachIdle, browseHandler.Index)
	s.App.Get("/results", browserMiddleware.Attach, browseHandler.Results)
	s.App.Get("/content", browserMiddleware.Attach, browseHandler.Content)
	s.App.Get("/filters", browserMiddleware.Attach, browseHandler.Filters)
	s.App.Post("/filters", browserMiddleware.Attach, browseHandler.SetFilter)
	s.App.Post("/keywords", browserMiddleware.Attach, browseHandler.Keywords)
	s.App.Post("/sort", browserMiddleware.Attach, browseHandler.Sort)
	s.App.Post("/refresh", browserMiddleware.Attach, browseHandler.Refresh)
	s.App.Post("/issues/deselect", browserMiddleware.Attach, browseHandler.Deselect)
	s.App.Post("/issues/:id/select", browserMiddleware.Attach, browseHandler.Select)

	// JSON API
	apiGroup := s.App.Group("/api")
	apiGroup.Get("/taxonomy", taxonomyAPI.Get)
	apiGroup.Get("/state", browserMiddleware.Attach, stateAPI.Get)
	apiGroup.Get("/query", browserMiddleware.Attach, stateAPI.Query)

	return browseHandler
}
