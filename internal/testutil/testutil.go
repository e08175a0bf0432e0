// Package testutil provides test utilities and helpers.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"issuebrowser/internal/models"
)

// GitHub is a fake GitHub REST API serving labels and issue search for one
// repository.
type GitHub struct {
	Server *httptest.Server

	mu       sync.Mutex
	labels   []models.Label
	results  map[string]models.SearchResult
	fallback models.SearchResult
	failures map[string]int
	queries  []string
}

// NewGitHub starts a fake GitHub API and registers its shutdown with t.
func NewGitHub(t *testing.T, owner, repo string) *GitHub {
	t.Helper()
	g := &GitHub{
		results:  make(map[string]models.SearchResult),
		failures: make(map[string]int),
		fallback: models.SearchResult{Items: []models.Issue{}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/"+owner+"/"+repo+"/labels", g.handleLabels)
	mux.HandleFunc("GET /search/issues", g.handleSearch)
	g.Server = httptest.NewServer(mux)
	t.Cleanup(g.Server.Close)
	return g
}

// URL returns the API base URL.
func (g *GitHub) URL() string {
	return g.Server.URL
}

// SetLabels sets the labels returned for the repository.
func (g *GitHub) SetLabels(names ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.labels = make([]models.Label, len(names))
	for i, n := range names {
		g.labels[i] = models.Label{Name: n}
	}
}

// SetResult sets the search result for the exact query string q.
func (g *GitHub) SetResult(q string, issues ...models.Issue) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if issues == nil {
		issues = []models.Issue{}
	}
	g.results[q] = models.SearchResult{TotalCount: len(issues), Items: issues}
}

// SetDefaultResult sets the result for queries without a specific result.
func (g *GitHub) SetDefaultResult(issues ...models.Issue) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if issues == nil {
		issues = []models.Issue{}
	}
	g.fallback = models.SearchResult{TotalCount: len(issues), Items: issues}
}

// FailNext makes the next n requests to path fail with 500.
func (g *GitHub) FailNext(path string, n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[path] = n
}

// Queries returns every search query received, in order.
func (g *GitHub) Queries() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.queries...)
}

func (g *GitHub) fail(w http.ResponseWriter, r *http.Request) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failures[r.URL.Path] > 0 {
		g.failures[r.URL.Path]--
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server Error"})
		return true
	}
	return false
}

func (g *GitHub) handleLabels(w http.ResponseWriter, r *http.Request) {
	if g.fail(w, r) {
		return
	}
	g.mu.Lock()
	labels := append([]models.Label{}, g.labels...)
	g.mu.Unlock()
	writeJSON(w, http.StatusOK, labels)
}

func (g *GitHub) handleSearch(w http.ResponseWriter, r *http.Request) {
	if g.fail(w, r) {
		return
	}
	q := r.URL.Query().Get("q")

	g.mu.Lock()
	g.queries = append(g.queries, q)
	result, ok := g.results[q]
	if !ok {
		result = g.fallback
	}
	g.mu.Unlock()

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
