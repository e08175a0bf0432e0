package browser

import (
	"context"
	"html/template"
	"sync"
	"time"

	"issuebrowser/internal/models"
	"issuebrowser/internal/query"
	"issuebrowser/internal/render"
)

// Searcher runs one remote issue search.
type Searcher interface {
	SearchIssues(ctx context.Context, p query.Params) (*models.SearchResult, error)
}

// SearchDone receives the outcome of search seq.
type SearchDone func(seq uint64, result *models.SearchResult, err error, elapsed time.Duration)

// SearchCoordinator runs searches one at a time per session. Starting a new
// search cancels the request of the one it supersedes; whether a late result
// is applied is still decided by its sequence number.
type SearchCoordinator struct {
	searcher Searcher
	timeout  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSearchCoordinator creates a coordinator. A zero timeout means no
// per-search deadline beyond the searcher's own.
func NewSearchCoordinator(searcher Searcher, timeout time.Duration) *SearchCoordinator {
	return &SearchCoordinator{searcher: searcher, timeout: timeout}
}

// Start runs the search for p tagged with seq in its own goroutine and
// reports to done. The previous search, if still running, is cancelled.
func (c *SearchCoordinator) Start(seq uint64, p query.Params, done SearchDone) {
	ctx, cancel := newContext(c.timeout)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer cancel()
		start := time.Now()
		result, err := c.searcher.SearchIssues(ctx, p)
		done(seq, result, err, time.Since(start))
	}()
}

// Stop cancels the running search and waits for its goroutine to finish.
func (c *SearchCoordinator) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

// RenderDone receives the outcome of render seq.
type RenderDone func(seq uint64, html template.HTML, err error)

// ContentRenderer converts the selected issue's body off the caller's
// goroutine. Like SearchCoordinator it cancels superseded work and leaves
// the freshness decision to the sequence number.
type ContentRenderer struct {
	renderer render.Renderer
	timeout  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewContentRenderer creates a content renderer.
func NewContentRenderer(r render.Renderer, timeout time.Duration) *ContentRenderer {
	return &ContentRenderer{renderer: r, timeout: timeout}
}

// Start renders body tagged with seq and reports to done.
func (r *ContentRenderer) Start(seq uint64, body string, done RenderDone) {
	ctx, cancel := newContext(r.timeout)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer cancel()
		html, err := r.renderer.Render(ctx, body)
		done(seq, html, err)
	}()
}

// Cancel cancels the running render, if any.
func (r *ContentRenderer) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Stop cancels the running render and waits for its goroutine to finish.
func (r *ContentRenderer) Stop() {
	r.Cancel()
	r.wg.Wait()
}
