package browser

import (
	"context"
	"errors"
	"html/template"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"issuebrowser/internal/debounce"
	"issuebrowser/internal/metrics"
	"issuebrowser/internal/models"
	"issuebrowser/internal/query"
	"issuebrowser/internal/render"
)

// ErrSessionClosed is returned when waiting on a closed session.
var ErrSessionClosed = errors.New("session closed")

// Options configure a Session.
type Options struct {
	Repository    string
	Searcher      Searcher
	Renderer      render.Renderer
	KeywordQuiet  time.Duration
	SearchTimeout time.Duration
	RenderTimeout time.Duration
	DefaultSort   models.SortField
	Now           func() time.Time
}

// Session is one visitor's browser state. Every user event goes through a
// Session method; remote results come back through the same lock and are
// applied only if still current.
type Session struct {
	id       string
	repo     string
	now      func() time.Time
	search   *SearchCoordinator
	content  *ContentRenderer
	keywords *debounce.Debouncer[typedKeywords]
	log      *logrus.Entry

	mu       sync.Mutex
	state    State
	lastKey  string
	changed  chan struct{}
	lastSeen time.Time
	closed   bool

	// typing is set from a keystroke until the debounced input of the latest
	// keystroke (typedGen) has been handled.
	typing   bool
	typedGen uint64
}

// typedKeywords is keyword input tagged with the keystroke that produced it.
type typedKeywords struct {
	keywords string
	gen      uint64
}

// NewSession creates a session. Call Start to issue the initial search.
func NewSession(id string, opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Session{
		id:       id,
		repo:     opts.Repository,
		now:      now,
		search:   NewSearchCoordinator(opts.Searcher, opts.SearchTimeout),
		content:  NewContentRenderer(opts.Renderer, opts.RenderTimeout),
		state:    NewState(opts.DefaultSort),
		changed:  make(chan struct{}),
		lastSeen: now(),
		log:      logrus.WithField("session", id),
	}
	s.keywords = debounce.New(opts.KeywordQuiet, s.applyTyped)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start issues the initial search for the default spec. The taxonomy does not
// need to be loaded first. Calling Start again does nothing.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.reconcileLocked()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Query returns the query string the current state searches for.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return query.Compose(s.state.Spec(), s.repo)
}

// SetCategoryFilter replaces the selected values of category. Empty values
// removes the category from the filters.
func (s *Session) SetCategoryFilter(category string, values []string) State {
	return s.update(SetFilter{Category: category, Values: values})
}

// TypeKeywords records a keystroke. The keywords are applied once input has
// been quiet for the debounce period.
func (s *Session) TypeKeywords(keywords string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.typedGen++
	s.typing = true
	gen := s.typedGen
	s.mu.Unlock()

	s.keywords.Trigger(typedKeywords{keywords: keywords, gen: gen})
}

// SetKeywords applies keywords immediately, dropping any pending debounced input.
func (s *Session) SetKeywords(keywords string) State {
	s.keywords.Cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state
	}
	s.typedGen++
	if s.typing {
		s.typing = false
		s.notifyLocked()
	}
	if s.dispatchLocked(SetKeywords{Keywords: keywords}) {
		s.reconcileLocked()
	}
	return s.state
}

// applyTyped applies debounced input. Waiters are woken even when the input
// changed nothing, since they may be waiting for typing to settle.
func (s *Session) applyTyped(in typedKeywords) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if in.gen == s.typedGen {
		s.typing = false
	}
	if s.dispatchLocked(SetKeywords{Keywords: in.keywords}) {
		s.reconcileLocked()
		return
	}
	s.notifyLocked()
}

// FlushKeywords applies pending debounced input now, if there is any.
func (s *Session) FlushKeywords() bool {
	return s.keywords.Flush()
}

// KeywordsPending reports whether typed keywords are waiting out the debounce.
func (s *Session) KeywordsPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// SetSort changes the sort field and order. An empty order uses the field's default.
func (s *Session) SetSort(field models.SortField, order models.SortOrder) State {
	return s.update(SetSort{Field: field, Order: order})
}

// Refresh re-issues the current query, e.g. after a failed search.
func (s *Session) Refresh() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state
	}
	s.lastKey = ""
	s.reconcileLocked()
	return s.state
}

// SelectIssue selects issue and renders its body asynchronously. It does not
// touch the search lifecycle.
func (s *Session) SelectIssue(issue models.Issue) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.dispatchLocked(SelectIssue{Issue: issue}) {
		return s.state
	}
	s.content.Start(s.state.Content.Seq, issue.Body, s.onRendered)
	return s.state
}

// SelectIssueByID selects the issue with id from the visible results.
func (s *Session) SelectIssueByID(id int64) (State, bool) {
	s.mu.Lock()
	var found *models.Issue
	if s.state.Selected != nil && s.state.Selected.ID == id {
		issue := *s.state.Selected
		found = &issue
	}
	for i := range s.state.Search.Issues {
		if s.state.Search.Issues[i].ID == id {
			issue := s.state.Search.Issues[i]
			found = &issue
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return s.Snapshot(), false
	}
	return s.SelectIssue(*found), true
}

// Deselect clears the selection and content without waiting for anything.
func (s *Session) Deselect() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatchLocked(Deselect{}) {
		s.content.Cancel()
	}
	return s.state
}

// Wait blocks until the state version is greater than version, the context
// ends, or the session is closed.
func (s *Session) Wait(ctx context.Context, version uint64) (State, error) {
	for {
		s.mu.Lock()
		if s.state.Version > version {
			st := s.state
			s.mu.Unlock()
			return st, nil
		}
		if s.closed {
			st := s.state
			s.mu.Unlock()
			return st, ErrSessionClosed
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}
}

// WaitSettled is Wait that also returns once nothing is in flight: no search,
// no render and no typed input waiting out the debounce.
func (s *Session) WaitSettled(ctx context.Context, version uint64) (State, error) {
	for {
		s.mu.Lock()
		st := s.state
		if st.Version > version || !s.busyLocked() {
			s.mu.Unlock()
			return st, nil
		}
		if s.closed {
			s.mu.Unlock()
			return st, ErrSessionClosed
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}
}

func (s *Session) busyLocked() bool {
	return s.typing ||
		s.state.Search.Status == SearchPending ||
		s.state.Content.Status == ContentPending
}

// Touch records activity for idle tracking.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
}

// IdleSince returns when the session was last touched.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close stops pending input and in-flight work. Results arriving afterwards
// are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.notifyLocked()
	s.mu.Unlock()

	s.keywords.Stop()
	s.search.Stop()
	s.content.Stop()
}

// update applies an input action and issues a search if the query changed.
func (s *Session) update(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state
	}
	if s.dispatchLocked(a) {
		s.reconcileLocked()
	}
	return s.state
}

// reconcileLocked issues a new search when the derived query differs from the
// one last issued.
func (s *Session) reconcileLocked() {
	spec := s.state.Spec()
	key := query.Key(spec, s.repo)
	if key == s.lastKey {
		return
	}
	s.lastKey = key

	params := query.ParamsFor(spec, s.repo)
	s.dispatchLocked(SearchIssued{Query: params.Q, At: s.now()})
	seq := s.state.Search.Seq

	s.log.WithFields(logrus.Fields{"seq": seq, "q": params.Q, "order": params.Order}).Debug("search issued")
	s.search.Start(seq, params, s.onSearched)
}

func (s *Session) onSearched(seq uint64, result *models.SearchResult, err error, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var applied bool
	if !s.closed {
		if err != nil {
			applied = s.dispatchLocked(SearchFailed{Seq: seq, Err: err, At: s.now()})
		} else {
			applied = s.dispatchLocked(SearchSucceeded{Seq: seq, Result: result, At: s.now()})
		}
	}

	fields := logrus.Fields{"seq": seq, "current": s.state.Search.Seq, "elapsed": elapsed}
	switch {
	case !applied:
		metrics.RecordSearch(metrics.OutcomeDiscarded, elapsed)
		s.log.WithFields(fields).Debug("search result discarded, superseded")
	case err != nil:
		metrics.RecordSearch(metrics.OutcomeFailed, elapsed)
		s.log.WithFields(fields).WithError(err).Warn("search failed, keeping previous results")
	default:
		metrics.RecordSearch(metrics.OutcomeFulfilled, elapsed)
		s.log.WithFields(fields).WithField("issues", len(s.state.Search.Issues)).Debug("search fulfilled")
	}
}

func (s *Session) onRendered(seq uint64, html template.HTML, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var applied bool
	if !s.closed {
		if err != nil {
			applied = s.dispatchLocked(RenderFailed{Seq: seq, Err: err})
		} else {
			applied = s.dispatchLocked(RenderSucceeded{Seq: seq, HTML: html})
		}
	}

	switch {
	case !applied:
		metrics.RecordRender(metrics.OutcomeDiscarded)
	case err != nil:
		metrics.RecordRender(metrics.OutcomeFailed)
		s.log.WithField("seq", seq).WithError(err).Warn("render failed")
	default:
		metrics.RecordRender(metrics.OutcomeReady)
	}
}

// dispatchLocked reduces a into the state and wakes waiters if it applied.
func (s *Session) dispatchLocked(a Action) bool {
	next, applied := Reduce(s.state, a)
	if !applied {
		return false
	}
	s.state = next
	s.notifyLocked()
	return true
}

// notifyLocked wakes every waiter.
func (s *Session) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}
