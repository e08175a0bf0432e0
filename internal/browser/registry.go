package browser

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Registry holds the live sessions of all visitors.
type Registry struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions are built with opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// Get returns the session with id, if it exists.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// GetOrCreate returns the session with id, creating it when it does not
// exist. New sessions are not started. An empty id gets a new identifier. The returned bool reports
// whether the session was created.
func (r *Registry) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, ok := r.Get(id); ok {
			s.Touch()
			return s, false
		}
	} else {
		id = NewID()
	}

	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		s.Touch()
		return s, false
	}
	s := NewSession(id, r.opts)
	r.sessions[id] = s
	r.mu.Unlock()

	logrus.WithField("session", id).Debug("browser session created")
	return s, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Remove closes and forgets the session with id.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// Sweep closes sessions idle for longer than maxIdle and returns how many it
// removed.
func (r *Registry) Sweep(now time.Time, maxIdle time.Duration) int {
	var idle []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.IdleSince()) > maxIdle {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

// CloseAll closes every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
