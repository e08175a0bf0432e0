package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"issuebrowser/internal/models"
)

// ErrNotLoaded is returned by Store.Snapshot before the first load finishes.
var ErrNotLoaded = errors.New("taxonomy not loaded")

// LabelSource lists the labels of the configured repository.
type LabelSource interface {
	ListLabels(ctx context.Context) ([]models.Label, error)
}

// Status describes where the store is in its load lifecycle.
type Status string

const (
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
)

// Store holds the taxonomy built once at startup. Readers never block on the
// load; until it completes they see an empty taxonomy.
type Store struct {
	order  []string
	hidden []string

	mu       sync.RWMutex
	tax      *Taxonomy
	status   Status
	err      error
	loadedAt time.Time

	group singleflight.Group
}

// NewStore creates an empty store. order and hidden are applied to the loaded
// taxonomy with Arrange.
func NewStore(order, hidden []string) *Store {
	return &Store{
		order:  order,
		hidden: hidden,
		tax:    Empty(),
		status: StatusLoading,
	}
}

// Load fetches labels from src and builds the taxonomy. Concurrent calls share
// one fetch. A failure leaves the taxonomy empty and is recorded, not fatal.
func (s *Store) Load(ctx context.Context, src LabelSource) error {
	_, err, _ := s.group.Do("load", func() (any, error) {
		labels, err := src.ListLabels(ctx)
		if err != nil {
			s.mu.Lock()
			s.status = StatusFailed
			s.err = err
			s.mu.Unlock()
			logrus.WithError(err).Warn("taxonomy: failed to load labels, filter panel will be empty")
			return nil, fmt.Errorf("load labels: %w", err)
		}

		tax := Build(labels).Arrange(s.order, s.hidden)

		s.mu.Lock()
		s.tax = tax
		s.status = StatusLoaded
		s.err = nil
		s.loadedAt = time.Now()
		s.mu.Unlock()

		logrus.WithFields(logrus.Fields{
			"labels":     len(labels),
			"categories": tax.Len(),
		}).Info("taxonomy: loaded")
		return nil, nil
	})
	return err
}

// Snapshot returns the current taxonomy and load status. err is ErrNotLoaded
// while loading and the load error after a failure.
func (s *Store) Snapshot() (*Taxonomy, Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.status {
	case StatusLoading:
		return s.tax, s.status, ErrNotLoaded
	case StatusFailed:
		return s.tax, s.status, s.err
	}
	return s.tax, s.status, nil
}

// Taxonomy returns the current taxonomy, empty until loaded.
func (s *Store) Taxonomy() *Taxonomy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tax
}

// LoadedAt returns when the taxonomy was last loaded successfully.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
