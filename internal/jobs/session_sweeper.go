package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper is the part of the session registry the sweeper needs.
type Sweeper interface {
	Sweep(now time.Time, maxIdle time.Duration) int
	Len() int
}

// SessionSweeper periodically closes browser sessions that have been idle
// for longer than maxIdle.
type SessionSweeper struct {
	sessions Sweeper
	interval time.Duration
	maxIdle  time.Duration
	now      func() time.Time
}

// NewSessionSweeper creates a new session sweeper. A non-positive interval
// sweeps at a quarter of maxIdle.
func NewSessionSweeper(sessions Sweeper, interval, maxIdle time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = maxIdle / 4
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		maxIdle:  maxIdle,
		now:      time.Now,
	}
}

// Start runs the sweep loop until ctx is done.
func (s *SessionSweeper) Start(ctx context.Context) {
	log := logrus.WithFields(logrus.Fields{"interval": s.interval, "max_idle": s.maxIdle})
	log.Info("session sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *SessionSweeper) sweep() int {
	removed := s.sessions.Sweep(s.now(), s.maxIdle)
	if removed > 0 {
		logrus.WithFields(logrus.Fields{"removed": removed, "remaining": s.sessions.Len()}).Info("idle browser sessions closed")
	}
	return removed
}
