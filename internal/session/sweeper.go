package session

import (
    "context"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/seat-hold-engine/internal/logger"
)

// Sweeper guarantees that abandoned holds never lock seats permanently.
// It periodically asks the manager to expire overdue ACTIVE sessions;
// everything else (skipping FINALIZED sessions, never touching CONFIRMED
// seats, broadcasting releases) is enforced inside ExpireDue, so the
// sweeper itself is a plain ticker loop.
type Sweeper struct {
    mgr      *Manager
    interval time.Duration
    stopCh   chan struct{}
    doneCh   chan struct{}
}

// NewSweeper builds a sweeper over the given manager.  The interval is
// tunable via configuration; anything in the 1s–5s range keeps expiry
// latency well below user perception.
func NewSweeper(mgr *Manager, interval time.Duration) *Sweeper {
    return &Sweeper{
        mgr:      mgr,
        interval: interval,
        stopCh:   make(chan struct{}),
        doneCh:   make(chan struct{}),
    }
}

// Start runs the sweep loop until the context is cancelled or Stop is
// called.  It is intended to run in its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
    logger.Info("expiry sweeper started", zap.Duration("interval", s.interval))

    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()
    defer close(s.doneCh)

    for {
        select {
        case <-ctx.Done():
            logger.Info("expiry sweeper stopped (context cancelled)")
            return
        case <-s.stopCh:
            logger.Info("expiry sweeper stopped")
            return
        case <-ticker.C:
            if n := s.mgr.ExpireDue(time.Now()); n > 0 {
                logger.Info("expired overdue holds", zap.Int("sessions", n))
            }
        }
    }
}

// Stop signals the loop to exit and waits for it to drain.
func (s *Sweeper) Stop() {
    close(s.stopCh)
    <-s.doneCh
}
