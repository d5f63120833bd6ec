// Package sweep runs the periodic deal window maintenance: activating
// scheduled deals whose window has opened and expiring active deals whose
// window has closed.
package sweep

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kawanestudio/storefront/internal/domain/deal"
)

// Sweeper owns its ticker goroutine. Start launches it, Stop waits for it to
// drain. Pricing never depends on the sweeper: the resolver filters on the
// time window itself, so a late sweep only delays the status column.
type Sweeper struct {
	deals    deal.Repository
	interval time.Duration
	timeout  time.Duration
	lg       *zap.Logger
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Sweeper that runs every interval with the given per-tick
// timeout.
func New(deals deal.Repository, interval, timeout time.Duration, lg *zap.Logger) *Sweeper {
	return &Sweeper{
		deals:    deals,
		interval: interval,
		timeout:  timeout,
		lg:       lg,
		now:      time.Now,
	}
}

// Start launches the sweep loop. One sweep runs immediately so a restart
// does not wait a full interval to catch up.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Sweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now()

	activated, err := s.deals.ActivateDue(ctx, now)
	if err != nil {
		s.lg.Warn("deal activation sweep failed", zap.Error(err))
	}
	expired, err := s.deals.ExpireEnded(ctx, now)
	if err != nil {
		s.lg.Warn("deal expiry sweep failed", zap.Error(err))
	}

	if activated > 0 || expired > 0 {
		s.lg.Info("deal sweep",
			zap.Int64("activated", activated),
			zap.Int64("expired", expired))
	}
}
