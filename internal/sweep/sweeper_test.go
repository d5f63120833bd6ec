package sweep

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kawanestudio/storefront/internal/domain/deal"
)

type countingRepo struct {
	activate atomic.Int64
	expire   atomic.Int64
}

func (r *countingRepo) GetByID(context.Context, int64) (*deal.Deal, error) {
	return nil, deal.ErrNotFound
}

func (r *countingRepo) ActiveForProducts(context.Context, []string, time.Time) ([]deal.ProductDeal, error) {
	return nil, nil
}

func (r *countingRepo) ActivateDue(context.Context, time.Time) (int64, error) {
	r.activate.Add(1)
	return 1, nil
}

func (r *countingRepo) ExpireEnded(context.Context, time.Time) (int64, error) {
	r.expire.Add(1)
	return 0, nil
}

func TestSweeper_RunsImmediatelyAndStops(t *testing.T) {
	repo := &countingRepo{}
	s := New(repo, time.Hour, time.Second, zap.NewNop())

	s.Start(context.Background())
	s.Stop()

	// The hour-long interval never fired; the startup sweep did.
	assert.Equal(t, int64(1), repo.activate.Load())
	assert.Equal(t, int64(1), repo.expire.Load())
}

func TestSweeper_Ticks(t *testing.T) {
	repo := &countingRepo{}
	s := New(repo, 10*time.Millisecond, time.Second, zap.NewNop())

	s.Start(context.Background())
	require.Eventually(t, func() bool {
		return repo.activate.Load() >= 3
	}, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestSweeper_StopWithoutStart(t *testing.T) {
	s := New(&countingRepo{}, time.Hour, time.Second, zap.NewNop())
	s.Stop()
}
