package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	repoMocks "github.com/toolgrid/toolgrid/internal/repository/mocks"
)

func TestSweeper_SweepDuplicates(t *testing.T) {
	store := &repoMocks.Store{}
	store.On("PurgeExpiredDuplicates", mock.Anything).Return(int64(3), nil)

	sweeper := NewSweeper(store, zap.NewNop())
	sweeper.sweepDuplicates()

	store.AssertExpectations(t)
}

func TestSweeper_SweepDuplicates_ErrorLoggedNotFatal(t *testing.T) {
	store := &repoMocks.Store{}
	store.On("PurgeExpiredDuplicates", mock.Anything).Return(int64(0), assert.AnError)

	sweeper := NewSweeper(store, zap.NewNop())
	sweeper.sweepDuplicates()

	store.AssertExpectations(t)
}

func TestSweeper_SweepPerformanceLogs(t *testing.T) {
	store := &repoMocks.Store{}
	store.On("PurgePerformanceLogs", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		want := time.Now().UTC().Add(-performanceLogRetention)
		return cutoff.Sub(want).Abs() < time.Minute
	})).Return(int64(10), nil)

	sweeper := NewSweeper(store, zap.NewNop())
	sweeper.sweepPerformanceLogs()

	store.AssertExpectations(t)
}

func TestSweeper_StartStop(t *testing.T) {
	store := &repoMocks.Store{}

	sweeper := NewSweeper(store, zap.NewNop())
	require.NoError(t, sweeper.Start())
	sweeper.Stop()
}
