package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/toolgrid/toolgrid/internal/domain"
	"github.com/toolgrid/toolgrid/internal/repository"
)

// Store is a mock implementation of repository.Store
type Store struct {
	mock.Mock
}

func (m *Store) CreateTool(ctx context.Context, tool *domain.Tool) error {
	args := m.Called(ctx, tool)
	return args.Error(0)
}

func (m *Store) GetTool(ctx context.Context, id string) (*domain.Tool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tool), args.Error(1)
}

func (m *Store) GetToolByNormalizedURL(ctx context.Context, key string) (*domain.Tool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tool), args.Error(1)
}

func (m *Store) FindToolByWebsiteHost(ctx context.Context, host string) (*domain.Tool, error) {
	args := m.Called(ctx, host)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tool), args.Error(1)
}

func (m *Store) ListTools(ctx context.Context, params repository.ListToolsParams) ([]*domain.Tool, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Tool), args.Int(1), args.Error(2)
}

func (m *Store) UpdateToolStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *Store) IncrementViews(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Store) IncrementUpvotes(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Store) DeleteTool(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Store) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *Store) GetCachedDuplicate(ctx context.Context, key string) (*domain.DuplicateCacheEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DuplicateCacheEntry), args.Error(1)
}

func (m *Store) UpsertDuplicate(ctx context.Context, entry *domain.DuplicateCacheEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *Store) PurgeExpiredDuplicates(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Store) InsertPerformanceLog(ctx context.Context, log *domain.PerformanceLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *Store) PurgePerformanceLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Store) AddReview(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *Store) ListReviews(ctx context.Context, toolID string) ([]*domain.Review, error) {
	args := m.Called(ctx, toolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *Store) DeleteReview(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Store) AddFavorite(ctx context.Context, userID, toolID string) error {
	args := m.Called(ctx, userID, toolID)
	return args.Error(0)
}

func (m *Store) RemoveFavorite(ctx context.Context, userID, toolID string) error {
	args := m.Called(ctx, userID, toolID)
	return args.Error(0)
}

func (m *Store) ListFavorites(ctx context.Context, userID string) ([]*domain.Tool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tool), args.Error(1)
}

func (m *Store) HasNormalizedURLColumn() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *Store) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Ensure Store implements the interface
var _ repository.Store = (*Store)(nil)
