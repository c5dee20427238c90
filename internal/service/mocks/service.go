package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/toolgrid/toolgrid/internal/domain"
)

// DuplicateChecker is a mock implementation of service.DuplicateChecker
type DuplicateChecker struct {
	mock.Mock
}

func (m *DuplicateChecker) Check(ctx context.Context, rawURL string) (*domain.CheckDuplicateResponse, error) {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckDuplicateResponse), args.Error(1)
}

// Catalog is a mock implementation of service.Catalog
type Catalog struct {
	mock.Mock
}

func (m *Catalog) ListTools(ctx context.Context, status, category string, page, perPage int) (*domain.ToolListResponse, error) {
	args := m.Called(ctx, status, category, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ToolListResponse), args.Error(1)
}

func (m *Catalog) GetTool(ctx context.Context, id string) (*domain.Tool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tool), args.Error(1)
}

func (m *Catalog) SubmitTool(ctx context.Context, req *domain.SubmitToolRequest) (*domain.Tool, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tool), args.Error(1)
}

func (m *Catalog) ApproveTool(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Catalog) RejectTool(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Catalog) UpvoteTool(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Catalog) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *Catalog) AddReview(ctx context.Context, toolID string, req *domain.AddReviewRequest) (*domain.Review, error) {
	args := m.Called(ctx, toolID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *Catalog) ListReviews(ctx context.Context, toolID string) ([]*domain.Review, error) {
	args := m.Called(ctx, toolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *Catalog) AddFavorite(ctx context.Context, userID, toolID string) error {
	args := m.Called(ctx, userID, toolID)
	return args.Error(0)
}

func (m *Catalog) RemoveFavorite(ctx context.Context, userID, toolID string) error {
	args := m.Called(ctx, userID, toolID)
	return args.Error(0)
}

func (m *Catalog) ListFavorites(ctx context.Context, userID string) ([]*domain.Tool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tool), args.Error(1)
}
