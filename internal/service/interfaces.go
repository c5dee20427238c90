package service

import (
	"context"

	"github.com/toolgrid/toolgrid/internal/domain"
)

// DuplicateChecker determines whether a tool with a given website URL
// already exists in the catalog
type DuplicateChecker interface {
	// Check normalizes rawURL and looks it up, consulting the cache first
	Check(ctx context.Context, rawURL string) (*domain.CheckDuplicateResponse, error)
}

// Catalog defines the catalog operations exposed over the API
type Catalog interface {
	// ListTools returns a page of tools, most recent first
	ListTools(ctx context.Context, status, category string, page, perPage int) (*domain.ToolListResponse, error)

	// GetTool retrieves a tool by id and bumps its view counter
	GetTool(ctx context.Context, id string) (*domain.Tool, error)

	// SubmitTool validates and stores a new submission in pending status
	SubmitTool(ctx context.Context, req *domain.SubmitToolRequest) (*domain.Tool, error)

	// ApproveTool publishes a pending tool
	ApproveTool(ctx context.Context, id string) error

	// RejectTool rejects a pending tool
	RejectTool(ctx context.Context, id string) error

	// UpvoteTool bumps a tool's upvote counter
	UpvoteTool(ctx context.Context, id string) error

	// ListCategories returns all category names in use
	ListCategories(ctx context.Context) ([]string, error)

	// AddReview attaches a review to a tool
	AddReview(ctx context.Context, toolID string, req *domain.AddReviewRequest) (*domain.Review, error)

	// ListReviews returns a tool's reviews, newest first
	ListReviews(ctx context.Context, toolID string) ([]*domain.Review, error)

	// AddFavorite bookmarks a tool for a user
	AddFavorite(ctx context.Context, userID, toolID string) error

	// RemoveFavorite removes a user's bookmark
	RemoveFavorite(ctx context.Context, userID, toolID string) error

	// ListFavorites returns the tools a user bookmarked
	ListFavorites(ctx context.Context, userID string) ([]*domain.Tool, error)
}
