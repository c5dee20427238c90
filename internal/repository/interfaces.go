package repository

import (
	"context"
	"time"

	"github.com/toolgrid/toolgrid/internal/domain"
)

// ListToolsParams filters and paginates a tool listing
type ListToolsParams struct {
	Status   string
	Category string
	Page     int
	PerPage  int
}

// Store defines the interface for catalog data operations
type Store interface {
	// CreateTool persists a new tool together with its categories
	CreateTool(ctx context.Context, tool *domain.Tool) error

	// GetTool retrieves a tool by id
	GetTool(ctx context.Context, id string) (*domain.Tool, error)

	// GetToolByNormalizedURL finds a published or pending tool whose
	// normalized_url column matches the key. Requires the column to exist.
	GetToolByNormalizedURL(ctx context.Context, key string) (*domain.Tool, error)

	// FindToolByWebsiteHost finds a published or pending tool whose raw
	// website_url contains the host. The schema fallback used when the
	// normalized_url column is absent; tries both the bare and the
	// www.-prefixed host.
	FindToolByWebsiteHost(ctx context.Context, host string) (*domain.Tool, error)

	// ListTools returns a page of tools plus the total match count
	ListTools(ctx context.Context, params ListToolsParams) ([]*domain.Tool, int, error)

	// UpdateToolStatus sets a tool's status
	UpdateToolStatus(ctx context.Context, id, status string) error

	// IncrementViews bumps a tool's view counter
	IncrementViews(ctx context.Context, id string) error

	// IncrementUpvotes bumps a tool's upvote counter
	IncrementUpvotes(ctx context.Context, id string) error

	// DeleteTool removes a tool and its categories, reviews and favorites
	DeleteTool(ctx context.Context, id string) error

	// ListCategories returns all category names in use
	ListCategories(ctx context.Context) ([]string, error)

	// GetCachedDuplicate returns the non-expired cache row for a key,
	// or nil when absent or expired
	GetCachedDuplicate(ctx context.Context, key string) (*domain.DuplicateCacheEntry, error)

	// UpsertDuplicate inserts or refreshes a duplicate cache row
	UpsertDuplicate(ctx context.Context, entry *domain.DuplicateCacheEntry) error

	// PurgeExpiredDuplicates deletes expired cache rows, returning the count
	PurgeExpiredDuplicates(ctx context.Context) (int64, error)

	// InsertPerformanceLog records an API timing sample
	InsertPerformanceLog(ctx context.Context, log *domain.PerformanceLog) error

	// PurgePerformanceLogs deletes samples older than the cutoff
	PurgePerformanceLogs(ctx context.Context, cutoff time.Time) (int64, error)

	// AddReview attaches a review to a tool
	AddReview(ctx context.Context, review *domain.Review) error

	// ListReviews returns a tool's reviews, newest first
	ListReviews(ctx context.Context, toolID string) ([]*domain.Review, error)

	// DeleteReview removes a review
	DeleteReview(ctx context.Context, id string) error

	// AddFavorite bookmarks a tool for a user; adding twice is a no-op
	AddFavorite(ctx context.Context, userID, toolID string) error

	// RemoveFavorite removes a user's bookmark
	RemoveFavorite(ctx context.Context, userID, toolID string) error

	// ListFavorites returns the tools a user bookmarked, newest first
	ListFavorites(ctx context.Context, userID string) ([]*domain.Tool, error)

	// HasNormalizedURLColumn reports whether the tools table carries the
	// normalized_url column, probed once at startup
	HasNormalizedURLColumn() bool

	// Close closes the store connection
	Close() error
}
