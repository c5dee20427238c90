package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toolgrid/toolgrid/internal/async"
	"github.com/toolgrid/toolgrid/internal/cache"
	"github.com/toolgrid/toolgrid/internal/domain"
	"github.com/toolgrid/toolgrid/internal/repository"
	"github.com/toolgrid/toolgrid/internal/urlnorm"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// catalog implements Catalog
type catalog struct {
	store  repository.Store
	local  cache.Cache
	writer *async.Writer
	logger *zap.Logger
	ttl    time.Duration
}

// NewCatalog creates the catalog service. local may be nil.
func NewCatalog(store repository.Store, local cache.Cache, writer *async.Writer, logger *zap.Logger, ttl time.Duration) Catalog {
	return &catalog{
		store:  store,
		local:  local,
		writer: writer,
		logger: logger.Named("catalog"),
		ttl:    ttl,
	}
}

// ListTools returns a page of tools, most recent first
func (s *catalog) ListTools(ctx context.Context, status, category string, page, perPage int) (*domain.ToolListResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	tools, total, err := s.store.ListTools(ctx, repository.ListToolsParams{
		Status:   status,
		Category: category,
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	if tools == nil {
		tools = []*domain.Tool{}
	}
	return &domain.ToolListResponse{
		Tools:   tools,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// GetTool retrieves a tool by id. The view counter bump is fire-and-forget.
func (s *catalog) GetTool(ctx context.Context, id string) (*domain.Tool, error) {
	tool, err := s.store.GetTool(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.writer != nil {
		s.writer.Enqueue("increment_views", func(ctx context.Context) error {
			return s.store.IncrementViews(ctx, id)
		})
	}
	return tool, nil
}

// SubmitTool validates and stores a new submission in pending status
func (s *catalog) SubmitTool(ctx context.Context, req *domain.SubmitToolRequest) (*domain.Tool, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("tool name is required")
	}

	norm, err := urlnorm.Normalize(req.WebsiteURL)
	if err != nil {
		return nil, err
	}

	if existing, err := s.findExisting(ctx, norm); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrDuplicateTool
	}

	tool := &domain.Tool{
		ID:            uuid.NewString(),
		Name:          name,
		Tagline:       strings.TrimSpace(req.Tagline),
		WebsiteURL:    strings.TrimSpace(req.WebsiteURL),
		NormalizedURL: norm.Key,
		Status:        domain.StatusPending,
		LogoURL:       strings.TrimSpace(req.LogoURL),
		CreatedAt:     time.Now().UTC(),
		Categories:    dedupeCategories(req.Categories),
	}

	if err := s.store.CreateTool(ctx, tool); err != nil {
		return nil, fmt.Errorf("failed to create tool: %w", err)
	}

	s.invalidateDuplicateCache(ctx, norm.Key, tool)
	return tool, nil
}

func (s *catalog) findExisting(ctx context.Context, norm urlnorm.Result) (*domain.Tool, error) {
	var tool *domain.Tool
	var err error
	if s.store.HasNormalizedURLColumn() {
		tool, err = s.store.GetToolByNormalizedURL(ctx, norm.Key)
	} else {
		tool, err = s.store.FindToolByWebsiteHost(ctx, norm.Host)
	}
	if err != nil {
		if errors.Is(err, domain.ErrToolNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check for existing tool: %w", err)
	}
	return tool, nil
}

// invalidateDuplicateCache refreshes both cache layers after a submission so
// an immediate re-check reports the new tool
func (s *catalog) invalidateDuplicateCache(ctx context.Context, key string, tool *domain.Tool) {
	result := &domain.DuplicateResult{Exists: true, Tool: tool}
	if s.local != nil {
		if err := s.local.Set(ctx, key, result, s.ttl); err != nil {
			s.logger.Warn("failed to refresh local duplicate cache", zap.String("key", key), zap.Error(err))
		}
	}

	if s.writer != nil {
		toolID := tool.ID
		entry := &domain.DuplicateCacheEntry{
			NormalizedURL: key,
			Exists:        true,
			ToolID:        &toolID,
			ExpiresAt:     time.Now().UTC().Add(s.ttl),
		}
		s.writer.Enqueue("duplicate_cache_upsert", func(ctx context.Context) error {
			return s.store.UpsertDuplicate(ctx, entry)
		})
	}
}

// ApproveTool publishes a pending tool
func (s *catalog) ApproveTool(ctx context.Context, id string) error {
	return s.transition(ctx, id, domain.StatusPublished)
}

// RejectTool rejects a pending tool
func (s *catalog) RejectTool(ctx context.Context, id string) error {
	return s.transition(ctx, id, domain.StatusRejected)
}

func (s *catalog) transition(ctx context.Context, id, target string) error {
	tool, err := s.store.GetTool(ctx, id)
	if err != nil {
		return err
	}
	if tool.Status != domain.StatusPending {
		return fmt.Errorf("%w: tool %s is %s", domain.ErrInvalidStatus, id, tool.Status)
	}
	return s.store.UpdateToolStatus(ctx, id, target)
}

// UpvoteTool bumps a tool's upvote counter
func (s *catalog) UpvoteTool(ctx context.Context, id string) error {
	return s.store.IncrementUpvotes(ctx, id)
}

// ListCategories returns all category names in use
func (s *catalog) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// AddReview attaches a review to a tool
func (s *catalog) AddReview(ctx context.Context, toolID string, req *domain.AddReviewRequest) (*domain.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, domain.ErrInvalidRating
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("user id is required")
	}

	if _, err := s.store.GetTool(ctx, toolID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:        uuid.NewString(),
		ToolID:    toolID,
		UserID:    req.UserID,
		Rating:    req.Rating,
		Body:      strings.TrimSpace(req.Body),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	return review, nil
}

// ListReviews returns a tool's reviews, newest first
func (s *catalog) ListReviews(ctx context.Context, toolID string) ([]*domain.Review, error) {
	reviews, err := s.store.ListReviews(ctx, toolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return reviews, nil
}

// AddFavorite bookmarks a tool for a user
func (s *catalog) AddFavorite(ctx context.Context, userID, toolID string) error {
	if _, err := s.store.GetTool(ctx, toolID); err != nil {
		return err
	}
	return s.store.AddFavorite(ctx, userID, toolID)
}

// RemoveFavorite removes a user's bookmark
func (s *catalog) RemoveFavorite(ctx context.Context, userID, toolID string) error {
	return s.store.RemoveFavorite(ctx, userID, toolID)
}

// ListFavorites returns the tools a user bookmarked
func (s *catalog) ListFavorites(ctx context.Context, userID string) ([]*domain.Tool, error) {
	tools, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	if tools == nil {
		tools = []*domain.Tool{}
	}
	return tools, nil
}

func dedupeCategories(categories []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, category := range categories {
		name := strings.TrimSpace(category)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		out = append(out, name)
	}
	return out
}

// Ensure catalog implements the interface
var _ Catalog = (*catalog)(nil)
