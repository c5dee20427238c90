package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/toolgrid/toolgrid/internal/async"
	"github.com/toolgrid/toolgrid/internal/cache"
	"github.com/toolgrid/toolgrid/internal/domain"
	"github.com/toolgrid/toolgrid/internal/repository"
	"github.com/toolgrid/toolgrid/internal/telemetry"
	"github.com/toolgrid/toolgrid/internal/urlnorm"
)

const duplicateEndpoint = "/api/check-website-duplicate"

// duplicateChecker implements DuplicateChecker
type duplicateChecker struct {
	store   repository.Store
	local   cache.Cache
	writer  *async.Writer
	metrics *telemetry.Metrics
	logger  *zap.Logger
	ttl     time.Duration
}

// NewDuplicateChecker creates a duplicate checker. local may be nil to skip
// the process-local cache layer.
func NewDuplicateChecker(store repository.Store, local cache.Cache, writer *async.Writer, metrics *telemetry.Metrics, logger *zap.Logger, ttl time.Duration) DuplicateChecker {
	return &duplicateChecker{
		store:   store,
		local:   local,
		writer:  writer,
		metrics: metrics,
		logger:  logger.Named("duplicate"),
		ttl:     ttl,
	}
}

// Check normalizes rawURL and determines whether a matching tool exists.
// Cache writes and the performance log are fire-and-forget: their failure
// never affects the response.
func (s *duplicateChecker) Check(ctx context.Context, rawURL string) (*domain.CheckDuplicateResponse, error) {
	start := time.Now()

	if s.store == nil {
		return nil, domain.ErrStoreUnavailable
	}

	norm, err := urlnorm.Normalize(rawURL)
	if err != nil {
		return nil, err
	}

	if s.local != nil {
		if result, ok := s.local.Get(ctx, norm.Key); ok {
			s.metrics.CountDuplicateCheck(telemetry.ResultCacheHit)
			return s.respond(norm, result, true, start), nil
		}
	}

	if result, ok := s.lookupCacheTable(ctx, norm.Key); ok {
		s.populateLocal(ctx, norm.Key, result)
		s.metrics.CountDuplicateCheck(telemetry.ResultCacheHit)
		return s.respond(norm, result, true, start), nil
	}

	result, err := s.lookupPrimary(ctx, norm)
	if err != nil {
		return nil, err
	}

	s.populateLocal(ctx, norm.Key, result)
	s.writeBack(norm.Key, result, start)

	if result.Exists {
		s.metrics.CountDuplicateCheck(telemetry.ResultExists)
	} else {
		s.metrics.CountDuplicateCheck(telemetry.ResultMiss)
	}

	return s.respond(norm, result, false, start), nil
}

// lookupCacheTable consults the database-backed cache. Any error is treated
// as a miss; cache problems are logged, never surfaced.
func (s *duplicateChecker) lookupCacheTable(ctx context.Context, key string) (*domain.DuplicateResult, bool) {
	entry, err := s.store.GetCachedDuplicate(ctx, key)
	if err != nil {
		s.logger.Warn("duplicate cache lookup failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if entry == nil {
		return nil, false
	}

	result := &domain.DuplicateResult{Exists: entry.Exists}
	if entry.Exists && entry.ToolID != nil {
		tool, err := s.store.GetTool(ctx, *entry.ToolID)
		if err != nil {
			// The referenced tool is gone; fall through to a fresh lookup
			s.logger.Warn("cached tool no longer resolvable", zap.String("tool_id", *entry.ToolID), zap.Error(err))
			return nil, false
		}
		result.Tool = tool
	}
	return result, true
}

// lookupPrimary queries the tools table. The branch between the indexed
// normalized_url match and the host-substring fallback is driven by the
// schema capability probed at startup.
func (s *duplicateChecker) lookupPrimary(ctx context.Context, norm urlnorm.Result) (*domain.DuplicateResult, error) {
	var tool *domain.Tool
	var err error
	if s.store.HasNormalizedURLColumn() {
		tool, err = s.store.GetToolByNormalizedURL(ctx, norm.Key)
	} else {
		tool, err = s.store.FindToolByWebsiteHost(ctx, norm.Host)
	}
	if err != nil {
		if errors.Is(err, domain.ErrToolNotFound) {
			return &domain.DuplicateResult{Exists: false}, nil
		}
		return nil, err
	}
	return &domain.DuplicateResult{Exists: true, Tool: tool}, nil
}

func (s *duplicateChecker) populateLocal(ctx context.Context, key string, result *domain.DuplicateResult) {
	if s.local == nil {
		return
	}
	if err := s.local.Set(ctx, key, result, s.ttl); err != nil {
		s.logger.Warn("failed to populate local cache", zap.String("key", key), zap.Error(err))
	}
}

// writeBack enqueues the cache upsert and the performance log row
func (s *duplicateChecker) writeBack(key string, result *domain.DuplicateResult, start time.Time) {
	if s.writer == nil {
		return
	}

	entry := &domain.DuplicateCacheEntry{
		NormalizedURL: key,
		Exists:        result.Exists,
		ExpiresAt:     time.Now().UTC().Add(s.ttl),
	}
	if result.Tool != nil {
		toolID := result.Tool.ID
		entry.ToolID = &toolID
	}
	s.writer.Enqueue("duplicate_cache_upsert", func(ctx context.Context) error {
		return s.store.UpsertDuplicate(ctx, entry)
	})

	perfLog := &domain.PerformanceLog{
		Endpoint:   duplicateEndpoint,
		StatusCode: 200,
		DurationMS: time.Since(start).Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	s.writer.Enqueue("performance_log_insert", func(ctx context.Context) error {
		return s.store.InsertPerformanceLog(ctx, perfLog)
	})
}

func (s *duplicateChecker) respond(norm urlnorm.Result, result *domain.DuplicateResult, cached bool, start time.Time) *domain.CheckDuplicateResponse {
	return &domain.CheckDuplicateResponse{
		Exists:           result.Exists,
		Tool:             result.Tool,
		Cached:           cached,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
		NormalizedURL:    norm.Key,
		DisplayURL:       norm.Display,
	}
}

// Ensure duplicateChecker implements the interface
var _ DuplicateChecker = (*duplicateChecker)(nil)
