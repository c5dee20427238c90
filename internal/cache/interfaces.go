package cache

import (
	"context"
	"time"

	"github.com/toolgrid/toolgrid/internal/domain"
)

// Cache defines the interface for the process-local duplicate-result cache.
// It sits in front of the database-backed cache table and is strictly
// best-effort.
type Cache interface {
	// Get retrieves a cached duplicate result by normalized URL. Expired
	// entries behave as absent.
	Get(ctx context.Context, key string) (*domain.DuplicateResult, bool)

	// Set stores a duplicate result under the normalized URL with a TTL
	Set(ctx context.Context, key string, result *domain.DuplicateResult, ttl time.Duration) error

	// Delete removes a cached result
	Delete(ctx context.Context, key string) error

	// Len returns the number of live entries
	Len(ctx context.Context) int

	// Close releases cache resources
	Close() error
}
