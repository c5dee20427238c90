package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toolgrid/toolgrid/internal/async"
	"github.com/toolgrid/toolgrid/internal/cache/memory"
	"github.com/toolgrid/toolgrid/internal/domain"
	repoMocks "github.com/toolgrid/toolgrid/internal/repository/mocks"
	"github.com/toolgrid/toolgrid/internal/telemetry"
)

type checkerFixture struct {
	store  *repoMocks.Store
	local  *memory.Cache
	writer *async.Writer
}

func newChecker(t *testing.T) (DuplicateChecker, *checkerFixture) {
	t.Helper()

	fixture := &checkerFixture{
		store:  &repoMocks.Store{},
		local:  memory.New(),
		writer: async.NewWriter(64, zap.NewNop(), nil),
	}
	checker := NewDuplicateChecker(fixture.store, fixture.local, fixture.writer, telemetry.NewMetrics(), zap.NewNop(), time.Hour)
	return checker, fixture
}

func publishedTool(id string) *domain.Tool {
	return &domain.Tool{
		ID:         id,
		Name:       "ChatGPT",
		WebsiteURL: "https://www.chatgpt.com/",
		Status:     domain.StatusPublished,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestDuplicateChecker_Check_InvalidInput(t *testing.T) {
	checker, fixture := newChecker(t)
	defer fixture.writer.Close()
	ctx := context.Background()

	_, err := checker.Check(ctx, "")
	assert.ErrorIs(t, err, domain.ErrEmptyURL)

	_, err = checker.Check(ctx, "   \t ")
	assert.ErrorIs(t, err, domain.ErrEmptyURL)

	_, err = checker.Check(ctx, "http://[::1")
	assert.ErrorIs(t, err, domain.ErrInvalidURL)

	fixture.store.AssertNotCalled(t, "GetCachedDuplicate", mock.Anything, mock.Anything)
}

func TestDuplicateChecker_Check_NilStore(t *testing.T) {
	checker := NewDuplicateChecker(nil, nil, nil, telemetry.NewMetrics(), zap.NewNop(), time.Hour)

	_, err := checker.Check(context.Background(), "example.com")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestDuplicateChecker_Check_CacheTableHit(t *testing.T) {
	checker, fixture := newChecker(t)
	ctx := context.Background()

	toolID := "tool-1"
	fixture.store.On("GetCachedDuplicate", ctx, "chatgpt.com").Return(&domain.DuplicateCacheEntry{
		NormalizedURL: "chatgpt.com",
		Exists:        true,
		ToolID:        &toolID,
		ExpiresAt:     time.Now().UTC().Add(time.Hour),
	}, nil)
	fixture.store.On("GetTool", ctx, "tool-1").Return(publishedTool("tool-1"), nil)

	resp, err := checker.Check(ctx, "https://www.ChatGPT.com/")
	require.NoError(t, err)

	assert.True(t, resp.Exists)
	assert.True(t, resp.Cached)
	assert.Equal(t, "chatgpt.com", resp.NormalizedURL)
	assert.Equal(t, "chatgpt.com", resp.DisplayURL)
	require.NotNil(t, resp.Tool)
	assert.Equal(t, "tool-1", resp.Tool.ID)

	require.NoError(t, fixture.writer.Close())
	// Cache hits must short-circuit the primary table
	fixture.store.AssertNotCalled(t, "GetToolByNormalizedURL", mock.Anything, mock.Anything)
	fixture.store.AssertExpectations(t)
}

func TestDuplicateChecker_Check_CacheTableNegativeHit(t *testing.T) {
	checker, fixture := newChecker(t)
	ctx := context.Background()

	fixture.store.On("GetCachedDuplicate", ctx, "new-site.example").Return(&domain.DuplicateCacheEntry{
		NormalizedURL: "new-site.example",
		Exists:        false,
		ExpiresAt:     time.Now().UTC().Add(time.Hour),
	}, nil)

	resp, err := checker.Check(ctx, "new-site.example")
	require.NoError(t, err)

	assert.False(t, resp.Exists)
	assert.True(t, resp.Cached)
	assert.Nil(t, resp.Tool)

	require.NoError(t, fixture.writer.Close())
	fixture.store.AssertNotCalled(t, "GetTool", mock.Anything, mock.Anything)
	fixture.store.AssertExpectations(t)
}

func TestDuplicateChecker_Check_PrimaryLookupFound(t *testing.T) {
	checker, fixture := newChecker(t)
	ctx := context.Background()

	fixture.store.On("GetCachedDuplicate", ctx, "chatgpt.com").Return(nil, nil)
	fixture.store.On("HasNormalizedURLColumn").Return(true)
	fixture.store.On("GetToolByNormalizedURL", ctx, "chatgpt.com").Return(publishedTool("tool-1"), nil)
	fixture.store.On("UpsertDuplicate", mock.Anything, mock.AnythingOfType("*domain.DuplicateCacheEntry")).Return(nil)
	fixture.store.On("InsertPerformanceLog", mock.Anything, mock.AnythingOfType("*domain.PerformanceLog")).Return(nil)

	resp, err := checker.Check(ctx, "chatgpt.com")
	require.NoError(t, err)

	assert.True(t, resp.Exists)
	assert.False(t, resp.Cached)
	require.NotNil(t, resp.Tool)
	assert.Equal(t, "tool-1", resp.Tool.ID)

	// Drain the fire-and-forget queue before asserting the writes landed
	require.NoError(t, fixture.writer.Close())
	fixture.store.AssertExpectations(t)

	upsert := findCall(t, fixture.store, "UpsertDuplicate")
	entry := upsert.Arguments.Get(1).(*domain.DuplicateCacheEntry)
	assert.Equal(t, "chatgpt.com", entry.NormalizedURL)
	assert.True(t, entry.Exists)
	require.NotNil(t, entry.ToolID)
	assert.Equal(t, "tool-1", *entry.ToolID)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), entry.ExpiresAt, time.Minute)
}

func TestDuplicateChecker_Check_PrimaryLookupMiss(t *testing.T) {
	checker, fixture := newChecker(t)
	ctx := context.Background()

	fixture.store.On("GetCachedDuplicate", ctx, "totally-new-site.example").Return(nil, nil)
	fixture.store.On("HasNormalizedURLColumn").Return(true)
	fixture.store.On("GetToolByNormalizedURL", ctx, "totally-new-site.example").Return(nil, domain.ErrToolNotFound)
	fixture.store.On("UpsertDuplicate", mock.Anything, mock.AnythingOfType("*domain.DuplicateCacheEntry")).Return(nil)
	fixture.store.On("InsertPerformanceLog", mock.Anything, mock.AnythingOfType("*domain.PerformanceLog")).Return(nil)

	resp, err := checker.Check(ctx, "https://totally-new-site.example/")
	require.NoError(t, err)

	assert.False(t, resp.Exists)
	assert.False(t, resp.Cached)
	assert.Nil(t, resp.Tool)

	require.NoError(t, fixture.writer.Close())
	fixture.store.AssertExpectations(t)

	upsert := findCall(t, fixture.store, "UpsertDuplicate")
	entry := upsert.Arguments.Get(1).(*domain.DuplicateCacheEntry)
	assert.False(t, entry.Exists)
	assert.Nil(t, entry.ToolID)
}

func TestDuplicateChecker_Check_HostFallback(t *testing.T) {
	checker, fixture := newChecker(t)
	ctx := context.Background()

	fixture.store.On("GetCachedDuplicate", ctx, "chatgpt.com/chat").Return(nil, nil)
	fixture.store.On("HasNormalizedURLColumn").Return(false)
	fixture.store.On("FindToolByWebsiteHost", ctx, "chatgpt.com").Return(publishedTool("tool-1"), nil)
	fixture.store.On("UpsertDuplicate", mock.Anything, mock.Anything).Return(nil)
	fixture.store.On("InsertPerformanceLog", mock.Anything, mock.Anything).Return(nil)

	resp, err := checker.Check(ctx, "https://www.chatgpt.com/chat")
	require.NoError(t, err)

	assert.True(t, resp.Exists)

	require.NoError(t, fixture.writer.Close())
	fixture.store.AssertNotCalled(t, "GetToolByNormalizedURL", mock.Anything, mock.Anything)
	fixture.store.AssertExpectations(t)
}

func TestDuplicateChecker_Check_LocalCacheShortCircuit(t *testing.T) {
	checker, fixture := newChecker(t)
	ctx := context.Background()

	fixture.store.On("GetCachedDuplicate", ctx, "chatgpt.com").Return(nil, nil).Once()
	fixture.store.On("HasNormalizedURLColumn").Return(true)
	fixture.store.On("GetToolByNormalizedURL", ctx, "chatgpt.com").Return(publishedTool("tool-1"), nil).Once()
	fixture.store.On("UpsertDuplicate", mock.Anything, mock.Anything).Return(nil)
	fixture.store.On("InsertPerformanceLog", mock.Anything, mock.Anything).Return(nil)

	first, err := checker.Check(ctx, "chatgpt.com")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// Second check is served from the process-local cache
	second, err := checker.Check(ctx, "https://www.chatgpt.com")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.True(t, second.Exists)

	require.NoError(t, fixture.writer.Close())
	fixture.store.AssertExpectations(t)
}

func TestDuplicateChecker_Check_CacheErrorIsSoft(t *testing.T) {
	checker, fixture := newChecker(t)
	ctx := context.Background()

	fixture.store.On("GetCachedDuplicate", ctx, "chatgpt.com").Return(nil, assert.AnError)
	fixture.store.On("HasNormalizedURLColumn").Return(true)
	fixture.store.On("GetToolByNormalizedURL", ctx, "chatgpt.com").Return(nil, domain.ErrToolNotFound)
	fixture.store.On("UpsertDuplicate", mock.Anything, mock.Anything).Return(nil)
	fixture.store.On("InsertPerformanceLog", mock.Anything, mock.Anything).Return(nil)

	resp, err := checker.Check(ctx, "chatgpt.com")
	require.NoError(t, err, "cache table errors must not fail the request")
	assert.False(t, resp.Exists)
	assert.False(t, resp.Cached)

	require.NoError(t, fixture.writer.Close())
	fixture.store.AssertExpectations(t)
}

func TestDuplicateChecker_Check_StaleCachedToolTriggersFreshLookup(t *testing.T) {
	checker, fixture := newChecker(t)
	ctx := context.Background()

	toolID := "gone-tool"
	fixture.store.On("GetCachedDuplicate", ctx, "chatgpt.com").Return(&domain.DuplicateCacheEntry{
		NormalizedURL: "chatgpt.com",
		Exists:        true,
		ToolID:        &toolID,
		ExpiresAt:     time.Now().UTC().Add(time.Hour),
	}, nil)
	fixture.store.On("GetTool", ctx, "gone-tool").Return(nil, domain.ErrToolNotFound)
	fixture.store.On("HasNormalizedURLColumn").Return(true)
	fixture.store.On("GetToolByNormalizedURL", ctx, "chatgpt.com").Return(nil, domain.ErrToolNotFound)
	fixture.store.On("UpsertDuplicate", mock.Anything, mock.Anything).Return(nil)
	fixture.store.On("InsertPerformanceLog", mock.Anything, mock.Anything).Return(nil)

	resp, err := checker.Check(ctx, "chatgpt.com")
	require.NoError(t, err)
	assert.False(t, resp.Exists)
	assert.False(t, resp.Cached)

	require.NoError(t, fixture.writer.Close())
	fixture.store.AssertExpectations(t)
}

func TestDuplicateChecker_Check_PrimaryErrorPropagates(t *testing.T) {
	checker, fixture := newChecker(t)
	ctx := context.Background()

	fixture.store.On("GetCachedDuplicate", ctx, "chatgpt.com").Return(nil, nil)
	fixture.store.On("HasNormalizedURLColumn").Return(true)
	fixture.store.On("GetToolByNormalizedURL", ctx, "chatgpt.com").Return(nil, assert.AnError)

	resp, err := checker.Check(ctx, "chatgpt.com")
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, resp)

	require.NoError(t, fixture.writer.Close())
	fixture.store.AssertNotCalled(t, "UpsertDuplicate", mock.Anything, mock.Anything)
}

func findCall(t *testing.T, store *repoMocks.Store, method string) mock.Call {
	t.Helper()
	for _, call := range store.Calls {
		if call.Method == method {
			return call
		}
	}
	t.Fatalf("no recorded call to %s", method)
	return mock.Call{}
}
