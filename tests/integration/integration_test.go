package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toolgrid/toolgrid/internal/async"
	"github.com/toolgrid/toolgrid/internal/cache/memory"
	"github.com/toolgrid/toolgrid/internal/config"
	"github.com/toolgrid/toolgrid/internal/domain"
	"github.com/toolgrid/toolgrid/internal/repository/sqlite"
	"github.com/toolgrid/toolgrid/internal/service"
	"github.com/toolgrid/toolgrid/internal/telemetry"
	httpTransport "github.com/toolgrid/toolgrid/internal/transport/http"
)

func TestIntegration_FullWorkflow(t *testing.T) {
	dbPath := fmt.Sprintf("/tmp/test_toolgrid_%d.db", time.Now().UnixNano())
	defer os.Remove(dbPath)

	repo, err := sqlite.New(dbPath, zap.NewNop())
	require.NoError(t, err)
	defer repo.Close()

	localCache := memory.New()
	defer localCache.Close()

	writer := async.NewWriter(64, zap.NewNop(), nil)
	metrics := telemetry.NewMetrics()

	duplicates := service.NewDuplicateChecker(repo, localCache, writer, metrics, zap.NewNop(), time.Hour)
	catalog := service.NewCatalog(repo, localCache, writer, zap.NewNop(), time.Hour)

	ctx := context.Background()

	// A brand-new site is not a duplicate
	first, err := duplicates.Check(ctx, "https://www.NewTool.example/")
	require.NoError(t, err)
	assert.False(t, first.Exists)
	assert.Equal(t, "newtool.example", first.NormalizedURL)

	// Submit the tool
	tool, err := catalog.SubmitTool(ctx, &domain.SubmitToolRequest{
		Name:       "NewTool",
		Tagline:    "does things",
		WebsiteURL: "https://newtool.example",
		Categories: []string{"AI"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, tool.Status)

	// Re-checking any equivalent form now reports the duplicate
	recheck, err := duplicates.Check(ctx, "NEWTOOL.example/")
	require.NoError(t, err)
	assert.True(t, recheck.Exists)
	require.NotNil(t, recheck.Tool)
	assert.Equal(t, tool.ID, recheck.Tool.ID)

	// Resubmitting the same website is rejected
	_, err = catalog.SubmitTool(ctx, &domain.SubmitToolRequest{
		Name:       "NewTool Again",
		WebsiteURL: "http://www.newtool.example/",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateTool)

	// Approve and verify the published listing
	require.NoError(t, catalog.ApproveTool(ctx, tool.ID))

	listing, err := catalog.ListTools(ctx, domain.StatusPublished, "", 1, 20)
	require.NoError(t, err)
	require.Len(t, listing.Tools, 1)
	assert.Equal(t, tool.ID, listing.Tools[0].ID)

	// Reviews and favorites round trip
	review, err := catalog.AddReview(ctx, tool.ID, &domain.AddReviewRequest{
		UserID: "user-1",
		Rating: 5,
		Body:   "works great",
	})
	require.NoError(t, err)

	reviews, err := catalog.ListReviews(ctx, tool.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, review.ID, reviews[0].ID)

	require.NoError(t, catalog.AddFavorite(ctx, "user-1", tool.ID))
	favorites, err := catalog.ListFavorites(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, favorites, 1)

	// Drain fire-and-forget writes, then confirm the cache table row landed
	require.NoError(t, writer.Close())

	entry, err := repo.GetCachedDuplicate(ctx, "newtool.example")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Exists)
}

func TestIntegration_HTTPRoundTrip(t *testing.T) {
	dbPath := fmt.Sprintf("/tmp/test_toolgrid_http_%d.db", time.Now().UnixNano())
	defer os.Remove(dbPath)

	repo, err := sqlite.New(dbPath, zap.NewNop())
	require.NoError(t, err)
	defer repo.Close()

	localCache := memory.New()
	defer localCache.Close()

	writer := async.NewWriter(64, zap.NewNop(), nil)
	defer writer.Close()
	metrics := telemetry.NewMetrics()

	duplicates := service.NewDuplicateChecker(repo, localCache, writer, metrics, zap.NewNop(), time.Hour)
	catalog := service.NewCatalog(repo, localCache, writer, zap.NewNop(), time.Hour)

	cfg := &config.Config{
		Server:    config.ServerConfig{Port: "8080", ServerURL: "http://localhost:8080"},
		RateLimit: config.RateLimitConfig{RPS: 1000, Burst: 1000},
	}
	server := httpTransport.NewServer(cfg, duplicates, catalog, metrics, zap.NewNop())
	testServer := httptest.NewServer(server.Router())
	defer testServer.Close()

	// Submit over HTTP
	body, _ := json.Marshal(domain.SubmitToolRequest{
		Name:       "WireTool",
		WebsiteURL: "https://wiretool.example",
	})
	resp, err := http.Post(testServer.URL+"/api/tools", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created domain.Tool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, domain.StatusPending, created.Status)

	// Duplicate check over HTTP sees the submission
	checkBody, _ := json.Marshal(domain.CheckDuplicateRequest{URL: "wiretool.example"})
	checkResp, err := http.Post(testServer.URL+"/api/check-website-duplicate", "application/json", bytes.NewReader(checkBody))
	require.NoError(t, err)
	defer checkResp.Body.Close()
	require.Equal(t, http.StatusOK, checkResp.StatusCode)

	var check domain.CheckDuplicateResponse
	require.NoError(t, json.NewDecoder(checkResp.Body).Decode(&check))
	assert.True(t, check.Exists)
	require.NotNil(t, check.Tool)
	assert.Equal(t, created.ID, check.Tool.ID)

	// Approve over HTTP, then the public listing includes it
	approveResp, err := http.Post(testServer.URL+"/api/admin/tools/"+created.ID+"/approve", "application/json", nil)
	require.NoError(t, err)
	approveResp.Body.Close()
	require.Equal(t, http.StatusNoContent, approveResp.StatusCode)

	listResp, err := http.Get(testServer.URL + "/api/tools")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	assert.Contains(t, listResp.Header.Get("Cache-Control"), "s-maxage=300")

	var listing domain.ToolListResponse
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listing))
	require.Len(t, listing.Tools, 1)
	assert.Equal(t, created.ID, listing.Tools[0].ID)
}
