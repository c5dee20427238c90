package domain

import (
	"errors"
	"time"
)

// Tool statuses. Submissions start as pending and move to published or
// rejected through admin review.
const (
	StatusPublished = "published"
	StatusPending   = "pending"
	StatusRejected  = "rejected"
)

// Sentinel errors shared across the service and transport layers.
var (
	ErrEmptyURL         = errors.New("url is required")
	ErrInvalidURL       = errors.New("invalid URL format")
	ErrToolNotFound     = errors.New("tool not found")
	ErrDuplicateTool    = errors.New("a tool with this website already exists")
	ErrStoreUnavailable = errors.New("storage backend is not configured")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrInvalidStatus    = errors.New("invalid status transition")
)

// Tool represents a catalog entry with its public metadata
type Tool struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Tagline       string    `json:"tagline"`
	WebsiteURL    string    `json:"website_url"`
	NormalizedURL string    `json:"normalized_url,omitempty"`
	Status        string    `json:"status"`
	LogoURL       string    `json:"logo_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Categories    []string  `json:"categories"`
	ViewCount     int       `json:"view_count"`
	UpvoteCount   int       `json:"upvote_count"`
}

// DuplicateCacheEntry is a row in the website duplicate cache table.
// Absence or expiry of an entry triggers a fresh lookup, never a failure.
type DuplicateCacheEntry struct {
	NormalizedURL string    `json:"normalized_url"`
	Exists        bool      `json:"exists"`
	ToolID        *string   `json:"tool_id,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// DuplicateResult is the outcome of a duplicate lookup, independent of
// whether it was served from cache
type DuplicateResult struct {
	Exists bool  `json:"exists"`
	Tool   *Tool `json:"tool,omitempty"`
}

// PerformanceLog records how long an API operation took
type PerformanceLog struct {
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Review is a user review attached to a tool
type Review struct {
	ID        string    `json:"id"`
	ToolID    string    `json:"tool_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Favorite links a user to a tool they bookmarked
type Favorite struct {
	UserID    string    `json:"user_id"`
	ToolID    string    `json:"tool_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckDuplicateRequest represents the request to check a website URL
type CheckDuplicateRequest struct {
	URL string `json:"url"`
}

// CheckDuplicateResponse represents the duplicate check result
type CheckDuplicateResponse struct {
	Exists           bool   `json:"exists"`
	Tool             *Tool  `json:"tool,omitempty"`
	Cached           bool   `json:"cached"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
	NormalizedURL    string `json:"normalized_url"`
	DisplayURL       string `json:"display_url"`
}

// SubmitToolRequest represents the request to submit a new tool
type SubmitToolRequest struct {
	Name       string   `json:"name"`
	Tagline    string   `json:"tagline"`
	WebsiteURL string   `json:"website_url"`
	LogoURL    string   `json:"logo_url,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// AddReviewRequest represents the request to add a review to a tool
type AddReviewRequest struct {
	UserID string `json:"user_id"`
	Rating int    `json:"rating"`
	Body   string `json:"body"`
}

// ToolListResponse is a page of tools plus pagination metadata
type ToolListResponse struct {
	Tools   []*Tool `json:"tools"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
}

// ErrorResponse is the error envelope returned by every failing endpoint
type ErrorResponse struct {
	Error            string `json:"error"`
	Code             string `json:"code"`
	ProcessingTimeMS *int64 `json:"processing_time_ms,omitempty"`
}
