package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/toolgrid/toolgrid/internal/domain"
)

// statusMessages translates API error codes into short user-facing messages
var statusMessages = map[string]string{
	"INVALID_INPUT":       "The request was missing required fields",
	"INVALID_URL_FORMAT":  "That does not look like a valid website URL",
	"NOT_FOUND":           "No matching tool was found",
	"DUPLICATE_TOOL":      "A tool with this website is already listed",
	"INVALID_STATUS":      "The tool is not in a state that allows this change",
	"RATE_LIMITED":        "Too many requests, slow down",
	"SERVER_CONFIG_ERROR": "The server is misconfigured, try again later",
	"INTERNAL_ERROR":      "Something went wrong on the server",
}

// APIError is an error response returned by the server
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if message, ok := statusMessages[e.Code]; ok {
		return message
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// Client represents an HTTP client for the catalog API
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// NewClient creates a new catalog API client
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CheckDuplicate checks whether a website URL already has a listed tool
func (c *Client) CheckDuplicate(ctx context.Context, rawURL string) (*domain.CheckDuplicateResponse, error) {
	var result domain.CheckDuplicateResponse
	if err := c.post(ctx, "/api/check-website-duplicate", domain.CheckDuplicateRequest{URL: rawURL}, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTool retrieves a tool by id
func (c *Client) GetTool(ctx context.Context, id string) (*domain.Tool, error) {
	var tool domain.Tool
	if err := c.get(ctx, "/api/tools/"+url.PathEscape(id), &tool); err != nil {
		return nil, err
	}
	return &tool, nil
}

// ListTools retrieves a page of published tools
func (c *Client) ListTools(ctx context.Context, page, perPage int, category string) (*domain.ToolListResponse, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}
	if category != "" {
		query.Set("category", category)
	}

	path := "/api/tools"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result domain.ToolListResponse
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitTool submits a new tool for review
func (c *Client) SubmitTool(ctx context.Context, req *domain.SubmitToolRequest) (*domain.Tool, error) {
	var tool domain.Tool
	if err := c.post(ctx, "/api/tools", req, http.StatusCreated, &tool); err != nil {
		return nil, err
	}
	return &tool, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, http.StatusOK, out)
}

func (c *Client) post(ctx context.Context, path string, body any, wantStatus int, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, wantStatus, out)
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body domain.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Code = body.Code
			apiErr.Message = body.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
