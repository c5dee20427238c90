package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/toolgrid/toolgrid/internal/domain"
	"github.com/toolgrid/toolgrid/internal/service"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidURLFormat  = "INVALID_URL_FORMAT"
	CodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	CodeNotFound          = "NOT_FOUND"
	CodeDuplicateTool     = "DUPLICATE_TOOL"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeRateLimited       = "RATE_LIMITED"
	CodeServerConfigError = "SERVER_CONFIG_ERROR"
	CodeInternalError     = "INTERNAL_ERROR"
)

// Listing responses are CDN-cacheable for five minutes
const listCacheControl = "public, s-maxage=300, stale-while-revalidate=600"

// Handler holds the HTTP handlers for the catalog API
type Handler struct {
	duplicates service.DuplicateChecker
	catalog    service.Catalog
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(duplicates service.DuplicateChecker, catalog service.Catalog, logger *zap.Logger) *Handler {
	return &Handler{
		duplicates: duplicates,
		catalog:    catalog,
		logger:     logger.Named("http"),
	}
}

// CheckDuplicate handles POST /api/check-website-duplicate
func (h *Handler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req domain.CheckDuplicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeTimedError(w, http.StatusBadRequest, "Request body must be JSON with a url field", CodeInvalidInput, start)
		return
	}
	if req.URL == "" {
		h.writeTimedError(w, http.StatusBadRequest, "url is required", CodeInvalidInput, start)
		return
	}

	resp, err := h.duplicates.Check(r.Context(), req.URL)
	if err != nil {
		status, code := duplicateCheckError(err)
		h.logger.Warn("duplicate check failed", zap.String("url", req.URL), zap.Error(err))
		h.writeTimedError(w, status, err.Error(), code, start)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// duplicateCheckError maps a duplicate-check error to a status and code
func duplicateCheckError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyURL):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, domain.ErrInvalidURL):
		return http.StatusBadRequest, CodeInvalidURLFormat
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusInternalServerError, CodeServerConfigError
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}

// ListTools handles GET /api/tools
func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := queryInt(query.Get("page"), 1)
	perPage := queryInt(query.Get("per_page"), 0)

	// The public listing only ever shows published tools
	resp, err := h.catalog.ListTools(r.Context(), domain.StatusPublished, query.Get("category"), page, perPage)
	if err != nil {
		h.logger.Error("failed to list tools", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list tools", CodeInternalError)
		return
	}

	w.Header().Set("Cache-Control", listCacheControl)
	h.writeJSON(w, http.StatusOK, resp)
}

// GetTool handles GET /api/tools/{id}
func (h *Handler) GetTool(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	tool, err := h.catalog.GetTool(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrToolNotFound) {
			h.writeError(w, http.StatusNotFound, "tool not found", CodeNotFound)
			return
		}
		h.logger.Error("failed to get tool", zap.String("id", id), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to get tool", CodeInternalError)
		return
	}

	h.writeJSON(w, http.StatusOK, tool)
}

// SubmitTool handles POST /api/tools
func (h *Handler) SubmitTool(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", CodeInvalidInput)
		return
	}

	tool, err := h.catalog.SubmitTool(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateTool):
			h.writeError(w, http.StatusConflict, "a tool with this website already exists", CodeDuplicateTool)
		case errors.Is(err, domain.ErrEmptyURL), errors.Is(err, domain.ErrInvalidURL):
			h.writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidURLFormat)
		default:
			h.logger.Error("failed to submit tool", zap.Error(err))
			h.writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, tool)
}

// ListCategories handles GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list categories", CodeInternalError)
		return
	}

	w.Header().Set("Cache-Control", listCacheControl)
	h.writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

// UpvoteTool handles POST /api/tools/{id}/upvote
func (h *Handler) UpvoteTool(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.catalog.UpvoteTool(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrToolNotFound) {
			h.writeError(w, http.StatusNotFound, "tool not found", CodeNotFound)
			return
		}
		h.logger.Error("failed to upvote tool", zap.String("id", id), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to upvote tool", CodeInternalError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListReviews handles GET /api/tools/{id}/reviews
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	reviews, err := h.catalog.ListReviews(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list reviews", zap.String("id", id), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list reviews", CodeInternalError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string][]*domain.Review{"reviews": reviews})
}

// AddReview handles POST /api/tools/{id}/reviews
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req domain.AddReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", CodeInvalidInput)
		return
	}

	review, err := h.catalog.AddReview(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrToolNotFound):
			h.writeError(w, http.StatusNotFound, "tool not found", CodeNotFound)
		case errors.Is(err, domain.ErrInvalidRating):
			h.writeError(w, http.StatusBadRequest, "rating must be between 1 and 5", CodeInvalidInput)
		default:
			h.writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, review)
}

// ListFavorites handles GET /api/users/{id}/favorites
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	tools, err := h.catalog.ListFavorites(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list favorites", zap.String("user_id", userID), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list favorites", CodeInternalError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string][]*domain.Tool{"favorites": tools})
}

// AddFavorite handles PUT /api/users/{id}/favorites/{toolID}
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.catalog.AddFavorite(r.Context(), vars["id"], vars["toolID"]); err != nil {
		if errors.Is(err, domain.ErrToolNotFound) {
			h.writeError(w, http.StatusNotFound, "tool not found", CodeNotFound)
			return
		}
		h.logger.Error("failed to add favorite", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to add favorite", CodeInternalError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveFavorite handles DELETE /api/users/{id}/favorites/{toolID}
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.catalog.RemoveFavorite(r.Context(), vars["id"], vars["toolID"]); err != nil {
		h.logger.Error("failed to remove favorite", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to remove favorite", CodeInternalError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApproveTool handles POST /api/admin/tools/{id}/approve
func (h *Handler) ApproveTool(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.catalog.ApproveTool)
}

// RejectTool handles POST /api/admin/tools/{id}/reject
func (h *Handler) RejectTool(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.catalog.RejectTool)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) error) {
	id := mux.Vars(r)["id"]

	if err := fn(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrToolNotFound):
			h.writeError(w, http.StatusNotFound, "tool not found", CodeNotFound)
		case errors.Is(err, domain.ErrInvalidStatus):
			h.writeError(w, http.StatusConflict, err.Error(), CodeInvalidStatus)
		default:
			h.logger.Error("failed to transition tool", zap.String("id", id), zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "failed to update tool", CodeInternalError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// MethodNotAllowed is the router-level 405 handler
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	h.writeError(w, http.StatusMethodNotAllowed, "method not allowed", CodeMethodNotAllowed)
}

// NotFound is the router-level 404 handler
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	h.writeError(w, http.StatusNotFound, "not found", CodeNotFound)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, domain.ErrorResponse{Error: message, Code: code})
}

// writeTimedError includes the elapsed processing time, which the
// duplicate-check contract reports on errors too
func (h *Handler) writeTimedError(w http.ResponseWriter, status int, message, code string, start time.Time) {
	elapsed := time.Since(start).Milliseconds()
	h.writeJSON(w, status, domain.ErrorResponse{Error: message, Code: code, ProcessingTimeMS: &elapsed})
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
