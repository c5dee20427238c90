package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/toolgrid/toolgrid/internal/domain"
	"github.com/toolgrid/toolgrid/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const lookupStatuses = "('published', 'pending')"

// Repository implements repository.Store using SQLite. Used for local
// development and tests; production deployments use the postgres backend.
type Repository struct {
	db               *sql.DB
	logger           *zap.Logger
	hasNormalizedURL bool
}

// New creates a new SQLite repository and runs pending migrations
func New(databasePath string, logger *zap.Logger) (*Repository, error) {
	db, err := sql.Open("sqlite3", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	repo := &Repository{
		db:     db,
		logger: logger.Named("sqlite"),
	}

	if err := repository.RunMigrations(context.Background(), db, migrationsFS,
		"INSERT INTO schema_migrations (version) VALUES (?)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := repo.probeNormalizedURLColumn(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to probe schema: %w", err)
	}

	return repo, nil
}

// probeNormalizedURLColumn checks whether the tools table carries the
// normalized_url column
func (r *Repository) probeNormalizedURLColumn(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, "PRAGMA table_info(tools)")
	if err != nil {
		return err
	}
	defer rows.Close()

	r.hasNormalizedURL = false
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return err
		}
		if name == "normalized_url" {
			r.hasNormalizedURL = true
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if !r.hasNormalizedURL {
		r.logger.Warn("tools table has no normalized_url column, duplicate lookups will use the host fallback")
	}
	return nil
}

// HasNormalizedURLColumn reports whether the tools table carries the
// normalized_url column
func (r *Repository) HasNormalizedURLColumn() bool {
	return r.hasNormalizedURL
}

func (r *Repository) toolColumns(alias string) string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	cols := fmt.Sprintf("%[1]sid, %[1]sname, %[1]stagline, %[1]swebsite_url, %[1]sstatus, %[1]slogo_url, %[1]sview_count, %[1]supvote_count, %[1]screated_at", prefix)
	if r.hasNormalizedURL {
		cols += fmt.Sprintf(", %snormalized_url", prefix)
	}
	return cols
}

func (r *Repository) scanTool(scanner interface{ Scan(...any) error }) (*domain.Tool, error) {
	var tool domain.Tool
	dest := []any{
		&tool.ID, &tool.Name, &tool.Tagline, &tool.WebsiteURL, &tool.Status,
		&tool.LogoURL, &tool.ViewCount, &tool.UpvoteCount, &tool.CreatedAt,
	}
	var normalized sql.NullString
	if r.hasNormalizedURL {
		dest = append(dest, &normalized)
	}
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	tool.NormalizedURL = normalized.String
	return &tool, nil
}

// CreateTool persists a new tool together with its categories
func (r *Repository) CreateTool(ctx context.Context, tool *domain.Tool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if r.hasNormalizedURL {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tools (id, name, tagline, website_url, normalized_url, status, logo_url, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			tool.ID, tool.Name, tool.Tagline, tool.WebsiteURL, tool.NormalizedURL,
			tool.Status, tool.LogoURL, tool.CreatedAt)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tools (id, name, tagline, website_url, status, logo_url, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tool.ID, tool.Name, tool.Tagline, tool.WebsiteURL,
			tool.Status, tool.LogoURL, tool.CreatedAt)
	}
	if err != nil {
		return fmt.Errorf("failed to insert tool: %w", err)
	}

	for _, category := range tool.Categories {
		var categoryID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO categories (name) VALUES (?)
			ON CONFLICT (name) DO UPDATE SET name = excluded.name
			RETURNING id`, category).Scan(&categoryID)
		if err != nil {
			return fmt.Errorf("failed to upsert category %q: %w", category, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tool_categories (tool_id, category_id) VALUES (?, ?)
			ON CONFLICT DO NOTHING`, tool.ID, categoryID); err != nil {
			return fmt.Errorf("failed to link category %q: %w", category, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// GetTool retrieves a tool by id
func (r *Repository) GetTool(ctx context.Context, id string) (*domain.Tool, error) {
	query := fmt.Sprintf("SELECT %s FROM tools WHERE id = ?", r.toolColumns(""))
	tool, err := r.scanTool(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrToolNotFound
		}
		return nil, fmt.Errorf("failed to get tool: %w", err)
	}

	if err := r.loadCategories(ctx, tool); err != nil {
		return nil, err
	}
	return tool, nil
}

// GetToolByNormalizedURL finds a published or pending tool by its
// deduplication key
func (r *Repository) GetToolByNormalizedURL(ctx context.Context, key string) (*domain.Tool, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM tools WHERE normalized_url = ? AND status IN %s LIMIT 1",
		r.toolColumns(""), lookupStatuses)
	tool, err := r.scanTool(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrToolNotFound
		}
		return nil, fmt.Errorf("failed to query tool by normalized URL: %w", err)
	}

	if err := r.loadCategories(ctx, tool); err != nil {
		return nil, err
	}
	return tool, nil
}

// FindToolByWebsiteHost finds a published or pending tool whose raw website
// URL contains the host. SQLite LIKE is already case-insensitive for ASCII.
func (r *Repository) FindToolByWebsiteHost(ctx context.Context, host string) (*domain.Tool, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM tools WHERE website_url LIKE '%%' || ? || '%%' AND status IN %s LIMIT 1",
		r.toolColumns(""), lookupStatuses)

	for _, candidate := range []string{host, "www." + host} {
		tool, err := r.scanTool(r.db.QueryRowContext(ctx, query, candidate))
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query tool by host: %w", err)
		}
		if err := r.loadCategories(ctx, tool); err != nil {
			return nil, err
		}
		return tool, nil
	}
	return nil, domain.ErrToolNotFound
}

// ListTools returns a page of tools plus the total match count
func (r *Repository) ListTools(ctx context.Context, params repository.ListToolsParams) ([]*domain.Tool, int, error) {
	where := "WHERE 1=1"
	var args []any

	if params.Status != "" {
		where += " AND t.status = ?"
		args = append(args, params.Status)
	}
	if params.Category != "" {
		where += ` AND EXISTS (
			SELECT 1 FROM tool_categories tc
			JOIN categories c ON c.id = tc.category_id
			WHERE tc.tool_id = t.id AND c.name = ?)`
		args = append(args, params.Category)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM tools t " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tools: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM tools t %s ORDER BY t.created_at DESC LIMIT ? OFFSET ?",
		r.toolColumns("t"), where)
	args = append(args, params.PerPage, (params.Page-1)*params.PerPage)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tools: %w", err)
	}
	defer rows.Close()

	var tools []*domain.Tool
	for rows.Next() {
		tool, err := r.scanTool(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan tool: %w", err)
		}
		tools = append(tools, tool)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, tool := range tools {
		if err := r.loadCategories(ctx, tool); err != nil {
			return nil, 0, err
		}
	}

	return tools, total, nil
}

// UpdateToolStatus sets a tool's status
func (r *Repository) UpdateToolStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE tools SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update tool status: %w", err)
	}
	return requireRowAffected(result)
}

// IncrementViews bumps a tool's view counter
func (r *Repository) IncrementViews(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE tools SET view_count = view_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return requireRowAffected(result)
}

// IncrementUpvotes bumps a tool's upvote counter
func (r *Repository) IncrementUpvotes(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE tools SET upvote_count = upvote_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to increment upvotes: %w", err)
	}
	return requireRowAffected(result)
}

// DeleteTool removes a tool; categories, reviews and favorites cascade
func (r *Repository) DeleteTool(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tools WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete tool: %w", err)
	}
	return requireRowAffected(result)
}

// ListCategories returns all category names in use
func (r *Repository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT c.name FROM categories c
		JOIN tool_categories tc ON tc.category_id = c.id
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetCachedDuplicate returns the non-expired cache row for a key
func (r *Repository) GetCachedDuplicate(ctx context.Context, key string) (*domain.DuplicateCacheEntry, error) {
	var entry domain.DuplicateCacheEntry
	var toolID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT normalized_url, tool_exists, tool_id, expires_at
		FROM website_duplicate_cache
		WHERE normalized_url = ? AND expires_at > ?`, key, time.Now().UTC()).
		Scan(&entry.NormalizedURL, &entry.Exists, &toolID, &entry.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate cache: %w", err)
	}
	if toolID.Valid {
		entry.ToolID = &toolID.String
	}
	return &entry, nil
}

// UpsertDuplicate inserts or refreshes a duplicate cache row
func (r *Repository) UpsertDuplicate(ctx context.Context, entry *domain.DuplicateCacheEntry) error {
	var toolID sql.NullString
	if entry.ToolID != nil {
		toolID = sql.NullString{String: *entry.ToolID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO website_duplicate_cache (normalized_url, tool_exists, tool_id, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (normalized_url) DO UPDATE SET
			tool_exists = excluded.tool_exists,
			tool_id = excluded.tool_id,
			expires_at = excluded.expires_at`,
		entry.NormalizedURL, entry.Exists, toolID, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to upsert duplicate cache entry: %w", err)
	}
	return nil
}

// PurgeExpiredDuplicates deletes expired cache rows
func (r *Repository) PurgeExpiredDuplicates(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM website_duplicate_cache WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge duplicate cache: %w", err)
	}
	return result.RowsAffected()
}

// InsertPerformanceLog records an API timing sample
func (r *Repository) InsertPerformanceLog(ctx context.Context, log *domain.PerformanceLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_performance_logs (endpoint, status_code, duration_ms, created_at)
		VALUES (?, ?, ?, ?)`,
		log.Endpoint, log.StatusCode, log.DurationMS, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert performance log: %w", err)
	}
	return nil
}

// PurgePerformanceLogs deletes samples older than the cutoff
func (r *Repository) PurgePerformanceLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM api_performance_logs WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge performance logs: %w", err)
	}
	return result.RowsAffected()
}

// AddReview attaches a review to a tool
func (r *Repository) AddReview(ctx context.Context, review *domain.Review) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, tool_id, user_id, rating, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		review.ID, review.ToolID, review.UserID, review.Rating, review.Body, review.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// ListReviews returns a tool's reviews, newest first
func (r *Repository) ListReviews(ctx context.Context, toolID string) ([]*domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tool_id, user_id, rating, body, created_at
		FROM reviews WHERE tool_id = ? ORDER BY created_at DESC`, toolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(&review.ID, &review.ToolID, &review.UserID,
			&review.Rating, &review.Body, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, &review)
	}
	return reviews, rows.Err()
}

// DeleteReview removes a review; deleting a missing review is a no-op
func (r *Repository) DeleteReview(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

// AddFavorite bookmarks a tool for a user
func (r *Repository) AddFavorite(ctx context.Context, userID, toolID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, tool_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`, userID, toolID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite removes a user's bookmark
func (r *Repository) RemoveFavorite(ctx context.Context, userID, toolID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM favorites WHERE user_id = ? AND tool_id = ?", userID, toolID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// ListFavorites returns the tools a user bookmarked, newest first
func (r *Repository) ListFavorites(ctx context.Context, userID string) ([]*domain.Tool, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tools t
		JOIN favorites f ON f.tool_id = t.id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC`, r.toolColumns("t"))

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var tools []*domain.Tool
	for rows.Next() {
		tool, err := r.scanTool(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, tool := range tools {
		if err := r.loadCategories(ctx, tool); err != nil {
			return nil, err
		}
	}
	return tools, nil
}

func (r *Repository) loadCategories(ctx context.Context, tool *domain.Tool) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name FROM categories c
		JOIN tool_categories tc ON tc.category_id = c.id
		WHERE tc.tool_id = ?
		ORDER BY c.name`, tool.ID)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		tool.Categories = append(tool.Categories, name)
	}
	return rows.Err()
}

// Close closes the store connection
func (r *Repository) Close() error {
	return r.db.Close()
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrToolNotFound
	}
	return nil
}

// Ensure Repository implements the interface
var _ repository.Store = (*Repository)(nil)
