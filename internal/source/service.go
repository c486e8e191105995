package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mementolabs/deckgen/internal/models"
	"github.com/mementolabs/deckgen/internal/userctx"
)

var ErrNotFound = errors.New("source not found")

const sourceColumns = `id, user_id, content_type, coalesce(url, ''), coalesce(file_path, ''),
	coalesce(file_size, 0), title, status, coalesce(metadata, '{}'), created_at, updated_at`

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

type CreateRequest struct {
	Title       string
	ContentType string
	URL         string
	FilePath    string
	FileSize    int64
	Metadata    map[string]any
}

// Create inserts a new pending source owned by the calling user.
// content_type is fixed at creation and never updated afterwards.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Source, error) {
	if !models.ValidContentType(req.ContentType) {
		return nil, fmt.Errorf("invalid content type %q", req.ContentType)
	}

	userID := userctx.UserID(ctx)
	metadata, _ := json.Marshal(req.Metadata)

	row := s.db.QueryRow(ctx,
		`INSERT INTO sources (id, user_id, content_type, url, file_path, file_size, title, status, metadata)
		 VALUES ($1, $2, $3, nullif($4, ''), nullif($5, ''), nullif($6, 0), $7, $8, $9)
		 RETURNING `+sourceColumns,
		uuid.New(), userID, req.ContentType, req.URL, req.FilePath, req.FileSize,
		req.Title, models.StatusPending, metadata,
	)
	return scanSource(row)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Source, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE id = $1 AND user_id = $2`,
		id, userctx.UserID(ctx),
	)
	src, err := scanSource(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return src, err
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Source, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+sourceColumns+` FROM sources
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userctx.UserID(ctx), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []models.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, *src)
	}
	return sources, rows.Err()
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE sources SET status = $1, updated_at = now() WHERE id = $2 AND user_id = $3`,
		status, id, userctx.UserID(ctx),
	)
	if err != nil {
		return fmt.Errorf("update source status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCategory merges the classification result into the source's
// metadata without clobbering other keys.
func (s *Service) SetCategory(ctx context.Context, id uuid.UUID, category string) error {
	patch, _ := json.Marshal(map[string]string{
		"category":       category,
		"categorized_at": time.Now().UTC().Format(time.RFC3339),
	})

	_, err := s.db.Exec(ctx,
		`UPDATE sources SET metadata = coalesce(metadata, '{}'::jsonb) || $1, updated_at = now()
		 WHERE id = $2 AND user_id = $3`,
		patch, id, userctx.UserID(ctx),
	)
	if err != nil {
		return fmt.Errorf("set source category: %w", err)
	}
	return nil
}

func scanSource(row pgx.Row) (*models.Source, error) {
	var src models.Source
	err := row.Scan(&src.ID, &src.UserID, &src.ContentType, &src.URL, &src.FilePath,
		&src.FileSize, &src.Title, &src.Status, &src.Metadata, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &src, nil
}
