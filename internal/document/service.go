package document

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
	"github.com/mementolabs/deckgen/pkg/chunker"
)

var ErrNotFound = errors.New("document not found")

const documentColumns = `id, source_id, user_id, title, coalesce(extracted_text, ''),
	coalesce(content, ''), coalesce(token_count, 0), status, coalesce(metadata, '{}'),
	created_at, updated_at`

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

type CreateRequest struct {
	SourceID      uuid.UUID
	Title         string
	ExtractedText string
	TokenCount    int
}

// Create inserts the document for a source in processing state. The
// source/document relationship is 1:1.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Document, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO documents (id, source_id, user_id, title, extracted_text, token_count, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+documentColumns,
		uuid.New(), req.SourceID, userctx.UserID(ctx), req.Title,
		req.ExtractedText, req.TokenCount, models.StatusProcessing,
	)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND user_id = $2`,
		id, userctx.UserID(ctx),
	)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

func (s *Service) GetBySourceID(ctx context.Context, sourceID uuid.UUID) (*models.Document, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE source_id = $1 AND user_id = $2`,
		sourceID, userctx.UserID(ctx),
	)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE documents SET status = $1, updated_at = now() WHERE id = $2 AND user_id = $3`,
		status, id, userctx.UserID(ctx),
	)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCategory merges the classification result into document metadata.
func (s *Service) SetCategory(ctx context.Context, id uuid.UUID, category string) error {
	patch, _ := json.Marshal(map[string]string{
		"category":    category,
		"analyzed_at": time.Now().UTC().Format(time.RFC3339),
	})

	_, err := s.db.Exec(ctx,
		`UPDATE documents SET metadata = coalesce(metadata, '{}'::jsonb) || $1, updated_at = now()
		 WHERE id = $2 AND user_id = $3`,
		patch, id, userctx.UserID(ctx),
	)
	if err != nil {
		return fmt.Errorf("set document category: %w", err)
	}
	return nil
}

// InsertChunks persists a chunker run for a document in one
// transaction, preserving the gapless 0-based index ordering.
func (s *Service) InsertChunks(ctx context.Context, documentID uuid.UUID, chunks []chunker.Chunk) ([]models.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	userID := userctx.UserID(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := make([]models.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		var m models.Chunk
		err := tx.QueryRow(ctx,
			`INSERT INTO chunks (id, document_id, user_id, chunk_index, content, start_char, end_char, token_count)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, document_id, user_id, chunk_index, content, start_char, end_char, token_count, created_at`,
			uuid.New(), documentID, userID, ch.Index, ch.Content, ch.StartChar, ch.EndChar, ch.TokenCount,
		).Scan(&m.ID, &m.DocumentID, &m.UserID, &m.ChunkIndex, &m.Content,
			&m.StartChar, &m.EndChar, &m.TokenCount, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", ch.Index, err)
		}
		inserted = append(inserted, m)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit chunks: %w", err)
	}
	return inserted, nil
}

// ChunksForDocuments returns chunks for the given documents ordered by
// chunk_index, capped at limit to bound downstream LLM cost.
func (s *Service) ChunksForDocuments(ctx context.Context, documentIDs []uuid.UUID, limit int) ([]models.Chunk, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, document_id, user_id, chunk_index, content, start_char, end_char, token_count, created_at
		 FROM chunks
		 WHERE document_id = ANY($1) AND user_id = $2
		 ORDER BY document_id, chunk_index
		 LIMIT $3`,
		documentIDs, userctx.UserID(ctx), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var m models.Chunk
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.UserID, &m.ChunkIndex, &m.Content,
			&m.StartChar, &m.EndChar, &m.TokenCount, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, m)
	}
	return chunks, rows.Err()
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(&doc.ID, &doc.SourceID, &doc.UserID, &doc.Title, &doc.ExtractedText,
		&doc.Content, &doc.TokenCount, &doc.Status, &doc.Metadata, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
