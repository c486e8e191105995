package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document is the extracted, normalized textual form of a Source.
// Exactly one document exists per source once extraction succeeds.
type Document struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	SourceID      uuid.UUID       `json:"source_id" db:"source_id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Title         string          `json:"title" db:"title"`
	ExtractedText string          `json:"extracted_text" db:"extracted_text"`
	Content       string          `json:"content,omitempty" db:"content"`
	TokenCount    int             `json:"token_count" db:"token_count"`
	Status        string          `json:"status" db:"status"`
	Metadata      json.RawMessage `json:"metadata" db:"metadata"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Chunk is one overlapping window of a document's text. chunk_index is
// 0-based, strictly increasing and gapless per document; start_char and
// end_char are word-offset estimates, not byte-exact positions.
type Chunk struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DocumentID uuid.UUID `json:"document_id" db:"document_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Content    string    `json:"content" db:"content"`
	StartChar  int       `json:"start_char" db:"start_char"`
	EndChar    int       `json:"end_char" db:"end_char"`
	TokenCount int       `json:"token_count" db:"token_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Embedding is the vector representation of a chunk, at most one per
// chunk. Regeneration overwrites the existing row.
type Embedding struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ChunkID   uuid.UUID `json:"chunk_id" db:"chunk_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Vector    []float32 `json:"-" db:"embedding"`
	ModelUsed string    `json:"model_used" db:"model_used"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
