package vectorstore

import (
	"context"

	"github.com/google/uuid"
)

// ChunkEmbedding is one vector row, keyed 1:1 by chunk id.
type ChunkEmbedding struct {
	ChunkID   uuid.UUID
	UserID    uuid.UUID
	Vector    []float32
	ModelUsed string
}

type SearchOptions struct {
	UserID   uuid.UUID
	TopK     int
	MinScore float64
}

// SearchResult carries the matched chunk content. Chunks without an
// embedding row never appear here; the join excludes them.
type SearchResult struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Content    string    `json:"content"`
	ChunkIndex int       `json:"chunk_index"`
	Score      float64   `json:"score"`
}

type Store interface {
	Upsert(ctx context.Context, emb ChunkEmbedding) error
	SemanticSearch(ctx context.Context, query []float32, opts SearchOptions) ([]SearchResult, error)
	DeleteByDocument(ctx context.Context, userID, documentID uuid.UUID) error
}
