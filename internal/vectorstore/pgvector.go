package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type PgVectorStore struct {
	db *pgxpool.Pool
}

func NewPgVectorStore(db *pgxpool.Pool) *PgVectorStore {
	return &PgVectorStore{db: db}
}

// Upsert writes one embedding row per chunk. Regenerating an embedding
// overwrites the previous vector in place.
func (s *PgVectorStore) Upsert(ctx context.Context, emb ChunkEmbedding) error {
	vector := pgvector.NewVector(emb.Vector)

	_, err := s.db.Exec(ctx,
		`INSERT INTO embeddings (id, chunk_id, user_id, embedding, model_used)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (chunk_id) DO UPDATE SET embedding = $4, model_used = $5`,
		uuid.New(), emb.ChunkID, emb.UserID, vector, emb.ModelUsed,
	)
	if err != nil {
		return fmt.Errorf("upsert embedding for chunk %s: %w", emb.ChunkID, err)
	}
	return nil
}

// SemanticSearch ranks chunks by cosine similarity to the query vector.
// Only chunks that actually have an embedding row participate, which is
// how the pipeline tolerates best-effort embedding generation.
func (s *PgVectorStore) SemanticSearch(ctx context.Context, query []float32, opts SearchOptions) ([]SearchResult, error) {
	if opts.TopK <= 0 {
		opts.TopK = 10
	}

	vector := pgvector.NewVector(query)

	rows, err := s.db.Query(ctx,
		`SELECT c.id, c.document_id, c.content, c.chunk_index,
		        1 - (e.embedding <=> $1) AS score
		 FROM embeddings e
		 JOIN chunks c ON c.id = e.chunk_id
		 WHERE e.user_id = $2
		 ORDER BY e.embedding <=> $1
		 LIMIT $3`,
		vector, opts.UserID, opts.TopK,
	)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Content, &r.ChunkIndex, &r.Score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if opts.MinScore > 0 && r.Score < opts.MinScore {
			continue
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *PgVectorStore) DeleteByDocument(ctx context.Context, userID, documentID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM embeddings
		 WHERE user_id = $1
		   AND chunk_id IN (SELECT id FROM chunks WHERE document_id = $2)`,
		userID, documentID,
	)
	return err
}
