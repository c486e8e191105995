package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mementolabs/deckgen/internal/llm"
	"github.com/mementolabs/deckgen/internal/models"
	"github.com/mementolabs/deckgen/internal/vectorstore"
)

type Service struct {
	gateway     llm.Gateway
	store       vectorstore.Store
	model       string
	concurrency int
}

func NewService(gw llm.Gateway, store vectorstore.Store, model string, concurrency int) *Service {
	if model == "" {
		model = "text-embedding-3-small"
	}
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Service{gateway: gw, store: store, model: model, concurrency: concurrency}
}

// EmbedChunks generates and persists one embedding per chunk, with
// bounded concurrency to stay under provider rate limits. Per-chunk
// failures are logged and skipped rather than aborting the batch, so
// "every chunk has an embedding" is best-effort; search tolerates the
// gaps by joining through the embeddings table. Returns the number of
// chunks successfully embedded.
func (s *Service) EmbedChunks(ctx context.Context, chunks []models.Chunk) int {
	if len(chunks) == 0 {
		return 0
	}

	results := make([]bool, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			resp, err := s.gateway.Embed(gctx, llm.EmbeddingRequest{
				Model: s.model,
				Input: []string{chunk.Content},
			})
			if err != nil || len(resp.Embeddings) == 0 {
				slog.Error("failed to generate embedding",
					"chunk_id", chunk.ID, "chunk_index", chunk.ChunkIndex, "error", err)
				return nil
			}

			err = s.store.Upsert(gctx, vectorstore.ChunkEmbedding{
				ChunkID:   chunk.ID,
				UserID:    chunk.UserID,
				Vector:    resp.Embeddings[0],
				ModelUsed: s.model,
			})
			if err != nil {
				slog.Error("failed to persist embedding", "chunk_id", chunk.ID, "error", err)
				return nil
			}

			results[i] = true
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()

	embedded := 0
	for _, ok := range results {
		if ok {
			embedded++
		}
	}
	return embedded
}

// EmbedQuery embeds a single search query string.
func (s *Service) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	resp, err := s.gateway.Embed(ctx, llm.EmbeddingRequest{
		Model: s.model,
		Input: []string{query},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embeddings[0], nil
}
