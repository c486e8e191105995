// Package cards turns a deck's chunk content into persisted learning
// cards via a single LLM call per deck. Model failures degrade to a
// deterministic fallback set; database failures are fatal and flip the
// deck to failed.
package cards

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mementolabs/deckgen/internal/deck"
	"github.com/mementolabs/deckgen/internal/llm"
	"github.com/mementolabs/deckgen/internal/models"
	"github.com/mementolabs/deckgen/pkg/sanitize"
)

const (
	// maxLineChars bounds each side of a card; entries exceeding it
	// after repair are clipped, not dropped.
	maxLineChars = 110

	defaultMaxChunks    = 60
	defaultContextLimit = 16000
)

type DeckStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Deck, error)
	DocumentIDs(ctx context.Context, deckID uuid.UUID) ([]uuid.UUID, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	CompleteWithCards(ctx context.Context, deckID uuid.UUID, cards []deck.NewCard) ([]models.Card, error)
}

type ChunkStore interface {
	ChunksForDocuments(ctx context.Context, documentIDs []uuid.UUID, limit int) ([]models.Chunk, error)
}

type Generator struct {
	gateway      llm.Gateway
	decks        DeckStore
	chunks       ChunkStore
	model        string
	maxChunks    int
	contextLimit int
}

func NewGenerator(gw llm.Gateway, decks DeckStore, chunks ChunkStore, model string) *Generator {
	return &Generator{
		gateway:      gw,
		decks:        decks,
		chunks:       chunks,
		model:        model,
		maxChunks:    defaultMaxChunks,
		contextLimit: defaultContextLimit,
	}
}

// Result reports one generation run.
type Result struct {
	DeckID       uuid.UUID `json:"deck_id"`
	Count        int       `json:"count"`
	UsedFallback bool      `json:"used_fallback,omitempty"`
}

// GenerateForDeck runs the full generation flow for one deck: resolve
// chunks, build a bounded context, ask the model for cards, repair the
// response and persist cards plus their ordering in one transaction.
// An empty chunk set completes the deck with zero cards; that is the
// only case where a completed deck has no cards.
func (g *Generator) GenerateForDeck(ctx context.Context, deckID uuid.UUID, maxCards int, category string) (*Result, error) {
	d, err := g.decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}

	if err := g.decks.UpdateStatus(ctx, d.ID, models.StatusProcessing); err != nil {
		return nil, err
	}

	docIDs, err := g.decks.DocumentIDs(ctx, d.ID)
	if err != nil {
		return nil, g.fail(ctx, d.ID, err)
	}

	chunks, err := g.chunks.ChunksForDocuments(ctx, docIDs, g.maxChunks)
	if err != nil {
		return nil, g.fail(ctx, d.ID, err)
	}

	if len(chunks) == 0 {
		slog.Info("no chunks for deck, completing with zero cards", "deck_id", d.ID)
		if err := g.decks.UpdateStatus(ctx, d.ID, models.StatusCompleted); err != nil {
			return nil, err
		}
		return &Result{DeckID: d.ID, Count: 0}, nil
	}

	strategy := StrategyFor(category)
	target := strategy.CardCount
	if maxCards > 0 && maxCards < target {
		target = maxCards
	}

	fronts := g.requestCards(ctx, strategy, buildContext(chunks, g.contextLimit), target)

	usedFallback := false
	if len(fronts) == 0 {
		fronts = fallbackCards(d.Title, maxCards)
		usedFallback = true
		slog.Warn("card generation degraded to fallback cards", "deck_id", d.ID, "count", len(fronts))
	}
	if len(fronts) > target && !usedFallback {
		fronts = fronts[:target]
	}

	newCards := make([]deck.NewCard, len(fronts))
	for i, c := range fronts {
		newCards[i] = deck.NewCard{
			ChunkID:    representativeChunk(chunks, i, len(fronts)).ID,
			FrontText:  c.front,
			BackText:   c.back,
			Difficulty: models.DifficultyMedium,
		}
	}

	inserted, err := g.decks.CompleteWithCards(ctx, d.ID, newCards)
	if err != nil {
		return nil, g.fail(ctx, d.ID, fmt.Errorf("persist cards: %w", err))
	}

	return &Result{DeckID: d.ID, Count: len(inserted), UsedFallback: usedFallback}, nil
}

// fail flips the deck to failed and returns the original error. The
// status write itself is best-effort.
func (g *Generator) fail(ctx context.Context, deckID uuid.UUID, err error) error {
	if statusErr := g.decks.UpdateStatus(ctx, deckID, models.StatusFailed); statusErr != nil {
		slog.Error("failed to mark deck failed", "deck_id", deckID, "error", statusErr)
	}
	return err
}

// requestCards issues the single generation call and parses the reply
// defensively. Any transport or shape problem yields an empty slice;
// the caller substitutes fallback content.
func (g *Generator) requestCards(ctx context.Context, strategy Strategy, content string, target int) []twoLine {
	system := fmt.Sprintf(`You create spaced-repetition learning cards. %s
Return ONLY a JSON array. Each element is an object with a single "text" field containing exactly two lines separated by a newline: the first line is the question (front), the second line is the answer (back).
Each line must be at most %d characters. Use plain text only: no markdown, no quotation marks, no numbering.`,
		strategy.Framing, maxLineChars)

	user := fmt.Sprintf("Create exactly %d cards from this content:\n\n%s", target, content)

	resp, err := g.gateway.Chat(ctx, llm.ChatRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		slog.Warn("card generation call failed", "error", err)
		return nil
	}

	return parseCards(resp.Content)
}

// buildContext concatenates sanitized chunk contents with blank-line
// separators up to the character budget. Chunks arrive in chunk_index
// order, so truncation drops the tail of the document.
func buildContext(chunks []models.Chunk, limit int) string {
	var b strings.Builder
	for _, ch := range chunks {
		content := sanitize.Text(ch.Content)
		if content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if b.Len()+len(content) > limit {
			if remaining := limit - b.Len(); remaining > 0 {
				b.WriteString(sanitize.Clip(content, remaining))
			}
			break
		}
		b.WriteString(content)
	}
	return b.String()
}

// representativeChunk spreads cards across the chunk sequence so a
// card's chunk_id points near the content it came from.
func representativeChunk(chunks []models.Chunk, cardIdx, total int) models.Chunk {
	if total <= 0 {
		return chunks[0]
	}
	i := cardIdx * len(chunks) / total
	if i >= len(chunks) {
		i = len(chunks) - 1
	}
	return chunks[i]
}
