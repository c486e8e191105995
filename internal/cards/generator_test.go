package cards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mementolabs/deckgen/internal/deck"
	"github.com/mementolabs/deckgen/internal/llm"
	"github.com/mementolabs/deckgen/internal/models"
)

type fakeGateway struct {
	chatFn func(req llm.ChatRequest) (*llm.ChatResponse, error)
}

func (f *fakeGateway) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return f.chatFn(req)
}

func (f *fakeGateway) Embed(context.Context, llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) Provider(string) (llm.Provider, error) {
	return nil, errors.New("not implemented")
}

type fakeDeckStore struct {
	deck         models.Deck
	statuses     []string
	completed    []deck.NewCard
	completeErr  error
	statusErr    error
	docIDs       []uuid.UUID
}

func (f *fakeDeckStore) GetByID(context.Context, uuid.UUID) (*models.Deck, error) {
	d := f.deck
	return &d, nil
}

func (f *fakeDeckStore) DocumentIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return f.docIDs, nil
}

func (f *fakeDeckStore) UpdateStatus(_ context.Context, _ uuid.UUID, status string) error {
	f.statuses = append(f.statuses, status)
	return f.statusErr
}

func (f *fakeDeckStore) CompleteWithCards(_ context.Context, _ uuid.UUID, cards []deck.NewCard) ([]models.Card, error) {
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	f.completed = cards
	out := make([]models.Card, len(cards))
	for i, c := range cards {
		out[i] = models.Card{ID: uuid.New(), FrontText: c.FrontText, BackText: c.BackText}
	}
	return out, nil
}

type fakeChunkStore struct {
	chunks []models.Chunk
}

func (f *fakeChunkStore) ChunksForDocuments(context.Context, []uuid.UUID, int) ([]models.Chunk, error) {
	return f.chunks, nil
}

func testChunks(n int) []models.Chunk {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		chunks[i] = models.Chunk{
			ID:         uuid.New(),
			ChunkIndex: i,
			Content:    fmt.Sprintf("chunk %d content about the topic", i),
		}
	}
	return chunks
}

func lastStatus(statuses []string) string {
	if len(statuses) == 0 {
		return ""
	}
	return statuses[len(statuses)-1]
}

func TestGenerateForDeckEmptyChunks(t *testing.T) {
	decks := &fakeDeckStore{
		deck:   models.Deck{ID: uuid.New(), Title: "Empty Deck"},
		docIDs: []uuid.UUID{uuid.New()},
	}
	gw := &fakeGateway{chatFn: func(llm.ChatRequest) (*llm.ChatResponse, error) {
		t.Fatal("Chat must not be called for an empty chunk set")
		return nil, nil
	}}

	g := NewGenerator(gw, decks, &fakeChunkStore{}, "gpt-4o-mini")
	res, err := g.GenerateForDeck(context.Background(), decks.deck.ID, 12, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 0 {
		t.Errorf("count = %d, want 0", res.Count)
	}
	if got := lastStatus(decks.statuses); got != models.StatusCompleted {
		t.Errorf("final status = %q, want completed", got)
	}
}

func TestGenerateForDeckModelSuccess(t *testing.T) {
	decks := &fakeDeckStore{
		deck:   models.Deck{ID: uuid.New(), Title: "Go Basics"},
		docIDs: []uuid.UUID{uuid.New()},
	}
	gw := &fakeGateway{chatFn: func(llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{Content: `[
			{"text":"What is a goroutine?\nA lightweight thread managed by the runtime."},
			{"text":"What does chan do?\nIt passes values between goroutines."}
		]`}, nil
	}}

	g := NewGenerator(gw, decks, &fakeChunkStore{chunks: testChunks(6)}, "gpt-4o-mini")
	res, err := g.GenerateForDeck(context.Background(), decks.deck.ID, 12, "technical_document")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 2 {
		t.Errorf("count = %d, want 2", res.Count)
	}
	if res.UsedFallback {
		t.Error("UsedFallback = true on a successful model reply")
	}
	for i, c := range decks.completed {
		if c.ChunkID == uuid.Nil {
			t.Errorf("card %d has no chunk mapping", i)
		}
		if c.Difficulty != models.DifficultyMedium {
			t.Errorf("card %d difficulty = %q, want medium", i, c.Difficulty)
		}
	}
}

func TestGenerateForDeckFallbackOnModelError(t *testing.T) {
	decks := &fakeDeckStore{
		deck:   models.Deck{ID: uuid.New(), Title: "History Notes"},
		docIDs: []uuid.UUID{uuid.New()},
	}
	gw := &fakeGateway{chatFn: func(llm.ChatRequest) (*llm.ChatResponse, error) {
		return nil, errors.New("rate limited")
	}}

	g := NewGenerator(gw, decks, &fakeChunkStore{chunks: testChunks(3)}, "gpt-4o-mini")
	res, err := g.GenerateForDeck(context.Background(), decks.deck.ID, 12, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.UsedFallback {
		t.Error("expected fallback cards")
	}
	if res.Count != 5 {
		t.Errorf("count = %d, want 5 fallback cards", res.Count)
	}
}

func TestGenerateForDeckFallbackOnUnparseableReply(t *testing.T) {
	decks := &fakeDeckStore{
		deck:   models.Deck{ID: uuid.New(), Title: "Notes"},
		docIDs: []uuid.UUID{uuid.New()},
	}
	gw := &fakeGateway{chatFn: func(llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{Content: "I cannot produce JSON today."}, nil
	}}

	g := NewGenerator(gw, decks, &fakeChunkStore{chunks: testChunks(3)}, "gpt-4o-mini")
	res, err := g.GenerateForDeck(context.Background(), decks.deck.ID, 2, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.UsedFallback {
		t.Error("expected fallback cards")
	}
	if res.Count != 2 {
		t.Errorf("count = %d, want max_cards cap of 2", res.Count)
	}
}

func TestGenerateForDeckPersistFailure(t *testing.T) {
	decks := &fakeDeckStore{
		deck:        models.Deck{ID: uuid.New(), Title: "Doomed"},
		docIDs:      []uuid.UUID{uuid.New()},
		completeErr: errors.New("connection reset"),
	}
	gw := &fakeGateway{chatFn: func(llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{Content: `[{"text":"Q\nA"}]`}, nil
	}}

	g := NewGenerator(gw, decks, &fakeChunkStore{chunks: testChunks(2)}, "gpt-4o-mini")
	_, err := g.GenerateForDeck(context.Background(), decks.deck.ID, 12, "")
	if err == nil {
		t.Fatal("expected error from failed persistence")
	}
	if got := lastStatus(decks.statuses); got != models.StatusFailed {
		t.Errorf("final status = %q, want failed", got)
	}
}

func TestGenerateForDeckTargetCapsModelCards(t *testing.T) {
	decks := &fakeDeckStore{
		deck:   models.Deck{ID: uuid.New(), Title: "Capped"},
		docIDs: []uuid.UUID{uuid.New()},
	}
	gw := &fakeGateway{chatFn: func(llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{Content: `[
			{"text":"Q1\nA1"},{"text":"Q2\nA2"},{"text":"Q3\nA3"},{"text":"Q4\nA4"}
		]`}, nil
	}}

	g := NewGenerator(gw, decks, &fakeChunkStore{chunks: testChunks(4)}, "gpt-4o-mini")
	res, err := g.GenerateForDeck(context.Background(), decks.deck.ID, 3, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 3 {
		t.Errorf("count = %d, want 3", res.Count)
	}
}

func TestBuildContextRuneBoundary(t *testing.T) {
	chunks := []models.Chunk{
		{Content: strings.Repeat("é", 40)},
		{Content: strings.Repeat("é", 40)},
	}

	// Limit lands between the two bytes of a rune in the second chunk.
	got := buildContext(chunks, 101)
	if !utf8.ValidString(got) {
		t.Error("context contains invalid UTF-8 at the cut")
	}
	if len(got) > 101 {
		t.Errorf("context length %d exceeds limit", len(got))
	}
}
