package categorize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"

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

type fakeDocStore struct {
	doc      models.Document
	category string
}

func (f *fakeDocStore) GetByID(context.Context, uuid.UUID) (*models.Document, error) {
	d := f.doc
	return &d, nil
}

func (f *fakeDocStore) SetCategory(_ context.Context, _ uuid.UUID, category string) error {
	f.category = category
	return nil
}

type fakeSourceStore struct {
	sourceID uuid.UUID
	category string
}

func (f *fakeSourceStore) SetCategory(_ context.Context, id uuid.UUID, category string) error {
	f.sourceID = id
	f.category = category
	return nil
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		answer string
		want   string
	}{
		{"technical_document", "technical_document"},
		{"  Research_Paper \n", "research_paper"},
		{"BLOG_ARTICLE", "blog_article"},
		{"something else entirely", DefaultCategory},
		{"", DefaultCategory},
		{"technical document", DefaultCategory},
	}

	for _, tt := range tests {
		if got := Coerce(tt.answer); got != tt.want {
			t.Errorf("Coerce(%q) = %q, want %q", tt.answer, got, tt.want)
		}
	}
}

func TestClassifyDefaultsOnError(t *testing.T) {
	gw := &fakeGateway{chatFn: func(llm.ChatRequest) (*llm.ChatResponse, error) {
		return nil, errors.New("timeout")
	}}
	svc := NewService(gw, &fakeDocStore{}, &fakeSourceStore{}, "gpt-4o-mini")

	if got := svc.Classify(context.Background(), "Title", "some text"); got != DefaultCategory {
		t.Errorf("got %q, want default", got)
	}
}

func TestClassifySampleIsBounded(t *testing.T) {
	var sentLen int
	gw := &fakeGateway{chatFn: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
		sentLen = len(req.Messages[1].Content)
		return &llm.ChatResponse{Content: "book_chapter"}, nil
	}}
	svc := NewService(gw, &fakeDocStore{}, &fakeSourceStore{}, "gpt-4o-mini")

	long := strings.Repeat("x", 10000)
	if got := svc.Classify(context.Background(), "T", long); got != "book_chapter" {
		t.Errorf("got %q, want book_chapter", got)
	}
	// Title plus framing plus at most sampleLimit chars of content.
	if sentLen > sampleLimit+100 {
		t.Errorf("prompt length %d exceeds sample bound", sentLen)
	}
}

func TestClassifySampleKeepsValidUTF8(t *testing.T) {
	var sent string
	gw := &fakeGateway{chatFn: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
		sent = req.Messages[1].Content
		return &llm.ChatResponse{Content: "book_chapter"}, nil
	}}
	svc := NewService(gw, &fakeDocStore{}, &fakeSourceStore{}, "gpt-4o-mini")

	// A two-byte rune straddles the sample cut.
	text := strings.Repeat("a", sampleLimit-1) + strings.Repeat("é", 50)
	svc.Classify(context.Background(), "T", text)

	if !utf8.ValidString(sent) {
		t.Error("prompt contains invalid UTF-8 after sampling")
	}
}

func TestCategorizeDocumentThreadsSourceID(t *testing.T) {
	sourceID := uuid.New()
	docs := &fakeDocStore{doc: models.Document{
		ID:            uuid.New(),
		SourceID:      sourceID,
		Title:         "Paper",
		ExtractedText: "We measured the effect of caffeine on reaction time.",
	}}
	sources := &fakeSourceStore{}
	gw := &fakeGateway{chatFn: func(llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{Content: "research_paper"}, nil
	}}

	svc := NewService(gw, docs, sources, "gpt-4o-mini")
	got, err := svc.CategorizeDocument(context.Background(), docs.doc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "research_paper" {
		t.Errorf("category = %q, want research_paper", got)
	}
	if docs.category != "research_paper" {
		t.Errorf("document category = %q", docs.category)
	}
	if sources.sourceID != sourceID {
		t.Errorf("source category written to %s, want %s", sources.sourceID, sourceID)
	}
	if sources.category != "research_paper" {
		t.Errorf("source category = %q", sources.category)
	}
}
