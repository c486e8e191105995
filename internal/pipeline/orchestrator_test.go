package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mementolabs/deckgen/internal/cards"
	"github.com/mementolabs/deckgen/internal/document"
	"github.com/mementolabs/deckgen/internal/models"
	"github.com/mementolabs/deckgen/pkg/chunker"
)

type fakeSources struct {
	source   models.Source
	statuses []string
}

func (f *fakeSources) GetByID(context.Context, uuid.UUID) (*models.Source, error) {
	s := f.source
	return &s, nil
}

func (f *fakeSources) UpdateStatus(_ context.Context, _ uuid.UUID, status string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

type fakeDocuments struct {
	created  *document.CreateRequest
	statuses []string
	chunks   []models.Chunk
}

func (f *fakeDocuments) Create(_ context.Context, req document.CreateRequest) (*models.Document, error) {
	f.created = &req
	return &models.Document{ID: uuid.New(), SourceID: req.SourceID, Title: req.Title,
		ExtractedText: req.ExtractedText, Status: models.StatusProcessing}, nil
}

func (f *fakeDocuments) UpdateStatus(_ context.Context, _ uuid.UUID, status string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeDocuments) InsertChunks(_ context.Context, documentID uuid.UUID, chunks []chunker.Chunk) ([]models.Chunk, error) {
	out := make([]models.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = models.Chunk{ID: uuid.New(), DocumentID: documentID,
			ChunkIndex: c.Index, Content: c.Content}
	}
	f.chunks = out
	return out, nil
}

type fakeDecks struct {
	deck   *models.Deck
	linked []uuid.UUID
}

func (f *fakeDecks) Create(_ context.Context, title, description string) (*models.Deck, error) {
	f.deck = &models.Deck{ID: uuid.New(), Title: title, Description: description,
		Status: models.StatusPending}
	return f.deck, nil
}

func (f *fakeDecks) LinkDocument(_ context.Context, _, documentID uuid.UUID) error {
	f.linked = append(f.linked, documentID)
	return nil
}

type fakeEmbedder struct{ embedded int }

func (f *fakeEmbedder) EmbedChunks(_ context.Context, chunks []models.Chunk) int {
	f.embedded = len(chunks)
	return len(chunks)
}

type fakeCategorizer struct {
	category string
	err      error
}

func (f *fakeCategorizer) CategorizeDocument(context.Context, uuid.UUID) (string, error) {
	return f.category, f.err
}

type fakeGenerator struct {
	category string
	result   cards.Result
	err      error
}

func (f *fakeGenerator) GenerateForDeck(_ context.Context, deckID uuid.UUID, _ int, category string) (*cards.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.category = category
	r := f.result
	r.DeckID = deckID
	return &r, nil
}

type fakeLocker struct {
	held     bool
	released bool
}

func (f *fakeLocker) AcquireLock(context.Context, string, time.Duration) (bool, error) {
	return !f.held, nil
}

func (f *fakeLocker) ReleaseLock(context.Context, string) error {
	f.released = true
	return nil
}

type fakeBlobs struct{ data string }

func (f *fakeBlobs) Upload(context.Context, string, io.Reader) error { return nil }

func (f *fakeBlobs) Download(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.data)), nil
}

func (f *fakeBlobs) Delete(context.Context, string) error { return nil }

func newTestOrchestrator(sources *fakeSources, docs *fakeDocuments, decks *fakeDecks,
	gen *fakeGenerator, locks *fakeLocker, blobs *fakeBlobs) *Orchestrator {
	return NewOrchestrator(sources, docs, decks,
		&fakeEmbedder{}, &fakeCategorizer{category: "educational_content"}, gen,
		blobs, locks, NewBus(), Options{})
}

func TestRunURLSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body><p>Spaced repetition works by testing recall at increasing intervals.</p></body></html>")
	}))
	defer srv.Close()

	sources := &fakeSources{source: models.Source{
		ID: uuid.New(), Title: "SRS Article",
		ContentType: models.ContentTypeURL, URL: srv.URL,
	}}
	docs := &fakeDocuments{}
	decks := &fakeDecks{}
	gen := &fakeGenerator{result: cards.Result{Count: 4}}
	locks := &fakeLocker{}

	o := newTestOrchestrator(sources, docs, decks, gen, locks, &fakeBlobs{})
	res, err := o.Run(context.Background(), sources.source.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if docs.created == nil {
		t.Fatal("document never created")
	}
	if !strings.Contains(docs.created.ExtractedText, "Spaced repetition works") {
		t.Errorf("extracted text lost content: %q", docs.created.ExtractedText)
	}
	if res.ChunkCount != 1 {
		t.Errorf("chunk count = %d, want 1", res.ChunkCount)
	}
	if res.CardCount != 4 {
		t.Errorf("card count = %d, want 4", res.CardCount)
	}
	if gen.category != "educational_content" {
		t.Errorf("generator category = %q", gen.category)
	}
	if decks.deck == nil || decks.deck.Title != "SRS Article" {
		t.Errorf("deck = %+v, want titled from source", decks.deck)
	}
	if len(decks.linked) != 1 {
		t.Errorf("linked %d documents, want 1", len(decks.linked))
	}
	if got := sources.statuses[len(sources.statuses)-1]; got != models.StatusCompleted {
		t.Errorf("final source status = %q", got)
	}
	if got := docs.statuses[len(docs.statuses)-1]; got != models.StatusCompleted {
		t.Errorf("final document status = %q", got)
	}
	if !locks.released {
		t.Error("pipeline lock never released")
	}
}

func TestRunLockHeld(t *testing.T) {
	sources := &fakeSources{source: models.Source{ID: uuid.New()}}
	o := newTestOrchestrator(sources, &fakeDocuments{}, &fakeDecks{},
		&fakeGenerator{}, &fakeLocker{held: true}, &fakeBlobs{})

	_, err := o.Run(context.Background(), sources.source.ID)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("err = %v, want ErrAlreadyRunning", err)
	}
	if len(sources.statuses) != 0 {
		t.Errorf("statuses touched while locked: %v", sources.statuses)
	}
}

func TestRunURLFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sources := &fakeSources{source: models.Source{
		ID: uuid.New(), Title: "Dead Link",
		ContentType: models.ContentTypeURL, URL: srv.URL,
	}}
	o := newTestOrchestrator(sources, &fakeDocuments{}, &fakeDecks{},
		&fakeGenerator{}, &fakeLocker{}, &fakeBlobs{})

	_, err := o.Run(context.Background(), sources.source.ID)
	if err == nil {
		t.Fatal("expected error for non-2xx fetch")
	}
	if got := sources.statuses[len(sources.statuses)-1]; got != models.StatusFailed {
		t.Errorf("final source status = %q, want failed", got)
	}
}

func TestRunUploadedTextSource(t *testing.T) {
	sources := &fakeSources{source: models.Source{
		ID: uuid.New(), Title: "Notes",
		ContentType: models.ContentTypeTxt, FilePath: "u/notes.txt",
	}}
	docs := &fakeDocuments{}
	blobs := &fakeBlobs{data: "plain text notes about photosynthesis and light"}

	o := newTestOrchestrator(sources, docs, &fakeDecks{},
		&fakeGenerator{result: cards.Result{Count: 1}}, &fakeLocker{}, blobs)
	if _, err := o.Run(context.Background(), sources.source.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(docs.created.ExtractedText, "photosynthesis") {
		t.Errorf("extracted text = %q", docs.created.ExtractedText)
	}
}

func TestRunGeneratorFailureMarksFailed(t *testing.T) {
	sources := &fakeSources{source: models.Source{
		ID: uuid.New(), Title: "Notes",
		ContentType: models.ContentTypeTxt, FilePath: "u/notes.txt",
	}}
	docs := &fakeDocuments{}

	o := newTestOrchestrator(sources, docs, &fakeDecks{},
		&fakeGenerator{err: errors.New("db down")}, &fakeLocker{},
		&fakeBlobs{data: "some text"})
	if _, err := o.Run(context.Background(), sources.source.ID); err == nil {
		t.Fatal("expected generator error to propagate")
	}
	if got := sources.statuses[len(sources.statuses)-1]; got != models.StatusFailed {
		t.Errorf("final source status = %q, want failed", got)
	}
	if got := docs.statuses[len(docs.statuses)-1]; got != models.StatusFailed {
		t.Errorf("final document status = %q, want failed", got)
	}
}
