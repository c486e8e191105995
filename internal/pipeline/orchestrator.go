// Package pipeline drives a source from raw input to a completed deck:
// fetch, extract, chunk, embed, categorize, generate. Database errors
// abort the run; LLM errors degrade to defaults so a run that reaches
// card generation always produces a deck.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mementolabs/deckgen/internal/cards"
	"github.com/mementolabs/deckgen/internal/document"
	"github.com/mementolabs/deckgen/internal/models"
	"github.com/mementolabs/deckgen/internal/storage"
	"github.com/mementolabs/deckgen/pkg/chunker"
	"github.com/mementolabs/deckgen/pkg/sanitize"
	"github.com/mementolabs/deckgen/pkg/textextract"
	"github.com/mementolabs/deckgen/pkg/tokenizer"
)

// ErrAlreadyRunning is returned when a second run is requested for a
// source whose pipeline lock is still held.
var ErrAlreadyRunning = errors.New("pipeline already running for source")

const (
	lockTTL      = 10 * time.Minute
	fetchTimeout = 30 * time.Second
	maxFetchSize = 20 << 20
)

type sourceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Source, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type documentStore interface {
	Create(ctx context.Context, req document.CreateRequest) (*models.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	InsertChunks(ctx context.Context, documentID uuid.UUID, chunks []chunker.Chunk) ([]models.Chunk, error)
}

type deckStore interface {
	Create(ctx context.Context, title, description string) (*models.Deck, error)
	LinkDocument(ctx context.Context, deckID, documentID uuid.UUID) error
}

type embedder interface {
	EmbedChunks(ctx context.Context, chunks []models.Chunk) int
}

type categorizer interface {
	CategorizeDocument(ctx context.Context, documentID uuid.UUID) (string, error)
}

type generator interface {
	GenerateForDeck(ctx context.Context, deckID uuid.UUID, maxCards int, category string) (*cards.Result, error)
}

type locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

type Orchestrator struct {
	sources    sourceStore
	documents  documentStore
	decks      deckStore
	embedder   embedder
	categorize categorizer
	generator  generator
	blobs      storage.Storage
	locks      locker
	bus        *Bus
	httpClient *http.Client

	chunkOpts chunker.Options
	maxCards  int
}

type Options struct {
	ChunkTokens   int
	OverlapTokens int
	MaxCards      int
}

func NewOrchestrator(
	sources sourceStore,
	documents documentStore,
	decks deckStore,
	embedder embedder,
	categorize categorizer,
	generator generator,
	blobs storage.Storage,
	locks locker,
	bus *Bus,
	opts Options,
) *Orchestrator {
	chunkOpts := chunker.DefaultOptions()
	if opts.ChunkTokens > 0 {
		chunkOpts.ChunkTokens = opts.ChunkTokens
	}
	if opts.OverlapTokens > 0 {
		chunkOpts.OverlapTokens = opts.OverlapTokens
	}
	maxCards := opts.MaxCards
	if maxCards <= 0 {
		maxCards = 12
	}
	return &Orchestrator{
		sources:    sources,
		documents:  documents,
		decks:      decks,
		embedder:   embedder,
		categorize: categorize,
		generator:  generator,
		blobs:      blobs,
		locks:      locks,
		bus:        bus,
		httpClient: &http.Client{Timeout: fetchTimeout},
		chunkOpts:  chunkOpts,
		maxCards:   maxCards,
	}
}

// RunResult summarizes one completed pipeline run.
type RunResult struct {
	SourceID   uuid.UUID `json:"source_id"`
	DocumentID uuid.UUID `json:"document_id"`
	DeckID     uuid.UUID `json:"deck_id"`
	ChunkCount int       `json:"chunk_count"`
	CardCount  int       `json:"card_count"`
	Embedded   int       `json:"embedded_count"`
	Category   string    `json:"category"`
}

// Run processes one source end to end. A redis lock keyed by source id
// makes concurrent runs for the same source no-ops; retries after a
// crash wait out the lock TTL.
func (o *Orchestrator) Run(ctx context.Context, sourceID uuid.UUID) (*RunResult, error) {
	lockKey := "pipeline:active:" + sourceID.String()
	ok, err := o.locks.AcquireLock(ctx, lockKey, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire pipeline lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	defer func() {
		if err := o.locks.ReleaseLock(context.WithoutCancel(ctx), lockKey); err != nil {
			slog.Warn("failed to release pipeline lock", "source_id", sourceID, "error", err)
		}
	}()

	src, err := o.sources.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	if err := o.sources.UpdateStatus(ctx, src.ID, models.StatusProcessing); err != nil {
		return nil, err
	}

	res, err := o.process(ctx, src)
	if err != nil {
		o.failSource(ctx, src.ID, err)
		return nil, err
	}

	if err := o.sources.UpdateStatus(ctx, src.ID, models.StatusCompleted); err != nil {
		return nil, err
	}
	o.publish(src.ID, StageDone, models.StatusCompleted, nil)

	slog.Info("pipeline run completed",
		"source_id", src.ID, "document_id", res.DocumentID, "deck_id", res.DeckID,
		"chunks", res.ChunkCount, "embedded", res.Embedded, "cards", res.CardCount)
	return res, nil
}

func (o *Orchestrator) process(ctx context.Context, src *models.Source) (*RunResult, error) {
	o.publish(src.ID, StageFetch, models.StatusProcessing, nil)
	raw, err := o.loadRaw(ctx, src)
	if err != nil {
		return nil, err
	}

	o.publish(src.ID, StageExtract, models.StatusProcessing, nil)
	text := o.extract(src, raw)

	doc, err := o.documents.Create(ctx, document.CreateRequest{
		SourceID:      src.ID,
		Title:         src.Title,
		ExtractedText: text,
		TokenCount:    tokenizer.Estimate(text),
	})
	if err != nil {
		return nil, err
	}

	o.publish(src.ID, StageChunk, models.StatusProcessing, nil)
	pieces, err := chunker.Split(text, o.chunkOpts)
	if err != nil {
		return nil, o.failDocument(ctx, doc.ID, err)
	}
	chunks, err := o.documents.InsertChunks(ctx, doc.ID, pieces)
	if err != nil {
		return nil, o.failDocument(ctx, doc.ID, err)
	}

	o.publish(src.ID, StageEmbed, models.StatusProcessing, nil)
	embedded := o.embedder.EmbedChunks(ctx, chunks)
	if embedded < len(chunks) {
		slog.Warn("partial embedding coverage",
			"document_id", doc.ID, "embedded", embedded, "total", len(chunks))
	}

	d, err := o.decks.Create(ctx, src.Title, "Auto-generated deck")
	if err != nil {
		return nil, o.failDocument(ctx, doc.ID, err)
	}
	if err := o.decks.LinkDocument(ctx, d.ID, doc.ID); err != nil {
		return nil, o.failDocument(ctx, doc.ID, err)
	}

	o.publish(src.ID, StageCategorize, models.StatusProcessing, nil)
	category, err := o.categorize.CategorizeDocument(ctx, doc.ID)
	if err != nil {
		// Classification is advisory; generation proceeds with the
		// default strategy.
		slog.Warn("categorization failed", "document_id", doc.ID, "error", err)
		category = ""
	}

	o.publish(src.ID, StageCards, models.StatusProcessing, nil)
	gen, err := o.generator.GenerateForDeck(ctx, d.ID, o.maxCards, category)
	if err != nil {
		return nil, o.failDocument(ctx, doc.ID, err)
	}

	if err := o.documents.UpdateStatus(ctx, doc.ID, models.StatusCompleted); err != nil {
		return nil, err
	}

	return &RunResult{
		SourceID:   src.ID,
		DocumentID: doc.ID,
		DeckID:     d.ID,
		ChunkCount: len(chunks),
		Embedded:   embedded,
		CardCount:  gen.Count,
		Category:   category,
	}, nil
}

// loadRaw returns the source's raw bytes: a URL fetch for url sources,
// a blob read for uploaded files.
func (o *Orchestrator) loadRaw(ctx context.Context, src *models.Source) ([]byte, error) {
	if src.ContentType == models.ContentTypeURL {
		return o.fetchURL(ctx, src.URL)
	}

	if src.FilePath == "" {
		return nil, fmt.Errorf("source %s has no stored file", src.ID)
	}
	rc, err := o.blobs.Download(ctx, src.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}
	return data, nil
}

func (o *Orchestrator) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("User-Agent", "deckgen/1.0")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch url: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("read url body: %w", err)
	}
	return data, nil
}

// extract converts raw bytes to sanitized plain text. Extraction never
// fails; unusable input yields placeholder text so downstream stages
// still run.
func (o *Orchestrator) extract(src *models.Source, raw []byte) string {
	switch src.ContentType {
	case models.ContentTypePDF:
		return textextract.FromPDF(raw, src.Title)
	case models.ContentTypeHTML, models.ContentTypeURL:
		return textextract.FromHTML(string(raw), src.Title)
	default:
		text := sanitize.Text(string(raw))
		if text == "" {
			return textextract.Placeholder(src.Title)
		}
		return text
	}
}

func (o *Orchestrator) failSource(ctx context.Context, sourceID uuid.UUID, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := o.sources.UpdateStatus(ctx, sourceID, models.StatusFailed); err != nil {
		slog.Error("failed to mark source failed", "source_id", sourceID, "error", err)
	}
	o.publish(sourceID, StageDone, models.StatusFailed, cause)
}

func (o *Orchestrator) failDocument(ctx context.Context, documentID uuid.UUID, cause error) error {
	if err := o.documents.UpdateStatus(context.WithoutCancel(ctx), documentID, models.StatusFailed); err != nil {
		slog.Error("failed to mark document failed", "document_id", documentID, "error", err)
	}
	return cause
}

func (o *Orchestrator) publish(sourceID uuid.UUID, stage Stage, status string, err error) {
	if o.bus == nil {
		return
	}
	ev := Event{SourceID: sourceID, Stage: stage, Status: status}
	if err != nil {
		ev.Error = err.Error()
	}
	o.bus.Publish(ev)
}
