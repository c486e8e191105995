// Package categorize classifies document content into a fixed taxonomy
// used to pick a card-generation strategy. Classification is advisory:
// a failure here never blocks card generation.
package categorize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mementolabs/deckgen/internal/llm"
	"github.com/mementolabs/deckgen/internal/models"
	"github.com/mementolabs/deckgen/pkg/sanitize"
)

// DefaultCategory is used whenever the model's answer is empty or
// falls outside the taxonomy.
const DefaultCategory = "educational_content"

// Categories is the closed label set the model must choose from.
var Categories = []string{
	"technical_document",
	"research_paper",
	"book_chapter",
	"blog_article",
	"educational_content",
	"motivational_content",
	"business_document",
	"reference_material",
}

// sampleLimit bounds how much text is sent for classification.
const sampleLimit = 2000

const systemPrompt = `Categorize this document content into one of these categories and return ONLY the category name:
- technical_document (programming, engineering, technical guides)
- research_paper (academic papers, scientific studies)
- book_chapter (book content, literature)
- blog_article (articles, posts, news)
- educational_content (tutorials, courses, learning materials)
- motivational_content (self-help, inspirational content)
- business_document (reports, proposals, business content)
- reference_material (manuals, documentation)

Analyze the writing style, content structure, and subject matter to determine the most appropriate category.`

type documentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	SetCategory(ctx context.Context, id uuid.UUID, category string) error
}

type sourceStore interface {
	SetCategory(ctx context.Context, id uuid.UUID, category string) error
}

type Service struct {
	gateway   llm.Gateway
	documents documentStore
	sources   sourceStore
	model     string
}

func NewService(gw llm.Gateway, documents documentStore, sources sourceStore, model string) *Service {
	return &Service{gateway: gw, documents: documents, sources: sources, model: model}
}

// CategorizeDocument classifies a document and records the category on
// the document and its owning source. The source id comes from the
// document row, so concurrent uploads by the same user cannot mislabel
// an unrelated source. Metadata writes are best-effort.
func (s *Service) CategorizeDocument(ctx context.Context, documentID uuid.UUID) (string, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}

	category := s.Classify(ctx, doc.Title, doc.ExtractedText)

	if err := s.documents.SetCategory(ctx, doc.ID, category); err != nil {
		slog.Error("failed to store document category", "document_id", doc.ID, "error", err)
	}
	if err := s.sources.SetCategory(ctx, doc.SourceID, category); err != nil {
		slog.Error("failed to store source category", "source_id", doc.SourceID, "error", err)
	}

	return category, nil
}

// Classify asks the model for a label and coerces the answer into the
// closed set. Any failure or out-of-taxonomy answer yields the default.
func (s *Service) Classify(ctx context.Context, title, text string) string {
	sample := sanitize.Clip(text, sampleLimit)
	if strings.TrimSpace(sample) == "" {
		sample = title
	}

	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Model: s.model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Title: %s\n\nContent:\n%s", title, sample)},
		},
		Temperature: 0.1,
		MaxTokens:   50,
	})
	if err != nil {
		slog.Warn("categorization call failed, using default", "error", err)
		return DefaultCategory
	}

	return Coerce(resp.Content)
}

// Coerce maps a raw model answer onto the taxonomy.
func Coerce(answer string) string {
	category := strings.ToLower(strings.TrimSpace(answer))
	for _, c := range Categories {
		if category == c {
			return c
		}
	}
	return DefaultCategory
}
