package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ContentType values match the content_type enum in the database.
const (
	ContentTypePDF      = "pdf"
	ContentTypeHTML     = "html"
	ContentTypeMarkdown = "markdown"
	ContentTypeTxt      = "txt"
	ContentTypeURL      = "url"
)

// Processing status values shared by sources, documents and decks.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Source is a user-submitted raw input (an uploaded file or a URL)
// awaiting processing. content_type is immutable after creation.
type Source struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	ContentType string          `json:"content_type" db:"content_type"`
	URL         string          `json:"url,omitempty" db:"url"`
	FilePath    string          `json:"file_path,omitempty" db:"file_path"`
	FileSize    int64           `json:"file_size,omitempty" db:"file_size"`
	Title       string          `json:"title" db:"title"`
	Status      string          `json:"status" db:"status"`
	Metadata    json.RawMessage `json:"metadata" db:"metadata"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

func ValidContentType(ct string) bool {
	switch ct {
	case ContentTypePDF, ContentTypeHTML, ContentTypeMarkdown, ContentTypeTxt, ContentTypeURL:
		return true
	}
	return false
}
