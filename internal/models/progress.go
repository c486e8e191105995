package models

import (
	"time"

	"github.com/google/uuid"
)

// Edge type values match the edge_type enum.
const (
	EdgeRelated     = "related"
	EdgeFollows     = "follows"
	EdgeContradicts = "contradicts"
	EdgeElaborates  = "elaborates"
)

// UserProgress holds spaced-repetition state, one row per (user, card),
// upserted on every study answer.
type UserProgress struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	CardID       uuid.UUID  `json:"card_id" db:"card_id"`
	Reviews      int        `json:"reviews" db:"reviews"`
	CorrectCount int        `json:"correct_count" db:"correct_count"`
	EaseFactor   float64    `json:"ease_factor" db:"ease_factor"`
	IntervalDays int        `json:"interval_days" db:"interval_days"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty" db:"last_reviewed"`
	NextReview   *time.Time `json:"next_review,omitempty" db:"next_review"`
}

// Branch is a directed relatedness edge between two cards. Branches are
// created manually or by external tooling, never by the pipeline.
type Branch struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	FromCardID uuid.UUID `json:"from_card_id" db:"from_card_id"`
	ToCardID   uuid.UUID `json:"to_card_id" db:"to_card_id"`
	EdgeType   string    `json:"edge_type" db:"edge_type"`
	Strength   float64   `json:"strength" db:"strength"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func ValidEdgeType(et string) bool {
	switch et {
	case EdgeRelated, EdgeFollows, EdgeContradicts, EdgeElaborates:
		return true
	}
	return false
}
