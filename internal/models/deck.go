package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Card difficulty values match the card_difficulty enum.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Card is a two-sided learning unit derived from a chunk. Several cards
// may reference the same chunk.
type Card struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     uuid.UUID       `json:"user_id" db:"user_id"`
	ChunkID    uuid.UUID       `json:"chunk_id" db:"chunk_id"`
	FrontText  string          `json:"front_text" db:"front_text"`
	BackText   string          `json:"back_text" db:"back_text"`
	Difficulty string          `json:"difficulty" db:"difficulty"`
	Metadata   json.RawMessage `json:"metadata" db:"metadata"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Deck groups cards for a study session. Status is monotonic on the
// happy path: pending -> processing -> completed, or -> failed.
type Deck struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description,omitempty" db:"description"`
	Status      string          `json:"status" db:"status"`
	Settings    json.RawMessage `json:"settings" db:"settings"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// DeckDocument links a deck to a document. The schema allows
// many-to-many; the pipeline creates one link per auto-generated deck.
type DeckDocument struct {
	DeckID     uuid.UUID `json:"deck_id" db:"deck_id"`
	DocumentID uuid.UUID `json:"document_id" db:"document_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
}

// DeckCard orders a card within a deck. position is dense and 0-based,
// unique per deck.
type DeckCard struct {
	ID       uuid.UUID `json:"id" db:"id"`
	DeckID   uuid.UUID `json:"deck_id" db:"deck_id"`
	CardID   uuid.UUID `json:"card_id" db:"card_id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	Position int       `json:"position" db:"position"`
	AddedAt  time.Time `json:"added_at" db:"added_at"`
}
