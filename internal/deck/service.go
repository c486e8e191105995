package deck

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mementolabs/deckgen/internal/models"
	"github.com/mementolabs/deckgen/internal/userctx"
)

var ErrNotFound = errors.New("deck not found")

const deckColumns = `id, user_id, title, coalesce(description, ''), status,
	coalesce(settings, '{}'), created_at, updated_at`

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, title, description string) (*models.Deck, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO decks (id, user_id, title, description, status)
		 VALUES ($1, $2, $3, nullif($4, ''), $5)
		 RETURNING `+deckColumns,
		uuid.New(), userctx.UserID(ctx), title, description, models.StatusPending,
	)
	d, err := scanDeck(row)
	if err != nil {
		return nil, fmt.Errorf("insert deck: %w", err)
	}
	return d, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Deck, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+deckColumns+` FROM decks WHERE id = $1 AND user_id = $2`,
		id, userctx.UserID(ctx),
	)
	d, err := scanDeck(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Deck, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+deckColumns+` FROM decks
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userctx.UserID(ctx), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var decks []models.Deck
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		decks = append(decks, *d)
	}
	return decks, rows.Err()
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE decks SET status = $1, updated_at = now() WHERE id = $2 AND user_id = $3`,
		status, id, userctx.UserID(ctx),
	)
	if err != nil {
		return fmt.Errorf("update deck status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkDocument attaches a document to a deck. The pipeline creates one
// link per auto-generated deck; duplicates are ignored.
func (s *Service) LinkDocument(ctx context.Context, deckID, documentID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO deck_documents (deck_id, document_id, user_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (deck_id, document_id) DO NOTHING`,
		deckID, documentID, userctx.UserID(ctx),
	)
	if err != nil {
		return fmt.Errorf("link document to deck: %w", err)
	}
	return nil
}

// DocumentIDs returns the documents feeding a deck.
func (s *Service) DocumentIDs(ctx context.Context, deckID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx,
		`SELECT document_id FROM deck_documents WHERE deck_id = $1 AND user_id = $2`,
		deckID, userctx.UserID(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("query deck documents: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ForDocument finds the deck already linked to a document, if any.
func (s *Service) ForDocument(ctx context.Context, documentID uuid.UUID) (*models.Deck, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+deckColumns+` FROM decks d
		 WHERE d.user_id = $2
		   AND d.id IN (SELECT deck_id FROM deck_documents WHERE document_id = $1)
		 ORDER BY d.created_at DESC
		 LIMIT 1`,
		documentID, userctx.UserID(ctx),
	)
	d, err := scanDeck(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// NewCard is a generated card awaiting persistence.
type NewCard struct {
	ChunkID    uuid.UUID
	FrontText  string
	BackText   string
	Difficulty string
}

// CompleteWithCards persists cards, their deck_cards ordering rows
// (positions 0..N-1 in insertion order) and the completed status in a
// single transaction. A concurrent status poller can therefore never
// observe a completed deck with zero cards.
func (s *Service) CompleteWithCards(ctx context.Context, deckID uuid.UUID, cards []NewCard) ([]models.Card, error) {
	userID := userctx.UserID(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := make([]models.Card, 0, len(cards))
	for pos, c := range cards {
		difficulty := c.Difficulty
		if difficulty == "" {
			difficulty = models.DifficultyMedium
		}

		var card models.Card
		err := tx.QueryRow(ctx,
			`INSERT INTO cards (id, user_id, chunk_id, front_text, back_text, difficulty)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, user_id, chunk_id, front_text, back_text, difficulty, coalesce(metadata, '{}'), created_at`,
			uuid.New(), userID, c.ChunkID, c.FrontText, c.BackText, difficulty,
		).Scan(&card.ID, &card.UserID, &card.ChunkID, &card.FrontText, &card.BackText,
			&card.Difficulty, &card.Metadata, &card.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert card %d: %w", pos, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO deck_cards (id, deck_id, card_id, user_id, position)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), deckID, card.ID, userID, pos,
		)
		if err != nil {
			return nil, fmt.Errorf("insert deck card %d: %w", pos, err)
		}

		inserted = append(inserted, card)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE decks SET status = $1, updated_at = now() WHERE id = $2 AND user_id = $3`,
		models.StatusCompleted, deckID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("complete deck: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cards: %w", err)
	}
	return inserted, nil
}

// CardsByDeck returns a deck's cards in position order.
func (s *Service) CardsByDeck(ctx context.Context, deckID uuid.UUID) ([]models.Card, error) {
	rows, err := s.db.Query(ctx,
		`SELECT c.id, c.user_id, c.chunk_id, c.front_text, c.back_text, c.difficulty,
		        coalesce(c.metadata, '{}'), c.created_at
		 FROM deck_cards dc
		 JOIN cards c ON c.id = dc.card_id
		 WHERE dc.deck_id = $1 AND dc.user_id = $2
		 ORDER BY dc.position`,
		deckID, userctx.UserID(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("query deck cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.UserID, &c.ChunkID, &c.FrontText, &c.BackText,
			&c.Difficulty, &c.Metadata, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// CardCount reports how many cards a deck holds.
func (s *Service) CardCount(ctx context.Context, deckID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM deck_cards WHERE deck_id = $1 AND user_id = $2`,
		deckID, userctx.UserID(ctx),
	).Scan(&n)
	return n, err
}

func scanDeck(row pgx.Row) (*models.Deck, error) {
	var d models.Deck
	err := row.Scan(&d.ID, &d.UserID, &d.Title, &d.Description, &d.Status,
		&d.Settings, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
