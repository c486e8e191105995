// Package progress tracks per-card spaced-repetition state. The
// scheduling model is a simplified SM-2: correct answers grow the ease
// factor and push the next review out a day, incorrect answers shrink
// it and bring the card back within the hour.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mementolabs/deckgen/internal/models"
	"github.com/mementolabs/deckgen/internal/userctx"
)

var ErrNotFound = errors.New("progress not found")

const (
	defaultEase = 2.5
	minEase     = 1.3
	maxEase     = 3.0
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// RecordAnswer upserts the (user, card) progress row for one study
// answer. Correct answers schedule the next review 24 hours out,
// incorrect answers 1 hour out.
func (s *Service) RecordAnswer(ctx context.Context, cardID uuid.UUID, correct bool) (*models.UserProgress, error) {
	userID := userctx.UserID(ctx)

	now := time.Now().UTC()
	next := now.Add(time.Hour)
	easeDelta := -0.2
	correctInc := 0
	intervalDays := 0
	if correct {
		next = now.Add(24 * time.Hour)
		easeDelta = 0.1
		correctInc = 1
		intervalDays = 1
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO user_progress
		   (id, user_id, card_id, reviews, correct_count, ease_factor, interval_days, last_reviewed, next_review)
		 VALUES ($1, $2, $3, 1, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, card_id) DO UPDATE SET
		   reviews       = user_progress.reviews + 1,
		   correct_count = user_progress.correct_count + $4,
		   ease_factor   = least($10, greatest($9, user_progress.ease_factor + $11)),
		   interval_days = $6,
		   last_reviewed = $7,
		   next_review   = $8
		 RETURNING id, user_id, card_id, reviews, correct_count, ease_factor,
		   interval_days, last_reviewed, next_review`,
		uuid.New(), userID, cardID, correctInc,
		clampEase(defaultEase+easeDelta), intervalDays, now, next,
		minEase, maxEase, easeDelta,
	)
	return scanProgress(row)
}

// ForCard returns the caller's progress for one card.
func (s *Service) ForCard(ctx context.Context, cardID uuid.UUID) (*models.UserProgress, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, user_id, card_id, reviews, correct_count, ease_factor,
		   interval_days, last_reviewed, next_review
		 FROM user_progress WHERE user_id = $1 AND card_id = $2`,
		userctx.UserID(ctx), cardID,
	)
	p, err := scanProgress(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Due lists cards whose next review time has passed, oldest first.
func (s *Service) Due(ctx context.Context, limit int) ([]models.UserProgress, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, card_id, reviews, correct_count, ease_factor,
		   interval_days, last_reviewed, next_review
		 FROM user_progress
		 WHERE user_id = $1 AND next_review <= now()
		 ORDER BY next_review
		 LIMIT $2`,
		userctx.UserID(ctx), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query due cards: %w", err)
	}
	defer rows.Close()

	var due []models.UserProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		due = append(due, *p)
	}
	return due, rows.Err()
}

func clampEase(ease float64) float64 {
	if ease < minEase {
		return minEase
	}
	if ease > maxEase {
		return maxEase
	}
	return ease
}

func scanProgress(row pgx.Row) (*models.UserProgress, error) {
	var p models.UserProgress
	err := row.Scan(&p.ID, &p.UserID, &p.CardID, &p.Reviews, &p.CorrectCount,
		&p.EaseFactor, &p.IntervalDays, &p.LastReviewed, &p.NextReview)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
