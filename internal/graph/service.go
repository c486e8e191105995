// Package graph manages branches, the directed edges linking related
// cards into a knowledge graph.
package graph

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

var (
	ErrNotFound    = errors.New("branch not found")
	ErrInvalidEdge = errors.New("invalid edge type")
	ErrSelfEdge    = errors.New("branch cannot link a card to itself")
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

type CreateRequest struct {
	FromCardID uuid.UUID
	ToCardID   uuid.UUID
	EdgeType   string
	Strength   float64
}

// Create inserts a branch between two of the caller's cards. Strength
// defaults to 1.0 and is clamped to [0, 1].
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Branch, error) {
	if !models.ValidEdgeType(req.EdgeType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEdge, req.EdgeType)
	}
	if req.FromCardID == req.ToCardID {
		return nil, ErrSelfEdge
	}

	strength := req.Strength
	if strength <= 0 {
		strength = 1.0
	}
	if strength > 1 {
		strength = 1.0
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO branches (id, user_id, from_card_id, to_card_id, edge_type, strength)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, from_card_id, to_card_id, edge_type)
		 DO UPDATE SET strength = excluded.strength
		 RETURNING id, user_id, from_card_id, to_card_id, edge_type, strength, created_at`,
		uuid.New(), userctx.UserID(ctx), req.FromCardID, req.ToCardID, req.EdgeType, strength,
	)
	return scanBranch(row)
}

// List returns the caller's branches, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Branch, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, from_card_id, to_card_id, edge_type, strength, created_at
		 FROM branches
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userctx.UserID(ctx), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var branches []models.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, *b)
	}
	return branches, rows.Err()
}

// ForCard lists branches touching a card in either direction.
func (s *Service) ForCard(ctx context.Context, cardID uuid.UUID) ([]models.Branch, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, from_card_id, to_card_id, edge_type, strength, created_at
		 FROM branches
		 WHERE user_id = $1 AND (from_card_id = $2 OR to_card_id = $2)
		 ORDER BY created_at DESC`,
		userctx.UserID(ctx), cardID,
	)
	if err != nil {
		return nil, fmt.Errorf("query branches: %w", err)
	}
	defer rows.Close()

	var branches []models.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, *b)
	}
	return branches, rows.Err()
}

// Delete removes one of the caller's branches.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM branches WHERE id = $1 AND user_id = $2`,
		id, userctx.UserID(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBranch(row pgx.Row) (*models.Branch, error) {
	var b models.Branch
	err := row.Scan(&b.ID, &b.UserID, &b.FromCardID, &b.ToCardID, &b.EdgeType, &b.Strength, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
