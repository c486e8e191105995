// Package userctx carries the authenticated user through request and
// task contexts. Every persisted entity is scoped to exactly one user,
// so services read the id from here on each operation.
package userctx

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const userIDKey contextKey = "user_id"

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID returns the authenticated user's id, or uuid.Nil when the
// context is unauthenticated.
func UserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userIDKey).(uuid.UUID)
	return id
}
