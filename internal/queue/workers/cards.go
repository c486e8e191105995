package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/mementolabs/deckgen/internal/cards"
	"github.com/mementolabs/deckgen/internal/queue"
	"github.com/mementolabs/deckgen/internal/userctx"
)

type CardsWorker struct {
	generator *cards.Generator
}

func NewCardsWorker(gen *cards.Generator) *CardsWorker {
	return &CardsWorker{generator: gen}
}

func (w *CardsWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.CardsGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	deckID, err := uuid.Parse(payload.DeckID)
	if err != nil {
		return fmt.Errorf("parse deck id: %w", err)
	}
	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}

	ctx = userctx.WithUserID(ctx, userID)

	slog.Info("generating cards", "deck_id", deckID)

	res, err := w.generator.GenerateForDeck(ctx, deckID, payload.MaxCards, payload.Category)
	if err != nil {
		return fmt.Errorf("generate cards: %w", err)
	}

	slog.Info("cards generated",
		"deck_id", deckID, "count", res.Count, "fallback", res.UsedFallback)
	return nil
}
