// Package workers holds the asynq task handlers for the background
// pipeline. Each handler rebuilds the user context from its payload
// before touching user-scoped services.
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/mementolabs/deckgen/internal/pipeline"
	"github.com/mementolabs/deckgen/internal/queue"
	"github.com/mementolabs/deckgen/internal/userctx"
)

type SourceWorker struct {
	orchestrator *pipeline.Orchestrator
}

func NewSourceWorker(orch *pipeline.Orchestrator) *SourceWorker {
	return &SourceWorker{orchestrator: orch}
}

func (w *SourceWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.SourceProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	sourceID, err := uuid.Parse(payload.SourceID)
	if err != nil {
		return fmt.Errorf("parse source id: %w", err)
	}
	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}

	ctx = userctx.WithUserID(ctx, userID)

	slog.Info("processing source", "source_id", sourceID)

	res, err := w.orchestrator.Run(ctx, sourceID)
	if errors.Is(err, pipeline.ErrAlreadyRunning) {
		// Another worker holds the lock; dropping the task instead of
		// retrying avoids duplicate runs.
		slog.Info("source already being processed, skipping", "source_id", sourceID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	slog.Info("source processed",
		"source_id", sourceID, "document_id", res.DocumentID,
		"deck_id", res.DeckID, "cards", res.CardCount)
	return nil
}
