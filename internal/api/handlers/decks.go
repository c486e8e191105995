package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mementolabs/deckgen/internal/deck"
	"github.com/mementolabs/deckgen/internal/models"
	"github.com/mementolabs/deckgen/internal/queue"
)

type DeckHandler struct {
	decks *deck.Service
	tasks *queue.Client
}

func NewDeckHandler(decks *deck.Service, tasks *queue.Client) *DeckHandler {
	return &DeckHandler{decks: decks, tasks: tasks}
}

func (h *DeckHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}

	decks, err := h.decks.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"decks": decks, "count": len(decks)})
}

func (h *DeckHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck ID")
		return
	}

	d, err := h.decks.GetByID(r.Context(), id)
	if errors.Is(err, deck.ErrNotFound) {
		writeError(w, http.StatusNotFound, "deck not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// Cards returns a deck's cards in study order.
func (h *DeckHandler) Cards(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck ID")
		return
	}

	if _, err := h.decks.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, deck.ErrNotFound) {
			writeError(w, http.StatusNotFound, "deck not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cards, err := h.decks.CardsByDeck(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"cards": cards, "count": len(cards)})
}

type generateRequest struct {
	DeckID     string `json:"deck_id"`
	DocumentID string `json:"document_id"`
	MaxCards   int    `json:"max_cards"`
	Category   string `json:"category"`
}

// Generate enqueues card generation for an existing deck, used to
// regenerate cards outside a full pipeline run. The deck is named
// either directly or through a document linked to it.
func (h *DeckHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.resolveDeck(r, req)
	if errors.Is(err, deck.ErrNotFound) {
		writeError(w, http.StatusNotFound, "deck not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.tasks.EnqueueCardsGenerate(queue.CardsGeneratePayload{
		DeckID:   d.ID.String(),
		UserID:   d.UserID.String(),
		MaxCards: req.MaxCards,
		Category: req.Category,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue generation")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"deck_id": d.ID, "status": "queued"})
}

func (h *DeckHandler) resolveDeck(r *http.Request, req generateRequest) (*models.Deck, error) {
	if req.DeckID != "" {
		id, err := uuid.Parse(req.DeckID)
		if err != nil {
			return nil, fmt.Errorf("invalid deck ID")
		}
		return h.decks.GetByID(r.Context(), id)
	}
	if req.DocumentID != "" {
		id, err := uuid.Parse(req.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("invalid document ID")
		}
		return h.decks.ForDocument(r.Context(), id)
	}
	return nil, fmt.Errorf("deck_id or document_id required")
}
