package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/mementolabs/deckgen/internal/progress"
)

type StudyHandler struct {
	progress *progress.Service
}

func NewStudyHandler(p *progress.Service) *StudyHandler {
	return &StudyHandler{progress: p}
}

type answerRequest struct {
	CardID  string `json:"card_id"`
	Correct bool   `json:"correct"`
}

// Answer records one study answer and returns the updated schedule.
func (h *StudyHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card ID")
		return
	}

	p, err := h.progress.RecordAnswer(r.Context(), cardID, req.Correct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Due lists the caller's cards that are due for review.
func (h *StudyHandler) Due(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	due, err := h.progress.Due(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"due": due, "count": len(due)})
}
