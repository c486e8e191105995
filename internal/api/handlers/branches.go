package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mementolabs/deckgen/internal/graph"
)

type BranchHandler struct {
	graph *graph.Service
}

func NewBranchHandler(g *graph.Service) *BranchHandler {
	return &BranchHandler{graph: g}
}

type createBranchRequest struct {
	FromCardID string  `json:"from_card_id"`
	ToCardID   string  `json:"to_card_id"`
	EdgeType   string  `json:"edge_type"`
	Strength   float64 `json:"strength"`
}

func (h *BranchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBranchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fromID, err := uuid.Parse(req.FromCardID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from_card_id")
		return
	}
	toID, err := uuid.Parse(req.ToCardID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to_card_id")
		return
	}

	b, err := h.graph.Create(r.Context(), graph.CreateRequest{
		FromCardID: fromID,
		ToCardID:   toID,
		EdgeType:   req.EdgeType,
		Strength:   req.Strength,
	})
	if errors.Is(err, graph.ErrInvalidEdge) || errors.Is(err, graph.ErrSelfEdge) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, b)
}

func (h *BranchHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 50
	}

	branches, err := h.graph.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"branches": branches, "count": len(branches)})
}

// ForCard lists branches touching one card.
func (h *BranchHandler) ForCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card ID")
		return
	}

	branches, err := h.graph.ForCard(r.Context(), cardID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"branches": branches, "count": len(branches)})
}

func (h *BranchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid branch ID")
		return
	}

	if err := h.graph.Delete(r.Context(), id); err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			writeError(w, http.StatusNotFound, "branch not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
