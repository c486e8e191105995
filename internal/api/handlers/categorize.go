package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mementolabs/deckgen/internal/categorize"
	"github.com/mementolabs/deckgen/internal/document"
)

type CategorizeHandler struct {
	categorizer *categorize.Service
}

func NewCategorizeHandler(c *categorize.Service) *CategorizeHandler {
	return &CategorizeHandler{categorizer: c}
}

// Categorize classifies a document synchronously and returns the label.
func (h *CategorizeHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	category, err := h.categorizer.CategorizeDocument(r.Context(), id)
	if errors.Is(err, document.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"document_id": id.String(),
		"category":    category,
	})
}
