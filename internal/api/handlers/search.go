package handlers

import (
	"net/http"
	"strings"

	"github.com/mementolabs/deckgen/internal/embedding"
	"github.com/mementolabs/deckgen/internal/userctx"
	"github.com/mementolabs/deckgen/internal/vectorstore"
)

type SearchHandler struct {
	embedder *embedding.Service
	store    vectorstore.Store
}

func NewSearchHandler(embedder *embedding.Service, store vectorstore.Store) *SearchHandler {
	return &SearchHandler{embedder: embedder, store: store}
}

type searchRequest struct {
	Query    string  `json:"query"`
	TopK     int     `json:"top_k"`
	MinScore float64 `json:"min_score"`
}

// Search embeds the query and returns the caller's nearest chunks by
// cosine similarity.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}

	vector, err := h.embedder.EmbedQuery(r.Context(), req.Query)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to embed query")
		return
	}

	results, err := h.store.SemanticSearch(r.Context(), vector, vectorstore.SearchOptions{
		UserID:   userctx.UserID(r.Context()),
		TopK:     req.TopK,
		MinScore: req.MinScore,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}
