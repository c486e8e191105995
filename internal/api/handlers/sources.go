package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mementolabs/deckgen/internal/document"
	"github.com/mementolabs/deckgen/internal/models"
	"github.com/mementolabs/deckgen/internal/pipeline"
	"github.com/mementolabs/deckgen/internal/queue"
	"github.com/mementolabs/deckgen/internal/source"
	"github.com/mementolabs/deckgen/internal/storage"
	"github.com/mementolabs/deckgen/internal/userctx"
)

const maxUploadSize = 32 << 20

type SourceHandler struct {
	sources      *source.Service
	documents    *document.Service
	blobs        storage.Storage
	tasks        *queue.Client
	orchestrator *pipeline.Orchestrator
}

func NewSourceHandler(sources *source.Service, documents *document.Service, blobs storage.Storage, tasks *queue.Client, orch *pipeline.Orchestrator) *SourceHandler {
	return &SourceHandler{sources: sources, documents: documents, blobs: blobs, tasks: tasks, orchestrator: orch}
}

// Upload accepts a multipart file, stores the blob, creates a pending
// source and enqueues a pipeline run for it.
func (h *SourceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	contentType := contentTypeFor(header.Filename, r.FormValue("content_type"))
	if !models.ValidContentType(contentType) || contentType == models.ContentTypeURL {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported content type %q", contentType))
		return
	}

	userID := userctx.UserID(r.Context())
	blobPath := fmt.Sprintf("%s/%s%s", userID, uuid.New(), filepath.Ext(header.Filename))
	if err := h.blobs.Upload(r.Context(), blobPath, file); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	src, err := h.sources.Create(r.Context(), source.CreateRequest{
		Title:       title,
		ContentType: contentType,
		FilePath:    blobPath,
		FileSize:    header.Size,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.enqueueProcess(w, src)
}

type createURLRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// CreateFromURL registers a URL source and enqueues its pipeline run.
// The fetch happens in the worker, not here.
func (h *SourceHandler) CreateFromURL(w http.ResponseWriter, r *http.Request) {
	var req createURLRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "url must be http or https")
		return
	}

	title := req.Title
	if title == "" {
		title = u.Host
	}

	src, err := h.sources.Create(r.Context(), source.CreateRequest{
		Title:       title,
		ContentType: models.ContentTypeURL,
		URL:         req.URL,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.enqueueProcess(w, src)
}

// Process runs the pipeline synchronously for an existing source and
// returns the run result, for retrying failed runs or for clients that
// want to block until the deck exists. The redis lock rejects a run
// that is already in flight.
func (h *SourceHandler) Process(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source ID")
		return
	}

	res, err := h.orchestrator.Run(r.Context(), id)
	if errors.Is(err, source.ErrNotFound) {
		writeError(w, http.StatusNotFound, "source not found")
		return
	}
	if errors.Is(err, pipeline.ErrAlreadyRunning) {
		writeError(w, http.StatusConflict, "source is already being processed")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *SourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source ID")
		return
	}

	src, err := h.sources.GetByID(r.Context(), id)
	if errors.Is(err, source.ErrNotFound) {
		writeError(w, http.StatusNotFound, "source not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, src)
}

func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}

	sources, err := h.sources.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sources": sources, "count": len(sources)})
}

// Status reports the source status together with its document's, so a
// poller gets the whole pipeline picture in one call.
func (h *SourceHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source ID")
		return
	}

	src, err := h.sources.GetByID(r.Context(), id)
	if errors.Is(err, source.ErrNotFound) {
		writeError(w, http.StatusNotFound, "source not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{"id": src.ID, "status": src.Status}
	if doc, err := h.documents.GetBySourceID(r.Context(), src.ID); err == nil {
		resp["document_id"] = doc.ID
		resp["document_status"] = doc.Status
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SourceHandler) enqueueProcess(w http.ResponseWriter, src *models.Source) {
	err := h.tasks.EnqueueSourceProcess(queue.SourceProcessPayload{
		SourceID: src.ID.String(),
		UserID:   src.UserID.String(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue processing")
		return
	}
	writeJSON(w, http.StatusAccepted, src)
}

// contentTypeFor resolves a source content type from an explicit form
// value first, then the file extension.
func contentTypeFor(filename, explicit string) string {
	if explicit != "" {
		return explicit
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return models.ContentTypePDF
	case ".html", ".htm":
		return models.ContentTypeHTML
	case ".md", ".markdown":
		return models.ContentTypeMarkdown
	default:
		return models.ContentTypeTxt
	}
}
