package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/stitcher/internal/config"
	"github.com/lehigh-university-libraries/stitcher/internal/models"
	"github.com/lehigh-university-libraries/stitcher/internal/ordering"
	"github.com/lehigh-university-libraries/stitcher/internal/session"
	"github.com/lehigh-university-libraries/stitcher/internal/stitch"
	"github.com/lehigh-university-libraries/stitcher/internal/storage"
)

type Handler struct {
	sessionStore *storage.SessionStore
	blobs        *storage.BlobStore
	stitcher     *stitch.Service
	cfg          *config.Config
}

func New(cfg *config.Config, blobs *storage.BlobStore, stitcher *stitch.Service) *Handler {
	h := &Handler{
		blobs:    blobs,
		stitcher: stitcher,
		cfg:      cfg,
	}
	h.sessionStore = storage.New(cfg.MaxSessions, h.releaseSession)
	return h
}

// Routes registers every API route on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleSessionDetail)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleSessionDetail)
	mux.HandleFunc("POST /api/sessions/{id}/clear", h.HandleClear)
	mux.HandleFunc("POST /api/sessions/{id}/images", h.HandleUpload)
	mux.HandleFunc("DELETE /api/sessions/{id}/images/{entry}", h.HandleRemoveImage)
	mux.HandleFunc("POST /api/sessions/{id}/gestures", h.HandleGesture)
	mux.HandleFunc("POST /api/sessions/{id}/stitch", h.HandleStitch)
	mux.HandleFunc("GET /api/sessions/{id}/result", h.HandleResult)
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, data, http.StatusOK)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeDomainError maps list errors onto status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ordering.ErrNotFound):
		h.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ordering.ErrDuplicateID):
		h.writeError(w, err.Error(), http.StatusConflict)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*session.Session, bool) {
	sess, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (h *Handler) releaseEntries(entries []models.ImageEntry) {
	for _, e := range entries {
		if e.Source.Kind == models.SourceBlob {
			h.blobs.Delete(e.Source.Key)
		}
	}
}

func (h *Handler) releaseSession(sess *session.Session) {
	h.releaseEntries(sess.List.OrderedEntries())
}
