package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/lehigh-university-libraries/stitcher/internal/models"
	"github.com/lehigh-university-libraries/stitcher/internal/session"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		sessionList := make([]session.Summary, 0, len(sessions))
		for _, sess := range sessions {
			sessionList = append(sessionList, sess.Summary())
		}
		sort.Slice(sessionList, func(i, j int) bool {
			return sessionList[i].CreatedAt.Before(sessionList[j].CreatedAt)
		})
		h.writeJSON(w, sessionList)
	case "POST":
		sess := session.New(h.cfg.RowHeight)
		h.sessionStore.Set(sess.ID, sess)
		slog.Info("Session created", "session_id", sess.ID)
		h.writeJSONStatus(w, sess.Summary(), http.StatusCreated)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	sess, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, sess.Summary())
	case "DELETE":
		h.sessionStore.Delete(sessionID)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleClear empties the list and discards the current raster.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	h.releaseEntries(sess.Reset())
	h.writeJSON(w, sess.Summary())
}

func (h *Handler) HandleRemoveImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	entryID := r.PathValue("entry")
	if e, found := sess.List.Get(entryID); found && sess.Remove(entryID) {
		h.releaseEntries([]models.ImageEntry{e})
	}
	h.writeJSON(w, sess.Summary())
}
