package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lehigh-university-libraries/stitcher/internal/compose"
)

const exportFilename = "stitched-image.png"

// HandleStitch composes the session's current order into a new raster.
// The previous raster is discarded before decoding starts.
func (h *Handler) HandleStitch(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	var request struct {
		Mode       string `json:"mode"`
		KeepAspect *bool  `json:"keep_aspect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	opts := h.cfg.StitchOptions()
	if request.Mode != "" {
		mode, err := compose.ParseMode(request.Mode)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		opts.Mode = mode
	}
	if request.KeepAspect != nil {
		opts.KeepAspect = *request.KeepAspect
	}

	sess.SetResult(nil)
	result, err := h.stitcher.Stitch(r.Context(), sess, opts)
	if errors.Is(err, compose.ErrCanvasTooLarge) {
		h.writeError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		h.writeError(w, "Stitch failed: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	sess.SetResult(result.Raster)

	slog.Info("Session stitched", "session_id", sess.ID, "width", result.Width, "height", result.Height, "failed", len(result.Failures))
	h.writeJSON(w, result)
}

// HandleResult exports the current raster as PNG.
func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	raster := sess.Result()
	if raster == nil {
		h.writeError(w, "No stitched image yet", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf); err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Unable to write result", "session_id", sess.ID, "err", err)
	}
}
