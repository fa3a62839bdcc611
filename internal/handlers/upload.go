package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/lehigh-university-libraries/stitcher/internal/models"
	"github.com/lehigh-university-libraries/stitcher/internal/session"
)

// Rejection explains why one intake item was refused.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type intakeResponse struct {
	SessionID string              `json:"session_id"`
	Entries   []models.ImageEntry `json:"entries"`
	Rejected  []Rejection         `json:"rejected"`
}

// HandleUpload appends images to a session. Multipart uploads use the
// "files" (or "file") field; a JSON body carries "image_url" or "image_urls".
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	// Check if this is a JSON request with image URLs
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleURLUpload(w, r, sess)
		return
	}

	// Handle file upload
	h.handleFileUpload(w, r, sess)
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var request struct {
		ImageURL  string   `json:"image_url"`
		ImageURLs []string `json:"image_urls"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	urls := request.ImageURLs
	if request.ImageURL != "" {
		urls = append([]string{request.ImageURL}, urls...)
	}
	if len(urls) == 0 {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	resp := intakeResponse{SessionID: sess.ID, Entries: []models.ImageEntry{}, Rejected: []Rejection{}}
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			resp.Rejected = append(resp.Rejected, Rejection{Name: raw, Reason: "Invalid URL. Only http and https image URLs are allowed."})
			continue
		}

		// Extract filename from URL
		label := path.Base(u.Path)
		if label == "" || label == "." || label == "/" {
			label = "image"
		}

		entry := models.NewEntry(models.URLRef(raw), label)
		if err := sess.List.Append(entry); err != nil {
			h.writeDomainError(w, err)
			return
		}
		resp.Entries = append(resp.Entries, entry)
	}

	h.finishIntake(w, resp)
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	// Allow a little headroom for the multipart framing itself
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes*8)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		h.writeError(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		h.writeError(w, "No files in upload", http.StatusBadRequest)
		return
	}

	resp := intakeResponse{SessionID: sess.ID, Entries: []models.ImageEntry{}, Rejected: []Rejection{}}
	for _, header := range headers {
		data, err := h.readUploadedFile(header)
		if err != nil {
			resp.Rejected = append(resp.Rejected, Rejection{Name: header.Filename, Reason: err.Error()})
			continue
		}

		fileType := header.Header.Get("Content-Type")
		if fileType == "" || fileType == "application/octet-stream" {
			fileType = http.DetectContentType(data)
		}
		if !strings.HasPrefix(fileType, "image/") {
			resp.Rejected = append(resp.Rejected, Rejection{
				Name:   header.Filename,
				Reason: fmt.Sprintf("Invalid file type. Only image files are allowed. File: %s", header.Filename),
			})
			continue
		}

		entry := models.NewEntry(models.BlobRef(""), header.Filename)
		entry.Source.Key = entry.ID
		h.blobs.Put(entry.Source.Key, data)
		if err := sess.List.Append(entry); err != nil {
			h.blobs.Delete(entry.Source.Key)
			h.writeDomainError(w, err)
			return
		}
		resp.Entries = append(resp.Entries, entry)
		slog.Info("Image added", "session_id", sess.ID, "id", entry.ID, "label", entry.Label, "bytes", len(data))
	}

	h.finishIntake(w, resp)
}

func (h *Handler) readUploadedFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	if int64(len(fileData)) > h.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("file too large (max %d bytes)", h.cfg.MaxUploadBytes)
	}
	return fileData, nil
}

func (h *Handler) finishIntake(w http.ResponseWriter, resp intakeResponse) {
	for _, rej := range resp.Rejected {
		slog.Warn("Image rejected", "session_id", resp.SessionID, "name", rej.Name, "reason", rej.Reason)
	}
	if len(resp.Entries) == 0 {
		h.writeJSONStatus(w, resp, http.StatusBadRequest)
		return
	}
	h.writeJSON(w, resp)
}
