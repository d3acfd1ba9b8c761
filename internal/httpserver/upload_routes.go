package httpserver

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"voxchat/internal/config"
)

// safeSegment reports whether s can be used as a single path element.
func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && filepath.Base(s) == s
}

// uploadTypeFor maps a file extension to the message payload kind
// clients should attach the upload as.
func uploadTypeFor(ext string) string {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return "image"
	case ".mp3", ".ogg", ".wav", ".m4a":
		return "audio"
	case ".mp4", ".webm", ".mov":
		return "video"
	default:
		return "file"
	}
}

// UploadRoutes returns a sub-router mounted at /api/uploads. Files are
// stored under a per-user directory with server-assigned uuid names, so
// client-chosen filenames never reach the filesystem.
func UploadRoutes(cfg *config.Config) chi.Router {
	r := chi.NewRouter()

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}

		// Expect a multipart/form-data request with a field named "file".
		if err := r.ParseMultipartForm(50 << 20); err != nil { // 50MB limit
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to parse multipart form"})
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file"})
			return
		}
		defer file.Close()

		ext := filepath.Ext(header.Filename)
		if ext == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file must have an extension"})
			return
		}

		filename := uuid.NewString() + ext
		userDir := filepath.Join(cfg.UploadDir, user.ID)
		if err := os.MkdirAll(userDir, 0o755); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not create upload dir"})
			return
		}

		out, err := os.Create(filepath.Join(userDir, filename))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not create file"})
			return
		}
		defer out.Close()

		if _, err := io.Copy(out, file); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not save file"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"file_url":  "/api/uploads/" + user.ID + "/" + filename,
			"file_type": uploadTypeFor(ext),
			"filename":  filename,
		})
	})

	r.Get("/{userID}/{filename}", func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		filename := chi.URLParam(r, "filename")
		if userID == "" || filename == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing path"})
			return
		}
		// Reject path traversal attempts in either segment.
		if !safeSegment(userID) || !safeSegment(filename) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid path"})
			return
		}
		http.ServeFile(w, r, filepath.Join(cfg.UploadDir, userID, filename))
	})

	return r
}
