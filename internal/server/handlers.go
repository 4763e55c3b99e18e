package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/idelchi/qtdfp/internal/service"
	"github.com/idelchi/qtdfp/internal/vault"
)

// Protocol is reported by the health endpoint.
const Protocol = "Q-TDFP"

// fileResponse is the public view of a record. It never carries the
// fingerprint or checksum.
type fileResponse struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	OriginalSize  int64     `json:"original_size"`
	EncryptedSize int64     `json:"encrypted_size"`
	CreatedAt     time.Time `json:"created_at"`
}

func newFileResponse(rec vault.Record) fileResponse {
	return fileResponse{
		ID:            rec.ID,
		Filename:      rec.Filename,
		OriginalSize:  rec.OriginalSize,
		EncryptedSize: rec.EncryptedSize,
		CreatedAt:     rec.CreatedAt,
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "active",
		"protocol": Protocol,
		"version":  s.opts.Version,
	})
}

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	if s.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		s.writeFormError(w, err)

		return
	}

	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temporary upload files

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Missing file")

		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeFormError(w, err)

		return
	}

	rec, err := s.files.Encrypt(r.Context(), header.Filename, data, r.FormValue("password"))

	switch {
	case errors.Is(err, service.ErrInvalidPassword):
		s.writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
	case err != nil:
		s.writeServiceError(w, err)
	default:
		s.writeJSON(w, http.StatusOK, newFileResponse(rec))
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.files.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)

		return
	}

	out := make([]fileResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, newFileResponse(rec))
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	rec, plain, err := s.files.Decrypt(r.Context(), r.PathValue("id"), r.FormValue("password"))

	switch {
	case errors.Is(err, service.ErrInvalidPassword):
		s.writeError(w, http.StatusBadRequest, "Invalid password")

		return
	case err != nil:
		s.writeServiceError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", contentDisposition(rec.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(plain)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(plain); err != nil {
		s.log.WithError(err).WithField("id", rec.ID).Warn("writing response")
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.files.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// writeServiceError maps service errors to status codes. Unknown errors are
// logged and reported without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "File not found")
	case errors.Is(err, service.ErrEmptyFile),
		errors.Is(err, service.ErrCorrupted),
		errors.Is(err, service.ErrDecryptionFailed):
		s.writeError(w, http.StatusBadRequest, capitalize(err.Error()))
	default:
		s.log.WithError(err).Error("request failed")
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) writeFormError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit))

		return
	}

	s.writeError(w, http.StatusBadRequest, "Malformed upload")
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("encoding response")
	}
}

var dispositionEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "")

func contentDisposition(filename string) string {
	return `attachment; filename="` + dispositionEscaper.Replace(filename) + `"`
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
