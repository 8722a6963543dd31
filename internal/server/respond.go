package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/scandock/scandock/internal/compose"
)

// respondJSON writes a JSON response body with the given status.
func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// respondError translates err via errorStatus and writes the JSON error
// object. No partial binary is ever written on this path: handlers only call
// it before the first byte of an attachment goes out.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	entry := s.logger.WithError(err).WithFields(map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondAttachment streams a derived artifact as a download.
func (s *Server) respondAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		s.logger.WithError(err).Warn("Failed to stream attachment")
	}
}

// attachmentName derives the download filename from a caller-supplied title:
// whitespace runs become underscores, with a fixed default when no title was
// sent.
func attachmentName(title, ext string) string {
	base := strings.Join(strings.Fields(title), "_")
	if base == "" {
		base = strings.ReplaceAll(compose.DefaultTitle, " ", "_")
	}
	return base + ext
}
