// Package server wires the document CRUD and transform endpoints to the
// pipeline components: imaging, composition, OCR and exporters.
package server

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scandock/scandock/internal/compose"
	"github.com/scandock/scandock/internal/config"
	"github.com/scandock/scandock/internal/export"
	"github.com/scandock/scandock/internal/ocr"
	"github.com/scandock/scandock/internal/storage"
)

// Server holds the request-independent collaborators. All per-request state
// (uploads, buffers, temp files) is owned by individual handlers; Server is
// safe for concurrent use.
type Server struct {
	cfg      *config.Config
	logger   *logrus.Logger
	store    storage.Storage
	composer *compose.Composer
	engine   ocr.Engine
}

// New assembles a Server from its collaborators. The OCR engine is injected
// so tests can substitute a stub for the external recognition backend.
func New(cfg *config.Config, logger *logrus.Logger, store storage.Storage, engine ocr.Engine) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		composer: compose.New(logger),
		engine:   engine,
	}
}

// Handler returns the full route table wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Document metadata CRUD.
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("POST /api/documents", s.handleCreateDocument)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("PUT /api/documents/{id}", s.handleUpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)

	// Transform pipeline.
	mux.HandleFunc("POST /api/ocr", s.handleOCR)
	mux.HandleFunc("POST /api/signature", s.handleSignature)
	mux.HandleFunc("POST /api/pdf/protect", s.handleProtect)
	mux.HandleFunc("POST /api/pdf/merge", s.handleMerge)
	mux.HandleFunc("POST /api/export/docx", s.exportHandler(export.DOCX, export.MIMEDocx, export.ExtDocx))
	mux.HandleFunc("POST /api/export/xlsx", s.exportHandler(export.XLSX, export.MIMEXlsx, export.ExtXlsx))
	mux.HandleFunc("POST /api/export/txt", s.exportHandler(export.TXT, export.MIMETxt, export.ExtTxt))

	return s.logRequests(mux)
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      recorder.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("Request completed")
	})
}
