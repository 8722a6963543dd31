package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/scandock/scandock/internal/compose"
	"github.com/scandock/scandock/internal/imaging"
	"github.com/scandock/scandock/internal/ocr"
)

// Default signature placement when the client omits position or size fields.
const (
	defaultSignatureWidth  = 200
	defaultSignatureHeight = 100
)

// transformContext bounds a single transform request; OCR and image work are
// CPU-bound and only the upload ceiling limits input size.
func (s *Server) transformContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.cfg.TransformTimeout)
}

// handleOCR runs recognition over one uploaded image and returns the
// extracted text with confidence and word count.
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := s.saveUploads(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer cleanup()

	asset, ok := up.first("image")
	if !ok {
		s.respondError(w, r, validationErrorf("Image file is required"))
		return
	}
	raw, err := asset.read()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	normalized, err := imaging.Normalize(raw)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx, cancel := s.transformContext(r)
	defer cancel()

	extraction, err := ocr.Extract(ctx, s.engine, normalized.Data, s.cfg.OCRLanguages...)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, extraction)
}

// handleSignature composites an uploaded signature onto a document image at
// the caller-supplied placement and returns the result as PNG.
func (s *Server) handleSignature(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := s.saveUploads(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer cleanup()

	docAsset, ok := up.first("document")
	if !ok {
		s.respondError(w, r, validationErrorf("Document file is required"))
		return
	}
	sigAsset, ok := up.first("signature")
	if !ok {
		s.respondError(w, r, validationErrorf("Signature file is required"))
		return
	}

	placement := imaging.Placement{
		X:      formInt(up.value("x"), 0),
		Y:      formInt(up.value("y"), 0),
		Width:  formInt(up.value("width"), defaultSignatureWidth),
		Height: formInt(up.value("height"), defaultSignatureHeight),
	}
	if placement.Width <= 0 || placement.Height <= 0 {
		s.respondError(w, r, validationErrorf("Signature size must be positive"))
		return
	}

	docBytes, err := docAsset.read()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sigBytes, err := sigAsset.read()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx, cancel := s.transformContext(r)
	defer cancel()

	base, err := imaging.Normalize(docBytes)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := ctx.Err(); err != nil {
		s.respondError(w, r, err)
		return
	}

	signed, err := imaging.Overlay(base, sigBytes, placement)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondAttachment(w, "image/png", attachmentName(up.value("title"), ".png"), signed)
}

// handleProtect builds a password-protected PDF from an uploaded document.
// The password is validated before the upload is handed to the compositor.
func (s *Server) handleProtect(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := s.saveUploads(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer cleanup()

	password := up.value("password")
	if len(password) < 4 {
		s.respondError(w, r, validationErrorf("Password must be at least 4 characters"))
		return
	}

	asset, ok := up.first("document")
	if !ok {
		s.respondError(w, r, validationErrorf("Document file is required"))
		return
	}
	raw, err := asset.read()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	title := strings.TrimSpace(up.value("title"))

	ctx, cancel := s.transformContext(r)
	defer cancel()

	document := raw
	if !compose.IsPDF(raw) {
		normalized, err := imaging.Normalize(raw)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		document, err = s.composer.Compose(ctx, [][]byte{normalized.Data}, compose.Metadata{Title: title})
		if err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	protected, err := s.composer.Protect(ctx, document, password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondAttachment(w, "application/pdf", attachmentName(title, ".pdf"), protected)
}

// handleMerge combines two or more uploaded documents into one PDF, page
// order strictly following the upload field order.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := s.saveUploads(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer cleanup()

	assets := up.all("documents")
	if len(assets) < 2 {
		s.respondError(w, r, validationErrorf("At least 2 documents are required to merge"))
		return
	}

	inputs := make([][]byte, 0, len(assets))
	for _, asset := range assets {
		data, err := asset.read()
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		inputs = append(inputs, data)
	}

	ctx, cancel := s.transformContext(r)
	defer cancel()

	title := strings.TrimSpace(up.value("title"))
	merged, err := s.composer.Merge(ctx, inputs, compose.Metadata{Title: title})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondAttachment(w, "application/pdf", attachmentName(title, ".pdf"), merged)
}

// exportHandler runs OCR over one uploaded image and serializes the result
// with the given converter.
func (s *Server) exportHandler(convert func(string) ([]byte, error), contentType, ext string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, cleanup, err := s.saveUploads(w, r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		defer cleanup()

		asset, ok := up.first("image")
		if !ok {
			s.respondError(w, r, validationErrorf("Image file is required"))
			return
		}
		raw, err := asset.read()
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		normalized, err := imaging.Normalize(raw)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		ctx, cancel := s.transformContext(r)
		defer cancel()

		extraction, err := ocr.Extract(ctx, s.engine, normalized.Data, s.cfg.OCRLanguages...)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		artifact, err := convert(extraction.Text)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		s.respondAttachment(w, contentType, attachmentName(up.value("title"), ext), artifact)
	}
}

// formInt parses an integer form value, falling back to def when the value
// is absent or malformed.
func formInt(value string, def int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return n
}
