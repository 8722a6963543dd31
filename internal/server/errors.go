package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/scandock/scandock/internal/compose"
	"github.com/scandock/scandock/internal/imaging"
	"github.com/scandock/scandock/internal/ocr"
	"github.com/scandock/scandock/internal/storage"
)

// ValidationError is a client-caused request problem, surfaced as 400 with
// its message intact. Anything else maps to a fixed message so library and
// engine errors never leak to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// errorStatus maps a pipeline error to an HTTP status and a client-facing
// message. Undecodable uploads are treated as client errors; engine and
// library failures stay generic.
func errorStatus(err error) (int, string) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "Document not found"
	case errors.Is(err, imaging.ErrUnsupportedImage):
		return http.StatusBadRequest, "Unsupported image format"
	case errors.Is(err, compose.ErrNoPages):
		return http.StatusBadRequest, "None of the uploaded files contain a readable page"
	case errors.Is(err, ocr.ErrExtractionFailed):
		return http.StatusInternalServerError, "Text extraction failed. Please try a clearer image."
	default:
		return http.StatusInternalServerError, "Failed to process document"
	}
}
