// Package ocr adapts an external OCR engine into the plain-text extraction
// result the transform endpoints serve. The engine itself is a black box
// behind the Engine interface; this package owns the post-processing:
// trimming, word counting and confidence rounding.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// DefaultLanguage is the recognition language used when the caller supplies
// none.
const DefaultLanguage = "eng"

// ErrExtractionFailed wraps any engine-level failure. Raw engine errors are
// carried for logging but must never be surfaced to API clients directly.
var ErrExtractionFailed = errors.New("text extraction failed")

// Input is a single encoded image submitted for recognition.
type Input struct {
	// Image holds encoded image bytes (PNG or JPEG).
	Image []byte
	// Languages lists trained-data hints such as "eng" or "deu".
	Languages []string
}

// Result is the raw engine output before post-processing.
type Result struct {
	// Text is the recognized text as returned by the engine.
	Text string
	// Confidence is the engine's mean confidence in [0,100].
	Confidence float64
}

// Engine is the OCR provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// Extraction is the normalized, client-facing extraction result.
type Extraction struct {
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
	WordCount  int    `json:"wordCount"`
}

// Extract runs the engine on an image and normalizes its output: text is
// trimmed, the word count is computed over the trimmed text, and confidence
// is rounded to the nearest integer and clamped to [0,100].
func Extract(ctx context.Context, engine Engine, image []byte, languages ...string) (Extraction, error) {
	if len(languages) == 0 {
		languages = []string{DefaultLanguage}
	}

	res, err := engine.Recognize(ctx, Input{Image: image, Languages: languages})
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %s: %v", ErrExtractionFailed, engine.Name(), err)
	}

	text := strings.TrimSpace(res.Text)
	confidence := int(math.Round(res.Confidence))
	if confidence < 0 {
		confidence = 0
	} else if confidence > 100 {
		confidence = 100
	}

	return Extraction{
		Text:       text,
		Confidence: confidence,
		WordCount:  WordCount(text),
	}, nil
}

// WordCount counts the non-empty whitespace-delimited tokens of the trimmed
// text. The empty string counts zero words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
