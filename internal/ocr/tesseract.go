package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is the default Engine, backed by the gosseract client. A fresh
// client is created per recognition so concurrent requests never share
// engine state.
type Tesseract struct {
	languages []string
}

// NewTesseract constructs a Tesseract engine with the given default
// languages, falling back to DefaultLanguage when none are given.
func NewTesseract(languages ...string) *Tesseract {
	if len(languages) == 0 {
		languages = []string{DefaultLanguage}
	}
	return &Tesseract{languages: languages}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Recognize performs OCR on a single image. The mean confidence is derived
// from per-word confidences; an image with no recognizable words yields zero.
func (t *Tesseract) Recognize(ctx context.Context, in Input) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(in.Image); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}

	languages := in.Languages
	if len(languages) == 0 {
		languages = t.languages
	}
	if err := client.SetLanguage(languages...); err != nil {
		return Result{}, fmt.Errorf("set languages: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}

	return Result{Text: text, Confidence: meanWordConfidence(client)}, nil
}

// meanWordConfidence averages the per-word confidences reported by the
// engine, in [0,100].
func meanWordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, box := range boxes {
		sum += box.Confidence
	}
	return sum / float64(len(boxes))
}
