package export

import (
	"bytes"
	"fmt"

	"github.com/fumiama/go-docx"
)

// docxFontSize is the fixed run size in half-points (12pt).
const docxFontSize = "24"

// DOCX builds a word-processing document with one paragraph per line of the
// input text. Empty lines become a paragraph containing a single space so
// visual blank lines survive the round trip.
func DOCX(text string) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	for _, line := range splitLines(text) {
		if line == "" {
			line = " "
		}
		para := doc.AddParagraph()
		para.AddText(line).Size(docxFontSize)
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize DOCX: %w", err)
	}
	return buf.Bytes(), nil
}
