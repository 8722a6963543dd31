// Package export serializes extracted text into downloadable document
// formats. Each exporter is stateless and consumes plain text; recognition
// always happens upstream.
package export

import "strings"

// MIME types and file extensions for the supported export formats.
const (
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMETxt  = "text/plain; charset=utf-8"

	ExtDocx = ".docx"
	ExtXlsx = ".xlsx"
	ExtTxt  = ".txt"
)

// splitLines splits text on newline boundaries, tolerating CRLF input.
func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// TXT returns the trimmed text unchanged, byte for byte.
func TXT(text string) ([]byte, error) {
	return []byte(strings.TrimSpace(text)), nil
}
