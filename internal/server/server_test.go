package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/scandock/scandock/internal/config"
	"github.com/scandock/scandock/internal/ocr"
	"github.com/scandock/scandock/internal/storage"
)

// stubEngine substitutes the external OCR backend in handler tests.
type stubEngine struct {
	result ocr.Result
	err    error
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Recognize(context.Context, ocr.Input) (ocr.Result, error) {
	return s.result, s.err
}

func newTestServer(t *testing.T, engine ocr.Engine) (*Server, string) {
	t.Helper()
	uploadDir := t.TempDir()
	cfg := &config.Config{
		Port:             0,
		UploadDir:        uploadDir,
		MaxUploadBytes:   config.DefaultMaxUploadBytes,
		OCRLanguages:     []string{"eng"},
		TransformTimeout: time.Minute,
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(cfg, logger, storage.NewMemory(), engine), uploadDir
}

// filePart is one file in a multipart request; slice order is wire order.
type filePart struct {
	field string
	name  string
	data  []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files []filePart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.field, file.name)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func testPNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// assertNoTempFiles verifies the upload directory holds no leftover staged
// files once a response has been written.
func assertNoTempFiles(t *testing.T, uploadDir string, msgAndArgs ...any) {
	t.Helper()
	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	if len(msgAndArgs) == 0 {
		msgAndArgs = []any{"temp files leaked in " + uploadDir}
	}
	require.Empty(t, entries, msgAndArgs...)
}
