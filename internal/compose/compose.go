// Package compose builds portable documents from page images using pdfcpu:
// multi-page composition, merging and password protection.
package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
)

// DefaultTitle is used when the caller supplies no document title.
const DefaultTitle = "Scanned Document"

// DefaultCreator identifies this service in document metadata.
const DefaultCreator = "scandock"

// ErrNoPages indicates that none of the supplied images could be embedded.
var ErrNoPages = errors.New("no embeddable pages")

// Metadata holds optional document-level PDF metadata.
type Metadata struct {
	Title   string
	Creator string
}

// Composer wraps pdfcpu operations behind the small surface the transform
// endpoints need. All state is per-call; a single Composer is safe for
// concurrent use.
type Composer struct {
	logger *logrus.Logger
}

// New returns a Composer that logs skipped pages and cleanup problems to the
// given logger.
func New(logger *logrus.Logger) *Composer {
	return &Composer{logger: logger}
}

// newConfiguration returns the pdfcpu configuration used for all operations.
// Relaxed validation matches what scanned, phone-generated inputs need.
func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// IsPDF reports whether data begins with a PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// Compose builds a PDF with one page per input image, each page sized exactly
// to its image's pixel dimensions, in strict input order. Images are embedded
// as PNG when they decode as PNG, as JPEG otherwise; an image that decodes as
// neither is logged and skipped so a multi-page composition degrades rather
// than failing outright. Returns ErrNoPages when nothing could be embedded.
// The context bounds the whole composition; it is consulted between pages.
func (c *Composer) Compose(ctx context.Context, pages [][]byte, meta Metadata) ([]byte, error) {
	tempDir, cleanup, err := c.tempDir("compose")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var files []string
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, ok := pageFileName(i, page)
		if !ok {
			c.logger.WithField("page", i+1).Warn("Skipping page that decodes as neither PNG nor JPEG")
			continue
		}
		path := filepath.Join(tempDir, name)
		if err := os.WriteFile(path, page, 0600); err != nil {
			return nil, fmt.Errorf("failed to stage page %d: %w", i+1, err)
		}
		files = append(files, path)
	}
	if len(files) == 0 {
		return nil, ErrNoPages
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outPath := filepath.Join(tempDir, "out.pdf")
	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImagesFile(files, outPath, imp, newConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to compose document: %w", err)
	}

	c.applyMetadata(outPath, meta)

	return os.ReadFile(outPath)
}

// Merge combines the given inputs into one PDF in input order. Inputs that
// are already PDFs are taken as-is; raster images become single-page PDFs
// first. Undecodable inputs are logged and skipped. The minimum input count
// is enforced by the caller, not here. The context is consulted between
// inputs so an expired transform deadline stops the merge early.
func (c *Composer) Merge(ctx context.Context, inputs [][]byte, meta Metadata) ([]byte, error) {
	tempDir, cleanup, err := c.tempDir("merge")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var parts []string
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		partPath := filepath.Join(tempDir, fmt.Sprintf("part_%03d.pdf", i))
		if IsPDF(input) {
			if err := os.WriteFile(partPath, input, 0600); err != nil {
				return nil, fmt.Errorf("failed to stage document %d: %w", i+1, err)
			}
			parts = append(parts, partPath)
			continue
		}

		name, ok := pageFileName(i, input)
		if !ok {
			c.logger.WithField("document", i+1).Warn("Skipping merge input that is neither PDF nor a supported image")
			continue
		}
		imgPath := filepath.Join(tempDir, name)
		if err := os.WriteFile(imgPath, input, 0600); err != nil {
			return nil, fmt.Errorf("failed to stage document %d: %w", i+1, err)
		}
		if err := api.ImportImagesFile([]string{imgPath}, partPath, pdfcpu.DefaultImportConfig(), newConfiguration()); err != nil {
			c.logger.WithError(err).WithField("document", i+1).Warn("Skipping merge input that failed to embed")
			continue
		}
		parts = append(parts, partPath)
	}
	if len(parts) == 0 {
		return nil, ErrNoPages
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outPath := filepath.Join(tempDir, "out.pdf")
	if len(parts) == 1 {
		// MergeCreateFile requires at least two inputs.
		outPath = parts[0]
	} else if err := api.MergeCreateFile(parts, outPath, false, newConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to merge documents: %w", err)
	}

	c.applyMetadata(outPath, meta)

	return os.ReadFile(outPath)
}

// Protect encrypts a PDF with AES-256 using the given password as both user
// and owner password.
func (c *Composer) Protect(ctx context.Context, document []byte, password string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tempDir, cleanup, err := c.tempDir("protect")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	inPath := filepath.Join(tempDir, "in.pdf")
	if err := os.WriteFile(inPath, document, 0600); err != nil {
		return nil, fmt.Errorf("failed to stage document: %w", err)
	}

	outPath := filepath.Join(tempDir, "out.pdf")
	conf := model.NewAESConfiguration(password, password, 256)
	if err := api.EncryptFile(inPath, outPath, conf); err != nil {
		return nil, fmt.Errorf("failed to encrypt document: %w", err)
	}

	return os.ReadFile(outPath)
}

// PageCount returns the number of pages in a PDF.
func (c *Composer) PageCount(document []byte) (int, error) {
	tempDir, cleanup, err := c.tempDir("pagecount")
	if err != nil {
		return 0, err
	}
	defer cleanup()

	path := filepath.Join(tempDir, "in.pdf")
	if err := os.WriteFile(path, document, 0600); err != nil {
		return 0, fmt.Errorf("failed to stage document: %w", err)
	}
	return api.PageCountFile(path)
}

// applyMetadata sets Title and Creator on the document's Info dictionary.
// Metadata is cosmetic, so a failure here is logged and the unmodified
// document is kept.
func (c *Composer) applyMetadata(path string, meta Metadata) {
	title := meta.Title
	if title == "" {
		title = DefaultTitle
	}
	creator := meta.Creator
	if creator == "" {
		creator = DefaultCreator
	}

	properties := map[string]string{
		"Title":   title,
		"Creator": creator,
	}
	if err := api.AddPropertiesFile(path, "", properties, newConfiguration()); err != nil {
		c.logger.WithError(err).Warn("Failed to set document metadata")
	}
}

// tempDir creates a uniquely named scratch directory and returns a cleanup
// func that logs removal failures without masking the primary outcome.
func (c *Composer) tempDir(op string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "scandock_"+op+"_*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			c.logger.WithError(err).Warn("Failed to clean up temp directory")
		}
	}
	return dir, cleanup, nil
}

// pageFileName decides the staging file extension by attempting a PNG decode
// first and falling back to JPEG, mirroring the two encodings upstream
// normalization can produce. Returns false when the bytes are neither.
func pageFileName(index int, data []byte) (string, bool) {
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err == nil {
		return fmt.Sprintf("page_%03d.png", index), true
	}
	if _, err := jpeg.DecodeConfig(bytes.NewReader(data)); err == nil {
		return fmt.Sprintf("page_%03d.jpg", index), true
	}
	return "", false
}
