// Package imaging converts uploaded raster images into canonical formats and
// composites overlays (signatures) onto base images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	// Register decoders for the formats mobile cameras and galleries deliver.
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedImage indicates the input bytes could not be decoded as any
// registered raster format.
var ErrUnsupportedImage = errors.New("unsupported image format")

// Format identifies a canonical container format for normalized images.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// jpegQuality is used whenever an image is re-encoded as JPEG.
const jpegQuality = 90

// Normalized is an in-memory image in a canonical container format with known
// pixel dimensions, ready for embedding into a PDF page.
type Normalized struct {
	Data   []byte
	Format Format
	Width  int
	Height int
}

// Normalize decodes raw image bytes and returns them in a canonical format.
// Inputs already encoded as PNG or JPEG are passed through untouched; anything
// else is re-encoded as PNG. No resizing takes place.
func Normalize(raw []byte) (*Normalized, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	n := &Normalized{Width: bounds.Dx(), Height: bounds.Dy()}

	switch format {
	case "png":
		n.Data = raw
		n.Format = FormatPNG
	case "jpeg":
		n.Data = raw
		n.Format = FormatJPEG
	default:
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
		}
		n.Data = buf.Bytes()
		n.Format = FormatPNG
	}

	return n, nil
}

// NormalizeToFormat decodes raw image bytes and re-encodes them in the
// requested container format regardless of the source encoding.
func NormalizeToFormat(raw []byte, format Format) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	default:
		return nil, fmt.Errorf("unknown target format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image as %s: %w", format, err)
	}

	return buf.Bytes(), nil
}
