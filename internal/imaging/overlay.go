package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// Placement describes where and at what size an overlay is composited onto a
// base image. Coordinates are pixels from the base image's top-left corner.
// Placements are caller-supplied and deliberately not validated against the
// base canvas; an overlay extending past the canvas is clipped implicitly.
type Placement struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Overlay composites a secondary image (typically a transparent signature)
// onto the base at the given placement. The overlay is scaled contain-fit to
// the placement size, padding with transparent pixels so the aspect ratio is
// preserved, then alpha-blended onto the base. The result is always PNG so
// the blended output stays lossless.
func Overlay(base *Normalized, overlay []byte, p Placement) ([]byte, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("overlay target size must be positive, got %dx%d", p.Width, p.Height)
	}

	baseImg, _, err := image.Decode(bytes.NewReader(base.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: base image: %v", ErrUnsupportedImage, err)
	}
	overlayImg, _, err := image.Decode(bytes.NewReader(overlay))
	if err != nil {
		return nil, fmt.Errorf("%w: overlay image: %v", ErrUnsupportedImage, err)
	}

	canvas := image.NewRGBA(baseImg.Bounds())
	draw.Draw(canvas, canvas.Bounds(), baseImg, baseImg.Bounds().Min, draw.Src)

	fitted := containFit(overlayImg, p.Width, p.Height)
	target := fitted.Bounds().Add(image.Pt(p.X, p.Y))
	draw.Draw(canvas, target, fitted, fitted.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode composited image: %w", err)
	}
	return buf.Bytes(), nil
}

// containFit scales src to fit inside a width x height box while preserving
// its aspect ratio, centred on a fully transparent canvas of exactly that
// size.
func containFit(src image.Image, width, height int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))

	srcW := src.Bounds().Dx()
	srcH := src.Bounds().Dy()
	if srcW == 0 || srcH == 0 {
		return out
	}

	scale := min(float64(width)/float64(srcW), float64(height)/float64(srcH))
	scaledW := int(float64(srcW) * scale)
	scaledH := int(float64(srcH) * scale)
	if scaledW < 1 {
		scaledW = 1
	}
	if scaledH < 1 {
		scaledH = 1
	}

	offsetX := (width - scaledW) / 2
	offsetY := (height - scaledH) / 2
	dst := image.Rect(offsetX, offsetY, offsetX+scaledW, offsetY+scaledH)

	xdraw.CatmullRom.Scale(out, dst, src, src.Bounds(), xdraw.Over, nil)
	return out
}
