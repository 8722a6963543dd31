package compose

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testComposer() *Composer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(logger)
}

func pngBytes(t *testing.T, width, height int, c color.Color) []byte {
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

func jpegBytes(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// pageDims reads back the media box of every page, in page order. Pages
// imported from images are sized exactly to the image, so distinct pixel
// dimensions identify which input produced which page.
func pageDims(t *testing.T, pdf []byte) []types.Dim {
	t.Helper()
	dims, err := api.PageDims(bytes.NewReader(pdf), newConfiguration())
	require.NoError(t, err)
	return dims
}

func TestComposeTwoPages(t *testing.T) {
	c := testComposer()

	pages := [][]byte{
		pngBytes(t, 100, 150, color.RGBA{R: 255, A: 255}),
		pngBytes(t, 100, 150, color.RGBA{B: 255, A: 255}),
	}

	out, err := c.Compose(context.Background(), pages, Metadata{Title: "Test"})
	require.NoError(t, err)
	assert.True(t, IsPDF(out))

	count, err := c.PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestComposePageSizedToImage(t *testing.T) {
	c := testComposer()

	out, err := c.Compose(context.Background(), [][]byte{
		pngBytes(t, 100, 150, color.White),
	}, Metadata{})
	require.NoError(t, err)

	require.Equal(t, []types.Dim{{Width: 100, Height: 150}}, pageDims(t, out),
		"page must be sized exactly to the image's pixel dimensions")
}

func TestComposeKeepsPageOrder(t *testing.T) {
	c := testComposer()

	out, err := c.Compose(context.Background(), [][]byte{
		pngBytes(t, 100, 150, color.RGBA{R: 255, A: 255}),
		pngBytes(t, 200, 80, color.RGBA{G: 255, A: 255}),
		pngBytes(t, 120, 120, color.RGBA{B: 255, A: 255}),
	}, Metadata{})
	require.NoError(t, err)

	assert.Equal(t, []types.Dim{
		{Width: 100, Height: 150},
		{Width: 200, Height: 80},
		{Width: 120, Height: 120},
	}, pageDims(t, out))
}

func TestComposeMixedEncodings(t *testing.T) {
	c := testComposer()

	pages := [][]byte{
		pngBytes(t, 50, 50, color.White),
		jpegBytes(t, 80, 60, color.Black),
	}

	out, err := c.Compose(context.Background(), pages, Metadata{})
	require.NoError(t, err)

	count, err := c.PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestComposeSkipsCorruptPage(t *testing.T) {
	c := testComposer()

	pages := [][]byte{
		pngBytes(t, 40, 40, color.White),
		[]byte("not an image at all"),
		pngBytes(t, 40, 40, color.Black),
	}

	out, err := c.Compose(context.Background(), pages, Metadata{})
	require.NoError(t, err)

	count, err := c.PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "corrupt page is skipped, not fatal")
}

func TestComposeAllCorrupt(t *testing.T) {
	c := testComposer()

	_, err := c.Compose(context.Background(), [][]byte{[]byte("junk"), []byte("more junk")}, Metadata{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestMergeImagesPreservesCount(t *testing.T) {
	c := testComposer()

	out, err := c.Merge(context.Background(), [][]byte{
		pngBytes(t, 100, 150, color.RGBA{R: 255, A: 255}),
		pngBytes(t, 100, 150, color.RGBA{G: 255, A: 255}),
	}, Metadata{Title: "Test"})
	require.NoError(t, err)

	count, err := c.PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMergeKeepsInputOrder(t *testing.T) {
	c := testComposer()

	tall := pngBytes(t, 100, 150, color.RGBA{R: 255, A: 255})
	wide := pngBytes(t, 200, 80, color.RGBA{G: 255, A: 255})
	square := pngBytes(t, 120, 120, color.RGBA{B: 255, A: 255})

	out, err := c.Merge(context.Background(), [][]byte{tall, wide, square}, Metadata{Title: "Ordered"})
	require.NoError(t, err)
	assert.Equal(t, []types.Dim{
		{Width: 100, Height: 150},
		{Width: 200, Height: 80},
		{Width: 120, Height: 120},
	}, pageDims(t, out))

	// Reversing the inputs must reverse the pages; nothing between staging
	// and merging may reorder them.
	out, err = c.Merge(context.Background(), [][]byte{square, wide, tall}, Metadata{Title: "Ordered"})
	require.NoError(t, err)
	assert.Equal(t, []types.Dim{
		{Width: 120, Height: 120},
		{Width: 200, Height: 80},
		{Width: 100, Height: 150},
	}, pageDims(t, out))
}

func TestMergeAcceptsExistingPDF(t *testing.T) {
	c := testComposer()

	existing, err := c.Compose(context.Background(), [][]byte{pngBytes(t, 30, 30, color.White)}, Metadata{})
	require.NoError(t, err)

	out, err := c.Merge(context.Background(), [][]byte{
		existing,
		pngBytes(t, 30, 30, color.Black),
	}, Metadata{})
	require.NoError(t, err)

	count, err := c.PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMergeStopsOnExpiredContext(t *testing.T) {
	c := testComposer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Merge(ctx, [][]byte{
		pngBytes(t, 20, 20, color.White),
		pngBytes(t, 20, 20, color.Black),
	}, Metadata{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProtectEncrypts(t *testing.T) {
	c := testComposer()

	plain, err := c.Compose(context.Background(), [][]byte{pngBytes(t, 30, 30, color.White)}, Metadata{})
	require.NoError(t, err)

	protected, err := c.Protect(context.Background(), plain, "secret-password")
	require.NoError(t, err)
	assert.True(t, IsPDF(protected))
	assert.NotEqual(t, plain, protected)

	// Opening the encrypted document without the password must fail.
	_, err = c.PageCount(protected)
	assert.Error(t, err)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.7\n...")))
	assert.False(t, IsPDF([]byte("plain text")))
	assert.False(t, IsPDF(nil))
}
