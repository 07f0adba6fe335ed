package vision

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	pigo "github.com/esimov/pigo/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/quill/internal/model"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	img.Set(0, 0, color.RGBA{A: 255})
	return img
}

func TestToBoxes(t *testing.T) {
	t.Parallel()

	dets := []pigo.Detection{
		{Row: 100, Col: 80, Scale: 40, Q: 12.5},
		{Row: 10, Col: 10, Scale: 8, Q: 5.0},
		{Row: 50, Col: 60, Scale: 21, Q: 7.1},
	}

	got := toBoxes(dets, 5.0)
	assert.Equal(t, []model.Box{{60, 80, 40, 40}, {50, 40, 21, 21}}, got)

	assert.NotNil(t, toBoxes(nil, 5.0))
}

func TestGrayscale(t *testing.T) {
	t.Parallel()

	img := testImage(3, 2)
	px := grayscale(img)

	require.Len(t, px, 6)
	assert.Equal(t, uint8(0), px[0])
	assert.Equal(t, uint8(255), px[5])

	// Sub-images are read relative to their own origin.
	sub := img.SubImage(image.Rect(1, 0, 3, 2))
	assert.Equal(t, []uint8{255, 255, 255, 255}, grayscale(sub))
}

func TestDecode(t *testing.T) {
	t.Parallel()

	var pngBuf, jpegBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, testImage(4, 4)))
	require.NoError(t, jpeg.Encode(&jpegBuf, testImage(4, 4), nil))

	for name, data := range map[string][]byte{"png": pngBuf.Bytes(), "jpeg": jpegBuf.Bytes()} {
		img, err := Decode(data)
		require.NoError(t, err, name)
		assert.Equal(t, 4, img.Bounds().Dx(), name)
	}

	_, err := Decode([]byte("GIF89a not really"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = Decode(pngBuf.Bytes()[:20])
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestDecode_PixelCap(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(8, 6)))

	img, err := decodeLimited(buf.Bytes(), 48)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())

	_, err = decodeLimited(buf.Bytes(), 47)
	require.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Contains(t, err.Error(), "8x6")
}

// A header claiming 100000x100000 pixels is refused before any pixel data is read.
func TestDecode_RejectsOversizedHeader(t *testing.T) {
	t.Parallel()

	_, err := Decode(pngHeader(100000, 100000))
	require.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Contains(t, err.Error(), "100000x100000")
}

// pngHeader returns a PNG signature and IHDR chunk for an 8-bit gray image.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth; color type 0 (gray), default compression, filter, interlace

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

type stubDetector struct {
	boxes []model.Box
	seen  image.Rectangle
}

func (s *stubDetector) Detect(img image.Image) ([]model.Box, error) {
	s.seen = img.Bounds()
	return s.boxes, nil
}

func TestDetectBytes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(8, 6)))

	det := &stubDetector{boxes: []model.Box{{1, 2, 3, 3}}}
	boxes, err := DetectBytes(det, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []model.Box{{1, 2, 3, 3}}, boxes)
	assert.Equal(t, image.Rect(0, 0, 8, 6), det.seen)

	_, err = DetectBytes(det, []byte("nope"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestNewPigoDetector_Empty(t *testing.T) {
	t.Parallel()

	_, err := NewPigoDetector(nil, DefaultParams)
	assert.Error(t, err)

	_, err = LoadPigoDetector("does/not/exist.cascade", DefaultParams)
	assert.Error(t, err)
}
