// Package vision detects faces in still images.
package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for Decode
	_ "image/png"
	"os"
	"sync"

	pigo "github.com/esimov/pigo/core"

	"github.com/quillhq/quill/internal/model"
)

// ErrUnsupportedImage is returned for payloads that are not a readable JPEG or PNG.
var ErrUnsupportedImage = errors.New("unsupported image format")

// Detector finds faces in an image.
type Detector interface {
	Detect(img image.Image) ([]model.Box, error)
}

// Params tunes the cascade scan.
type Params struct {
	MinSize      int
	MaxSize      int
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
	// MinQuality drops detections scoring at or below it.
	MinQuality float32
}

// DefaultParams suits webcam frames and group photos.
var DefaultParams = Params{
	MinSize:      20,
	MaxSize:      1000,
	ShiftFactor:  0.1,
	ScaleFactor:  1.1,
	IoUThreshold: 0.2,
	MinQuality:   5.0,
}

// PigoDetector runs a pigo cascade classifier.
type PigoDetector struct {
	classifier *pigo.Pigo
	params     Params
	// pigo's cascade scan shares scratch state; calls are serialised.
	mu sync.Mutex
}

// NewPigoDetector unpacks a binary cascade.
func NewPigoDetector(cascade []byte, params Params) (det *PigoDetector, err error) {
	if len(cascade) == 0 {
		return nil, errors.New("empty cascade")
	}
	defer func() {
		if r := recover(); r != nil {
			det, err = nil, fmt.Errorf("unpack cascade: %v", r)
		}
	}()

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}
	return &PigoDetector{classifier: classifier, params: params}, nil
}

// LoadPigoDetector reads a cascade file from disk.
func LoadPigoDetector(path string, params Params) (*PigoDetector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cascade: %w", err)
	}
	return NewPigoDetector(data, params)
}

// Detect implements Detector.
func (d *PigoDetector) Detect(img image.Image) ([]model.Box, error) {
	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()
	if cols == 0 || rows == 0 {
		return []model.Box{}, nil
	}

	pixels := grayscale(img)
	params := pigo.CascadeParams{
		MinSize:     d.params.MinSize,
		MaxSize:     d.params.MaxSize,
		ShiftFactor: d.params.ShiftFactor,
		ScaleFactor: d.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	d.mu.Lock()
	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.params.IoUThreshold)
	d.mu.Unlock()

	return toBoxes(dets, d.params.MinQuality), nil
}

// toBoxes converts centre/scale detections into [x, y, w, h] boxes.
func toBoxes(dets []pigo.Detection, minQuality float32) []model.Box {
	boxes := make([]model.Box, 0, len(dets))
	for _, det := range dets {
		if det.Q <= minQuality {
			continue
		}
		half := det.Scale / 2
		boxes = append(boxes, model.Box{det.Col - half, det.Row - half, det.Scale, det.Scale})
	}
	return boxes
}

// grayscale flattens img into row-major luma values, origin at Bounds().Min.
func grayscale(img image.Image) []uint8 {
	b := img.Bounds()
	cols, rows := b.Dx(), b.Dy()
	out := make([]uint8, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// ITU-R 601 luma on 16-bit channels.
			lum := (19595*r + 38470*g + 7471*bl + 1<<15) >> 24
			out[y*cols+x] = uint8(lum)
		}
	}
	return out
}

// MaxPixels bounds decoded image area. A few hundred KiB of PNG can
// describe a frame that needs hundreds of MiB once decoded.
const MaxPixels = 4096 * 4096

// Decode reads a JPEG or PNG image of at most MaxPixels.
func Decode(data []byte) (image.Image, error) {
	return decodeLimited(data, MaxPixels)
}

func decodeLimited(data []byte, maxPixels int) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxPixels/cfg.Height {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(err)
	}
	return img, nil
}

func decodeError(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return ErrUnsupportedImage
	}
	return fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
}

// DetectBytes decodes data and runs det on it.
func DetectBytes(det Detector, data []byte) ([]model.Box, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return det.Detect(img)
}
