// Package capture turns the current frame of an open camera stream into a
// still image ready for upload.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/kozaktomas/attendance-kiosk/internal/camera"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
)

// Image is an encoded still.
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	CapturedAt  time.Time
}

// Capturer reads, mirrors, scales and encodes frames.
type Capturer struct {
	quality int
	maxSize int
	now     func() time.Time
}

// New creates a Capturer encoding JPEG at quality and fitting stills within
// maxSize pixels on the longer side. maxSize <= 0 keeps the native size.
func New(quality, maxSize int) *Capturer {
	return &Capturer{quality: quality, maxSize: maxSize, now: time.Now}
}

// Capture reads the current frame from h. The preview is shown mirrored, so
// the still is mirrored too and matches what the operator saw.
func (c *Capturer) Capture(h camera.Handle) (*Image, error) {
	frame, err := h.Frame()
	if err != nil {
		var devErr *camera.DeviceError
		if errors.As(err, &devErr) {
			return nil, devErr
		}
		return nil, &camera.DeviceError{Kind: camera.NotFound, Device: "frame", Err: err}
	}

	img := fit(Mirror(frame), c.maxSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	return &Image{
		Data:        buf.Bytes(),
		ContentType: constants.FaceImageContentType,
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		CapturedAt:  c.now(),
	}, nil
}

// Mirror flips src along the vertical axis into a new raster anchored at 0,0.
func Mirror(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	// x' = maxX - x, y' = y - minY
	m := f64.Aff3{
		-1, 0, float64(b.Max.X),
		0, 1, float64(-b.Min.Y),
	}
	draw.NearestNeighbor.Transform(dst, m, src, b, draw.Src, nil)
	return dst
}

// fit scales img down to fit within maxSize (width or height) while keeping aspect ratio.
func fit(img *image.RGBA, maxSize int) *image.RGBA {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = int(float64(height) * float64(maxSize) / float64(width))
	} else {
		newHeight = maxSize
		newWidth = int(float64(width) * float64(maxSize) / float64(height))
	}
	newWidth = max(newWidth, 1)
	newHeight = max(newHeight, 1)

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}
