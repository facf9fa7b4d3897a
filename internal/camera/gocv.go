package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// StreamConfig is applied to the capture right after it opens.
type StreamConfig struct {
	Width     int
	Height    int
	Framerate int
}

// GoCV is a Device backed by an OpenCV video capture.
type GoCV struct {
	deviceID string
	config   StreamConfig
	lease    lease
}

// NewGoCV creates a device for an OpenCV device index ("0") or a stream URL.
func NewGoCV(deviceID string, config StreamConfig) *GoCV {
	return &GoCV{deviceID: deviceID, config: config}
}

func (d *GoCV) Acquire(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.lease.claim() {
		return nil, &DeviceError{Kind: Busy, Device: d.deviceID, Err: errors.New("already held by this process")}
	}

	var target any = d.deviceID
	if idx, err := strconv.Atoi(d.deviceID); err == nil {
		target = idx
	}

	capture, err := gocv.OpenVideoCapture(target)
	if err != nil {
		d.lease.free()
		return nil, &DeviceError{Kind: classifyOpenError(d.deviceID), Device: d.deviceID, Err: err}
	}
	if !capture.IsOpened() {
		capture.Close()
		d.lease.free()
		return nil, &DeviceError{Kind: classifyOpenError(d.deviceID), Device: d.deviceID, Err: errors.New("capture did not open")}
	}

	if d.config.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(d.config.Width))
	}
	if d.config.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(d.config.Height))
	}
	if d.config.Framerate > 0 {
		capture.Set(gocv.VideoCaptureFPS, float64(d.config.Framerate))
	}

	return &gocvHandle{device: d, capture: capture, frame: gocv.NewMat()}, nil
}

// Held reports whether a handle is outstanding.
func (d *GoCV) Held() bool {
	return d.lease.Held()
}

type gocvHandle struct {
	device   *GoCV
	mu       sync.Mutex
	capture  *gocv.VideoCapture
	frame    gocv.Mat // reused between reads
	released bool
}

func (h *gocvHandle) Frame() (image.Image, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil, &DeviceError{Kind: NotFound, Device: h.device.deviceID, Err: errors.New("handle released")}
	}
	if ok := h.capture.Read(&h.frame); !ok || h.frame.Empty() {
		return nil, &DeviceError{Kind: NotFound, Device: h.device.deviceID, Err: errors.New("cannot read frame")}
	}

	img, err := h.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}
	return img, nil
}

func (h *gocvHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return
	}
	h.released = true
	// Close errors are not actionable; the stream is gone either way.
	_ = h.capture.Close()
	_ = h.frame.Close()
	h.device.lease.free()
}

// classifyOpenError guesses why OpenCV refused to open a device. OpenCV does
// not report a reason, so on Linux the V4L2 node is probed directly.
func classifyOpenError(deviceID string) ErrorKind {
	path := devicePath(deviceID)
	if path == "" {
		return NotFound
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0) //nolint:gosec // fixed /dev/video path
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	case err != nil:
		return Busy
	}
	f.Close()
	// The node opens fine, so another process must own the stream.
	return Busy
}

func devicePath(deviceID string) string {
	if runtime.GOOS != "linux" {
		return ""
	}
	if _, err := strconv.Atoi(deviceID); err != nil {
		return ""
	}
	return "/dev/video" + deviceID
}

// Info describes a camera found by Scan.
type Info struct {
	ID     string
	Name   string
	Width  int
	Height int
}

// Scan tries to open the first limit device indices and reports the ones that
// open. Devices held by other processes are not listed.
func Scan(limit int) []Info {
	var devices []Info
	for i := range limit {
		capture, err := gocv.OpenVideoCapture(i)
		if err != nil {
			continue
		}
		if !capture.IsOpened() {
			capture.Close()
			continue
		}
		name := fmt.Sprintf("Camera %d", i)
		if i == 0 {
			name = "Default camera"
		}
		devices = append(devices, Info{
			ID:     strconv.Itoa(i),
			Name:   name,
			Width:  int(capture.Get(gocv.VideoCaptureFrameWidth)),
			Height: int(capture.Get(gocv.VideoCaptureFrameHeight)),
		})
		capture.Close()
	}
	return devices
}
