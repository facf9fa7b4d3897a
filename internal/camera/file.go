package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"sync"

	_ "golang.org/x/image/bmp"
)

// File is a Device whose stream is a still image on disk. It lets a kiosk run
// without a camera and gives tests a deterministic frame.
type File struct {
	path  string
	lease lease
}

// NewFile creates a device serving the image at path.
func NewFile(path string) *File {
	return &File{path: path}
}

func (d *File) Acquire(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.lease.claim() {
		return nil, &DeviceError{Kind: Busy, Device: d.path, Err: errors.New("already held by this process")}
	}

	f, err := os.Open(d.path)
	if err != nil {
		d.lease.free()
		kind := NotFound
		if errors.Is(err, fs.ErrPermission) {
			kind = PermissionDenied
		}
		return nil, &DeviceError{Kind: kind, Device: d.path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		d.lease.free()
		return nil, &DeviceError{Kind: NotFound, Device: d.path, Err: fmt.Errorf("decoding image: %w", err)}
	}

	return &fileHandle{device: d, img: img}, nil
}

// Held reports whether a handle is outstanding.
func (d *File) Held() bool {
	return d.lease.Held()
}

type fileHandle struct {
	device   *File
	mu       sync.Mutex
	img      image.Image
	released bool
}

func (h *fileHandle) Frame() (image.Image, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, &DeviceError{Kind: NotFound, Device: h.device.path, Err: errors.New("handle released")}
	}
	return h.img, nil
}

func (h *fileHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	h.img = nil
	h.device.lease.free()
}
