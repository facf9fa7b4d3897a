package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "face.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return path
}

func TestFile_AcquireAndFrame(t *testing.T) {
	dev := NewFile(writeTestPNG(t, 40, 30))

	h, err := dev.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer h.Release()

	if !dev.Held() {
		t.Error("expected device to be held after Acquire")
	}

	img, err := h.Frame()
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("expected 40x30 frame, got %v", img.Bounds())
	}
}

func TestFile_ReleaseIsIdempotent(t *testing.T) {
	dev := NewFile(writeTestPNG(t, 4, 4))

	h, err := dev.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	h.Release()
	h.Release()
	Release(nil)

	if dev.Held() {
		t.Error("expected device to be free after Release")
	}

	// Frame on a released handle behaves like an unplugged device
	_, err = h.Frame()
	var devErr *DeviceError
	if !errors.As(err, &devErr) || devErr.Kind != NotFound {
		t.Errorf("expected NotFound device error, got %v", err)
	}
}

func TestFile_SecondAcquireIsBusy(t *testing.T) {
	dev := NewFile(writeTestPNG(t, 4, 4))

	h, err := dev.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	_, err = dev.Acquire(context.Background())
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected DeviceError, got %v", err)
	}
	if devErr.Kind != Busy {
		t.Errorf("expected Busy, got %s", devErr.Kind)
	}

	// A released device can be acquired again without leaking the lease
	h.Release()
	h2, err := dev.Acquire(context.Background())
	if err != nil {
		t.Fatalf("re-Acquire failed: %v", err)
	}
	h2.Release()
}

func TestFile_MissingFile(t *testing.T) {
	dev := NewFile(filepath.Join(t.TempDir(), "missing.png"))

	_, err := dev.Acquire(context.Background())
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected DeviceError, got %v", err)
	}
	if devErr.Kind != NotFound {
		t.Errorf("expected NotFound, got %s", devErr.Kind)
	}
	if dev.Held() {
		t.Error("failed Acquire must not hold the device")
	}
}

func TestFile_CancelledContext(t *testing.T) {
	dev := NewFile(writeTestPNG(t, 4, 4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := dev.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if dev.Held() {
		t.Error("cancelled Acquire must not hold the device")
	}
}

func TestDeviceError_Message(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{PermissionDenied, "Camera access was denied. Allow camera access and try again."},
		{Busy, "The camera is in use by another application."},
		{NotFound, "No camera found. Check that it is connected."},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := &DeviceError{Kind: tt.kind, Device: "0"}
			if got := err.Message(); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeviceError_Unwrap(t *testing.T) {
	inner := errors.New("ioctl failed")
	err := &DeviceError{Kind: Busy, Device: "0", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected DeviceError to unwrap to its cause")
	}
	if err.Error() != "camera 0: busy: ioctl failed" {
		t.Errorf("unexpected error text: %s", err.Error())
	}
}
