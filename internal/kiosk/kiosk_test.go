package kiosk

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/camera"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

func writeFace(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := range 32 {
		for y := range 24 {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 90, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "face.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create face image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode face image: %v", err)
	}
	return path
}

func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Recognition: config.RecognitionConfig{URL: backendURL, Timeout: 5 * time.Second},
		Camera:      config.CameraConfig{File: writeFace(t)},
		Capture:     config.CaptureConfig{JPEGQuality: 80, MaxSize: 640},
		Session:     config.SessionConfig{Dwell: 20 * time.Millisecond},
	}
}

func TestKiosk_AttendanceRoundTrip(t *testing.T) {
	var listCalls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/mark_attendance":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, `{"error":"bad form"}`, http.StatusBadRequest)
				return
			}
			if _, _, err := r.FormFile("face_image"); err != nil {
				http.Error(w, `{"error":"No image"}`, http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"message":"Attendance marked successfully","user":{"name":"John Smith","roll_number":"17","time":"10:00:00"}}`))
		case "/get_all_attendance":
			listCalls.Add(1)
			w.Write([]byte(`{"attendance":[{"roll_number":"17","name":"John Smith","time":"10:00:00","attendance_status":"Present"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer backend.Close()

	k, err := New(context.Background(), testConfig(t, backend.URL))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer k.Close(context.Background())

	if err := k.Machine.Start(session.ModeAttendance); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForStatus(t, k.Machine, session.StatusActive)

	if err := k.Machine.Capture(); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	snap := waitForStatus(t, k.Machine, session.StatusSuccess)
	if snap.Result.Attendance.IdentityName != "John Smith" {
		t.Errorf("unexpected result: %+v", snap.Result.Attendance)
	}

	// The dwell elapses and the session resets on its own
	waitForStatus(t, k.Machine, session.StatusIdle)
	k.Machine.Wait()

	if listCalls.Load() != 1 {
		t.Errorf("expected the roster to refresh once, got %d", listCalls.Load())
	}
	if recs := k.Roster.Records(); len(recs) != 1 || recs[0].Name != "John Smith" {
		t.Errorf("unexpected roster: %+v", recs)
	}
	if dev, ok := k.Device.(*camera.File); !ok || dev.Held() {
		t.Error("expected the still-image device to be free after the session")
	}

	outcomes, err := k.Journal.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(outcomes) != 1 || !outcomes[0].Succeeded {
		t.Errorf("expected one successful outcome, got %+v", outcomes)
	}
}

func TestNew_RequiresBackendURL(t *testing.T) {
	cfg := testConfig(t, "")
	if _, err := New(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "RECOGNITION_URL") {
		t.Errorf("expected missing URL error, got %v", err)
	}
}

func TestNewDevice(t *testing.T) {
	if _, ok := NewDevice(config.CameraConfig{File: "face.png"}).(*camera.File); !ok {
		t.Error("expected file device when a file is configured")
	}
	if _, ok := NewDevice(config.CameraConfig{Device: "0"}).(*camera.GoCV); !ok {
		t.Error("expected OpenCV device by default")
	}
}

func waitForStatus(t *testing.T, m *session.Machine, status session.Status) session.Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		snap := m.Snapshot()
		if snap.Status == status && snap.Pending == session.PendingNone {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s, last snapshot: %+v", status, snap)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
