// Package kiosk assembles the capture pipeline from configuration.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/attendance-kiosk/internal/camera"
	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/journal"
	"github.com/kozaktomas/attendance-kiosk/internal/journal/postgres"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
	"github.com/kozaktomas/attendance-kiosk/internal/roster"
	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

// memoryJournalCapacity bounds the in-process history.
const memoryJournalCapacity = 500

// Kiosk holds the wired components of one running kiosk.
type Kiosk struct {
	Config  *config.Config
	Client  *recognition.Client
	Device  camera.Device
	Roster  *roster.Roster
	Journal journal.Store
	Drafts  *session.MemoryDraft
	Machine *session.Machine
}

// New validates cfg and wires every component. The journal is PostgreSQL
// when a database URL is configured and in memory otherwise.
func New(ctx context.Context, cfg *config.Config) (*Kiosk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := recognition.NewClientWithCapture(cfg.Recognition.URL, cfg.Recognition.Timeout, cfg.Recognition.CaptureDir)
	if err != nil {
		return nil, fmt.Errorf("creating recognition client: %w", err)
	}

	store, err := OpenJournal(ctx, cfg)
	if err != nil {
		return nil, err
	}

	k := &Kiosk{
		Config:  cfg,
		Client:  client,
		Device:  NewDevice(cfg.Camera),
		Roster:  roster.New(client),
		Journal: store,
		Drafts:  &session.MemoryDraft{},
	}

	k.Machine = session.New(session.Deps{
		Device:     k.Device,
		Capturer:   capture.New(cfg.Capture.JPEGQuality, cfg.Capture.MaxSize),
		Recognizer: client,
		Drafts:     k.Drafts,
		Notifier:   k.Roster,
		Journal:    store,
		Logger:     slog.Default(),
		Dwell:      cfg.Session.Dwell,
	})
	return k, nil
}

// NewDevice returns the still-image device when a file is configured and
// the OpenCV camera otherwise.
func NewDevice(cfg config.CameraConfig) camera.Device {
	if cfg.File != "" {
		slog.Info("using still image as camera", "file", cfg.File)
		return camera.NewFile(cfg.File)
	}
	return camera.NewGoCV(cfg.Device, camera.StreamConfig{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Framerate: cfg.FPS,
	})
}

// OpenJournal opens the PostgreSQL journal when a database URL is configured
// and an in-memory one otherwise.
func OpenJournal(ctx context.Context, cfg *config.Config) (journal.Store, error) {
	if cfg.Database.URL == "" {
		slog.Debug("no database configured, keeping session history in memory")
		return journal.NewMemory(memoryJournalCapacity), nil
	}
	store, err := postgres.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening session journal: %w", err)
	}
	slog.Info("session journal enabled (PostgreSQL)")
	return store, nil
}

// Close ends any live session, waits for outstanding work and closes the journal.
func (k *Kiosk) Close(ctx context.Context) error {
	var errs []error
	if err := k.Machine.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := k.Journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing journal: %w", err))
	}
	return errors.Join(errs...)
}
