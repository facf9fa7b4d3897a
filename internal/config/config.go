package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Recognition RecognitionConfig
	Camera      CameraConfig
	Capture     CaptureConfig
	Session     SessionConfig
	Database    DatabaseConfig
	Web         WebConfig
	Log         LogConfig
}

type RecognitionConfig struct {
	URL        string        // base URL of the recognition backend (e.g., http://192.168.1.179:5000)
	Timeout    time.Duration // per-request timeout, 0 disables it
	CaptureDir string        // directory to save backend responses to (optional)
}

type CameraConfig struct {
	Device string // OpenCV device index
	File   string // serve frames from this image instead of a real camera (optional)
	Width  int
	Height int
	FPS    int
}

type CaptureConfig struct {
	JPEGQuality int
	MaxSize     int // maximum width or height of the submitted still
}

type SessionConfig struct {
	Dwell time.Duration // how long a successful result stays on screen
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL, empty keeps the journal in memory
	MaxOpenConns int    // Maximum open connections (default 5)
	MaxIdleConns int    // Maximum idle connections (default 2)
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // extra CORS origins, localhost is always allowed
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	File   string // log to this file instead of stderr (optional)
}

// defaults mirrors the layout of defaults.yaml.
type defaults struct {
	Session struct {
		Dwell time.Duration `yaml:"dwell"`
	} `yaml:"session"`
	Capture struct {
		JPEGQuality int `yaml:"jpeg_quality"`
		MaxSize     int `yaml:"max_size"`
	} `yaml:"capture"`
	Recognition struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"recognition"`
	Camera struct {
		Device string `yaml:"device"`
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
		FPS    int    `yaml:"fps"`
	} `yaml:"camera"`
}

func loadDefaults() defaults {
	var d defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return d
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads an environment variable as a Go duration ("3s", "500ms").
// Returns the default value if the env var is unset, empty, invalid, or negative.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma-separated environment variable, skipping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	d := loadDefaults()

	return &Config{
		Recognition: RecognitionConfig{
			URL:        os.Getenv("RECOGNITION_URL"),
			Timeout:    envDuration("RECOGNITION_TIMEOUT", d.Recognition.Timeout),
			CaptureDir: os.Getenv("RECOGNITION_CAPTURE_DIR"),
		},
		Camera: CameraConfig{
			Device: envString("CAMERA_DEVICE", d.Camera.Device),
			File:   os.Getenv("CAMERA_FILE"),
			Width:  envInt("CAMERA_WIDTH", d.Camera.Width),
			Height: envInt("CAMERA_HEIGHT", d.Camera.Height),
			FPS:    envInt("CAMERA_FPS", d.Camera.FPS),
		},
		Capture: CaptureConfig{
			JPEGQuality: envInt("CAPTURE_JPEG_QUALITY", d.Capture.JPEGQuality),
			MaxSize:     envInt("CAPTURE_MAX_SIZE", d.Capture.MaxSize),
		},
		Session: SessionConfig{
			Dwell: envDuration("SESSION_DWELL", d.Session.Dwell),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 5),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", "127.0.0.1"),
			Port: envInt("WEB_PORT", 8080),

			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "text"),
			File:   os.Getenv("LOG_FILE"),
		},
	}
}

// Validate checks the settings every command that talks to the backend needs.
func (c *Config) Validate() error {
	if c.Recognition.URL == "" {
		return fmt.Errorf("RECOGNITION_URL environment variable is required")
	}
	if c.Capture.JPEGQuality < 1 || c.Capture.JPEGQuality > 100 {
		return fmt.Errorf("capture JPEG quality must be between 1 and 100, got %d", c.Capture.JPEGQuality)
	}
	return nil
}

// Addr returns the listen address of the control API.
func (w *WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}
