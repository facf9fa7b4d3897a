package recognition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client talks to the face recognition backend.
type Client struct {
	URL        string
	parsedURL  *url.URL
	httpClient *http.Client
	captureDir string
}

// NewClient creates a client for the backend at rawURL. A zero timeout leaves
// requests unbounded.
func NewClient(rawURL string, timeout time.Duration) (*Client, error) {
	return NewClientWithCapture(rawURL, timeout, "")
}

// NewClientWithCapture creates a client with optional response capturing.
// Pass an empty captureDir to disable capturing.
func NewClientWithCapture(rawURL string, timeout time.Duration, captureDir string) (*Client, error) {
	trimmed := strings.TrimRight(rawURL, "/")
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid recognition URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid recognition URL %q: scheme must be http or https", rawURL)
	}

	c := &Client{
		URL:        trimmed,
		parsedURL:  parsed,
		httpClient: &http.Client{Timeout: timeout},
	}
	if captureDir != "" {
		if err := c.SetCaptureDir(captureDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// resolveURL builds a full URL from the base URL and the given path segments.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// readErrorBody reads the response body for error messages.
// Returns empty string if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil {
		return nil
	}
	return body
}

// backendMessage extracts the "error" field the backend puts in failure bodies.
func backendMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}

// SetCaptureDir enables API response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// captureResponse saves the API response body to a file if capturing is enabled.
// The filename is generated from the endpoint name and the status code.
func (c *Client) captureResponse(endpoint string, status int, body []byte) {
	if c.captureDir == "" {
		return
	}

	// Sanitize endpoint for filename
	filename := strings.ReplaceAll(endpoint, "/", "_")
	filename = strings.TrimPrefix(filename, "_")
	timestamp := time.Now().Format("20060102_150405")
	filename = fmt.Sprintf("%s_%d_%s.json", filename, status, timestamp)

	path := filepath.Join(c.captureDir, filename)

	// Pretty-print JSON if possible
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
		body = prettyJSON.Bytes()
	}

	// WriteFile error is non-critical for capturing - log and continue
	if err := os.WriteFile(path, body, 0600); err != nil {
		slog.Warn("failed to capture response", "path", path, "error", err)
	}
}
