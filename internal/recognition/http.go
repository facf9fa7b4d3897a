package recognition

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"slices"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
)

// formField is a plain text multipart field.
type formField struct {
	name  string
	value string
}

// response is a completed HTTP exchange with its body already read.
type response struct {
	status int
	body   []byte
}

// buildFaceForm writes the text fields followed by the face image part.
func buildFaceForm(fields []formField, img *capture.Image) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("could not write field %s: %w", f.name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, constants.FieldFaceImage, constants.FaceImageFilename))
	header.Set("Content-Type", img.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("could not copy image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("could not close writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

// doPostFace posts a multipart face form to endpoint. Transport failures come
// back as *Error; the caller interprets the status.
func (c *Client) doPostFace(ctx context.Context, endpoint string, fields []formField, img *capture.Image) (*response, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, &Error{Kind: Malformed, Message: "No image captured."}
	}

	body, contentType, err := buildFaceForm(fields, img)
	if err != nil {
		return nil, &Error{Kind: Malformed, Message: "Could not prepare the captured image.", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(endpoint), body)
	if err != nil {
		return nil, &Error{Kind: Malformed, Message: "Could not prepare the request.", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	return c.do(req, endpoint)
}

// doGet performs a GET request against endpoint.
func (c *Client) doGet(ctx context.Context, endpoint string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, endpoint)
}

func (c *Client) do(req *http.Request, endpoint string) (*response, error) {
	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if !isSuccessStatus(resp.StatusCode) {
		body := readErrorBody(resp.Body)
		c.captureResponse(endpoint, resp.StatusCode, body)
		return &response{status: resp.StatusCode, body: body}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(fmt.Errorf("could not read response body: %w", err))
	}
	c.captureResponse(endpoint, resp.StatusCode, body)

	return &response{status: resp.StatusCode, body: body}, nil
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

// isExpectedStatus checks if a status code is in the list of expected statuses.
func isExpectedStatus(code int, expected []int) bool {
	return slices.Contains(expected, code)
}
