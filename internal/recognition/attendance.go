package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
)

// SubmitAttendance asks the backend to match img against enrolled faces and
// mark the matched person present. Failures are *Error.
func (c *Client) SubmitAttendance(ctx context.Context, img *capture.Image) (*Match, error) {
	resp, err := c.doPostFace(ctx, constants.EndpointMarkAttendance, nil, img)
	if err != nil {
		return nil, err
	}
	if !isSuccessStatus(resp.status) {
		return nil, statusError(opAttendance, resp.status, resp.body)
	}

	var result markAttendanceResponse
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, malformedResponse(resp.status, fmt.Errorf("could not unmarshal response: %w", err))
	}
	if result.User == nil || result.User.Name == "" {
		return nil, malformedResponse(resp.status, errors.New("response has no matched user"))
	}

	return &Match{
		Name:       result.User.Name,
		RollNumber: result.User.RollNumber,
		Time:       result.User.Time,
		Message:    result.Message,
	}, nil
}

// FetchAttendance returns today's attendance list. Failures are *FetchError.
func (c *Client) FetchAttendance(ctx context.Context) ([]AttendanceEntry, error) {
	resp, err := c.doGet(ctx, constants.EndpointGetAllAttendance)
	if err != nil {
		var recErr *Error
		if errors.As(err, &recErr) {
			return nil, &FetchError{Message: recErr.Message, Err: recErr.Err}
		}
		return nil, &FetchError{Message: err.Error(), Err: err}
	}
	if !isSuccessStatus(resp.status) {
		msg := backendMessage(resp.body)
		if msg == "" {
			msg = string(resp.body)
		}
		return nil, &FetchError{Status: resp.status, Message: msg}
	}

	var result attendanceListResponse
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, &FetchError{Status: resp.status, Message: "could not unmarshal response", Err: err}
	}
	return result.Attendance, nil
}
