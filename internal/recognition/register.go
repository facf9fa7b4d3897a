package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
)

// SubmitRegistration enrolls a new person with img as their reference face.
// The backend answers 201 Created; 200 OK is accepted as well. Failures are
// *Error.
func (c *Client) SubmitRegistration(ctx context.Context, reg Registration, img *capture.Image) (*Confirmation, error) {
	if reg.Name == "" || reg.RollNumber == "" {
		return nil, &Error{Kind: Malformed, Message: "Name and roll number are required."}
	}

	fields := []formField{
		{name: constants.FieldName, value: reg.Name},
		{name: constants.FieldRollNumber, value: reg.RollNumber},
	}
	resp, err := c.doPostFace(ctx, constants.EndpointRegister, fields, img)
	if err != nil {
		return nil, err
	}
	if !isExpectedStatus(resp.status, []int{http.StatusOK, http.StatusCreated}) {
		if isSuccessStatus(resp.status) {
			return nil, malformedResponse(resp.status, fmt.Errorf("unexpected status %d", resp.status))
		}
		return nil, statusError(opRegistration, resp.status, resp.body)
	}

	confirmation := &Confirmation{Name: reg.Name, RollNumber: reg.RollNumber}

	// Body is informational only; success is decided by the status
	var result registerResponse
	if err := json.Unmarshal(resp.body, &result); err == nil {
		confirmation.Message = result.Message
		if result.User != nil && result.User.Name != "" {
			confirmation.Name = result.User.Name
		}
		if result.User != nil && result.User.RollNumber != "" {
			confirmation.RollNumber = result.User.RollNumber
		}
	}
	return confirmation, nil
}
