// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Backend endpoints, relative to the recognition base URL
const (
	EndpointMarkAttendance   = "mark_attendance"
	EndpointRegister         = "register"
	EndpointGetAllAttendance = "get_all_attendance"
)

// Multipart form field names expected by the backend
const (
	FieldFaceImage  = "face_image"
	FieldName       = "name"
	FieldRollNumber = "roll_number"
)

// Capture constants
const (
	// FaceImageFilename is the filename sent with the multipart image part.
	// The backend checks the extension, so it must end in .jpg/.jpeg/.png.
	FaceImageFilename = "face.jpg"

	// FaceImageContentType is the MIME type of every encoded still
	FaceImageContentType = "image/jpeg"
)

// Session constants
const (
	// DefaultDwell is how long a successful result is held before the session resets
	DefaultDwell = 3 * time.Second

	// NotifyTimeout bounds the fire-and-forget roster refresh after a success
	NotifyTimeout = 15 * time.Second

	// JournalTimeout bounds writing a session outcome to the journal
	JournalTimeout = 5 * time.Second
)

// Event streaming constants
const (
	// EventChannelBuffer is the buffer size for session event listener channels
	EventChannelBuffer = 32
)
