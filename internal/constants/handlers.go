// Package constants provides shared constants used across the codebase.
package constants

// Control API constants
const (
	// MaxDraftBodyBytes caps the JSON body accepted by the draft endpoint
	MaxDraftBodyBytes = 4 << 10

	// SSEKeepAliveSeconds is how often an idle session event stream sends a comment line
	SSEKeepAliveSeconds = 15
)
