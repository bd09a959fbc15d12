package dispatch

import "time"

// DefaultTimeout bounds a single generation request.
const DefaultTimeout = 5 * time.Minute

// Config is the dispatcher configuration.
type Config struct {
	// Base URL of the generation server (e.g., "http://localhost:5001")
	BaseURL string

	// Bearer token sent in the Authorization header. May be empty.
	Token string

	// Timeout for the whole request. Zero uses DefaultTimeout.
	Timeout time.Duration
}
