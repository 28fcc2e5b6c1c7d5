package constants

import "time"

// HTTP server constants
const (
	// DefaultWebPort is the default port for the HTTP server
	DefaultWebPort = 5000

	// MaxRequestBodyBytes limits decoded request bodies. A 128-value descriptor
	// in JSON is a few KiB, so this leaves plenty of headroom.
	MaxRequestBodyBytes = 1 << 20

	// RequestTimeout bounds a single API request
	RequestTimeout = 30 * time.Second
)
