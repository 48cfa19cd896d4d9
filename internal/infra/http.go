package infra

import (
	"net/http"
	"time"
)

// UserAgent mimics the Kasa Android app; the cloud relay rejects some
// requests from unrecognized clients.
const UserAgent = "Dalvik/2.1.0 (Linux; U; Android 14; Pixel Build/UP1A)"

// DefaultTimeout bounds every outbound call. Timeouts surface as
// transport errors and are never retried.
const DefaultTimeout = 15 * time.Second

// NewHTTPClient returns the bounded-timeout client shared by all cloud
// calls. A zero timeout selects the default.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
