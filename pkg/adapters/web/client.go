// Package web holds the outbound HTTP collaborators: the content-type probe
// used by the URL safety check and the link preview scraper.
package web

import (
	"net/http"
	"time"
)

const userAgent = "shortlink-bot/1.0"

func newClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	// The default redirect policy follows up to 10 hops.
	return &http.Client{Timeout: timeout}
}
