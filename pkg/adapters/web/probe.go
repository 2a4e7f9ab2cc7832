package web

import (
	"context"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// HTTPProber issues a HEAD request and reports the Content-Type header.
type HTTPProber struct {
	client *http.Client
}

func NewHTTPProber(timeout time.Duration) *HTTPProber {
	return &HTTPProber{client: newClient(timeout)}
}

func (p *HTTPProber) ContentType(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return resp.Header.Get("Content-Type"), nil
}

var _ ports.ContentTypeProber = (*HTTPProber)(nil)
