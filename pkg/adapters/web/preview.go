package web

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// maxPreviewBytes caps how much of a page is read for metadata.
const maxPreviewBytes = 1 << 20

// PreviewScraper fetches a page and extracts title, description and image.
type PreviewScraper struct {
	client *http.Client
}

func NewPreviewScraper(timeout time.Duration) *PreviewScraper {
	return &PreviewScraper{client: newClient(timeout)}
}

// Fetch never fails: any network or parse problem yields nil.
func (s *PreviewScraper) Fetch(ctx context.Context, rawURL string) *domain.Preview {
	log := logger.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Debug("preview fetch failed", "url", rawURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(strings.ToLower(ct), "html") {
		log.Debug("preview skipped for non-html content", "url", rawURL, "content_type", ct)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPreviewBytes))
	if err != nil {
		log.Debug("preview parse failed", "url", rawURL, "error", err)
		return nil
	}

	return extractPreview(doc)
}

func extractPreview(doc *goquery.Document) *domain.Preview {
	preview := &domain.Preview{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	preview.Description = firstContent(doc,
		`meta[name="description"]`,
		`meta[property="og:description"]`,
	)
	preview.Image = firstContent(doc,
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
	)

	return preview
}

// firstContent returns the content attribute of the first selector that
// matches an element, even when that attribute is empty.
func firstContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		content, _ := node.Attr("content")
		return strings.TrimSpace(content)
	}
	return ""
}

var _ ports.PreviewFetcher = (*PreviewScraper)(nil)
