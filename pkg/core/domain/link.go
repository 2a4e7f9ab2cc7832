package domain

import (
	"net/url"
	"strings"
	"time"
)

// Link represents a shortened URL
type Link struct {
	ID           string     `json:"id"`
	ShortCode    string     `json:"short_code"`
	CustomAlias  string     `json:"custom_alias,omitempty"`
	OriginalURL  string     `json:"original_url"`
	UserID       string     `json:"user_id,omitempty"` // Empty for anonymous links
	CreatedAt    time.Time  `json:"created_at"`
	ClickCount   int64      `json:"click_count"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Preview      *Preview   `json:"preview,omitempty"`
}

// Preview is the metadata scraped from the destination page.
type Preview struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// IsExpired reports whether the link's expiry lies before now.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// OwnedBy reports whether userID owns the link. Anonymous links have no owner.
func (l *Link) OwnedBy(userID string) bool {
	return userID != "" && l.UserID != "" && l.UserID == userID
}

// RedirectURL returns the destination with a scheme, defaulting to https.
func (l *Link) RedirectURL() string {
	if u, err := url.Parse(l.OriginalURL); err == nil && (strings.EqualFold(u.Scheme, "http") || strings.EqualFold(u.Scheme, "https")) {
		return l.OriginalURL
	}
	return "https://" + l.OriginalURL
}
