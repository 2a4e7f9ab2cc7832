package domain

import "time"

// Visit represents a click on a short link
type Visit struct {
	ID        int64     `json:"id"`
	LinkID    string    `json:"link_id"`
	Referer   string    `json:"referer"`
	UserAgent string    `json:"user_agent"`
	IPHash    string    `json:"ip_hash"` // Salted SHA-256, never the raw address
	CreatedAt time.Time `json:"created_at"`
}

// LinkStats represents aggregated statistics for a link
type LinkStats struct {
	Link        *Link            `json:"link"`
	TotalClicks int64            `json:"total_clicks"`
	Referrers   map[string]int64 `json:"referrers"`    // count by referer, "Direct" when empty
	DailyClicks []DailyClick     `json:"daily_clicks"` // last 30 days, newest first
}

type DailyClick struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}
