package models

import "time"

// ReportRow is the newest episode of one configured podcast.
type ReportRow struct {
	Podcast string `json:"podcast"`
	FeedURL string `json:"feed_url"`
	Episode string `json:"episode,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LatestReport is a snapshot of every configured podcast's newest episode.
type LatestReport struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Rows        []ReportRow `json:"rows"`
}
