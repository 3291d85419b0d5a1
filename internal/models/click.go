package models

import "time"

// Click represents a single recorded access to a shortened link.
// These rows are written asynchronously by the click workers so the redirect
// path never waits on analytics.
type Click struct {
	ID uint `gorm:"primaryKey"`

	// LinkID references the Link that was resolved. Indexed because the CLI
	// stats command aggregates by link.
	LinkID uint `gorm:"index"`

	Timestamp time.Time

	// UserAgent and IPAddress come straight from the HTTP request.
	UserAgent string `gorm:"size:255"`
	IPAddress string `gorm:"size:50"`
}

// ClickEvent is the lightweight struct passed through the click channel
// between the redirect handler and the worker pool.
type ClickEvent struct {
	LinkID    uint
	Timestamp time.Time
	UserAgent string
	IPAddress string
}
