package models

import "time"

// Link represents an active shortened link in the database.
// The short code (or the custom alias, when the creator supplied one) is the
// sole access key to the link; both carry a unique index so the store, not the
// application pre-check, is what ultimately guarantees uniqueness.
type Link struct {
	ID          uint    `gorm:"primaryKey"`
	OriginalURL string  `gorm:"not null"`
	ShortCode   string  `gorm:"uniqueIndex;size:64;not null"`
	CustomAlias *string `gorm:"uniqueIndex;size:64"`

	CreatedAt time.Time `gorm:"autoCreateTime"`

	// ExpiresAt is always set for links created through the service
	// (default: creation + 90 days) but stays nullable in the schema.
	ExpiresAt *time.Time

	Clicks       int `gorm:"default:0"`
	LastAccessed *time.Time
	IsActive     bool `gorm:"default:true"`

	// UserID is nil for anonymous links. Anonymous links can be created and
	// resolved but never updated or deleted.
	UserID *uint `gorm:"index"`

	Projects []Project `gorm:"many2many:link_project_associations"`
}

// ArchivedLink is the immutable snapshot taken when an expired Link is removed
// from the active table. Once a row lands here its short code is free to be
// reissued to a brand new link.
type ArchivedLink struct {
	ID          uint    `gorm:"primaryKey"`
	OriginalURL string  `gorm:"not null"`
	ShortCode   string  `gorm:"index;size:64"`
	CustomAlias *string `gorm:"index;size:64"`

	CreatedAt    time.Time
	ExpiresAt    *time.Time
	Clicks       int
	LastAccessed *time.Time
	UserID       *uint `gorm:"index"`

	ArchivedAt time.Time
}
