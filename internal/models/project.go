package models

import "time"

// Project groups links for a single owner. The (UserID, Name) pair is unique
// per owner; a link may belong to any number of its owner's projects.
type Project struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"not null;uniqueIndex:idx_projects_owner_name"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_projects_owner_name"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Links []Link `gorm:"many2many:link_project_associations"`
}
