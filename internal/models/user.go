package models

import "time"

// User is an authenticated principal. The core link lifecycle only ever looks
// at the ID; credentials are handled by the auth service.
type User struct {
	ID             uint      `gorm:"primaryKey"`
	Email          string    `gorm:"uniqueIndex;not null"`
	HashedPassword string    `gorm:"not null"`
	IsActive       bool      `gorm:"default:true"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}
