package models

import "time"

// User represents an account that owns credentials and usage history.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Email    string `gorm:"type:text"`                      // Contact email address.
	Password string `gorm:"type:text;not null"`             // Bcrypt password hash.

	IsAdmin bool `gorm:"not null;default:false"` // Grants the service-catalog admin surface.
	Active  bool `gorm:"not null;default:true"`  // Whether the user can sign in.

	Credentials []Credential `gorm:"foreignKey:UserID"` // Owned credentials.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
