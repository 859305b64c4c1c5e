package models

import "time"

// Credential stores one owner-scoped encrypted upstream API key.
// The plaintext never touches the database; EncryptedKey holds the
// base64 ciphertext produced by the key service.
type Credential struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // UUID primary key.

	UserID uint64 `gorm:"not null;index"`    // Owning user ID.
	User   *User  `gorm:"foreignKey:UserID"` // Owning user.
	Name   string `gorm:"type:text"`         // Display name chosen by the owner.

	Service      string `gorm:"type:varchar(64);not null;index"` // Bound service name.
	EncryptedKey string `gorm:"type:text;not null"`              // Sealed credential (base64).

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
