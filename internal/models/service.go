package models

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultAuthHeader carries the bearer credential when a service
// definition does not name its own header.
const DefaultAuthHeader = "Authorization"

// Service defines a named upstream API reachable through the gateway.
type Service struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:varchar(64);not null;uniqueIndex"` // Unique lowercase service name.
	Description string `gorm:"type:text"`                             // Human-readable description.
	BaseURL     string `gorm:"type:text;not null"`                    // Absolute base URL for resolution.
	AuthHeader  string `gorm:"type:text"`                             // Header carrying the credential; empty means Authorization.

	Config datatypes.JSON `gorm:"type:jsonb"` // Provider-specific configuration blob.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// ResolvedAuthHeader returns the header name used for credential injection.
func (s *Service) ResolvedAuthHeader() string {
	if s == nil || s.AuthHeader == "" {
		return DefaultAuthHeader
	}
	return s.AuthHeader
}
