package models

import (
	"time"

	"gorm.io/datatypes"
)

// Usage records one proxied call. Rows are append-only; the gateway
// never updates or deletes them.
type Usage struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID       uint64 `gorm:"not null;index"`         // Calling principal.
	CredentialID string `gorm:"type:varchar(36);index"` // Credential used for the call.
	Service      string `gorm:"type:varchar(64);index"` // Target service name.
	Path         string `gorm:"type:text"`              // Requested path.
	Method       string `gorm:"type:varchar(16)"`       // HTTP verb.

	StatusCode int   `gorm:""`         // Upstream status, 0 when the call never completed.
	DurationMs int64 `gorm:"not null"` // Wall-clock duration of the upstream call.

	RequestHeaders  datatypes.JSON `gorm:"type:jsonb"` // Caller-supplied headers (auth header excluded).
	ResponseHeaders datatypes.JSON `gorm:"type:jsonb"` // Upstream response headers.

	RequestedAt time.Time `gorm:"not null;index"`          // When the proxied call started.
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"` // Row creation timestamp.
}
