// Package usage appends audit rows for proxied calls. Recording is a
// best-effort side channel: a failed insert is logged and swallowed,
// never surfaced to the caller whose proxied call already completed.
package usage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mcpflow/mcpflow/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// recordTimeout bounds the insert so a slow database cannot hold the
// request goroutine after the upstream response is already determined.
const recordTimeout = 5 * time.Second

// Entry describes one completed (or failed) proxied call.
type Entry struct {
	UserID          uint64
	CredentialID    string
	Service         string
	Path            string
	Method          string
	StatusCode      int
	Duration        time.Duration
	RequestHeaders  map[string]string
	ResponseHeaders map[string]string
	RequestedAt     time.Time
}

// Recorder persists usage entries.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder constructs a Recorder backed by GORM.
func NewRecorder(db *gorm.DB) *Recorder { return &Recorder{db: db} }

// Record inserts one usage row. The insert runs on a detached context
// so it completes even when the caller has disconnected; errors are
// logged and absorbed.
func (r *Recorder) Record(entry Entry) {
	if r == nil || r.db == nil {
		return
	}

	dbCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	durationMs := entry.Duration.Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}
	requestedAt := entry.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = time.Now().UTC()
	}

	row := models.Usage{
		UserID:          entry.UserID,
		CredentialID:    entry.CredentialID,
		Service:         entry.Service,
		Path:            entry.Path,
		Method:          entry.Method,
		StatusCode:      entry.StatusCode,
		DurationMs:      durationMs,
		RequestHeaders:  marshalHeaders(entry.RequestHeaders),
		ResponseHeaders: marshalHeaders(entry.ResponseHeaders),
		RequestedAt:     requestedAt,
		CreatedAt:       time.Now().UTC(),
	}

	if errCreate := r.db.WithContext(dbCtx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).WithFields(log.Fields{
			"user_id": entry.UserID,
			"service": entry.Service,
		}).Warn("usage recorder: failed to persist usage row")
	}
}

// ListForUser returns a page of the user's usage rows, newest first.
func ListForUser(ctx context.Context, db *gorm.DB, userID uint64, limit, offset int) ([]models.Usage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var rows []models.Usage
	errFind := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("requested_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if errFind != nil {
		return nil, errFind
	}
	return rows, nil
}

// marshalHeaders serializes a header map, tolerating nil.
func marshalHeaders(headers map[string]string) datatypes.JSON {
	if len(headers) == 0 {
		return datatypes.JSON("{}")
	}
	payload, errMarshal := json.Marshal(headers)
	if errMarshal != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(payload)
}
