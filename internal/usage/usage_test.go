package usage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcpflow/mcpflow/internal/db"
	"github.com/mcpflow/mcpflow/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "usage-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestRecord_InsertsRow(t *testing.T) {
	conn := openTestDB(t)
	recorder := NewRecorder(conn)

	requestedAt := time.Now().UTC().Truncate(time.Second)
	recorder.Record(Entry{
		UserID:          1,
		CredentialID:    "cred-1",
		Service:         "openai",
		Path:            "/v1/models",
		Method:          "GET",
		StatusCode:      200,
		Duration:        120 * time.Millisecond,
		RequestHeaders:  map[string]string{"X-Request-Id": "abc"},
		ResponseHeaders: map[string]string{"Content-Type": "application/json"},
		RequestedAt:     requestedAt,
	})

	var rows []models.Usage
	if err := conn.Find(&rows).Error; err != nil {
		t.Fatalf("find usage rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 usage row, got %d", len(rows))
	}
	row := rows[0]
	if row.UserID != 1 || row.CredentialID != "cred-1" || row.Service != "openai" {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.StatusCode != 200 || row.DurationMs != 120 {
		t.Fatalf("unexpected status/duration: %d/%d", row.StatusCode, row.DurationMs)
	}

	var headers map[string]string
	if err := json.Unmarshal(row.RequestHeaders, &headers); err != nil {
		t.Fatalf("unmarshal request headers: %v", err)
	}
	if headers["X-Request-Id"] != "abc" {
		t.Fatalf("unexpected request headers %v", headers)
	}
}

func TestRecord_FailedCallKeepsZeroStatus(t *testing.T) {
	conn := openTestDB(t)
	recorder := NewRecorder(conn)

	recorder.Record(Entry{
		UserID:       1,
		CredentialID: "cred-1",
		Service:      "openai",
		Path:         "/v1/models",
		Method:       "GET",
	})

	var row models.Usage
	if err := conn.First(&row).Error; err != nil {
		t.Fatalf("find usage row: %v", err)
	}
	if row.StatusCode != 0 {
		t.Fatalf("expected status 0 for a call that never completed, got %d", row.StatusCode)
	}
	if row.RequestedAt.IsZero() {
		t.Fatalf("expected requested_at to be backfilled")
	}
	if string(row.RequestHeaders) != "{}" {
		t.Fatalf("expected empty headers to marshal as {}, got %s", row.RequestHeaders)
	}
}

func TestRecord_NeverUpdatesExistingRows(t *testing.T) {
	conn := openTestDB(t)
	recorder := NewRecorder(conn)

	for i := 0; i < 3; i++ {
		recorder.Record(Entry{UserID: 1, CredentialID: "cred-1", Service: "openai", StatusCode: 200 + i})
	}

	var count int64
	if err := conn.Model(&models.Usage{}).Count(&count).Error; err != nil {
		t.Fatalf("count usage rows: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 append-only rows, got %d", count)
	}
}

func TestListForUser_ScopesAndPaginates(t *testing.T) {
	conn := openTestDB(t)
	recorder := NewRecorder(conn)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		recorder.Record(Entry{
			UserID:      1,
			Service:     "openai",
			StatusCode:  200,
			RequestedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	recorder.Record(Entry{UserID: 2, Service: "anthropic", StatusCode: 200, RequestedAt: base})

	rows, err := ListForUser(context.Background(), conn, 1, 3, 0)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.UserID != 1 {
			t.Fatalf("expected only user 1 rows, got user %d", row.UserID)
		}
	}
	// Newest first.
	if rows[0].RequestedAt.Before(rows[1].RequestedAt) {
		t.Fatalf("expected newest-first ordering")
	}

	rest, err := ListForUser(context.Background(), conn, 1, 3, 3)
	if err != nil {
		t.Fatalf("ListForUser offset: %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("expected 2 remaining rows, got %d", len(rest))
	}
}
