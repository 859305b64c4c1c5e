package app

import (
	"path/filepath"
	"testing"

	"github.com/mcpflow/mcpflow/internal/config"
	"github.com/mcpflow/mcpflow/internal/db"
	"github.com/mcpflow/mcpflow/internal/models"
	"github.com/mcpflow/mcpflow/internal/security"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "app-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestEnsureAdminUser_SeedsOnce(t *testing.T) {
	conn := openTestDB(t)
	adminCfg := config.AdminConfig{Username: "root", Password: "changeme"}

	if err := EnsureAdminUser(conn, adminCfg); err != nil {
		t.Fatalf("EnsureAdminUser: %v", err)
	}
	// Idempotent on a second boot.
	if err := EnsureAdminUser(conn, adminCfg); err != nil {
		t.Fatalf("second EnsureAdminUser: %v", err)
	}

	var count int64
	if err := conn.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one seeded admin, got %d", count)
	}

	var admin models.User
	if err := conn.First(&admin, "username = ?", "root").Error; err != nil {
		t.Fatalf("find admin: %v", err)
	}
	if !admin.IsAdmin || !admin.Active {
		t.Fatalf("expected active admin, got %+v", admin)
	}
	if admin.Password == "changeme" {
		t.Fatalf("admin password stored in plaintext")
	}
	if !security.VerifyPassword(admin.Password, "changeme") {
		t.Fatalf("seeded password does not verify")
	}
}

func TestEnsureAdminUser_NoConfigNoSeed(t *testing.T) {
	conn := openTestDB(t)

	if err := EnsureAdminUser(conn, config.AdminConfig{}); err != nil {
		t.Fatalf("EnsureAdminUser: %v", err)
	}

	var count int64
	if err := conn.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no users without admin config, got %d", count)
	}
}
