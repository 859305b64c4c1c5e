package db

import (
	"fmt"

	"github.com/mcpflow/mcpflow/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.Credential{},
		&models.Usage{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_credentials_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_credentials_user_id_created_at
				ON credentials (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_credentials_user_id_service",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_credentials_user_id_service
				ON credentials (user_id, service)
			`,
		},
		{
			name: "idx_usages_user_id_requested_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_usages_user_id_requested_at
				ON usages (user_id, requested_at DESC)
			`,
		},
		{
			name: "idx_usages_credential_id_requested_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_usages_credential_id_requested_at
				ON usages (credential_id, requested_at DESC)
			`,
		},
		{
			name: "idx_usages_user_id_service",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_usages_user_id_service
				ON usages (user_id, service)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}
