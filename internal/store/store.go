// Package store provides the read accessors the gateway uses to
// resolve credentials and service definitions.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mcpflow/mcpflow/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound covers both absent rows and rows owned by someone else.
// The two cases are deliberately indistinguishable so error responses
// cannot be used as an ownership oracle.
var ErrNotFound = errors.New("store: not found")

// CredentialStore reads owner-scoped credentials.
type CredentialStore struct {
	db *gorm.DB
}

// NewCredentialStore constructs a CredentialStore.
func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// FetchForOwner loads one credential by id, scoped to its owner in a
// single query. A credential belonging to another user is reported as
// ErrNotFound, never as an authorization failure.
func (s *CredentialStore) FetchForOwner(ctx context.Context, credentialID string, ownerID uint64) (*models.Credential, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store: credential store not initialized")
	}
	credentialID = strings.TrimSpace(credentialID)
	if credentialID == "" || ownerID == 0 {
		return nil, ErrNotFound
	}

	var row models.Credential
	errFind := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", credentialID, ownerID).
		Take(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: fetch credential: %w", errFind)
	}
	return &row, nil
}

// UserStore reads user accounts for authentication checks.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore constructs a UserStore.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// FetchActive loads one active user by id. Missing and disabled
// accounts both read as ErrNotFound, so a disabled principal is cut
// off the moment the flag flips, not when their token expires.
func (s *UserStore) FetchActive(ctx context.Context, userID uint64) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store: user store not initialized")
	}
	if userID == 0 {
		return nil, ErrNotFound
	}

	var row models.User
	errFind := s.db.WithContext(ctx).
		Where("id = ? AND active = ?", userID, true).
		Take(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: fetch user: %w", errFind)
	}
	return &row, nil
}

// ServiceStore reads service definitions.
type ServiceStore struct {
	db *gorm.DB
}

// NewServiceStore constructs a ServiceStore.
func NewServiceStore(db *gorm.DB) *ServiceStore {
	return &ServiceStore{db: db}
}

// FetchByName loads one service definition by its unique name.
func (s *ServiceStore) FetchByName(ctx context.Context, name string) (*models.Service, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store: service store not initialized")
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, ErrNotFound
	}

	var row models.Service
	errFind := s.db.WithContext(ctx).
		Where("name = ?", name).
		Take(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: fetch service: %w", errFind)
	}
	return &row, nil
}

// ListServices returns all service definitions ordered by name.
func (s *ServiceStore) ListServices(ctx context.Context) ([]models.Service, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store: service store not initialized")
	}
	var rows []models.Service
	if errFind := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: list services: %w", errFind)
	}
	return rows, nil
}
