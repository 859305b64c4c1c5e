package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mcpflow/mcpflow/internal/kms"
	"github.com/mcpflow/mcpflow/internal/models"
	"gorm.io/gorm"
)

// CredentialHandler manages owner-scoped credential records. Plaintext
// keys are sealed through the key service on the way in and are never
// returned, logged, or stored raw.
type CredentialHandler struct {
	db     *gorm.DB
	sealer kms.Service
}

// NewCredentialHandler constructs a CredentialHandler.
func NewCredentialHandler(db *gorm.DB, sealer kms.Service) *CredentialHandler {
	return &CredentialHandler{db: db, sealer: sealer}
}

// createCredentialRequest captures the payload for storing a credential.
type createCredentialRequest struct {
	Service string `json:"service"` // Target service name.
	Name    string `json:"name"`    // Optional display name.
	APIKey  string `json:"api_key"` // Plaintext credential, sealed server-side.
}

// Create seals and stores a credential for the authenticated user.
func (h *CredentialHandler) Create(c *gin.Context) {
	userID, ok := UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body createCredentialRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	serviceName := strings.ToLower(strings.TrimSpace(body.Service))
	if serviceName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service is required"})
		return
	}
	if strings.TrimSpace(body.APIKey) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key is required"})
		return
	}

	var service models.Service
	errService := h.db.WithContext(c.Request.Context()).
		Where("name = ?", serviceName).
		Take(&service).Error
	if errService != nil {
		if errors.Is(errService, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create credential failed"})
		return
	}

	encrypted, errSeal := h.sealer.Seal(c.Request.Context(), []byte(body.APIKey))
	if errSeal != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encrypt API key"})
		return
	}

	now := time.Now().UTC()
	row := models.Credential{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         strings.TrimSpace(body.Name),
		Service:      serviceName,
		EncryptedKey: encrypted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create credential failed"})
		return
	}

	c.JSON(http.StatusCreated, formatCredential(&row))
}

// List returns the authenticated user's credentials, newest first.
func (h *CredentialHandler) List(c *gin.Context) {
	userID, ok := UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var rows []models.Credential
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list credentials failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatCredential(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"credentials": out})
}

// Delete removes one of the authenticated user's credentials. The
// delete is owner-scoped; another user's credential reads as absent.
func (h *CredentialHandler) Delete(c *gin.Context) {
	userID, ok := UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	credentialID := strings.TrimSpace(c.Param("id"))
	if credentialID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "credential id is required"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", credentialID, userID).
		Delete(&models.Credential{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete credential failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "credential not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "credential deleted"})
}

// formatCredential shapes a credential row for responses. The sealed
// key never leaves the database.
func formatCredential(row *models.Credential) gin.H {
	return gin.H{
		"id":         row.ID,
		"name":       row.Name,
		"service":    row.Service,
		"created_at": row.CreatedAt,
		"updated_at": row.UpdatedAt,
	}
}
