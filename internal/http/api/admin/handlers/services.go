package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mcpflow/mcpflow/internal/db"
	"github.com/mcpflow/mcpflow/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ServiceHandler manages admin CRUD for service definitions.
type ServiceHandler struct {
	db *gorm.DB
}

// NewServiceHandler constructs a ServiceHandler.
func NewServiceHandler(db *gorm.DB) *ServiceHandler {
	return &ServiceHandler{db: db}
}

// createServiceRequest captures the payload for creating a service.
type createServiceRequest struct {
	Name        string          `json:"name"`        // Unique service name.
	Description string          `json:"description"` // Human-readable description.
	BaseURL     string          `json:"base_url"`    // Absolute base URL.
	AuthHeader  string          `json:"auth_header"` // Optional credential header name.
	Config      json.RawMessage `json:"config"`      // Optional provider config blob.
}

// updateServiceRequest captures optional fields for updates.
type updateServiceRequest struct {
	Description *string          `json:"description"` // Optional description.
	BaseURL     *string          `json:"base_url"`    // Optional base URL.
	AuthHeader  *string          `json:"auth_header"` // Optional credential header name.
	Config      *json.RawMessage `json:"config"`      // Optional config blob.
}

// validateBaseURL checks that raw parses as an absolute URL.
func validateBaseURL(raw string) error {
	parsed, errParse := url.Parse(raw)
	if errParse != nil || !parsed.IsAbs() || parsed.Host == "" {
		return errors.New("base_url must be an absolute URL")
	}
	return nil
}

// Create validates and inserts a service definition.
func (h *ServiceHandler) Create(c *gin.Context) {
	var body createServiceRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	name := strings.ToLower(strings.TrimSpace(body.Name))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	baseURL := strings.TrimSpace(body.BaseURL)
	if baseURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_url is required"})
		return
	}
	if errURL := validateBaseURL(baseURL); errURL != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errURL.Error()})
		return
	}

	var count int64
	if errCount := h.db.WithContext(c.Request.Context()).
		Model(&models.Service{}).
		Where("name = ?", name).
		Count(&count).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create service failed"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "service name already exists"})
		return
	}

	now := time.Now().UTC()
	row := models.Service{
		Name:        name,
		Description: strings.TrimSpace(body.Description),
		BaseURL:     baseURL,
		AuthHeader:  strings.TrimSpace(body.AuthHeader),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(body.Config) > 0 {
		row.Config = datatypes.JSON(body.Config)
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		if db.IsUniqueViolation(errCreate) {
			c.JSON(http.StatusConflict, gin.H{"error": "service name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create service failed"})
		return
	}

	c.JSON(http.StatusCreated, formatService(&row))
}

// List returns all service definitions.
func (h *ServiceHandler) List(c *gin.Context) {
	var rows []models.Service
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("name ASC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list services failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatService(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}

// Get returns one service definition by name.
func (h *ServiceHandler) Get(c *gin.Context) {
	row, ok := h.findByName(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, formatService(row))
}

// Update applies partial changes to a service definition.
func (h *ServiceHandler) Update(c *gin.Context) {
	row, ok := h.findByName(c)
	if !ok {
		return
	}

	var body updateServiceRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Description != nil {
		updates["description"] = strings.TrimSpace(*body.Description)
	}
	if body.BaseURL != nil {
		baseURL := strings.TrimSpace(*body.BaseURL)
		if errURL := validateBaseURL(baseURL); errURL != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errURL.Error()})
			return
		}
		updates["base_url"] = baseURL
	}
	if body.AuthHeader != nil {
		updates["auth_header"] = strings.TrimSpace(*body.AuthHeader)
	}
	if body.Config != nil {
		updates["config"] = datatypes.JSON(*body.Config)
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(row).
		Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update service failed"})
		return
	}

	c.JSON(http.StatusOK, formatService(row))
}

// Delete removes a service definition.
func (h *ServiceHandler) Delete(c *gin.Context) {
	name := strings.ToLower(strings.TrimSpace(c.Param("name")))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service name is required"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).
		Where("name = ?", name).
		Delete(&models.Service{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete service failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "service deleted"})
}

// findByName loads a service row from the :name route parameter.
func (h *ServiceHandler) findByName(c *gin.Context) (*models.Service, bool) {
	name := strings.ToLower(strings.TrimSpace(c.Param("name")))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service name is required"})
		return nil, false
	}

	var row models.Service
	errFind := h.db.WithContext(c.Request.Context()).
		Where("name = ?", name).
		Take(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch service failed"})
		return nil, false
	}
	return &row, true
}

// formatService shapes a service row for responses.
func formatService(row *models.Service) gin.H {
	serviceConfig := json.RawMessage(row.Config)
	if len(serviceConfig) == 0 {
		serviceConfig = json.RawMessage("{}")
	}
	return gin.H{
		"id":          row.ID,
		"name":        row.Name,
		"description": row.Description,
		"base_url":    row.BaseURL,
		"auth_header": row.ResolvedAuthHeader(),
		"config":      serviceConfig,
		"created_at":  row.CreatedAt,
		"updated_at":  row.UpdatedAt,
	}
}
