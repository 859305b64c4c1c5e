package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcpflow/mcpflow/internal/models"
	"gorm.io/gorm"
)

// ServiceFrontHandler serves the read-only service catalog.
type ServiceFrontHandler struct {
	db *gorm.DB
}

// NewServiceFrontHandler constructs a ServiceFrontHandler.
func NewServiceFrontHandler(db *gorm.DB) *ServiceFrontHandler {
	return &ServiceFrontHandler{db: db}
}

// List returns all registered services.
func (h *ServiceFrontHandler) List(c *gin.Context) {
	var services []models.Service
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("name ASC").
		Find(&services).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list services failed"})
		return
	}

	out := make([]gin.H, 0, len(services))
	for _, service := range services {
		serviceConfig := json.RawMessage(service.Config)
		if len(serviceConfig) == 0 {
			serviceConfig = json.RawMessage("{}")
		}
		out = append(out, gin.H{
			"name":        service.Name,
			"description": service.Description,
			"base_url":    service.BaseURL,
			"auth_header": service.ResolvedAuthHeader(),
			"config":      serviceConfig,
		})
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}
