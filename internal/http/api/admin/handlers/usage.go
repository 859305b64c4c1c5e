package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mcpflow/mcpflow/internal/models"
	"gorm.io/gorm"
)

// UsageHandler serves the full usage log for administrators.
type UsageHandler struct {
	db *gorm.DB
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(db *gorm.DB) *UsageHandler {
	return &UsageHandler{db: db}
}

// List returns a page of usage rows, optionally filtered by user or
// service, newest first.
func (h *UsageHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.Usage{})
	if rawUser := strings.TrimSpace(c.Query("user_id")); rawUser != "" {
		userID, errParse := strconv.ParseUint(rawUser, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		query = query.Where("user_id = ?", userID)
	}
	if service := strings.ToLower(strings.TrimSpace(c.Query("service"))); service != "" {
		query = query.Where("service = ?", service)
	}

	var rows []models.Usage
	if errFind := query.
		Order("requested_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list usage failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":               row.ID,
			"user_id":          row.UserID,
			"credential_id":    row.CredentialID,
			"service":          row.Service,
			"path":             row.Path,
			"method":           row.Method,
			"status_code":      row.StatusCode,
			"duration_ms":      row.DurationMs,
			"request_headers":  json.RawMessage(row.RequestHeaders),
			"response_headers": json.RawMessage(row.ResponseHeaders),
			"requested_at":     row.RequestedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"usage": out})
}
