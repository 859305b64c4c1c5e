package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mcpflow/mcpflow/internal/usage"
	"gorm.io/gorm"
)

// UsageFrontHandler serves the caller's own usage history.
type UsageFrontHandler struct {
	db *gorm.DB
}

// NewUsageFrontHandler constructs a UsageFrontHandler.
func NewUsageFrontHandler(db *gorm.DB) *UsageFrontHandler {
	return &UsageFrontHandler{db: db}
}

// List returns a page of the authenticated user's usage rows.
func (h *UsageFrontHandler) List(c *gin.Context) {
	userID, ok := UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, errList := usage.ListForUser(c.Request.Context(), h.db, userID, limit, offset)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list usage failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":               row.ID,
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
