package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mcpflow/mcpflow/internal/models"
	"gorm.io/gorm"
)

// UserHandler manages admin views of user accounts.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// List returns all users, newest first.
func (h *UserHandler) List(c *gin.Context) {
	var rows []models.User
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatUser(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// Get returns one user by ID.
func (h *UserHandler) Get(c *gin.Context) {
	row, ok := h.findByID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, formatUser(row))
}

// Disable blocks a user from signing in and using the gateway.
func (h *UserHandler) Disable(c *gin.Context) {
	h.setActive(c, false)
}

// Enable restores a disabled user.
func (h *UserHandler) Enable(c *gin.Context) {
	h.setActive(c, true)
}

// setActive flips the active flag on a user row.
func (h *UserHandler) setActive(c *gin.Context, active bool) {
	row, ok := h.findByID(c)
	if !ok {
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(row).
		Update("active", active).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update user failed"})
		return
	}
	row.Active = active
	c.JSON(http.StatusOK, formatUser(row))
}

// findByID loads a user row from the :id route parameter.
func (h *UserHandler) findByID(c *gin.Context) (*models.User, bool) {
	rawID := strings.TrimSpace(c.Param("id"))
	userID, errParse := strconv.ParseUint(rawID, 10, 64)
	if errParse != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return nil, false
	}

	var row models.User
	errFind := h.db.WithContext(c.Request.Context()).First(&row, userID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch user failed"})
		return nil, false
	}
	return &row, true
}

// formatUser shapes a user row for responses. Password hashes never
// leave the database layer.
func formatUser(row *models.User) gin.H {
	return gin.H{
		"id":         row.ID,
		"username":   row.Username,
		"email":      row.Email,
		"is_admin":   row.IsAdmin,
		"active":     row.Active,
		"created_at": row.CreatedAt,
		"updated_at": row.UpdatedAt,
	}
}
