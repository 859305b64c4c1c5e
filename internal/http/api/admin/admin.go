// Package admin registers the administrator API surface: service
// catalog management, user management, and the full usage log.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcpflow/mcpflow/internal/config"
	"github.com/mcpflow/mcpflow/internal/http/api/admin/handlers"
	"github.com/mcpflow/mcpflow/internal/http/api/front"
	fronthandlers "github.com/mcpflow/mcpflow/internal/http/api/front/handlers"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	authed := r.Group("/v1/admin")
	authed.Use(front.SessionAuthMiddleware(db, jwtCfg))
	authed.Use(adminOnlyMiddleware())

	serviceHandler := handlers.NewServiceHandler(db)
	authed.POST("/services", serviceHandler.Create)
	authed.GET("/services", serviceHandler.List)
	authed.GET("/services/:name", serviceHandler.Get)
	authed.PUT("/services/:name", serviceHandler.Update)
	authed.DELETE("/services/:name", serviceHandler.Delete)

	userHandler := handlers.NewUserHandler(db)
	authed.GET("/users", userHandler.List)
	authed.GET("/users/:id", userHandler.Get)
	authed.POST("/users/:id/disable", userHandler.Disable)
	authed.POST("/users/:id/enable", userHandler.Enable)

	usageHandler := handlers.NewUsageHandler(db)
	authed.GET("/usage", usageHandler.List)
}

// adminOnlyMiddleware rejects authenticated non-admin users.
func adminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !fronthandlers.IsAdminFromContext(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
