// Package front registers the authenticated user-facing API surface:
// session auth, credential management, the service catalog, and usage
// history.
package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mcpflow/mcpflow/internal/config"
	"github.com/mcpflow/mcpflow/internal/http/api/front/handlers"
	"github.com/mcpflow/mcpflow/internal/kms"
	"github.com/mcpflow/mcpflow/internal/models"
	"github.com/mcpflow/mcpflow/internal/security"
	"gorm.io/gorm"
)

// RegisterFrontRoutes registers front routes, middleware, and handlers.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, sealer kms.Service) {
	if r == nil || db == nil {
		return
	}

	frontGroup := r.Group("/v1")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	frontGroup.POST("/auth/register", authHandler.Register)
	frontGroup.POST("/auth/login", authHandler.Login)

	authed := frontGroup.Group("")
	authed.Use(SessionAuthMiddleware(db, jwtCfg))

	credentialHandler := handlers.NewCredentialHandler(db, sealer)
	authed.POST("/credentials", credentialHandler.Create)
	authed.GET("/credentials", credentialHandler.List)
	authed.DELETE("/credentials/:id", credentialHandler.Delete)

	serviceHandler := handlers.NewServiceFrontHandler(db)
	authed.GET("/services", serviceHandler.List)

	usageHandler := handlers.NewUsageFrontHandler(db)
	authed.GET("/usage", usageHandler.List)
}

// SessionAuthMiddleware validates session JWTs and loads the user into
// the gin context.
func SessionAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if !user.Active {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user disabled"})
			return
		}

		c.Set(handlers.ContextKeyUserID, user.ID)
		c.Set(handlers.ContextKeyIsAdmin, user.IsAdmin)
		c.Next()
	}
}
