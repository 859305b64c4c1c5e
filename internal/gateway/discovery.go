package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcpflow/mcpflow/internal/models"
	log "github.com/sirupsen/logrus"
)

// discoveryVersion is the capability-document schema version.
const discoveryVersion = "1.0"

// serverDescriptor describes this gateway in the discovery document.
var serverDescriptor = gin.H{
	"name":    "MCPflow",
	"version": "1.0.0",
	"capabilities": gin.H{
		"transports": []string{"http"},
		"features":   []string{"key-management", "usage-tracking"},
	},
}

// Services handles GET /v1/mcp/services: the authenticated service
// catalog in capability-descriptor shape. With no catalog changes the
// document is identical across calls.
func (h *Handler) Services(c *gin.Context) {
	if _, ok := h.authenticate(c); !ok {
		return
	}

	services, errList := h.services.ListServices(c.Request.Context())
	if errList != nil {
		log.WithError(errList).Error("gateway: list services failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch services"})
		return
	}

	descriptors := make([]gin.H, 0, len(services))
	for i := range services {
		descriptors = append(descriptors, serviceDescriptor(&services[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"version":  discoveryVersion,
		"server":   serverDescriptor,
		"services": descriptors,
	})
}

// serviceDescriptor formats one service definition as a capability
// descriptor.
func serviceDescriptor(service *models.Service) gin.H {
	serviceConfig := json.RawMessage(service.Config)
	if len(serviceConfig) == 0 {
		serviceConfig = json.RawMessage("{}")
	}
	return gin.H{
		"id":          service.Name,
		"name":        service.Name,
		"description": service.Description,
		"version":     discoveryVersion,
		"capabilities": gin.H{
			"authentication": gin.H{
				"type":   "bearer",
				"header": service.ResolvedAuthHeader(),
			},
			"endpoints": []gin.H{
				{
					"path":    "/*",
					"methods": []string{"GET", "POST", "PUT", "DELETE", "PATCH"},
					"baseUrl": service.BaseURL,
				},
			},
			"config": serviceConfig,
		},
	}
}
