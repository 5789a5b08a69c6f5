package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler serves health and liveness endpoints
type SystemHandler struct {
	appName string
	version string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(appName, version string) *SystemHandler {
	return &SystemHandler{appName: appName, version: version}
}

// Health reports service liveness
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.appName,
		"version": h.version,
		"time":    time.Now().Format(time.RFC3339),
	})
}
