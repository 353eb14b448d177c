package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler exposes service metadata endpoints
type SystemHandler struct {
	BaseHandler
	name    string
	version string
	env     string
	started time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version, env string) *SystemHandler {
	return &SystemHandler{
		name:    name,
		version: version,
		env:     env,
		started: time.Now(),
	}
}

// Ping answers a liveness probe
// GET /system/ping
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Info returns service metadata
// GET /system/info
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, gin.H{
		"name":       h.name,
		"version":    h.version,
		"env":        h.env,
		"go_version": runtime.Version(),
		"uptime":     time.Since(h.started).String(),
	})
}
