package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindcareplus/mindcare/client/internal/storage"
)

const readinessProbeKey = "readiness_probe"

// RegisterOps registers /health and /ready. Readiness requires the durable
// storage backend to answer.
func RegisterOps(r *gin.Engine, st storage.Storage, started time.Time) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{"storage": true}
		if _, err := st.Get(c.Request.Context(), readinessProbeKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			deps["storage"] = false
		}
		uptime := time.Since(started).String()
		if !deps["storage"] {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
	})
}
