package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shuttle-tracker/internal/dashboard"
	"shuttle-tracker/internal/logger"
	"shuttle-tracker/internal/shuttle"
)

const viewKey = "view"

// RequestLogger logs method, path, status and latency of every request.
// Server errors go out at warn, everything else at debug.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		l := logger.GetLogger()
		event := l.Debug()
		if status >= http.StatusInternalServerError {
			event = l.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// MountedView rejects the request when nobody is logged in and stores the
// mounted view for downstream handlers.
func MountedView(host *dashboard.Host) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := host.Current()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		c.Set(viewKey, v)
		c.Next()
	}
}

func RequireRole(role shuttle.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if view(c).Role() != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func view(c *gin.Context) *dashboard.View {
	return c.MustGet(viewKey).(*dashboard.View)
}
