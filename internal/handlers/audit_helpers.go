package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neighborhub/internal/middleware"
	"neighborhub/internal/telemetry"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

func neighborhoodIDFromContext(c *gin.Context) string {
	return c.GetString(middleware.NeighborhoodIDKey)
}

// auditor is embedded by handlers that record state changes.
type auditor struct {
	audit *telemetry.AuditEmitter
}

func (a auditor) emitAudit(c *gin.Context, level, action, resource string) {
	if a.audit == nil {
		return
	}
	a.audit.Emit(c.Request.Context(), telemetry.AuditRecord{
		Level:     level,
		Action:    action,
		Text:      c.Request.Method + " " + c.FullPath(),
		Resource:  resource,
		RequestID: requestIDFromContext(c),
		UserID:    userIDFromContext(c),
	})
}
