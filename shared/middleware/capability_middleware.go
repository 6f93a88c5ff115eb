package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CapabilityChecker answers whether a user may perform action on a module.
// Both the in-process capability service and the HTTP client satisfy it.
type CapabilityChecker interface {
	HasCapability(ctx context.Context, userID uuid.UUID, moduleKey, action string) (bool, error)
}

// RequireCapability aborts with 403 unless the session user holds action on module.
// It must run after AuthMiddleware.
func RequireCapability(checker CapabilityChecker, module, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforce(c, checker, module, action)
	}
}

// RequireModuleCapability derives the action from the request, see ActionForRequest
func RequireModuleCapability(checker CapabilityChecker, module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforce(c, checker, module, ActionForRequest(c.Request.Method, c.Request.URL.Path))
	}
}

// RequireSuperAdmin aborts with 403 unless the session user is a SuperAdmin.
// It guards operations whose effect is not limited to one organization.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if !ok {
			abortUnauthorized(c, "Authentication required")
			return
		}
		if !session.IsSuperAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "SuperAdmin access required",
				"code":  "FORBIDDEN",
			})
			return
		}
		c.Next()
	}
}

// ActionForRequest maps an HTTP request onto a matrix action.
// Paths ending in /export are exports regardless of method.
func ActionForRequest(method, path string) string {
	trimmed := strings.TrimRight(path, "/")
	if strings.HasSuffix(trimmed, "/export") {
		return "export"
	}

	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

func enforce(c *gin.Context, checker CapabilityChecker, module, action string) {
	session, ok := SessionFromContext(c)
	if !ok {
		abortUnauthorized(c, "Authentication required")
		return
	}

	allowed, err := checker.HasCapability(c.Request.Context(), session.UserID(), module, action)
	if err != nil {
		log.Printf("❌ Capability check failed for %s on %s:%s: %v", session.UserID(), module, action, err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to check permissions",
			"code":  "PERMISSION_CHECK_FAILED",
		})
		return
	}

	if !allowed {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
			"code":  "FORBIDDEN",
			"details": gin.H{
				"required_module": module,
				"required_action": action,
			},
		})
		return
	}

	c.Set("module", module)
	c.Set("action", action)
	c.Set("permission_checked", true)
	c.Next()
}
