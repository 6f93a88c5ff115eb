package middleware

import (
	"github.com/gin-gonic/gin"

	shared "hrms-backend/shared/middleware"
)

// Identity headers set on every proxied request. Client supplied values are discarded.
const (
	HeaderUserID         = "X-User-ID"
	HeaderOrganizationID = "X-Organization-ID"
	HeaderUserType       = "X-User-Type"
	HeaderModule         = "X-Permission-Module"
	HeaderAction         = "X-Permission-Action"
)

var identityHeaders = []string{HeaderUserID, HeaderOrganizationID, HeaderUserType, HeaderModule, HeaderAction}

// RequireModule guards a proxied HR module: the caller must hold the action
// derived from the request on module. Upstreams receive the checked identity as headers.
func RequireModule(checker shared.CapabilityChecker, module string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		shared.RequireModuleCapability(checker, module),
		ForwardIdentity(),
	}
}

// ForwardIdentity replaces identity headers with values from the verified session
func ForwardIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range identityHeaders {
			c.Request.Header.Del(h)
		}

		if session, ok := shared.SessionFromContext(c); ok {
			c.Request.Header.Set(HeaderUserID, session.UserID().String())
			c.Request.Header.Set(HeaderOrganizationID, session.OrganizationID().String())
			c.Request.Header.Set(HeaderUserType, session.UserType())
		}
		if module := c.GetString("module"); module != "" {
			c.Request.Header.Set(HeaderModule, module)
			c.Request.Header.Set(HeaderAction, c.GetString("action"))
		}

		c.Next()
	}
}
