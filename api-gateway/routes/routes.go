package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrms-backend/api-gateway/middleware"
	shared "hrms-backend/shared/middleware"
	"hrms-backend/shared/utils/auth"
)

// Module guarded HR upstreams, keyed by URL prefix under /api
var moduleRoutes = []struct {
	Prefix  string
	Module  string
	Service string
}{
	{Prefix: "/employees", Module: "employees", Service: ServiceEmployees},
	{Prefix: "/attendance", Module: "attendance", Service: ServiceAttendance},
	{Prefix: "/payroll", Module: "payroll", Service: ServicePayroll},
	{Prefix: "/organization", Module: "organization", Service: ServiceOrganization},
	{Prefix: "/devices", Module: "devices", Service: ServiceDevices},
}

// Register mounts every gateway route on router
func Register(router *gin.Engine, issuer *auth.TokenIssuer, checker shared.CapabilityChecker, proxy *Proxy) {
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "API Gateway is running"})
	})

	api := router.Group("/api", shared.AuthMiddleware(issuer))

	// The rbac-service enforces its own capability guards
	rbac := proxy.ProxyToService(ServiceRBAC)
	api.Any("/roles", rbac)
	api.Any("/roles/*path", rbac)
	api.Any("/access/*path", rbac)
	api.GET("/users/:id/capabilities", rbac)

	for _, r := range moduleRoutes {
		handlers := append(middleware.RequireModule(checker, r.Module), proxy.ProxyToService(r.Service))
		api.Any(r.Prefix, handlers...)
		api.Any(r.Prefix+"/*path", handlers...)
	}
}
