package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"hrms-backend/shared/middleware"
	"hrms-backend/shared/utils/validation"
)

// SetupRouter registers every rbac-service route on a new engine
func SetupRouter(deps Deps, extra ...gin.HandlerFunc) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.RegisterRules(v)
	}

	h := NewHandler(deps)
	checker := deps.Services.Capabilities
	guard := func(action string) gin.HandlerFunc {
		return middleware.RequireCapability(checker, rolesModule, action)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(extra...)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(deps.Issuer))

	// Role Management Routes
	roles := api.Group("/roles")
	{
		roles.GET("", guard("read"), h.ListRoles)
		roles.POST("", guard("create"), h.CreateRole)
		roles.GET("/permissions/all", guard("read"), h.ListAllPermissions)
		roles.GET("/permissions/modules", guard("read"), h.ListModules)
		roles.POST("/assign-permissions", guard("update"), h.AssignPermissions)
		roles.GET("/:id", guard("read"), h.GetRole)
		roles.PUT("/:id", guard("update"), h.UpdateRole)
		roles.DELETE("/:id", guard("delete"), h.DeleteRole)
		roles.GET("/:id/permissions", guard("read"), h.GetRolePermissions)
		roles.GET("/:id/users", guard("read"), h.ListRoleUsers)
		roles.GET("/:id/available-users", guard("read"), h.ListAvailableUsers)
		roles.POST("/:id/users", guard("update"), h.AssignUser)
		roles.DELETE("/:id/users/:user_id", guard("update"), h.RemoveUser)
	}

	api.GET("/users/:id/capabilities", guard("read"), h.GetUserCapabilities)

	// Access Check Routes
	access := api.Group("/access")
	{
		access.POST("/check", h.CheckAccess)
		access.POST("/batch-check", h.BatchCheckAccess)
		access.GET("/route", h.CheckRoute)
		access.GET("/session", h.GetSession)
	}

	// Cache Management Routes, global across tenants
	cacheRoutes := access.Group("/cache", middleware.RequireSuperAdmin())
	{
		cacheRoutes.GET("/stats", h.GetCacheStats)
		cacheRoutes.POST("/invalidate/user/:user_id", h.InvalidateUserCache)
		cacheRoutes.POST("/invalidate/all", h.InvalidateAllCache)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "rbac",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
