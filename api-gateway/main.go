package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"hrms-backend/api-gateway/middleware"
	"hrms-backend/api-gateway/routes"
	_ "hrms-backend/docs"
	"hrms-backend/shared/config"
	"hrms-backend/shared/database"
	"hrms-backend/shared/utils/auth"
	"hrms-backend/shared/utils/permission"
)

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.GetConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Audit logging is optional; the gateway still serves traffic without a database
	var audit middleware.AuditRecorder
	if err := database.InitDatabase(); err != nil {
		log.Printf("⚠️  Warning: database not available, audit logging disabled: %v", err)
	} else {
		defer database.CloseDatabase()
		writer := middleware.NewAuditWriter(database.GetDB(), 1024)
		defer writer.Close()
		audit = writer
	}

	proxy, err := routes.NewProxy(routes.ServiceURLs(cfg))
	if err != nil {
		log.Fatalf("Failed to configure upstreams: %v", err)
	}

	rateLimiter := middleware.NewRateLimiter(ctx, 5*time.Minute)

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(rateLimiter.GlobalRateLimitMiddleware(middleware.NewRateLimitConfig(cfg)))
	router.Use(middleware.UnifiedResponseMiddleware(audit))

	routes.Register(router,
		auth.NewTokenIssuerFromConfig(cfg),
		permission.NewCapabilityClient(cfg.RBACServiceURL),
		proxy)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := config.PortFromURL(cfg.APIGatewayURL, "8000")
	log.Printf("🚀 API Gateway starting on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
