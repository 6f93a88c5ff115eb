package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	_ "hrms-backend/docs"
	"hrms-backend/rbac-service/handlers"
	"hrms-backend/shared/config"
	"hrms-backend/shared/database"
	"hrms-backend/shared/services"
	"hrms-backend/shared/utils/auth"
	"hrms-backend/shared/utils/cache"
	"hrms-backend/shared/utils/routeaccess"
)

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.GetConfig()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Initialize Redis Cache Manager
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	var capabilityCache services.CapabilityCache
	var cacheManager *cache.CacheManager
	if err := cache.InitCacheManager(ctx); err != nil {
		log.Printf("⚠️  Warning: Redis cache not available: %v", err)
		log.Println("🔄 Service will continue without caching...")
	} else {
		cacheManager = cache.GetCacheManager()
		capabilityCache = cacheManager
		defer cacheManager.Close()
	}
	cancel()

	routes := routeaccess.NewDefault()
	if cfg.RouteAccessFile != "" {
		loaded, err := routeaccess.Load(cfg.RouteAccessFile)
		if err != nil {
			log.Fatalf("Failed to load route access file: %v", err)
		}
		routes = loaded
		log.Printf("✅ Route access loaded from: %s", cfg.RouteAccessFile)
	}

	corsConfig := cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	router := handlers.SetupRouter(handlers.Deps{
		Services: services.New(database.GetDB(), capabilityCache),
		Issuer:   auth.NewTokenIssuerFromConfig(cfg),
		Routes:   routes,
		Cache:    cacheManager,
	}, gin.Logger(), cors.New(corsConfig))

	port := config.PortFromURL(cfg.RBACServiceURL, "8002")
	log.Printf("🚀 RBAC Service starting on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
