package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geofoncier/api/internal/cache"
	"github.com/geofoncier/api/internal/config"
	"github.com/geofoncier/api/internal/database"
	"github.com/geofoncier/api/internal/handlers"
	"github.com/geofoncier/api/internal/logger"
	"github.com/geofoncier/api/internal/middleware"
	"github.com/geofoncier/api/internal/notify"
	"github.com/geofoncier/api/internal/repository"
	"github.com/geofoncier/api/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting GeoFoncier API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// The cache is optional; an empty address disables it.
	statsCache := cache.New(cfg.Redis)
	defer statsCache.Close()
	log.Info("Cache configured", map[string]interface{}{
		"enabled": statsCache.Enabled(),
		"addr":    cfg.Redis.Addr,
	})

	notifier := notify.NewRelayNotifier(cfg.Notify.RelayURL)

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, statsCache, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Initialize repository and service layers
	divisionRepo := repository.NewDivisionRepository(db)
	parcelRepo := repository.NewParcelRepository(db)
	spatialRepo := repository.NewSpatialRepository(db)
	contactRepo := repository.NewContactRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	divisionService := services.NewDivisionService(divisionRepo, log)
	spatialService := services.NewSpatialService(spatialRepo, divisionRepo, statsCache, log)
	parcelService := services.NewParcelService(parcelRepo, spatialRepo, subscriptionRepo, log)
	contactService := services.NewContactService(contactRepo, parcelRepo, notifier, cfg.Notify.AdminEmail, log)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, cfg.Payment.WebhookSecret, log)

	// Initialize handlers
	divisionHandler := handlers.NewDivisionHandler(divisionService)
	parcelHandler := handlers.NewParcelHandler(parcelService)
	spatialHandler := handlers.NewSpatialHandler(spatialService)
	contactHandler := handlers.NewContactHandler(contactService)
	pricingHandler := handlers.NewPricingHandler()
	paymentHandler := handlers.NewPaymentHandler(subscriptionService)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		regions := v1.Group("/regions")
		{
			regions.GET("", divisionHandler.ListRegions)
			regions.POST("", divisionHandler.CreateRegion)
			regions.GET("/:id", divisionHandler.GetRegion)
			regions.PATCH("/:id", divisionHandler.UpdateRegion)
			regions.DELETE("/:id", divisionHandler.DeleteRegion)
			regions.GET("/:id/area", spatialHandler.RegionArea)
			regions.GET("/:id/stats", spatialHandler.RegionDetailedStats)
		}

		departments := v1.Group("/departments")
		{
			departments.GET("", divisionHandler.ListDepartments)
			departments.POST("", divisionHandler.CreateDepartment)
			departments.GET("/:id", divisionHandler.GetDepartment)
			departments.PATCH("/:id", divisionHandler.UpdateDepartment)
			departments.DELETE("/:id", divisionHandler.DeleteDepartment)
		}

		arrondissements := v1.Group("/arrondissements")
		{
			arrondissements.GET("", divisionHandler.ListArrondissements)
			arrondissements.POST("", divisionHandler.CreateArrondissement)
			arrondissements.GET("/:id", divisionHandler.GetArrondissement)
			arrondissements.PATCH("/:id", divisionHandler.UpdateArrondissement)
			arrondissements.DELETE("/:id", divisionHandler.DeleteArrondissement)
		}

		parcels := v1.Group("/parcels")
		{
			parcels.GET("", parcelHandler.List)
			parcels.POST("", parcelHandler.Create)
			parcels.GET("/search", parcelHandler.Search)
			parcels.GET("/:id", parcelHandler.GetByID)
			parcels.PATCH("/:id", parcelHandler.Update)
			parcels.DELETE("/:id", parcelHandler.Delete)
			parcels.POST("/:id/images", parcelHandler.AttachImages)
			parcels.GET("/:id/overlaps", parcelHandler.Overlaps)
		}

		spatial := v1.Group("/spatial")
		{
			spatial.GET("/locate", spatialHandler.Locate)
			spatial.GET("/nearest", spatialHandler.Nearest)
			spatial.GET("/parcels-in-bounds", spatialHandler.ParcelsInBounds)
			spatial.GET("/regions/:name/parcels", spatialHandler.ParcelsInRegion)
			spatial.GET("/multi-region-parcels", spatialHandler.MultiRegionParcels)
			spatial.GET("/border-parcels", spatialHandler.BorderParcels)
			spatial.GET("/export", spatialHandler.ExportRegions)
			spatial.POST("/import", spatialHandler.ImportRegion)
			spatial.GET("/stats", spatialHandler.RegionStats)
			spatial.POST("/stats/refresh", spatialHandler.RefreshStats)
			spatial.GET("/integrity", spatialHandler.ValidateIntegrity)
			spatial.GET("/report", spatialHandler.GeographicReport)
			spatial.POST("/optimize", spatialHandler.OptimizeGeometries)
		}

		contacts := v1.Group("/contacts")
		{
			contacts.POST("", contactHandler.Create)
			contacts.GET("/history", contactHandler.History)
			contacts.GET("/:id", contactHandler.GetByID)
			contacts.POST("/:id/approve", contactHandler.Approve)
			contacts.POST("/:id/reject", contactHandler.Reject)
		}

		pricingRoutes := v1.Group("/pricing")
		{
			pricingRoutes.GET("/owner", pricingHandler.OwnerQuote)
			pricingRoutes.GET("/client", pricingHandler.ClientPlans)
		}

		subscriptions := v1.Group("/subscriptions")
		{
			subscriptions.GET("", paymentHandler.SubscriptionHistory)
			subscriptions.POST("", paymentHandler.CreateSubscription)
			subscriptions.GET("/status", paymentHandler.SubscriptionStatus)
		}

		v1.POST("/payments/webhook", paymentHandler.Webhook)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, nil)
	}

	log.Info("Server stopped", nil)
}
