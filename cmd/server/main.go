package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crimesense/casesearch/api/internal/config"
	"github.com/crimesense/casesearch/api/internal/database"
	"github.com/crimesense/casesearch/api/internal/handlers"
	"github.com/crimesense/casesearch/api/internal/logger"
	"github.com/crimesense/casesearch/api/internal/middleware"
	"github.com/crimesense/casesearch/api/internal/repository"
	"github.com/crimesense/casesearch/api/internal/services"
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
	log.Info("Starting CaseSearch API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS))

	// Initialize repository and service layers
	caseRepo := repository.NewCaseRepository(db, cfg.Query.YearBase)
	caseService := services.NewCaseService(caseRepo, log)

	// Initialize handlers
	metaHandler := handlers.NewMetaHandler(caseService)
	caseHandler := handlers.NewCaseHandler(caseService)
	filterHandler := handlers.NewFilterHandler(caseService)

	// Register routes
	router.GET("/", metaHandler.Root)
	router.GET("/health", metaHandler.Health)
	router.GET("/stats", metaHandler.Stats)

	cases := router.Group("/cases")
	{
		cases.GET("", caseHandler.List)
		cases.GET("/filters", filterHandler.All)
		cases.GET("/centers", filterHandler.Centers)
		cases.GET("/provinces", filterHandler.Provinces)
		cases.GET("/amphurs", filterHandler.Amphurs)
		cases.GET("/tambols", filterHandler.Tambols)
		cases.GET("/:case_id", caseHandler.Detail)
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
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
