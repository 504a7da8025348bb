// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/workstack/entitlement-backend/internal/config"
	"github.com/workstack/entitlement-backend/internal/database"
	"github.com/workstack/entitlement-backend/internal/entitlements"
	"github.com/workstack/entitlement-backend/internal/i18n"
	"github.com/workstack/entitlement-backend/internal/modules"
	"github.com/workstack/entitlement-backend/internal/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.LocalesPath); err != nil {
		log.Fatal("Failed to initialize i18n:", err)
	}

	// Seed the module registry with the built-in catalog
	registry := modules.NewRegistry()
	if err := modules.SeedRegistry(registry); err != nil {
		log.Fatal("Failed to seed module registry:", err)
	}

	// Shared cache tier is optional; the in-process tier always runs.
	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	cache := entitlements.NewDecisionCache(redisClient, nil)
	client := entitlements.NewAuthorityClient(entitlements.ClientOptions{
		BaseURL:        cfg.Authority.BaseURL,
		APIToken:       cfg.Authority.APIToken,
		MaxAttempts:    cfg.Authority.MaxAttempts,
		BaseDelay:      time.Duration(cfg.Authority.BaseDelayMs) * time.Millisecond,
		MaxDelay:       time.Duration(cfg.Authority.MaxDelayMs) * time.Millisecond,
		RequestTimeout: time.Duration(cfg.Authority.RequestTimeoutMs) * time.Millisecond,
		CacheTTL:       time.Duration(cfg.Entitlements.CacheTTLMinutes) * time.Minute,
		GracePeriod:    time.Duration(cfg.Entitlements.GraceHours) * time.Hour,
	})

	// Start the background revalidation sweep
	revalidator := entitlements.NewRevalidator(cache, client,
		time.Duration(cfg.Entitlements.RevalidateEveryMinutes)*time.Minute)
	revalidator.Start()
	defer revalidator.Stop()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(db, cfg, router.Dependencies{
		Registry:    registry,
		Cache:       cache,
		Client:      client,
		Revalidator: revalidator,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
