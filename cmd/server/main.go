package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/export"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/anonto42/campus-p2p/backend/internal/router"
	"github.com/anonto42/campus-p2p/backend/pkg/config"
	"github.com/anonto42/campus-p2p/backend/pkg/firebase"
	"github.com/anonto42/campus-p2p/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Initialize Firebase
	firebaseApp, err := firebase.InitFirebase(ctx, cfg, firebase.Options{
		Firestore: cfg.DocumentStore == config.DocumentStoreFirestore,
		Storage:   cfg.BlobStore == config.BlobStoreFirebase,
	})
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	defer firebaseApp.Close()

	stores, err := router.NewStores(ctx, cfg, db, firebaseApp)
	if err != nil {
		log.Fatalf("Failed to initialize stores: %v", err)
	}
	services := router.NewServices(cfg, stores, export.NewService())

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	config.SetupMiddleware(e, cfg)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, services, firebaseApp.AuthClient)

	go func() {
		if err := observability.ServeMetrics(ctx, ":"+cfg.MetricsPort); err != nil {
			observability.GlobalLogger.Error("Metrics server stopped", "error", err)
		}
	}()
	go services.Reconciler.Run(ctx, cfg.ReconcileInterval)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	observability.GlobalLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		observability.GlobalLogger.Error("Graceful shutdown failed", "error", err)
	}
}
