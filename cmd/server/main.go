package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	factureapp "github.com/facture/backend/internal/application/facture"
	"github.com/facture/backend/internal/infrastructure/billing"
	"github.com/facture/backend/internal/infrastructure/config"
	"github.com/facture/backend/internal/infrastructure/document"
	"github.com/facture/backend/internal/infrastructure/logger"
	"github.com/facture/backend/internal/infrastructure/printing"
	"github.com/facture/backend/internal/interfaces/http/handler"
	"github.com/facture/backend/internal/interfaces/http/middleware"
	"github.com/facture/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting facture backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// External API clients. Both sides of the pipeline share the bearer token.
	billingClient := billing.NewClient(billing.Config{
		APIURL:  cfg.Billing.APIURL,
		Token:   cfg.Document.Token,
		Timeout: cfg.Billing.Timeout,
	})
	documentClient := document.NewClient(document.Config{
		APIURL:  cfg.Document.APIURL,
		Token:   cfg.Document.Token,
		Folder:  cfg.Document.Folder,
		Timeout: cfg.Document.Timeout,
	})

	// PDF rendering pipeline
	renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Renderer.Timeout,
		RemoteURL:      cfg.Renderer.RemoteURL,
		NoSandbox:      cfg.Renderer.NoSandbox,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			log.Error("Error closing renderer", zap.Error(err))
		}
	}()

	artifacts, err := printing.NewArtifactStore(cfg.Generator.ScratchDir, log)
	if err != nil {
		log.Fatal("Failed to initialize artifact store", zap.Error(err))
	}

	// Application service
	factureService, err := factureapp.NewService(
		cfg.Generator.TemplatePath,
		billingClient,
		documentClient,
		printing.NewTemplateEngine(),
		renderer,
		artifacts,
		log,
	)
	if err != nil {
		log.Fatal("Failed to initialize facture service", zap.Error(err))
	}

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORS(),
	)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)
	engine.GET("/health", systemHandler.Health)

	router.NewRouter(engine).
		Register(handler.NewFactureHandler(factureService)).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
