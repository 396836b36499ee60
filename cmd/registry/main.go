// Command registry runs the Registry & Graph Service (C4): the shared
// directory every agent registers with, discovers peers through, and
// relays user-facing task events to.
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
	"go.uber.org/zap"

	"github.com/kandev/agentnet/internal/common/config"
	"github.com/kandev/agentnet/internal/common/logger"
	"github.com/kandev/agentnet/internal/filestore"
	"github.com/kandev/agentnet/internal/model"
	"github.com/kandev/agentnet/internal/model/anthropic"
	"github.com/kandev/agentnet/internal/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	log.Info("starting registry service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	files, err := filestore.New(cfg.FileStore.Dir, log)
	if err != nil {
		log.Fatal("failed to initialize file store", zap.Error(err))
	}
	if err := files.ClearAll(); err != nil {
		log.Fatal("failed to clear file store on startup", zap.Error(err))
	}

	bus, err := registry.NewEventBus(cfg.NATS, log)
	if err != nil {
		log.Fatal("failed to connect to nats event bus", zap.Error(err))
	}
	if bus != nil {
		log.Info("connected to nats event bus", zap.String("url", cfg.NATS.URL))
	} else {
		log.Info("nats event bus disabled, no url configured")
	}

	provider, err := anthropic.NewFromAPIKey(cfg.APIService.APIKey, cfg.APIService.Model, anthropic.Options{})
	if err != nil {
		log.Fatal("failed to initialize model provider", zap.Error(err))
	}
	gateway := model.New(provider)

	svc := registry.NewService(ctx, cfg, files, gateway, bus, log)
	defer svc.Close()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := svc.Router()
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	port := cfg.System.Port
	if port == 0 {
		port = 8080
	}
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		log.Info("http server listening", zap.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down registry service")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", zap.Error(err))
	}

	log.Info("registry service stopped")
}
