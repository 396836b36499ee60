// Command agent runs one GenericAgentRuntime (C3): a single worker that
// registers itself with the registry (C4), serves the streaming task
// protocol on its own HTTP/websocket endpoints, and drives the model
// gateway (C2) with its configured personality and tools.
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
	"github.com/kandev/agentnet/internal/runtime"
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

	log.Info("starting agent runtime", zap.String("name", cfg.System.Name))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	files, err := filestore.New(cfg.FileStore.Dir, log)
	if err != nil {
		log.Fatal("failed to initialize file store", zap.Error(err))
	}

	provider, err := anthropic.NewFromAPIKey(cfg.APIService.APIKey, cfg.APIService.Model, anthropic.Options{})
	if err != nil {
		log.Fatal("failed to initialize model provider", zap.Error(err))
	}
	gateway := model.New(provider)

	var extraEndpoints []string
	for _, mcpSvc := range cfg.MCP {
		if mcpSvc.URL != "" {
			extraEndpoints = append(extraEndpoints, mcpSvc.URL)
		}
	}

	personality := runtime.Personality{
		Name:                cfg.System.Name,
		Category:            cfg.System.Category,
		URL:                 cfg.System.URL,
		Expose:              cfg.System.Expose,
		VisibleTo:           cfg.System.VisibleTo,
		SystemPrompt:        cfg.Prompts[cfg.System.Role],
		SupportedMediaTypes: cfg.System.SupportedMediaTypes,
		ExtraToolEndpoints:  extraEndpoints,
	}

	rt := runtime.New(cfg, personality, gateway, files, log)
	if err := rt.Start(ctx); err != nil {
		log.Fatal("failed to register with the registry", zap.Error(err))
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := rt.Router()

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

	log.Info("shutting down agent runtime")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", zap.Error(err))
	}

	rt.Stop(context.Background())
	log.Info("agent runtime stopped")
}
