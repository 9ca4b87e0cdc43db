// @title           Todo API
// @version         1.0
// @description     Todo API with per-user ownership, search and overdue listing.
// @BasePath        /api
// @securityDefinitions.apikey  CookieAuth
// @in                          cookie
// @name                        session_id
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

//go:generate swag init --dir ../../ --generalInfo cmd/api/main.go --output ../../docs --outputTypes go --parseInternal

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"todoapp/internal/app"
	"todoapp/internal/config"
	"todoapp/internal/logging"

	_ "todoapp/docs"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", "err", err)
	}
	logger := logging.New(cfg.App.LogLevel, cfg.App.LogFormat, os.Stderr)
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("config loaded, connecting to store and Redis", "driver", cfg.Store.Driver, "env", cfg.App.Env)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("app init", "err", err)
	}
	defer application.Close()

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server error", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
