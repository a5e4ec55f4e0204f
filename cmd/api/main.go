package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventhive/internal/api"
	"eventhive/internal/config"
	"eventhive/internal/logger"
	"eventhive/internal/validation"
)

func main() {
	// Проверяем, нужно ли запустить валидацию
	if len(os.Args) > 1 && os.Args[1] == "validate" {
		validation.RunValidation()
		return
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat, "eventhive-api")
	log := logger.Get()

	// pprof слушает отдельный порт, чтобы не светить его через API
	if cfg.PprofEnabled {
		go func() {
			log.Info("Starting pprof server", "port", cfg.PprofPort)
			if err := http.ListenAndServe("localhost:"+cfg.PprofPort, nil); err != nil {
				log.Error("pprof server stopped", "error", err)
			}
		}()
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logger.Fatal("Failed to start API", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.GetRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Ждем сигнал для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := server.Cleanup(); err != nil {
		log.Error("Error during cleanup", "error", err)
	}

	log.Info("Server stopped")
}
