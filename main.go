package main

import (
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := logger.Init(cfg.Server.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()
	log := logger.L()

	storefront, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("failed to create app", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting server", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := storefront.Fiber.Listen(cfg.Server.Port); err != nil {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down server")

	if err := storefront.Fiber.Shutdown(); err != nil {
		log.Error("error during fiber shutdown", zap.Error(err))
	}
	if err := storefront.Close(); err != nil {
		log.Error("error releasing resources", zap.Error(err))
	}
	log.Info("server gracefully stopped")
}
