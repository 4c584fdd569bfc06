package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sbomer-dashboard/internal/app"
	"sbomer-dashboard/internal/config"
	"sbomer-dashboard/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	log := logger.New(cfg.App.AppName, cfg.App.LogLevel)

	bootstrap, cleanup, err := app.Bootstrap(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to bootstrap app")
	}
	defer func() {
		if err := cleanup(); err != nil {
			log.WithError(err).Error("cleanup error")
		}
	}()

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		log.WithError(err).Fatal("invalid HTTP port")
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.App.Environment, "sbomer_url": cfg.Sbomer.BaseURL}).Info("dashboard listening")
		errCh <- bootstrap.Fiber.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Fatal("server error")
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := bootstrap.Fiber.ShutdownWithContext(ctx); err != nil {
			log.WithError(err).Error("shutdown error")
		}
	}
}
