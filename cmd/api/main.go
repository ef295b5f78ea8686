package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/remflow/stockhistory-api/internal/application/catalog"
	"github.com/remflow/stockhistory-api/internal/application/history"
	"github.com/remflow/stockhistory-api/internal/application/stock"
	"github.com/remflow/stockhistory-api/internal/infrastructure/remonline"
	httpRouter "github.com/remflow/stockhistory-api/internal/interfaces/http"
	"github.com/remflow/stockhistory-api/pkg/config"
	"github.com/remflow/stockhistory-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("starting application")

	if cfg.Source.Username == "" || cfg.Source.Password == "" {
		log.Warn().Msg("REMONLINE_USERNAME or REMONLINE_PASSWORD not set, source fetches will fail until configured")
	}

	sessions := remonline.NewSessionStore(cfg.Source, log)
	client := remonline.NewClient(cfg.Source, sessions, log)
	directory := remonline.NewDirectory(client, time.Duration(cfg.Source.DirectoryTTLMin)*time.Minute, log)

	historyUC := history.NewUseCase(client, directory, log)
	stockUC := stock.NewRealtimeUseCase(client, log)
	catalogUC := catalog.NewUseCase(client)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		HistoryUC: historyUC,
		StockUC:   stockUC,
		CatalogUC: catalogUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("application stopped")
}
