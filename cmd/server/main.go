package main

import (
	"os"
	"os/signal"
	"syscall"

	"footwear-backend/internal/config"
	"footwear-backend/internal/database"
	"footwear-backend/internal/metrics"
	"footwear-backend/internal/report"
	"footwear-backend/internal/server"

	"github.com/gofiber/fiber/v2/log"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)
	metrics.Init()

	scheduler, err := report.StartScheduler(database.DB, cfg.DailySummaryAt)
	if err != nil {
		log.Fatal(err)
	}
	if scheduler != nil {
		log.Infof("daily sales summary scheduled at %s", cfg.DailySummaryAt)
	}

	app := server.New(cfg, database.DB)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		log.Info("shutting down")
		if scheduler != nil {
			scheduler.Stop()
		}
		if err := app.Shutdown(); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	log.Infof("server listening on port %s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
