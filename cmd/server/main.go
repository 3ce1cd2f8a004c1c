package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"stratfolio/internal/config"
	"stratfolio/internal/engine"
	"stratfolio/internal/marketdata"
	"stratfolio/internal/repository"
	"stratfolio/internal/server"
)

func main() {
	// Missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg := config.Load()

	var provider marketdata.Provider
	if cfg.DatabaseURL != "" {
		db, err := repository.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		slog.Info("price provider", "source", "postgres")
		provider = db
	} else {
		slog.Info("price provider", "source", "yahoo")
		provider = marketdata.NewYahooProvider(cfg.ProviderTimeout)
	}

	eng := engine.NewEngine(engine.Config{RiskFreeRate: cfg.RiskFreeRate})

	r := server.NewRouter(provider, eng, server.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		ProviderTimeout: cfg.ProviderTimeout,
	})

	slog.Info("listening", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
