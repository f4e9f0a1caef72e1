package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"reelsync/proj/internal/config"
	"reelsync/proj/internal/lib/logger"
	"reelsync/proj/internal/services/accounts"
	"reelsync/proj/internal/storage/postgres"
	"reelsync/proj/internal/storage/sheets"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "config/local.yml", "path to config file")
	flag.Parse()
	godotenv.Load()
	cfg := config.MustLoad(*cfgPath)
	log := logger.SetupLogger(cfg.Debug)

	var storage accounts.UsersStorage
	switch cfg.UserStore.Backend {
	case config.BackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		db, err := postgres.New(ctx, cfg.UserStore.DB.Dsn, cfg.UserStore.DB.MaxConns, cfg.UserStore.DB.MaxConnIdleTime)
		if err != nil {
			panic(err)
		}
		defer db.Conn.Close()
		log.Info("user store connected", "backend", cfg.UserStore.Backend)
		storage = db
	default:
		storage = sheets.New(
			log,
			cfg.UserStore.Sheets.BaseURL,
			cfg.UserStore.Sheets.SpreadsheetID,
			cfg.UserStore.Sheets.Sheet,
			cfg.UserStore.Sheets.Token,
			cfg.UserStore.Sheets.Timeout,
		)
		log.Info("user store configured", "backend", config.BackendSheets, "sheet", cfg.UserStore.Sheets.Sheet)
	}

	app := NewApplication(cfg, log, storage)
	if err := app.serve(); err != nil {
		app.log.Error("shutting down the server", "reason", err.Error())
		os.Exit(1)
	}
}
