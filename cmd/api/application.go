package main

import (
	"log/slog"

	govalidator "github.com/go-playground/validator/v10"

	"reelsync/proj/internal/config"
	"reelsync/proj/internal/services"
	"reelsync/proj/internal/services/accounts"
)

type Application struct {
	cfg       *config.Config
	log       *slog.Logger
	Http      *Http
	services  *services.Services
	validator *govalidator.Validate
}

func NewApplication(cfg *config.Config, log *slog.Logger, storage accounts.UsersStorage) *Application {
	return &Application{
		cfg:       cfg,
		log:       log,
		validator: govalidator.New(govalidator.WithRequiredStructEnabled()),
		services:  services.New(log, cfg, storage),
		Http: &Http{
			log: log,
			cfg: cfg,
		},
	}
}
