package services

import (
	"log/slog"

	"reelsync/proj/internal/clients/notion"
	"reelsync/proj/internal/clients/tmdb"
	"reelsync/proj/internal/config"
	"reelsync/proj/internal/services/accounts"
	"reelsync/proj/internal/services/workflow"
)

type Services struct {
	Accounts *accounts.Service
	Workflow *workflow.Service
	Sessions *workflow.SessionStore
}

func New(log *slog.Logger, cfg *config.Config, storage accounts.UsersStorage) *Services {
	notionClient := notion.New(log, cfg.Notion.BaseURL, cfg.Notion.Timeout)
	tmdbClient := tmdb.New(
		log,
		cfg.TMDB.BaseURL,
		cfg.TMDB.ImageBaseURL,
		cfg.TMDB.Language,
		cfg.TMDB.Timeout,
	)
	accountsService := accounts.New(log, storage)
	return &Services{
		Accounts: accountsService,
		Workflow: workflow.New(log, notionClient, tmdbClient, accountsService),
		Sessions: workflow.NewSessionStore(log, cfg.Session.TTL),
	}
}
