package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"reelsync/proj/internal/config"
	"reelsync/proj/internal/domain/models"
	"reelsync/proj/internal/storage"
)

type fakeStorage struct {
	users map[string]*models.User
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{users: make(map[string]*models.User)}
}

func (f *fakeStorage) FindUser(_ context.Context, username string) (*models.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

func (f *fakeStorage) CreateUser(_ context.Context, username, passwordHash string) (*models.User, error) {
	if _, ok := f.users[username]; ok {
		return nil, storage.ErrConflict
	}
	user := &models.User{Username: username, PasswordHash: []byte(passwordHash)}
	f.users[username] = user
	return user, nil
}

func (f *fakeStorage) SaveCredentials(_ context.Context, username string, creds models.Credentials) error {
	user, ok := f.users[username]
	if !ok {
		return storage.ErrNotFound
	}
	user.Credentials = creds
	return nil
}

func (f *fakeStorage) GetCredentials(_ context.Context, username string) (models.Credentials, error) {
	user, ok := f.users[username]
	if !ok {
		return models.Credentials{}, storage.ErrNotFound
	}
	return user.Credentials, nil
}

func NewTestApplication(cfg *config.Config, t *testing.T) *Application {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = "test-secret"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = time.Hour
	}
	return NewApplication(cfg, slog.Default(), newFakeStorage())
}
