package accounts

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"reelsync/proj/internal/domain/models"
	"reelsync/proj/internal/storage"
)

// UsersStorage is the credential store: one row per user keyed by
// username, holding the password hash and the three third-party
// credentials.
type UsersStorage interface {
	FindUser(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	SaveCredentials(ctx context.Context, username string, creds models.Credentials) error
	GetCredentials(ctx context.Context, username string) (models.Credentials, error)
}

type Service struct {
	log     *slog.Logger
	storage UsersStorage
}

func New(log *slog.Logger, storage UsersStorage) *Service {
	return &Service{
		log:     log,
		storage: storage,
	}
}

// Register hashes the password and creates the user. A taken username
// yields ErrUsernameTaken regardless of password.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	const op = "accounts.Service.Register"
	log := s.log.With("op", op, "username", username)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("hashing password", "errMsg", err.Error())
		return nil, err
	}
	user, err := s.storage.CreateUser(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("username already taken")
			return nil, ErrUsernameTaken
		}
		log.Error(err.Error())
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the password against the stored hash. The
// comparison is delegated to bcrypt, never done on plaintext.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	const op = "accounts.Service.Authenticate"
	log := s.log.With("op", op, "username", username)
	user, err := s.storage.FindUser(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return nil, ErrUserNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		log.Info("wrong password")
		return nil, ErrWrongPassword
	}
	return user, nil
}

func (s *Service) SaveCredentials(ctx context.Context, username string, creds models.Credentials) error {
	const op = "accounts.Service.SaveCredentials"
	log := s.log.With("op", op, "username", username)
	if err := s.storage.SaveCredentials(ctx, username, creds); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return ErrUserNotFound
		}
		log.Error(err.Error())
		return err
	}
	return nil
}

// GetCredentials returns the saved triple, each field defaulting to
// the empty string when unset.
func (s *Service) GetCredentials(ctx context.Context, username string) (models.Credentials, error) {
	const op = "accounts.Service.GetCredentials"
	log := s.log.With("op", op, "username", username)
	creds, err := s.storage.GetCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return models.Credentials{}, ErrUserNotFound
		}
		log.Error(err.Error())
		return models.Credentials{}, err
	}
	return creds, nil
}
