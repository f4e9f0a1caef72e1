// Package postgres is the keyed alternative to the sheets user store:
// same interface, but registration is an atomic upsert instead of
// check-then-append.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"reelsync/proj/internal/domain/models"
	"reelsync/proj/internal/storage"
)

const ErrConflictCode = "23505"

type Storage struct {
	Conn *pgxpool.Pool
}

func New(ctx context.Context, dsn string, maxConns int, maxConnIdleTime time.Duration) (*Storage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pool.Config().MaxConns = int32(maxConns)
	pool.Config().MaxConnIdleTime = maxConnIdleTime
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return &Storage{Conn: pool}, nil
}

type userRow struct {
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	NotionToken  string    `db:"notion_token"`
	DatabaseID   string    `db:"database_id"`
	TMDBAPIKey   string    `db:"tmdb_api_key"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toUser() *models.User {
	return &models.User{
		Username:     r.Username,
		PasswordHash: []byte(r.PasswordHash),
		Credentials: models.Credentials{
			NotionToken: r.NotionToken,
			DatabaseID:  r.DatabaseID,
			TMDBAPIKey:  r.TMDBAPIKey,
		},
		CreatedAt: r.CreatedAt,
	}
}

func (db *Storage) FindUser(ctx context.Context, username string) (*models.User, error) {
	rows, err := db.Conn.Query(
		ctx,
		`SELECT username, password_hash, notion_token, database_id, tmdb_api_key, created_at
		FROM users WHERE username = $1`,
		username,
	)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return row.toUser(), nil
}

// CreateUser inserts the new row atomically. A concurrent insert for
// the same username surfaces as ErrConflict, never a duplicate row.
func (db *Storage) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	rows, _ := db.Conn.Query(
		ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2)
		RETURNING username, password_hash, notion_token, database_id, tmdb_api_key, created_at`,
		username,
		passwordHash,
	)
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		var pgxErr *pgconn.PgError
		if errors.As(err, &pgxErr) && pgxErr.Code == ErrConflictCode {
			return nil, storage.ErrConflict
		}
		return nil, err
	}
	return row.toUser(), nil
}

func (db *Storage) SaveCredentials(ctx context.Context, username string, creds models.Credentials) error {
	status, err := db.Conn.Exec(
		ctx,
		`UPDATE users SET notion_token = $1, database_id = $2, tmdb_api_key = $3 WHERE username = $4`,
		creds.NotionToken,
		creds.DatabaseID,
		creds.TMDBAPIKey,
		username,
	)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (db *Storage) GetCredentials(ctx context.Context, username string) (models.Credentials, error) {
	user, err := db.FindUser(ctx, username)
	if err != nil {
		return models.Credentials{}, err
	}
	return user.Credentials, nil
}
