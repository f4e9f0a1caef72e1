// Package sheets implements the user store on a spreadsheet-style REST
// API: one row per user, username in column A, password hash and the
// three API credentials in columns B-E. Row position addresses
// updates, first matching username wins.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"reelsync/proj/internal/domain/models"
	"reelsync/proj/internal/storage"
)

const defaultTimeout = 10 * time.Second

// firstDataRow skips the header row; the values API is 1-indexed.
const firstDataRow = 2

type Store struct {
	log           *slog.Logger
	httpClient    *http.Client
	baseURL       string
	spreadsheetID string
	sheet         string
	token         string
}

func New(log *slog.Logger, baseURL, spreadsheetID, sheet, token string, timeout time.Duration) *Store {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Store{
		log:           log,
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		token:         token,
	}
}

// WithHTTPClient sets a custom HTTP client, useful for tests.
func (s *Store) WithHTTPClient(client *http.Client) *Store {
	s.httpClient = client
	return s
}

type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

func (s *Store) FindUser(ctx context.Context, username string) (*models.User, error) {
	_, row, err := s.findRow(ctx, username)
	if err != nil {
		return nil, err
	}
	return rowToUser(row), nil
}

// CreateUser appends a new row with empty credential cells. The
// duplicate check and the append are two separate calls: the values
// API has no atomic upsert, so a concurrent registration can still
// slip through (see the postgres backend for the keyed alternative).
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	const op = "sheets.Store.CreateUser"
	_, _, err := s.findRow(ctx, username)
	if err == nil {
		return nil, storage.ErrConflict
	}
	if err != storage.ErrNotFound {
		return nil, err
	}
	body := valueRange{Values: [][]string{{username, passwordHash, "", "", ""}}}
	appendURL := fmt.Sprintf(
		"%s/v4/spreadsheets/%s/values/%s!A:E:append?valueInputOption=RAW",
		s.baseURL, s.spreadsheetID, s.sheet,
	)
	if err := s.call(ctx, http.MethodPost, appendURL, body, nil); err != nil {
		s.log.With("op", op, "username", username).Error("append failed", "errMsg", err.Error())
		return nil, err
	}
	return &models.User{Username: username, PasswordHash: []byte(passwordHash)}, nil
}

// SaveCredentials overwrites the three credential cells of the user's
// row in a single range update.
func (s *Store) SaveCredentials(ctx context.Context, username string, creds models.Credentials) error {
	const op = "sheets.Store.SaveCredentials"
	rowNum, _, err := s.findRow(ctx, username)
	if err != nil {
		return err
	}
	body := valueRange{Values: [][]string{{creds.NotionToken, creds.DatabaseID, creds.TMDBAPIKey}}}
	updateURL := fmt.Sprintf(
		"%s/v4/spreadsheets/%s/values/%s!C%d:E%d?valueInputOption=RAW",
		s.baseURL, s.spreadsheetID, s.sheet, rowNum, rowNum,
	)
	if err := s.call(ctx, http.MethodPut, updateURL, body, nil); err != nil {
		s.log.With("op", op, "username", username).Error("range update failed", "errMsg", err.Error())
		return err
	}
	return nil
}

func (s *Store) GetCredentials(ctx context.Context, username string) (models.Credentials, error) {
	_, row, err := s.findRow(ctx, username)
	if err != nil {
		return models.Credentials{}, err
	}
	return rowToUser(row).Credentials, nil
}

// findRow scans all data rows and returns the 1-indexed sheet row of
// the first exact username match.
func (s *Store) findRow(ctx context.Context, username string) (int, []string, error) {
	getURL := fmt.Sprintf(
		"%s/v4/spreadsheets/%s/values/%s!A%d:E",
		s.baseURL, s.spreadsheetID, s.sheet, firstDataRow,
	)
	var vr valueRange
	if err := s.call(ctx, http.MethodGet, getURL, nil, &vr); err != nil {
		return 0, nil, err
	}
	for i, row := range vr.Values {
		if len(row) > 0 && row[0] == username {
			return firstDataRow + i, row, nil
		}
	}
	return 0, nil, storage.ErrNotFound
}

func rowToUser(row []string) *models.User {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return &models.User{
		Username:     cell(0),
		PasswordHash: []byte(cell(1)),
		Credentials: models.Credentials{
			NotionToken: cell(2),
			DatabaseID:  cell(3),
			TMDBAPIKey:  cell(4),
		},
	}
}

func (s *Store) call(ctx context.Context, method, url string, body, dst any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("user store request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("user store responded %d", resp.StatusCode)
	}
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("decoding user store response: %w", err)
		}
	}
	return nil
}
