package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"reelsync/proj/internal/domain/models"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
	defaultTimeout = 10 * time.Second
)

// Client talks to the Notion pages/databases API. The token is passed
// per call because every user brings their own integration token.
type Client struct {
	log        *slog.Logger
	httpClient *http.Client
	baseURL    string
	version    string
}

func New(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		log:        log,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		version:    apiVersion,
	}
}

// WithHTTPClient sets a custom HTTP client, useful for tests.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

type queryResponse struct {
	Results []Page `json:"results"`
}

// Page is the raw database page shape as returned by the query
// endpoint. Only the id and the property bag are of interest.
type Page struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
}

// ListMovies queries the whole database, first page only, no filter.
func (c *Client) ListMovies(ctx context.Context, token, databaseID string) ([]models.MovieRecord, error) {
	const op = "notion.Client.ListMovies"
	log := c.log.With("op", op, "database_id", databaseID)
	path := fmt.Sprintf("/databases/%s/query", databaseID)
	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, path, token, nil, &resp); err != nil {
		log.Error("query failed", "errMsg", err.Error())
		return nil, err
	}
	records := make([]models.MovieRecord, 0, len(resp.Results))
	for _, p := range resp.Results {
		records = append(records, models.MovieRecord{
			PageID:        p.ID,
			Title:         c.ExtractTitle(p),
			OriginalTitle: c.ExtractOriginalTitle(p),
		})
	}
	return records, nil
}

// ExtractTitle unwraps properties.Title.title[0].plain_text.
func (c *Client) ExtractTitle(p Page) string {
	return c.extractPlainText(p.Properties, "Title", "title")
}

// ExtractOriginalTitle unwraps properties["Original Title"].rich_text[0].plain_text.
func (c *Client) ExtractOriginalTitle(p Page) string {
	return c.extractPlainText(p.Properties, "Original Title", "rich_text")
}

// PatchFields maps the non-empty catalog fields onto the page's
// property shapes. Absent fields are not cleared (partial update).
func (c *Client) PatchFields(ctx context.Context, token, pageID string, details models.MetadataCandidate) error {
	const op = "notion.Client.PatchFields"
	properties := map[string]any{}
	if details.Title != "" {
		properties["Title"] = map[string]any{
			"title": []any{map[string]any{"text": map[string]any{"content": details.Title}}},
		}
	}
	if details.OriginalTitle != "" {
		properties["Original Title"] = richText(details.OriginalTitle)
	}
	if details.Overview != "" {
		properties["Synopsis"] = richText(details.Overview)
	}
	if details.ReleaseDate != "" {
		properties["Release Date"] = map[string]any{
			"date": map[string]any{"start": details.ReleaseDate},
		}
	}
	if details.OriginalLanguage != "" {
		properties["Language"] = map[string]any{
			"select": map[string]any{"name": details.OriginalLanguage},
		}
	}
	if err := c.patchPage(ctx, token, pageID, properties); err != nil {
		c.log.With("op", op, "page_id", pageID).Error("patch failed", "errMsg", err.Error())
		return err
	}
	return nil
}

// PatchPoster replaces the Poster files property with a single
// external URL in one PATCH, no read-modify-write.
func (c *Client) PatchPoster(ctx context.Context, token, pageID, posterURL string) error {
	const op = "notion.Client.PatchPoster"
	properties := map[string]any{
		"Poster": map[string]any{
			"files": []any{map[string]any{
				"type":     "external",
				"name":     "Poster",
				"external": map[string]any{"url": posterURL},
			}},
		},
	}
	if err := c.patchPage(ctx, token, pageID, properties); err != nil {
		c.log.With("op", op, "page_id", pageID).Error("patch failed", "errMsg", err.Error())
		return err
	}
	return nil
}

func (c *Client) patchPage(ctx context.Context, token, pageID string, properties map[string]any) error {
	path := fmt.Sprintf("/pages/%s", pageID)
	body := map[string]any{"properties": properties}
	return c.do(ctx, http.MethodPatch, path, token, body, nil)
}

func richText(content string) map[string]any {
	return map[string]any{
		"rich_text": []any{map[string]any{"text": map[string]any{"content": content}}},
	}
}

// extractPlainText defensively unwraps properties.<name>.<kind>[0].plain_text.
// Any malformed or missing shape degrades to "" with a warning, never
// an error.
func (c *Client) extractPlainText(properties map[string]any, name, kind string) string {
	if properties == nil {
		c.log.Warn("page has no properties", "property", name)
		return ""
	}
	prop, ok := properties[name].(map[string]any)
	if !ok {
		c.log.Warn("property missing or malformed", "property", name)
		return ""
	}
	items, ok := prop[kind].([]any)
	if !ok || len(items) == 0 {
		return ""
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		c.log.Warn("property value malformed", "property", name)
		return ""
	}
	text, _ := first["plain_text"].(string)
	return text
}

func (c *Client) do(ctx context.Context, method, path, token string, body, dst any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return apiErr
	}
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("decoding notion response: %w", err)
		}
	}
	return nil
}
