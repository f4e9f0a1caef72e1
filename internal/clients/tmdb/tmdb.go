package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"reelsync/proj/internal/domain/models"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p/original"
	defaultLanguage     = "pt-BR"
	defaultTimeout      = 10 * time.Second

	// unknownCode marks a poster whose language or country the catalog
	// did not report.
	unknownCode = "??"
)

// Client talks to the TMDb-style metadata catalog. The api key is
// passed per call, same as the notion token: each user brings their
// own.
type Client struct {
	log          *slog.Logger
	httpClient   *http.Client
	baseURL      string
	imageBaseURL string
	language     string
}

func New(log *slog.Logger, baseURL, imageBaseURL, language string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if imageBaseURL == "" {
		imageBaseURL = defaultImageBaseURL
	}
	if language == "" {
		language = defaultLanguage
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		log:          log,
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		imageBaseURL: imageBaseURL,
		language:     language,
	}
}

// WithHTTPClient sets a custom HTTP client, useful for tests.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

type searchResponse struct {
	Results []models.MetadataCandidate `json:"results"`
}

// Search is an exact passthrough of a text search. An empty result
// slice means no matches; errors propagate to the caller.
func (c *Client) Search(ctx context.Context, apiKey, query string) ([]models.MetadataCandidate, error) {
	const op = "tmdb.Client.Search"
	log := c.log.With("op", op, "query", query)
	u := fmt.Sprintf(
		"%s/search/movie?api_key=%s&language=%s&query=%s",
		c.baseURL, apiKey, c.language, url.QueryEscape(query),
	)
	var resp searchResponse
	if err := c.get(ctx, u, &resp); err != nil {
		log.Error("search failed", "errMsg", err.Error())
		return nil, err
	}
	return resp.Results, nil
}

// GetDetails fetches the full record for exactly one movie id.
func (c *Client) GetDetails(ctx context.Context, apiKey string, id int) (*models.MetadataCandidate, error) {
	const op = "tmdb.Client.GetDetails"
	log := c.log.With("op", op, "id", id)
	u := fmt.Sprintf("%s/movie/%d?api_key=%s&language=%s", c.baseURL, id, apiKey, c.language)
	var details models.MetadataCandidate
	if err := c.get(ctx, u, &details); err != nil {
		log.Error("details fetch failed", "errMsg", err.Error())
		return nil, err
	}
	return &details, nil
}

type imagesResponse struct {
	Posters []struct {
		FilePath string `json:"file_path"`
		ISO6391  string `json:"iso_639_1"`
		ISO31661 string `json:"iso_3166_1"`
	} `json:"posters"`
}

// GetPosters fetches every poster variant for one movie id. Poster
// URLs are the image CDN base concatenated with the returned file
// path.
func (c *Client) GetPosters(ctx context.Context, apiKey string, id int) ([]models.PosterOption, error) {
	const op = "tmdb.Client.GetPosters"
	log := c.log.With("op", op, "id", id)
	u := fmt.Sprintf("%s/movie/%d/images?api_key=%s", c.baseURL, id, apiKey)
	var resp imagesResponse
	if err := c.get(ctx, u, &resp); err != nil {
		log.Error("images fetch failed", "errMsg", err.Error())
		return nil, err
	}
	posters := make([]models.PosterOption, 0, len(resp.Posters))
	for _, p := range resp.Posters {
		lang := p.ISO6391
		if lang == "" {
			lang = unknownCode
		}
		country := p.ISO31661
		if country == "" {
			country = unknownCode
		}
		posters = append(posters, models.PosterOption{
			URL:      c.imageBaseURL + p.FilePath,
			Language: lang,
			Country:  country,
		})
	}
	return posters, nil
}

func (c *Client) get(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding tmdb response: %w", err)
	}
	return nil
}
