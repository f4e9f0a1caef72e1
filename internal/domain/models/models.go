package models

import "time"

type User struct {
	Username     string
	PasswordHash []byte
	Credentials  Credentials
	CreatedAt    time.Time
}

// Credentials are the per-user third-party API secrets resolved by the
// credential store. Unset fields stay empty strings.
type Credentials struct {
	NotionToken string `json:"notion_token"`
	DatabaseID  string `json:"database_id"`
	TMDBAPIKey  string `json:"tmdb_api_key"`
}

func (c Credentials) Complete() bool {
	return c.NotionToken != "" && c.DatabaseID != "" && c.TMDBAPIKey != ""
}

// MovieRecord is one page of the external movie database. Only the
// fields this system patches are modeled; everything else stays on the
// page untouched.
type MovieRecord struct {
	PageID        string `json:"page_id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
}

// MetadataCandidate is a single catalog search result, ephemeral per
// search.
type MetadataCandidate struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	OriginalTitle    string `json:"original_title"`
	ReleaseDate      string `json:"release_date,omitempty"`
	Overview         string `json:"overview,omitempty"`
	OriginalLanguage string `json:"original_language,omitempty"`
}

// PosterOption is one selectable poster image variant, tagged with
// language/country codes ("??" when the catalog omits them).
type PosterOption struct {
	URL      string `json:"url"`
	Language string `json:"language"`
	Country  string `json:"country"`
}
