package tmdb

import "fmt"

// APIError is a non-2xx response from the metadata catalog.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tmdb API error %d: %s", e.StatusCode, e.Body)
}
