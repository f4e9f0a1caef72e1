package workflow

import "errors"

var (
	ErrCredentialsMissing   = errors.New("api credentials are not saved yet")
	ErrMovieBaseUnavailable = errors.New("could not fetch movies from the movie database")
	ErrNoMovieChosen        = errors.New("no movie chosen")
	ErrInvalidSelection     = errors.New("selection is out of range")
	ErrWrongStep            = errors.New("action is not available at this step")
	ErrPageUpdateFailed     = errors.New("failed to update the page")
)
