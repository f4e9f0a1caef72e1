package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"reelsync/proj/internal/domain/models"
)

// MovieBaseProvider is the external movie database: listing supplies
// page ids, the two patch calls write back selected fields and the
// poster URL.
type MovieBaseProvider interface {
	ListMovies(ctx context.Context, token, databaseID string) ([]models.MovieRecord, error)
	PatchFields(ctx context.Context, token, pageID string, details models.MetadataCandidate) error
	PatchPoster(ctx context.Context, token, pageID, posterURL string) error
}

// CatalogProvider is the metadata catalog queried for candidates,
// details and poster variants.
type CatalogProvider interface {
	Search(ctx context.Context, apiKey, query string) ([]models.MetadataCandidate, error)
	GetDetails(ctx context.Context, apiKey string, id int) (*models.MetadataCandidate, error)
	GetPosters(ctx context.Context, apiKey string, id int) ([]models.PosterOption, error)
}

// CredentialsProvider resolves the per-user API credentials saved by
// the accounts service.
type CredentialsProvider interface {
	GetCredentials(ctx context.Context, username string) (models.Credentials, error)
}

// Service drives the selection workflow: list movies, pick one, search
// the catalog, optionally push fields, pick a poster, push the poster.
// Each step is gated on the previous one having produced a non-empty
// result. There is no retry anywhere: a failed step leaves the session
// at its current step awaiting a fresh user action.
type Service struct {
	log         *slog.Logger
	movieBase   MovieBaseProvider
	catalog     CatalogProvider
	credentials CredentialsProvider
}

func New(log *slog.Logger, movieBase MovieBaseProvider, catalog CatalogProvider, credentials CredentialsProvider) *Service {
	return &Service{
		log:         log,
		movieBase:   movieBase,
		catalog:     catalog,
		credentials: credentials,
	}
}

// resolveCredentials fails with ErrCredentialsMissing until the user
// has saved a complete triple.
func (s *Service) resolveCredentials(ctx context.Context, sess *Session) (models.Credentials, error) {
	creds, err := s.credentials.GetCredentials(ctx, sess.Username)
	if err != nil {
		return models.Credentials{}, err
	}
	if !creds.Complete() {
		return models.Credentials{}, ErrCredentialsMissing
	}
	return creds, nil
}

// ListMovies refreshes the session's movie listing. A movie database
// failure degrades to ErrMovieBaseUnavailable with the previous step
// preserved; the caller reports it and shows an empty list.
func (s *Service) ListMovies(ctx context.Context, sess *Session) ([]models.MovieRecord, error) {
	const op = "workflow.Service.ListMovies"
	log := s.log.With("op", op, "username", sess.Username)
	creds, err := s.resolveCredentials(ctx, sess)
	if err != nil {
		return nil, err
	}
	movies, err := s.movieBase.ListMovies(ctx, creds.NotionToken, creds.DatabaseID)
	if err != nil {
		log.Warn("movie listing failed, degrading to empty", "errMsg", err.Error())
		return nil, ErrMovieBaseUnavailable
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.Step = StepMoviesListed
	sess.Movies = movies
	sess.ChosenMovie = nil
	sess.Candidates = nil
	sess.ChosenCandidate = nil
	sess.Posters = nil
	sess.ChosenPosterURL = ""
	return movies, nil
}

// ChooseMovie picks a movie by 1-based index into the session's last
// listing. Index 0 is the "none chosen" sentinel and performs no
// downstream work.
func (s *Service) ChooseMovie(sess *Session, index int) (*models.MovieRecord, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.Step == StepReady {
		return nil, ErrWrongStep
	}
	if index == 0 {
		return nil, ErrNoMovieChosen
	}
	if index < 0 || index > len(sess.Movies) {
		return nil, ErrInvalidSelection
	}
	movie := sess.Movies[index-1]
	sess.Step = StepMovieChosen
	sess.ChosenMovie = &movie
	sess.Candidates = nil
	sess.ChosenCandidate = nil
	sess.Posters = nil
	sess.ChosenPosterURL = ""
	return &movie, nil
}

// SearchCandidates queries the catalog. An empty query defaults to the
// chosen movie's original title, falling back to its title. Catalog
// errors propagate: the interaction aborts, the session stays put.
func (s *Service) SearchCandidates(ctx context.Context, sess *Session, query string) ([]models.MetadataCandidate, error) {
	const op = "workflow.Service.SearchCandidates"
	sess.mu.Lock()
	if sess.ChosenMovie == nil {
		sess.mu.Unlock()
		return nil, ErrNoMovieChosen
	}
	if query == "" {
		query = sess.ChosenMovie.OriginalTitle
		if query == "" {
			query = sess.ChosenMovie.Title
		}
	}
	sess.mu.Unlock()

	creds, err := s.resolveCredentials(ctx, sess)
	if err != nil {
		return nil, err
	}
	candidates, err := s.catalog.Search(ctx, creds.TMDBAPIKey, query)
	if err != nil {
		s.log.With("op", op, "username", sess.Username).Error("catalog search failed", "errMsg", err.Error())
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.Step = StepCandidatesListed
	sess.Candidates = candidates
	sess.ChosenCandidate = nil
	sess.Posters = nil
	sess.ChosenPosterURL = ""
	return candidates, nil
}

// ChooseCandidate picks a candidate by 0-based index into the last
// search result.
func (s *Service) ChooseCandidate(sess *Session, index int) (*models.MetadataCandidate, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.Step != StepCandidatesListed && sess.Step != StepCandidateChosen && sess.Step != StepPostersListed {
		return nil, ErrWrongStep
	}
	if index < 0 || index >= len(sess.Candidates) {
		return nil, ErrInvalidSelection
	}
	candidate := sess.Candidates[index]
	sess.Step = StepCandidateChosen
	sess.ChosenCandidate = &candidate
	sess.Posters = nil
	sess.ChosenPosterURL = ""
	return &candidate, nil
}

// ApplyDetails fetches the chosen candidate's full record and patches
// the selected fields onto the chosen page. It is an optional side
// effect and does not advance the workflow. A failed page patch is
// reported via ErrPageUpdateFailed, never fatal to the session.
func (s *Service) ApplyDetails(ctx context.Context, sess *Session) error {
	const op = "workflow.Service.ApplyDetails"
	log := s.log.With("op", op, "username", sess.Username)
	sess.mu.Lock()
	if sess.ChosenMovie == nil || sess.ChosenCandidate == nil {
		sess.mu.Unlock()
		return ErrWrongStep
	}
	candidateID := sess.ChosenCandidate.ID
	pageID := sess.ChosenMovie.PageID
	sess.mu.Unlock()

	creds, err := s.resolveCredentials(ctx, sess)
	if err != nil {
		return err
	}
	details, err := s.catalog.GetDetails(ctx, creds.TMDBAPIKey, candidateID)
	if err != nil {
		log.Error("catalog details fetch failed", "errMsg", err.Error())
		return err
	}
	if err := s.movieBase.PatchFields(ctx, creds.NotionToken, pageID, *details); err != nil {
		log.Warn("field patch failed", "errMsg", err.Error())
		return fmt.Errorf("%w: %v", ErrPageUpdateFailed, err)
	}
	return nil
}

// ListPosters fetches every poster variant for the chosen candidate.
func (s *Service) ListPosters(ctx context.Context, sess *Session) ([]models.PosterOption, error) {
	const op = "workflow.Service.ListPosters"
	sess.mu.Lock()
	if sess.ChosenCandidate == nil {
		sess.mu.Unlock()
		return nil, ErrWrongStep
	}
	candidateID := sess.ChosenCandidate.ID
	sess.mu.Unlock()

	creds, err := s.resolveCredentials(ctx, sess)
	if err != nil {
		return nil, err
	}
	posters, err := s.catalog.GetPosters(ctx, creds.TMDBAPIKey, candidateID)
	if err != nil {
		s.log.With("op", op, "username", sess.Username).Error("poster fetch failed", "errMsg", err.Error())
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.Step = StepPostersListed
	sess.Posters = posters
	sess.ChosenPosterURL = ""
	return posters, nil
}

// ChoosePoster writes the picked poster URL to the chosen page in a
// single patch, then clears the pending choice so a redisplay cannot
// write it twice. The session stays at the posters step.
func (s *Service) ChoosePoster(ctx context.Context, sess *Session, index int) (string, error) {
	const op = "workflow.Service.ChoosePoster"
	log := s.log.With("op", op, "username", sess.Username)
	sess.mu.Lock()
	if sess.Step != StepPostersListed {
		sess.mu.Unlock()
		return "", ErrWrongStep
	}
	if index < 0 || index >= len(sess.Posters) {
		sess.mu.Unlock()
		return "", ErrInvalidSelection
	}
	sess.ChosenPosterURL = sess.Posters[index].URL
	posterURL := sess.ChosenPosterURL
	pageID := sess.ChosenMovie.PageID
	sess.mu.Unlock()

	// The pending choice is cleared whether or not the patch landed;
	// retrying is always an explicit fresh pick.
	defer func() {
		sess.mu.Lock()
		sess.ChosenPosterURL = ""
		sess.mu.Unlock()
	}()

	creds, err := s.resolveCredentials(ctx, sess)
	if err != nil {
		return "", err
	}
	if err := s.movieBase.PatchPoster(ctx, creds.NotionToken, pageID, posterURL); err != nil {
		log.Warn("poster patch failed", "errMsg", err.Error())
		return "", fmt.Errorf("%w: %v", ErrPageUpdateFailed, err)
	}
	log.Info("poster updated", "page_id", pageID, "poster_url", posterURL)
	return posterURL, nil
}
