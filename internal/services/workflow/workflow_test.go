package workflow

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelsync/proj/internal/domain/models"
)

type fakeMovieBase struct {
	movies        []models.MovieRecord
	listErr       error
	patchErr      error
	fieldPatches  []models.MetadataCandidate
	posterPatches []string
}

func (f *fakeMovieBase) ListMovies(_ context.Context, _, _ string) ([]models.MovieRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.movies, nil
}

func (f *fakeMovieBase) PatchFields(_ context.Context, _, _ string, details models.MetadataCandidate) error {
	if f.patchErr != nil {
		return f.patchErr
	}
	f.fieldPatches = append(f.fieldPatches, details)
	return nil
}

func (f *fakeMovieBase) PatchPoster(_ context.Context, _, _, posterURL string) error {
	if f.patchErr != nil {
		return f.patchErr
	}
	f.posterPatches = append(f.posterPatches, posterURL)
	return nil
}

type fakeCatalog struct {
	candidates  []models.MetadataCandidate
	details     *models.MetadataCandidate
	posters     []models.PosterOption
	searchErr   error
	searchCalls int
	detailCalls int
	posterCalls int
	lastQuery   string
}

func (f *fakeCatalog) Search(_ context.Context, _, query string) ([]models.MetadataCandidate, error) {
	f.searchCalls++
	f.lastQuery = query
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.candidates, nil
}

func (f *fakeCatalog) GetDetails(_ context.Context, _ string, _ int) (*models.MetadataCandidate, error) {
	f.detailCalls++
	return f.details, nil
}

func (f *fakeCatalog) GetPosters(_ context.Context, _ string, _ int) ([]models.PosterOption, error) {
	f.posterCalls++
	return f.posters, nil
}

type fakeCredentials struct {
	creds models.Credentials
}

func (f *fakeCredentials) GetCredentials(_ context.Context, _ string) (models.Credentials, error) {
	return f.creds, nil
}

var completeCreds = models.Credentials{NotionToken: "tok", DatabaseID: "db", TMDBAPIKey: "key"}

func newTestService(movieBase *fakeMovieBase, catalog *fakeCatalog) (*Service, *Session) {
	service := New(slog.Default(), movieBase, catalog, &fakeCredentials{creds: completeCreds})
	sess := &Session{ID: "sess-1", Username: "alice", Step: StepReady}
	return service, sess
}

func TestListMovies(t *testing.T) {
	movieBase := &fakeMovieBase{movies: []models.MovieRecord{
		{PageID: "page-1", Title: "Matrix", OriginalTitle: "Matrix"},
	}}
	service, sess := newTestService(movieBase, &fakeCatalog{})
	movies, err := service.ListMovies(context.Background(), sess)
	require.NoError(t, err)
	assert.Len(t, movies, 1)
	assert.Equal(t, StepMoviesListed, sess.Step)
}

func TestListMoviesDegradesOnFailure(t *testing.T) {
	movieBase := &fakeMovieBase{listErr: errors.New("boom")}
	service, sess := newTestService(movieBase, &fakeCatalog{})
	_, err := service.ListMovies(context.Background(), sess)
	assert.ErrorIs(t, err, ErrMovieBaseUnavailable)
	// the session stays where it was
	assert.Equal(t, StepReady, sess.Step)
	assert.Empty(t, sess.Movies)
}

func TestListMoviesRequiresCredentials(t *testing.T) {
	service := New(slog.Default(), &fakeMovieBase{}, &fakeCatalog{}, &fakeCredentials{})
	sess := &Session{ID: "sess-1", Username: "alice", Step: StepReady}
	_, err := service.ListMovies(context.Background(), sess)
	assert.ErrorIs(t, err, ErrCredentialsMissing)
}

func TestChooseMovieSentinelIndex(t *testing.T) {
	movieBase := &fakeMovieBase{movies: []models.MovieRecord{{PageID: "page-1", Title: "Matrix"}}}
	catalog := &fakeCatalog{}
	service, sess := newTestService(movieBase, catalog)
	_, err := service.ListMovies(context.Background(), sess)
	require.NoError(t, err)

	// index 0 means "none chosen": progression blocked, zero downstream calls
	_, err = service.ChooseMovie(sess, 0)
	assert.ErrorIs(t, err, ErrNoMovieChosen)
	assert.Nil(t, sess.ChosenMovie)
	assert.Zero(t, catalog.searchCalls)
	assert.Zero(t, catalog.detailCalls)
	assert.Zero(t, catalog.posterCalls)
}

func TestChooseMovieOutOfRange(t *testing.T) {
	movieBase := &fakeMovieBase{movies: []models.MovieRecord{{PageID: "page-1", Title: "Matrix"}}}
	service, sess := newTestService(movieBase, &fakeCatalog{})
	_, err := service.ListMovies(context.Background(), sess)
	require.NoError(t, err)
	_, err = service.ChooseMovie(sess, 2)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestChooseMovieBeforeListing(t *testing.T) {
	service, sess := newTestService(&fakeMovieBase{}, &fakeCatalog{})
	_, err := service.ChooseMovie(sess, 1)
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestSearchDefaultsToOriginalTitle(t *testing.T) {
	movieBase := &fakeMovieBase{movies: []models.MovieRecord{
		{PageID: "page-1", Title: "Matrix", OriginalTitle: "The Matrix"},
	}}
	catalog := &fakeCatalog{candidates: []models.MetadataCandidate{{ID: 603, Title: "Matrix"}}}
	service, sess := newTestService(movieBase, catalog)
	_, err := service.ListMovies(context.Background(), sess)
	require.NoError(t, err)
	_, err = service.ChooseMovie(sess, 1)
	require.NoError(t, err)

	_, err = service.SearchCandidates(context.Background(), sess, "")
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", catalog.lastQuery)
	assert.Equal(t, StepCandidatesListed, sess.Step)
}

func TestSearchErrorAborts(t *testing.T) {
	movieBase := &fakeMovieBase{movies: []models.MovieRecord{{PageID: "page-1", Title: "Matrix"}}}
	catalog := &fakeCatalog{searchErr: errors.New("catalog down")}
	service, sess := newTestService(movieBase, catalog)
	_, err := service.ListMovies(context.Background(), sess)
	require.NoError(t, err)
	_, err = service.ChooseMovie(sess, 1)
	require.NoError(t, err)

	_, err = service.SearchCandidates(context.Background(), sess, "Matrix")
	assert.EqualError(t, err, "catalog down")
	// the session stays at the movie-chosen step
	assert.Equal(t, StepMovieChosen, sess.Step)
}

func TestEmptyCandidatesHaltWorkflow(t *testing.T) {
	movieBase := &fakeMovieBase{movies: []models.MovieRecord{{PageID: "page-1", Title: "Matrix"}}}
	catalog := &fakeCatalog{}
	service, sess := newTestService(movieBase, catalog)
	_, err := service.ListMovies(context.Background(), sess)
	require.NoError(t, err)
	_, err = service.ChooseMovie(sess, 1)
	require.NoError(t, err)
	candidates, err := service.SearchCandidates(context.Background(), sess, "Matrix")
	require.NoError(t, err)
	assert.Empty(t, candidates)

	// nothing to choose, posters are unreachable
	_, err = service.ChooseCandidate(sess, 0)
	assert.ErrorIs(t, err, ErrInvalidSelection)
	_, err = service.ListPosters(context.Background(), sess)
	assert.ErrorIs(t, err, ErrWrongStep)
	assert.Zero(t, catalog.posterCalls)
}

func TestApplyDetails(t *testing.T) {
	movieBase := &fakeMovieBase{movies: []models.MovieRecord{{PageID: "page-1", Title: "Matrix"}}}
	catalog := &fakeCatalog{
		candidates: []models.MetadataCandidate{{ID: 603, Title: "Matrix"}},
		details: &models.MetadataCandidate{
			ID: 603, Title: "Matrix", Overview: "A hacker...", ReleaseDate: "1999-03-31",
		},
	}
	service, sess := newTestService(movieBase, catalog)
	_, err := service.ListMovies(context.Background(), sess)
	require.NoError(t, err)
	_, err = service.ChooseMovie(sess, 1)
	require.NoError(t, err)
	_, err = service.SearchCandidates(context.Background(), sess, "Matrix")
	require.NoError(t, err)
	_, err = service.ChooseCandidate(sess, 0)
	require.NoError(t, err)

	require.NoError(t, service.ApplyDetails(context.Background(), sess))
	assert.Equal(t, 1, catalog.detailCalls)
	require.Len(t, movieBase.fieldPatches, 1)
	assert.Equal(t, "A hacker...", movieBase.fieldPatches[0].Overview)
	// state is unchanged by the optional side effect
	assert.Equal(t, StepCandidateChosen, sess.Step)
}

func TestApplyDetailsPatchFailureIsReported(t *testing.T) {
	movieBase := &fakeMovieBase{movies: []models.MovieRecord{{PageID: "page-1", Title: "Matrix"}}}
	catalog := &fakeCatalog{
		candidates: []models.MetadataCandidate{{ID: 603}},
		details:    &models.MetadataCandidate{ID: 603, Title: "Matrix"},
	}
	service, sess := newTestService(movieBase, catalog)
	_, err := service.ListMovies(context.Background(), sess)
	require.NoError(t, err)
	_, err = service.ChooseMovie(sess, 1)
	require.NoError(t, err)
	_, err = service.SearchCandidates(context.Background(), sess, "Matrix")
	require.NoError(t, err)
	_, err = service.ChooseCandidate(sess, 0)
	require.NoError(t, err)

	movieBase.patchErr = errors.New("page gone")
	err = service.ApplyDetails(context.Background(), sess)
	assert.ErrorIs(t, err, ErrPageUpdateFailed)
	assert.Equal(t, StepCandidateChosen, sess.Step)
}

func TestChoosePoster(t *testing.T) {
	movieBase := &fakeMovieBase{movies: []models.MovieRecord{
		{PageID: "page-1", Title: "Matrix", OriginalTitle: "Matrix"},
	}}
	catalog := &fakeCatalog{
		candidates: []models.MetadataCandidate{{ID: 603, Title: "Matrix"}},
		posters: []models.PosterOption{
			{URL: "https://image.tmdb.org/t/p/original/p.jpg", Language: "en", Country: "US"},
		},
	}
	service, sess := newTestService(movieBase, catalog)
	_, err := service.ListMovies(context.Background(), sess)
	require.NoError(t, err)
	_, err = service.ChooseMovie(sess, 1)
	require.NoError(t, err)
	_, err = service.SearchCandidates(context.Background(), sess, "Matrix")
	require.NoError(t, err)
	_, err = service.ChooseCandidate(sess, 0)
	require.NoError(t, err)
	posters, err := service.ListPosters(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, posters, 1)

	posterURL, err := service.ChoosePoster(context.Background(), sess, 0)
	require.NoError(t, err)
	assert.Equal(t, "https://image.tmdb.org/t/p/original/p.jpg", posterURL)
	// exactly one patch, and the pending choice is cleared
	assert.Equal(t, []string{"https://image.tmdb.org/t/p/original/p.jpg"}, movieBase.posterPatches)
	assert.Empty(t, sess.ChosenPosterURL)
	assert.Equal(t, StepPostersListed, sess.Step)
}

func TestChoosePosterWrongStep(t *testing.T) {
	service, sess := newTestService(&fakeMovieBase{}, &fakeCatalog{})
	_, err := service.ChoosePoster(context.Background(), sess, 0)
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestSessionClear(t *testing.T) {
	sess := &Session{
		ID:              "sess-1",
		Username:        "alice",
		Step:            StepPostersListed,
		Movies:          []models.MovieRecord{{PageID: "page-1"}},
		ChosenPosterURL: "https://image.tmdb.org/t/p/original/p.jpg",
	}
	sess.Clear()
	assert.Equal(t, StepReady, sess.Step)
	assert.Empty(t, sess.Movies)
	assert.Empty(t, sess.ChosenPosterURL)
	assert.Equal(t, "alice", sess.Username)
}
