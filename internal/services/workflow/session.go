package workflow

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"reelsync/proj/internal/domain/models"
)

type Step string

const (
	StepReady            Step = "ready"
	StepMoviesListed     Step = "movies_listed"
	StepMovieChosen      Step = "movie_chosen"
	StepCandidatesListed Step = "candidates_listed"
	StepCandidateChosen  Step = "candidate_chosen"
	StepPostersListed    Step = "posters_listed"
)

// Session is the per-user mutable state threaded through the
// workflow. It exists only between login and logout; everything in it
// is scoped to one pass over one movie. Page ids used by patch calls
// always come from the listing cached here, never from an earlier
// session.
type Session struct {
	mu sync.Mutex

	ID       string
	Username string
	Step     Step

	Movies          []models.MovieRecord
	ChosenMovie     *models.MovieRecord
	Candidates      []models.MetadataCandidate
	ChosenCandidate *models.MetadataCandidate
	Posters         []models.PosterOption
	ChosenPosterURL string

	lastSeen time.Time
}

// Clear resets every in-progress choice, returning the session to the
// post-login state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Step = StepReady
	s.Movies = nil
	s.ChosenMovie = nil
	s.Candidates = nil
	s.ChosenCandidate = nil
	s.Posters = nil
	s.ChosenPosterURL = ""
}

const janitorInterval = 5 * time.Minute

// SessionStore keeps live sessions in memory, keyed by the opaque id
// carried in the bearer token. Idle sessions are evicted by a
// background sweep.
type SessionStore struct {
	log      *slog.Logger
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewSessionStore(log *slog.Logger, ttl time.Duration) *SessionStore {
	store := &SessionStore{
		log:      log,
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
	go func() {
		for {
			time.Sleep(janitorInterval)
			store.evictIdle()
		}
	}()
	return store
}

func (st *SessionStore) evictIdle() {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, sess := range st.sessions {
		if time.Since(sess.lastSeen) > st.ttl {
			st.log.Debug("evicting idle session", "username", sess.Username)
			delete(st.sessions, id)
		}
	}
}

func (st *SessionStore) Create(username string) (*Session, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	sess := &Session{
		ID:       hex.EncodeToString(buf),
		Username: username,
		Step:     StepReady,
		lastSeen: time.Now(),
	}
	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess, nil
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	sess.mu.Lock()
	sess.lastSeen = time.Now()
	sess.mu.Unlock()
	return sess, true
}

func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}
