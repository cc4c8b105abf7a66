package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/egobogo/trellosync/internal/board"
	"github.com/egobogo/trellosync/internal/kvstore"
)

// Keys the session is persisted under.
const (
	TokenKey = "auth.token"
	UserKey  = "auth.user"
)

// ErrEmptyToken is returned by SetAuth for an empty token.
var ErrEmptyToken = errors.New("auth: token must not be empty")

// Session is a snapshot of the authentication state.
type Session struct {
	Token           string
	IsAuthenticated bool
	User            *board.Member
	IsLoading       bool
}

// TokenStore is the process-scoped holder of the Trello token and the
// authenticated member. Reads are in-memory and never block on I/O; writes
// update memory first and then persist.
//
// A single writer per event: the interceptor only clears through Invalidate,
// which compares the token the failing request carried, so concurrent 401s
// for the same token clear once.
type TokenStore struct {
	store kvstore.Store
	log   zerolog.Logger

	mu      sync.RWMutex
	session Session
	// version counts in-memory transitions. A write to the store is skipped
	// once a later transition has happened, so the latest one is durable.
	version uint64

	persistMu sync.Mutex

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Session)
}

// NewTokenStore creates a store in the loading state. Call Initialize before
// issuing authenticated requests.
func NewTokenStore(store kvstore.Store, log zerolog.Logger) *TokenStore {
	return &TokenStore{
		store:   store,
		log:     log.With().Str("component", "auth").Logger(),
		session: Session{IsLoading: true},
		subs:    make(map[int]func(Session)),
	}
}

// Initialize loads the persisted session. It may be called again to re-read
// durable state, for example after another process logged in or out.
func (s *TokenStore) Initialize(ctx context.Context) error {
	token, _, tokenErr := s.store.Get(ctx, TokenKey)
	var user *board.Member
	var userErr error
	if tokenErr == nil && token != "" {
		user, userErr = s.loadUser(ctx)
	}

	s.mu.Lock()
	if tokenErr != nil {
		// Keep whatever is in memory; only leave the loading state.
		s.session.IsLoading = false
	} else {
		s.session = Session{
			Token:           token,
			IsAuthenticated: token != "",
			User:            user,
		}
		s.version++
	}
	snapshot := s.session
	s.mu.Unlock()

	s.log.Debug().Bool("authenticated", snapshot.IsAuthenticated).Msg("session initialized")
	s.notify(snapshot)

	if tokenErr != nil {
		return fmt.Errorf("failed to load token: %w", tokenErr)
	}
	if userErr != nil {
		return fmt.Errorf("failed to load user: %w", userErr)
	}
	return nil
}

func (s *TokenStore) loadUser(ctx context.Context) (*board.Member, error) {
	raw, found, err := s.store.Get(ctx, UserKey)
	if err != nil || !found || raw == "" {
		return nil, err
	}
	var user board.Member
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetAuth makes token the current session. Memory is updated even if the
// durable write fails; the returned error only reports persistence.
func (s *TokenStore) SetAuth(ctx context.Context, token string, user *board.Member) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	s.session = Session{
		Token:           token,
		IsAuthenticated: true,
		User:            user,
	}
	s.version++
	version := s.version
	snapshot := s.session
	s.mu.Unlock()

	s.log.Debug().Msg("session set")
	s.notify(snapshot)

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if !s.current(version) {
		return nil
	}
	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist token")
		return fmt.Errorf("failed to persist token: %w", err)
	}
	if user == nil {
		if err := s.store.Remove(ctx, UserKey); err != nil {
			s.log.Warn().Err(err).Msg("failed to remove persisted user")
			return fmt.Errorf("failed to remove persisted user: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.store.Set(ctx, UserKey, string(data)); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist user")
		return fmt.Errorf("failed to persist user: %w", err)
	}
	return nil
}

// SetUser attaches the authenticated member to the current session, for
// example once /members/me has been fetched after login.
func (s *TokenStore) SetUser(ctx context.Context, user *board.Member) error {
	s.mu.Lock()
	if !s.session.IsAuthenticated {
		s.mu.Unlock()
		return nil
	}
	token := s.session.Token
	s.mu.Unlock()
	return s.SetAuth(ctx, token, user)
}

// ClearAuth logs out. Clearing an empty session only re-removes the durable
// records and does not notify subscribers.
func (s *TokenStore) ClearAuth(ctx context.Context) error {
	s.mu.Lock()
	changed := s.session.IsAuthenticated || s.session.IsLoading
	s.session = Session{}
	if changed {
		s.version++
	}
	version := s.version
	s.mu.Unlock()

	if changed {
		s.log.Debug().Msg("session cleared")
		s.notify(Session{})
	}
	return s.removePersisted(ctx, version)
}

// Invalidate clears the session only if token is still the current token.
// It reports whether this call performed the logout, so among concurrent
// callers holding the same token exactly one sees true.
func (s *TokenStore) Invalidate(ctx context.Context, token string) bool {
	s.mu.Lock()
	if token == "" || s.session.Token != token {
		s.mu.Unlock()
		return false
	}
	s.session = Session{}
	s.version++
	version := s.version
	s.mu.Unlock()

	s.log.Info().Msg("session invalidated by unauthorized response")
	s.notify(Session{})
	if err := s.removePersisted(context.WithoutCancel(ctx), version); err != nil {
		s.log.Warn().Err(err).Msg("failed to remove persisted session")
	}
	return true
}

// removePersisted deletes the durable session unless a transition newer than
// version has happened since.
func (s *TokenStore) removePersisted(ctx context.Context, version uint64) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if !s.current(version) {
		return nil
	}
	if err := s.store.Remove(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	if err := s.store.Remove(ctx, UserKey); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}
	return nil
}

func (s *TokenStore) current(version uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version == version
}

// Token returns the current token, "" when logged out.
func (s *TokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// IsAuthenticated reports whether a token is held.
func (s *TokenStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAuthenticated
}

// Session returns a snapshot of the current state.
func (s *TokenStore) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Subscribe registers fn to run after every session transition. fn runs on
// the goroutine that caused the transition, with no lock held, so it may
// itself change the session.
func (s *TokenStore) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *TokenStore) notify(session Session) {
	s.subMu.Lock()
	subs := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
}
