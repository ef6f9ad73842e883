package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/services"
)

// DisplayName is the placeholder user name shown while authenticated.
const DisplayName string = "User"

// Prober issues the health probe with exactly the given credential.
//
// [services.APIService] implements it.
type Prober interface {
	Health(ctx context.Context, credential string) (*services.APIResponse, error)
}

// Observer is notified after a state transition, outside of the session's lock.
type Observer func(ctx context.Context, from, to State)

var _ services.CredentialSource = (*Session)(nil)

// Session owns the API credential and the authentication state derived from it.
type Session struct {
	prober Prober
	store  CredentialStore
	logger *log.Logger

	mu          sync.RWMutex
	state       State
	credential  string
	notRequired bool

	observersMu sync.Mutex
	observers   map[int]Observer
	nextID      int
}

// NewSession creates a session in the [Unknown] state. A nil logger discards output.
func NewSession(prober Prober, store CredentialStore, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Session{
		prober:    prober,
		store:     store,
		logger:    logger,
		observers: make(map[int]Observer),
	}
}

// Start determines whether the API needs a credential and, when it does, validates the persisted one.
//
// A transport failure leaves the session [Unauthenticated] and is returned.
func (s *Session) Start(ctx context.Context) error {
	s.transition(ctx, Checking)

	resp, err := s.prober.Health(ctx, "")
	if err != nil {
		s.logger.Warn("health probe failed", "error", err)
		s.set(ctx, func() { s.notRequired = false }, Unauthenticated)
		return fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	if resp.StatusCode != http.StatusUnauthorized {
		s.logger.Debug("api does not require a credential", "status", resp.StatusCode)
		s.set(ctx, func() {
			s.notRequired = true
			s.credential = ""
		}, NotRequired)
		return nil
	}

	s.mu.Lock()
	s.notRequired = false
	s.mu.Unlock()

	stored, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("could not read persisted credential", "error", err)
		stored = ""
	}
	if stored == "" {
		s.transition(ctx, Unauthenticated)
		return nil
	}

	resp, err = s.prober.Health(ctx, stored)
	if err == nil && resp.OK() {
		s.set(ctx, func() { s.credential = stored }, Authenticated)
		return nil
	}

	if err != nil {
		s.logger.Warn("persisted credential could not be checked", "error", err)
	} else {
		s.logger.Info("persisted credential rejected", "status", resp.StatusCode)
	}

	if ctx.Err() == nil {
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			s.logger.Error("failed to clear stale credential", "error", clearErr)
		}
	}
	s.set(ctx, func() { s.credential = "" }, Unauthenticated)
	return nil
}

// Login validates secret against the health probe and persists it on success.
//
// It returns [ErrInvalidCredential] when the API rejects the secret and [ErrAuthFailed] when the probe
// could not complete. Nothing is persisted on failure.
func (s *Session) Login(ctx context.Context, secret string) error {
	if secret == "" {
		s.failLogin(ctx)
		return fmt.Errorf("%w: password is empty", ErrInvalidCredential)
	}

	resp, err := s.prober.Health(ctx, secret)
	if err != nil {
		s.logger.Warn("login probe failed", "error", err)
		s.failLogin(ctx)
		return fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	if !resp.OK() {
		s.logger.Info("login rejected", "status", resp.StatusCode)
		s.failLogin(ctx)
		return fmt.Errorf("%w (status %d)", ErrInvalidCredential, resp.StatusCode)
	}

	if err := s.store.Save(ctx, secret); err != nil {
		s.logger.Error("credential accepted but not persisted", "error", err)
	}

	s.set(ctx, func() { s.credential = secret }, Authenticated)
	return nil
}

// Logout forgets the credential without contacting the API.
//
// The session becomes [NotRequired] if the last probe found no credential requirement and
// [Unauthenticated] otherwise. Calling it repeatedly is safe.
func (s *Session) Logout(ctx context.Context) error {
	clearErr := s.store.Clear(ctx)

	s.mu.RLock()
	to := Unauthenticated
	if s.notRequired {
		to = NotRequired
	}
	s.mu.RUnlock()

	s.set(ctx, func() { s.credential = "" }, to)

	if clearErr != nil {
		return fmt.Errorf("failed to clear credential: %w", clearErr)
	}
	return nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CanFetch reports whether the notebook API may be called.
func (s *Session) CanFetch() bool {
	return s.State().CanFetch()
}

// Credential returns the held credential, or "" when there is none.
func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// User returns the display name while authenticated and "" otherwise.
func (s *Session) User() string {
	if s.State() == Authenticated {
		return DisplayName
	}
	return ""
}

// Subscribe registers fn for state transitions and returns a func that removes it.
func (s *Session) Subscribe(fn Observer) (unsubscribe func()) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = fn

	return func() {
		s.observersMu.Lock()
		defer s.observersMu.Unlock()
		delete(s.observers, id)
	}
}

// failLogin moves a session that requires a credential back to [Unauthenticated].
func (s *Session) failLogin(ctx context.Context) {
	s.mu.RLock()
	notRequired := s.notRequired
	s.mu.RUnlock()

	if !notRequired {
		s.set(ctx, func() { s.credential = "" }, Unauthenticated)
	}
}

func (s *Session) transition(ctx context.Context, to State) {
	s.set(ctx, nil, to)
}

// set applies mutate and the new state under the lock, then notifies observers if the state changed.
func (s *Session) set(ctx context.Context, mutate func(), to State) {
	s.mu.Lock()
	if mutate != nil {
		mutate()
	}
	from := s.state
	s.state = to
	s.mu.Unlock()

	if from == to {
		return
	}

	s.logger.Debug("session transition", "from", from, "to", to)
	s.notify(ctx, from, to)
}

func (s *Session) notify(ctx context.Context, from, to State) {
	s.observersMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.observers[id]; ok {
			observers = append(observers, fn)
		}
	}
	s.observersMu.Unlock()

	for _, fn := range observers {
		fn(ctx, from, to)
	}
}
