package store

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/services"
	"github.com/desertthunder/nbx/internal/session"
	"github.com/desertthunder/nbx/internal/shared"
)

// Gate decides whether the store may call the API. [session.Session] implements it.
type Gate interface {
	CanFetch() bool
}

// Cache receives a snapshot of the collection after every successful reconciliation.
//
// [repositories.NotebookRepository] implements it.
type Cache interface {
	ReplaceAll(ctx context.Context, notebooks []models.Notebook) error
}

// Subscriber publishes session transitions. [session.Session] implements it.
type Subscriber interface {
	Subscribe(fn session.Observer) (unsubscribe func())
}

// Option configures a [Store].
type Option func(*Store)

// WithCache writes snapshots to c.
func WithCache(c Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is the local cache of the notebook collection.
//
// The API is the source of truth: the collection only changes after a request succeeds, and a
// failed request leaves it exactly as it was.
type Store struct {
	api    services.NotebookService
	gate   Gate
	cache  Cache
	logger *log.Logger

	mu        sync.RWMutex
	notebooks []models.Notebook
	err       error
	inflight  int

	observersMu sync.Mutex
	observers   map[int]Observer
	nextID      int
}

// NewStore creates an empty store. A nil gate always allows fetching.
func NewStore(api services.NotebookService, gate Gate, opts ...Option) *Store {
	s := &Store{
		api:       api,
		gate:      gate,
		logger:    log.New(io.Discard),
		notebooks: []models.Notebook{},
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List replaces the collection with the server's.
//
// It does nothing while the gate is closed. On failure the error is recorded in [Store.Err] and the
// collection is left as it was.
func (s *Store) List(ctx context.Context) error {
	if !s.canFetch() {
		s.logger.Debug("skipping notebook list, session cannot fetch")
		return nil
	}

	s.begin()
	notebooks, err := s.api.List(ctx)
	s.end()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()

		s.logger.Warn("failed to load notebooks", "error", err)
		s.notify(ctx, Event{Kind: EventLoadFailed, Err: err})
		return err
	}

	s.mu.Lock()
	s.notebooks = clone(notebooks)
	s.err = nil
	snapshot := clone(s.notebooks)
	s.mu.Unlock()

	s.logger.Debug("loaded notebooks", "count", len(snapshot))
	s.snapshot(ctx, snapshot)
	s.notify(ctx, Event{Kind: EventLoaded})
	return nil
}

// Refresh re-reads the collection from the server. It is an alias for [Store.List].
func (s *Store) Refresh(ctx context.Context) error {
	return s.List(ctx)
}

// Create submits a new notebook and prepends the server's copy to the collection.
//
// A blank name is rejected with a [*ValidationError] without contacting the API.
func (s *Store) Create(ctx context.Context, name, description string) (*models.Notebook, error) {
	in := models.NotebookInput{Name: name, Description: description}.Normalize()
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "name is required"}
	}

	if err := s.checkGate(); err != nil {
		return nil, err
	}

	s.begin()
	nb, err := s.api.Create(ctx, in)
	s.end()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if err := checkReturned(nb); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.notebooks = append([]models.Notebook{*nb}, s.notebooks...)
	snapshot := clone(s.notebooks)
	s.mu.Unlock()

	s.logger.Debug("created notebook", "id", nb.ID)
	s.snapshot(ctx, snapshot)

	created := *nb
	s.notify(ctx, Event{Kind: EventCreated, ID: nb.ID, Notebook: &created})
	return nb, nil
}

// Update submits a partial update and replaces the local entry with the requested id.
//
// When no local entry has that id the server's copy is not inserted. The store publishes
// [EventUpdateMismatch] and reloads the collection instead.
func (s *Store) Update(ctx context.Context, id string, patch models.NotebookPatch) (*models.Notebook, error) {
	patch, err := normalizePatch(patch)
	if err != nil {
		return nil, err
	}

	if err := s.checkGate(); err != nil {
		return nil, err
	}

	s.begin()
	nb, err := s.api.Update(ctx, id, patch)
	s.end()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if err := checkReturned(nb); err != nil {
		return nil, err
	}

	s.mu.Lock()
	matched := false
	for i := range s.notebooks {
		if s.notebooks[i].ID == id {
			s.notebooks[i] = *nb
			matched = true
			break
		}
	}
	snapshot := clone(s.notebooks)
	s.mu.Unlock()

	updated := *nb
	if !matched {
		s.logger.Warn("updated notebook is not in the local collection, reloading", "id", id, "returned_id", nb.ID)
		s.notify(ctx, Event{Kind: EventUpdateMismatch, ID: id, Notebook: &updated})

		if err := s.List(ctx); err != nil {
			s.logger.Warn("reload after update mismatch failed", "error", err)
		}
		return nb, nil
	}

	s.logger.Debug("updated notebook", "id", id)
	s.snapshot(ctx, snapshot)
	s.notify(ctx, Event{Kind: EventUpdated, ID: id, Notebook: &updated})
	return nb, nil
}

// Delete removes a notebook on the server and then from the collection.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.checkGate(); err != nil {
		return err
	}

	s.begin()
	err := s.api.Delete(ctx, id)
	s.end()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	kept := make([]models.Notebook, 0, len(s.notebooks))
	for _, nb := range s.notebooks {
		if nb.ID != id {
			kept = append(kept, nb)
		}
	}
	s.notebooks = kept
	snapshot := clone(kept)
	s.mu.Unlock()

	s.logger.Debug("deleted notebook", "id", id)
	s.snapshot(ctx, snapshot)
	s.notify(ctx, Event{Kind: EventDeleted, ID: id})
	return nil
}

// Bind loads the collection whenever sub enters a state that allows fetching.
func (s *Store) Bind(sub Subscriber) (unbind func()) {
	return sub.Subscribe(func(ctx context.Context, from, to session.State) {
		if !to.CanFetch() || from.CanFetch() {
			return
		}
		if err := s.List(ctx); err != nil {
			s.logger.Warn("initial notebook load failed", "state", to, "error", err)
		}
	})
}

// Subscribe registers fn for store events and returns a func that removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
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

// Notebooks returns a copy of the collection in its current order.
func (s *Store) Notebooks() []models.Notebook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.notebooks)
}

// Get returns the local notebook with id.
func (s *Store) Get(id string) (models.Notebook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, nb := range s.notebooks {
		if nb.ID == id {
			return nb, true
		}
	}
	return models.Notebook{}, false
}

// Err returns the error of the last failed [Store.List], cleared by the next successful one.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Loading reports whether a request is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

func (s *Store) canFetch() bool {
	return s.gate == nil || s.gate.CanFetch()
}

func (s *Store) checkGate() error {
	if !s.canFetch() {
		return fmt.Errorf("%w: log in before changing notebooks", shared.ErrNotAuthenticated)
	}
	return nil
}

func (s *Store) begin() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

func (s *Store) snapshot(ctx context.Context, notebooks []models.Notebook) {
	if s.cache == nil {
		return
	}
	if err := s.cache.ReplaceAll(ctx, notebooks); err != nil {
		s.logger.Warn("failed to write notebook cache", "error", err)
	}
}

func (s *Store) notify(ctx context.Context, ev Event) {
	s.observersMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.observers[id]; ok {
			observers = append(observers, fn)
		}
	}
	s.observersMu.Unlock()

	for _, fn := range observers {
		fn(ctx, ev)
	}
}

// checkReturned keeps id-less server copies out of the collection, where ids must be unique.
func checkReturned(nb *models.Notebook) error {
	if nb == nil || nb.ID == "" {
		return fmt.Errorf("%w: server returned a notebook without an id", shared.ErrAPIRequest)
	}
	return nil
}

func normalizePatch(p models.NotebookPatch) (models.NotebookPatch, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return p, &ValidationError{Field: "name", Reason: "name cannot be blank"}
		}
		p.Name = &name
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
	return p, nil
}

func clone(notebooks []models.Notebook) []models.Notebook {
	out := make([]models.Notebook, len(notebooks))
	copy(out, notebooks)
	return out
}
