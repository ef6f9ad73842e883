package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const (
	// CredentialKey is the storage key of the persisted credential.
	CredentialKey string = "app_password"
	// LegacyTokenKey is an older storage key removed on logout.
	LegacyTokenKey string = "auth_token"
)

// CredentialStore persists the credential between runs.
type CredentialStore interface {
	// Load returns the persisted credential, or "" when none is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, credential string) error
	Clear(ctx context.Context) error
}

// KeyValue is the storage a [KeyValueStore] writes through to.
//
// [repositories.CredentialRepository] satisfies it.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// KeyValueStore keeps the credential under [CredentialKey] in a [KeyValue].
type KeyValueStore struct {
	kv KeyValue
}

// NewKeyValueStore creates a [CredentialStore] over kv.
func NewKeyValueStore(kv KeyValue) *KeyValueStore {
	return &KeyValueStore{kv: kv}
}

func (s *KeyValueStore) Load(ctx context.Context) (string, error) {
	value, ok, err := s.kv.Get(ctx, CredentialKey)
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

func (s *KeyValueStore) Save(ctx context.Context, credential string) error {
	if err := s.kv.Set(ctx, CredentialKey, credential); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Clear removes both the current and the legacy key.
func (s *KeyValueStore) Clear(ctx context.Context) error {
	return errors.Join(
		s.kv.Delete(ctx, CredentialKey),
		s.kv.Delete(ctx, LegacyTokenKey),
	)
}

// MemoryStore is an in-process [CredentialStore] that records how often it was written.
type MemoryStore struct {
	mu     sync.Mutex
	value  string
	saves  int
	clears int
}

// NewMemoryStore returns a store holding credential. Pass "" for an empty store.
func NewMemoryStore(credential string) *MemoryStore {
	return &MemoryStore{value: credential}
}

func (m *MemoryStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

func (m *MemoryStore) Save(_ context.Context, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = credential
	m.saves++
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = ""
	m.clears++
	return nil
}

// Value returns the stored credential.
func (m *MemoryStore) Value() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// Saves returns the number of Save calls.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Clears returns the number of Clear calls.
func (m *MemoryStore) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}
