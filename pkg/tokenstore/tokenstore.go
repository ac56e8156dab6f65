// Package tokenstore keeps the session's access and refresh tokens in memory
// and mirrors every change to a persistent key-value backend.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/pawlog/pkg/kvstore"
)

const (
	AccessKey  = "auth_token"
	RefreshKey = "refresh_token"
)

// Store holds at most one access/refresh pair. The in-memory copy is only
// updated after the backend accepted the write.
type Store struct {
	backend kvstore.Store

	mu      sync.Mutex
	access  string
	refresh string
}

func New(backend kvstore.Store) *Store {
	return &Store{backend: backend}
}

// Access returns the current access token, or "" when none is stored.
func (s *Store) Access(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, AccessKey, &s.access)
}

// Refresh returns the current refresh token, or "" when none is stored.
func (s *Store) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, RefreshKey, &s.refresh)
}

func (s *Store) SetAccess(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store(ctx, AccessKey, token, &s.access)
}

func (s *Store) SetRefresh(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store(ctx, RefreshKey, token, &s.refresh)
}

// SetPair stores both tokens under one lock. An empty refresh token keeps the
// existing one, matching servers that do not rotate refresh tokens.
func (s *Store) SetPair(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store(ctx, AccessKey, access, &s.access); err != nil {
		return err
	}
	if refresh == "" {
		return nil
	}
	return s.store(ctx, RefreshKey, refresh, &s.refresh)
}

// Clear forgets both tokens. Memory is reset even when the backend fails.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = ""
	s.refresh = ""

	var errs []error
	for _, key := range []string{AccessKey, RefreshKey} {
		if err := s.backend.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("tokenstore: delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) load(ctx context.Context, key string, slot *string) (string, error) {
	if *slot != "" {
		return *slot, nil
	}

	v, found, err := s.backend.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("tokenstore: read %s: %w", key, err)
	}
	if found {
		*slot = v
	}
	return *slot, nil
}

func (s *Store) store(ctx context.Context, key, value string, slot *string) error {
	var err error
	if value == "" {
		err = s.backend.Delete(ctx, key)
	} else {
		err = s.backend.Set(ctx, key, value)
	}
	if err != nil {
		return fmt.Errorf("tokenstore: write %s: %w", key, err)
	}

	*slot = value
	return nil
}
