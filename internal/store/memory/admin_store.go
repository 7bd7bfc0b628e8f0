package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/openforecast/marketd/internal/domain"
)

// AdminStore implements domain.AdminStore as an in-memory identity set.
type AdminStore struct {
	mu     sync.RWMutex
	admins map[string]bool
}

// NewAdminStore creates an empty AdminStore.
func NewAdminStore() *AdminStore {
	return &AdminStore{admins: make(map[string]bool)}
}

// Add inserts an identity into the set. Adding an existing admin is a no-op.
func (s *AdminStore) Add(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[identity] = true
	return nil
}

// Remove deletes an identity from the set.
func (s *AdminStore) Remove(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.admins, identity)
	return nil
}

// IsAdmin reports membership.
func (s *AdminStore) IsAdmin(_ context.Context, identity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[identity], nil
}

// List returns all admin identities in sorted order.
func (s *AdminStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.admins))
	for id := range s.admins {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

var _ domain.AdminStore = (*AdminStore)(nil)
