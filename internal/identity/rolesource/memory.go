// Package rolesource answers "what role does this user hold right now".
// Users with no explicit grant are end users.
package rolesource

import (
	"context"
	"sync"

	"warranty/internal/identity/models"
	id "warranty/pkg/domain"
)

// InMemory keeps role grants in a map. Seeded from configuration in
// development and used by tests.
type InMemory struct {
	mu    sync.RWMutex
	roles map[id.UserID]models.Role
}

func NewInMemory(admins ...id.UserID) *InMemory {
	s := &InMemory{roles: make(map[id.UserID]models.Role, len(admins))}
	for _, a := range admins {
		s.roles[a] = models.RoleAdmin
	}
	return s
}

func (s *InMemory) RoleOf(_ context.Context, userID id.UserID) (models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.roles[userID]; ok {
		return r, nil
	}
	return models.RoleEndUser, nil
}

func (s *InMemory) Grant(_ context.Context, userID id.UserID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[userID] = role
	return nil
}

func (s *InMemory) Revoke(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, userID)
	return nil
}
