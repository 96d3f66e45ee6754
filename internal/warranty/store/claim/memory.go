package claim

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	"warranty/pkg/platform/sentinel"
)

// InMemory stores claims keyed by id.
type InMemory struct {
	mu     sync.RWMutex
	claims map[id.ClaimID]*models.ClaimRecord
}

func NewInMemory() *InMemory {
	return &InMemory{claims: make(map[id.ClaimID]*models.ClaimRecord)}
}

func (s *InMemory) Create(_ context.Context, c *models.ClaimRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.claims[c.ID]; exists {
		return fmt.Errorf("claim %s: %w", c.ID, sentinel.ErrAlreadyUsed)
	}
	s.claims[c.ID] = c.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, claimID id.ClaimID) (*models.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ClaimRecord, 0, len(s.claims))
	for _, c := range s.claims {
		out = append(out, c.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) ListBySerialIDs(_ context.Context, serialIDs []id.SerialID) ([]*models.ClaimRecord, error) {
	want := make(map[id.SerialID]struct{}, len(serialIDs))
	for _, sid := range serialIDs {
		want[sid] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ClaimRecord
	for _, c := range s.claims {
		if _, ok := want[c.SerialID]; ok {
			out = append(out, c.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) DeleteBySerial(_ context.Context, serialID id.SerialID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for claimID, c := range s.claims {
		if c.SerialID == serialID {
			delete(s.claims, claimID)
		}
	}
	return nil
}

func sortNewestFirst(claims []*models.ClaimRecord) {
	sort.Slice(claims, func(i, j int) bool {
		return claims[i].CreatedAt.After(claims[j].CreatedAt)
	})
}
