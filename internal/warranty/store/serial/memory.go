package serial

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	"warranty/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded serial store keyed by id with a unique
// secondary index on serial_number. Records are cloned on the way in and out.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[id.SerialID]*models.SerialRecord
	byCode map[string]id.SerialID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[id.SerialID]*models.SerialRecord),
		byCode: make(map[string]id.SerialID),
	}
}

func (s *InMemory) Create(_ context.Context, rec *models.SerialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byCode[rec.SerialNumber]; taken {
		return fmt.Errorf("serial number %q: %w", rec.SerialNumber, sentinel.ErrAlreadyUsed)
	}
	if _, taken := s.byID[rec.ID]; taken {
		return fmt.Errorf("serial id %s: %w", rec.ID, sentinel.ErrAlreadyUsed)
	}
	s.byID[rec.ID] = rec.Clone()
	s.byCode[rec.SerialNumber] = rec.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, serialID id.SerialID) (*models.SerialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[serialID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemory) FindBySerialNumber(_ context.Context, code string) (*models.SerialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	serialID, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[serialID].Clone(), nil
}

// Transition is a compare-and-swap on (id, status): the write happens only
// when the current status is in from, all under the write lock.
func (s *InMemory) Transition(_ context.Context, serialID id.SerialID, from []models.Status, to models.Status, changes models.SerialChanges, now time.Time) (*models.SerialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[serialID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !slices.Contains(from, rec.Status) {
		return nil, fmt.Errorf("serial %s is %s: %w", serialID, rec.Status, sentinel.ErrInvalidState)
	}
	rec.ApplyTransition(to, changes, now)
	return rec.Clone(), nil
}

func (s *InMemory) List(_ context.Context, filter models.SerialFilter) ([]*models.SerialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.SerialRecord, 0, len(s.byID))
	for _, rec := range s.byID {
		if filter.Matches(rec) {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].SerialNumber < out[j].SerialNumber
	})
	return out, nil
}

// Delete removes the serial only when its status is in allowed.
func (s *InMemory) Delete(_ context.Context, serialID id.SerialID, allowed []models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[serialID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !slices.Contains(allowed, rec.Status) {
		return fmt.Errorf("serial %s is %s: %w", serialID, rec.Status, sentinel.ErrInvalidState)
	}
	delete(s.byCode, rec.SerialNumber)
	delete(s.byID, serialID)
	return nil
}
