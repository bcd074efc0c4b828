// Package store persists driver applications.
package store

import (
	"context"
	"slices"
	"sync"

	"vetting/internal/driver/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
)

// InMemory is a process-local driver store. Records are cloned on the way in
// and out so callers never alias stored state.
type InMemory struct {
	mu      sync.RWMutex
	drivers map[id.DriverID]*models.Driver
}

func NewInMemory() *InMemory {
	return &InMemory{drivers: make(map[id.DriverID]*models.Driver)}
}

func (s *InMemory) Create(ctx context.Context, d *models.Driver) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.drivers[d.ID]; exists {
		return sentinel.ErrDuplicate
	}
	s.drivers[d.ID] = d.Clone()
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, driverID id.DriverID) (*models.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[driverID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return d.Clone(), nil
}

// List returns matching drivers ordered by creation time, oldest first.
func (s *InMemory) List(ctx context.Context, filter models.Filter) ([]*models.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*models.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		if filter.Matches(d) {
			out = append(out, d.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *models.Driver) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update replaces the record if its stored version equals expectedVersion.
func (s *InMemory) Update(ctx context.Context, d *models.Driver, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.drivers[d.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	s.drivers[d.ID] = d.Clone()
	return nil
}
