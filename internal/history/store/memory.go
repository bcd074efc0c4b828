// Package store persists driver history events.
package store

import (
	"context"
	"slices"
	"sync"

	"vetting/internal/history/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
)

// InMemory keeps each driver's events sorted by sequence.
type InMemory struct {
	mu     sync.RWMutex
	events map[id.DriverID][]models.Event
}

func NewInMemory() *InMemory {
	return &InMemory{events: make(map[id.DriverID][]models.Event)}
}

// Append inserts e at its sequence position. Re-appending the same event is a
// no-op; a different event at an occupied sequence is ErrDuplicate. CreatedAt
// is clamped so it never precedes the previous event's.
func (s *InMemory) Append(ctx context.Context, e models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.events[e.DriverID]
	i, found := slices.BinarySearchFunc(list, e.Sequence, func(ev models.Event, seq int64) int {
		switch {
		case ev.Sequence < seq:
			return -1
		case ev.Sequence > seq:
			return 1
		default:
			return 0
		}
	})
	if found {
		if list[i].SameAs(e) {
			return nil
		}
		return sentinel.ErrDuplicate
	}
	if i > 0 && e.CreatedAt.Before(list[i-1].CreatedAt) {
		e.CreatedAt = list[i-1].CreatedAt
	}
	s.events[e.DriverID] = slices.Insert(list, i, e)
	return nil
}

func (s *InMemory) ListByDriver(ctx context.Context, driverID id.DriverID) ([]models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events[driverID]), nil
}

// Latest returns the highest-sequence event or ErrNotFound.
func (s *InMemory) Latest(ctx context.Context, driverID id.DriverID) (models.Event, error) {
	if err := ctx.Err(); err != nil {
		return models.Event{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.events[driverID]
	if len(list) == 0 {
		return models.Event{}, sentinel.ErrNotFound
	}
	return list[len(list)-1], nil
}
