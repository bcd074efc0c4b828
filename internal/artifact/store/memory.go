// Package store persists uploaded artifacts.
package store

import (
	"context"
	"slices"
	"sync"

	"vetting/internal/artifact/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
)

type InMemory struct {
	mu        sync.RWMutex
	artifacts map[id.ArtifactID]*models.Artifact
	byDriver  map[id.DriverID][]id.ArtifactID
}

func NewInMemory() *InMemory {
	return &InMemory{
		artifacts: make(map[id.ArtifactID]*models.Artifact),
		byDriver:  make(map[id.DriverID][]id.ArtifactID),
	}
}

func clone(a *models.Artifact) *models.Artifact {
	c := *a
	if a.VerificationDate != nil {
		t := *a.VerificationDate
		c.VerificationDate = &t
	}
	return &c
}

func (s *InMemory) Create(ctx context.Context, a *models.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.artifacts[a.ID]; exists {
		return sentinel.ErrDuplicate
	}
	s.artifacts[a.ID] = clone(a)
	s.byDriver[a.DriverID] = append(s.byDriver[a.DriverID], a.ID)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, artifactID id.ArtifactID) (*models.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[artifactID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

// ListByDriver returns artifacts in upload order.
func (s *InMemory) ListByDriver(ctx context.Context, driverID id.DriverID) ([]*models.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byDriver[driverID]
	out := make([]*models.Artifact, 0, len(ids))
	for _, aid := range ids {
		out = append(out, clone(s.artifacts[aid]))
	}
	slices.SortStableFunc(out, func(a, b *models.Artifact) int {
		return a.UploadedAt.Compare(b.UploadedAt)
	})
	return out, nil
}

// Update replaces the artifact if its stored version equals expectedVersion.
func (s *InMemory) Update(ctx context.Context, a *models.Artifact, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.artifacts[a.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	s.artifacts[a.ID] = clone(a)
	return nil
}
