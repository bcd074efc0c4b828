// Package service tracks uploaded documents and photos per driver and reports
// which required artifacts are still missing.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"vetting/internal/artifact/models"
	driverModels "vetting/internal/driver/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/sentinel"
	"vetting/pkg/platform/tx"
	"vetting/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, a *models.Artifact) error
	FindByID(ctx context.Context, artifactID id.ArtifactID) (*models.Artifact, error)
	ListByDriver(ctx context.Context, driverID id.DriverID) ([]*models.Artifact, error)
	Update(ctx context.Context, a *models.Artifact, expectedVersion int64) error
}

// DriverReader loads the owning driver. Inside a transaction the read locks
// the driver row.
type DriverReader interface {
	FindByID(ctx context.Context, driverID id.DriverID) (*driverModels.Driver, error)
}

type RegisterRequest struct {
	DriverID id.DriverID
	Class    models.Class
	Kind     models.Kind
}

type DecideRequest struct {
	ArtifactID id.ArtifactID
	Class      models.Class
	Decision   models.Decision
	// ExpectedVersion of zero accepts whatever version is read in the transaction.
	ExpectedVersion int64
	Actor           string
}

// Listing splits a driver's artifacts by class, in upload order.
type Listing struct {
	Documents []*models.Artifact
	Photos    []*models.Artifact
}

type Service struct {
	artifacts    Store
	drivers      DriverReader
	tx           tx.Runner
	logger       *slog.Logger
	metrics      *Metrics
	storeTimeout time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func New(artifacts Store, drivers DriverReader, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		artifacts:    artifacts,
		drivers:      drivers,
		tx:           runner,
		logger:       slog.Default(),
		storeTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register records an uploaded artifact as pending. It never changes the
// driver's status.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Artifact, error) {
	kind, class, err := models.ParseKind(string(req.Kind))
	if err != nil {
		return nil, err
	}
	if req.Class != "" && req.Class != class {
		return nil, dErrors.New(dErrors.CodeValidation, string(kind)+" is a "+string(class))
	}

	a := &models.Artifact{
		ID:         id.NewArtifactID(),
		DriverID:   req.DriverID,
		Class:      class,
		Kind:       kind,
		Status:     models.StatusPending,
		UploadedAt: requestcontext.Now(ctx).UTC(),
		Version:    1,
	}
	err = s.tx.RunInTx(ctx, req.DriverID.String(), func(ctx context.Context) error {
		if _, err := s.drivers.FindByID(ctx, req.DriverID); err != nil {
			return s.translate(ctx, err, "driver not found")
		}
		if err := s.artifacts.Create(ctx, a); err != nil {
			return s.translate(ctx, err, "artifact not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.registered(string(class))
	s.logger.InfoContext(ctx, "artifact registered",
		"request_id", requestcontext.RequestID(ctx),
		"driver_id", req.DriverID.String(),
		"artifact_id", a.ID.String(),
		"kind", string(kind),
	)
	return a, nil
}

// Decide approves or rejects one artifact. The write is serialized with every
// other mutation on the owning driver and guarded by the artifact version.
func (s *Service) Decide(ctx context.Context, req DecideRequest) (*models.Artifact, error) {
	if strings.TrimSpace(req.Actor) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "actor is required")
	}
	if _, err := models.ParseClass(string(req.Class)); err != nil {
		return nil, err
	}
	if _, err := models.ParseDecision(string(req.Decision)); err != nil {
		return nil, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	found, err := s.artifacts.FindByID(lookupCtx, req.ArtifactID)
	cancel()
	if err != nil {
		return nil, s.translate(ctx, err, "artifact not found")
	}

	var decided *models.Artifact
	err = s.tx.RunInTx(ctx, found.DriverID.String(), func(ctx context.Context) error {
		if _, err := s.drivers.FindByID(ctx, found.DriverID); err != nil {
			return s.translate(ctx, err, "driver not found")
		}
		a, err := s.artifacts.FindByID(ctx, req.ArtifactID)
		if err != nil {
			return s.translate(ctx, err, "artifact not found")
		}
		if err := a.CanDecide(req.Class); err != nil {
			return err
		}
		expected := req.ExpectedVersion
		if expected == 0 {
			expected = a.Version
		}
		if a.Version != expected {
			return dErrors.New(dErrors.CodeConflict, "artifact was modified concurrently")
		}
		a.ApplyDecision(req.Decision, req.Actor, requestcontext.Now(ctx).UTC())
		if err := s.artifacts.Update(ctx, a, expected); err != nil {
			return s.translate(ctx, err, "artifact not found")
		}
		decided = a
		return nil
	})
	if err != nil {
		s.metrics.decided(string(req.Class), string(req.Decision), string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.decided(string(req.Class), string(req.Decision), "ok")
	s.logger.InfoContext(ctx, "artifact decided",
		"request_id", requestcontext.RequestID(ctx),
		"driver_id", decided.DriverID.String(),
		"artifact_id", decided.ID.String(),
		"kind", string(decided.Kind),
		"decision", string(req.Decision),
		"actor", req.Actor,
	)
	return decided, nil
}

// List returns the driver's documents and photos.
func (s *Service) List(ctx context.Context, driverID id.DriverID) (*Listing, error) {
	all, err := s.listByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	out := &Listing{}
	for _, a := range all {
		if a.Class == models.ClassPhoto {
			out.Photos = append(out.Photos, a)
		} else {
			out.Documents = append(out.Documents, a)
		}
	}
	return out, nil
}

// Missing returns the tier's required artifacts that have no pending or
// approved upload.
func (s *Service) Missing(ctx context.Context, driverID id.DriverID) ([]models.Requirement, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	d, err := s.drivers.FindByID(readCtx, driverID)
	if err != nil {
		return nil, s.translate(ctx, err, "driver not found")
	}
	all, err := s.listByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return models.Missing(d.Tier, all), nil
}

// ListByDriver exposes the raw artifact list for risk signals.
func (s *Service) ListByDriver(ctx context.Context, driverID id.DriverID) ([]*models.Artifact, error) {
	return s.listByDriver(ctx, driverID)
}

func (s *Service) listByDriver(ctx context.Context, driverID id.DriverID) ([]*models.Artifact, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	all, err := s.artifacts.ListByDriver(readCtx, driverID)
	if err != nil {
		return nil, s.translate(ctx, err, "driver not found")
	}
	return all, nil
}

func (s *Service) translate(ctx context.Context, err error, notFound string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		s.logger.WarnContext(ctx, notFound, "request_id", requestcontext.RequestID(ctx))
		return dErrors.New(dErrors.CodeNotFound, notFound)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "artifact was modified concurrently")
	case errors.Is(err, sentinel.ErrDuplicate):
		return dErrors.New(dErrors.CodeConflict, "artifact already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "artifact store timed out")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "artifact store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "artifact store failed")
	}
}
