// Package service runs the driver verification lifecycle. Every status change
// goes through one commit path: validate against the transition table, write
// under the expected version inside the per-driver boundary, then append the
// history event.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"vetting/internal/alert"
	artifactModels "vetting/internal/artifact/models"
	"vetting/internal/driver/models"
	historyModels "vetting/internal/history/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/sentinel"
	"vetting/pkg/platform/tx"
	"vetting/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, d *models.Driver) error
	FindByID(ctx context.Context, driverID id.DriverID) (*models.Driver, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Driver, error)
	Update(ctx context.Context, d *models.Driver, expectedVersion int64) error
}

type HistoryStore interface {
	Append(ctx context.Context, e historyModels.Event) error
}

// Tracker reports required artifacts that are still missing for a driver.
type Tracker interface {
	Missing(ctx context.Context, driverID id.DriverID) ([]artifactModels.Requirement, error)
}

// Reconciler accepts history events whose append failed.
type Reconciler interface {
	Enqueue(ctx context.Context, e historyModels.Event) error
}

type RegisterRequest struct {
	Tier            models.Tier
	FullName        string
	YearsExperience int
	Credentials     models.Credentials
}

// DecideRequest is an admin verdict or lifecycle command on one driver.
type DecideRequest struct {
	DriverID        id.DriverID
	Action          models.Action
	Notes           string
	ExpectedVersion int64
	Actor           string
}

type DecideResult struct {
	Driver         *models.Driver
	NewStatus      models.Status
	HistoryEventID id.EventID
	Version        int64
	// HistoryPending is set when the status committed but the event is
	// waiting in the reconciliation queue.
	HistoryPending bool
}

type Service struct {
	drivers      Store
	history      HistoryStore
	tracker      Tracker
	tx           tx.Runner
	reconciler   Reconciler
	alerts       alert.Sink
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

func WithAlertSink(sink alert.Sink) Option {
	return func(s *Service) { s.alerts = sink }
}

func WithReconciler(r Reconciler) Option {
	return func(s *Service) { s.reconciler = r }
}

func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func New(drivers Store, history HistoryStore, tracker Tracker, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		drivers:      drivers,
		history:      history,
		tracker:      tracker,
		tx:           runner,
		logger:       slog.Default(),
		storeTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.alerts == nil {
		s.alerts = alert.NewLogSink(s.logger)
	}
	return s
}

// Register creates an application in status incomplete.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Driver, error) {
	tier, err := models.ParseTier(string(req.Tier))
	if err != nil {
		return nil, err
	}
	d, err := models.NewDriver(tier, req.FullName, req.YearsExperience, requestcontext.Now(ctx).UTC())
	if err != nil {
		return nil, err
	}
	d.LicenseExpiry = req.Credentials.LicenseExpiry
	d.PoliceClearanceExpiry = req.Credentials.PoliceClearanceExpiry
	d.MedicalExpiry = req.Credentials.MedicalExpiry
	d.SltdaLicenseExpiry = req.Credentials.SltdaLicenseExpiry

	writeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.drivers.Create(writeCtx, d); err != nil {
		return nil, s.translate(ctx, err)
	}
	s.metrics.incRegistered()
	s.logger.InfoContext(ctx, "driver registered",
		"request_id", requestcontext.RequestID(ctx),
		"driver_id", d.ID.String(),
		"tier", string(d.Tier),
	)
	return d, nil
}

func (s *Service) Get(ctx context.Context, driverID id.DriverID) (*models.Driver, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	d, err := s.drivers.FindByID(readCtx, driverID)
	if err != nil {
		return nil, s.translate(ctx, err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Driver, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	drivers, err := s.drivers.List(readCtx, filter)
	if err != nil {
		return nil, s.translate(ctx, err)
	}
	return drivers, nil
}

// Decide applies an admin verdict: approve_level_2, approve_level_3 or reject.
// The caller must pass the version it reviewed.
func (s *Service) Decide(ctx context.Context, req DecideRequest) (*DecideResult, error) {
	if _, err := models.ParseVerdict(string(req.Action)); err != nil {
		return nil, err
	}
	if req.ExpectedVersion <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "expected_version is required")
	}
	return s.commit(ctx, req)
}

// Submit moves an incomplete application into review once every required
// artifact is uploaded.
func (s *Service) Submit(ctx context.Context, driverID id.DriverID, actor string) (*DecideResult, error) {
	return s.commit(ctx, DecideRequest{DriverID: driverID, Action: models.ActionSubmit, Actor: actor})
}

// Reinstate re-opens review of a suspended driver. It requires the reinstate
// grant and notes.
func (s *Service) Reinstate(ctx context.Context, req DecideRequest) (*DecideResult, error) {
	if !requestcontext.HasGrant(ctx, requestcontext.GrantReinstate) {
		s.logger.WarnContext(ctx, "reinstate denied",
			"request_id", requestcontext.RequestID(ctx),
			"driver_id", req.DriverID.String(),
			"actor", req.Actor,
		)
		return nil, dErrors.New(dErrors.CodeForbidden, "reinstating a driver requires the reinstate grant")
	}
	req.Action = models.ActionReinstate
	return s.commit(ctx, req)
}

func (s *Service) Deactivate(ctx context.Context, req DecideRequest) (*DecideResult, error) {
	req.Action = models.ActionDeactivate
	return s.commit(ctx, req)
}

// Reactivate returns an inactive driver to incomplete; it must submit again.
func (s *Service) Reactivate(ctx context.Context, req DecideRequest) (*DecideResult, error) {
	req.Action = models.ActionReactivate
	return s.commit(ctx, req)
}

// UpdateCredentials records credential expiry dates. Status is unaffected and
// no history event is written, but the version advances.
func (s *Service) UpdateCredentials(ctx context.Context, driverID id.DriverID, c models.Credentials, expectedVersion int64) (*models.Driver, error) {
	var updated *models.Driver
	err := s.tx.RunInTx(ctx, driverID.String(), func(ctx context.Context) error {
		d, err := s.drivers.FindByID(ctx, driverID)
		if err != nil {
			return s.translate(ctx, err)
		}
		expected := d.Version
		if expectedVersion > 0 && expectedVersion != expected {
			s.metrics.incConflict()
			return conflictErr()
		}
		d.ApplyCredentials(c, requestcontext.Now(ctx).UTC())
		if err := s.drivers.Update(ctx, d, expected); err != nil {
			return s.translate(ctx, err)
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, s.translateTx(err)
	}
	s.logger.InfoContext(ctx, "driver credentials updated",
		"request_id", requestcontext.RequestID(ctx),
		"driver_id", driverID.String(),
		"version", updated.Version,
	)
	return updated, nil
}

func (s *Service) commit(ctx context.Context, req DecideRequest) (*DecideResult, error) {
	start := time.Now()
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "actor is required")
	}

	var (
		committed  *models.Driver
		transition models.Transition
	)
	err := s.tx.RunInTx(ctx, req.DriverID.String(), func(ctx context.Context) error {
		d, err := s.drivers.FindByID(ctx, req.DriverID)
		if err != nil {
			return s.translate(ctx, err)
		}
		expected := d.Version
		if req.ExpectedVersion > 0 && req.ExpectedVersion != expected {
			s.metrics.incConflict()
			return conflictErr()
		}
		if err := d.CanApply(req.Action, req.Notes); err != nil {
			return err
		}
		if req.Action == models.ActionSubmit {
			if err := s.requireComplete(ctx, req.DriverID); err != nil {
				return err
			}
		}
		transition, err = d.Apply(req.Action, req.Notes, actor, requestcontext.Now(ctx).UTC())
		if err != nil {
			return err
		}
		if err := d.CheckInvariants(); err != nil {
			return err
		}
		if err := s.drivers.Update(ctx, d, expected); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				s.metrics.incConflict()
			}
			return s.translate(ctx, err)
		}
		committed = d
		return nil
	})
	if err != nil {
		err = s.translateTx(err)
		s.metrics.observeTransition(string(req.Action), string(dErrors.CodeOf(err)), start)
		s.logger.InfoContext(ctx, "driver transition rejected",
			"request_id", requestcontext.RequestID(ctx),
			"driver_id", req.DriverID.String(),
			"action", string(req.Action),
			"error", err,
		)
		return nil, err
	}

	event := historyModels.FromTransition(req.DriverID, transition)
	pending := s.appendHistory(ctx, event)
	s.metrics.observeTransition(string(req.Action), "ok", start)
	s.logger.InfoContext(ctx, "driver transitioned",
		"request_id", requestcontext.RequestID(ctx),
		"driver_id", req.DriverID.String(),
		"action", string(req.Action),
		"from", string(transition.From),
		"to", string(transition.To),
		"version", committed.Version,
		"actor", actor,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &DecideResult{
		Driver:         committed,
		NewStatus:      committed.Status,
		HistoryEventID: event.ID,
		Version:        committed.Version,
		HistoryPending: pending,
	}, nil
}

func (s *Service) requireComplete(ctx context.Context, driverID id.DriverID) error {
	if s.tracker == nil {
		return dErrors.New(dErrors.CodeInternal, "artifact tracker not configured")
	}
	missing, err := s.tracker.Missing(ctx, driverID)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	kinds := make([]string, len(missing))
	for i, r := range missing {
		kinds[i] = string(r.Kind)
	}
	return dErrors.New(dErrors.CodeValidation, "missing required artifacts: "+strings.Join(kinds, ", "))
}

// appendHistory writes the event after the status commit. A failure leaves
// the verdict in place: it is alerted, counted and handed to the reconciler.
// It reports whether the event is still pending.
func (s *Service) appendHistory(ctx context.Context, e historyModels.Event) bool {
	appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()
	err := s.history.Append(appendCtx, e)
	if err == nil {
		return false
	}

	s.metrics.incHistoryFailure()
	s.logger.ErrorContext(ctx, "history append failed after status commit",
		"request_id", requestcontext.RequestID(ctx),
		"driver_id", e.DriverID.String(),
		"sequence", e.Sequence,
		"status", string(e.Status),
		"error", err,
	)
	raiseErr := s.alerts.Raise(ctx, alert.Alert{
		Kind:     alert.KindHistoryAppendFailed,
		Severity: alert.SeverityWarning,
		DriverID: e.DriverID.String(),
		Message:  "history append failed; event queued for reconciliation",
		Attributes: map[string]string{
			"sequence": strconv.FormatInt(e.Sequence, 10),
			"event_id": e.ID.String(),
			"status":   string(e.Status),
			"error":    err.Error(),
		},
		RaisedAt: time.Now().UTC(),
	})
	if raiseErr != nil {
		s.logger.ErrorContext(ctx, "failed to raise alert", "error", raiseErr)
	}
	if s.reconciler != nil {
		if qErr := s.reconciler.Enqueue(ctx, e); qErr != nil {
			s.logger.ErrorContext(ctx, "failed to queue history event", "driver_id", e.DriverID.String(), "error", qErr)
		}
	}
	return true
}

func conflictErr() error {
	return dErrors.New(dErrors.CodeConflict, "driver was modified concurrently; re-read and retry")
}

// translateTx maps errors escaping the transaction boundary. Coded errors
// raised inside fn pass through; commit failures become internal errors.
func (s *Service) translateTx(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "driver store timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit driver transition")
}

func (s *Service) translate(ctx context.Context, err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		s.logger.WarnContext(ctx, "driver not found", "request_id", requestcontext.RequestID(ctx))
		return dErrors.New(dErrors.CodeNotFound, "driver not found")
	case errors.Is(err, sentinel.ErrConflict):
		return conflictErr()
	case errors.Is(err, sentinel.ErrDuplicate):
		return dErrors.New(dErrors.CodeConflict, "driver already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "driver store timed out")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "driver store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "driver store failed")
	}
}
