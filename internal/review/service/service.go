// Package service assembles the admin review surface: the prioritized queue,
// the per-driver review bundle, and the commands that delegate to the
// lifecycle and artifact services.
package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	artifactModels "vetting/internal/artifact/models"
	artifactService "vetting/internal/artifact/service"
	driverModels "vetting/internal/driver/models"
	driverService "vetting/internal/driver/service"
	"vetting/internal/expiry"
	historyModels "vetting/internal/history/models"
	"vetting/internal/history/reconcile"
	"vetting/internal/review/cache"
	"vetting/internal/risk"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/requestcontext"
)

// AutoSubmitActor is recorded as changed_by when a complete upload set moves
// a driver into review.
const AutoSubmitActor = "system:auto-submit"

const defaultQueueConcurrency = 8

type Drivers interface {
	Register(ctx context.Context, req driverService.RegisterRequest) (*driverModels.Driver, error)
	Get(ctx context.Context, driverID id.DriverID) (*driverModels.Driver, error)
	List(ctx context.Context, filter driverModels.Filter) ([]*driverModels.Driver, error)
	Decide(ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error)
	Submit(ctx context.Context, driverID id.DriverID, actor string) (*driverService.DecideResult, error)
	Reinstate(ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error)
	Deactivate(ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error)
	Reactivate(ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error)
	UpdateCredentials(ctx context.Context, driverID id.DriverID, c driverModels.Credentials, expectedVersion int64) (*driverModels.Driver, error)
}

type Artifacts interface {
	Register(ctx context.Context, req artifactService.RegisterRequest) (*artifactModels.Artifact, error)
	Decide(ctx context.Context, req artifactService.DecideRequest) (*artifactModels.Artifact, error)
	ListByDriver(ctx context.Context, driverID id.DriverID) ([]*artifactModels.Artifact, error)
}

type History interface {
	ListByDriver(ctx context.Context, driverID id.DriverID) ([]historyModels.Event, error)
}

// RiskCache memoizes assessments by input key.
type RiskCache interface {
	Get(ctx context.Context, key string) (risk.Assessment, bool, error)
	Set(ctx context.Context, key string, a risk.Assessment) error
}

// ConsistencyChecker compares a driver's status with its latest history event.
type ConsistencyChecker interface {
	Verify(ctx context.Context, driverID id.DriverID) (reconcile.Report, error)
}

// Policies supplies the active risk policy.
type Policies interface {
	Current() risk.Policy
}

// QueueItem is one row of the review queue.
type QueueItem struct {
	Driver         *driverModels.Driver
	Risk           risk.Assessment
	Expiry         expiry.Report
	NeedsAttention bool
}

// Review is everything an administrator sees when opening one driver.
type Review struct {
	Driver         *driverModels.Driver
	Documents      []*artifactModels.Artifact
	Photos         []*artifactModels.Artifact
	History        []historyModels.Event
	Missing        []artifactModels.Requirement
	Risk           risk.Assessment
	Expiry         expiry.Report
	NeedsAttention bool
	// Consistency is nil when no checker is configured.
	Consistency *reconcile.Report
}

// ArtifactResult reports an upload and, when it completed the set, the
// submit transition it triggered.
type ArtifactResult struct {
	Artifact  *artifactModels.Artifact
	Submitted *driverService.DecideResult
}

type Service struct {
	drivers     Drivers
	artifacts   Artifacts
	history     History
	policies    Policies
	cache       RiskCache
	checker     ConsistencyChecker
	logger      *slog.Logger
	metrics     *Metrics
	concurrency int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithRiskCache(c RiskCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithConsistencyChecker(c ConsistencyChecker) Option {
	return func(s *Service) { s.checker = c }
}

// WithQueueConcurrency bounds the per-driver fan-out of ListQueue.
func WithQueueConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func New(drivers Drivers, artifacts Artifacts, history History, policies Policies, opts ...Option) *Service {
	s := &Service{
		drivers:     drivers,
		artifacts:   artifacts,
		history:     history,
		policies:    policies,
		logger:      slog.Default(),
		concurrency: defaultQueueConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewInMemory(time.Minute)
	}
	return s
}

// ListQueue returns drivers in the given statuses, highest risk first and
// oldest first within equal scores. No statuses means pending verification.
func (s *Service) ListQueue(ctx context.Context, statuses []driverModels.Status) ([]QueueItem, error) {
	start := time.Now()
	if len(statuses) == 0 {
		statuses = []driverModels.Status{driverModels.StatusPendingVerification}
	}
	drivers, err := s.drivers.List(ctx, driverModels.Filter{Statuses: statuses})
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx).UTC()
	policy := s.policies.Current()
	items := make([]QueueItem, len(drivers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, d := range drivers {
		g.Go(func() error {
			artifacts, err := s.artifacts.ListByDriver(gctx, d.ID)
			if err != nil {
				return err
			}
			assessment, err := s.assess(gctx, policy, d, artifacts, now)
			if err != nil {
				return err
			}
			report := expiry.Evaluate(CredentialsOf(d), now)
			items[i] = QueueItem{
				Driver:         d,
				Risk:           assessment,
				Expiry:         report,
				NeedsAttention: needsAttention(d, report),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(items, func(a, b QueueItem) int {
		if c := cmp.Compare(b.Risk.Score, a.Risk.Score); c != 0 {
			return c
		}
		return a.Driver.CreatedAt.Compare(b.Driver.CreatedAt)
	})
	s.metrics.observeQueue(len(items), start)
	return items, nil
}

// ReviewDriver loads the full review bundle for one driver.
func (s *Service) ReviewDriver(ctx context.Context, driverID id.DriverID) (*Review, error) {
	d, err := s.drivers.Get(ctx, driverID)
	if err != nil {
		return nil, err
	}

	var (
		artifacts []*artifactModels.Artifact
		events    []historyModels.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		artifacts, err = s.artifacts.ListByDriver(gctx, driverID)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.history.ListByDriver(gctx, driverID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load driver history")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx).UTC()
	assessment, err := s.assess(ctx, s.policies.Current(), d, artifacts, now)
	if err != nil {
		return nil, err
	}
	report := expiry.Evaluate(CredentialsOf(d), now)

	r := &Review{
		Driver:         d,
		History:        events,
		Missing:        artifactModels.Missing(d.Tier, artifacts),
		Risk:           assessment,
		Expiry:         report,
		NeedsAttention: needsAttention(d, report),
	}
	if s.checker != nil {
		report, err := s.checker.Verify(ctx, driverID)
		if err != nil {
			s.logger.WarnContext(ctx, "history consistency check failed",
				"request_id", requestcontext.RequestID(ctx),
				"driver_id", driverID.String(),
				"error", err,
			)
		} else {
			r.Consistency = &report
		}
	}
	for _, a := range artifacts {
		switch a.Class {
		case artifactModels.ClassDocument:
			r.Documents = append(r.Documents, a)
		case artifactModels.ClassPhoto:
			r.Photos = append(r.Photos, a)
		}
	}
	return r, nil
}

func (s *Service) Register(ctx context.Context, req driverService.RegisterRequest) (*driverModels.Driver, error) {
	return s.drivers.Register(ctx, req)
}

func (s *Service) Decide(ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error) {
	return s.drivers.Decide(ctx, req)
}

func (s *Service) Reinstate(ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error) {
	return s.drivers.Reinstate(ctx, req)
}

func (s *Service) Deactivate(ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error) {
	return s.drivers.Deactivate(ctx, req)
}

// Reactivate returns an inactive driver to incomplete. When the upload set is
// still complete the driver is submitted again straight away and the
// submission result is returned.
func (s *Service) Reactivate(ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error) {
	res, err := s.drivers.Reactivate(ctx, req)
	if err != nil {
		return nil, err
	}
	submitted, err := s.autoSubmit(ctx, res.Driver)
	if err != nil {
		return nil, err
	}
	if submitted != nil {
		return submitted, nil
	}
	return res, nil
}

func (s *Service) UpdateCredentials(ctx context.Context, driverID id.DriverID, c driverModels.Credentials, expectedVersion int64) (*driverModels.Driver, error) {
	return s.drivers.UpdateCredentials(ctx, driverID, c, expectedVersion)
}

func (s *Service) DecideArtifact(ctx context.Context, req artifactService.DecideRequest) (*artifactModels.Artifact, error) {
	return s.artifacts.Decide(ctx, req)
}

// RegisterArtifact records an upload. When it completes the required set of
// an incomplete driver, the driver is submitted for review.
func (s *Service) RegisterArtifact(ctx context.Context, req artifactService.RegisterRequest) (*ArtifactResult, error) {
	a, err := s.artifacts.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &ArtifactResult{Artifact: a}

	d, err := s.drivers.Get(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if result.Submitted, err = s.autoSubmit(ctx, d); err != nil {
		return nil, err
	}
	return result, nil
}

// autoSubmit submits an incomplete driver whose required set is uploaded. It
// returns nil when there is nothing to submit or another request won the race.
func (s *Service) autoSubmit(ctx context.Context, d *driverModels.Driver) (*driverService.DecideResult, error) {
	if d.Status != driverModels.StatusIncomplete {
		return nil, nil
	}
	uploaded, err := s.artifacts.ListByDriver(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if len(artifactModels.Missing(d.Tier, uploaded)) > 0 {
		return nil, nil
	}

	submitted, err := s.drivers.Submit(ctx, d.ID, AutoSubmitActor)
	if err != nil {
		// a concurrent request may have submitted first
		if dErrors.HasCode(err, dErrors.CodeInvalidTransition) || dErrors.HasCode(err, dErrors.CodeConflict) {
			s.logger.InfoContext(ctx, "auto-submit skipped",
				"request_id", requestcontext.RequestID(ctx),
				"driver_id", d.ID.String(),
				"reason", err.Error(),
			)
			return nil, nil
		}
		return nil, err
	}
	s.metrics.incAutoSubmit()
	return submitted, nil
}

// ExpirySubjects lists every driver for the credential sweep.
func (s *Service) ExpirySubjects(ctx context.Context) ([]expiry.Subject, error) {
	drivers, err := s.drivers.List(ctx, driverModels.Filter{})
	if err != nil {
		return nil, err
	}
	out := make([]expiry.Subject, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, expiry.Subject{
			DriverID:    d.ID.String(),
			Verified:    d.Status == driverModels.StatusVerified,
			Credentials: CredentialsOf(d),
			Mandatory:   MandatoryCredentials(d.Tier),
		})
	}
	return out, nil
}

func (s *Service) assess(ctx context.Context, policy risk.Policy, d *driverModels.Driver, artifacts []*artifactModels.Artifact, now time.Time) (risk.Assessment, error) {
	signals := Signals(d, artifacts, now)
	key := cache.Key(policy.Version, signals)

	if a, ok, err := s.cache.Get(ctx, key); err != nil {
		s.metrics.cacheLookup("error")
		s.logger.WarnContext(ctx, "risk cache read failed", "driver_id", d.ID.String(), "error", err)
	} else if ok {
		s.metrics.cacheLookup("hit")
		return a, nil
	} else {
		s.metrics.cacheLookup("miss")
	}

	a, err := policy.Evaluate(signals)
	if err != nil {
		return risk.Assessment{}, err
	}
	if err := s.cache.Set(ctx, key, a); err != nil {
		s.logger.WarnContext(ctx, "risk cache write failed", "driver_id", d.ID.String(), "error", err)
	}
	return a, nil
}

// needsAttention flags verified drivers holding an expired mandatory
// credential. The status itself is left for an administrator to change.
func needsAttention(d *driverModels.Driver, report expiry.Report) bool {
	if d.Status != driverModels.StatusVerified {
		return false
	}
	return len(report.ExpiredAmong(MandatoryCredentials(d.Tier))) > 0
}
