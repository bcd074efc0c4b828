package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	artifactModels "vetting/internal/artifact/models"
	artifactService "vetting/internal/artifact/service"
	artifactStore "vetting/internal/artifact/store"
	driverModels "vetting/internal/driver/models"
	driverService "vetting/internal/driver/service"
	driverStore "vetting/internal/driver/store"
	"vetting/internal/expiry"
	"vetting/internal/history/reconcile"
	historyStore "vetting/internal/history/store"
	"vetting/internal/review/cache"
	"vetting/internal/risk"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/tx"
	"vetting/pkg/requestcontext"
)

var nationalGuideUploads = []artifactModels.Kind{
	artifactModels.KindSltdaLicense,
	artifactModels.KindDrivingLicense,
	artifactModels.KindNationalID,
	artifactModels.KindPoliceClearance,
	artifactModels.KindMedicalReport,
	artifactModels.KindSelfieWithID,
}

type failingArtifacts struct {
	Artifacts
}

func (failingArtifacts) ListByDriver(context.Context, id.DriverID) ([]*artifactModels.Artifact, error) {
	return nil, errors.New("artifact store offline")
}

type ReviewServiceSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	logger    *slog.Logger
	metrics   *Metrics
	drivers   *driverService.Service
	artifacts *artifactService.Service
	history   *historyStore.InMemory
	service   *Service
}

func TestReviewServiceSuite(t *testing.T) {
	suite.Run(t, new(ReviewServiceSuite))
}

func (s *ReviewServiceSuite) SetupTest() {
	s.now = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithActor(requestcontext.WithTime(context.Background(), s.now), "admin-7")
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := tx.NewSharded(time.Second)

	drivers := driverStore.NewInMemory()
	s.history = historyStore.NewInMemory()
	s.artifacts = artifactService.New(artifactStore.NewInMemory(), drivers, runner,
		artifactService.WithLogger(s.logger))
	s.drivers = driverService.New(drivers, s.history, s.artifacts, runner,
		driverService.WithLogger(s.logger))
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.service = New(s.drivers, s.artifacts, s.history, risk.DefaultPolicyBook(),
		WithLogger(s.logger),
		WithMetrics(s.metrics),
		WithRiskCache(cache.NewInMemory(time.Minute)),
		WithConsistencyChecker(reconcile.NewChecker(drivers, s.history, reconcile.NewQueue(16), nil, nil, s.logger)),
	)
}

func (s *ReviewServiceSuite) register(at time.Time, c driverModels.Credentials) *driverModels.Driver {
	ctx := requestcontext.WithTime(s.ctx, at)
	d, err := s.service.Register(ctx, driverService.RegisterRequest{
		Tier:            driverModels.TierNationalGuide,
		FullName:        "Nadeesha Perera",
		YearsExperience: 7,
		Credentials:     c,
	})
	s.Require().NoError(err)
	return d
}

func (s *ReviewServiceSuite) uploadAll(driverID id.DriverID) *ArtifactResult {
	var last *ArtifactResult
	for _, kind := range nationalGuideUploads {
		res, err := s.service.RegisterArtifact(s.ctx, artifactService.RegisterRequest{DriverID: driverID, Kind: kind})
		s.Require().NoError(err)
		last = res
	}
	return last
}

func (s *ReviewServiceSuite) days(n int) *time.Time {
	t := s.now.AddDate(0, 0, n)
	return &t
}

func (s *ReviewServiceSuite) TestRegisterArtifactAutoSubmits() {
	d := s.register(s.now, driverModels.Credentials{})

	for _, kind := range nationalGuideUploads[:len(nationalGuideUploads)-1] {
		res, err := s.service.RegisterArtifact(s.ctx, artifactService.RegisterRequest{DriverID: d.ID, Kind: kind})
		s.Require().NoError(err)
		s.Nil(res.Submitted)
	}
	got, err := s.drivers.Get(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(driverModels.StatusIncomplete, got.Status)

	res, err := s.service.RegisterArtifact(s.ctx, artifactService.RegisterRequest{
		DriverID: d.ID,
		Kind:     nationalGuideUploads[len(nationalGuideUploads)-1],
	})
	s.Require().NoError(err)
	s.Require().NotNil(res.Submitted)
	s.Equal(driverModels.StatusPendingVerification, res.Submitted.NewStatus)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.AutoSubmits))

	events, err := s.history.ListByDriver(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(AutoSubmitActor, events[0].ChangedBy)
	s.Equal(driverModels.ActionSubmit, events[0].Action)
}

func (s *ReviewServiceSuite) TestRegisterArtifactAfterSubmitDoesNotResubmit() {
	d := s.register(s.now, driverModels.Credentials{})
	s.uploadAll(d.ID)

	res, err := s.service.RegisterArtifact(s.ctx, artifactService.RegisterRequest{DriverID: d.ID, Kind: artifactModels.KindVideoIntro})
	s.Require().NoError(err)
	s.Nil(res.Submitted)
}

func (s *ReviewServiceSuite) TestListQueueOrdering() {
	credentialed := driverModels.Credentials{LicenseExpiry: s.days(400), PoliceClearanceExpiry: s.days(400)}

	older := s.register(s.now.Add(-3*time.Hour), driverModels.Credentials{})
	newer := s.register(s.now.Add(-1*time.Hour), driverModels.Credentials{})
	safer := s.register(s.now.Add(-5*time.Hour), credentialed)
	incomplete := s.register(s.now, driverModels.Credentials{})
	for _, d := range []*driverModels.Driver{older, newer, safer} {
		s.uploadAll(d.ID)
	}

	items, err := s.service.ListQueue(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(items, 3)

	// experienced only: 2 of 22
	s.Equal(91, items[0].Risk.Score)
	s.Equal(risk.LevelHigh, items[0].Risk.Level)
	s.Equal(older.ID, items[0].Driver.ID)
	s.Equal(newer.ID, items[1].Driver.ID)
	// experienced, license and police clearance: 11 of 22
	s.Equal(safer.ID, items[2].Driver.ID)
	s.Equal(50, items[2].Risk.Score)
	s.Equal("2024-01", items[2].Risk.PolicyVersion)

	for _, it := range items {
		s.NotEqual(incomplete.ID, it.Driver.ID)
		s.False(it.NeedsAttention)
	}

	hits := testutil.ToFloat64(s.metrics.RiskCacheLookups.WithLabelValues("hit"))
	again, err := s.service.ListQueue(s.ctx, nil)
	s.Require().NoError(err)
	s.Equal(items, again)
	s.Equal(hits+3, testutil.ToFloat64(s.metrics.RiskCacheLookups.WithLabelValues("hit")))
}

func (s *ReviewServiceSuite) TestListQueueStatusFilter() {
	a := s.register(s.now, driverModels.Credentials{})
	s.register(s.now, driverModels.Credentials{})
	s.uploadAll(a.ID)

	items, err := s.service.ListQueue(s.ctx, []driverModels.Status{driverModels.StatusIncomplete})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.NotEqual(a.ID, items[0].Driver.ID)
}

func (s *ReviewServiceSuite) TestVerifiedDriverWithExpiredCredentialNeedsAttention() {
	d := s.register(s.now, driverModels.Credentials{LicenseExpiry: s.days(200)})
	res := s.uploadAll(d.ID)
	s.Require().NotNil(res.Submitted)

	approved, err := s.service.Decide(s.ctx, driverService.DecideRequest{
		DriverID:        d.ID,
		Action:          driverModels.ActionApproveLevel2,
		ExpectedVersion: res.Submitted.Version,
		Actor:           "admin-7",
	})
	s.Require().NoError(err)

	_, err = s.service.UpdateCredentials(s.ctx, d.ID, driverModels.Credentials{LicenseExpiry: s.days(-1)}, approved.Version)
	s.Require().NoError(err)

	items, err := s.service.ListQueue(s.ctx, []driverModels.Status{driverModels.StatusVerified})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.True(items[0].NeedsAttention)
	s.Equal(expiry.StatusExpired, items[0].Expiry.Worst)
	s.Equal(driverModels.StatusVerified, items[0].Driver.Status, "expiry flags but never transitions")
}

func (s *ReviewServiceSuite) TestListQueueFailsWhenArtifactsUnavailable() {
	d := s.register(s.now, driverModels.Credentials{})
	s.uploadAll(d.ID)

	broken := New(s.drivers, failingArtifacts{s.artifacts}, s.history, risk.DefaultPolicyBook(), WithLogger(s.logger))
	_, err := broken.ListQueue(s.ctx, nil)
	s.Error(err)
}

func (s *ReviewServiceSuite) TestReviewDriver() {
	d := s.register(s.now, driverModels.Credentials{MedicalExpiry: s.days(10)})
	_, err := s.service.RegisterArtifact(s.ctx, artifactService.RegisterRequest{DriverID: d.ID, Kind: artifactModels.KindNationalID})
	s.Require().NoError(err)
	_, err = s.service.RegisterArtifact(s.ctx, artifactService.RegisterRequest{DriverID: d.ID, Kind: artifactModels.KindSelfieWithID})
	s.Require().NoError(err)

	r, err := s.service.ReviewDriver(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Len(r.Documents, 1)
	s.Len(r.Photos, 1)
	s.Len(r.Missing, 4)
	s.Empty(r.History)
	s.Equal(expiry.StatusExpiringSoon, r.Expiry.Worst)
	s.Equal(d.ID, r.Driver.ID)
	s.Require().NotNil(r.Consistency)
	s.True(r.Consistency.Consistent)
	s.False(r.Consistency.HasHistory)
}

func (s *ReviewServiceSuite) TestReviewAfterSubmitIsConsistent() {
	d := s.register(s.now, driverModels.Credentials{})
	s.uploadAll(d.ID)

	r, err := s.service.ReviewDriver(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Len(r.History, 1)
	s.Empty(r.Missing)
	s.Require().NotNil(r.Consistency)
	s.True(r.Consistency.Consistent)
	s.Equal(driverModels.StatusPendingVerification, r.Consistency.HistoryStatus)
}

func (s *ReviewServiceSuite) TestReviewUnknownDriver() {
	_, err := s.service.ReviewDriver(s.ctx, id.NewDriverID())
	s.Error(err)
}

func (s *ReviewServiceSuite) TestExpirySubjects() {
	d := s.register(s.now, driverModels.Credentials{LicenseExpiry: s.days(-3)})

	subjects, err := s.service.ExpirySubjects(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(subjects, 1)
	s.Equal(d.ID.String(), subjects[0].DriverID)
	s.False(subjects[0].Verified)
	s.ElementsMatch([]expiry.Credential{
		expiry.CredentialSltdaLicense,
		expiry.CredentialLicense,
		expiry.CredentialPoliceClearance,
		expiry.CredentialMedical,
	}, subjects[0].Mandatory)
}

func (s *ReviewServiceSuite) TestSignalsCoverDefaultPolicy() {
	d, err := driverModels.NewDriver(driverModels.TierChauffeurGuide, "Kasun Silva", 2, s.now)
	s.Require().NoError(err)

	signals := Signals(d, nil, s.now)
	_, err = risk.DefaultPolicyBook().Current().Evaluate(signals)
	s.NoError(err)
	s.False(signals[risk.SignalExperienced])

	d.IsSltdaApproved = true
	s.True(Signals(d, nil, s.now)[risk.SignalSltdaLicensed])
}

func (s *ReviewServiceSuite) TestValidatePolicy() {
	s.NoError(ValidatePolicy(risk.DefaultPolicyBook()))

	book, err := risk.ParsePolicyBook([]byte(`
active: "2025-06"
policies:
  - version: "2024-01"
    factors: [{name: legacy_score, weight: 1}]
  - version: "2025-06"
    factors: [{name: license_valid, weight: 5}, {name: licence_valid, weight: 2}]
`))
	s.Require().NoError(err)
	err = ValidatePolicy(book)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	s.Contains(err.Error(), "licence_valid")

	historicalOnly, err := risk.ParsePolicyBook([]byte(`
active: "2025-06"
policies:
  - version: "2024-01"
    factors: [{name: legacy_score, weight: 1}]
  - version: "2025-06"
    factors: [{name: license_valid, weight: 5}, {name: experienced, weight: 2}]
`))
	s.Require().NoError(err)
	s.NoError(ValidatePolicy(historicalOnly))
}

func (s *ReviewServiceSuite) deactivateAndReactivate(driverID id.DriverID) *driverService.DecideResult {
	_, err := s.service.Deactivate(s.ctx, driverService.DecideRequest{
		DriverID: driverID,
		Notes:    "paused at driver request",
		Actor:    "admin-7",
	})
	s.Require().NoError(err)
	res, err := s.service.Reactivate(s.ctx, driverService.DecideRequest{DriverID: driverID, Actor: "admin-7"})
	s.Require().NoError(err)
	return res
}

func (s *ReviewServiceSuite) TestReactivateWithCompleteSetResubmits() {
	d := s.register(s.now, driverModels.Credentials{})
	s.Require().NotNil(s.uploadAll(d.ID).Submitted)

	res := s.deactivateAndReactivate(d.ID)
	s.Equal(driverModels.StatusPendingVerification, res.NewStatus)

	review, err := s.service.ReviewDriver(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(driverModels.StatusPendingVerification, review.Driver.Status)
	s.Empty(review.Missing)

	items, err := s.service.ListQueue(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(d.ID, items[0].Driver.ID)

	events, err := s.history.ListByDriver(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 4)
	s.Equal(driverModels.ActionReactivate, events[2].Action)
	s.Equal(driverModels.ActionSubmit, events[3].Action)
	s.Equal(AutoSubmitActor, events[3].ChangedBy)
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.AutoSubmits))
}

func (s *ReviewServiceSuite) TestReactivateWithRejectedUploadStaysIncomplete() {
	d := s.register(s.now, driverModels.Credentials{})
	last := s.uploadAll(d.ID)
	_, err := s.service.DecideArtifact(s.ctx, artifactService.DecideRequest{
		ArtifactID: last.Artifact.ID,
		Class:      artifactModels.ClassPhoto,
		Decision:   artifactModels.DecisionReject,
		Actor:      "admin-7",
	})
	s.Require().NoError(err)

	res := s.deactivateAndReactivate(d.ID)
	s.Equal(driverModels.StatusIncomplete, res.NewStatus)

	items, err := s.service.ListQueue(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(items)
}
