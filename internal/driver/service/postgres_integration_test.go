//go:build integration

package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	artifactModels "vetting/internal/artifact/models"
	artifactService "vetting/internal/artifact/service"
	artifactStore "vetting/internal/artifact/store"
	"vetting/internal/driver/models"
	"vetting/internal/driver/service"
	driverStore "vetting/internal/driver/store"
	historyStore "vetting/internal/history/store"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/tx"
	"vetting/pkg/requestcontext"
	"vetting/pkg/testutil/containers"
)

type PostgresLifecycleSuite struct {
	suite.Suite
	pg        *containers.PostgresContainer
	ctx       context.Context
	history   *historyStore.PostgresStore
	artifacts *artifactService.Service
	drivers   *service.Service
}

func TestPostgresLifecycleSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLifecycleSuite))
}

func (s *PostgresLifecycleSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
}

func (s *PostgresLifecycleSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background()))
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := tx.NewPostgres(s.pg.DB, 5*time.Second)
	drivers := driverStore.NewPostgres(s.pg.DB)
	s.history = historyStore.NewPostgres(s.pg.DB)
	s.artifacts = artifactService.New(artifactStore.NewPostgres(s.pg.DB), drivers, runner,
		artifactService.WithLogger(logger))
	s.drivers = service.New(drivers, s.history, s.artifacts, runner, service.WithLogger(logger))
}

func (s *PostgresLifecycleSuite) submitted() *service.DecideResult {
	d, err := s.drivers.Register(s.ctx, service.RegisterRequest{
		Tier:            models.TierNationalGuide,
		FullName:        "Tharindu Wickramasinghe",
		YearsExperience: 9,
	})
	s.Require().NoError(err)
	for _, r := range artifactModels.RequiredSet(d.Tier) {
		_, err := s.artifacts.Register(s.ctx, artifactService.RegisterRequest{DriverID: d.ID, Kind: r.Kind})
		s.Require().NoError(err)
	}
	res, err := s.drivers.Submit(s.ctx, d.ID, "system:auto-submit")
	s.Require().NoError(err)
	return res
}

func (s *PostgresLifecycleSuite) TestApproveWritesOrderedHistory() {
	sub := s.submitted()

	approved, err := s.drivers.Decide(s.ctx, service.DecideRequest{
		DriverID:        sub.Driver.ID,
		Action:          models.ActionApproveLevel3,
		ExpectedVersion: sub.Version,
		Actor:           "admin-1",
	})
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, approved.NewStatus)
	s.True(approved.Driver.IsSltdaApproved)

	events, err := s.history.ListByDriver(s.ctx, sub.Driver.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(models.ActionSubmit, events[0].Action)
	s.Equal(models.StatusVerified, events[1].Status)
	s.Require().NotNil(events[1].VerificationLevel)
	s.Equal(3, *events[1].VerificationLevel)
	s.Less(events[0].Sequence, events[1].Sequence)

	latest, err := s.history.Latest(s.ctx, sub.Driver.ID)
	s.Require().NoError(err)
	s.Equal(approved.HistoryEventID, latest.ID)
}

func (s *PostgresLifecycleSuite) TestConcurrentDecisionsHaveOneWinner() {
	sub := s.submitted()

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.drivers.Decide(s.ctx, service.DecideRequest{
				DriverID:        sub.Driver.ID,
				Action:          models.ActionApproveLevel2,
				ExpectedVersion: sub.Version,
				Actor:           "admin-2",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case dErrors.HasCode(err, dErrors.CodeConflict), dErrors.HasCode(err, dErrors.CodeInvalidTransition):
				conflicts++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, wins)
	s.Equal(callers-1, conflicts)
	events, err := s.history.ListByDriver(s.ctx, sub.Driver.ID)
	s.Require().NoError(err)
	s.Len(events, 2)
}

func (s *PostgresLifecycleSuite) TestRejectedDecisionLeavesRowUntouched() {
	sub := s.submitted()

	_, err := s.drivers.Decide(s.ctx, service.DecideRequest{
		DriverID:        sub.Driver.ID,
		Action:          models.ActionReject,
		ExpectedVersion: sub.Version,
		Actor:           "admin-1",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	d, err := s.drivers.Get(s.ctx, sub.Driver.ID)
	s.Require().NoError(err)
	s.Equal(sub.Version, d.Version)
	s.Equal(models.StatusPendingVerification, d.Status)
}
