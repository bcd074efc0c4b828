package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetting/internal/artifact/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
)

func sampleArtifact(driverID id.DriverID, at time.Time) *models.Artifact {
	return &models.Artifact{
		ID:         id.NewArtifactID(),
		DriverID:   driverID,
		Class:      models.ClassDocument,
		Kind:       models.KindDrivingLicense,
		Status:     models.StatusPending,
		UploadedAt: at,
		Version:    1,
	}
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("lists in upload order", func(t *testing.T) {
		s := NewInMemory()
		driverID := id.NewDriverID()
		later := sampleArtifact(driverID, base.Add(time.Hour))
		earlier := sampleArtifact(driverID, base)
		require.NoError(t, s.Create(ctx, later))
		require.NoError(t, s.Create(ctx, earlier))
		require.NoError(t, s.Create(ctx, sampleArtifact(id.NewDriverID(), base)))

		all, err := s.ListByDriver(ctx, driverID)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, earlier.ID, all[0].ID)
	})

	t.Run("update is version guarded", func(t *testing.T) {
		s := NewInMemory()
		a := sampleArtifact(id.NewDriverID(), base)
		require.NoError(t, s.Create(ctx, a))
		assert.ErrorIs(t, s.Create(ctx, a), sentinel.ErrDuplicate)

		a.ApplyDecision(models.DecisionApprove, "admin-1", base)
		require.NoError(t, s.Update(ctx, a, 1))
		assert.ErrorIs(t, s.Update(ctx, a, 1), sentinel.ErrConflict)

		stored, err := s.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, stored.Status)
	})

	t.Run("missing artifact", func(t *testing.T) {
		s := NewInMemory()
		_, err := s.FindByID(ctx, id.NewArtifactID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, s.Update(ctx, sampleArtifact(id.NewDriverID(), base), 1), sentinel.ErrNotFound)
	})
}

func TestPostgres_UpdateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := sampleArtifact(id.NewDriverID(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	mock.ExpectExec("UPDATE artifacts SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM artifacts WHERE id = $1)")).
		WithArgs(uuid.UUID(a.ID)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	assert.ErrorIs(t, NewPostgres(db).Update(context.Background(), a, 1), sentinel.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListByDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	driverID := id.NewDriverID()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	decided := at.Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "driver_id", "class", "kind", "status", "verification_date", "decided_by", "uploaded_at", "version"}).
		AddRow(uuid.NewString(), uuid.UUID(driverID).String(), "photo", "selfie_with_id", "approved", decided, "admin-1", at, int64(2)).
		AddRow(uuid.NewString(), uuid.UUID(driverID).String(), "document", "national_id", "pending", nil, "", at, int64(1))
	mock.ExpectQuery("FROM artifacts WHERE driver_id = \\$1 ORDER BY uploaded_at").
		WithArgs(uuid.UUID(driverID)).
		WillReturnRows(rows)

	all, err := NewPostgres(db).ListByDriver(context.Background(), driverID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.ClassPhoto, all[0].Class)
	require.NotNil(t, all[0].VerificationDate)
	assert.Nil(t, all[1].VerificationDate)
	assert.Equal(t, driverID, all[1].DriverID)
}
