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

	driverModels "vetting/internal/driver/models"
	"vetting/internal/history/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
)

func sampleEvent() models.Event {
	level := 3
	return models.Event{
		ID:                id.NewEventID(),
		DriverID:          id.NewDriverID(),
		Sequence:          3,
		Action:            driverModels.ActionApproveLevel3,
		Status:            driverModels.StatusVerified,
		PreviousStatus:    driverModels.StatusPendingVerification,
		ChangedBy:         "admin-1",
		VerificationLevel: &level,
		CreatedAt:         time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPostgresHistory_AppendInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	e := sampleEvent()
	mock.ExpectExec("INSERT INTO driver_history").
		WithArgs(uuid.UUID(e.ID), uuid.UUID(e.DriverID), e.Sequence, "approve_level_3", "verified",
			"pending_verification", "admin-1", int64(3), "", e.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgres(db).Append(context.Background(), e))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresHistory_AppendReplayIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	e := sampleEvent()
	mock.ExpectExec("INSERT INTO driver_history").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM driver_history WHERE driver_id = $1 AND sequence = $2")).
		WithArgs(uuid.UUID(e.DriverID), e.Sequence).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.UUID(e.ID).String()))

	require.NoError(t, NewPostgres(db).Append(context.Background(), e))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresHistory_AppendSequenceTaken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	e := sampleEvent()
	mock.ExpectExec("INSERT INTO driver_history").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id FROM driver_history").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))

	assert.ErrorIs(t, NewPostgres(db).Append(context.Background(), e), sentinel.ErrDuplicate)
}

func TestPostgresHistory_Latest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	e := sampleEvent()
	cols := []string{"id", "driver_id", "sequence", "action", "status", "previous_status",
		"changed_by", "verification_level", "notes", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY sequence DESC LIMIT 1")).
		WithArgs(uuid.UUID(e.DriverID)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			uuid.UUID(e.ID).String(), uuid.UUID(e.DriverID).String(), int64(3), "approve_level_3",
			"verified", "pending_verification", "admin-1", int64(3), "", e.CreatedAt,
		))

	got, err := NewPostgres(db).Latest(context.Background(), e.DriverID)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	mock.ExpectQuery("ORDER BY sequence DESC").WillReturnRows(sqlmock.NewRows(cols))
	_, err = NewPostgres(db).Latest(context.Background(), e.DriverID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
