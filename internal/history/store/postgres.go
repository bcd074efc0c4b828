package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	driverModels "vetting/internal/driver/models"
	"vetting/internal/history/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
)

// PostgresStore appends history rows. The unique (driver_id, sequence) key
// makes retried appends idempotent.
type PostgresStore struct {
	db *sql.DB
}

var tracer = otel.Tracer("vetting/history/store")

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const eventColumns = `id, driver_id, sequence, action, status, previous_status,
	changed_by, verification_level, notes, created_at`

// Append writes e unless an event already occupies its sequence. created_at is
// raised to the predecessor's timestamp when the clock went backwards.
func (s *PostgresStore) Append(ctx context.Context, e models.Event) error {
	ctx, span := tracer.Start(ctx, "history.append", trace.WithAttributes(
		attribute.String("driver.id", e.DriverID.String()),
		attribute.Int64("history.sequence", e.Sequence),
		attribute.String("history.status", string(e.Status)),
	))
	defer span.End()

	var level sql.NullInt64
	if e.VerificationLevel != nil {
		level = sql.NullInt64{Int64: int64(*e.VerificationLevel), Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO driver_history (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
			GREATEST($10::timestamptz, COALESCE(
				(SELECT MAX(created_at) FROM driver_history WHERE driver_id = $2 AND sequence < $3),
				$10::timestamptz)))
		ON CONFLICT (driver_id, sequence) DO NOTHING`,
		uuid.UUID(e.ID), uuid.UUID(e.DriverID), e.Sequence, string(e.Action), string(e.Status),
		string(e.PreviousStatus), e.ChangedBy, level, e.Notes, e.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("append history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append history rows affected: %w", err)
	}
	if n == 1 {
		span.SetAttributes(attribute.Bool("append.success", true))
		return nil
	}

	var existing uuid.UUID
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM driver_history WHERE driver_id = $1 AND sequence = $2`,
		uuid.UUID(e.DriverID), e.Sequence,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("check existing history: %w", err)
	}
	if existing == uuid.UUID(e.ID) {
		span.SetAttributes(attribute.Bool("append.replayed", true))
		return nil
	}
	span.SetAttributes(attribute.Bool("conflict.detected", true))
	return sentinel.ErrDuplicate
}

func (s *PostgresStore) ListByDriver(ctx context.Context, driverID id.DriverID) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM driver_history WHERE driver_id = $1 ORDER BY sequence ASC`,
		uuid.UUID(driverID),
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Latest(ctx context.Context, driverID id.DriverID) (models.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM driver_history WHERE driver_id = $1 ORDER BY sequence DESC LIMIT 1`,
		uuid.UUID(driverID),
	)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Event{}, sentinel.ErrNotFound
		}
		return models.Event{}, fmt.Errorf("latest history: %w", err)
	}
	return e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (models.Event, error) {
	var (
		e                         models.Event
		eventID, driverID         uuid.UUID
		action, status, prevState string
		level                     sql.NullInt64
	)
	if err := row.Scan(&eventID, &driverID, &e.Sequence, &action, &status, &prevState,
		&e.ChangedBy, &level, &e.Notes, &e.CreatedAt); err != nil {
		return models.Event{}, err
	}
	e.ID = id.EventID(eventID)
	e.DriverID = id.DriverID(driverID)
	e.Action = driverModels.Action(action)
	e.Status = driverModels.Status(status)
	e.PreviousStatus = driverModels.Status(prevState)
	if level.Valid {
		l := int(level.Int64)
		e.VerificationLevel = &l
	}
	return e, nil
}
