package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vetting/internal/driver/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
	"vetting/pkg/platform/tx"
)

var tracer = otel.Tracer("vetting/driver/store")

const driverColumns = `id, tier, full_name, years_experience, status, verified_level,
	is_sltda_approved, suspension_reason, license_expiry, police_clearance_expiry,
	medical_expiry, sltda_license_expiry, version, created_at, updated_at`

// PostgresStore persists drivers in PostgreSQL. Inside a transaction
// FindByID takes a row lock so mutations on one driver serialize.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, d *models.Driver) error {
	_, err := tx.ExecerFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO drivers (`+driverColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.UUID(d.ID), string(d.Tier), d.FullName, d.YearsExperience, string(d.Status),
		d.VerifiedLevel, d.IsSltdaApproved, d.SuspensionReason,
		nullTime(d.LicenseExpiry), nullTime(d.PoliceClearanceExpiry),
		nullTime(d.MedicalExpiry), nullTime(d.SltdaLicenseExpiry),
		d.Version, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert driver: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, driverID id.DriverID) (*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	if tx.InTx(ctx) {
		query += ` FOR UPDATE`
	}
	row := tx.ExecerFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(driverID))
	d, err := scanDriver(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find driver by id: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Driver, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, pq.Array(statuses))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.Tier != "" {
		args = append(args, string(filter.Tier))
		where = append(where, fmt.Sprintf("tier = $%d", len(args)))
	}

	query := `SELECT ` + driverColumns + ` FROM drivers`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := tx.ExecerFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	var out []*models.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drivers: %w", err)
	}
	return out, nil
}

// Update writes d if the stored version equals expectedVersion.
func (s *PostgresStore) Update(ctx context.Context, d *models.Driver, expectedVersion int64) error {
	ctx, span := tracer.Start(ctx, "drivers.update", trace.WithAttributes(
		attribute.String("driver.id", d.ID.String()),
		attribute.Int64("driver.expected_version", expectedVersion),
		attribute.String("driver.status", string(d.Status)),
	))
	defer span.End()

	exec := tx.ExecerFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE drivers SET
			tier = $2, full_name = $3, years_experience = $4, status = $5,
			verified_level = $6, is_sltda_approved = $7, suspension_reason = $8,
			license_expiry = $9, police_clearance_expiry = $10, medical_expiry = $11,
			sltda_license_expiry = $12, version = $13, updated_at = $14
		WHERE id = $1 AND version = $15`,
		uuid.UUID(d.ID), string(d.Tier), d.FullName, d.YearsExperience, string(d.Status),
		d.VerifiedLevel, d.IsSltdaApproved, d.SuspensionReason,
		nullTime(d.LicenseExpiry), nullTime(d.PoliceClearanceExpiry),
		nullTime(d.MedicalExpiry), nullTime(d.SltdaLicenseExpiry),
		d.Version, d.UpdatedAt, expectedVersion,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("update driver: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update driver rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM drivers WHERE id = $1)`, uuid.UUID(d.ID)).Scan(&exists); err != nil {
		return fmt.Errorf("check driver exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	span.SetAttributes(attribute.Bool("driver.conflict", true))
	return sentinel.ErrConflict
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDriver(row scanner) (*models.Driver, error) {
	var (
		d                                 models.Driver
		driverID                          uuid.UUID
		tier, status                      string
		license, police, medical, sltdaLc sql.NullTime
	)
	err := row.Scan(&driverID, &tier, &d.FullName, &d.YearsExperience, &status,
		&d.VerifiedLevel, &d.IsSltdaApproved, &d.SuspensionReason,
		&license, &police, &medical, &sltdaLc,
		&d.Version, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.ID = id.DriverID(driverID)
	d.Tier = models.Tier(tier)
	d.Status = models.Status(status)
	d.LicenseExpiry = timePtr(license)
	d.PoliceClearanceExpiry = timePtr(police)
	d.MedicalExpiry = timePtr(medical)
	d.SltdaLicenseExpiry = timePtr(sltdaLc)
	return &d, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
