package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vetting/internal/artifact/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
	"vetting/pkg/platform/tx"
)

const artifactColumns = `id, driver_id, class, kind, status, verification_date, decided_by, uploaded_at, version`

// PostgresStore persists artifacts. Writes join the per-driver transaction
// carried in ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Artifact) error {
	_, err := tx.ExecerFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO artifacts (`+artifactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(a.ID), uuid.UUID(a.DriverID), string(a.Class), string(a.Kind), string(a.Status),
		nullTime(a.VerificationDate), a.DecidedBy, a.UploadedAt, a.Version,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, artifactID id.ArtifactID) (*models.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM artifacts WHERE id = $1`
	if tx.InTx(ctx) {
		query += ` FOR UPDATE`
	}
	a, err := scanArtifact(tx.ExecerFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(artifactID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find artifact: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListByDriver(ctx context.Context, driverID id.DriverID) ([]*models.Artifact, error) {
	rows, err := tx.ExecerFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE driver_id = $1 ORDER BY uploaded_at ASC, id ASC`,
		uuid.UUID(driverID),
	)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []*models.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, a *models.Artifact, expectedVersion int64) error {
	exec := tx.ExecerFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE artifacts SET status = $2, verification_date = $3, decided_by = $4, version = $5
		WHERE id = $1 AND version = $6`,
		uuid.UUID(a.ID), string(a.Status), nullTime(a.VerificationDate), a.DecidedBy, a.Version, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update artifact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update artifact rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM artifacts WHERE id = $1)`, uuid.UUID(a.ID)).Scan(&exists); err != nil {
		return fmt.Errorf("check artifact exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row scanner) (*models.Artifact, error) {
	var (
		a                    models.Artifact
		artifactID, driverID uuid.UUID
		class, kind, status  string
		verified             sql.NullTime
	)
	if err := row.Scan(&artifactID, &driverID, &class, &kind, &status, &verified,
		&a.DecidedBy, &a.UploadedAt, &a.Version); err != nil {
		return nil, err
	}
	a.ID = id.ArtifactID(artifactID)
	a.DriverID = id.DriverID(driverID)
	a.Class = models.Class(class)
	a.Kind = models.Kind(kind)
	a.Status = models.Status(status)
	if verified.Valid {
		t := verified.Time
		a.VerificationDate = &t
	}
	return &a, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
