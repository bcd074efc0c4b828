package tx

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Postgres runs fn inside a database transaction. Row-level serialization per
// key is the store's job (SELECT ... FOR UPDATE on the keyed row), so key is
// only used for observability here.
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgres(db *sql.DB, timeout time.Duration) *Postgres {
	return &Postgres{db: db, timeout: timeout}
}

func (t *Postgres) RunInTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return aborted(err)
	}
	// nested calls join the outer transaction
	if InTx(ctx) {
		return fn(ctx)
	}
	ctx, cancel := withDeadline(ctx, t.timeout)
	defer cancel()

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return aborted(err)
		}
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}
