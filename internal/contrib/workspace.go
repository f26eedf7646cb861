package contrib

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HayaseDB/hayasedb-sub000/internal/platform/db"
	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
)

// WorkUnit is the set of operations a review decision performs inside
// one transaction. Both the real transaction-bound implementation and
// the test fakes satisfy it.
type WorkUnit interface {
	// Apply realizes a contribution payload and returns the root record id.
	Apply(ctx context.Context, target registry.EntityType, data map[string]any) (string, error)

	// EntityExists reports whether a live record of the target type exists.
	EntityExists(ctx context.Context, target registry.EntityType, id string) (bool, error)

	// ContributionForUpdate loads a contribution row locked for the rest
	// of the transaction, or nil when absent.
	ContributionForUpdate(ctx context.Context, id uuid.UUID) (*Contribution, error)

	// SaveReview records the review outcome on the contribution row.
	SaveReview(ctx context.Context, id uuid.UUID, status Status, reviewerID uuid.UUID, note string, at time.Time) error
}

// Workspace runs work units against the database. Commit runs them in a
// transaction that commits on success; DryRun runs them in a transaction
// that is always rolled back, so constraint checks fire without any
// lasting writes.
type Workspace interface {
	Commit(ctx context.Context, fn func(WorkUnit) error) error
	DryRun(ctx context.Context, fn func(WorkUnit) error) error

	// Resolve hydrates a stored payload for display outside any write
	// transaction.
	Resolve(ctx context.Context, target registry.EntityType, data map[string]any) (map[string]any, error)
}

type pgWorkspace struct {
	pool *pgxpool.Pool
	reg  *registry.Registry
}

// NewWorkspace builds the Postgres-backed Workspace.
func NewWorkspace(pool *pgxpool.Pool, reg *registry.Registry) Workspace {
	return &pgWorkspace{pool: pool, reg: reg}
}

func (w *pgWorkspace) Commit(ctx context.Context, fn func(WorkUnit) error) error {
	return db.WithTx(ctx, w.pool, func(tx pgx.Tx) error {
		return fn(newWorkUnit(tx, w.reg))
	})
}

func (w *pgWorkspace) DryRun(ctx context.Context, fn func(WorkUnit) error) error {
	return db.WithRollbackTx(ctx, w.pool, func(tx pgx.Tx) error {
		return fn(newWorkUnit(tx, w.reg))
	})
}

func (w *pgWorkspace) Resolve(ctx context.Context, target registry.EntityType, data map[string]any) (map[string]any, error) {
	applier := NewApplier(w.reg, NewSQLStore(w.pool, w.reg))
	return applier.ResolveForResponse(ctx, target, data)
}

type pgWorkUnit struct {
	tx      pgx.Tx
	reg     *registry.Registry
	applier *Applier
}

func newWorkUnit(tx pgx.Tx, reg *registry.Registry) *pgWorkUnit {
	return &pgWorkUnit{tx: tx, reg: reg, applier: NewApplier(reg, NewSQLStore(tx, reg))}
}

func (u *pgWorkUnit) Apply(ctx context.Context, target registry.EntityType, data map[string]any) (string, error) {
	return u.applier.Apply(ctx, target, data)
}

func (u *pgWorkUnit) EntityExists(ctx context.Context, target registry.EntityType, id string) (bool, error) {
	desc, err := u.reg.Get(target)
	if err != nil {
		return false, err
	}
	record, err := NewSQLStore(u.tx, u.reg).FindByID(ctx, desc, id)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

func (u *pgWorkUnit) ContributionForUpdate(ctx context.Context, id uuid.UUID) (*Contribution, error) {
	row := u.tx.QueryRow(ctx, `SELECT `+contributionColumns+` FROM contributions WHERE id = $1 FOR UPDATE`, id)
	c, err := scanContribution(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (u *pgWorkUnit) SaveReview(ctx context.Context, id uuid.UUID, status Status, reviewerID uuid.UUID, note string, at time.Time) error {
	_, err := u.tx.Exec(ctx,
		`UPDATE contributions SET status = $2, reviewer_id = $3, note = $4, reviewed_at = $5, updated_at = NOW() WHERE id = $1`,
		id, string(status), reviewerID, note, at)
	return err
}
