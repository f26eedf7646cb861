package contrib

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
)

// ListFilter narrows and orders contribution listings.
type ListFilter struct {
	ContributorID *uuid.UUID
	Status        *Status
	Target        *registry.EntityType
	SortBy        string // created_at | submitted_at | reviewed_at
	SortDir       string // asc | desc
	Page          int
	PerPage       int
}

// Repository defines data access for contributions.
type Repository interface {
	Create(ctx context.Context, c *Contribution) error
	Get(ctx context.Context, id uuid.UUID) (*Contribution, error)
	UpdateDraft(ctx context.Context, id uuid.UUID, data map[string]any) error
	MarkSubmitted(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]Contribution, int, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const contributionColumns = `id, target, data, note, status, contributor_id, reviewer_id, submitted_at, reviewed_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c *Contribution) error {
	payload, err := json.Marshal(c.Data)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = r.db.Exec(ctx, `INSERT INTO contributions (id, target, data, note, status, contributor_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, string(c.Target), payload, c.Note, string(c.Status), c.ContributorID, now, now)
	if err != nil {
		return err
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Contribution, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contributionColumns+` FROM contributions WHERE id = $1`, id)
	c, err := scanContribution(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *repository) UpdateDraft(ctx context.Context, id uuid.UUID, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `UPDATE contributions SET data = $2, updated_at = NOW() WHERE id = $1`, id, payload)
	return err
}

func (r *repository) MarkSubmitted(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE contributions SET status = $2, submitted_at = $3, updated_at = NOW() WHERE id = $1`,
		id, string(StatusPending), at)
	return err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM contributions WHERE id = $1`, id)
	return err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Contribution, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filter.ContributorID != nil {
		argCount++
		where += ` AND contributor_id = $` + strconv.Itoa(argCount)
		args = append(args, *filter.ContributorID)
	}
	if filter.Status != nil {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, string(*filter.Status))
	}
	if filter.Target != nil {
		argCount++
		where += ` AND target = $` + strconv.Itoa(argCount)
		args = append(args, string(*filter.Target))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contributions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + contributionColumns + ` FROM contributions` + where + ` ORDER BY ` + sortOrder(filter.SortBy, filter.SortDir)

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, perPage)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, (page-1)*perPage)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var contributions []Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, 0, err
		}
		contributions = append(contributions, *c)
	}
	return contributions, total, rows.Err()
}

func sortOrder(sortBy, sortDir string) string {
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "submitted_at":
		return "submitted_at " + dir + " NULLS LAST"
	case "reviewed_at":
		return "reviewed_at " + dir + " NULLS LAST"
	default:
		return "created_at " + dir
	}
}

func scanContribution(row pgx.Row) (*Contribution, error) {
	var (
		c       Contribution
		target  string
		status  string
		payload []byte
	)
	if err := row.Scan(&c.ID, &target, &payload, &c.Note, &status, &c.ContributorID, &c.ReviewerID,
		&c.SubmittedAt, &c.ReviewedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Target = registry.EntityType(target)
	c.Status = Status(status)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &c.Data); err != nil {
			return nil, err
		}
	}
	return &c, nil
}
