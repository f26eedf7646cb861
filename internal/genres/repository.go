package genres

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

// RepositoryPort defines data access methods for genres.
type RepositoryPort interface {
	List(ctx context.Context, search string, limit, offset int) ([]Genre, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Genre, error)
	Create(ctx context.Context, g *Genre) error
	Update(ctx context.Context, g *Genre) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns a page of genres, optionally filtered by name.
func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]Genre, int, error) {
	where := ``
	args := []interface{}{}
	argCount := 0
	if search != "" {
		argCount++
		where = ` WHERE name ILIKE '%' || $` + strconv.Itoa(argCount) + ` || '%'`
		args = append(args, search)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM genres`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	argCount++
	query := `SELECT id, name, created_at, updated_at FROM genres` + where +
		` ORDER BY name ASC LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Genre
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, g)
	}
	return out, total, rows.Err()
}

// FindByID loads one genre, or nil when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Genre, error) {
	var g Genre
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM genres WHERE id = $1`, id).
		Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// Create inserts a new genre.
func (r *Repository) Create(ctx context.Context, g *Genre) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO genres (id, name, created_at, updated_at) VALUES ($1, $2, NOW(), NOW()) RETURNING created_at, updated_at`,
		g.ID, g.Name).Scan(&g.CreatedAt, &g.UpdatedAt)
	return translateUnique(err)
}

// Update renames a genre.
func (r *Repository) Update(ctx context.Context, g *Genre) error {
	_, err := r.pool.Exec(ctx, `UPDATE genres SET name = $2, updated_at = NOW() WHERE id = $1`, g.ID, g.Name)
	return translateUnique(err)
}

// Delete removes a genre. Join rows fall away via ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM genres WHERE id = $1`, id)
	return err
}

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.NewConflict(shared.CodeDuplicate, "a genre with this name already exists")
	}
	return err
}
