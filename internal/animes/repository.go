package animes

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines data access methods for animes.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) ([]Anime, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Anime, error)
	Create(ctx context.Context, a *Anime) error
	Update(ctx context.Context, a *Anime) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	SetGenres(ctx context.Context, animeID uuid.UUID, genreIDs []uuid.UUID) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const animeColumns = `id, title, synopsis, status, release_year, created_at, updated_at`

// List returns a page of live animes matching the filter.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Anime, int, error) {
	where := ` WHERE deleted_at IS NULL`
	args := []interface{}{}
	argCount := 0

	if filter.Search != "" {
		argCount++
		where += ` AND title ILIKE '%' || $` + strconv.Itoa(argCount) + ` || '%'`
		args = append(args, filter.Search)
	}
	if filter.Status != "" {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, filter.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM animes`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + animeColumns + ` FROM animes` + where + ` ORDER BY ` + sortOrder(filter.SortBy, filter.SortDir)

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

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var animes []Anime
	for rows.Next() {
		a, err := scanAnime(rows)
		if err != nil {
			return nil, 0, err
		}
		animes = append(animes, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachGenres(ctx, animes); err != nil {
		return nil, 0, err
	}
	return animes, total, nil
}

// FindByID loads one live anime with its genres, or nil when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Anime, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+animeColumns+` FROM animes WHERE id = $1 AND deleted_at IS NULL`, id)
	a, err := scanAnime(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	animes := []Anime{*a}
	if err := r.attachGenres(ctx, animes); err != nil {
		return nil, err
	}
	return &animes[0], nil
}

// Create inserts a new anime.
func (r *Repository) Create(ctx context.Context, a *Anime) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO animes (id, title, synopsis, status, release_year, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING created_at, updated_at`,
		a.ID, a.Title, a.Synopsis, a.Status, a.ReleaseYear).Scan(&a.CreatedAt, &a.UpdatedAt)
}

// Update overwrites the scalar columns of an anime.
func (r *Repository) Update(ctx context.Context, a *Anime) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE animes SET title = $2, synopsis = $3, status = $4, release_year = $5, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL`,
		a.ID, a.Title, a.Synopsis, a.Status, a.ReleaseYear)
	return err
}

// SoftDelete hides an anime from all reads.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE animes SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

// SetGenres replaces the genre set of an anime.
func (r *Repository) SetGenres(ctx context.Context, animeID uuid.UUID, genreIDs []uuid.UUID) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM anime_genres WHERE anime_id = $1 AND NOT (genre_id = ANY($2))`, animeID, genreIDs); err != nil {
		return err
	}
	for _, gid := range genreIDs {
		if _, err := r.pool.Exec(ctx,
			`INSERT INTO anime_genres (anime_id, genre_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, animeID, gid); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) attachGenres(ctx context.Context, animes []Anime) error {
	if len(animes) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(animes))
	index := make(map[uuid.UUID]int, len(animes))
	for i := range animes {
		animes[i].Genres = []GenreRef{}
		ids[i] = animes[i].ID
		index[animes[i].ID] = i
	}
	rows, err := r.pool.Query(ctx,
		`SELECT ag.anime_id, g.id, g.name FROM anime_genres ag
JOIN genres g ON g.id = ag.genre_id
WHERE ag.anime_id = ANY($1)
ORDER BY g.name ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var animeID uuid.UUID
		var ref GenreRef
		if err := rows.Scan(&animeID, &ref.ID, &ref.Name); err != nil {
			return err
		}
		i := index[animeID]
		animes[i].Genres = append(animes[i].Genres, ref)
	}
	return rows.Err()
}

func sortOrder(sortBy, sortDir string) string {
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "title":
		return "title " + dir
	case "release_year":
		return "release_year " + dir + " NULLS LAST"
	default:
		return "created_at " + dir
	}
}

func scanAnime(row pgx.Row) (*Anime, error) {
	var a Anime
	if err := row.Scan(&a.ID, &a.Title, &a.Synopsis, &a.Status, &a.ReleaseYear, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
