package contrib

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

// Querier is satisfied by both pgx.Tx and *pgxpool.Pool, so the same
// store serves the transactional write path and the read-only resolve
// path.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SQLStore is the Postgres-backed EntityStore. Queries are built from
// registry descriptors; every id parameter is cast to uuid in SQL so a
// malformed id in a payload surfaces as a validation failure.
type SQLStore struct {
	db  Querier
	reg *registry.Registry
}

// NewSQLStore binds a store to a querier (transaction or pool).
func NewSQLStore(db Querier, reg *registry.Registry) *SQLStore {
	return &SQLStore{db: db, reg: reg}
}

// fieldNames returns the payload field names of a descriptor in a
// deterministic order.
func fieldNames(desc registry.Descriptor) []string {
	names := make([]string, 0, len(desc.Fields))
	for name := range desc.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *SQLStore) selectClause(desc registry.Descriptor) (string, []string) {
	names := fieldNames(desc)
	cols := make([]string, 0, len(names)+1)
	cols = append(cols, "id::text")
	for _, name := range names {
		cols = append(cols, desc.Fields[name].Column)
	}
	return strings.Join(cols, ", "), names
}

// FindByID loads one record, or nil when absent.
func (s *SQLStore) FindByID(ctx context.Context, desc registry.Descriptor, id string) (map[string]any, error) {
	clause, names := s.selectClause(desc)
	query := `SELECT ` + clause + ` FROM ` + desc.Table + ` WHERE id = $1::uuid`
	if desc.SoftDelete {
		query += ` AND deleted_at IS NULL`
	}
	record, err := scanRecord(s.db.QueryRow(ctx, query, id), names)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translatePGError(err)
	}
	return record, nil
}

// FindByIDs loads a batch of records keyed by id in one query.
func (s *SQLStore) FindByIDs(ctx context.Context, desc registry.Descriptor, ids []string) (map[string]map[string]any, error) {
	result := make(map[string]map[string]any, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	clause, names := s.selectClause(desc)
	query := `SELECT ` + clause + ` FROM ` + desc.Table + ` WHERE id = ANY($1::uuid[])`
	if desc.SoftDelete {
		query += ` AND deleted_at IS NULL`
	}
	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, translatePGError(err)
	}
	defer rows.Close()
	for rows.Next() {
		record, err := scanRecord(rows, names)
		if err != nil {
			return nil, err
		}
		result[record["id"].(string)] = record
	}
	return result, rows.Err()
}

// Insert creates a record under the caller-chosen id.
func (s *SQLStore) Insert(ctx context.Context, desc registry.Descriptor, id string, fields map[string]any) error {
	cols := []string{"id", "created_at", "updated_at"}
	placeholders := []string{"$1::uuid", "NOW()", "NOW()"}
	args := []any{id}
	n := 1
	for _, col := range sortedKeys(fields) {
		n++
		cols = append(cols, col)
		placeholders = append(placeholders, "$"+strconv.Itoa(n))
		args = append(args, fields[col])
	}
	query := `INSERT INTO ` + desc.Table + ` (` + strings.Join(cols, ", ") + `) VALUES (` + strings.Join(placeholders, ", ") + `)`
	_, err := s.db.Exec(ctx, query, args...)
	return translatePGError(err)
}

// Update overwrites the given columns of an existing record.
func (s *SQLStore) Update(ctx context.Context, desc registry.Descriptor, id string, fields map[string]any) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	n := 1
	for _, col := range sortedKeys(fields) {
		n++
		sets = append(sets, col+" = $"+strconv.Itoa(n))
		args = append(args, fields[col])
	}
	query := `UPDATE ` + desc.Table + ` SET ` + strings.Join(sets, ", ") + ` WHERE id = $1::uuid`
	_, err := s.db.Exec(ctx, query, args...)
	return translatePGError(err)
}

// Delete removes a record, soft when the type supports it.
func (s *SQLStore) Delete(ctx context.Context, desc registry.Descriptor, id string) error {
	var query string
	if desc.SoftDelete {
		query = `UPDATE ` + desc.Table + ` SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1::uuid AND deleted_at IS NULL`
	} else {
		query = `DELETE FROM ` + desc.Table + ` WHERE id = $1::uuid`
	}
	_, err := s.db.Exec(ctx, query, id)
	return translatePGError(err)
}

// RelatedIDs lists the ids currently attached to a relation.
func (s *SQLStore) RelatedIDs(ctx context.Context, desc registry.Descriptor, rel registry.Relation, ownerID string) ([]string, error) {
	var query string
	switch rel.Kind {
	case registry.ManyToMany:
		query = `SELECT ` + rel.JoinTargetColumn + `::text FROM ` + rel.JoinTable + ` WHERE ` + rel.JoinLocalColumn + ` = $1::uuid`
	case registry.OneToMany:
		child, err := s.reg.Get(rel.Target)
		if err != nil {
			return nil, err
		}
		query = `SELECT id::text FROM ` + child.Table + ` WHERE ` + rel.ForeignKeyColumn + ` = $1::uuid`
		if child.SoftDelete {
			query += ` AND deleted_at IS NULL`
		}
	default:
		return nil, fmt.Errorf("contrib: relation %q: RelatedIDs unsupported for %s", rel.Name, rel.Kind)
	}
	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, translatePGError(err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetRelation replaces a relation's member set. Link maintenance only;
// orphan deletion is decided by the apply engine.
func (s *SQLStore) SetRelation(ctx context.Context, desc registry.Descriptor, rel registry.Relation, ownerID string, ids []string) error {
	switch rel.Kind {
	case registry.ManyToMany:
		if _, err := s.db.Exec(ctx,
			`DELETE FROM `+rel.JoinTable+` WHERE `+rel.JoinLocalColumn+` = $1::uuid AND NOT (`+rel.JoinTargetColumn+` = ANY($2::uuid[]))`,
			ownerID, ids); err != nil {
			return translatePGError(err)
		}
		for _, id := range ids {
			if _, err := s.db.Exec(ctx,
				`INSERT INTO `+rel.JoinTable+` (`+rel.JoinLocalColumn+`, `+rel.JoinTargetColumn+`) VALUES ($1::uuid, $2::uuid) ON CONFLICT DO NOTHING`,
				ownerID, id); err != nil {
				return translatePGError(err)
			}
		}
		return nil
	case registry.OneToMany:
		child, err := s.reg.Get(rel.Target)
		if err != nil {
			return err
		}
		if _, err := s.db.Exec(ctx,
			`UPDATE `+child.Table+` SET `+rel.ForeignKeyColumn+` = NULL WHERE `+rel.ForeignKeyColumn+` = $1::uuid AND NOT (id = ANY($2::uuid[]))`,
			ownerID, ids); err != nil {
			return translatePGError(err)
		}
		if len(ids) > 0 {
			if _, err := s.db.Exec(ctx,
				`UPDATE `+child.Table+` SET `+rel.ForeignKeyColumn+` = $1::uuid WHERE id = ANY($2::uuid[])`,
				ownerID, ids); err != nil {
				return translatePGError(err)
			}
		}
		return nil
	default:
		return fmt.Errorf("contrib: relation %q: SetRelation unsupported for %s", rel.Name, rel.Kind)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scanRecord(row pgx.Row, names []string) (map[string]any, error) {
	dest := make([]any, len(names)+1)
	var id string
	dest[0] = &id
	values := make([]any, len(names))
	for i := range names {
		dest[i+1] = &values[i]
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	record := make(map[string]any, len(names)+1)
	record["id"] = id
	for i, name := range names {
		record[name] = values[i]
	}
	return record, nil
}

// translatePGError converts constraint and cast failures into validation
// errors the contributor can act on. Everything else passes through.
func translatePGError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return shared.NewValidation("duplicate value violates a uniqueness constraint: " + pgErr.Detail)
		case "23502", "23503", "23514", "22P02", "22001", "22003":
			return shared.NewValidation(pgErr.Message)
		}
	}
	return err
}
