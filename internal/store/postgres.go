package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx operations the store needs. Satisfied by both
// *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// uniqueViolation is the Postgres SQLSTATE for unique-constraint errors.
const uniqueViolation = "23505"

// Postgres is a Collection backed by a Postgres table of JSONB documents.
// Each collection maps to one table of shape (seq identity, id uuid
// primary key, doc jsonb); uniqueness on the natural-key field is enforced
// by an expression index created in EnsureSchema.
type Postgres[T Document] struct {
	db    DBTX
	table string
}

var _ Collection[Document] = (*Postgres[Document])(nil)

// NewPostgres creates a collection over the named table. The table must
// have been created by EnsureSchema.
func NewPostgres[T Document](db DBTX, table string) *Postgres[T] {
	return &Postgres[T]{db: db, table: table}
}

// Insert implements Collection.
func (p *Postgres[T]) Insert(ctx context.Context, doc T) (string, error) {
	id := uuid.NewString()
	doc.SetDocumentID(id)

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("store: marshal document: %w", err)
	}

	sql := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)`, p.table)
	if _, err := p.db.Exec(ctx, sql, id, raw); err != nil {
		return "", p.mapError(err)
	}
	return id, nil
}

// FindOne implements Collection.
func (p *Postgres[T]) FindOne(ctx context.Context, f Filter) (T, error) {
	var zero T

	where, args := filterClause(f, 1)
	sql := fmt.Sprintf(`SELECT doc FROM %s %s ORDER BY seq LIMIT 1`, p.table, where)

	var raw []byte
	if err := p.db.QueryRow(ctx, sql, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("store: query %s: %w", p.table, err)
	}
	return decode[T](raw)
}

// FindByID implements Collection.
func (p *Postgres[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T

	sql := fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, p.table)
	var raw []byte
	if err := p.db.QueryRow(ctx, sql, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("store: query %s: %w", p.table, err)
	}
	return decode[T](raw)
}

// FindAll implements Collection.
func (p *Postgres[T]) FindAll(ctx context.Context, f Filter) ([]T, error) {
	where, args := filterClause(f, 1)
	sql := fmt.Sprintf(`SELECT doc FROM %s %s ORDER BY seq`, p.table, where)

	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query %s: %w", p.table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", p.table, err)
		}
		doc, err := decode[T](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate %s: %w", p.table, err)
	}
	return out, nil
}

// UpdateByID implements Collection.
func (p *Postgres[T]) UpdateByID(ctx context.Context, id string, doc T) (T, error) {
	var zero T

	doc.SetDocumentID(id)
	raw, err := json.Marshal(doc)
	if err != nil {
		return zero, fmt.Errorf("store: marshal document: %w", err)
	}

	sql := fmt.Sprintf(`UPDATE %s SET doc = $2 WHERE id = $1 RETURNING doc`, p.table)
	var stored []byte
	if err := p.db.QueryRow(ctx, sql, id, raw).Scan(&stored); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, p.mapError(err)
	}
	return decode[T](stored)
}

// DeleteMany implements Collection.
func (p *Postgres[T]) DeleteMany(ctx context.Context, f Filter) (int64, error) {
	where, args := filterClause(f, 1)
	sql := fmt.Sprintf(`DELETE FROM %s %s`, p.table, where)

	tag, err := p.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("store: delete from %s: %w", p.table, err)
	}
	return tag.RowsAffected(), nil
}

// Count implements Collection.
func (p *Postgres[T]) Count(ctx context.Context) (int64, error) {
	sql := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, p.table)
	var n int64
	if err := p.db.QueryRow(ctx, sql).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count %s: %w", p.table, err)
	}
	return n, nil
}

// mapError converts pgx errors to store sentinels where appropriate.
func (p *Postgres[T]) mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, pgErr.ConstraintName)
	}
	return fmt.Errorf("store: %s: %w", p.table, err)
}

// filterClause renders a Filter as a parameterized WHERE clause over the
// JSONB doc column. Field names are passed as bind parameters, never
// interpolated. startArg is the first $n placeholder number to use.
func filterClause(f Filter, startArg int) (string, []any) {
	if len(f) == 0 {
		return "", nil
	}

	// Stable clause order so generated SQL is deterministic.
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		parts []string
		args  []any
		n     = startArg
	)
	for _, k := range keys {
		parts = append(parts, "doc->>$"+strconv.Itoa(n)+" = $"+strconv.Itoa(n+1))
		args = append(args, k, f[k])
		n += 2
	}
	return "WHERE " + strings.Join(parts, " AND "), args
}

// decode unmarshals a stored JSONB document into a fresh T.
func decode[T Document](raw []byte) (T, error) {
	var zero T
	doc := newDocument[T]()
	if err := json.Unmarshal(raw, doc); err != nil {
		return zero, fmt.Errorf("store: decode document: %w", err)
	}
	return doc, nil
}
