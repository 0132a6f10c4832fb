package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// PostgresCollection stores documents as JSONB rows: (id, doc, created_at, updated_at).
type PostgresCollection[T any] struct {
	pool  *pgxpool.Pool
	table string
	now   func() time.Time
}

// NewPostgresCollection binds a collection to a table created by the SQL migrations.
func NewPostgresCollection[T any](pool *pgxpool.Pool, table string) *PostgresCollection[T] {
	return &PostgresCollection[T]{pool: pool, table: pgx.Identifier{table}.Sanitize(), now: time.Now}
}

func (c *PostgresCollection[T]) Create(ctx context.Context, id string, doc *T) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb)`, c.table)
	if _, err := c.pool.Exec(ctx, query, id, string(body)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (c *PostgresCollection[T]) Get(ctx context.Context, id string) (*T, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE id=$1`, c.table)
	return c.scanOne(c.pool.QueryRow(ctx, query, id))
}

func (c *PostgresCollection[T]) Patch(ctx context.Context, id string, fields Patch) (*T, error) {
	if err := validatePatch(fields); err != nil {
		return nil, err
	}
	body, err := json.Marshal(withUpdatedAt(fields, c.now()))
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	query := fmt.Sprintf(`
        UPDATE %s SET doc = doc || $2::jsonb, updated_at = NOW()
        WHERE id=$1
        RETURNING doc`, c.table)
	return c.scanOne(c.pool.QueryRow(ctx, query, id, string(body)))
}

func (c *PostgresCollection[T]) Replace(ctx context.Context, id string, doc *T) (*T, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	query := fmt.Sprintf(`
        UPDATE %s SET doc = $2::jsonb, updated_at = NOW()
        WHERE id=$1
        RETURNING doc`, c.table)
	return c.scanOne(c.pool.QueryRow(ctx, query, id, string(body)))
}

func (c *PostgresCollection[T]) Delete(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, c.table)
	cmd, err := c.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (c *PostgresCollection[T]) Query(ctx context.Context, q Query) (Page[T], error) {
	offset, err := decodeToken(q.ContinuationToken)
	if err != nil {
		return Page[T]{}, err
	}
	where, args, err := buildPostgresWhere(q.Filter)
	if err != nil {
		return Page[T]{}, err
	}
	order, err := buildPostgresOrder(q.Sort)
	if err != nil {
		return Page[T]{}, err
	}
	size := pageSize(q.PageSize)

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT doc FROM %s", c.table)
	if where != "" {
		sb.WriteString(" WHERE " + where)
	}
	sb.WriteString(" ORDER BY " + order)
	args = append(args, size+1, offset)
	fmt.Fprintf(&sb, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := c.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return Page[T]{}, err
	}
	defer rows.Close()

	items := make([]T, 0, size)
	fetched := 0
	for rows.Next() {
		fetched++
		if fetched > size {
			continue
		}
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return Page[T]{}, err
		}
		var item T
		if err := json.Unmarshal(body, &item); err != nil {
			return Page[T]{}, fmt.Errorf("decode document: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Items: items, ContinuationToken: nextToken(offset, size, fetched)}, nil
}

func (c *PostgresCollection[T]) scanOne(row pgx.Row) (*T, error) {
	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var doc T
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// buildPostgresWhere translates a Filter into a WHERE fragment with positional args.
func buildPostgresWhere(filter Filter) (string, []any, error) {
	if err := filter.validate(); err != nil {
		return "", nil, err
	}
	clauses := make([]string, 0, len(filter))
	args := make([]any, 0, len(filter))
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, cond := range filter {
		switch cond.Op {
		case OpEq:
			if cond.Field == "id" {
				clauses = append(clauses, "id = "+next(cond.Value))
				continue
			}
			body, err := json.Marshal(nestValue(cond.Field, cond.Value))
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, "doc @> "+next(string(body))+"::jsonb")
		case OpIn:
			clauses = append(clauses, textPath(cond.Field)+" = ANY("+next(cond.Value)+")")
		case OpContains:
			body, err := json.Marshal(nestValue(cond.Field, []any{cond.Value}))
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, "doc @> "+next(string(body))+"::jsonb")
		case OpSearch:
			term := fmt.Sprint(cond.Value)
			if term == "" || len(cond.Fields) == 0 {
				continue
			}
			placeholder := next("%" + escapeLike(term) + "%")
			parts := make([]string, 0, len(cond.Fields))
			for _, field := range cond.Fields {
				parts = append(parts, textPath(field)+" ILIKE "+placeholder)
			}
			clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
		case OpGte:
			clauses = append(clauses, "("+textPath(cond.Field)+")::timestamptz >= "+next(cond.Value))
		case OpLte:
			clauses = append(clauses, "("+textPath(cond.Field)+")::timestamptz <= "+next(cond.Value))
		case OpMissing:
			clauses = append(clauses, fmt.Sprintf("(%s IS NULL OR %s = 'null'::jsonb)", jsonPath(cond.Field), jsonPath(cond.Field)))
		case OpNotEmpty:
			path := jsonPath(cond.Field)
			clauses = append(clauses, fmt.Sprintf("(jsonb_typeof(%s) = 'array' AND jsonb_array_length(%s) > 0)", path, path))
		default:
			return "", nil, fmt.Errorf("unsupported filter op %q", cond.Op)
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

func buildPostgresOrder(sorts []Sort) (string, error) {
	if len(sorts) == 0 {
		return "created_at DESC, id", nil
	}
	parts := make([]string, 0, len(sorts)+1)
	for _, s := range sorts {
		if err := validateField(s.Field); err != nil {
			return "", err
		}
		expr := textPath(s.Field)
		if timeFields[s.Field] {
			expr = "(" + expr + ")::timestamptz"
		}
		if s.Desc {
			expr += " DESC NULLS LAST"
		} else {
			expr += " ASC NULLS LAST"
		}
		parts = append(parts, expr)
	}
	parts = append(parts, "id")
	return strings.Join(parts, ", "), nil
}

// textPath renders doc->>'a' or doc#>>'{a,b}'. Field names are validated before use.
func textPath(field string) string {
	if field == "id" {
		return "id"
	}
	if strings.Contains(field, ".") {
		return "doc#>>'{" + strings.ReplaceAll(field, ".", ",") + "}'"
	}
	return "doc->>'" + field + "'"
}

func jsonPath(field string) string {
	if strings.Contains(field, ".") {
		return "doc#>'{" + strings.ReplaceAll(field, ".", ",") + "}'"
	}
	return "doc->'" + field + "'"
}

// nestValue turns ("a.b", v) into {"a": {"b": v}} for containment checks.
func nestValue(field string, v any) map[string]any {
	parts := strings.Split(field, ".")
	var out any = v
	for i := len(parts) - 1; i >= 0; i-- {
		out = map[string]any{parts[i]: out}
	}
	return out.(map[string]any)
}

func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
