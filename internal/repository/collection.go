package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/atinyakov/teamsync/internal/remote"
)

// undefinedTable is the SQLSTATE PostgreSQL reports for a missing relation.
const undefinedTable = "42P01"

type rowScanner interface {
	Scan(dest ...any) error
}

// table describes how the rows of one collection map to columns. Every
// table has the key columns id and user_login first and created_at after
// the data columns; updated_at follows when tracked.
type table[R any] struct {
	name       string
	columns    []string
	hasUpdated bool
	// values returns, in columns order, the data values of a row.
	values func(R) ([]any, error)
	// scan reads id, user_login, data columns, created_at[, updated_at].
	scan func(rowScanner) (R, error)
}

func (t table[R]) selectList() string {
	cols := append([]string{"id", "user_login"}, t.columns...)
	cols = append(cols, "created_at")
	if t.hasUpdated {
		cols = append(cols, "updated_at")
	}
	return strings.Join(cols, ", ")
}

// PostgresCollection stores the rows of one collection kind.
type PostgresCollection[R remote.Row[R]] struct {
	// DB is the database handle for executing queries.
	DB    *sql.DB
	table table[R]
}

// List returns the rows owned by userID, oldest first.
func (c *PostgresCollection[R]) List(ctx context.Context, userID string) ([]R, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_login = $1 ORDER BY created_at`, c.table.selectList(), c.table.name)
	rows, err := c.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table.name, classify(err))
	}
	defer rows.Close()

	out := []R{}
	for rows.Next() {
		r, err := c.table.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.table.name, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table.name, classify(err))
	}
	return out, nil
}

// Get returns the row id owned by userID.
func (c *PostgresCollection[R]) Get(ctx context.Context, userID, id string) (R, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_login = $1 AND id = $2`, c.table.selectList(), c.table.name)
	row, err := c.table.scan(c.DB.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		var zero R
		return zero, fmt.Errorf("get %s %s: %w", c.table.name, id, classify(err))
	}
	return row, nil
}

// Insert stores row, which must already carry its id and timestamps.
func (c *PostgresCollection[R]) Insert(ctx context.Context, userID string, row R) (R, error) {
	var zero R
	data, err := c.table.values(row)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", c.table.name, err)
	}
	args := append([]any{row.RowID(), userID}, data...)
	args = append(args, row.Created())
	cols := c.table.selectList()
	if c.table.hasUpdated {
		args = append(args, row.Created())
	}
	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		c.table.name, cols, strings.Join(placeholders, ", "), cols)

	stored, err := c.table.scan(c.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return zero, fmt.Errorf("insert %s: %w", c.table.name, classify(err))
	}
	return stored, nil
}

// Update overwrites the data columns of the row id owned by userID and
// stamps updated_at with updatedAt when the table tracks it.
func (c *PostgresCollection[R]) Update(ctx context.Context, userID, id string, row R, updatedAt time.Time) (R, error) {
	var zero R
	data, err := c.table.values(row)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", c.table.name, err)
	}
	args := []any{userID, id}
	sets := make([]string, 0, len(c.table.columns)+1)
	for i, col := range c.table.columns {
		args = append(args, data[i])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if c.table.hasUpdated {
		args = append(args, updatedAt)
		sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	}
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE user_login = $1 AND id = $2 RETURNING %s`,
		c.table.name, strings.Join(sets, ", "), c.table.selectList())

	stored, err := c.table.scan(c.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return zero, fmt.Errorf("update %s %s: %w", c.table.name, id, classify(err))
	}
	return stored, nil
}

// Delete removes the row id owned by userID.
func (c *PostgresCollection[R]) Delete(ctx context.Context, userID, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_login = $1 AND id = $2`, c.table.name)
	res, err := c.DB.ExecContext(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", c.table.name, id, classify(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete %s %s: %w", c.table.name, id, remote.ErrNotFound)
	}
	return nil
}

// classify maps driver errors onto the remote store taxonomy.
func classify(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return remote.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
		return fmt.Errorf("%w: %s", remote.ErrSchemaMissing, pqErr.Message)
	}
	return err
}
