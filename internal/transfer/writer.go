package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Writer is the destination side of a transfer run.
type Writer interface {
	Insert(ctx context.Context, table string, columns []string, values []interface{}) error
}

// PostgresWriter writes into the destination Postgres over an open handle.
type PostgresWriter struct {
	DB *sql.DB
}

func OpenDestination(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open destination")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "open destination")
	}
	return &PostgresWriter{DB: db}, nil
}

func (w *PostgresWriter) Close() error {
	return w.DB.Close()
}

func (w *PostgresWriter) Insert(ctx context.Context, table string, columns []string, values []interface{}) error {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	_, err := w.DB.ExecContext(ctx, query, values...)
	return err
}

// SQLiteWriter writes into a sqlite destination. Used by tests and for local
// rehearsal runs against a scratch database.
type SQLiteWriter struct {
	DB *sql.DB
}

func (w *SQLiteWriter) Insert(ctx context.Context, table string, columns []string, values []interface{}) error {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	_, err := w.DB.ExecContext(ctx, query, values...)
	return err
}

// IsConstraintViolation reports whether an insert failed on a destination
// constraint (unique, foreign key, not-null, check). Such failures are
// per-row rejections; anything else from the destination is fatal.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return strings.HasPrefix(string(pqErr.Code), "23")
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
