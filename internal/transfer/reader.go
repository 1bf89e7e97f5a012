package transfer

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Row is one source row keyed by column name.
type Row map[string]interface{}

// Reader pulls rows out of the legacy sqlite store, one table at a time.
type Reader struct {
	DB *sql.DB
}

func OpenLegacy(path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "legacy store %s", path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open legacy store")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "open legacy store")
	}
	return &Reader{DB: db}, nil
}

func (r *Reader) Close() error {
	return r.DB.Close()
}

// ReadTable returns every row of the table in storage order. Any failure here
// is a source read fault and fatal for the run.
func (r *Reader) ReadTable(ctx context.Context, table string) ([]Row, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, errors.Wrapf(err, "read table %s", table)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrapf(err, "read table %s", table)
	}

	out := []Row{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrapf(err, "read table %s", table)
		}

		row := Row{}
		for i, col := range columns {
			// The sqlite driver hands TEXT back as []byte.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "read table %s", table)
	}
	return out, nil
}
