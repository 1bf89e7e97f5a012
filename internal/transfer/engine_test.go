package transfer

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The test legacy store mirrors the embedded schema: no constraints, no audit
// columns.
var legacySchema = []string{
	`CREATE TABLE part_categories (id INTEGER, name TEXT)`,
	`CREATE TABLE part_analog_groups (id INTEGER, name TEXT)`,
	`CREATE TABLE parts (id INTEGER, name TEXT, sku TEXT, qty INTEGER, min_qty INTEGER, price REAL, category_id INTEGER, analog_group_id INTEGER)`,
	`CREATE TABLE equipment_categories (id INTEGER, name TEXT)`,
	`CREATE TABLE equipment (id INTEGER, name TEXT, sku TEXT, category_id INTEGER, parent_id INTEGER, comment TEXT)`,
	`CREATE TABLE equipment_parts (id INTEGER, equipment_id INTEGER, part_id INTEGER, installed_qty INTEGER)`,
	`CREATE TABLE counterparties (id INTEGER, name TEXT)`,
	`CREATE TABLE counterparty_addresses (id INTEGER, counterparty_id INTEGER, address TEXT, is_default INTEGER)`,
	`CREATE TABLE orders (id INTEGER, counterparty_id INTEGER, invoice_no TEXT, invoice_date TEXT, delivery_date TEXT, status TEXT)`,
	`CREATE TABLE order_items (id INTEGER, order_id INTEGER, part_id INTEGER, name TEXT, qty INTEGER, price REAL)`,
	`CREATE TABLE replacements (id INTEGER, date TEXT, equipment_id INTEGER, part_id INTEGER, qty INTEGER)`,
	`CREATE TABLE colleagues (id INTEGER, name TEXT)`,
	`CREATE TABLE tasks (id INTEGER, title TEXT, priority TEXT, status TEXT, created_at INTEGER)`,
	`CREATE TABLE task_parts (id INTEGER, task_id INTEGER, equipment_part_id INTEGER, part_id INTEGER, qty INTEGER)`,
	`CREATE TABLE knife_tracking (part_id INTEGER, status TEXT, total_sharpenings INTEGER)`,
	`CREATE TABLE knife_status_log (id INTEGER, part_id INTEGER, changed_at INTEGER, to_status TEXT)`,
	`CREATE TABLE knife_sharpen_log (id INTEGER, part_id INTEGER, date TEXT)`,
	`CREATE TABLE periodic_tasks (id INTEGER, title TEXT, period_days INTEGER)`,
	`CREATE TABLE app_settings (key TEXT, value TEXT)`,
}

func newLegacyStore(t *testing.T, schema []string, seed ...string) *Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	for _, stmt := range append(schema, seed...) {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	src, err := OpenLegacy(path)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func newDestination(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "dest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema := []string{
		`CREATE TABLE part_categories (id INTEGER PRIMARY KEY, name TEXT, created_at TIMESTAMP, updated_at TIMESTAMP)`,
		`CREATE TABLE part_analog_groups (id INTEGER PRIMARY KEY, name TEXT, created_at TIMESTAMP, updated_at TIMESTAMP)`,
		`CREATE TABLE parts (id INTEGER PRIMARY KEY, name TEXT, sku TEXT, qty INTEGER, min_qty INTEGER, price REAL, category_id INTEGER, analog_group_id INTEGER, created_at TIMESTAMP, updated_at TIMESTAMP)`,
		`CREATE TABLE tasks (id INTEGER PRIMARY KEY, title TEXT, priority TEXT, status TEXT, created_at TIMESTAMP, updated_at TIMESTAMP)`,
		`CREATE TABLE app_settings (key TEXT PRIMARY KEY, value TEXT)`,
	}
	for _, stmt := range schema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

// recordingWriter captures every insert without touching a database.
type recordingWriter struct {
	mu      sync.Mutex
	inserts []insertCall
}

type insertCall struct {
	table  string
	values map[string]interface{}
}

func (w *recordingWriter) Insert(_ context.Context, table string, columns []string, values []interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	call := insertCall{table: table, values: map[string]interface{}{}}
	for i, col := range columns {
		call.values[col] = values[i]
	}
	w.inserts = append(w.inserts, call)
	return nil
}

func tableResult(t *testing.T, report *Report, table string) TableResult {
	t.Helper()
	for _, tr := range report.Tables {
		if tr.Table == table {
			return tr
		}
	}
	t.Fatalf("table %s missing from report", table)
	return TableResult{}
}

func TestRunDryRunScenario(t *testing.T) {
	src := newLegacyStore(t, legacySchema,
		`INSERT INTO parts (id, name, sku) VALUES (1, 'bearing', 'B-1')`,
		`INSERT INTO parts (id, name, sku) VALUES (2, NULL, 'B-2')`,
		`INSERT INTO parts (id, name, sku) VALUES (3, 'belt', 'B-3')`,
	)

	reportPath := filepath.Join(t.TempDir(), "report.md")
	engine := NewEngine(src, nil, Options{DryRun: true, ReportPath: reportPath})

	report, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Partial)

	parts := tableResult(t, report, "parts")
	assert.Equal(t, 0, parts.Inserted)
	assert.Equal(t, 1, parts.Warned)
	assert.Equal(t, 0, parts.Rejected)

	raw, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "parts: inserted=0 (dry-run), warned=1, rejected=0")
}

func TestRunInsertsAndPreservesNulls(t *testing.T) {
	src := newLegacyStore(t, legacySchema,
		`INSERT INTO parts (id, name, sku) VALUES (1, 'bearing', 'B-1')`,
		`INSERT INTO parts (id, name, sku) VALUES (2, NULL, 'B-2')`,
		`INSERT INTO parts (id, name, sku) VALUES (3, 'belt', 'B-3')`,
	)
	dest := newDestination(t)

	engine := NewEngine(src, &SQLiteWriter{DB: dest},
		Options{ReportPath: filepath.Join(t.TempDir(), "report.md")})
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	parts := tableResult(t, report, "parts")
	assert.Equal(t, 3, parts.Inserted)
	assert.Equal(t, 1, parts.Warned)
	assert.Equal(t, 0, parts.Rejected)

	var count int
	require.NoError(t, dest.QueryRow(`SELECT count(*) FROM parts`).Scan(&count))
	assert.Equal(t, 3, count)

	var name sql.NullString
	require.NoError(t, dest.QueryRow(`SELECT name FROM parts WHERE id = 2`).Scan(&name))
	assert.False(t, name.Valid)
}

func TestRunRespectsTableOrder(t *testing.T) {
	src := newLegacyStore(t, legacySchema,
		`INSERT INTO part_categories (id, name) VALUES (1, 'bearings')`,
		`INSERT INTO parts (id, name, sku, category_id) VALUES (1, 'bearing', 'B-1', 1)`,
		`INSERT INTO tasks (id, title) VALUES (1, 'replace bearing')`,
	)
	writer := &recordingWriter{}

	engine := NewEngine(src, writer,
		Options{ReportPath: filepath.Join(t.TempDir(), "report.md")})
	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	orderIndex := map[string]int{}
	for i, table := range TableOrder {
		orderIndex[table] = i
	}
	last := -1
	for _, call := range writer.inserts {
		idx := orderIndex[call.table]
		assert.GreaterOrEqual(t, idx, last, "insert into %s out of dependency order", call.table)
		last = idx
	}
	require.Len(t, writer.inserts, 3)
	assert.Equal(t, "part_categories", writer.inserts[0].table)
	assert.Equal(t, "parts", writer.inserts[1].table)
}

func TestMissingForeignKeyTargetWarnsButInserts(t *testing.T) {
	// category 99 never existed in the legacy store, so the parts row points
	// at nothing. That is worth a warning, not a rejection.
	src := newLegacyStore(t, legacySchema,
		`INSERT INTO part_categories (id, name) VALUES (1, 'bearings')`,
		`INSERT INTO parts (id, name, sku, category_id) VALUES (1, 'bearing', 'B-1', 1)`,
		`INSERT INTO parts (id, name, sku, category_id) VALUES (2, 'belt', 'B-2', 99)`,
	)
	dest := newDestination(t)

	engine := NewEngine(src, &SQLiteWriter{DB: dest},
		Options{ReportPath: filepath.Join(t.TempDir(), "report.md")})
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	parts := tableResult(t, report, "parts")
	assert.Equal(t, 2, parts.Inserted)
	assert.Equal(t, 1, parts.Warned)
	assert.Equal(t, 0, parts.Rejected)
}

func TestRejectedRowNeverReachesWriter(t *testing.T) {
	src := newLegacyStore(t, legacySchema,
		`INSERT INTO parts (id, name, sku) VALUES (NULL, 'ghost', 'G-0')`,
		`INSERT INTO parts (id, name, sku) VALUES (1, 'bearing', 'B-1')`,
	)
	writer := &recordingWriter{}

	engine := NewEngine(src, writer,
		Options{ReportPath: filepath.Join(t.TempDir(), "report.md")})
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	parts := tableResult(t, report, "parts")
	assert.Equal(t, 1, parts.Inserted)
	assert.Equal(t, 1, parts.Rejected)

	require.Len(t, writer.inserts, 1)
	assert.EqualValues(t, int64(1), writer.inserts[0].values["id"])
}

func TestDestinationConstraintViolationIsPerRowRejection(t *testing.T) {
	src := newLegacyStore(t, legacySchema,
		`INSERT INTO parts (id, name, sku) VALUES (1, 'bearing', 'B-1')`,
		`INSERT INTO parts (id, name, sku) VALUES (1, 'duplicate', 'B-1b')`,
		`INSERT INTO parts (id, name, sku) VALUES (2, 'belt', 'B-2')`,
	)
	dest := newDestination(t)

	engine := NewEngine(src, &SQLiteWriter{DB: dest},
		Options{ReportPath: filepath.Join(t.TempDir(), "report.md")})
	report, err := engine.Run(context.Background())
	require.NoError(t, err, "constraint violations must not abort the run")

	parts := tableResult(t, report, "parts")
	assert.Equal(t, 2, parts.Inserted)
	assert.Equal(t, 1, parts.Rejected)
}

func TestSourceReadFaultAbortsWithPartialReport(t *testing.T) {
	// Legacy store missing the tasks table: the run must stop there.
	schema := []string{}
	for _, stmt := range legacySchema {
		if stmt == `CREATE TABLE tasks (id INTEGER, title TEXT, priority TEXT, status TEXT, created_at INTEGER)` {
			continue
		}
		schema = append(schema, stmt)
	}
	src := newLegacyStore(t, schema,
		`INSERT INTO part_categories (id, name) VALUES (1, 'bearings')`,
	)

	reportPath := filepath.Join(t.TempDir(), "report.md")
	engine := NewEngine(src, &recordingWriter{}, Options{ReportPath: reportPath})

	report, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.True(t, report.Partial)

	// Tables before the fault are still reported.
	categories := tableResult(t, report, "part_categories")
	assert.Equal(t, 1, categories.Inserted)

	raw, readErr := os.ReadFile(reportPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(raw), "counts are partial")
}

// faultWriter fails every insert with a non-constraint error.
type faultWriter struct{}

func (faultWriter) Insert(context.Context, string, []string, []interface{}) error {
	return errors.New("connection reset by peer")
}

func TestFatalDestinationWriteFaultAborts(t *testing.T) {
	src := newLegacyStore(t, legacySchema,
		`INSERT INTO part_categories (id, name) VALUES (1, 'bearings')`,
	)

	engine := NewEngine(src, faultWriter{},
		Options{ReportPath: filepath.Join(t.TempDir(), "report.md")})
	report, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.True(t, report.Partial)
}
