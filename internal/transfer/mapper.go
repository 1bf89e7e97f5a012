package transfer

import (
	"fmt"
	"sort"
	"time"
)

type Status int

const (
	StatusValid Status = iota
	StatusWarned
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusWarned:
		return "warned"
	case StatusRejected:
		return "rejected"
	}
	return "unknown"
}

// Record is one mapped source row ready for the insert step. A rejected
// record never reaches the writer.
type Record struct {
	Table   string
	Key     interface{}
	Columns []string
	Values  []interface{}
	Status  Status
	Notes   []string
}

// Map converts a legacy row into its destination shape. Pure: no I/O, no
// shared state. now is the mapping time used for defaulted audit columns.
func Map(table string, source Row, now time.Time) Record {
	spec, known := tableSpecs[table]
	if !known {
		return Record{
			Table:  table,
			Status: StatusRejected,
			Notes:  []string{"unknown table"},
		}
	}

	rec := Record{Table: table, Status: StatusValid}

	values := map[string]interface{}{}
	for col, v := range source {
		if renamed, ok := columnRenames[col]; ok {
			col = renamed
		}
		values[col] = coerceValue(col, v)
	}

	// Primary key first: without it the row cannot be addressed at all.
	for _, pk := range spec.primaryKey {
		v, ok := values[pk]
		if !ok || v == nil {
			rec.Status = StatusRejected
			rec.Notes = append(rec.Notes, "missing primary key "+pk)
			return rec
		}
		rec.Key = v
	}

	for _, col := range spec.required {
		if v, ok := values[col]; !ok || v == nil {
			rec.warn("null in required column " + col)
		}
	}

	for col := range spec.foreignKeys {
		v, ok := values[col]
		if !ok || v == nil {
			continue
		}
		if id, ok := asInt64(v); !ok || id <= 0 {
			rec.warn(fmt.Sprintf("implausible foreign key %s=%v", col, v))
		}
	}

	if !spec.noAudit {
		if values["created_at"] == nil {
			values["created_at"] = now
		}
		if values["updated_at"] == nil {
			values["updated_at"] = values["created_at"]
		}
	}

	// Deterministic column order keeps inserts stable across runs.
	rec.Columns = make([]string, 0, len(values))
	for col := range values {
		rec.Columns = append(rec.Columns, col)
	}
	sort.Strings(rec.Columns)
	rec.Values = make([]interface{}, len(rec.Columns))
	for i, col := range rec.Columns {
		rec.Values[i] = values[col]
	}
	return rec
}

// value returns the mapped value for col, nil when the column is absent or
// holds a null.
func (r Record) value(col string) interface{} {
	for i, c := range r.Columns {
		if c == col {
			return r.Values[i]
		}
	}
	return nil
}

func (r *Record) warn(note string) {
	if r.Status == StatusValid {
		r.Status = StatusWarned
	}
	r.Notes = append(r.Notes, note)
}

// coerceValue applies type coercions the destination expects: integer epochs
// in timestamp-shaped columns become UTC timestamps.
func coerceValue(col string, v interface{}) interface{} {
	if v == nil {
		return nil
	}
	switch col {
	case "created_at", "updated_at", "changed_at", "work_started_at":
		if epoch, ok := asInt64(v); ok {
			return time.Unix(epoch, 0).UTC()
		}
	}
	return v
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
