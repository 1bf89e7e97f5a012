package transfer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultReportPath is where the run artifact lands unless overridden.
const DefaultReportPath = "logs/transfer_report.md"

type Options struct {
	DryRun     bool
	Verbose    bool
	ReportPath string
}

// Engine moves the legacy store into the destination, one table at a time in
// dependency order. Row-level problems are recorded and the run continues;
// source read faults and destination connectivity faults abort it.
type Engine struct {
	src  *Reader
	dst  Writer
	opts Options
}

func NewEngine(src *Reader, dst Writer, opts Options) *Engine {
	if opts.ReportPath == "" {
		opts.ReportPath = DefaultReportPath
	}
	return &Engine{src: src, dst: dst, opts: opts}
}

// Run processes every table and writes the report artifact exactly once,
// also when a fatal fault stops the run early (the report is then partial).
// The returned error is nil whenever the run completed, even with warnings
// and rejections.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		Source:  "legacy store",
		DryRun:  e.opts.DryRun,
		Started: time.Now(),
	}

	runErr := e.runTables(ctx, report)
	report.Duration = time.Since(report.Started)
	report.Partial = runErr != nil

	if err := report.WriteFile(e.opts.ReportPath); err != nil {
		log.Errorf("Failed to write transfer report: %v", err)
		if runErr == nil {
			runErr = errors.Wrap(err, "write report")
		}
	} else {
		log.Infof("Transfer report written to %s", e.opts.ReportPath)
	}
	return report, runErr
}

func (e *Engine) runTables(ctx context.Context, report *Report) error {
	// transferred primary keys per table, for foreign-key presence checks
	seen := map[string]map[string]struct{}{}

	for _, table := range TableOrder {
		rows, err := e.src.ReadTable(ctx, table)
		if err != nil {
			return errors.Wrap(err, "source read fault")
		}
		if e.opts.Verbose {
			log.Debugf("Fetched %d rows from %s", len(rows), table)
		}

		records := e.mapRows(ctx, table, rows)
		seen[table] = make(map[string]struct{}, len(records))

		result := TableResult{Table: table}
		for _, rec := range records {
			if rec.Status == StatusRejected {
				result.Rejected++
				if e.opts.Verbose {
					log.Warnf("%s: row rejected: %v", table, rec.Notes)
				}
				continue
			}

			// A foreign key pointing at a row that never made it across is a
			// warning; the row is still attempted and the destination decides.
			warned := rec.Status == StatusWarned
			for col, ref := range tableSpecs[table].foreignKeys {
				v := rec.value(col)
				if v == nil {
					continue
				}
				if _, ok := seen[ref][keyString(v)]; !ok {
					rec.Notes = append(rec.Notes,
						fmt.Sprintf("missing foreign key %s=%v in %s", col, v, ref))
					warned = true
				}
			}
			if warned {
				result.Warned++
			}
			if e.opts.Verbose && len(rec.Notes) > 0 {
				log.Warnf("%s: row %v: %v", table, rec.Key, rec.Notes)
			}

			if e.opts.DryRun {
				seen[table][keyString(rec.Key)] = struct{}{}
				continue
			}
			if err := e.dst.Insert(ctx, table, rec.Columns, rec.Values); err != nil {
				if IsConstraintViolation(err) {
					result.Rejected++
					if e.opts.Verbose {
						log.Warnf("%s: row %v rejected by destination: %v", table, rec.Key, err)
					}
					continue
				}
				report.Tables = append(report.Tables, result)
				return errors.Wrapf(err, "destination write fault on %s", table)
			}
			result.Inserted++
			seen[table][keyString(rec.Key)] = struct{}{}
		}

		report.Tables = append(report.Tables, result)
		log.Infof("%s: inserted=%d warned=%d rejected=%d",
			table, result.Inserted, result.Warned, result.Rejected)
	}
	return nil
}

func keyString(v interface{}) string {
	return fmt.Sprint(v)
}

// mapRows maps a table's rows concurrently. Mapping is pure and
// order-independent, so it can fan out; results come back in source order so
// inserts keep the intended chronology.
func (e *Engine) mapRows(ctx context.Context, table string, rows []Row) []Record {
	now := time.Now().UTC()
	records := make([]Record, len(rows))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range rows {
		g.Go(func() error {
			records[i] = Map(table, rows[i], now)
			return nil
		})
	}
	_ = g.Wait()
	return records
}
