package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TableResult accumulates per-table counts for one run.
type TableResult struct {
	Table    string
	Inserted int
	Warned   int
	Rejected int
}

// Report is the aggregate result of a whole run. The engine fills it in and
// never touches it again after Run returns.
type Report struct {
	Source   string
	DryRun   bool
	Partial  bool
	Started  time.Time
	Duration time.Duration
	Tables   []TableResult
}

func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("# Transfer Report\n\n")
	fmt.Fprintf(&b, "Source: %s\n", r.Source)
	fmt.Fprintf(&b, "Started: %s\n", r.Started.Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration: %s\n", r.Duration.Round(time.Millisecond))
	if r.DryRun {
		b.WriteString("Mode: dry-run (no writes issued)\n")
	}
	if r.Partial {
		b.WriteString("NOTE: run aborted before completion, counts are partial\n")
	}
	b.WriteString("\nRe-running against a populated destination duplicates rows unless the\ndestination's uniqueness constraints reject them.\n")
	b.WriteString("\n## Table counts\n\n")
	for _, t := range r.Tables {
		if r.DryRun {
			fmt.Fprintf(&b, "- %s: inserted=0 (dry-run), warned=%d, rejected=%d\n",
				t.Table, t.Warned, t.Rejected)
		} else {
			fmt.Fprintf(&b, "- %s: inserted=%d, warned=%d, rejected=%d\n",
				t.Table, t.Inserted, t.Warned, t.Rejected)
		}
	}
	return b.String()
}

func (r *Report) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(r.Render()), 0o644)
}
