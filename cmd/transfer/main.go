package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skladhub/sklad-backend/internal/transfer"
)

var (
	dryRun     bool
	verbose    bool
	reportPath string
)

var rootCmd = &cobra.Command{
	Use:   "transfer <sqlite-path> <postgres-dsn>",
	Short: "Migrate data from the legacy sqlite store into Postgres",
	Long: `Moves every table of the legacy embedded database into the destination
Postgres in foreign-key dependency order. Row-level problems (nulls in
required columns, implausible foreign keys, rows the destination rejects)
are recorded in the report and the run continues; source or destination
I/O faults abort the run.

Rows are plain inserts: re-running against a populated destination
duplicates data unless the destination's uniqueness constraints reject it.`,
	Args: cobra.ExactArgs(2),
	RunE: runTransfer,
	// errors are logged below with the run context attached
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "read, map and validate everything but issue no writes")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "log every per-row warning and rejection")
	rootCmd.Flags().StringVar(&reportPath, "report", transfer.DefaultReportPath, "where to write the run report")
}

func runTransfer(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	src, err := transfer.OpenLegacy(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	var dst transfer.Writer
	if !dryRun {
		pg, err := transfer.OpenDestination(args[1])
		if err != nil {
			return err
		}
		defer pg.Close()
		dst = pg
	}

	engine := transfer.NewEngine(src, dst, transfer.Options{
		DryRun:     dryRun,
		Verbose:    verbose,
		ReportPath: reportPath,
	})
	report, err := engine.Run(context.Background())
	if err != nil {
		return err
	}

	for _, t := range report.Tables {
		log.Debugf("%s: inserted=%d warned=%d rejected=%d",
			t.Table, t.Inserted, t.Warned, t.Rejected)
	}
	log.Infof("Transfer completed in %s", report.Duration.Round(time.Millisecond))
	return nil
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
