// Command test-feeds writes sample feed files for local end-to-end runs.
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/config"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/testfeeds"
	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"
)

func main() {
	var (
		dir        = flag.String("dir", "testdata", "Output directory for generated feeds")
		reportRows = flag.Int("report-rows", testfeeds.DefaultReportRows, "Spreadsheet feed row count")
		compRows   = flag.Int("completion-rows", testfeeds.DefaultCompletionRows, "Completion feed row count")
		dupRatio   = flag.Float64("duplicates", testfeeds.DefaultDuplicateRatio, "Fraction of duplicated rows")
		unknown    = flag.Float64("unknown", testfeeds.DefaultUnknownRatio, "Fraction of out-of-scope activity codes")
		blank      = flag.Float64("blank", testfeeds.DefaultBlankRatio, "Fraction of completion rows without an email")
		workbook   = flag.Bool("workbook", false, "Write the spreadsheet feed as .xlsx instead of CSV")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible output")
		activities = flag.String("activities", "", "Comma-separated active codes (default: production set)")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	codes := config.New().ActiveActivities
	if *activities != "" {
		codes = strings.Split(*activities, ",")
	}

	cfg := &testfeeds.Config{
		Dir:            *dir,
		ReportRows:     *reportRows,
		CompletionRows: *compRows,
		DuplicateRatio: *dupRatio,
		UnknownRatio:   *unknown,
		BlankRatio:     *blank,
		Workbook:       *workbook,
		Seed:           *seed,
		Activities:     codes,
	}
	if err := testfeeds.Run(context.Background(), cfg); err != nil {
		os.Stderr.WriteString("feed generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
