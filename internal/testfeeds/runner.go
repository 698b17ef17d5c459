package testfeeds

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/adapters/feed"
	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"
)

// Output file names; the completion feed name matches the production default.
const (
	reportCSVName  = "AllAdoaCompletions.csv"
	reportXLSXName = "AllAdoaCompletions.xlsx"
	completionName = "TracorpCompletions.csv"
)

// Run generates both feeds under cfg.Dir.
func Run(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	log := logger.Get()
	gen := NewGenerator(cfg)

	reportPath := filepath.Join(cfg.Dir, reportCSVName)
	reportRows := gen.ReportRows()
	if cfg.Workbook {
		reportPath = filepath.Join(cfg.Dir, reportXLSXName)
		if err := writeWorkbook(reportPath, reportHeader, reportRows); err != nil {
			return err
		}
	} else {
		if err := feed.WriteDelimited(reportPath, ',', reportHeader, reportRows); err != nil {
			return err
		}
	}
	log.Info(ctx, "report feed written",
		logger.String("path", reportPath),
		logger.Int("rows", len(reportRows)))

	completionPath := filepath.Join(cfg.Dir, completionName)
	completionRows := gen.CompletionRows()
	if err := feed.WriteDelimited(completionPath, ',', completionsHeader, completionRows); err != nil {
		return err
	}
	log.Info(ctx, "completion feed written",
		logger.String("path", completionPath),
		logger.Int("rows", len(completionRows)))
	return nil
}

func writeWorkbook(path string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	cells := make([]any, len(header))
	for i, v := range header {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, "A1", &cells); err != nil {
		return fmt.Errorf("write workbook header: %w", err)
	}
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		name, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, name, &cells); err != nil {
			return fmt.Errorf("write workbook row %d: %w", i, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
