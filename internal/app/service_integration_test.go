package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/config"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/record"
)

func writeWorkbookFeed(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []any{"Activity Code", "Completion Date", "Score", "Student ID", "Status"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("set header: %v", err)
	}
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func TestServiceIntegration_WorkbookFeed(t *testing.T) {
	ctx := context.Background()

	Convey("Given a spreadsheet feed in workbook form", t, func() {
		h := newHarness(t)
		h.cfg.Report.Format = config.FormatWorkbook
		h.cfg.Report.Path = strings.TrimSuffix(h.cfg.Report.Path, ".csv") + ".xlsx"
		writeWorkbookFeed(t, h.cfg.Report.Path, [][]string{
			{"LAW1000", "2024-03-01", "95", "jane.doe@ex.com", "4"},
		})
		h.writeCompletionsFeed(t, [][]string{
			{"HIPAA01", recentDate(2), "90", "amy@ex.com", "111", "4"},
		})

		Convey("When the service runs", func() {
			So(h.svc.Run(ctx), ShouldBeNil)

			Convey("Then both feeds reach the ledger", func() {
				n, err := h.store.Count(ctx, h.cfg.Tables.Ledger)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})

			Convey("Then the delivered file carries the import format", func() {
				matches, err := filepath.Glob(filepath.Join(h.cfg.ArchiveDir, "*", h.cfg.Output.TxtName))
				So(err, ShouldBeNil)
				So(len(matches), ShouldEqual, 1)

				raw, err := os.ReadFile(matches[0])
				So(err, ShouldBeNil)
				text := string(raw)

				// Only the completion feed produces output rows; the
				// spreadsheet branch stops at the ledger.
				wantDate := time.Now().AddDate(0, 0, -2).Format(record.OutputDateLayout) + " " + record.OutputTimeOfDay
				So(text, ShouldContainSubstring, "amy@ex.com HIPAA01")
				So(text, ShouldContainSubstring, wantDate)
				So(text, ShouldContainSubstring, record.OutputTimezone)
				So(text, ShouldNotContainSubstring, "jane.doe@ex.com")
			})
		})
	})
}
