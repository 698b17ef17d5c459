package config_test

import (
	"testing"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Warehouse.Driver, convey.ShouldEqual, "sqlite3")
			convey.So(cfg.Tables.Ledger, convey.ShouldEqual, "MasterCompletions")
			convey.So(cfg.Completions.Format, convey.ShouldEqual, "delimited")
			convey.So(cfg.Completions.RecencyDays, convey.ShouldEqual, 21)
			convey.So(cfg.Report.Format, convey.ShouldEqual, "workbook")
			convey.So(cfg.Report.RecencyDays, convey.ShouldEqual, 0)
			convey.So(cfg.ActiveActivities, convey.ShouldContain, "LAW1000")
			convey.So(cfg.Output.Delimiter, convey.ShouldEqual, ",")
		})

		convey.Convey("Then both feeds should carry a completed-status filter", func() {
			convey.So(cfg.Report.StatusColumn, convey.ShouldEqual, "Status")
			convey.So(cfg.Report.CompletedCode, convey.ShouldEqual, "4")
			convey.So(cfg.Completions.CompletedCode, convey.ShouldEqual, "4")
		})
	})
}

func TestValidateIdentifier(t *testing.T) {
	convey.Convey("Given the SQL identifier allow-list", t, func() {
		convey.Convey("Then plain identifiers pass", func() {
			for _, ok := range []string{"MasterCompletions", "tmp_Tracorp_Daily", "_x", "EIN"} {
				convey.So(config.ValidateIdentifier(ok), convey.ShouldBeNil)
			}
		})

		convey.Convey("Then anything else is rejected", func() {
			for _, bad := range []string{"", "1table", "a.b", "drop table;--", "[eric].[dbo].[t]", "a b"} {
				convey.So(config.ValidateIdentifier(bad), convey.ShouldNotBeNil)
			}
		})
	})
}
