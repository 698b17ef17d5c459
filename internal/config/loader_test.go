package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.Tables.StagingCompletions, convey.ShouldEqual, "tmp_Tracorp_Daily")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TRACORP_LOG_LEVEL", "debug")
			_ = os.Setenv("TRACORP_WAREHOUSE__DSN", "/data/wh.db")
			_ = os.Setenv("TRACORP_TABLES__LEDGER", "MasterCompletionsV2")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Warehouse.DSN, convey.ShouldEqual, "/data/wh.db")
				convey.So(cfg.Tables.Ledger, convey.ShouldEqual, "MasterCompletionsV2")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			clearConfigEnvVars()
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			yamlBody := `log_level: warn
warehouse:
  dsn: /srv/warehouse.db
completions:
  recency_days: 30
active_activities:
  - LAW1000
  - MGT1000
`
			convey.So(os.WriteFile(path, []byte(yamlBody), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("TRACORP_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
				convey.So(cfg.Warehouse.DSN, convey.ShouldEqual, "/srv/warehouse.db")
				convey.So(cfg.Completions.RecencyDays, convey.ShouldEqual, 30)
				convey.So(cfg.ActiveActivities, convey.ShouldResemble, []string{"LAW1000", "MGT1000"})
			})
		})

		convey.Convey("When a table name fails the identifier allow-list", func() {
			_ = os.Setenv("TRACORP_TABLES__LEDGER", "[eric].[dbo].[MasterCompletions]")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading should fail fast", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the warehouse DSN is cleared", func() {
			_ = os.Setenv("TRACORP_WAREHOUSE__DSN", "")
			defer clearConfigEnvVars()

			// An empty env value still overrides the default.
			cfg, err := config.Load(ctx)

			convey.Convey("Then loading should fail fast", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"TRACORP_CONFIG",
		"TRACORP_LOG_LEVEL",
		"TRACORP_WAREHOUSE__DSN",
		"TRACORP_TABLES__LEDGER",
	} {
		_ = os.Unsetenv(key)
	}
}
