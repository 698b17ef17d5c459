// Command tracorp-completions runs one reconciliation of the training-record
// feeds against the master completions ledger. It is meant to be invoked by
// a scheduler; the exit code reports the run outcome.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/adapters/notify"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/adapters/repository"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/adapters/transfer"
	app "github.com/efitzgerald-adot/tracorp-activity-completions/internal/app"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/config"
	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"
)

const logName = "tracorp_completions"

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return err
	}

	logPath, err := logger.InitWithFile(cfg.LogDir, logName)
	if err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	warehouse, err := repository.Connect(ctx, cfg.Warehouse.Driver, cfg.Warehouse.DSN)
	if err != nil {
		log.Error(ctx, "warehouse unavailable", logger.Error(err))
		return err
	}
	directory, err := repository.Connect(ctx, cfg.Directory.Driver, cfg.Directory.DSN)
	if err != nil {
		_ = warehouse.Close()
		log.Error(ctx, "directory unavailable", logger.Error(err))
		return err
	}
	store := repository.New(warehouse, directory,
		repository.WithLogger(log),
		repository.WithRoster(repository.RosterRef{
			Table:       cfg.Roster.Table,
			IDColumn:    cfg.Roster.IDColumn,
			EmailColumn: cfg.Roster.EmailColumn,
		}),
	)
	defer func() {
		_ = store.Close()
	}()

	opts := []app.Option{
		app.WithStore(store),
		app.WithLogger(log),
		app.WithLogPath(logPath),
	}
	if !cfg.SkipTransfer {
		report := transfer.New(cfg.ReportSFTP.Host, cfg.ReportSFTP.Port,
			cfg.ReportSFTP.Username, cfg.ReportSFTP.KeyPath,
			transfer.WithLogger(log))
		lms := transfer.New(cfg.LMSSFTP.Host, cfg.LMSSFTP.Port,
			cfg.LMSSFTP.Username, cfg.LMSSFTP.KeyPath,
			transfer.WithLogger(log))
		opts = append(opts, app.WithTransfer(report, lms))
	}
	if !cfg.SkipNotify {
		opts = append(opts, app.WithNotifier(notify.New(
			cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.To,
			notify.WithLogger(log))))
	}

	svc := app.New(cfg, opts...)
	if err := svc.Run(ctx); err != nil {
		log.Error(ctx, "run failed", logger.Error(err))
		return err
	}
	return nil
}
