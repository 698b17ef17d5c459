// Package service orchestrates one reconciliation run: pull the feeds,
// normalize and stage them, append the novel completions to the master
// ledger, and deliver the LMS import file.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/adapters/feed"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/adapters/notify"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/adapters/repository"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/config"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/format"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/normalize"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/record"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/scope"
	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"
	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/metrics"
)

const archiveStampLayout = "20060102150405"

// FileTransfer moves files between this host and a remote endpoint.
type FileTransfer interface {
	Download(ctx context.Context, remotePath, localDir string) (string, error)
	Upload(ctx context.Context, localPath, remoteDir string) (string, error)
}

// Notifier delivers the end-of-run summary.
type Notifier interface {
	Send(ctx context.Context, s notify.Summary, attachments []string) error
}

// Service runs the reconciliation pipeline. It is sequential and not safe
// for concurrent runs against one ledger; the scheduler serializes runs.
type Service struct {
	cfg   *config.Config
	store repository.Store

	reportXfer FileTransfer
	lmsXfer    FileTransfer
	notifier   Notifier

	log     logger.Logger
	logPath string
	now     func() time.Time
}

// New creates a Service for the given configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one reconciliation run end to end. The summary notification
// and temp cleanup happen regardless of outcome; the first fatal error is
// returned for the exit code.
func (s *Service) Run(ctx context.Context) error {
	if s.store == nil {
		return ErrNotConfigured
	}

	start := s.now()
	runID := uuid.NewString()[:8]
	s.info(ctx, "run starting", logger.String("run_id", runID))

	if err := os.MkdirAll(s.cfg.TempDir, 0o750); err != nil {
		return fmt.Errorf("%w: temp dir: %w", ErrRunFailed, err)
	}

	var (
		steps     []string
		artifacts []string
	)
	runErr := s.pipeline(ctx, &steps, &artifacts)

	s.archive(ctx, artifacts)
	s.notify(ctx, notify.Summary{
		RunID:    runID,
		Started:  start,
		Finished: s.now(),
		Success:  runErr == nil,
		Steps:    steps,
		Err:      runErr,
	}, artifacts)
	s.clearTemp(ctx)

	metrics.RecordRunDuration(s.now().Sub(start))
	if runErr != nil {
		metrics.RecordRunOutcome("failure")
		s.info(ctx, "run failed",
			logger.String("run_id", runID),
			logger.Error(runErr))
		return runErr
	}
	metrics.RecordRunOutcome("success")
	s.logSnapshot(ctx)
	s.info(ctx, "run complete", logger.String("run_id", runID))
	return nil
}

// pipeline runs both feed branches. A schema problem in one file abandons
// that branch and lets the other proceed; anything touching the warehouse or
// the network ends the run.
func (s *Service) pipeline(ctx context.Context, steps *[]string, artifacts *[]string) error {
	if err := s.store.EnsureSchema(ctx,
		s.cfg.Tables.StagingReport,
		s.cfg.Tables.StagingCompletions,
		s.cfg.Tables.Ledger,
	); err != nil {
		return err
	}

	var firstErr error
	if err := s.runReportBranch(ctx, steps, artifacts); err != nil {
		metrics.RecordStepError("report")
		if fatal(err) {
			return err
		}
		s.warn(ctx, "spreadsheet branch abandoned", logger.Error(err))
		*steps = append(*steps, fmt.Sprintf("spreadsheet feed: abandoned (%v)", err))
		firstErr = err
	}
	if err := s.runCompletionsBranch(ctx, steps, artifacts); err != nil {
		metrics.RecordStepError("completions")
		if fatal(err) {
			return err
		}
		s.warn(ctx, "completion branch abandoned", logger.Error(err))
		*steps = append(*steps, fmt.Sprintf("completion feed: abandoned (%v)", err))
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// fatal reports whether an error must end the run. Bad file shape only costs
// its own branch.
func fatal(err error) bool {
	return !errors.Is(err, normalize.ErrMissingColumn) && !errors.Is(err, feed.ErrReadFeed)
}

// runReportBranch reconciles the spreadsheet feed against the ledger.
func (s *Service) runReportBranch(ctx context.Context, steps *[]string, artifacts *[]string) error {
	src := s.cfg.Report
	localPath, err := s.fetch(ctx, s.reportXfer, src.Path)
	if err != nil {
		return err
	}
	*artifacts = append(*artifacts, localPath)

	table, err := s.readFeed(src, localPath)
	if err != nil {
		return err
	}
	metrics.RecordRowsRead(src.Name, len(table.Rows))

	res, err := s.normalize(ctx, src, table)
	if err != nil {
		return err
	}

	appended, err := s.reconcile(ctx, s.cfg.Tables.StagingReport, res.Records)
	if err != nil {
		return err
	}
	metrics.RecordRowsAccepted(src.Name, len(appended))
	*steps = append(*steps, fmt.Sprintf(
		"spreadsheet feed: %d rows read, %d appended", len(table.Rows), len(appended)))
	return nil
}

// runCompletionsBranch reconciles the delimited completion feed, then
// produces and delivers the LMS import file.
func (s *Service) runCompletionsBranch(ctx context.Context, steps *[]string, artifacts *[]string) error {
	src := s.cfg.Completions
	localPath, err := s.fetch(ctx, s.lmsXfer, src.Path)
	if err != nil {
		return err
	}
	*artifacts = append(*artifacts, localPath)

	table, err := s.readFeed(src, localPath)
	if err != nil {
		return err
	}
	metrics.RecordRowsRead(src.Name, len(table.Rows))

	res, err := s.normalize(ctx, src, table)
	if err != nil {
		return err
	}

	active := scope.New(s.cfg.ActiveActivities)
	inScope := active.Apply(ctx, res.Records)
	metrics.RecordRowsInScope(src.Name, len(inScope))
	s.info(ctx, "scope filter applied",
		logger.String("source", src.Name),
		logger.Int("in", len(res.Records)),
		logger.Int("out", len(inScope)))

	staging := s.cfg.Tables.StagingCompletions
	if _, err := s.store.InsertBatch(ctx, staging, repository.RoleStaging, inScope); err != nil {
		return err
	}

	resolved, missed, err := s.store.ResolveIdentities(ctx, staging)
	if err != nil {
		return err
	}
	metrics.RecordIdentitiesResolved(resolved)
	metrics.RecordResolutionMisses(missed)
	s.info(ctx, "identities resolved",
		logger.Int("resolved", resolved),
		logger.Int("missed", missed))

	appended, err := s.appendNovel(ctx, staging)
	if err != nil {
		return err
	}
	metrics.RecordRowsAccepted(src.Name, len(appended))

	txtPath, outArtifacts, err := s.writeOutput(ctx, appended)
	if err != nil {
		return err
	}
	*artifacts = append(*artifacts, outArtifacts...)

	if !s.cfg.SkipTransfer {
		remote, err := s.lmsXfer.Upload(ctx, txtPath, s.cfg.LMSSFTP.UploadDir)
		if err != nil {
			return err
		}
		s.info(ctx, "output delivered", logger.String("remote", remote))
	}

	*steps = append(*steps, fmt.Sprintf(
		"completion feed: %d rows read, %d in scope, %d appended, %d identities resolved",
		len(table.Rows), len(inScope), len(appended), resolved))
	return nil
}

// reconcile stages a batch and appends its novel rows to the ledger.
func (s *Service) reconcile(ctx context.Context, staging string, batch []record.Completion) ([]record.Completion, error) {
	if _, err := s.store.InsertBatch(ctx, staging, repository.RoleStaging, batch); err != nil {
		return nil, err
	}
	return s.appendNovel(ctx, staging)
}

// appendNovel moves staged rows absent from the ledger into the ledger.
func (s *Service) appendNovel(ctx context.Context, staging string) ([]record.Completion, error) {
	novel, err := s.store.DistinctAgainstLedger(ctx, staging, s.cfg.Tables.Ledger)
	if err != nil {
		return nil, err
	}
	n, err := s.store.InsertBatch(ctx, s.cfg.Tables.Ledger, repository.RoleLedger, novel)
	if err != nil {
		return nil, err
	}
	metrics.RecordRowsInserted(s.cfg.Tables.Ledger, n)
	s.info(ctx, "ledger appended",
		logger.String("staging", staging),
		logger.Int("appended", n))
	return novel, nil
}

// fetch returns a local path for a feed: the configured path as-is in local
// mode, otherwise a fresh download into the temp dir.
func (s *Service) fetch(ctx context.Context, xfer FileTransfer, remotePath string) (string, error) {
	if s.cfg.SkipTransfer {
		return remotePath, nil
	}
	if xfer == nil {
		return "", fmt.Errorf("%w: no transfer endpoint for %s", ErrNotConfigured, remotePath)
	}
	return xfer.Download(ctx, remotePath, s.cfg.TempDir)
}

func (s *Service) readFeed(src config.Source, path string) (normalize.Table, error) {
	if src.Format == config.FormatWorkbook {
		return feed.ReadWorkbook(path)
	}
	return feed.ReadDelimited(path, rune(src.Delimiter[0]))
}

func (s *Service) normalize(ctx context.Context, src config.Source, table normalize.Table) (normalize.Result, error) {
	n := normalize.New(mappingFor(src), normalize.WithLogger(s.log))
	res, err := n.Normalize(ctx, table)
	if err != nil {
		return res, err
	}
	for reason, count := range res.Dropped {
		metrics.RecordRowsDropped(src.Name, reason, count)
	}
	return res, nil
}

// writeOutput renders the accepted batch as the LMS import file: a CSV kept
// as an artifact plus a whitespace-joined TXT for delivery.
func (s *Service) writeOutput(ctx context.Context, batch []record.Completion) (string, []string, error) {
	out := s.cfg.Output
	comma := rune(out.Delimiter[0])

	rows := make([][]string, 0, len(batch))
	for _, c := range batch {
		rows = append(rows, formatRow(c))
	}

	csvPath := filepath.Join(s.cfg.TempDir, out.CSVName)
	if err := feed.WriteDelimited(csvPath, comma, record.OutputColumns, rows); err != nil {
		return "", nil, err
	}
	tmpPath := filepath.Join(s.cfg.TempDir, out.TmpName)
	if err := feed.WriteDelimited(tmpPath, comma, record.OutputColumns, rows); err != nil {
		return "", nil, err
	}

	txtPath := filepath.Join(s.cfg.TempDir, out.TxtName)
	if err := feed.ConvertToText(tmpPath, txtPath, comma); err != nil {
		return "", nil, err
	}
	s.info(ctx, "output written",
		logger.String("csv", csvPath),
		logger.String("txt", txtPath),
		logger.Int("rows", len(rows)))
	return txtPath, []string{csvPath, txtPath}, nil
}

// archive copies run artifacts under a timestamped directory. Best effort;
// a failed copy is logged and skipped.
func (s *Service) archive(ctx context.Context, artifacts []string) {
	if s.cfg.ArchiveDir == "" || len(artifacts) == 0 {
		return
	}
	dir := filepath.Join(s.cfg.ArchiveDir, s.now().Format(archiveStampLayout))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		s.warn(ctx, "archive dir not created", logger.Error(err))
		return
	}
	for _, src := range artifacts {
		dst := filepath.Join(dir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			s.warn(ctx, "artifact not archived",
				logger.String("path", src),
				logger.Error(err))
			continue
		}
	}
	s.info(ctx, "artifacts archived",
		logger.String("dir", dir),
		logger.Int("count", len(artifacts)))
}

func (s *Service) notify(ctx context.Context, summary notify.Summary, artifacts []string) {
	if s.cfg.SkipNotify || s.notifier == nil {
		return
	}
	attachments := artifacts
	if s.logPath != "" {
		attachments = append([]string{s.logPath}, artifacts...)
	}
	if err := s.notifier.Send(ctx, summary, attachments); err != nil {
		metrics.RecordStepError("notify")
		s.warn(ctx, "notification failed", logger.Error(err))
	}
}

func (s *Service) clearTemp(ctx context.Context) {
	entries, err := os.ReadDir(s.cfg.TempDir)
	if err != nil {
		s.warn(ctx, "temp dir not cleared", logger.Error(err))
		return
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.cfg.TempDir, e.Name())); err != nil {
			s.warn(ctx, "temp file not removed",
				logger.String("name", e.Name()),
				logger.Error(err))
		}
	}
}

func (s *Service) logSnapshot(ctx context.Context) {
	lines, err := metrics.Snapshot()
	if err != nil {
		s.warn(ctx, "metrics snapshot failed", logger.Error(err))
		return
	}
	for _, line := range lines {
		s.debug(ctx, "metric", logger.String("value", line))
	}
}

func formatRow(c record.Completion) []string {
	return format.Row(c).Values()
}

// mappingFor translates a feed's configuration into the normalizer's
// declarative column mapping.
func mappingFor(src config.Source) normalize.Mapping {
	return normalize.Mapping{
		Source:            src.Name,
		StatusColumn:      src.StatusColumn,
		CompletedCode:     src.CompletedCode,
		ActivityColumns:   src.ActivityColumns,
		DateColumns:       src.DateColumns,
		ScoreColumn:       src.ScoreColumn,
		EmailColumns:      src.EmailColumns,
		RawIdentityColumn: src.RawIdentityColumn,
		EmployeeIDColumn:  src.EmployeeIDColumn,
		RecencyDays:       src.RecencyDays,
	}
}

func (s *Service) info(ctx context.Context, msg string, fields ...logger.Field) {
	if s.log != nil {
		s.log.Info(ctx, msg, fields...)
	}
}

func (s *Service) warn(ctx context.Context, msg string, fields ...logger.Field) {
	if s.log != nil {
		s.log.Warn(ctx, msg, fields...)
	}
}

func (s *Service) debug(ctx context.Context, msg string, fields ...logger.Field) {
	if s.log != nil {
		s.log.Debug(ctx, msg, fields...)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // read-only handle

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
