package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/record"
	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"
)

// progressSteps controls insert progress logging: one line every 1/20th of
// the batch (5%).
const progressSteps = 20

// rosterIDWidth is the zero-padded width of roster employee ids.
const rosterIDWidth = 9

// identifierPattern is the last-line allow-list for identifiers interpolated
// into SQL. Config validates at load time; the store refuses anything else
// regardless.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RosterRef names the roster table and its columns in the directory database.
type RosterRef struct {
	Table       string
	IDColumn    string
	EmailColumn string
}

// SQLStore implements Store over two database handles: the warehouse
// (staging + ledger) and the employee directory.
type SQLStore struct {
	wh     *sql.DB
	dir    *sql.DB
	roster RosterRef
	log    logger.Logger
}

// Connect opens and pings a database. The pool is capped at one connection:
// the pipeline is sequential and sqlite wants a single writer.
func Connect(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, dsn, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, dsn, err)
	}
	return db, nil
}

// New constructs a SQLStore over open warehouse and directory handles.
func New(warehouse, directory *sql.DB, opts ...Option) *SQLStore {
	s := &SQLStore{
		wh:  warehouse,
		dir: directory,
		roster: RosterRef{
			Table:       "VW_EmployeeRoster",
			IDColumn:    "EIN",
			EmailColumn: "EmployeeEmailAddress",
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases both database handles.
func (s *SQLStore) Close() error {
	whErr := s.wh.Close()
	dirErr := s.dir.Close()
	if whErr != nil {
		return whErr
	}
	return dirErr
}

// Staging and ledger share one schema so the anti-join compares like with
// like.
const tableSchema = `CREATE TABLE IF NOT EXISTS %s (
	ActivityCode TEXT NOT NULL,
	Email TEXT,
	EmpID INTEGER,
	CompletionDate TEXT NOT NULL,
	Score INTEGER NOT NULL DEFAULT 0
)`

// EnsureSchema creates the named warehouse tables when absent. Table names
// come from configuration, so callers pass them here once per run.
func (s *SQLStore) EnsureSchema(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if err := checkIdentifier(table); err != nil {
			return err
		}
		if _, err := s.wh.ExecContext(ctx, fmt.Sprintf(tableSchema, table)); err != nil {
			return fmt.Errorf("%w: create %s: %w", ErrQuery, table, err)
		}
	}

	// Roster lives in the directory database; created when absent so local
	// runs work against an empty directory.
	for _, ident := range []string{s.roster.Table, s.roster.IDColumn, s.roster.EmailColumn} {
		if err := checkIdentifier(ident); err != nil {
			return err
		}
	}
	rosterSchema := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY, %s TEXT NOT NULL)`,
		s.roster.Table, s.roster.IDColumn, s.roster.EmailColumn)
	if _, err := s.dir.ExecContext(ctx, rosterSchema); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrQuery, s.roster.Table, err)
	}
	return nil
}

// InsertBatch writes a batch to table. Staging tables are truncated first;
// ledger tables only ever grow. The batch is written in one transaction and
// progress is logged every 5% of rows.
func (s *SQLStore) InsertBatch(ctx context.Context, table string, role TableRole, batch []record.Completion) (int, error) {
	if err := checkIdentifier(table); err != nil {
		return 0, err
	}

	tx, err := s.wh.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInsert, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if role == RoleStaging {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return 0, fmt.Errorf("%w: truncate %s: %w", ErrInsert, table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (ActivityCode, Email, EmpID, CompletionDate, Score) VALUES (?, ?, ?, ?, ?)", table))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInsert, table, err)
	}
	defer stmt.Close() //nolint:errcheck // statement closed with tx

	interval := len(batch) / progressSteps
	if interval < 1 {
		interval = 1
	}

	written := 0
	skipped := 0
	for i, c := range batch {
		if !c.HasDate() {
			skipped++
			continue
		}
		if s.log != nil && i%interval == 0 {
			s.log.Info(ctx, "inserting rows",
				logger.String("table", table),
				logger.Int("row", i),
				logger.Int("total", len(batch)))
		}
		if _, err := stmt.ExecContext(ctx,
			c.ActivityCode,
			nullableString(c.Identity),
			nullableInt(c.EmpID),
			c.DateString(),
			c.Score,
		); err != nil {
			return 0, fmt.Errorf("%w: %s row %d: %w", ErrInsert, table, i, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInsert, table, err)
	}
	if s.log != nil {
		s.log.Info(ctx, "insert complete",
			logger.String("table", table),
			logger.Int("written", written),
			logger.Int("skipped_undated", skipped))
	}
	return written, nil
}

// ResolveIdentities resolves staged rows lacking a usable email against the
// roster, in one batched pass, and persists the result so downstream steps
// see the updated identities.
func (s *SQLStore) ResolveIdentities(ctx context.Context, staging string) (int, int, error) {
	if err := checkIdentifier(staging); err != nil {
		return 0, 0, err
	}

	// Unresolved: no email shape at all, with an employee id to look up.
	rows, err := s.wh.QueryContext(ctx, fmt.Sprintf(
		`SELECT DISTINCT EmpID FROM %s
		 WHERE EmpID IS NOT NULL
		   AND (Email IS NULL OR Email = ? OR Email NOT LIKE '%%@%%')`, staging),
		record.BlankIdentity)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: select unresolved from %s: %w", ErrQuery, staging, err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, 0, fmt.Errorf("%w: %w", ErrQuery, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, 0, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	_ = rows.Close()

	if len(ids) == 0 {
		return 0, 0, nil
	}

	emails, err := s.lookupRoster(ctx, ids)
	if err != nil {
		return 0, 0, err
	}

	tx, err := s.wh.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	update, err := tx.PrepareContext(ctx,
		fmt.Sprintf("UPDATE %s SET Email = ? WHERE EmpID = ?", staging))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	defer update.Close() //nolint:errcheck // statement closed with tx

	resolved := 0
	missed := 0
	for _, id := range ids {
		email, ok := emails[id]
		if !ok {
			// Not an error: the original value stays and the sentinel rule
			// deals with it downstream.
			missed++
			if s.log != nil {
				s.log.Debug(ctx, "no roster match",
					logger.String("staging", staging),
					logger.String("ein", padRosterID(id)))
			}
			continue
		}
		if _, err := update.ExecContext(ctx, email, id); err != nil {
			return 0, 0, fmt.Errorf("%w: update %s: %w", ErrQuery, staging, err)
		}
		resolved++
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return resolved, missed, nil
}

// lookupRoster fetches emails for the given employee ids, keyed by the
// zero-padded 9-digit form.
func (s *SQLStore) lookupRoster(ctx context.Context, ids []int64) (map[int64]string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IN (%s)",
		s.roster.IDColumn, s.roster.EmailColumn, s.roster.Table, s.roster.IDColumn, placeholders)

	args := make([]any, len(ids))
	padded := make(map[string]int64, len(ids))
	for i, id := range ids {
		key := padRosterID(id)
		args[i] = key
		padded[key] = id
	}

	rows, err := s.dir.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: roster lookup: %w", ErrQuery, err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	emails := make(map[int64]string)
	for rows.Next() {
		var key, email string
		if err := rows.Scan(&key, &email); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQuery, err)
		}
		if id, ok := padded[key]; ok {
			emails[id] = email
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return emails, nil
}

// SeedRoster inserts one roster row, keyed by the zero-padded employee id.
// Used by local runs and tests against an empty directory.
func (s *SQLStore) SeedRoster(ctx context.Context, id, email string) error {
	query := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?)",
		s.roster.Table, s.roster.IDColumn, s.roster.EmailColumn)
	if _, err := s.dir.ExecContext(ctx, query, id, email); err != nil {
		return fmt.Errorf("%w: seed roster: %w", ErrInsert, err)
	}
	return nil
}

// DistinctAgainstLedger computes the anti-join of staging vs ledger on the
// natural key. Output order is fixed by the key so the result depends only
// on table contents.
func (s *SQLStore) DistinctAgainstLedger(ctx context.Context, staging, ledger string) ([]record.Completion, error) {
	if err := checkIdentifier(staging); err != nil {
		return nil, err
	}
	if err := checkIdentifier(ledger); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT DISTINCT
			l.ActivityCode, l.Email, l.EmpID, l.CompletionDate, l.Score
		FROM %s AS l
		LEFT JOIN %s AS r
			ON  l.ActivityCode   = r.ActivityCode
			AND l.Email          = r.Email
			AND l.CompletionDate = r.CompletionDate
		WHERE r.ActivityCode IS NULL
			AND l.Email IS NOT NULL
			AND l.Email <> ?
		ORDER BY l.ActivityCode, l.Email, l.CompletionDate`, staging, ledger)

	rows, err := s.wh.QueryContext(ctx, query, record.BlankIdentity)
	if err != nil {
		return nil, fmt.Errorf("%w: distinct %s vs %s: %w", ErrQuery, staging, ledger, err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	var out []record.Completion
	for rows.Next() {
		var (
			c     record.Completion
			email sql.NullString
			empID sql.NullInt64
			date  string
		)
		if err := rows.Scan(&c.ActivityCode, &email, &empID, &date, &c.Score); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQuery, err)
		}
		c.Identity = email.String
		c.EmpID = empID.Int64
		parsed, err := parseStoredDate(date)
		if err != nil {
			return nil, err
		}
		c.CompletionDate = parsed
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return out, nil
}

// Count returns the number of rows in a warehouse table.
func (s *SQLStore) Count(ctx context.Context, table string) (int, error) {
	if err := checkIdentifier(table); err != nil {
		return 0, err
	}
	var n int
	if err := s.wh.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", ErrQuery, table, err)
	}
	return n, nil
}

func parseStoredDate(s string) (time.Time, error) {
	t, err := time.Parse(record.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: stored date %q: %w", ErrQuery, s, err)
	}
	return t, nil
}

func checkIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrUnsafeIdentifier, name)
	}
	return nil
}

func padRosterID(id int64) string {
	return fmt.Sprintf("%0*d", rosterIDWidth, id)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
