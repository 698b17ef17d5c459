// Package repository provides the SQL warehouse behind staging, the master
// completions ledger, and the employee roster.
package repository

import (
	"context"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/record"
)

// TableRole selects the write semantics for a warehouse table.
type TableRole int

const (
	// RoleStaging truncates the table before writing the batch; staging
	// tables never carry state across runs.
	RoleStaging TableRole = iota

	// RoleLedger appends; ledger rows are never discarded by this system.
	RoleLedger
)

// Store provides warehouse access for the reconciliation pipeline.
type Store interface {
	// EnsureSchema creates the named warehouse tables and the roster table
	// when absent.
	EnsureSchema(ctx context.Context, tables ...string) error

	// InsertBatch writes a normalized batch to table under the given role.
	// Undated records are skipped: they can never satisfy the natural key.
	// Returns the number of rows written.
	InsertBatch(ctx context.Context, table string, role TableRole, batch []record.Completion) (int, error)

	// ResolveIdentities overwrites unusable staged identities with roster
	// emails, keyed by zero-padded 9-digit employee id. Misses keep their
	// original value. Returns resolved and missed counts.
	ResolveIdentities(ctx context.Context, staging string) (resolved, missed int, err error)

	// DistinctAgainstLedger computes staged rows whose natural key
	// (activity, identity, completion date) is absent from the ledger.
	// Rows with a NULL or sentinel identity are excluded.
	DistinctAgainstLedger(ctx context.Context, staging, ledger string) ([]record.Completion, error)

	// Count returns the number of rows in a warehouse table.
	Count(ctx context.Context, table string) (int, error)

	// Close releases both database handles.
	Close() error
}
