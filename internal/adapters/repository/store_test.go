package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/dedupe"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/record"
)

const (
	testStaging = "tmp_Tracorp_Daily"
	testLedger  = "MasterCompletions"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()

	wh, err := Connect(ctx, "sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("connect warehouse: %v", err)
	}
	dir, err := Connect(ctx, "sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("connect directory: %v", err)
	}

	store := New(wh, dir)
	if err := store.EnsureSchema(ctx, testStaging, testLedger); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestConnect_BadDriver(t *testing.T) {
	_, err := Connect(context.Background(), "no-such-driver", ":memory:")
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("expected ErrConnect, got %v", err)
	}
}

func TestEnsureSchema_RejectsUnsafeIdentifier(t *testing.T) {
	store := newTestStore(t)
	err := store.EnsureSchema(context.Background(), "tmp; DROP TABLE MasterCompletions")
	if !errors.Is(err, ErrUnsafeIdentifier) {
		t.Fatalf("expected ErrUnsafeIdentifier, got %v", err)
	}
}

func TestInsertBatch_StagingTruncates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := []record.Completion{
		{ActivityCode: "LAW1000", Identity: "a@ex.com", CompletionDate: day(1)},
		{ActivityCode: "LAW1000", Identity: "b@ex.com", CompletionDate: day(1)},
	}
	if _, err := store.InsertBatch(ctx, testStaging, RoleStaging, first); err != nil {
		t.Fatalf("insert: %v", err)
	}

	second := []record.Completion{
		{ActivityCode: "HIPAA01", Identity: "c@ex.com", CompletionDate: day(2)},
	}
	n, err := store.InsertBatch(ctx, testStaging, RoleStaging, second)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 written, got %d", n)
	}

	count, err := store.Count(ctx, testStaging)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("staging should hold only the latest batch, got %d rows", count)
	}
}

func TestInsertBatch_LedgerAppends(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	batch := []record.Completion{
		{ActivityCode: "LAW1000", Identity: "a@ex.com", CompletionDate: day(1)},
	}
	for i := 0; i < 2; i++ {
		if _, err := store.InsertBatch(ctx, testLedger, RoleLedger, batch); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	count, err := store.Count(ctx, testLedger)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("ledger should append, got %d rows", count)
	}
}

func TestInsertBatch_SkipsUndated(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	batch := []record.Completion{
		{ActivityCode: "LAW1000", Identity: "a@ex.com", CompletionDate: day(1)},
		{ActivityCode: "LAW1000", Identity: "undated@ex.com"},
	}
	n, err := store.InsertBatch(ctx, testStaging, RoleStaging, batch)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected undated row skipped, wrote %d", n)
	}
}

func TestResolveIdentities(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.SeedRoster(ctx, "000012345", "resolved@ex.com"); err != nil {
		t.Fatalf("seed roster: %v", err)
	}

	batch := []record.Completion{
		{ActivityCode: "LAW1000", Identity: record.BlankIdentity, EmpID: 12345, CompletionDate: day(1)},
		{ActivityCode: "LAW1000", Identity: record.BlankIdentity, EmpID: 99999, CompletionDate: day(2)},
		{ActivityCode: "LAW1000", Identity: "kept@ex.com", EmpID: 12345, CompletionDate: day(3)},
	}
	if _, err := store.InsertBatch(ctx, testStaging, RoleStaging, batch); err != nil {
		t.Fatalf("insert: %v", err)
	}

	resolved, missed, err := store.ResolveIdentities(ctx, testStaging)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != 1 || missed != 1 {
		t.Fatalf("expected 1 resolved and 1 missed, got %d/%d", resolved, missed)
	}

	// The resolved email must be visible to the anti-join. 12345 had both a
	// blank row and a row that already carried an email; the update keys on
	// EmpID so both now carry the roster email.
	var n int
	err = store.wh.QueryRow(
		"SELECT COUNT(*) FROM "+testStaging+" WHERE Email = ?", "resolved@ex.com").Scan(&n)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows resolved via roster, got %d", n)
	}
}

func TestResolveIdentities_NothingToDo(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	batch := []record.Completion{
		{ActivityCode: "LAW1000", Identity: "a@ex.com", CompletionDate: day(1)},
	}
	if _, err := store.InsertBatch(ctx, testStaging, RoleStaging, batch); err != nil {
		t.Fatalf("insert: %v", err)
	}

	resolved, missed, err := store.ResolveIdentities(ctx, testStaging)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != 0 || missed != 0 {
		t.Fatalf("expected no work, got %d/%d", resolved, missed)
	}
}

func TestDistinctAgainstLedger(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ledger := []record.Completion{
		{ActivityCode: "LAW1000", Identity: "a@ex.com", CompletionDate: day(1), Score: 90},
	}
	candidates := []record.Completion{
		// Already in the ledger, different score: same natural key, excluded.
		{ActivityCode: "LAW1000", Identity: "a@ex.com", CompletionDate: day(1), Score: 95},
		// Same person, new date: new key.
		{ActivityCode: "LAW1000", Identity: "a@ex.com", CompletionDate: day(2), Score: 80},
		// Duplicate within the batch: emitted once.
		{ActivityCode: "HIPAA01", Identity: "b@ex.com", CompletionDate: day(2)},
		{ActivityCode: "HIPAA01", Identity: "b@ex.com", CompletionDate: day(2)},
		// Sentinel identity: excluded.
		{ActivityCode: "HIPAA01", Identity: record.BlankIdentity, CompletionDate: day(2)},
	}

	if _, err := store.InsertBatch(ctx, testLedger, RoleLedger, ledger); err != nil {
		t.Fatalf("insert ledger: %v", err)
	}
	if _, err := store.InsertBatch(ctx, testStaging, RoleStaging, candidates); err != nil {
		t.Fatalf("insert staging: %v", err)
	}

	got, err := store.DistinctAgainstLedger(ctx, testStaging, testLedger)
	if err != nil {
		t.Fatalf("distinct: %v", err)
	}

	ledgerKeys := dedupe.NewKeySet()
	for _, c := range ledger {
		ledgerKeys.Add(c.Key())
	}
	want := dedupe.Distinct(candidates, ledgerKeys)
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	wantKeys := dedupe.NewKeySet()
	for _, c := range want {
		wantKeys.Add(c.Key())
	}
	for _, c := range got {
		if !wantKeys.Contains(c.Key()) {
			t.Errorf("unexpected key %+v", c.Key())
		}
	}
}

func TestDistinctAgainstLedger_RerunSafe(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	candidates := []record.Completion{
		{ActivityCode: "LAW1000", Identity: "a@ex.com", CompletionDate: day(1)},
		{ActivityCode: "HIPAA01", Identity: "b@ex.com", CompletionDate: day(2)},
	}
	if _, err := store.InsertBatch(ctx, testStaging, RoleStaging, candidates); err != nil {
		t.Fatalf("insert staging: %v", err)
	}

	first, err := store.DistinctAgainstLedger(ctx, testStaging, testLedger)
	if err != nil {
		t.Fatalf("distinct: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 new rows, got %d", len(first))
	}
	if _, err := store.InsertBatch(ctx, testLedger, RoleLedger, first); err != nil {
		t.Fatalf("append ledger: %v", err)
	}

	// Same staged batch again: nothing new may come out.
	if _, err := store.InsertBatch(ctx, testStaging, RoleStaging, candidates); err != nil {
		t.Fatalf("insert staging: %v", err)
	}
	second, err := store.DistinctAgainstLedger(ctx, testStaging, testLedger)
	if err != nil {
		t.Fatalf("distinct: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("re-run produced %d duplicate rows", len(second))
	}
}

func TestDistinctAgainstLedger_Ordering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	candidates := []record.Completion{
		{ActivityCode: "ZZZ", Identity: "a@ex.com", CompletionDate: day(1)},
		{ActivityCode: "AAA", Identity: "b@ex.com", CompletionDate: day(1)},
		{ActivityCode: "AAA", Identity: "a@ex.com", CompletionDate: day(1)},
	}
	if _, err := store.InsertBatch(ctx, testStaging, RoleStaging, candidates); err != nil {
		t.Fatalf("insert staging: %v", err)
	}

	got, err := store.DistinctAgainstLedger(ctx, testStaging, testLedger)
	if err != nil {
		t.Fatalf("distinct: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	if got[0].ActivityCode != "AAA" || got[0].Identity != "a@ex.com" {
		t.Errorf("expected AAA/a@ex.com first, got %s/%s", got[0].ActivityCode, got[0].Identity)
	}
	if got[2].ActivityCode != "ZZZ" {
		t.Errorf("expected ZZZ last, got %s", got[2].ActivityCode)
	}
}
