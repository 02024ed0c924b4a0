package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kestrel-hq/verdict/pkg/audit"
)

func newTestSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := NewSQLiteStorage(DefaultSQLiteConfig(path), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteStorage_InvalidConfig(t *testing.T) {
	if _, err := NewSQLiteStorage(nil, nil); err == nil {
		t.Error("NewSQLiteStorage(nil) should fail")
	}

	if _, err := NewSQLiteStorage(&SQLiteConfig{}, nil); err == nil {
		t.Error("NewSQLiteStorage() with empty path should fail")
	}
}

func TestSQLiteStorage_StoreAndQuery(t *testing.T) {
	store := newTestSQLite(t)

	evaluatedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	record := &audit.Record{
		ID:          "rec-1",
		RuleName:    "eligibility",
		EvaluatedAt: evaluatedAt,
		RecordedAt:  evaluatedAt.Add(time.Millisecond),
		Verdict:     true,
		Steps:       3,
		History: []audit.StepRecord{
			{Kind: "atomic", Fact: "age", Operator: "greaterThanOrEqual", Result: true},
			{Kind: "atomic", Fact: "country", Operator: "in", Result: true},
			{Kind: "all", Result: true},
		},
		FactCount: 2,
		Duration:  1500 * time.Microsecond,
	}

	if err := store.Store(context.Background(), record); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	records, err := store.Query(context.Background(), &audit.Query{RuleName: "eligibility"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Query() returned %d records, want 1", len(records))
	}

	got := records[0]
	if got.ID != "rec-1" {
		t.Errorf("ID = %q, want rec-1", got.ID)
	}
	if !got.EvaluatedAt.Equal(evaluatedAt) {
		t.Errorf("EvaluatedAt = %v, want %v", got.EvaluatedAt, evaluatedAt)
	}
	if !got.Verdict {
		t.Error("Verdict should be true")
	}
	if got.Steps != 3 {
		t.Errorf("Steps = %d, want 3", got.Steps)
	}
	if got.Duration != 1500*time.Microsecond {
		t.Errorf("Duration = %v, want 1.5ms", got.Duration)
	}
	if len(got.History) != 3 {
		t.Fatalf("History length = %d, want 3", len(got.History))
	}
	if got.History[0].Fact != "age" || got.History[0].Operator != "greaterThanOrEqual" {
		t.Errorf("History[0] = %+v, want age/greaterThanOrEqual", got.History[0])
	}
	if got.History[2].Kind != "all" {
		t.Errorf("History[2].Kind = %q, want all", got.History[2].Kind)
	}
	if got.Errored() {
		t.Error("record should not be errored")
	}
}

func TestSQLiteStorage_StoreErrorRecord(t *testing.T) {
	store := newTestSQLite(t)

	record := makeRecord("rec-err", "fraud-check", time.Now().UTC(), false, 0)
	record.Error = "operand type mismatch"
	record.ErrorKind = "unsupported_type"

	if err := store.Store(context.Background(), record); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	records, err := store.Query(context.Background(), &audit.Query{Status: "error"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Query(status=error) returned %d records, want 1", len(records))
	}
	if records[0].Error != "operand type mismatch" {
		t.Errorf("Error = %q, want operand type mismatch", records[0].Error)
	}
	if records[0].ErrorKind != "unsupported_type" {
		t.Errorf("ErrorKind = %q, want unsupported_type", records[0].ErrorKind)
	}
	if !records[0].Errored() {
		t.Error("record should be errored")
	}
}

func TestSQLiteStorage_StoreInvalid(t *testing.T) {
	store := newTestSQLite(t)

	if err := store.Store(context.Background(), nil); err == nil {
		t.Error("Store(nil) should fail")
	}

	if err := store.Store(context.Background(), &audit.Record{}); err == nil {
		t.Error("Store() with empty ID should fail")
	}

	var storageErr *audit.StorageError
	err := store.Store(context.Background(), &audit.Record{})
	if !errors.As(err, &storageErr) {
		t.Errorf("error type = %T, want *audit.StorageError", err)
	}
}

func seedSQLite(t *testing.T, store *SQLiteStorage) {
	t.Helper()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []*audit.Record{
		makeRecord("rec-1", "eligibility", base, true, 5),
		makeRecord("rec-2", "eligibility", base.Add(1*time.Hour), false, 3),
		makeRecord("rec-3", "fraud-check", base.Add(2*time.Hour), true, 9),
		makeRecord("rec-4", "fraud-check", base.Add(3*time.Hour), false, 1),
	}
	records[3].Error = "operand type mismatch"
	records[3].ErrorKind = "unsupported_type"

	for _, r := range records {
		if err := store.Store(context.Background(), r); err != nil {
			t.Fatalf("Store(%s) error = %v", r.ID, err)
		}
	}
}

func TestSQLiteStorage_QueryFilters(t *testing.T) {
	store := newTestSQLite(t)
	seedSQLite(t, store)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		query   *audit.Query
		wantIDs []string
	}{
		{
			name:    "no filters returns all newest first",
			query:   &audit.Query{},
			wantIDs: []string{"rec-4", "rec-3", "rec-2", "rec-1"},
		},
		{
			name:    "filter by rule name",
			query:   &audit.Query{RuleName: "fraud-check"},
			wantIDs: []string{"rec-4", "rec-3"},
		},
		{
			name:    "filter by verdict",
			query:   &audit.Query{Verdict: boolPtr(false)},
			wantIDs: []string{"rec-4", "rec-2"},
		},
		{
			name:    "filter by time range",
			query:   &audit.Query{StartTime: timePtr(base.Add(30 * time.Minute)), EndTime: timePtr(base.Add(2 * time.Hour))},
			wantIDs: []string{"rec-3", "rec-2"},
		},
		{
			name:    "filter by error kind",
			query:   &audit.Query{ErrorKind: "unsupported_type"},
			wantIDs: []string{"rec-4"},
		},
		{
			name:    "filter by success status",
			query:   &audit.Query{Status: "success"},
			wantIDs: []string{"rec-3", "rec-2", "rec-1"},
		},
		{
			name:    "filter by step bounds",
			query:   &audit.Query{MinSteps: intPtr(4)},
			wantIDs: []string{"rec-3", "rec-1"},
		},
		{
			name:    "sort by steps ascending",
			query:   &audit.Query{SortBy: "steps", SortOrder: "asc"},
			wantIDs: []string{"rec-4", "rec-2", "rec-1", "rec-3"},
		},
		{
			name:    "pagination",
			query:   &audit.Query{Limit: 2, Offset: 1},
			wantIDs: []string{"rec-3", "rec-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := store.Query(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}

			if len(records) != len(tt.wantIDs) {
				t.Fatalf("Query() returned %d records, want %d", len(records), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if records[i].ID != want {
					t.Errorf("records[%d].ID = %q, want %q", i, records[i].ID, want)
				}
			}
		})
	}
}

func TestSQLiteStorage_QueryInvalidSort(t *testing.T) {
	store := newTestSQLite(t)

	_, err := store.Query(context.Background(), &audit.Query{SortBy: "facts; DROP TABLE evaluations"})
	if err == nil {
		t.Fatal("Query() with unknown sort field should fail")
	}

	var queryErr *audit.QueryError
	if !errors.As(err, &queryErr) {
		t.Errorf("error type = %T, want *audit.QueryError", err)
	}
}

func TestSQLiteStorage_CountAndDelete(t *testing.T) {
	store := newTestSQLite(t)
	seedSQLite(t, store)

	total, err := store.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 4 {
		t.Errorf("Count() = %d, want 4", total)
	}

	deleted, err := store.Delete(context.Background(), &audit.Query{RuleName: "eligibility"})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("Delete() = %d, want 2", deleted)
	}

	remaining, err := store.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if remaining != 2 {
		t.Errorf("Count() after delete = %d, want 2", remaining)
	}
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	store, err := NewSQLiteStorage(DefaultSQLiteConfig(path), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}

	record := makeRecord("rec-1", "eligibility", time.Now().UTC(), true, 5)
	if err := store.Store(context.Background(), record); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStorage(DefaultSQLiteConfig(path), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() reopen error = %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() after reopen = %d, want 1", count)
	}
}
