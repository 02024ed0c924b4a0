package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"kestrel-hq/verdict/pkg/audit"
)

func makeRecord(id, rule string, evaluatedAt time.Time, verdict bool, steps int) *audit.Record {
	return &audit.Record{
		ID:          id,
		RuleName:    rule,
		EvaluatedAt: evaluatedAt,
		RecordedAt:  evaluatedAt.Add(time.Millisecond),
		Verdict:     verdict,
		Steps:       steps,
		FactCount:   3,
		Duration:    time.Duration(steps) * time.Millisecond,
	}
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func timePtr(t time.Time) *time.Time { return &t }

func seedMemory(t *testing.T) *MemoryStorage {
	t.Helper()

	store := NewMemoryStorage()
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

	return store
}

func TestMemoryStorage_StoreAndGet(t *testing.T) {
	store := NewMemoryStorage()
	record := makeRecord("rec-1", "eligibility", time.Now(), true, 5)

	if err := store.Store(context.Background(), record); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	if store.Size() != 1 {
		t.Errorf("Size() = %d, want 1", store.Size())
	}

	got := store.GetByID("rec-1")
	if got == nil {
		t.Fatal("GetByID() returned nil")
	}
	if got.RuleName != "eligibility" {
		t.Errorf("RuleName = %q, want eligibility", got.RuleName)
	}

	if store.GetByID("missing") != nil {
		t.Error("GetByID(missing) should return nil")
	}
}

func TestMemoryStorage_StoreInvalid(t *testing.T) {
	store := NewMemoryStorage()

	if err := store.Store(context.Background(), nil); err == nil {
		t.Error("Store(nil) should fail")
	}

	if err := store.Store(context.Background(), &audit.Record{}); err == nil {
		t.Error("Store() with empty ID should fail")
	}
}

func TestMemoryStorage_QueryFilters(t *testing.T) {
	store := seedMemory(t)
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
			query:   &audit.Query{RuleName: "eligibility"},
			wantIDs: []string{"rec-2", "rec-1"},
		},
		{
			name:    "filter by verdict",
			query:   &audit.Query{Verdict: boolPtr(true)},
			wantIDs: []string{"rec-3", "rec-1"},
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
			name:    "filter by error status",
			query:   &audit.Query{Status: "error"},
			wantIDs: []string{"rec-4"},
		},
		{
			name:    "filter by success status",
			query:   &audit.Query{Status: "success"},
			wantIDs: []string{"rec-3", "rec-2", "rec-1"},
		},
		{
			name:    "filter by step bounds",
			query:   &audit.Query{MinSteps: intPtr(3), MaxSteps: intPtr(5)},
			wantIDs: []string{"rec-2", "rec-1"},
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
		{
			name:    "offset past end",
			query:   &audit.Query{Offset: 10},
			wantIDs: []string{},
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

func TestMemoryStorage_QueryInvalidSort(t *testing.T) {
	store := seedMemory(t)

	_, err := store.Query(context.Background(), &audit.Query{SortBy: "facts"})
	if err == nil {
		t.Fatal("Query() with unknown sort field should fail")
	}

	var queryErr *audit.QueryError
	if !errors.As(err, &queryErr) {
		t.Errorf("error type = %T, want *audit.QueryError", err)
	}

	_, err = store.Query(context.Background(), &audit.Query{SortOrder: "sideways"})
	if err == nil {
		t.Error("Query() with unknown sort order should fail")
	}
}

func TestMemoryStorage_Count(t *testing.T) {
	store := seedMemory(t)

	total, err := store.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 4 {
		t.Errorf("Count() = %d, want 4", total)
	}

	failed, err := store.Count(context.Background(), &audit.Query{Verdict: boolPtr(false)})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if failed != 2 {
		t.Errorf("Count(verdict=false) = %d, want 2", failed)
	}
}

func TestMemoryStorage_Delete(t *testing.T) {
	store := seedMemory(t)

	deleted, err := store.Delete(context.Background(), &audit.Query{RuleName: "eligibility"})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("Delete() = %d, want 2", deleted)
	}
	if store.Size() != 2 {
		t.Errorf("Size() after delete = %d, want 2", store.Size())
	}

	if store.GetByID("rec-1") != nil {
		t.Error("rec-1 should be deleted")
	}
	if store.GetByID("rec-3") == nil {
		t.Error("rec-3 should survive")
	}
}

func TestMemoryStorage_Clear(t *testing.T) {
	store := seedMemory(t)

	store.Clear()
	if store.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", store.Size())
	}
}
