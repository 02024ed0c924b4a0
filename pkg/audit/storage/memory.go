package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"kestrel-hq/verdict/pkg/audit"
)

// MemoryStorage implements audit.Storage with an in-memory map. Intended for
// tests and short-lived processes; records do not survive restarts.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]*audit.Record
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*audit.Record),
	}
}

// Store persists an audit record.
func (m *MemoryStorage) Store(_ context.Context, record *audit.Record) error {
	if record == nil {
		return audit.NewStorageError("memory", "store", fmt.Errorf("record is nil"))
	}
	if record.ID == "" {
		return audit.NewStorageError("memory", "store", fmt.Errorf("record ID is empty"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[record.ID] = record
	return nil
}

// Query retrieves audit records matching the query.
func (m *MemoryStorage) Query(_ context.Context, query *audit.Query) ([]*audit.Record, error) {
	if query == nil {
		query = &audit.Query{}
	}

	m.mu.RLock()
	var matched []*audit.Record
	for _, record := range m.records {
		if matchesQuery(record, query) {
			matched = append(matched, record)
		}
	}
	m.mu.RUnlock()

	if err := sortRecords(matched, query); err != nil {
		return nil, err
	}

	// Pagination after sorting
	start := query.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	limit := query.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if start+limit < end {
		end = start + limit
	}

	return matched[start:end], nil
}

// Count returns the number of records matching the query.
func (m *MemoryStorage) Count(_ context.Context, query *audit.Query) (int64, error) {
	if query == nil {
		query = &audit.Query{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, record := range m.records {
		if matchesQuery(record, query) {
			count++
		}
	}

	return count, nil
}

// Delete removes records matching the query and returns the number removed.
func (m *MemoryStorage) Delete(_ context.Context, query *audit.Query) (int64, error) {
	if query == nil {
		query = &audit.Query{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, record := range m.records {
		if matchesQuery(record, query) {
			delete(m.records, id)
			deleted++
		}
	}

	return deleted, nil
}

// Close releases all stored records.
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]*audit.Record)
	return nil
}

// GetByID retrieves a single record by ID. Returns nil if not found.
func (m *MemoryStorage) GetByID(id string) *audit.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.records[id]
}

// Size returns the number of stored records.
func (m *MemoryStorage) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.records)
}

// Clear removes all stored records.
func (m *MemoryStorage) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]*audit.Record)
}

// matchesQuery reports whether a record satisfies all query filters.
func matchesQuery(record *audit.Record, query *audit.Query) bool {
	if query.StartTime != nil && record.EvaluatedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.EvaluatedAt.After(*query.EndTime) {
		return false
	}
	if query.RuleName != "" && record.RuleName != query.RuleName {
		return false
	}
	if query.Verdict != nil && record.Verdict != *query.Verdict {
		return false
	}
	if query.ErrorKind != "" && record.ErrorKind != query.ErrorKind {
		return false
	}
	switch query.Status {
	case "success":
		if record.Errored() {
			return false
		}
	case "error":
		if !record.Errored() {
			return false
		}
	}
	if query.MinSteps != nil && record.Steps < *query.MinSteps {
		return false
	}
	if query.MaxSteps != nil && record.Steps > *query.MaxSteps {
		return false
	}

	return true
}

// sortRecords orders records in place according to the query sort fields.
func sortRecords(records []*audit.Record, query *audit.Query) error {
	field := query.SortBy
	if field == "" {
		field = "evaluated_at"
	}
	if _, ok := sortColumns[field]; !ok {
		return audit.NewQueryError(query, fmt.Errorf("unknown sort field %q", field))
	}

	descending := true
	switch strings.ToLower(query.SortOrder) {
	case "", "desc":
	case "asc":
		descending = false
	default:
		return audit.NewQueryError(query, fmt.Errorf("unknown sort order %q", query.SortOrder))
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if descending {
			a, b = b, a
		}
		switch field {
		case "rule_name":
			return a.RuleName < b.RuleName
		case "steps":
			return a.Steps < b.Steps
		case "duration":
			return a.Duration < b.Duration
		default:
			return a.EvaluatedAt.Before(b.EvaluatedAt)
		}
	})

	return nil
}
