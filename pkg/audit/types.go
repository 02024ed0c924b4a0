package audit

import (
	"context"
	"time"
)

// Record is the audit trail for a single rule evaluation: what was
// evaluated, the verdict or error it produced, and a flattened copy of the
// evaluation history.
type Record struct {
	// Identity
	ID       string `json:"id"`        // UUID v4
	RuleName string `json:"rule_name"` // Rule or ruleset member name

	// Timestamps
	EvaluatedAt time.Time `json:"evaluated_at"` // When evaluation started
	RecordedAt  time.Time `json:"recorded_at"`  // When the record was built

	// Outcome
	Verdict bool         `json:"verdict"` // Final result (false when errored)
	Steps   int          `json:"steps"`   // History length
	History []StepRecord `json:"history"` // Flattened trace, possibly truncated

	// Inputs
	FactCount int `json:"fact_count"` // Number of facts supplied

	// Timing
	Duration time.Duration `json:"duration"` // Evaluation wall time

	// Error info
	Error     string `json:"error"`      // Error message if evaluation failed
	ErrorKind string `json:"error_kind"` // Stable error kind
}

// Errored reports whether the recorded evaluation failed.
func (r *Record) Errored() bool {
	return r.Error != ""
}

// StepRecord is one evaluation history entry flattened for storage. Atomic
// steps carry the fact and operator; combinator steps carry only the kind.
type StepRecord struct {
	Kind     string `json:"kind"`
	Fact     string `json:"fact,omitempty"`
	Operator string `json:"operator,omitempty"`
	Result   bool   `json:"result"`
}

// Query defines filter parameters for querying audit records.
type Query struct {
	// Time range
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	RuleName  string `json:"rule_name,omitempty"`  // Filter by rule name
	Verdict   *bool  `json:"verdict,omitempty"`    // Filter by verdict
	ErrorKind string `json:"error_kind,omitempty"` // Filter by error kind

	// Status
	Status string `json:"status,omitempty"` // "success" or "error"

	// Thresholds
	MinSteps *int `json:"min_steps,omitempty"` // Minimum history length
	MaxSteps *int `json:"max_steps,omitempty"` // Maximum history length

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max records to return
	Offset int `json:"offset,omitempty"` // Skip N records

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "evaluated_at", "rule_name", "steps", "duration"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for audit storage backends.
// Implementations must be thread-safe and support concurrent access.
type Storage interface {
	// Store persists an audit record.
	Store(ctx context.Context, record *Record) error

	// Query retrieves audit records matching the query filters.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of audit records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes audit records matching the query filters and returns
	// the number of records deleted. Used for retention enforcement.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}
