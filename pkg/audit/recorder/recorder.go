package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"kestrel-hq/verdict/pkg/audit"
	"kestrel-hq/verdict/pkg/engine"
	"kestrel-hq/verdict/pkg/rule/ast"
)

// Evaluator is the evaluation surface the recorder wraps. *engine.Engine
// satisfies it.
type Evaluator interface {
	Evaluate(facts engine.Facts, rules *ast.Node) (*engine.Outcome, error)
	EvaluateSet(facts engine.Facts, rs *ast.Ruleset) []engine.RuleResult
}

// Config contains configuration for the audit recorder.
type Config struct {
	// Enabled enables audit recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing records to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// MaxHistory caps the number of trace steps stored per record.
	// 0 means unlimited. Steps always reports the full trace length.
	MaxHistory int
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
		MaxHistory:   0,
	}
}

// Recorder evaluates rules through a wrapped evaluator and persists one audit
// record per evaluation. Records are written asynchronously so callers never
// block on storage.
type Recorder struct {
	evaluator  Evaluator
	storage    audit.Storage
	config     *Config
	recordChan chan *audit.Record
	wg         sync.WaitGroup
	done       chan struct{}
	logger     *slog.Logger
}

// NewRecorder creates a new audit recorder around an evaluator and a storage
// backend.
func NewRecorder(evaluator Evaluator, storage audit.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Recorder{
		evaluator:  evaluator,
		storage:    storage,
		config:     config,
		recordChan: make(chan *audit.Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"enabled", config.Enabled,
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Evaluate runs one rule tree through the wrapped evaluator and enqueues an
// audit record of the result. The outcome and error are those of the
// underlying evaluation; recording problems are logged, never surfaced.
func (r *Recorder) Evaluate(name string, facts engine.Facts, rules *ast.Node) (*engine.Outcome, error) {
	start := time.Now()
	outcome, err := r.evaluator.Evaluate(facts, rules)
	duration := time.Since(start)

	if r.config.Enabled {
		record := r.buildRecord(name, start, facts, outcome, err, duration)
		if enqErr := r.enqueue(record); enqErr != nil {
			r.logger.Error("failed to enqueue audit record",
				"record_id", record.ID,
				"rule", name,
				"error", enqErr,
			)
		}
	}

	return outcome, err
}

// EvaluateSet runs every rule of a ruleset through the wrapped evaluator and
// enqueues one audit record per rule.
func (r *Recorder) EvaluateSet(facts engine.Facts, rs *ast.Ruleset) []engine.RuleResult {
	start := time.Now()
	results := r.evaluator.EvaluateSet(facts, rs)

	if r.config.Enabled {
		evaluatedAt := start
		for _, result := range results {
			record := r.buildRecord(result.Name, evaluatedAt, facts, result.Outcome, result.Err, result.Duration)
			if enqErr := r.enqueue(record); enqErr != nil {
				r.logger.Error("failed to enqueue audit record",
					"record_id", record.ID,
					"rule", result.Name,
					"error", enqErr,
				)
			}
			evaluatedAt = evaluatedAt.Add(result.Duration)
		}
	}

	return results
}

// buildRecord assembles an audit record from one evaluation result.
func (r *Recorder) buildRecord(name string, evaluatedAt time.Time, facts engine.Facts, outcome *engine.Outcome, evalErr error, duration time.Duration) *audit.Record {
	record := &audit.Record{
		ID:          uuid.New().String(),
		RuleName:    name,
		EvaluatedAt: evaluatedAt,
		RecordedAt:  time.Now(),
		FactCount:   len(facts),
		Duration:    duration,
	}

	if evalErr != nil {
		record.Error = evalErr.Error()
		record.ErrorKind = engine.ErrorKind(evalErr)
		return record
	}

	record.Verdict = outcome.Result
	record.Steps = len(outcome.History)
	record.History = flattenHistory(outcome.History, r.config.MaxHistory)

	return record
}

// flattenHistory converts engine trace entries into storable step records,
// keeping at most max entries when max is positive.
func flattenHistory(entries []engine.HistoryEntry, max int) []audit.StepRecord {
	if max > 0 && len(entries) > max {
		entries = entries[:max]
	}

	steps := make([]audit.StepRecord, 0, len(entries))
	for _, entry := range entries {
		step := audit.StepRecord{
			Kind:   string(entry.Rule.Kind()),
			Result: entry.Result,
		}
		if entry.Rule.IsAtomic() {
			step.Fact = entry.Rule.Fact
			step.Operator = string(entry.Rule.Operator)
		}
		steps = append(steps, step)
	}

	return steps
}

// enqueue hands a record to the async writer.
func (r *Recorder) enqueue(record *audit.Record) error {
	select {
	case r.recordChan <- record:
		return nil
	case <-time.After(r.config.WriteTimeout):
		r.logger.Error("audit record channel full, dropping record",
			"record_id", record.ID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return audit.NewRecorderError(record.ID, context.DeadlineExceeded)
	case <-r.done:
		return audit.NewRecorderError(record.ID, context.Canceled)
	}
}

// Close gracefully shuts down the recorder by draining the async channel and
// waiting for all pending writes to complete.
func (r *Recorder) Close() error {
	r.logger.Info("shutting down audit recorder")

	close(r.done)
	r.wg.Wait()

	r.logger.Info("audit recorder shut down complete")
	return nil
}

// worker drains the record channel and writes records to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			// Drain remaining records from channel before exit
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

// writeRecord writes a single audit record to storage.
func (r *Recorder) writeRecord(record *audit.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store audit record",
			"record_id", record.ID,
			"rule", record.RuleName,
			"error", err,
		)
		return
	}

	duration := time.Since(start)

	r.logger.Debug("audit record stored",
		"record_id", record.ID,
		"rule", record.RuleName,
		"verdict", record.Verdict,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
