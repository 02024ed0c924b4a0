// Package audit provides recording and storage for rule evaluation history.
// Every evaluation can be persisted as an immutable audit record for
// compliance review, debugging, and offline analysis of rule behavior.
//
// # Architecture
//
// The audit system consists of three layers:
//
//  1. Recorder - Wraps an evaluator and builds records from its results
//  2. Storage Backend - Persists audit records (SQLite, in-memory)
//  3. Retention - Prunes old records on a schedule
//
// # Audit Records
//
// Each audit record captures:
//   - The rule name and when it was evaluated
//   - The verdict and the flattened evaluation history
//   - How many facts were supplied and how long evaluation took
//   - Error information when the evaluation failed
//
// # Recording Flow
//
// Records are written asynchronously so evaluation latency is unaffected:
//
//	Evaluate(facts, rules)
//	     ↓
//	Recorder builds Record (verdict, history, timing)
//	     ↓
//	Buffered channel (async)
//	     ↓
//	Worker writes to Storage (SQLite, WAL mode)
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(storage.DefaultSQLiteConfig("data/audit.db"), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	rec := recorder.NewRecorder(engine.New(nil, nil), store, nil)
//	defer rec.Close()
//
//	// Evaluates and records in one call.
//	outcome, err := rec.Evaluate("loan-eligibility", facts, rules)
//
// # Querying Records
//
//	verdict := false
//	records, err := store.Query(ctx, &audit.Query{
//	    StartTime: &start,
//	    Verdict:   &verdict,
//	    Limit:     100,
//	})
//
// # Retention
//
// Records can be automatically pruned based on age or total count:
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    RetentionDays: 90,
//	    PruneSchedule: "0 3 * * *", // Daily at 3 AM
//	})
//	pruner.Start(ctx)
//	defer pruner.Stop()
//
// # Thread Safety
//
// All audit types are safe for concurrent use:
//   - Recorder: Thread-safe async channel
//   - Storage: Thread-safe with connection pooling
//   - Query: Stateless, can be executed concurrently
//
// # Storage Backends
//
// Storage is an interface. The SQLite backend is the durable option; the
// in-memory backend serves tests and short-lived tooling. Custom backends
// can be implemented by satisfying the Storage interface.
package audit
