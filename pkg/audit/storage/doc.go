// Package storage provides persistence backends for audit records.
//
// Two implementations of audit.Storage are available:
//
//   - SQLiteStorage: durable storage in a local SQLite database with
//     indexes on the common query dimensions
//   - MemoryStorage: ephemeral in-memory storage for tests and
//     short-lived processes
//
// Both backends support the same query surface: time range, rule name,
// verdict, error kind, step bounds, sorting, and pagination.
package storage
