// Package retention prunes old audit records on a schedule.
//
// The Pruner deletes records in two phases: by age (older than
// RetentionDays) and by count (oldest beyond MaxRecords). Records can be
// archived to JSON files before deletion. The Scheduler runs pruning cycles
// on a cron expression.
package retention
