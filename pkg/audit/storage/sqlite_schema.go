package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the audit database schema.
const Schema = `
-- Audit records table
CREATE TABLE IF NOT EXISTS evaluations (
    id TEXT PRIMARY KEY,
    rule_name TEXT NOT NULL,

    -- Timestamps
    evaluated_at TIMESTAMP NOT NULL,
    recorded_at TIMESTAMP NOT NULL,

    -- Outcome
    verdict BOOLEAN NOT NULL,
    steps INTEGER NOT NULL,
    history TEXT,

    -- Inputs
    fact_count INTEGER,

    -- Timing (microseconds)
    duration_us INTEGER,

    -- Error info
    error TEXT,
    error_kind TEXT
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_evaluations_evaluated_at ON evaluations(evaluated_at);
CREATE INDEX IF NOT EXISTS idx_evaluations_rule_name ON evaluations(rule_name);
CREATE INDEX IF NOT EXISTS idx_evaluations_verdict ON evaluations(verdict);
CREATE INDEX IF NOT EXISTS idx_evaluations_error_kind ON evaluations(error_kind);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
