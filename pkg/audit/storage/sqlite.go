package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"kestrel-hq/verdict/pkg/audit"
)

// defaultQueryLimit caps result sets when the query does not set one.
const defaultQueryLimit = 100

// sortColumns maps query sort fields to their database columns.
var sortColumns = map[string]string{
	"evaluated_at": "evaluated_at",
	"rule_name":    "rule_name",
	"steps":        "steps",
	"duration":     "duration_us",
}

// SQLiteConfig contains configuration for SQLite storage.
type SQLiteConfig struct {
	// Path is the database file path
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// WALMode enables write-ahead logging
	WALMode bool

	// BusyTimeout is the busy timeout in milliseconds
	BusyTimeout int
}

// DefaultSQLiteConfig returns a default SQLite configuration.
func DefaultSQLiteConfig(path string) *SQLiteConfig {
	return &SQLiteConfig{
		Path:         path,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5000,
	}
}

// SQLiteStorage implements audit.Storage backed by a SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(config *SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if config == nil {
		return nil, audit.NewStorageError("sqlite", "configure", fmt.Errorf("config is nil"))
	}
	if config.Path == "" {
		return nil, audit.NewStorageError("sqlite", "configure", fmt.Errorf("database path is empty"))
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger.With("component", "audit_storage"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("sqlite audit storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode)

	return s, nil
}

// initialize applies pragmas and creates the schema.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return audit.NewStorageError("sqlite", "initialize", err)
		}
	}

	if s.config.BusyTimeout > 0 {
		pragma := fmt.Sprintf("PRAGMA busy_timeout=%d", s.config.BusyTimeout)
		if _, err := s.db.Exec(pragma); err != nil {
			return audit.NewStorageError("sqlite", "initialize", err)
		}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return audit.NewStorageError("sqlite", "migrate", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "migrate", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return audit.NewStorageError("sqlite", "migrate", err)
	}
	if version != SchemaVersion {
		return audit.NewStorageError("sqlite", "migrate",
			fmt.Errorf("schema version mismatch: have %d, want %d", version, SchemaVersion))
	}

	return nil
}

// Store persists an audit record.
func (s *SQLiteStorage) Store(ctx context.Context, record *audit.Record) error {
	if record == nil {
		return audit.NewStorageError("sqlite", "store", fmt.Errorf("record is nil"))
	}
	if record.ID == "" {
		return audit.NewStorageError("sqlite", "store", fmt.Errorf("record ID is empty"))
	}

	var history any
	if len(record.History) > 0 {
		data, err := json.Marshal(record.History)
		if err != nil {
			return audit.NewStorageError("sqlite", "store", err)
		}
		history = string(data)
	}

	var errText, errKind any
	if record.Error != "" {
		errText = record.Error
	}
	if record.ErrorKind != "" {
		errKind = record.ErrorKind
	}

	query := `
		INSERT INTO evaluations (
			id, rule_name, evaluated_at, recorded_at,
			verdict, steps, history, fact_count, duration_us,
			error, error_kind
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.RuleName,
		record.EvaluatedAt,
		record.RecordedAt,
		record.Verdict,
		record.Steps,
		history,
		record.FactCount,
		record.Duration.Microseconds(),
		errText,
		errKind,
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "store", err)
	}

	return nil
}

// Query retrieves audit records matching the query.
func (s *SQLiteStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	if query == nil {
		query = &audit.Query{}
	}

	where, args := buildWhereClause(query)

	orderBy, err := buildOrderClause(query)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	sqlQuery := fmt.Sprintf(`
		SELECT id, rule_name, evaluated_at, recorded_at,
		       verdict, steps, history, fact_count, duration_us,
		       error, error_kind
		FROM evaluations
		%s
		%s
		LIMIT ? OFFSET ?
	`, where, orderBy)

	args = append(args, limit, query.Offset)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, audit.NewQueryError(query, err)
	}
	defer rows.Close()

	var records []*audit.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, audit.NewQueryError(query, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewQueryError(query, err)
	}

	return records, nil
}

// Count returns the number of records matching the query.
func (s *SQLiteStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	if query == nil {
		query = &audit.Query{}
	}

	where, args := buildWhereClause(query)
	sqlQuery := fmt.Sprintf("SELECT COUNT(*) FROM evaluations %s", where)

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, audit.NewQueryError(query, err)
	}

	return count, nil
}

// Delete removes records matching the query and returns the number removed.
func (s *SQLiteStorage) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	if query == nil {
		query = &audit.Query{}
	}

	where, args := buildWhereClause(query)
	sqlQuery := fmt.Sprintf("DELETE FROM evaluations %s", where)

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}

	if deleted > 0 {
		s.logger.Debug("deleted audit records", "count", deleted)
	}

	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return audit.NewStorageError("sqlite", "close", err)
	}
	return nil
}

// buildWhereClause builds the WHERE clause and arguments for a query.
func buildWhereClause(query *audit.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "evaluated_at >= ?")
		args = append(args, *query.StartTime)
	}
	if query.EndTime != nil {
		conditions = append(conditions, "evaluated_at <= ?")
		args = append(args, *query.EndTime)
	}
	if query.RuleName != "" {
		conditions = append(conditions, "rule_name = ?")
		args = append(args, query.RuleName)
	}
	if query.Verdict != nil {
		conditions = append(conditions, "verdict = ?")
		args = append(args, *query.Verdict)
	}
	if query.ErrorKind != "" {
		conditions = append(conditions, "error_kind = ?")
		args = append(args, query.ErrorKind)
	}
	switch query.Status {
	case "success":
		conditions = append(conditions, "error IS NULL")
	case "error":
		conditions = append(conditions, "error IS NOT NULL")
	}
	if query.MinSteps != nil {
		conditions = append(conditions, "steps >= ?")
		args = append(args, *query.MinSteps)
	}
	if query.MaxSteps != nil {
		conditions = append(conditions, "steps <= ?")
		args = append(args, *query.MaxSteps)
	}

	if len(conditions) == 0 {
		return "", nil
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// buildOrderClause builds the ORDER BY clause, restricting sort fields to
// known columns.
func buildOrderClause(query *audit.Query) (string, error) {
	field := query.SortBy
	if field == "" {
		field = "evaluated_at"
	}

	column, ok := sortColumns[field]
	if !ok {
		return "", audit.NewQueryError(query, fmt.Errorf("unknown sort field %q", field))
	}

	order := strings.ToLower(query.SortOrder)
	switch order {
	case "":
		order = "desc"
	case "asc", "desc":
	default:
		return "", audit.NewQueryError(query, fmt.Errorf("unknown sort order %q", query.SortOrder))
	}

	return fmt.Sprintf("ORDER BY %s %s", column, strings.ToUpper(order)), nil
}

// scanRecord scans a single row into an audit record.
func scanRecord(rows *sql.Rows) (*audit.Record, error) {
	var record audit.Record
	var evaluatedAt, recordedAt time.Time
	var history, errText, errKind sql.NullString
	var durationUS int64

	err := rows.Scan(
		&record.ID,
		&record.RuleName,
		&evaluatedAt,
		&recordedAt,
		&record.Verdict,
		&record.Steps,
		&history,
		&record.FactCount,
		&durationUS,
		&errText,
		&errKind,
	)
	if err != nil {
		return nil, err
	}

	record.EvaluatedAt = evaluatedAt
	record.RecordedAt = recordedAt
	record.Duration = time.Duration(durationUS) * time.Microsecond
	record.Error = errText.String
	record.ErrorKind = errKind.String

	if history.Valid && history.String != "" {
		if err := json.Unmarshal([]byte(history.String), &record.History); err != nil {
			return nil, fmt.Errorf("unmarshal history: %w", err)
		}
	}

	return &record, nil
}
