package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"kestrel-hq/verdict/pkg/audit"
	"kestrel-hq/verdict/pkg/audit/storage"
	"kestrel-hq/verdict/pkg/cli"
)

var auditFlags struct {
	db        string
	timeRange string
	rule      string
	verdict   string
	status    string
	errorKind string
	limit     int
	offset    int
	sortBy    string
	order     string
	format    string
	output    string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the evaluation audit trail",
	Long: `Query and summarize recorded rule evaluations.

The audit command reads the SQLite audit database written by the evaluation
recorder.

Subcommands:
  query   - Query audit records with filters
  report  - Summary statistics for a time range

Examples:
  # Query the last day
  verdict audit query --db data/audit.db --time-range "2026-08-24T00:00:00Z/2026-08-25T00:00:00Z"

  # Failed evaluations for one rule
  verdict audit query --db data/audit.db --rule adult --status error

  # Export to JSON
  verdict audit query --db data/audit.db --format json --output records.json`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit records",
	Long: `Query audit records with filters.

Time Range Format:
  RFC3339 interval: "start/end"
  Example: "2026-08-24T00:00:00Z/2026-08-25T00:00:00Z"`,
	RunE: queryAudit,
}

var auditReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize audit records",
	Long:  `Aggregate verdict rates, error kinds, and per-rule counts over a time range.`,
	RunE:  auditReport,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditReportCmd)

	auditCmd.PersistentFlags().StringVar(&auditFlags.db, "db", "data/audit.db", "audit database path")
	auditCmd.PersistentFlags().StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")

	auditQueryCmd.Flags().StringVar(&auditFlags.rule, "rule", "", "filter by rule name")
	auditQueryCmd.Flags().StringVar(&auditFlags.verdict, "verdict", "", "filter by verdict: true, false")
	auditQueryCmd.Flags().StringVar(&auditFlags.status, "status", "", "filter by status: success, error")
	auditQueryCmd.Flags().StringVar(&auditFlags.errorKind, "error-kind", "", "filter by error kind")
	auditQueryCmd.Flags().IntVar(&auditFlags.limit, "limit", 100, "max results")
	auditQueryCmd.Flags().IntVar(&auditFlags.offset, "offset", 0, "pagination offset")
	auditQueryCmd.Flags().StringVar(&auditFlags.sortBy, "sort", "", "sort field: evaluated_at, rule_name, steps, duration")
	auditQueryCmd.Flags().StringVar(&auditFlags.order, "order", "", "sort order: asc, desc")
	auditQueryCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json")
	auditQueryCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file (default: stdout)")
}

// openAuditStore opens the audit database named by --db. The path must
// already exist so a typo cannot silently create an empty database.
func openAuditStore() (audit.Storage, error) {
	if _, err := os.Stat(auditFlags.db); err != nil {
		return nil, fmt.Errorf("no audit database at %s: %w", auditFlags.db, err)
	}
	return storage.NewSQLiteStorage(storage.DefaultSQLiteConfig(auditFlags.db), newLogger())
}

// parseTimeRange parses an RFC3339 "start/end" interval.
func parseTimeRange(s string) (*time.Time, *time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("invalid time range format (expected: start/end)")
	}

	startTime, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid start time: %w", err)
	}

	endTime, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid end time: %w", err)
	}

	return &startTime, &endTime, nil
}

func buildAuditQuery() (*audit.Query, error) {
	query := &audit.Query{
		RuleName:  auditFlags.rule,
		ErrorKind: auditFlags.errorKind,
		Limit:     auditFlags.limit,
		Offset:    auditFlags.offset,
		SortBy:    auditFlags.sortBy,
		SortOrder: auditFlags.order,
	}

	if auditFlags.timeRange != "" {
		start, end, err := parseTimeRange(auditFlags.timeRange)
		if err != nil {
			return nil, err
		}
		query.StartTime = start
		query.EndTime = end
	}

	switch auditFlags.verdict {
	case "":
	case "true", "false":
		verdict := auditFlags.verdict == "true"
		query.Verdict = &verdict
	default:
		return nil, cli.NewUsageError("audit", fmt.Sprintf("invalid verdict filter %q (expected: true, false)", auditFlags.verdict))
	}

	switch auditFlags.status {
	case "", "success", "error":
		query.Status = auditFlags.status
	default:
		return nil, cli.NewUsageError("audit", fmt.Sprintf("invalid status filter %q (expected: success, error)", auditFlags.status))
	}

	return query, nil
}

func queryAudit(cmd *cobra.Command, args []string) error {
	query, err := buildAuditQuery()
	if err != nil {
		return err
	}

	store, err := openAuditStore()
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer store.Close()

	records, err := store.Query(context.Background(), query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("query failed: %w", err))
	}

	var output io.Writer = os.Stdout
	if auditFlags.output != "" {
		file, err := os.Create(auditFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		output = file
	}

	if auditFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(output, map[string]any{
			"total_records": len(records),
			"records":       records,
		})
	}
	return outputAuditText(output, records, query)
}

func outputAuditText(output io.Writer, records []*audit.Record, query *audit.Query) error {
	fmt.Fprintln(output, "Querying audit records...")
	fmt.Fprintln(output)

	if query.StartTime != nil && query.EndTime != nil {
		fmt.Fprintf(output, "Time range: %s to %s\n",
			query.StartTime.Format(time.RFC3339),
			query.EndTime.Format(time.RFC3339))
	}
	fmt.Fprintf(output, "Total records: %d\n", len(records))
	fmt.Fprintln(output)

	if len(records) == 0 {
		fmt.Fprintln(output, "No records found.")
		return nil
	}

	for i, record := range records {
		if i > 0 {
			fmt.Fprintln(output)
		}

		fmt.Fprintf(output, "Record: %s\n", record.ID)
		fmt.Fprintf(output, "Rule: %s\n", record.RuleName)
		fmt.Fprintf(output, "Evaluated: %s\n", record.EvaluatedAt.Format(time.RFC3339))
		if record.Errored() {
			fmt.Fprintf(output, "Error: %s [%s]\n", record.Error, record.ErrorKind)
		} else {
			fmt.Fprintf(output, "Verdict: %v (%d steps)\n", record.Verdict, record.Steps)
		}
		fmt.Fprintf(output, "Facts: %d\n", record.FactCount)
		fmt.Fprintf(output, "Duration: %v\n", record.Duration)

		// Keep large result sets readable
		if i >= 9 && len(records) > 10 {
			remaining := len(records) - 10
			fmt.Fprintln(output)
			fmt.Fprintf(output, "... and %d more records\n", remaining)
			fmt.Fprintf(output, "Use --limit and --offset for pagination.\n")
			break
		}
	}

	return nil
}

func auditReport(cmd *cobra.Command, args []string) error {
	query := &audit.Query{}
	if auditFlags.timeRange != "" {
		start, end, err := parseTimeRange(auditFlags.timeRange)
		if err != nil {
			return err
		}
		query.StartTime = start
		query.EndTime = end
	}

	store, err := openAuditStore()
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer store.Close()

	ctx := context.Background()

	total, err := store.Count(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("count failed: %w", err))
	}
	if total == 0 {
		fmt.Println("No audit records found.")
		return nil
	}

	query.Limit = int(total)
	records, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("query failed: %w", err))
	}

	outputAuditReport(os.Stdout, records, query)
	return nil
}

type ruleStats struct {
	count    int
	verdicts int
	errors   int
}

func outputAuditReport(output io.Writer, records []*audit.Record, query *audit.Query) {
	fmt.Fprintln(output, "Audit Report")
	fmt.Fprintln(output, "============")

	if query.StartTime != nil && query.EndTime != nil {
		fmt.Fprintf(output, "Time Range: %s to %s\n",
			query.StartTime.Format("2006-01-02"),
			query.EndTime.Format("2006-01-02"))
	}
	fmt.Fprintf(output, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(output)

	trueCount := 0
	errorCount := 0
	totalSteps := 0
	var totalDuration time.Duration
	byRule := make(map[string]*ruleStats)
	byErrorKind := make(map[string]int)

	for _, record := range records {
		stats := byRule[record.RuleName]
		if stats == nil {
			stats = &ruleStats{}
			byRule[record.RuleName] = stats
		}
		stats.count++

		totalDuration += record.Duration

		if record.Errored() {
			errorCount++
			stats.errors++
			byErrorKind[record.ErrorKind]++
			continue
		}

		totalSteps += record.Steps
		if record.Verdict {
			trueCount++
			stats.verdicts++
		}
	}

	evaluated := len(records) - errorCount

	fmt.Fprintln(output, "Summary:")
	fmt.Fprintln(output, "--------")
	fmt.Fprintf(output, "Total Evaluations: %d\n", len(records))
	if evaluated > 0 {
		fmt.Fprintf(output, "Verdicts: %d true (%.0f%%), %d false (%.0f%%)\n",
			trueCount, percent(trueCount, evaluated),
			evaluated-trueCount, percent(evaluated-trueCount, evaluated))
		fmt.Fprintf(output, "Average Steps: %.1f\n", float64(totalSteps)/float64(evaluated))
	}
	if errorCount > 0 {
		fmt.Fprintf(output, "Errors: %d (%.0f%%)\n", errorCount, percent(errorCount, len(records)))
	}
	fmt.Fprintf(output, "Average Duration: %v\n", totalDuration/time.Duration(len(records)))
	fmt.Fprintln(output)

	fmt.Fprintln(output, "By Rule:")
	for _, name := range sortedKeys(byRule) {
		stats := byRule[name]
		line := fmt.Sprintf("  %s: %d evaluations", name, stats.count)
		if ok := stats.count - stats.errors; ok > 0 {
			line += fmt.Sprintf(" (%.0f%% true)", percent(stats.verdicts, ok))
		}
		if stats.errors > 0 {
			line += fmt.Sprintf(", %d errors", stats.errors)
		}
		fmt.Fprintln(output, line)
	}

	if len(byErrorKind) > 0 {
		fmt.Fprintln(output)
		fmt.Fprintln(output, "Error Kinds:")
		kinds := make([]string, 0, len(byErrorKind))
		for kind := range byErrorKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(output, "  %s: %d\n", kind, byErrorKind[kind])
		}
	}
}

func percent(part, whole int) float64 {
	return float64(part) / float64(whole) * 100
}

func sortedKeys(m map[string]*ruleStats) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
