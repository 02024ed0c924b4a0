package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"kestrel-hq/verdict/pkg/cli"
	ruleErrors "kestrel-hq/verdict/pkg/rule/errors"
	"kestrel-hq/verdict/pkg/rule/parser"
	"kestrel-hq/verdict/pkg/rule/validator"
)

var lintFlags struct {
	file   string
	dir    string
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate ruleset files",
	Long: `Validate ruleset documents for syntax, structural, and semantic errors.

The lint command parses ruleset files and runs every validation pass:
  - YAML/JSON syntax
  - Document and rule-tree structure (every node atomic, all, any, or combined)
  - Operator names (unknown operators get a "did you mean" suggestion)
  - Operand shapes (between intervals, size thresholds, regex patterns)

Examples:
  # Lint a single file
  verdict lint --file rules.yaml

  # Lint a directory
  verdict lint --dir rules/

  # Strict mode (advisory findings become errors)
  verdict lint --file rules.yaml --strict

  # JSON output for CI
  verdict lint --file rules.yaml --format json`,
	RunE: lintRulesets,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "ruleset file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of ruleset files")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat advisory findings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

func lintRulesets(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return cli.NewUsageError("lint", "either --file or --dir must be specified")
	}

	var files []string

	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}

	if lintFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml", "*.json"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list ruleset files: %w", err)
			}
			files = append(files, matches...)
		}
	}

	if len(files) == 0 {
		return fmt.Errorf("no ruleset files found")
	}

	results := make([]ValidationResult, 0, len(files))

	for _, file := range files {
		results = append(results, validateRulesetFile(file))
	}

	if lintFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, results)
	}
	return outputLintText(results)
}

// ValidationResult is the validation outcome for a single ruleset file.
type ValidationResult struct {
	File   string            `json:"file"`
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// ValidationIssue is a single diagnostic with its source location.
type ValidationIssue struct {
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func validateRulesetFile(path string) ValidationResult {
	result := ValidationResult{
		File:  path,
		Valid: true,
	}

	p := parser.NewParser().WithStrictMode(lintFlags.strict)

	rs, err := p.Parse(path)
	if err != nil {
		result.Valid = false
		result.Issues = append(result.Issues, issuesFromError(err)...)
		return result
	}

	v := validator.NewValidator().WithStrict(lintFlags.strict)
	if err := v.Validate(rs); err != nil {
		result.Valid = false
		result.Issues = append(result.Issues, issuesFromError(err)...)
	}

	return result
}

// issuesFromError flattens parser and validator errors into issues. Both
// return either a single diagnostic or an accumulated list.
func issuesFromError(err error) []ValidationIssue {
	switch e := err.(type) {
	case *ruleErrors.ErrorList:
		issues := make([]ValidationIssue, 0, len(e.Errors))
		for _, diag := range e.Errors {
			issues = append(issues, issueFromDiagnostic(diag))
		}
		return issues
	case *ruleErrors.Error:
		return []ValidationIssue{issueFromDiagnostic(e)}
	default:
		return []ValidationIssue{{Message: err.Error()}}
	}
}

func issueFromDiagnostic(diag *ruleErrors.Error) ValidationIssue {
	return ValidationIssue{
		Line:       diag.Location.Line,
		Column:     diag.Location.Column,
		Message:    diag.Message,
		Type:       string(diag.Type),
		Suggestion: diag.Suggestion,
	}
}

func outputLintText(results []ValidationResult) error {
	totalIssues := 0

	for _, result := range results {
		fmt.Printf("Validating %s...\n", result.File)

		if result.Valid {
			fmt.Println("✓ Syntax valid")
			fmt.Println("✓ All rules have valid conditions")
		}

		for _, issue := range result.Issues {
			fmt.Printf("✗ Error: %s", issue.Message)
			if issue.Line > 0 {
				fmt.Printf(" (line %d", issue.Line)
				if issue.Column > 0 {
					fmt.Printf(", col %d", issue.Column)
				}
				fmt.Print(")")
			}
			if issue.Type != "" {
				fmt.Printf(" [%s]", issue.Type)
			}
			fmt.Println()
			if issue.Suggestion != "" {
				fmt.Printf("    suggestion: %s\n", issue.Suggestion)
			}
			totalIssues++
		}

		fmt.Println()
	}

	fmt.Println("Summary:")
	fmt.Printf("  %d file(s) checked, %d error(s)\n", len(results), totalIssues)

	if totalIssues > 0 {
		return cli.NewCommandError("lint", fmt.Errorf("validation failed"))
	}

	return nil
}
