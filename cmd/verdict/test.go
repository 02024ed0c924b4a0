package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"kestrel-hq/verdict/pkg/cli"
	"kestrel-hq/verdict/pkg/engine"
	"kestrel-hq/verdict/pkg/rule"
	"kestrel-hq/verdict/pkg/rule/ast"
)

var testFlags struct {
	rulesFile string
	testsFile string
	format    string
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run ruleset unit tests",
	Long: `Execute a test suite against a ruleset document.

Each test case names a rule from the ruleset, supplies a facts document, and
states the expected verdict or expected evaluation error kind.

Test Case Format (YAML):
  tests:
    - name: "adults pass the age gate"
      rule: "adult"
      facts:
        age: 25
      expect:
        verdict: true

    - name: "non-numeric age is a type error"
      rule: "adult"
      facts:
        age: "twenty"
      expect:
        error: "unsupported_type"

Examples:
  # Run a test suite
  verdict test --rules rules.yaml --tests rules_test.yaml

  # JSON output for CI
  verdict test --rules rules.yaml --tests rules_test.yaml --format json`,
	RunE: runRuleTests,
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().StringVarP(&testFlags.rulesFile, "rules", "r", "", "ruleset file to test")
	testCmd.Flags().StringVarP(&testFlags.testsFile, "tests", "t", "", "test case file")
	testCmd.Flags().StringVar(&testFlags.format, "format", "text", "output format: text, json")

	if err := testCmd.MarkFlagRequired("rules"); err != nil {
		panic(fmt.Sprintf("failed to mark rules flag as required: %v", err))
	}
	if err := testCmd.MarkFlagRequired("tests"); err != nil {
		panic(fmt.Sprintf("failed to mark tests flag as required: %v", err))
	}
}

// TestSuite is a collection of test cases.
type TestSuite struct {
	Tests []TestCase `yaml:"tests"`
}

// TestCase is a single expected-outcome check for one rule.
type TestCase struct {
	Name   string          `yaml:"name"`
	Rule   string          `yaml:"rule"`
	Facts  map[string]any  `yaml:"facts"`
	Expect TestExpectation `yaml:"expect"`
}

// TestExpectation is the expected result of a test case. Either a verdict
// or an error kind; when Error is set the verdict is ignored.
type TestExpectation struct {
	Verdict bool   `yaml:"verdict"`
	Error   string `yaml:"error,omitempty"`
}

// TestResult is the outcome of executing a single test case.
type TestResult struct {
	TestName      string  `json:"test"`
	Passed        bool    `json:"passed"`
	ActualVerdict bool    `json:"actual_verdict"`
	ActualError   string  `json:"actual_error,omitempty"`
	Failure       string  `json:"failure,omitempty"`
	DurationMS    float64 `json:"duration_ms"`
}

func runRuleTests(cmd *cobra.Command, args []string) error {
	rs, err := rule.ParseAndValidate(testFlags.rulesFile)
	if err != nil {
		return cli.NewCommandError("test", fmt.Errorf("failed to load ruleset: %w", err))
	}

	suite, err := loadTestSuite(testFlags.testsFile)
	if err != nil {
		return cli.NewCommandError("test", fmt.Errorf("failed to load test cases: %w", err))
	}

	if len(suite.Tests) == 0 {
		return fmt.Errorf("no test cases found in %s", testFlags.testsFile)
	}

	eng := engine.New(nil, newLogger())

	results := make([]TestResult, 0, len(suite.Tests))
	passed := 0
	failed := 0

	for i, testCase := range suite.Tests {
		if testCase.Name == "" {
			testCase.Name = fmt.Sprintf("case %d", i+1)
		}

		result := runTestCase(eng, rs, testCase)
		results = append(results, result)

		if result.Passed {
			passed++
		} else {
			failed++
		}
	}

	if testFlags.format == "json" {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, results); err != nil {
			return err
		}
	} else {
		outputTestText(results, passed, failed)
	}

	if failed > 0 {
		return cli.NewCommandError("test", fmt.Errorf("test failures"))
	}

	return nil
}

func loadTestSuite(path string) (*TestSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &suite, nil
}

func runTestCase(eng *engine.Engine, rs *ast.Ruleset, testCase TestCase) TestResult {
	start := time.Now()

	result := TestResult{
		TestName: testCase.Name,
	}

	if testCase.Rule == "" {
		result.Failure = "test case does not name a rule"
		return result
	}

	named := rs.Rule(testCase.Rule)
	if named == nil {
		result.Failure = fmt.Sprintf("rule %q not found in ruleset %q", testCase.Rule, rs.Name)
		return result
	}

	outcome, err := eng.Evaluate(engine.Facts(testCase.Facts), named.When)
	result.DurationMS = float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		result.ActualError = engine.ErrorKind(err)
		if testCase.Expect.Error != "" {
			if result.ActualError == testCase.Expect.Error {
				result.Passed = true
			} else {
				result.Failure = fmt.Sprintf("expected error kind %q, got %q", testCase.Expect.Error, result.ActualError)
			}
			return result
		}
		result.Failure = fmt.Sprintf("unexpected evaluation error [%s]: %v", result.ActualError, err)
		return result
	}

	result.ActualVerdict = outcome.Result

	if testCase.Expect.Error != "" {
		result.Failure = fmt.Sprintf("expected error kind %q, got verdict %v", testCase.Expect.Error, outcome.Result)
		return result
	}

	if outcome.Result == testCase.Expect.Verdict {
		result.Passed = true
	} else {
		result.Failure = fmt.Sprintf("expected verdict %v, got %v", testCase.Expect.Verdict, outcome.Result)
	}

	return result
}

func outputTestText(results []TestResult, passed, failed int) {
	fmt.Println("Running ruleset tests...")
	fmt.Println()

	for _, result := range results {
		if result.Passed {
			fmt.Printf("✓ %s (%.1fms)\n", result.TestName, result.DurationMS)
			continue
		}
		fmt.Printf("✗ %s\n", result.TestName)
		fmt.Printf("  %s\n", result.Failure)
	}

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  %d tests run, %d passed, %d failed\n", len(results), passed, failed)

	if failed > 0 {
		fmt.Println()
		fmt.Println("Failed tests:")
		for _, result := range results {
			if !result.Passed {
				fmt.Printf("  - %s\n", result.TestName)
			}
		}
	}
}
