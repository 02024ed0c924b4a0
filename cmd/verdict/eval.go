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
)

var evalFlags struct {
	rulesFile string
	factsFile string
	ruleName  string
	trace     bool
	format    string
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a ruleset against facts",
	Long: `Evaluate a ruleset document against a facts document.

The facts document is a flat YAML or JSON mapping from fact name to value:

  age: 25
  country: "DE"
  roles: ["admin", "audit"]

Every rule in the set is evaluated independently; a rule that fails with an
evaluation error does not stop the others.

Examples:
  # Evaluate every rule in the set
  verdict eval --rules rules.yaml --facts facts.yaml

  # Evaluate a single rule with the step trace
  verdict eval --rules rules.yaml --facts facts.yaml --rule adult --trace

  # JSON output
  verdict eval --rules rules.yaml --facts facts.yaml --format json`,
	RunE: evalRuleset,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalFlags.rulesFile, "rules", "r", "", "ruleset file to evaluate")
	evalCmd.Flags().StringVarP(&evalFlags.factsFile, "facts", "F", "", "facts file (YAML or JSON mapping)")
	evalCmd.Flags().StringVar(&evalFlags.ruleName, "rule", "", "evaluate only the named rule")
	evalCmd.Flags().BoolVar(&evalFlags.trace, "trace", false, "print the step-by-step evaluation trace")
	evalCmd.Flags().StringVar(&evalFlags.format, "format", "text", "output format: text, json")

	if err := evalCmd.MarkFlagRequired("rules"); err != nil {
		panic(fmt.Sprintf("failed to mark rules flag as required: %v", err))
	}
}

// EvalReport is the full output of one eval run.
type EvalReport struct {
	Ruleset string       `json:"ruleset"`
	Facts   int          `json:"facts"`
	Results []EvalResult `json:"results"`
}

// EvalResult is the outcome of evaluating a single named rule.
type EvalResult struct {
	Rule       string      `json:"rule"`
	Verdict    bool        `json:"verdict"`
	Steps      int         `json:"steps"`
	DurationMS float64     `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
	ErrorKind  string      `json:"error_kind,omitempty"`
	Trace      []TraceStep `json:"trace,omitempty"`
}

// TraceStep is one evaluation history entry. Atomic steps carry the
// comparison; combinator steps carry only the kind.
type TraceStep struct {
	Kind     string `json:"kind"`
	Fact     string `json:"fact,omitempty"`
	Operator string `json:"operator,omitempty"`
	Value    any    `json:"value,omitempty"`
	Result   bool   `json:"result"`
}

func evalRuleset(cmd *cobra.Command, args []string) error {
	rs, err := rule.ParseAndValidate(evalFlags.rulesFile)
	if err != nil {
		return cli.NewCommandError("eval", fmt.Errorf("failed to load ruleset: %w", err))
	}

	facts, err := readFacts(evalFlags.factsFile)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}

	eng := engine.New(nil, newLogger())

	report := &EvalReport{
		Ruleset: rs.Name,
		Facts:   len(facts),
	}

	if evalFlags.ruleName != "" {
		named := rs.Rule(evalFlags.ruleName)
		if named == nil {
			return fmt.Errorf("rule %q not found in ruleset %q", evalFlags.ruleName, rs.Name)
		}

		start := time.Now()
		outcome, err := eng.Evaluate(facts, named.When)
		report.Results = append(report.Results, evalResult(named.Name, outcome, err, time.Since(start)))
	} else {
		for _, res := range eng.EvaluateSet(facts, rs) {
			report.Results = append(report.Results, evalResult(res.Name, res.Outcome, res.Err, res.Duration))
		}
	}

	if evalFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, report)
	}
	outputEvalText(report)
	return nil
}

// readFacts loads a facts document. YAML is a superset of JSON here, so one
// decode path handles both. A missing path yields an empty facts map.
func readFacts(path string) (engine.Facts, error) {
	if path == "" {
		return engine.Facts{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read facts file: %w", err)
	}

	var facts map[string]any
	if err := yaml.Unmarshal(data, &facts); err != nil {
		return nil, fmt.Errorf("failed to parse facts file: %w", err)
	}
	if facts == nil {
		facts = map[string]any{}
	}

	return facts, nil
}

func evalResult(name string, outcome *engine.Outcome, err error, duration time.Duration) EvalResult {
	result := EvalResult{
		Rule:       name,
		DurationMS: float64(duration.Microseconds()) / 1000,
	}

	if err != nil {
		result.Error = err.Error()
		result.ErrorKind = engine.ErrorKind(err)
		return result
	}

	result.Verdict = outcome.Result
	result.Steps = outcome.Steps()

	if evalFlags.trace {
		result.Trace = traceSteps(outcome)
	}

	return result
}

func traceSteps(outcome *engine.Outcome) []TraceStep {
	steps := make([]TraceStep, 0, len(outcome.History))
	for _, entry := range outcome.History {
		step := TraceStep{
			Kind:   string(entry.Rule.Kind()),
			Result: entry.Result,
		}
		if entry.Rule.IsAtomic() {
			step.Fact = entry.Rule.Fact
			step.Operator = string(entry.Rule.Operator)
			step.Value = entry.Rule.Value
		}
		steps = append(steps, step)
	}
	return steps
}

func outputEvalText(report *EvalReport) {
	fmt.Printf("Ruleset: %s (%d rules)\n", report.Ruleset, len(report.Results))
	fmt.Printf("Facts: %d\n", report.Facts)
	fmt.Println()

	for _, result := range report.Results {
		if result.Error != "" {
			fmt.Printf("✗ %s: error [%s] %s\n", result.Rule, result.ErrorKind, result.Error)
			continue
		}

		mark := "✗"
		if result.Verdict {
			mark = "✓"
		}
		fmt.Printf("%s %s: %v (%.1fms, %d steps)\n",
			mark, result.Rule, result.Verdict, result.DurationMS, result.Steps)

		for _, step := range result.Trace {
			if step.Fact != "" {
				fmt.Printf("    %s %s %v => %v\n", step.Fact, step.Operator, step.Value, step.Result)
				continue
			}
			fmt.Printf("    [%s] => %v\n", step.Kind, step.Result)
		}
	}
}
