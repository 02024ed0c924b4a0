// Verdict is a command-line toolkit for the verdict rule evaluation engine.
//
// It works with ruleset documents (YAML or JSON) and the evaluation audit
// trail:
//
//	# Validate ruleset files
//	verdict lint --file rules.yaml
//	verdict lint --dir rules/ --strict
//
//	# Evaluate a ruleset against a facts document
//	verdict eval --rules rules.yaml --facts facts.yaml
//
//	# Run a ruleset test suite
//	verdict test --rules rules.yaml --tests rules_test.yaml
//
//	# Query the evaluation audit trail
//	verdict audit query --db data/audit.db --rule adult --status error
//
//	# Measure evaluation throughput
//	verdict bench --rules rules.yaml --facts facts.yaml --iterations 100000
//
//	# Show version information
//	verdict version
package main

func main() {
	Execute()
}
