// Package rule provides parsing and validation for rule documents.
//
// A rule document is a declarative YAML or JSON description of conditions
// over named facts. Documents are parsed into trees of comparison and group
// nodes, validated, and handed to the evaluation engine.
//
// # Architecture
//
// The package is organized into subpackages:
//
// - ast: tree and ruleset definitions for parsed documents
// - parser: YAML/JSON parsing and AST construction
// - validator: document validation (structural, semantic)
// - errors: rich error types with location and suggestions
//
// # Basic Usage
//
// Parse and validate a ruleset file:
//
//	rs, err := rule.ParseAndValidate("rules.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Ruleset:", rs.Name)
//	fmt.Println("Rules:", len(rs.Rules))
//
// # Document Structure
//
// A ruleset document consists of:
//
//	name: eligibility
//	description: Loan eligibility checks
//	version: "1.0"
//
//	rules:
//	  - name: adult-resident
//	    when:
//	      all:
//	        - fact: age
//	          operator: greaterThanOrEqual
//	          value: 18
//	        - fact: country
//	          operator: in
//	          value: [USA, Canada, UK]
//
// Each node under 'when' is either a comparison (fact, operator, value) or a
// group ('all' passes when every child passes, 'any' when at least one
// does). Groups nest to arbitrary depth. A bare sequence is shorthand for an
// 'all' group.
//
// Hosts that store single conditions rather than documents can parse a bare
// tree:
//
//	node, err := rule.ParseAndValidateRule(data, "rule.json")
//
// # Error Handling
//
// Parsing and validation return rich errors with location and suggestions:
//
//	if err := rule.Validate(rs); err != nil {
//	    if errList, ok := err.(*errors.ErrorList); ok {
//	        for _, e := range errList.Errors {
//	            fmt.Println(e.Error())
//	        }
//	    }
//	}
//
// Error format:
//
//	[operator] Rule "adult-resident" uses unknown operator "equals"
//	  --> rules.yaml:8:11
//	  |
//	   7 |         - fact: country
//	->  8 |           operator: equals
//	   9 |           value: USA
//	  |
//	  = suggestion: Did you mean 'equal'?
package rule
