// Package parser reads rule documents into ASTs.
//
// A rule document is a ruleset: a named collection of rules, each pairing a
// name with a rule tree under its "when" key:
//
//	name: eligibility
//	description: Loan eligibility checks
//	rules:
//	  - name: adult-resident
//	    when:
//	      all:
//	        - fact: age
//	          operator: greaterThanOrEqual
//	          value: 18
//	        - fact: country
//	          operator: in
//	          value: [USA, Canada]
//
// Documents may be YAML or JSON; JSON parses through the same decoder. A
// bare sequence under "when" is shorthand for an all group. ParseRule reads
// a document holding a single rule tree with no ruleset wrapper.
//
// # Usage
//
//	p := parser.NewParser()
//	rs, err := p.Parse("rules/eligibility.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Parsing preserves source locations on every AST node, so validator
// diagnostics point at the offending line. Structural problems are
// accumulated and returned together as an *errors.ErrorList.
//
// # Limits
//
// The parser enforces a maximum document size (default 10MB) and a maximum
// rule-tree nesting depth (default 10); both are configurable:
//
//	p := parser.NewParser().
//	    WithMaxFileSize(1 << 20).
//	    WithMaxDepth(5).
//	    WithStrictMode(true)
//
// Strict mode turns unknown document keys into errors; the default ignores
// them.
package parser
