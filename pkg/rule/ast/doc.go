// Package ast defines the rule grammar: a recursive tagged union of atomic
// conditions and boolean combinators, plus the named-ruleset wrapper used by
// rule documents.
//
// # The Grammar
//
// A rule tree is built from four node shapes:
//
//	Atomic    {fact, operator, value}   compare a named fact against a literal
//	All       {all: [...]}              true iff every child is true
//	Any       {any: [...]}              true iff at least one child is true
//	Combined  {all: [...], any: [...]}  true iff both groups are true
//
// Node carries all fields of all shapes; Kind derives which shape applies.
// A node that matches no shape evaluates to an InvalidRuleStructure error,
// not a panic: trees usually arrive from JSON or YAML with no static
// guarantee, so validity is a runtime property.
//
// # Building Trees
//
// Programmatic construction uses the small constructors:
//
//	rule := ast.AnyOf(
//	    ast.AllOf(
//	        ast.Atomic("age", ast.OperatorGreaterThan, 18),
//	        ast.Atomic("status", ast.OperatorEqual, "single"),
//	    ),
//	    ast.Atomic("income", ast.OperatorGreaterThan, 50000),
//	)
//
// Trees round-trip through encoding/json and yaml.v3 using the wire field
// names fact, operator, value, all, any.
//
// # Rulesets
//
// A Ruleset names a collection of rules, matching the document format the
// parser package reads. Rules in a set are independent; evaluating a set
// yields one verdict per member rule.
//
// # Immutability
//
// Nodes are treated as immutable after construction. The engine never
// mutates a tree; evaluation traces reference the caller's nodes directly.
package ast
