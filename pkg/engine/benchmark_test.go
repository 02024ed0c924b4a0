package engine

import (
	"fmt"
	"testing"

	"kestrel-hq/verdict/pkg/rule/ast"
)

// BenchmarkEvaluate_Atomic benchmarks a single comparison
func BenchmarkEvaluate_Atomic(b *testing.B) {
	eng := New(nil, nil)
	facts := createBenchFacts()
	rules := ast.Atomic("age", ast.OperatorGreaterThanOrEqual, 18)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = eng.Evaluate(facts, rules)
	}
}

// BenchmarkEvaluate_Nested benchmarks a tree with nested combinators
func BenchmarkEvaluate_Nested(b *testing.B) {
	eng := New(nil, nil)
	facts := createBenchFacts()
	rules := ast.AllOf(
		ast.AnyOf(
			ast.Atomic("age", ast.OperatorGreaterThanOrEqual, 18),
			ast.Atomic("country", ast.OperatorIn, []any{"USA", "Canada"}),
		),
		ast.Atomic("income", ast.OperatorGreaterThan, 30000),
	)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = eng.Evaluate(facts, rules)
	}
}

// BenchmarkEvaluate_WideAll benchmarks trace accumulation over a wide group
func BenchmarkEvaluate_WideAll(b *testing.B) {
	eng := New(nil, nil)
	facts := createBenchFacts()
	rules := createWideAll(100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = eng.Evaluate(facts, rules)
	}
}

// BenchmarkEvaluate_Regex benchmarks matching with the compiled pattern cache
func BenchmarkEvaluate_Regex(b *testing.B) {
	eng := New(nil, nil)
	facts := Facts{"email": "user@example.com"}
	rules := ast.Atomic("email", ast.OperatorRegex, `^[a-z]+@[a-z]+\.com$`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = eng.Evaluate(facts, rules)
	}
}

// BenchmarkEvaluate_StringCollation benchmarks ordered string comparison
func BenchmarkEvaluate_StringCollation(b *testing.B) {
	eng := New(nil, nil)
	facts := Facts{"tier": "gold"}
	rules := ast.Atomic("tier", ast.OperatorGreaterThan, "bronze")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = eng.Evaluate(facts, rules)
	}
}

// BenchmarkEvaluateSet benchmarks evaluating every rule in a ruleset
func BenchmarkEvaluateSet(b *testing.B) {
	eng := New(nil, nil)
	facts := createBenchFacts()
	rs := createBenchRuleset(20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = eng.EvaluateSet(facts, rs)
	}
}

// Helper functions for benchmarks

func createBenchFacts() Facts {
	return Facts{
		"age":     25,
		"country": "USA",
		"income":  52000,
		"email":   "user@example.com",
		"tier":    "gold",
	}
}

func createWideAll(width int) *ast.Node {
	children := make([]*ast.Node, width)
	for i := 0; i < width; i++ {
		children[i] = ast.Atomic("age", ast.OperatorGreaterThanOrEqual, i%40)
	}
	return ast.AllOf(children...)
}

func createBenchRuleset(numRules int) *ast.Ruleset {
	rs := &ast.Ruleset{
		Name:    "bench-ruleset",
		Version: "1.0.0",
		Rules:   make([]*ast.NamedRule, numRules),
	}

	for i := 0; i < numRules; i++ {
		rs.Rules[i] = &ast.NamedRule{
			Name: fmt.Sprintf("bench-rule-%d", i),
			When: ast.AllOf(
				ast.Atomic("age", ast.OperatorGreaterThanOrEqual, 18),
				ast.Atomic("income", ast.OperatorGreaterThan, i*1000),
			),
		}
	}

	return rs
}
