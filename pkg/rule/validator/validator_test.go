package validator

import (
	"strings"
	"testing"

	"kestrel-hq/verdict/pkg/rule/ast"
	ruleErrors "kestrel-hq/verdict/pkg/rule/errors"
)

func singleRule(node *ast.Node) *ast.Ruleset {
	return &ast.Ruleset{
		Name: "test-rules",
		Rules: []*ast.NamedRule{
			{Name: "rule1", When: node},
		},
	}
}

func TestStructuralValidator_Metadata(t *testing.T) {
	tests := []struct {
		name    string
		ruleset *ast.Ruleset
		wantErr bool
	}{
		{
			name:    "valid ruleset",
			ruleset: singleRule(ast.Atomic("age", ast.OperatorGreaterThan, 18)),
			wantErr: false,
		},
		{
			name: "missing name",
			ruleset: &ast.Ruleset{
				Rules: []*ast.NamedRule{
					{Name: "rule1", When: ast.Atomic("age", ast.OperatorGreaterThan, 18)},
				},
			},
			wantErr: true,
		},
		{
			name:    "no rules",
			ruleset: &ast.Ruleset{Name: "empty"},
			wantErr: true,
		},
		{
			name:    "nil ruleset",
			ruleset: nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStructuralValidator().Validate(tt.ruleset)

			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				errList, ok := err.(*ruleErrors.ErrorList)
				if !ok {
					t.Fatalf("Expected ErrorList, got %T", err)
				}
				if !errList.HasErrorType(ruleErrors.ErrorTypeStructural) {
					t.Errorf("Expected structural error, got: %v", errList.Errors)
				}
			}
		})
	}
}

func TestStructuralValidator_Rules(t *testing.T) {
	tests := []struct {
		name    string
		ruleset *ast.Ruleset
		wantErr bool
	}{
		{
			name: "duplicate rule names",
			ruleset: &ast.Ruleset{
				Name: "test-rules",
				Rules: []*ast.NamedRule{
					{Name: "rule1", When: ast.Atomic("a", ast.OperatorEqual, 1)},
					{Name: "rule1", When: ast.Atomic("b", ast.OperatorEqual, 2)},
				},
			},
			wantErr: true,
		},
		{
			name: "rule missing name",
			ruleset: &ast.Ruleset{
				Name: "test-rules",
				Rules: []*ast.NamedRule{
					{When: ast.Atomic("a", ast.OperatorEqual, 1)},
				},
			},
			wantErr: true,
		},
		{
			name: "rule missing tree",
			ruleset: &ast.Ruleset{
				Name:  "test-rules",
				Rules: []*ast.NamedRule{{Name: "rule1"}},
			},
			wantErr: true,
		},
		{
			name:    "node with neither comparison nor group",
			ruleset: singleRule(&ast.Node{}),
			wantErr: true,
		},
		{
			name:    "comparison missing operator",
			ruleset: singleRule(&ast.Node{Fact: "age", Value: 18}),
			wantErr: true,
		},
		{
			name: "nested groups",
			ruleset: singleRule(ast.AnyOf(
				ast.AllOf(
					ast.Atomic("age", ast.OperatorGreaterThan, 18),
					ast.Atomic("status", ast.OperatorEqual, "single"),
				),
				ast.Atomic("income", ast.OperatorGreaterThan, 50000),
			)),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStructuralValidator().Validate(tt.ruleset)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStructuralValidator_Strict(t *testing.T) {
	tests := []struct {
		name string
		node *ast.Node
	}{
		{
			name: "empty all group",
			node: ast.AllOf(),
		},
		{
			name: "empty any group",
			node: ast.AnyOf(),
		},
		{
			name: "comparison node with groups attached",
			node: &ast.Node{
				Fact:     "age",
				Operator: ast.OperatorGreaterThan,
				Value:    18,
				All:      []*ast.Node{ast.Atomic("status", ast.OperatorEqual, "single")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := singleRule(tt.node)

			if err := NewStructuralValidator().Validate(rs); err != nil {
				t.Errorf("default mode rejected tolerated shape: %v", err)
			}

			strict := NewStructuralValidator()
			strict.strict = true
			if err := strict.Validate(rs); err == nil {
				t.Error("strict mode accepted advisory finding")
			}
		})
	}
}

func TestSemanticValidator_Operators(t *testing.T) {
	tests := []struct {
		name    string
		node    *ast.Node
		wantErr bool
	}{
		{
			name:    "known operator",
			node:    ast.Atomic("age", ast.OperatorGreaterThan, 18),
			wantErr: false,
		},
		{
			name:    "unknown operator",
			node:    ast.Atomic("age", "greater_than", 18),
			wantErr: true,
		},
		{
			name:    "between with valid range",
			node:    ast.Atomic("age", ast.OperatorBetween, []any{18, 65}),
			wantErr: false,
		},
		{
			name:    "between with one bound",
			node:    ast.Atomic("age", ast.OperatorBetween, []any{18}),
			wantErr: true,
		},
		{
			name:    "between with non-numeric bound",
			node:    ast.Atomic("age", ast.OperatorBetween, []any{18, "old"}),
			wantErr: true,
		},
		{
			name:    "size with numeric value",
			node:    ast.Atomic("tags", ast.OperatorSize, 3),
			wantErr: false,
		},
		{
			name:    "size with string value",
			node:    ast.Atomic("tags", ast.OperatorSize, "three"),
			wantErr: true,
		},
		{
			name:    "withinLast with non-numeric window",
			node:    ast.Atomic("lastSeen", ast.OperatorWithinLast, "1d"),
			wantErr: true,
		},
		{
			name:    "regex with valid pattern",
			node:    ast.Atomic("email", ast.OperatorRegex, `^[a-z]+@[a-z]+\.com$`),
			wantErr: false,
		},
		{
			name:    "regex with invalid pattern",
			node:    ast.Atomic("email", ast.OperatorRegex, "(unclosed"),
			wantErr: true,
		},
		{
			name:    "matches with non-string pattern",
			node:    ast.Atomic("email", ast.OperatorMatches, 42),
			wantErr: true,
		},
		{
			name:    "in with sequence",
			node:    ast.Atomic("country", ast.OperatorIn, []any{"USA", "Canada"}),
			wantErr: false,
		},
		{
			name:    "notIn with scalar",
			node:    ast.Atomic("country", ast.OperatorNotIn, "USA"),
			wantErr: true,
		},
		{
			name: "unknown operator inside nested group",
			node: ast.AllOf(
				ast.Atomic("age", ast.OperatorGreaterThan, 18),
				ast.AnyOf(ast.Atomic("status", "equals", "single")),
			),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSemanticValidator().Validate(singleRule(tt.node))

			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				errList, ok := err.(*ruleErrors.ErrorList)
				if !ok {
					t.Fatalf("Expected ErrorList, got %T", err)
				}
				if !errList.HasErrorType(ruleErrors.ErrorTypeOperator) {
					t.Errorf("Expected operator error, got: %v", errList.Errors)
				}
			}
		})
	}
}

func TestSemanticValidator_Suggestion(t *testing.T) {
	err := NewSemanticValidator().Validate(singleRule(ast.Atomic("age", "equals", 18)))
	if err == nil {
		t.Fatal("Validate() accepted unknown operator")
	}

	errList := err.(*ruleErrors.ErrorList)
	if len(errList.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1", len(errList.Errors))
	}
	if sug := errList.Errors[0].Suggestion; !strings.Contains(sug, "equal") {
		t.Errorf("Suggestion = %q, want mention of 'equal'", sug)
	}
}

func TestValidator_SkipsSemanticOnStructuralErrors(t *testing.T) {
	// The broken node shape would also trip the semantic pass; only the
	// structural finding should be reported.
	rs := &ast.Ruleset{
		Name: "test-rules",
		Rules: []*ast.NamedRule{
			{Name: "rule1", When: &ast.Node{}},
		},
	}

	err := NewValidator().Validate(rs)
	if err == nil {
		t.Fatal("Validate() accepted invalid node")
	}

	errList := err.(*ruleErrors.ErrorList)
	if errList.HasErrorType(ruleErrors.ErrorTypeOperator) {
		t.Error("semantic pass ran despite structural errors")
	}
}

func TestValidator_ValidateRule(t *testing.T) {
	v := NewValidator()

	valid := ast.AnyOf(
		ast.Atomic("age", ast.OperatorGreaterThan, 18),
		ast.Atomic("income", ast.OperatorGreaterThan, 50000),
	)
	if err := v.ValidateRule(valid); err != nil {
		t.Errorf("ValidateRule() rejected valid tree: %v", err)
	}

	invalid := ast.AllOf(ast.Atomic("age", "greater-than", 18))
	if err := v.ValidateRule(invalid); err == nil {
		t.Error("ValidateRule() accepted unknown operator")
	}
}
