package validator

import (
	"fmt"
	"regexp"

	"kestrel-hq/verdict/pkg/rule/ast"
	ruleErrors "kestrel-hq/verdict/pkg/rule/errors"
)

// SemanticValidator validates operator usage in rule trees.
// It checks that every operator is recognized and that operand shapes match
// what the operator expects at evaluation time.
type SemanticValidator struct {
	errors *ruleErrors.ErrorList
}

// NewSemanticValidator creates a new semantic validator.
func NewSemanticValidator() *SemanticValidator {
	return &SemanticValidator{
		errors: ruleErrors.NewErrorList(),
	}
}

// Validate performs semantic validation on a ruleset.
func (v *SemanticValidator) Validate(rs *ast.Ruleset) error {
	v.errors = ruleErrors.NewErrorList()

	if rs == nil {
		return nil
	}

	for _, rule := range rs.Rules {
		if rule.When != nil {
			v.validateNode(rule.When, rule.Name)
		}
	}

	return v.errors.ToError()
}

// validateNode walks a tree, checking comparisons and recursing into groups.
func (v *SemanticValidator) validateNode(node *ast.Node, ruleName string) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case ast.KindAtomic:
		v.validateComparison(node, ruleName)

	case ast.KindAll:
		for _, child := range node.All {
			v.validateNode(child, ruleName)
		}

	case ast.KindAny:
		for _, child := range node.Any {
			v.validateNode(child, ruleName)
		}

	case ast.KindCombined:
		for _, child := range node.All {
			v.validateNode(child, ruleName)
		}
		for _, child := range node.Any {
			v.validateNode(child, ruleName)
		}
	}
}

// validateComparison checks a single comparison node.
func (v *SemanticValidator) validateComparison(node *ast.Node, ruleName string) {
	op := node.Operator
	if op == "" {
		// Reported by the structural pass.
		return
	}

	if !op.Valid() {
		v.errors.AddErrorWithSuggestion(
			ruleErrors.ErrorTypeOperator,
			fmt.Sprintf("%s uses unknown operator %q", rulePrefix(ruleName), op),
			node.Location,
			ruleErrors.SuggestOperator(string(op)),
		)
		return
	}

	switch op {
	case ast.OperatorBetween:
		v.validateBetweenValue(node, ruleName)

	case ast.OperatorSize, ast.OperatorSmaller, ast.OperatorBigger:
		if !isNumeric(node.Value) {
			v.errors.AddErrorWithSuggestion(
				ruleErrors.ErrorTypeOperator,
				fmt.Sprintf("%s uses operator %q with non-numeric value %v", rulePrefix(ruleName), op, node.Value),
				node.Location,
				"Provide a number to compare the length against",
			)
		}

	case ast.OperatorWithinLast:
		if !isNumeric(node.Value) {
			v.errors.AddErrorWithSuggestion(
				ruleErrors.ErrorTypeOperator,
				fmt.Sprintf("%s uses operator %q with non-numeric value %v", rulePrefix(ruleName), op, node.Value),
				node.Location,
				"Provide a window in milliseconds, e.g. 86400000 for one day",
			)
		}

	case ast.OperatorRegex, ast.OperatorMatches:
		v.validateRegexValue(node, ruleName)

	case ast.OperatorIn, ast.OperatorNotIn:
		if _, ok := node.Value.([]any); !ok {
			v.errors.AddErrorWithSuggestion(
				ruleErrors.ErrorTypeOperator,
				fmt.Sprintf("%s uses operator %q with non-sequence value %v", rulePrefix(ruleName), op, node.Value),
				node.Location,
				"Provide a sequence of candidate values, e.g. [red, green, blue]",
			)
		}
	}
}

// validateBetweenValue checks that a between operand is a two-element numeric
// range.
func (v *SemanticValidator) validateBetweenValue(node *ast.Node, ruleName string) {
	vals, ok := node.Value.([]any)
	if !ok || len(vals) != 2 {
		v.errors.AddErrorWithSuggestion(
			ruleErrors.ErrorTypeOperator,
			fmt.Sprintf("%s uses operator \"between\" with value %v", rulePrefix(ruleName), node.Value),
			node.Location,
			"Provide a two-element range, e.g. [18, 65]",
		)
		return
	}

	for _, bound := range vals {
		if !isNumeric(bound) {
			v.errors.AddError(
				ruleErrors.ErrorTypeOperator,
				fmt.Sprintf("%s uses operator \"between\" with non-numeric bound %v", rulePrefix(ruleName), bound),
				node.Location,
			)
		}
	}
}

// validateRegexValue checks that a regex operand is a compilable pattern.
func (v *SemanticValidator) validateRegexValue(node *ast.Node, ruleName string) {
	pattern, ok := node.Value.(string)
	if !ok {
		v.errors.AddErrorWithSuggestion(
			ruleErrors.ErrorTypeOperator,
			fmt.Sprintf("%s uses operator %q with non-string pattern %v", rulePrefix(ruleName), node.Operator, node.Value),
			node.Location,
			"Provide a regular expression as a string",
		)
		return
	}

	if _, err := regexp.Compile(pattern); err != nil {
		v.errors.AddError(
			ruleErrors.ErrorTypeOperator,
			fmt.Sprintf("%s has invalid regular expression %q: %v", rulePrefix(ruleName), pattern, err),
			node.Location,
		)
	}
}

// isNumeric reports whether a decoded document value is a number.
func isNumeric(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
