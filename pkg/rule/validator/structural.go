package validator

import (
	"fmt"

	"kestrel-hq/verdict/pkg/rule/ast"
	ruleErrors "kestrel-hq/verdict/pkg/rule/errors"
)

// StructuralValidator validates the structural integrity of a ruleset.
// It checks required fields, rule uniqueness, and node shape.
type StructuralValidator struct {
	errors *ruleErrors.ErrorList
	strict bool
}

// NewStructuralValidator creates a new structural validator.
func NewStructuralValidator() *StructuralValidator {
	return &StructuralValidator{
		errors: ruleErrors.NewErrorList(),
	}
}

// Validate performs structural validation on a ruleset.
// It returns an ErrorList containing all structural errors found.
func (v *StructuralValidator) Validate(rs *ast.Ruleset) error {
	v.errors = ruleErrors.NewErrorList()

	if rs == nil {
		v.errors.AddError(
			ruleErrors.ErrorTypeStructural,
			"Ruleset is nil",
			ast.Location{},
		)
		return v.errors.ToError()
	}

	v.validateMetadata(rs)
	v.validateRules(rs)

	return v.errors.ToError()
}

// validateMetadata validates ruleset-level fields.
func (v *StructuralValidator) validateMetadata(rs *ast.Ruleset) {
	if rs.Name == "" {
		v.errors.AddErrorWithSuggestion(
			ruleErrors.ErrorTypeStructural,
			"Missing required field 'name'",
			rs.Location,
			ruleErrors.SuggestMissingField("name", `"my-ruleset"`),
		)
	}

	if len(rs.Rules) == 0 {
		v.errors.AddErrorWithSuggestion(
			ruleErrors.ErrorTypeStructural,
			"Ruleset must contain at least one rule",
			rs.Location,
			"Add a 'rules' section with at least one rule",
		)
	}
}

// validateRules validates all rules in the ruleset.
func (v *StructuralValidator) validateRules(rs *ast.Ruleset) {
	ruleNames := make(map[string]bool)

	for i, rule := range rs.Rules {
		if rule.Name == "" {
			v.errors.AddErrorWithSuggestion(
				ruleErrors.ErrorTypeStructural,
				fmt.Sprintf("Rule at index %d missing required field 'name'", i),
				rule.Location,
				"Add a unique name for this rule",
			)
			continue
		}

		if ruleNames[rule.Name] {
			v.errors.AddError(
				ruleErrors.ErrorTypeStructural,
				fmt.Sprintf("Duplicate rule name %q", rule.Name),
				rule.Location,
			)
		}
		ruleNames[rule.Name] = true

		if rule.When == nil {
			v.errors.AddErrorWithSuggestion(
				ruleErrors.ErrorTypeStructural,
				fmt.Sprintf("Rule %q has no condition tree", rule.Name),
				rule.Location,
				"Add a 'when' section with a comparison or an 'all'/'any' group",
			)
			continue
		}

		v.validateNode(rule.When, rule.Name)
	}
}

// validateNode validates the shape of a single tree node and recurses into
// group children.
func (v *StructuralValidator) validateNode(node *ast.Node, ruleName string) {
	if node == nil {
		v.errors.AddError(
			ruleErrors.ErrorTypeStructural,
			fmt.Sprintf("%s contains a nil node", rulePrefix(ruleName)),
			ast.Location{},
		)
		return
	}

	switch node.Kind() {
	case ast.KindInvalid:
		v.errors.AddErrorWithSuggestion(
			ruleErrors.ErrorTypeStructural,
			fmt.Sprintf("%s has a node that is neither a comparison nor a group", rulePrefix(ruleName)),
			node.Location,
			"Provide 'fact' and 'operator', or an 'all'/'any' group",
		)

	case ast.KindAtomic:
		if node.Operator == "" {
			v.errors.AddErrorWithSuggestion(
				ruleErrors.ErrorTypeStructural,
				fmt.Sprintf("%s compares fact %q without an 'operator'", rulePrefix(ruleName), node.Fact),
				node.Location,
				"Add an 'operator' such as 'equal' or 'greaterThan'",
			)
		}
		// A comparison with group keys is evaluated as a comparison and the
		// groups are silently ignored. Almost always an authoring mistake.
		if v.strict && (node.All != nil || node.Any != nil) {
			v.errors.AddErrorWithSuggestion(
				ruleErrors.ErrorTypeStructural,
				fmt.Sprintf("%s mixes 'fact' with 'all'/'any' groups on one node", rulePrefix(ruleName)),
				node.Location,
				"Move the groups to a separate node; a comparison node ignores them",
			)
		}

	case ast.KindAll:
		v.validateGroup(node.All, "all", node, ruleName)

	case ast.KindAny:
		v.validateGroup(node.Any, "any", node, ruleName)

	case ast.KindCombined:
		v.validateGroup(node.All, "all", node, ruleName)
		v.validateGroup(node.Any, "any", node, ruleName)
	}
}

// validateGroup checks group emptiness and recurses into children.
func (v *StructuralValidator) validateGroup(children []*ast.Node, key string, node *ast.Node, ruleName string) {
	if len(children) == 0 && v.strict {
		outcome := "always passes"
		if key == "any" {
			outcome = "never passes"
		}
		v.errors.AddErrorWithSuggestion(
			ruleErrors.ErrorTypeStructural,
			fmt.Sprintf("%s has an empty %q group, which %s", rulePrefix(ruleName), key, outcome),
			node.Location,
			"Add at least one child condition or remove the group",
		)
	}

	for _, child := range children {
		v.validateNode(child, ruleName)
	}
}

// rulePrefix names the subject of a diagnostic. Bare trees validated outside
// a ruleset have no rule name.
func rulePrefix(ruleName string) string {
	if ruleName == "" {
		return "Rule"
	}
	return fmt.Sprintf("Rule %q", ruleName)
}
