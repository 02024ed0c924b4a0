package validator

import (
	"kestrel-hq/verdict/pkg/rule/ast"
	ruleErrors "kestrel-hq/verdict/pkg/rule/errors"
)

// Validator is the main validator that orchestrates all validation passes.
// It runs structural and semantic validation in sequence.
type Validator struct {
	structural *StructuralValidator
	semantic   *SemanticValidator
}

// NewValidator creates a new validator with all validation passes.
func NewValidator() *Validator {
	return &Validator{
		structural: NewStructuralValidator(),
		semantic:   NewSemanticValidator(),
	}
}

// WithStrict enables strict mode. In strict mode advisory findings (empty
// groups, nodes mixing comparison and group keys) become errors instead of
// being tolerated.
func (v *Validator) WithStrict(strict bool) *Validator {
	v.structural.strict = strict
	return v
}

// Validate runs all validation passes on a ruleset.
// It accumulates errors from all passes and returns them together.
func (v *Validator) Validate(rs *ast.Ruleset) error {
	errors := ruleErrors.NewErrorList()

	if err := v.structural.Validate(rs); err != nil {
		if errList, ok := err.(*ruleErrors.ErrorList); ok {
			errors.Merge(errList)
		}
	}

	// Run semantic validation only if structural validation passed.
	// This prevents cascading errors.
	if !errors.HasErrorType(ruleErrors.ErrorTypeStructural) {
		if err := v.semantic.Validate(rs); err != nil {
			if errList, ok := err.(*ruleErrors.ErrorList); ok {
				errors.Merge(errList)
			}
		}
	}

	return errors.ToError()
}

// ValidateRule validates a bare rule tree without a ruleset wrapper.
func (v *Validator) ValidateRule(node *ast.Node) error {
	errors := ruleErrors.NewErrorList()

	v.structural.errors = ruleErrors.NewErrorList()
	v.structural.validateNode(node, "")
	errors.Merge(v.structural.errors)

	if !errors.HasErrorType(ruleErrors.ErrorTypeStructural) {
		v.semantic.errors = ruleErrors.NewErrorList()
		v.semantic.validateNode(node, "")
		errors.Merge(v.semantic.errors)
	}

	return errors.ToError()
}

// ValidateStructural runs only structural validation.
func (v *Validator) ValidateStructural(rs *ast.Ruleset) error {
	return v.structural.Validate(rs)
}

// ValidateSemantic runs only semantic validation.
func (v *Validator) ValidateSemantic(rs *ast.Ruleset) error {
	return v.semantic.Validate(rs)
}
