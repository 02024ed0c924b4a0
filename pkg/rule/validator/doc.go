// Package validator provides validation for rule documents.
//
// The validator performs two types of validation:
//
// 1. Structural Validation: Checks required fields, rule uniqueness, and node
// shape
//
// 2. Semantic Validation: Checks operator names and operand shapes
//
// # Basic Usage
//
// Validate a parsed ruleset:
//
//	rs, err := parser.NewParser().Parse("rules.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v := validator.NewValidator()
//	if err := v.Validate(rs); err != nil {
//	    if errList, ok := err.(*errors.ErrorList); ok {
//	        for _, e := range errList.Errors {
//	            fmt.Println(e.Error())
//	        }
//	    }
//	    log.Fatal(err)
//	}
//
// Bare trees without a ruleset wrapper go through ValidateRule:
//
//	node, _ := parser.NewParser().ParseRule(data, "rule.json")
//	if err := v.ValidateRule(node); err != nil {
//	    log.Fatal(err)
//	}
//
// # Validation Passes
//
// Structural validation checks:
//   - Required fields (ruleset name, rule names, condition trees)
//   - Rule uniqueness (no duplicate rule names)
//   - Node shape (every node is a comparison or an all/any group)
//
// Semantic validation checks:
//   - Operator names (unknown operators get a closest-match suggestion)
//   - between operands (two-element numeric range)
//   - size, smaller, bigger, withinLast operands (numeric)
//   - regex and matches operands (compilable pattern)
//   - in and notIn operands (sequence)
//
// Semantic validation runs only when structural validation passes, which
// prevents cascading errors.
//
// # Strict Mode
//
// The evaluator gives empty groups and mixed-form nodes a defined meaning, so
// by default the validator tolerates them. WithStrict(true) turns those
// findings into errors:
//
//	v := validator.NewValidator().WithStrict(true)
package validator
