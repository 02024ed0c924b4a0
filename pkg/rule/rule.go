package rule

import (
	"kestrel-hq/verdict/pkg/rule/ast"
	"kestrel-hq/verdict/pkg/rule/parser"
	"kestrel-hq/verdict/pkg/rule/validator"
)

// ParseAndValidate is a convenience function that parses and validates a rule
// document file. It returns the parsed AST if successful, or an error if
// parsing or validation fails.
func ParseAndValidate(path string) (*ast.Ruleset, error) {
	p := parser.NewParser()
	rs, err := p.Parse(path)
	if err != nil {
		return nil, err
	}

	v := validator.NewValidator()
	if err := v.Validate(rs); err != nil {
		return nil, err
	}

	return rs, nil
}

// ParseAndValidateBytes is a convenience function that parses and validates a
// rule document held in memory.
func ParseAndValidateBytes(data []byte, sourcePath string) (*ast.Ruleset, error) {
	p := parser.NewParser()
	rs, err := p.ParseBytes(data, sourcePath)
	if err != nil {
		return nil, err
	}

	v := validator.NewValidator()
	if err := v.Validate(rs); err != nil {
		return nil, err
	}

	return rs, nil
}

// ParseAndValidateRule parses and validates a bare rule tree without a
// ruleset wrapper, the shape hosts typically store as JSON.
func ParseAndValidateRule(data []byte, sourcePath string) (*ast.Node, error) {
	p := parser.NewParser()
	node, err := p.ParseRule(data, sourcePath)
	if err != nil {
		return nil, err
	}

	v := validator.NewValidator()
	if err := v.ValidateRule(node); err != nil {
		return nil, err
	}

	return node, nil
}

// Parse parses a rule document file without validation.
// Use this if you want to inspect the AST before validation.
func Parse(path string) (*ast.Ruleset, error) {
	p := parser.NewParser()
	return p.Parse(path)
}

// Validate validates a parsed ruleset.
func Validate(rs *ast.Ruleset) error {
	v := validator.NewValidator()
	return v.Validate(rs)
}
