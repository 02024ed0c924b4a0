package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"kestrel-hq/verdict/pkg/rule/ast"
	ruleErrors "kestrel-hq/verdict/pkg/rule/errors"
)

// builder constructs AST nodes from decoded yaml.Node trees. It preserves
// source locations and accumulates diagnostics instead of stopping at the
// first problem.
type builder struct {
	sourcePath string
	maxDepth   int
	strict     bool
	errors     *ruleErrors.ErrorList
}

// newBuilder creates a builder for the given source file.
func newBuilder(sourcePath string, maxDepth int, strict bool) *builder {
	return &builder{
		sourcePath: sourcePath,
		maxDepth:   maxDepth,
		strict:     strict,
		errors:     ruleErrors.NewErrorList(),
	}
}

// location copies a yaml node's position into an ast.Location.
func (b *builder) location(node *yaml.Node) ast.Location {
	if node == nil {
		return ast.Location{File: b.sourcePath}
	}
	return ast.Location{
		File:   b.sourcePath,
		Line:   node.Line,
		Column: node.Column,
	}
}

// buildRuleset transforms a document root into an ast.Ruleset.
func (b *builder) buildRuleset(root *yaml.Node) (*ast.Ruleset, error) {
	if root == nil {
		b.errors.AddError(ruleErrors.ErrorTypeStructural,
			"Empty rule document",
			ast.Location{File: b.sourcePath, Line: 1, Column: 1})
		return nil, b.errors
	}

	if root.Kind != yaml.MappingNode {
		b.errors.AddErrorWithSuggestion(ruleErrors.ErrorTypeStructural,
			"Rule document must be a mapping",
			b.location(root),
			"Top level needs 'name' and 'rules' keys")
		return nil, b.errors
	}

	rs := &ast.Ruleset{
		SourceFile: b.sourcePath,
		Location:   b.location(root),
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		value := resolveAlias(root.Content[i+1])

		switch key.Value {
		case "name":
			rs.Name = value.Value
		case "description":
			rs.Description = value.Value
		case "version":
			rs.Version = value.Value
		case "rules":
			rs.Rules = b.buildNamedRules(value)
		default:
			b.unknownKey(key, "ruleset")
		}
	}

	if b.errors.HasErrors() {
		return nil, b.errors
	}
	return rs, nil
}

// buildNamedRules transforms the document's rules sequence.
func (b *builder) buildNamedRules(node *yaml.Node) []*ast.NamedRule {
	if node.Kind != yaml.SequenceNode {
		b.errors.AddError(ruleErrors.ErrorTypeStructural,
			"'rules' must be a sequence",
			b.location(node))
		return nil
	}

	rules := make([]*ast.NamedRule, 0, len(node.Content))
	for i, item := range node.Content {
		rule := b.buildNamedRule(resolveAlias(item), i)
		if rule != nil {
			rules = append(rules, rule)
		}
	}
	return rules
}

// buildNamedRule transforms one member of the rules sequence.
func (b *builder) buildNamedRule(node *yaml.Node, index int) *ast.NamedRule {
	if node == nil || node.Kind != yaml.MappingNode {
		b.errors.AddError(ruleErrors.ErrorTypeStructural,
			fmt.Sprintf("Rule at index %d must be a mapping", index),
			b.location(node))
		return nil
	}

	rule := &ast.NamedRule{Location: b.location(node)}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		value := resolveAlias(node.Content[i+1])

		switch key.Value {
		case "name":
			rule.Name = value.Value
		case "description":
			rule.Description = value.Value
		case "when":
			rule.When = b.buildNode(value, 0)
		default:
			b.unknownKey(key, "rule")
		}
	}

	return rule
}

// buildNode transforms a yaml node into one rule-tree node, recursing into
// all/any child groups. A bare sequence is shorthand for an All group.
func (b *builder) buildNode(node *yaml.Node, depth int) *ast.Node {
	if depth > b.maxDepth {
		b.errors.AddError(ruleErrors.ErrorTypeStructural,
			fmt.Sprintf("Rule tree exceeds maximum nesting depth of %d", b.maxDepth),
			b.location(node))
		return nil
	}

	node = resolveAlias(node)
	if node == nil {
		return nil
	}

	switch node.Kind {
	case yaml.SequenceNode:
		// Implicit AND over the listed conditions.
		return &ast.Node{
			All:      b.buildChildren(node, depth+1),
			Location: b.location(node),
		}

	case yaml.MappingNode:
		out := &ast.Node{Location: b.location(node)}

		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			value := resolveAlias(node.Content[i+1])

			switch key.Value {
			case "fact":
				out.Fact = value.Value
			case "operator":
				out.Operator = ast.Operator(value.Value)
			case "value":
				var v any
				if err := value.Decode(&v); err != nil {
					b.errors.AddError(ruleErrors.ErrorTypeStructural,
						fmt.Sprintf("Invalid value: %v", err),
						b.location(value))
					continue
				}
				out.Value = v
			case "all":
				out.All = b.buildGroup(value, depth+1, "all")
			case "any":
				out.Any = b.buildGroup(value, depth+1, "any")
			default:
				b.unknownKey(key, "rule node")
			}
		}

		return out

	default:
		b.errors.AddErrorWithSuggestion(ruleErrors.ErrorTypeStructural,
			"Rule node must be a mapping or a sequence of conditions",
			b.location(node),
			"A leaf condition looks like {fact: age, operator: equal, value: 25}")
		return nil
	}
}

// buildGroup transforms an all/any child sequence.
func (b *builder) buildGroup(node *yaml.Node, depth int, group string) []*ast.Node {
	if node.Kind != yaml.SequenceNode {
		b.errors.AddError(ruleErrors.ErrorTypeStructural,
			fmt.Sprintf("'%s' must be a sequence of rule nodes", group),
			b.location(node))
		return nil
	}
	return b.buildChildren(node, depth)
}

// buildChildren builds every element of a sequence node.
func (b *builder) buildChildren(node *yaml.Node, depth int) []*ast.Node {
	children := make([]*ast.Node, 0, len(node.Content))
	for _, item := range node.Content {
		child := b.buildNode(item, depth)
		if child != nil {
			children = append(children, child)
		}
	}
	return children
}

// unknownKey records a diagnostic for an unrecognized mapping key. Unknown
// keys are ignored unless the parser runs in strict mode.
func (b *builder) unknownKey(key *yaml.Node, where string) {
	if !b.strict {
		return
	}
	b.errors.AddError(ruleErrors.ErrorTypeStructural,
		fmt.Sprintf("Unknown key %q in %s", key.Value, where),
		b.location(key))
}
