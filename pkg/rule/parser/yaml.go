package parser

import (
	"os"

	"gopkg.in/yaml.v3"
)

// parseDocumentFile reads a rule document and returns its decoded yaml.Node
// tree. YAML is a superset of JSON here, so .json documents flow through the
// same path.
func parseDocumentFile(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseDocumentBytes(data)
}

// parseDocumentBytes decodes document bytes into a yaml.Node tree. The node
// tree preserves line and column positions, which the builder copies onto
// every AST node for diagnostics.
func parseDocumentBytes(data []byte) (*yaml.Node, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// documentRoot unwraps the document node down to its content mapping or
// sequence. Returns nil for an empty document.
func documentRoot(node *yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		return resolveAlias(node.Content[0])
	}
	return resolveAlias(node)
}

// resolveAlias follows YAML anchors so `when: *shared` works in documents.
func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}
