package parser

import (
	"fmt"
	"os"

	"kestrel-hq/verdict/pkg/rule/ast"
	ruleErrors "kestrel-hq/verdict/pkg/rule/errors"
)

// Parser parses rule documents into ASTs. It handles YAML and JSON input,
// AST construction with source locations, and structural diagnostics.
type Parser struct {
	maxFileSize int64 // Maximum document size in bytes (default: 10MB)
	maxDepth    int   // Maximum rule-tree nesting depth (default: 10)
	strictMode  bool  // Strict mode: unknown keys become errors
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 10 * 1024 * 1024, // 10MB
		maxDepth:    10,
		strictMode:  false,
	}
}

// WithMaxFileSize sets the maximum document size limit.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithMaxDepth sets the maximum rule-tree nesting depth.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// WithStrictMode makes unknown document keys errors instead of ignoring
// them.
func (p *Parser) WithStrictMode(strict bool) *Parser {
	p.strictMode = strict
	return p
}

// Parse parses the rule document at the given path and returns the ruleset.
// It returns an error if the file cannot be read, has invalid syntax, or
// contains structural errors.
func (p *Parser) Parse(path string) (*ast.Ruleset, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, &ruleErrors.Error{
			Type:    ruleErrors.ErrorTypeIO,
			Message: fmt.Sprintf("Failed to access file: %v", err),
			Location: ast.Location{
				File: path,
			},
		}
	}

	if fileInfo.Size() > p.maxFileSize {
		return nil, &ruleErrors.Error{
			Type:    ruleErrors.ErrorTypeIO,
			Message: fmt.Sprintf("File size %d exceeds maximum %d bytes", fileInfo.Size(), p.maxFileSize),
			Location: ast.Location{
				File: path,
			},
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ruleErrors.Error{
			Type:    ruleErrors.ErrorTypeIO,
			Message: fmt.Sprintf("Failed to read file: %v", err),
			Location: ast.Location{
				File: path,
			},
		}
	}

	return p.ParseBytes(data, path)
}

// ParseBytes parses a rule document from a byte slice. The sourcePath is
// used for diagnostics only.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*ast.Ruleset, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, &ruleErrors.Error{
			Type:    ruleErrors.ErrorTypeIO,
			Message: fmt.Sprintf("Data size %d exceeds maximum %d bytes", len(data), p.maxFileSize),
			Location: ast.Location{
				File: sourcePath,
			},
		}
	}

	doc, err := parseDocumentBytes(data)
	if err != nil {
		return nil, &ruleErrors.Error{
			Type:    ruleErrors.ErrorTypeSyntax,
			Message: fmt.Sprintf("Document parsing failed: %v", err),
			Location: ast.Location{
				File:   sourcePath,
				Line:   1,
				Column: 1,
			},
			Suggestion: "Check YAML/JSON syntax (indentation, colons, quotes)",
		}
	}

	b := newBuilder(sourcePath, p.maxDepth, p.strictMode)
	rs, err := b.buildRuleset(documentRoot(doc))
	if err != nil {
		if errList, ok := err.(*ruleErrors.ErrorList); ok {
			for i, e := range errList.Errors {
				errList.Errors[i] = ruleErrors.AddContextToError(e)
			}
		}
		return nil, err
	}

	return rs, nil
}

// ParseRule parses a bare rule-tree document (a single node, no ruleset
// wrapper). This is the shape hosts typically store as JSON:
//
//	{"any": [{"fact": "age", "operator": "greaterThan", "value": 18}]}
func (p *Parser) ParseRule(data []byte, sourcePath string) (*ast.Node, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, &ruleErrors.Error{
			Type:    ruleErrors.ErrorTypeIO,
			Message: fmt.Sprintf("Data size %d exceeds maximum %d bytes", len(data), p.maxFileSize),
			Location: ast.Location{
				File: sourcePath,
			},
		}
	}

	doc, err := parseDocumentBytes(data)
	if err != nil {
		return nil, &ruleErrors.Error{
			Type:    ruleErrors.ErrorTypeSyntax,
			Message: fmt.Sprintf("Document parsing failed: %v", err),
			Location: ast.Location{
				File:   sourcePath,
				Line:   1,
				Column: 1,
			},
			Suggestion: "Check YAML/JSON syntax (indentation, colons, quotes)",
		}
	}

	b := newBuilder(sourcePath, p.maxDepth, p.strictMode)
	node := b.buildNode(documentRoot(doc), 0)
	if b.errors.HasErrors() {
		for i, e := range b.errors.Errors {
			b.errors.Errors[i] = ruleErrors.AddContextToError(e)
		}
		return nil, b.errors
	}
	if node == nil {
		return nil, &ruleErrors.Error{
			Type:    ruleErrors.ErrorTypeStructural,
			Message: "Empty rule document",
			Location: ast.Location{
				File: sourcePath,
			},
		}
	}

	return node, nil
}
