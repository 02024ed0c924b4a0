package ast

import "fmt"

// Location is the source position of a node in the document it was parsed
// from. It lets validation diagnostics point at the offending line.
type Location struct {
	File   string // Path to the rule document
	Line   int    // Line number (1-based)
	Column int    // Column number (1-based)
}

// String returns the location as "file:line:column".
func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsValid returns true if the location carries usable file and line
// information.
func (l Location) IsValid() bool {
	return l.File != "" && l.Line > 0
}
