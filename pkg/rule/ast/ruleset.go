package ast

// Ruleset is a named collection of rules, typically one parsed document.
// Each member rule carries its own tree; rules in a set are evaluated
// independently of each other.
type Ruleset struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string       `json:"version,omitempty" yaml:"version,omitempty"`
	Rules       []*NamedRule `json:"rules" yaml:"rules"`

	// SourceFile is the path the ruleset was loaded from, if any.
	SourceFile string `json:"-" yaml:"-"`

	Location Location `json:"-" yaml:"-"`
}

// NamedRule pairs a rule tree with a stable name for reporting and metrics.
type NamedRule struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	When        *Node  `json:"when" yaml:"when"`

	Location Location `json:"-" yaml:"-"`
}

// Rule returns the member rule with the given name, or nil if the set has
// none.
func (rs *Ruleset) Rule(name string) *NamedRule {
	if rs == nil {
		return nil
	}
	for _, r := range rs.Rules {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// RuleNames returns the member rule names in declaration order.
func (rs *Ruleset) RuleNames() []string {
	if rs == nil {
		return nil
	}
	names := make([]string, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		names = append(names, r.Name)
	}
	return names
}
