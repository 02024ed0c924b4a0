package ast

// Kind identifies which variant of the rule grammar a node takes.
type Kind string

const (
	KindAtomic   Kind = "atomic"   // fact operator value
	KindAll      Kind = "all"      // AND of children
	KindAny      Kind = "any"      // OR of children
	KindCombined Kind = "combined" // AND of the all-group and the any-group
	KindInvalid  Kind = "invalid"  // matches no variant
)

// Node is one node of a rule tree. The grammar is a closed union of four
// shapes: an atomic condition carries Fact/Operator/Value, a combinator
// carries All and/or Any. Exactly one shape applies to a well-formed node;
// Kind derives which one. Nodes are plain data: built once, by hand or by
// the parser, and never mutated by the engine.
type Node struct {
	Fact     string   `json:"fact,omitempty" yaml:"fact,omitempty"`
	Operator Operator `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
	All      []*Node  `json:"all,omitempty" yaml:"all,omitempty"`
	Any      []*Node  `json:"any,omitempty" yaml:"any,omitempty"`

	// Location is the source position when the node came from a parsed
	// document. Programmatically built nodes leave it zero.
	Location Location `json:"-" yaml:"-"`
}

// Kind reports the grammar variant this node takes. A node naming a fact is
// atomic; a node carrying both child groups is combined; a node carrying one
// group is all or any; anything else is invalid. A group that is present but
// empty still counts as carried, so {all: []} is an All node (vacuously
// true), not an invalid one.
func (n *Node) Kind() Kind {
	switch {
	case n == nil:
		return KindInvalid
	case n.Fact != "":
		return KindAtomic
	case n.All != nil && n.Any != nil:
		return KindCombined
	case n.All != nil:
		return KindAll
	case n.Any != nil:
		return KindAny
	default:
		return KindInvalid
	}
}

// IsAtomic returns true if this node is a leaf condition.
func (n *Node) IsAtomic() bool {
	return n.Kind() == KindAtomic
}

// IsCombinator returns true if this node aggregates child nodes.
func (n *Node) IsCombinator() bool {
	switch n.Kind() {
	case KindAll, KindAny, KindCombined:
		return true
	}
	return false
}

// Atomic builds a leaf node comparing the named fact against value.
func Atomic(fact string, op Operator, value any) *Node {
	return &Node{Fact: fact, Operator: op, Value: value}
}

// AllOf builds a node that is true iff every child is true.
func AllOf(children ...*Node) *Node {
	return &Node{All: children}
}

// AnyOf builds a node that is true iff at least one child is true.
func AnyOf(children ...*Node) *Node {
	return &Node{Any: children}
}

// Combine builds a node that is true iff the all-group and the any-group are
// both true.
func Combine(allOf, anyOf []*Node) *Node {
	return &Node{All: allOf, Any: anyOf}
}
