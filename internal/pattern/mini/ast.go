package mini

import "github.com/patchwerk/engine/internal/pattern/hap"

// NodeKind tags a parsed mini-notation AST node.
type NodeKind int

const (
	NodeAtom NodeKind = iota
	NodeRest
	NodeSequence
	NodeStack
	NodeSlowCat
	NodeRandomChoice
	NodePolyMeter
	NodeFast
	NodeSlow
	NodeReplicate
	NodeDegrade
	NodeEuclidean
)

// Node is the parsed tree for a mini-notation pattern. Rather than a
// closed Rust-style enum, the kinds share one struct with the fields each
// kind uses, which is the idiomatic Go stand-in for a tagged union here.
type Node struct {
	Kind NodeKind
	Span hap.SourceSpan

	Atom AtomValue // NodeAtom

	// NodeSequence / NodeStack / NodeSlowCat / NodeRandomChoice / NodePolyMeter
	Children []Node

	// NodeFast / NodeSlow / NodeReplicate / NodeDegrade / NodeEuclidean
	Base *Node

	Factor float64 // NodeFast / NodeSlow

	ReplicateN int // NodeReplicate

	DegradeProb    float64 // NodeDegrade
	HasDegradeProb bool

	EuclidPulses   int // NodeEuclidean
	EuclidSteps    int
	EuclidRotation int
}

// OperatorCall is one `$ name.variant(arg)` link in an operator chain.
type OperatorCall struct {
	Name    string
	Variant string // "" means Default
	Arg     string // raw text between the parens, uninterpreted
	Span    hap.SourceSpan
}

// Program is the result of parsing: the base pattern tree plus any
// trailing operator-chain calls applied to it.
type Program struct {
	Base      Node
	Operators []OperatorCall
}
