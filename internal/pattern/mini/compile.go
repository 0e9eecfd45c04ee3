package mini

import (
	"fmt"

	"github.com/patchwerk/engine/internal/pattern"
	"github.com/patchwerk/engine/internal/pattern/fraction"
	"github.com/patchwerk/engine/internal/pattern/hap"
)

// Decoder converts a parsed AtomValue, together with its source span, into
// the caller's target value type T. A decoder for the sequencer's tagged
// CV/gate value lives in the sequencer module package; Compile itself is
// agnostic to what T is.
type Decoder[T any] func(AtomValue, hap.SourceSpan) (T, error)

// Compile parses src and compiles it into a Pattern[T] using dec to turn
// leaf atoms into values, applying any trailing `$ name.variant(arg)`
// operator chain through reg (nil disables the operator chain; an
// unregistered operator name is a *ParseError).
func Compile[T any](src string, dec Decoder[T], reg *OperatorRegistry[T]) (pattern.Pattern[T], error) {
	prog, err := Parse(src)
	if err != nil {
		return pattern.Silence[T](), err
	}
	p, err := compileNode(prog.Base, dec)
	if err != nil {
		return pattern.Silence[T](), err
	}
	for _, op := range prog.Operators {
		if reg == nil {
			return pattern.Silence[T](), &ParseError{Message: fmt.Sprintf("operator %q used with no registry", op.Name), Span: op.Span}
		}
		p, err = reg.Apply(op.Name, p, op.Arg, variantFromString(op.Variant))
		if err != nil {
			return pattern.Silence[T](), &ParseError{Message: err.Error(), Span: op.Span}
		}
	}
	return p, nil
}

func compileNode[T any](n Node, dec Decoder[T]) (pattern.Pattern[T], error) {
	switch n.Kind {
	case NodeRest:
		return pattern.Silence[T](), nil

	case NodeAtom:
		v, err := dec(n.Atom, n.Span)
		if err != nil {
			return pattern.Silence[T](), &ParseError{Message: err.Error(), Span: n.Span}
		}
		return pattern.PureWithContext(v, hap.Context{Spans: []hap.SourceSpan{n.Span}}), nil

	case NodeSequence:
		parts, err := compileChildren(n.Children, dec)
		if err != nil {
			return pattern.Silence[T](), err
		}
		return pattern.FastCat(parts...), nil

	case NodeStack:
		parts, err := compileChildren(n.Children, dec)
		if err != nil {
			return pattern.Silence[T](), err
		}
		return pattern.Stack(parts...), nil

	case NodeSlowCat:
		parts, err := compileChildren(n.Children, dec)
		if err != nil {
			return pattern.Silence[T](), err
		}
		return pattern.SlowCat(parts...), nil

	case NodeRandomChoice:
		parts, err := compileChildren(n.Children, dec)
		if err != nil {
			return pattern.Silence[T](), err
		}
		return randomChoice(parts), nil

	case NodePolyMeter:
		return compilePolyMeter(n.Children, dec)

	case NodeFast:
		base, err := compileNode(*n.Base, dec)
		if err != nil {
			return pattern.Silence[T](), err
		}
		return pattern.Fast(base, fraction.FromFloat(n.Factor)), nil

	case NodeSlow:
		base, err := compileNode(*n.Base, dec)
		if err != nil {
			return pattern.Silence[T](), err
		}
		return pattern.Slow(base, fraction.FromFloat(n.Factor)), nil

	case NodeReplicate:
		base, err := compileNode(*n.Base, dec)
		if err != nil {
			return pattern.Silence[T](), err
		}
		if n.ReplicateN <= 0 {
			return pattern.Silence[T](), nil
		}
		copies := make([]pattern.Pattern[T], n.ReplicateN)
		for i := range copies {
			copies[i] = base
		}
		return pattern.FastCat(copies...), nil

	case NodeDegrade:
		base, err := compileNode(*n.Base, dec)
		if err != nil {
			return pattern.Silence[T](), err
		}
		prob := n.DegradeProb
		if !n.HasDegradeProb {
			prob = 0.5
		}
		return pattern.DegradeBy(base, prob), nil

	case NodeEuclidean:
		base, err := compileNode(*n.Base, dec)
		if err != nil {
			return pattern.Silence[T](), err
		}
		return pattern.EuclidOn(base, n.EuclidPulses, n.EuclidSteps, n.EuclidRotation), nil

	default:
		return pattern.Silence[T](), &ParseError{Message: "internal: unhandled node kind", Span: n.Span}
	}
}

func compileChildren[T any](ns []Node, dec Decoder[T]) ([]pattern.Pattern[T], error) {
	out := make([]pattern.Pattern[T], len(ns))
	for i, c := range ns {
		p, err := compileNode(c, dec)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// randomChoice picks one of options per cycle, deterministically by
// rand_seed (§8 scenario 6), via the shared per-cycle random source.
func randomChoice[T any](options []pattern.Pattern[T]) pattern.Pattern[T] {
	n := len(options)
	if n == 0 {
		return pattern.Silence[T]()
	}
	return pattern.Bind(pattern.RandCycle(), func(r float64) pattern.Pattern[T] {
		idx := int(r * float64(n))
		if idx >= n {
			idx = n - 1
		}
		return options[idx]
	}, pattern.JoinInner)
}

// compilePolyMeter compiles `{a b c, d e}`: each comma-separated
// alternative keeps its own step count but is played at the base
// alternative's step rate, continuing to advance through its own item
// list across cycles rather than resetting — built from Fast(SlowCat(..))
// exactly as the original's polymeter implementation describes, reusing
// SlowCat's cross-cycle advancement instead of a bespoke stepper.
func compilePolyMeter[T any](alts []Node, dec Decoder[T]) (pattern.Pattern[T], error) {
	if len(alts) == 0 {
		return pattern.Silence[T](), nil
	}
	baseLen := stepCount(alts[0])
	if baseLen <= 0 {
		baseLen = 1
	}
	layers := make([]pattern.Pattern[T], len(alts))
	for i, alt := range alts {
		items := sequenceItems(alt)
		parts, err := compileChildren(items, dec)
		if err != nil {
			return pattern.Silence[T](), err
		}
		layers[i] = pattern.Fast(pattern.SlowCat(parts...), fraction.FromInt(int64(baseLen)))
	}
	return pattern.Stack(layers...), nil
}

// stepCount returns the number of items an already-parsed sequence node
// presents per cycle (1 for anything that isn't itself a Sequence).
func stepCount(n Node) int {
	if n.Kind == NodeSequence {
		return len(n.Children)
	}
	return 1
}

// sequenceItems returns a node's top-level items for polymeter purposes.
func sequenceItems(n Node) []Node {
	if n.Kind == NodeSequence {
		return n.Children
	}
	return []Node{n}
}
