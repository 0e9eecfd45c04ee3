// Package pattern implements the lazy, query-based cyclic pattern algebra
// that drives the sequencer module's mini-notation. A Pattern[T] is a pure
// function from a queried TimeSpan (plus ambient Controls) to the Haps that
// occur within it; patterns compose functorially, applicatively, and
// monadically, and carry a family of temporal and probabilistic
// transformations (§4.7 of the spec).
//
// Following the "closures capturing inputs by shared ownership" strategy
// from the design notes, a Pattern[T] wraps a query function value: Go
// functions are already reference types, so cloning a Pattern is free and
// every combinator below simply builds a new closure over its inputs
// without mutating or memoizing anything. Queries must stay pure of time.
package pattern

import (
	"github.com/patchwerk/engine/internal/pattern/fraction"
	"github.com/patchwerk/engine/internal/pattern/hap"
	"github.com/patchwerk/engine/internal/pattern/timespan"
)

// Controls carries ambient parameters visible to every pattern query: the
// seed for deterministic randomness, plus any user-injected bindings
// (named numeric parameters a mini-notation script can reference).
type Controls struct {
	RandSeed uint64
	Bindings map[string]float64
}

// Binding looks up a named control, returning ok=false if unset.
func (c Controls) Binding(name string) (float64, bool) {
	if c.Bindings == nil {
		return 0, false
	}
	v, ok := c.Bindings[name]
	return v, ok
}

// State is the input to a Pattern query: the span of time being asked
// about, plus the ambient controls.
type State struct {
	Span     timespan.TimeSpan
	Controls Controls
}

// WithSpan returns a copy of s with a different query span.
func (s State) WithSpan(span timespan.TimeSpan) State {
	return State{Span: span, Controls: s.Controls}
}

// Query is the pure function type every Pattern[T] wraps.
type Query[T any] func(State) []hap.Hap[T]

// Pattern is an opaque, queryable, pure value. Copying a Pattern is cheap:
// it carries a function value (closure) and optional step-count metadata.
type Pattern[T any] struct {
	query  Query[T]
	steps  *fraction.Fraction // steps_per_cycle, used only by alignment ops
}

// New wraps a raw query function as a Pattern. Most callers should use one
// of the named constructors/combinators below instead of calling New
// directly.
func New[T any](q Query[T]) Pattern[T] {
	return Pattern[T]{query: q}
}

// Query runs the pattern's query function over st. A nil Pattern (zero
// value) queries as silence.
func (p Pattern[T]) Query(st State) []hap.Hap[T] {
	if p.query == nil {
		return nil
	}
	return p.query(st)
}

// StepsPerCycle returns the pattern's declared step-count metadata, if any.
func (p Pattern[T]) StepsPerCycle() (fraction.Fraction, bool) {
	if p.steps == nil {
		return fraction.Zero, false
	}
	return *p.steps, true
}

// WithSteps attaches step-count metadata to p (used by the mini-notation
// parser for patterns built from a fixed-width sequence) and returns the
// annotated pattern.
func (p Pattern[T]) WithSteps(n fraction.Fraction) Pattern[T] {
	p.steps = &n
	return p
}

// queryCycles splits st's span at cycle boundaries and runs f once per
// whole-cycle sub-span, concatenating the results. Several constructors
// (pure, in particular) are only well-defined per cycle.
func queryCycles[T any](st State, f func(State) []hap.Hap[T]) []hap.Hap[T] {
	var out []hap.Hap[T]
	for _, sub := range st.Span.SpanCycles() {
		out = append(out, f(st.WithSpan(sub))...)
	}
	return out
}

// Silence is the pattern that never produces any haps.
func Silence[T any]() Pattern[T] {
	return New(func(State) []hap.Hap[T] { return nil })
}

// Pure returns a pattern that repeats v once every cycle, discretely: for
// every sub-span of the query split at integer boundaries, one hap whose
// Whole is the enclosing cycle and whose Part is that sub-span (which lies
// inside the cycle). A zero-width query at t yields the hap of t's cycle
// with a zero-width Part.
func Pure[T any](v T) Pattern[T] {
	return New(func(st State) []hap.Hap[T] {
		return queryCycles(st, func(sub State) []hap.Hap[T] {
			whole := timespan.New(fraction.Sam(sub.Span.Begin), fraction.NextSam(sub.Span.Begin))
			return []hap.Hap[T]{hap.Discrete(whole, sub.Span, v, hap.Context{})}
		})
	})
}

// PureWithContext is Pure but stamps every produced hap with ctx, used by
// the mini-notation compiler to attach a leaf's source span (§4.8).
func PureWithContext[T any](v T, ctx hap.Context) Pattern[T] {
	return New(func(st State) []hap.Hap[T] {
		return queryCycles(st, func(sub State) []hap.Hap[T] {
			whole := timespan.New(fraction.Sam(sub.Span.Begin), fraction.NextSam(sub.Span.Begin))
			return []hap.Hap[T]{hap.Discrete(whole, sub.Span, v, ctx)}
		})
	})
}

// Signal returns a continuous pattern sampling f at the midpoint of every
// query span. Continuous patterns have no Whole: they represent an
// always-present signal rather than a discrete event.
func Signal[T any](f func(fraction.Fraction) T) Pattern[T] {
	return New(func(st State) []hap.Hap[T] {
		v := f(st.Span.Midpoint())
		return []hap.Hap[T]{hap.Continuous(st.Span, v, hap.Context{})}
	})
}

// Fmap applies f to every hap's value. Functor laws (§8): Fmap(id) = id,
// Fmap(f.g) = Fmap(f).Fmap(g), and Pure(v).Fmap(f) = Pure(f(v)).
func Fmap[T, U any](p Pattern[T], f func(T) U) Pattern[U] {
	return New(func(st State) []hap.Hap[U] {
		in := p.Query(st)
		out := make([]hap.Hap[U], len(in))
		for i, h := range in {
			out[i] = hap.WithValue(h, f(h.Value))
		}
		return out
	})
}

// FilterHaps keeps only haps for which keep returns true.
func FilterHaps[T any](p Pattern[T], keep func(hap.Hap[T]) bool) Pattern[T] {
	return New(func(st State) []hap.Hap[T] {
		in := p.Query(st)
		out := in[:0:0]
		for _, h := range in {
			if keep(h) {
				out = append(out, h)
			}
		}
		return out
	})
}

// FilterValues keeps only haps whose value satisfies keep.
func FilterValues[T any](p Pattern[T], keep func(T) bool) Pattern[T] {
	return FilterHaps(p, func(h hap.Hap[T]) bool { return keep(h.Value) })
}

// DiscreteOnly keeps only haps that carry a Whole.
func DiscreteOnly[T any](p Pattern[T]) Pattern[T] {
	return FilterHaps(p, func(h hap.Hap[T]) bool { return h.IsDiscrete() })
}

// ContinuousOnly keeps only whole-less (signal) haps.
func ContinuousOnly[T any](p Pattern[T]) Pattern[T] {
	return FilterHaps(p, func(h hap.Hap[T]) bool { return !h.IsDiscrete() })
}

// OnsetsOnly keeps only discrete haps whose part begins at their whole's
// onset, discarding continuations produced by a query that only sees the
// tail of an event.
func OnsetsOnly[T any](p Pattern[T]) Pattern[T] {
	return FilterHaps(p, func(h hap.Hap[T]) bool { return h.HasOnset() })
}
