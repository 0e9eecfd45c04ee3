package pattern

import (
	"github.com/patchwerk/engine/internal/pattern/fraction"
	"github.com/patchwerk/engine/internal/pattern/hap"
	"github.com/patchwerk/engine/internal/pattern/timespan"
)

// JoinStrategy selects how an outer hap's whole combines with an inner
// hap's whole when flattening a pattern-of-patterns.
type JoinStrategy int

const (
	// JoinInner takes the whole from the inner hap only.
	JoinInner JoinStrategy = iota
	// JoinOuter takes the whole from the outer hap only.
	JoinOuter
	// JoinBoth intersects outer and inner wholes, as in AppBoth.
	JoinBoth
)

// Bind queries p, and for each outer hap with value v, lazily builds and
// queries k(v) over the outer hap's part (its slice of the query span,
// never its whole) — the inner pattern is produced on demand per outer hap and
// nothing is memoized, keeping every query pure of time. Parts are
// intersected; wholes combine per strategy.
func Bind[A, B any](p Pattern[A], k func(A) Pattern[B], strategy JoinStrategy) Pattern[B] {
	return New(func(st State) []hap.Hap[B] {
		outers := p.Query(st)
		var out []hap.Hap[B]
		for _, ho := range outers {
			inner := k(ho.Value)
			inners := inner.Query(st.WithSpan(ho.Part))
			for _, hi := range inners {
				part, ok := timespan.Intersection(ho.Part, hi.Part)
				if !ok {
					continue
				}
				ctx := ho.Context.Merge(hi.Context)
				var whole *timespan.TimeSpan
				switch strategy {
				case JoinInner:
					whole = hi.Whole
				case JoinOuter:
					whole = ho.Whole
				case JoinBoth:
					whole = combineWholes(ho.Whole, hi.Whole)
				}
				if whole == nil {
					out = append(out, hap.Continuous(part, hi.Value, ctx))
				} else {
					out = append(out, hap.Discrete(*whole, part, hi.Value, ctx))
				}
			}
		}
		return out
	})
}

// InnerJoin flattens a Pattern[Pattern[T]], preferring the inner pattern's
// own whole for every produced hap.
func InnerJoin[T any](pp Pattern[Pattern[T]]) Pattern[T] {
	return Bind(pp, func(p Pattern[T]) Pattern[T] { return p }, JoinInner)
}

// OuterJoin flattens a Pattern[Pattern[T]], preferring the outer hap's
// whole for every produced hap.
func OuterJoin[T any](pp Pattern[Pattern[T]]) Pattern[T] {
	return Bind(pp, func(p Pattern[T]) Pattern[T] { return p }, JoinOuter)
}

// SqueezeJoin flattens a Pattern[Pattern[T]] by compressing one cycle of
// each inner pattern into its outer hap's whole, so a fast inner pattern
// plays out once per outer event instead of free-running against global
// time.
func SqueezeJoin[T any](pp Pattern[Pattern[T]]) Pattern[T] {
	return New(func(st State) []hap.Hap[T] {
		outers := pp.Query(st)
		var out []hap.Hap[T]
		for _, ho := range outers {
			span := ho.Part
			if ho.Whole != nil {
				span = *ho.Whole
			}
			compressed := compressIntoSpan(ho.Value, span)
			inners := compressed.Query(st.WithSpan(ho.Part))
			for _, hi := range inners {
				part, ok := timespan.Intersection(ho.Part, hi.Part)
				if !ok {
					continue
				}
				ctx := ho.Context.Merge(hi.Context)
				whole := combineWholes(ho.Whole, hi.Whole)
				if whole == nil {
					out = append(out, hap.Continuous(part, hi.Value, ctx))
				} else {
					out = append(out, hap.Discrete(*whole, part, hi.Value, ctx))
				}
			}
		}
		return out
	})
}

// compressIntoSpan maps one cycle [0,1) of p onto the given span by a
// linear time map; it does not silence time outside the span (which maps
// onto p's other cycles). SqueezeJoin queries it only inside the span.
func compressIntoSpan[T any](p Pattern[T], span timespan.TimeSpan) Pattern[T] {
	dur := span.Duration()
	if dur.Cmp(fraction.Zero) <= 0 {
		return Silence[T]()
	}
	begin := span.Begin
	return New(func(st State) []hap.Hap[T] {
		toInner := func(t fraction.Fraction) fraction.Fraction { return t.Sub(begin).Div(dur) }
		toOuter := func(t fraction.Fraction) fraction.Fraction { return t.Mul(dur).Add(begin) }
		queried := st.WithSpan(st.Span.WithTime(toInner))
		in := p.Query(queried)
		out := make([]hap.Hap[T], len(in))
		for i, h := range in {
			out[i] = h.WithTime(func(s timespan.TimeSpan) timespan.TimeSpan {
				return s.WithTime(toOuter)
			})
		}
		return out
	})
}
