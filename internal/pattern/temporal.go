package pattern

import (
	"github.com/patchwerk/engine/internal/pattern/fraction"
	"github.com/patchwerk/engine/internal/pattern/hap"
	"github.com/patchwerk/engine/internal/pattern/timespan"
)

// Fast queries n times as fast: Fast(2) squeezes two cycles' worth of
// events into one. n == 0 collapses to Silence; a negative n plays Rev(p)
// at rate -n.
func Fast[T any](p Pattern[T], n fraction.Fraction) Pattern[T] {
	if n.Cmp(fraction.Zero) == 0 {
		return Silence[T]()
	}
	if n.Less(fraction.Zero) {
		return Fast(Rev(p), n.Neg())
	}
	return New(func(st State) []hap.Hap[T] {
		queried := st.WithSpan(st.Span.WithTime(func(t fraction.Fraction) fraction.Fraction {
			return t.Mul(n)
		}))
		in := p.Query(queried)
		out := make([]hap.Hap[T], len(in))
		for i, h := range in {
			out[i] = h.WithTime(func(s timespan.TimeSpan) timespan.TimeSpan {
				return s.WithTime(func(t fraction.Fraction) fraction.Fraction { return t.Div(n) })
			})
		}
		return out
	})
}

// Slow is the reciprocal of Fast: Slow(n) == Fast(1/n).
func Slow[T any](p Pattern[T], n fraction.Fraction) Pattern[T] {
	if n.Cmp(fraction.Zero) == 0 {
		return Silence[T]()
	}
	return Fast(p, fraction.One.Div(n))
}

// Early shifts a pattern to play o earlier: it queries [begin+o, end+o)
// and subtracts o from every produced hap's time.
func Early[T any](p Pattern[T], o fraction.Fraction) Pattern[T] {
	return New(func(st State) []hap.Hap[T] {
		queried := st.WithSpan(st.Span.WithTime(func(t fraction.Fraction) fraction.Fraction {
			return t.Add(o)
		}))
		in := p.Query(queried)
		out := make([]hap.Hap[T], len(in))
		for i, h := range in {
			out[i] = h.WithTime(func(s timespan.TimeSpan) timespan.TimeSpan {
				return s.WithTime(func(t fraction.Fraction) fraction.Fraction { return t.Sub(o) })
			})
		}
		return out
	})
}

// Late is the reciprocal of Early.
func Late[T any](p Pattern[T], o fraction.Fraction) Pattern[T] {
	return Early(p, o.Neg())
}

// reflectInCycle maps t, understood to lie in the cycle [c, c+1), to
// c + (c+1 - t): the mirror image of t about that cycle's midpoint.
func reflectInCycle(c, t fraction.Fraction) fraction.Fraction {
	return c.Add(c.Add(fraction.One).Sub(t))
}

// Rev mirrors each cycle of p around its midpoint: the query is split per
// cycle, each cycle reflected before querying, and the resulting haps
// reflected back. Rev(Rev(p)) = p on discrete patterns with finite spans.
func Rev[T any](p Pattern[T]) Pattern[T] {
	return New(func(st State) []hap.Hap[T] {
		var out []hap.Hap[T]
		for _, cyc := range st.Span.SpanCycles() {
			c := fraction.Sam(cyc.Begin)
			reflected := timespan.New(reflectInCycle(c, cyc.End), reflectInCycle(c, cyc.Begin))
			in := p.Query(st.WithSpan(reflected))
			for _, h := range in {
				out = append(out, h.WithTime(func(s timespan.TimeSpan) timespan.TimeSpan {
					return timespan.New(reflectInCycle(c, s.End), reflectInCycle(c, s.Begin))
				}))
			}
		}
		return out
	})
}

// Segment discretizes a continuous pattern by sampling it at n equally
// spaced points per cycle: Segment(n, p) = the structure of a pattern with
// n equal-width slots per cycle, each slot's value taken from p via
// app_left-style sampling at the slot's span.
func Segment[T any](p Pattern[T], n fraction.Fraction) Pattern[T] {
	slots := Fast(Pure(struct{}{}), n)
	return AppLeft(slots, p, func(_ struct{}, v T) T { return v })
}
