package pattern

import (
	"github.com/patchwerk/engine/internal/pattern/fraction"
	"github.com/patchwerk/engine/internal/pattern/hap"
	"github.com/patchwerk/engine/internal/pattern/timespan"
)

// Stack queries every pattern in ps over the same span and unions the
// results. Stack([]Pattern{p, Silence()}) = p.
func Stack[T any](ps ...Pattern[T]) Pattern[T] {
	return New(func(st State) []hap.Hap[T] {
		var out []hap.Hap[T]
		for _, p := range ps {
			out = append(out, p.Query(st)...)
		}
		return out
	})
}

// FastCat plays each pattern in ps in an equal slot within one cycle:
// FastCat([p0..pk-1]) plays pi in [i/k, (i+1)/k) every cycle. It is
// built as Fast(k, SlowCat(ps)), so slot i of cycle c holds cycle c of pi,
// and it carries len(ps) as its steps-per-cycle metadata for alignment
// operators.
func FastCat[T any](ps ...Pattern[T]) Pattern[T] {
	k := len(ps)
	if k == 0 {
		return Silence[T]()
	}
	n := fraction.FromInt(int64(k))
	return Fast(SlowCat(ps...), n).WithSteps(n)
}

// mapHapTime shifts both the whole and part of h by adding offset to every
// endpoint, used by SlowCat to translate a sub-pattern's own timeline back
// into the outer query's timeline.
func mapHapTime[T any](h hap.Hap[T], offset fraction.Fraction) hap.Hap[T] {
	return h.WithTime(func(s timespan.TimeSpan) timespan.TimeSpan {
		return s.WithTime(func(t fraction.Fraction) fraction.Fraction { return t.Add(offset) })
	})
}

// floorDiv is integer division that rounds toward negative infinity,
// needed so SlowCat indexes negative cycles correctly.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// SlowCat plays one whole pattern per cycle, cycling through ps: in cycle
// c it plays p[c mod k], spanning the entire cycle. Each sub-pattern is
// queried against its own running cycle count (floor(c/k)) rather than
// reset to cycle 0 on every appearance, so its internal cyclic structure
// (e.g. an inner SlowCat) advances correctly across repeats.
func SlowCat[T any](ps ...Pattern[T]) Pattern[T] {
	k := len(ps)
	if k == 0 {
		return Silence[T]()
	}
	kk := int64(k)
	return New(func(st State) []hap.Hap[T] {
		return queryCycles(st, func(sub State) []hap.Hap[T] {
			cyc := fraction.Sam(sub.Span.Begin)
			cycInt := cyc.Num() / cyc.Den()
			idx := cycInt % kk
			if idx < 0 {
				idx += kk
			}
			repetition := floorDiv(cycInt, kk)
			offset := cyc.Sub(fraction.FromInt(repetition))
			shifted := sub.WithSpan(sub.Span.WithTime(func(t fraction.Fraction) fraction.Fraction {
				return t.Sub(offset)
			}))
			in := ps[idx].Query(shifted)
			out := make([]hap.Hap[T], len(in))
			for i, h := range in {
				out[i] = mapHapTime(h, offset)
			}
			return out
		})
	}).WithSteps(fraction.One)
}
