package pattern

import (
	"github.com/patchwerk/engine/internal/pattern/hap"
	"github.com/patchwerk/engine/internal/pattern/timespan"
)

// combineWholes follows the Tidal convention for combining two optional
// wholes under an applicative: if either side is continuous (no whole),
// the result is continuous; otherwise it is the intersection of the two
// wholes.
func combineWholes(a, b *timespan.TimeSpan) *timespan.TimeSpan {
	if a == nil || b == nil {
		return nil
	}
	w, ok := timespan.Intersection(*a, *b)
	if !ok {
		return nil
	}
	return &w
}

// AppBoth combines every pair of haps from f and g whose parts intersect
// non-trivially, producing a hap whose whole is the intersection of the
// two wholes (per combineWholes) and whose value is combine(fVal, gVal).
// Structure comes from neither side alone: both patterns contribute haps.
func AppBoth[A, B, C any](pf Pattern[A], pg Pattern[B], combine func(A, B) C) Pattern[C] {
	return New(func(st State) []hap.Hap[C] {
		fs := pf.Query(st)
		gs := pg.Query(st)
		var out []hap.Hap[C]
		for _, hf := range fs {
			for _, hg := range gs {
				part, ok := timespan.Intersection(hf.Part, hg.Part)
				if !ok {
					continue
				}
				whole := combineWholes(hf.Whole, hg.Whole)
				ctx := hf.Context.Merge(hg.Context)
				v := combine(hf.Value, hg.Value)
				if whole == nil {
					out = append(out, hap.Continuous(part, v, ctx))
				} else {
					out = append(out, hap.Discrete(*whole, part, v, ctx))
				}
			}
		}
		return out
	})
}

// AppLeft takes its event structure from pf: for each of pf's haps, pg is
// queried at that hap's part/whole, and the value combined. The result's
// wholes come from pf.
func AppLeft[A, B, C any](pf Pattern[A], pg Pattern[B], combine func(A, B) C) Pattern[C] {
	return New(func(st State) []hap.Hap[C] {
		fs := pf.Query(st)
		var out []hap.Hap[C]
		for _, hf := range fs {
			gs := pg.Query(st.WithSpan(hf.Part))
			for _, hg := range gs {
				part, ok := timespan.Intersection(hf.Part, hg.Part)
				if !ok {
					continue
				}
				ctx := hf.Context.Merge(hg.Context)
				v := combine(hf.Value, hg.Value)
				if hf.Whole == nil {
					out = append(out, hap.Continuous(part, v, ctx))
				} else {
					out = append(out, hap.Discrete(*hf.Whole, part, v, ctx))
				}
			}
		}
		return out
	})
}

// AppRight is AppLeft with the roles of pf and pg swapped: structure comes
// from pg.
func AppRight[A, B, C any](pf Pattern[A], pg Pattern[B], combine func(A, B) C) Pattern[C] {
	return AppLeft(pg, pf, func(b B, a A) C { return combine(a, b) })
}
