package pattern

import (
	"github.com/patchwerk/engine/internal/pattern/fraction"
	"github.com/patchwerk/engine/internal/pattern/hap"
)

// hashTime64 deterministically hashes a rational time value together with
// a seed into a uint64, finished off with a SplitMix64-style avalanche so
// nearby times don't produce correlated outputs. It is pure and depends
// only on its inputs, so two queries at an identical (span, seed) always
// return identical values (§8).
func hashTime64(num, den int64, seed uint64) uint64 {
	x := uint64(num)*0x9E3779B97F4A7C15 ^ uint64(den)*0xC2B2AE3D27D4EB4F ^ seed*0xD6E8FEB86659FD93
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}

// hashUnit maps a hash to a float64 in [0, 1).
func hashUnit(h uint64) float64 {
	return float64(h>>11) / float64(uint64(1)<<53)
}

// randAt is the shared primitive behind Rand/RandCycle/DegradeBy/Choose:
// a deterministic [0,1) value for a given rational time and seed.
func randAt(t fraction.Fraction, seed uint64) float64 {
	return hashUnit(hashTime64(t.Num(), t.Den(), seed))
}

// Rand is a continuous pattern of values in [0, 1), deterministically
// derived by hashing (query time, controls.RandSeed).
func Rand() Pattern[float64] {
	return New(func(st State) []hap.Hap[float64] {
		v := randAt(st.Span.Midpoint(), st.Controls.RandSeed)
		return []hap.Hap[float64]{hap.Continuous(st.Span, v, hap.Context{})}
	})
}

// RandCycle returns one random value per cycle rather than continuously
// varying within it: it hashes only the cycle number (Sam(t)), so every
// query within the same cycle sees the same value.
func RandCycle() Pattern[float64] {
	return New(func(st State) []hap.Hap[float64] {
		return queryCycles(st, func(sub State) []hap.Hap[float64] {
			c := fraction.Sam(sub.Span.Begin)
			v := randAt(c, sub.Controls.RandSeed)
			return []hap.Hap[float64]{hap.Continuous(sub.Span, v, hap.Context{})}
		})
	})
}

// DegradeBy keeps each hap of p with probability 1-prob, dropping it
// otherwise. The keep/drop decision is hashed from the hap's own onset
// time, so repeated runs with the same seed degrade identically (§8
// scenario 6).
func DegradeBy[T any](p Pattern[T], prob float64) Pattern[T] {
	return New(func(st State) []hap.Hap[T] {
		in := p.Query(st)
		out := in[:0:0]
		for _, h := range in {
			if randAt(h.Part.Begin, st.Controls.RandSeed) >= prob {
				out = append(out, h)
			}
		}
		return out
	})
}

// UndegradeBy is the complement of DegradeBy: keeps each hap with
// probability prob instead of 1-prob, using the identical hash so that
// DegradeBy(p, x) and UndegradeBy(p, x) partition p's haps with no overlap.
func UndegradeBy[T any](p Pattern[T], prob float64) Pattern[T] {
	return New(func(st State) []hap.Hap[T] {
		in := p.Query(st)
		out := in[:0:0]
		for _, h := range in {
			if randAt(h.Part.Begin, st.Controls.RandSeed) < prob {
				out = append(out, h)
			}
		}
		return out
	})
}

// Choose deterministically picks one of options per query, varying
// continuously like Rand.
func Choose[T any](options ...T) Pattern[T] {
	n := len(options)
	return New(func(st State) []hap.Hap[T] {
		r := randAt(st.Span.Midpoint(), st.Controls.RandSeed)
		idx := int(r * float64(n))
		if idx >= n {
			idx = n - 1
		}
		return []hap.Hap[T]{hap.Continuous(st.Span, options[idx], hap.Context{})}
	})
}

// WeightedChoice pairs a value with its relative selection weight for
// WChoose.
type WeightedChoice[T any] struct {
	Value  T
	Weight float64
}

// WChoose is Choose with non-uniform weights.
func WChoose[T any](choices ...WeightedChoice[T]) Pattern[T] {
	total := 0.0
	for _, c := range choices {
		total += c.Weight
	}
	return New(func(st State) []hap.Hap[T] {
		r := randAt(st.Span.Midpoint(), st.Controls.RandSeed) * total
		acc := 0.0
		chosen := choices[len(choices)-1].Value
		for _, c := range choices {
			acc += c.Weight
			if r < acc {
				chosen = c.Value
				break
			}
		}
		return []hap.Hap[T]{hap.Continuous(st.Span, chosen, hap.Context{})}
	})
}

// SometimesBy applies f to p, then keeps f's output haps only where the
// per-hap coin flip says "affected" and p's own haps otherwise, so that a
// fraction `prob` of haps are transformed and the rest pass through
// unchanged. f may be structural (Fast, Rev, ...), not just a value map,
// which is why this re-queries f(p) rather than transforming isolated
// haps in place.
func SometimesBy[T any](p Pattern[T], prob float64, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	affected := func(st State, h hap.Hap[T]) bool {
		return randAt(h.Part.Begin, st.Controls.RandSeed) < prob
	}
	return New(func(st State) []hap.Hap[T] {
		var out []hap.Hap[T]
		for _, h := range p.Query(st) {
			if !affected(st, h) {
				out = append(out, h)
			}
		}
		for _, h := range f(p).Query(st) {
			if affected(st, h) {
				out = append(out, h)
			}
		}
		return out
	})
}
