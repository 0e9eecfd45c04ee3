// Package fraction implements exact rational time for the pattern engine.
//
// Every cycle boundary, hap edge, and playhead comparison in the sequencer
// is computed over Fraction rather than a floating point type, so that
// long-running patterns never drift from their nominal cycle grid.
package fraction

import (
	"fmt"
	"math/big"
)

// Fraction is an exact, always-reduced rational number backed by
// arbitrary-precision integers.
type Fraction struct {
	r big.Rat
}

// New returns the reduced fraction num/den. Panics if den is zero, matching
// the behavior of math/big.Rat.SetFrac for a zero denominator.
func New(num, den int64) Fraction {
	var f Fraction
	f.r.SetFrac64(num, den)
	return f
}

// FromInt returns the fraction n/1.
func FromInt(n int64) Fraction {
	var f Fraction
	f.r.SetInt64(n)
	return f
}

// FromFloat approximates v as a Fraction. This conversion is lossy and, per
// the data model, must only be used outside the time-correctness critical
// path (e.g. translating a UI slider value into a one-off parameter).
func FromFloat(v float64) Fraction {
	var f Fraction
	f.r.SetFloat64(v)
	return f
}

// Zero is the additive identity.
var Zero = FromInt(0)

// One is the multiplicative identity and the length of one cycle.
var One = FromInt(1)

func (a Fraction) Add(b Fraction) Fraction {
	var out Fraction
	out.r.Add(&a.r, &b.r)
	return out
}

func (a Fraction) Sub(b Fraction) Fraction {
	var out Fraction
	out.r.Sub(&a.r, &b.r)
	return out
}

func (a Fraction) Mul(b Fraction) Fraction {
	var out Fraction
	out.r.Mul(&a.r, &b.r)
	return out
}

// Div returns a/b. Panics if b is zero.
func (a Fraction) Div(b Fraction) Fraction {
	if b.r.Sign() == 0 {
		panic("fraction: division by zero")
	}
	var out Fraction
	out.r.Quo(&a.r, &b.r)
	return out
}

func (a Fraction) Neg() Fraction {
	var out Fraction
	out.r.Neg(&a.r)
	return out
}

func (a Fraction) Abs() Fraction {
	var out Fraction
	out.r.Abs(&a.r)
	return out
}

// Cmp returns -1, 0, or +1 depending on whether a is <, ==, or > b.
func (a Fraction) Cmp(b Fraction) int {
	return a.r.Cmp(&b.r)
}

func (a Fraction) Equal(b Fraction) bool { return a.Cmp(b) == 0 }
func (a Fraction) Less(b Fraction) bool  { return a.Cmp(b) < 0 }
func (a Fraction) LessEq(b Fraction) bool {
	return a.Cmp(b) <= 0
}
func (a Fraction) Greater(b Fraction) bool   { return a.Cmp(b) > 0 }
func (a Fraction) GreaterEq(b Fraction) bool { return a.Cmp(b) >= 0 }

// Max returns the larger of a and b.
func Max(a, b Fraction) Fraction {
	if a.Less(b) {
		return b
	}
	return a
}

// Min returns the smaller of a and b.
func Min(a, b Fraction) Fraction {
	if a.Greater(b) {
		return b
	}
	return a
}

// Floor returns the greatest integer fraction <= a.
func (a Fraction) Floor() Fraction {
	var q big.Int
	num := a.r.Num()
	den := a.r.Denom()
	var mod big.Int
	q.DivMod(num, den, &mod)
	var out Fraction
	out.r.SetInt(&q)
	return out
}

// Ceil returns the least integer fraction >= a.
func (a Fraction) Ceil() Fraction {
	f := a.Floor()
	if f.Equal(a) {
		return f
	}
	return f.Add(One)
}

// Sam returns the start of the cycle containing t: floor(t).
func Sam(t Fraction) Fraction { return t.Floor() }

// NextSam returns the start of the cycle following the one containing t.
func NextSam(t Fraction) Fraction { return Sam(t).Add(One) }

// CyclePos returns t's offset from the start of its cycle, in [0, 1).
func CyclePos(t Fraction) Fraction { return t.Sub(Sam(t)) }

// IsInteger reports whether the fraction has denominator 1.
func (a Fraction) IsInteger() bool {
	return a.r.IsInt()
}

// Float64 returns the nearest float64 approximation. Lossy; confined to
// DSP-rate comparisons outside the time-correctness critical path.
func (a Fraction) Float64() float64 {
	f, _ := a.r.Float64()
	return f
}

// Num and Den return the reduced numerator and denominator.
func (a Fraction) Num() int64 { return a.r.Num().Int64() }
func (a Fraction) Den() int64 { return a.r.Denom().Int64() }

func (a Fraction) String() string {
	if a.r.IsInt() {
		return a.r.Num().String()
	}
	return fmt.Sprintf("%s/%s", a.r.Num().String(), a.r.Denom().String())
}
