package fraction

import "testing"

func TestReducedEquality(t *testing.T) {
	a := New(2, 4)
	b := New(1, 2)
	if !a.Equal(b) {
		t.Fatalf("expected %v == %v", a, b)
	}
	if a.Num() != 1 || a.Den() != 2 {
		t.Fatalf("expected reduced 1/2, got %d/%d", a.Num(), a.Den())
	}
}

func TestSamIdempotent(t *testing.T) {
	t1 := New(7, 2) // 3.5
	s := Sam(t1)
	if !Sam(s).Equal(s) {
		t.Fatalf("sam not idempotent: sam(sam(t))=%v sam(t)=%v", Sam(s), s)
	}
	if !s.Equal(FromInt(3)) {
		t.Fatalf("expected sam(3.5)=3, got %v", s)
	}
}

func TestSamPlusCyclePos(t *testing.T) {
	cases := []Fraction{New(7, 2), New(-1, 2), FromInt(4), New(10, 3)}
	for _, tc := range cases {
		got := Sam(tc).Add(CyclePos(tc))
		if !got.Equal(tc) {
			t.Fatalf("sam(t)+cyclePos(t) != t for %v: got %v", tc, got)
		}
	}
}

func TestCyclePosRange(t *testing.T) {
	cases := []Fraction{New(7, 2), New(-1, 2), FromInt(4), New(-10, 3)}
	for _, tc := range cases {
		cp := CyclePos(tc)
		if cp.Less(Zero) || !cp.Less(One) {
			t.Fatalf("cyclePos(%v) = %v out of [0,1)", tc, cp)
		}
	}
}

func TestNextSam(t *testing.T) {
	if !NextSam(New(3, 2)).Equal(FromInt(2)) {
		t.Fatalf("expected next_sam(1.5) = 2")
	}
}

func TestArithmetic(t *testing.T) {
	a := New(1, 3)
	b := New(1, 6)
	if !a.Add(b).Equal(New(1, 2)) {
		t.Fatalf("1/3+1/6 != 1/2")
	}
	if !a.Sub(b).Equal(New(1, 6)) {
		t.Fatalf("1/3-1/6 != 1/6")
	}
	if !a.Mul(FromInt(3)).Equal(One) {
		t.Fatalf("1/3*3 != 1")
	}
	if !a.Div(a).Equal(One) {
		t.Fatalf("a/a != 1")
	}
	if !a.Neg().Equal(New(-1, 3)) {
		t.Fatalf("neg broken")
	}
	if !a.Neg().Abs().Equal(a) {
		t.Fatalf("abs broken")
	}
}

func TestFloorCeil(t *testing.T) {
	if !New(7, 2).Floor().Equal(FromInt(3)) {
		t.Fatalf("floor(3.5) != 3")
	}
	if !New(-7, 2).Floor().Equal(FromInt(-4)) {
		t.Fatalf("floor(-3.5) != -4")
	}
	if !New(7, 2).Ceil().Equal(FromInt(4)) {
		t.Fatalf("ceil(3.5) != 4")
	}
	if !FromInt(3).Ceil().Equal(FromInt(3)) {
		t.Fatalf("ceil(3) != 3")
	}
}
