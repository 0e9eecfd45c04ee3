package timespan

import (
	"testing"

	"github.com/patchwerk/engine/internal/pattern/fraction"
)

func f(n, d int64) fraction.Fraction { return fraction.New(n, d) }

func TestSpanCyclesNoBoundary(t *testing.T) {
	s := New(f(0, 1), f(1, 2))
	got := s.SpanCycles()
	if len(got) != 1 || !got[0].Equal(s) {
		t.Fatalf("expected single span unchanged, got %v", got)
	}
}

func TestSpanCyclesCrossesBoundary(t *testing.T) {
	s := New(f(1, 2), f(5, 2)) // 0.5 .. 2.5
	got := s.SpanCycles()
	want := []TimeSpan{
		New(f(1, 2), f(1, 1)),
		New(f(1, 1), f(2, 1)),
		New(f(2, 1), f(5, 2)),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d sub-spans, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("sub-span %d: want %v got %v", i, want[i], got[i])
		}
	}
}

func TestSpanCyclesZeroWidth(t *testing.T) {
	s := New(f(3, 2), f(3, 2))
	got := s.SpanCycles()
	if len(got) != 1 || !got[0].Equal(s) {
		t.Fatalf("zero-width span must return itself, got %v", got)
	}
}

func TestIntersectionTouchingDoNotOverlap(t *testing.T) {
	a := New(f(0, 1), f(1, 2))
	b := New(f(1, 2), f(1, 1))
	_, ok := Intersection(a, b)
	if ok {
		t.Fatalf("touching half-open spans must not intersect")
	}
}

func TestIntersectionOverlap(t *testing.T) {
	a := New(f(0, 1), f(3, 4))
	b := New(f(1, 4), f(1, 1))
	got, ok := Intersection(a, b)
	if !ok {
		t.Fatalf("expected intersection")
	}
	want := New(f(1, 4), f(3, 4))
	if !got.Equal(want) {
		t.Fatalf("want %v got %v", want, got)
	}
}

func TestIntersectionCommutative(t *testing.T) {
	a := New(f(0, 1), f(3, 4))
	b := New(f(1, 4), f(1, 1))
	ab, okab := Intersection(a, b)
	ba, okba := Intersection(b, a)
	if okab != okba || !ab.Equal(ba) {
		t.Fatalf("intersection not commutative: %v vs %v", ab, ba)
	}
}

func TestIntersectionSamePoint(t *testing.T) {
	a := New(f(1, 2), f(1, 2))
	b := New(f(1, 2), f(1, 2))
	got, ok := Intersection(a, b)
	if !ok || !got.Equal(a) {
		t.Fatalf("coincident zero-width spans should intersect at that point")
	}
}

func TestSpanCyclesPartitionsUnion(t *testing.T) {
	s := New(f(0, 1), f(3, 1))
	parts := s.SpanCycles()
	if len(parts) != 3 {
		t.Fatalf("expected 3 whole-cycle parts, got %d", len(parts))
	}
	if !parts[0].Begin.Equal(s.Begin) {
		t.Fatalf("first part must start at span begin")
	}
	if !parts[len(parts)-1].End.Equal(s.End) {
		t.Fatalf("last part must end at span end")
	}
	for i := 1; i < len(parts); i++ {
		if !parts[i-1].End.Equal(parts[i].Begin) {
			t.Fatalf("parts must be contiguous: %v -> %v", parts[i-1], parts[i])
		}
	}
}
