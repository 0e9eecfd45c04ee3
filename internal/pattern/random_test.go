package pattern

import "testing"

func TestRandDeterministic(t *testing.T) {
	st := State{Span: spanI(0, 1), Controls: Controls{RandSeed: 42}}
	a := Rand().Query(st)
	b := Rand().Query(st)
	if len(a) != 1 || len(b) != 1 || a[0].Value != b[0].Value {
		t.Fatalf("Rand() not deterministic for identical (span,seed): %v vs %v", a, b)
	}
}

func TestRandDiffersBySeed(t *testing.T) {
	a := Rand().Query(State{Span: spanI(0, 1), Controls: Controls{RandSeed: 1}})
	b := Rand().Query(State{Span: spanI(0, 1), Controls: Controls{RandSeed: 2}})
	if a[0].Value == b[0].Value {
		t.Fatalf("Rand() should usually differ across seeds (got equal by coincidence or bug)")
	}
}

func TestRandCycleConstantWithinCycle(t *testing.T) {
	st := State{Span: spanI(0, 1), Controls: Controls{RandSeed: 7}}
	haps := RandCycle().Query(st)
	if len(haps) != 1 {
		t.Fatalf("expected one hap per cycle, got %d", len(haps))
	}
}

func TestDegradeByDeterministic(t *testing.T) {
	p := FastCat(Pure(1), Pure(2), Pure(3), Pure(4), Pure(5), Pure(6), Pure(7), Pure(8))
	st := State{Span: spanI(0, 1), Controls: Controls{RandSeed: 99}}
	a := DegradeBy(p, 0.5).Query(st)
	b := DegradeBy(p, 0.5).Query(st)
	if len(a) != len(b) {
		t.Fatalf("degradeBy not deterministic: %d vs %d haps", len(a), len(b))
	}
	for i := range a {
		if a[i].Value != b[i].Value {
			t.Fatalf("degradeBy not deterministic at %d", i)
		}
	}
}

func TestDegradeAndUndegradePartition(t *testing.T) {
	p := FastCat(Pure(1), Pure(2), Pure(3), Pure(4), Pure(5), Pure(6), Pure(7), Pure(8))
	st := State{Span: spanI(0, 1), Controls: Controls{RandSeed: 3}}
	kept := DegradeBy(p, 0.5).Query(st)
	dropped := UndegradeBy(p, 0.5).Query(st)
	if len(kept)+len(dropped) != 8 {
		t.Fatalf("degrade+undegrade should partition all 8 haps, got %d+%d", len(kept), len(dropped))
	}
}
