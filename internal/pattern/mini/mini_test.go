package mini

import (
	"testing"

	"github.com/patchwerk/engine/internal/pattern"
	"github.com/patchwerk/engine/internal/pattern/fraction"
	"github.com/patchwerk/engine/internal/pattern/hap"
	"github.com/patchwerk/engine/internal/pattern/timespan"
)

func identDecoder(a AtomValue, _ hap.SourceSpan) (string, error) {
	return a.Text, nil
}

func spanFull() timespan.TimeSpan {
	return timespan.New(fraction.FromInt(0), fraction.FromInt(1))
}

func queryVals(t *testing.T, p pattern.Pattern[string]) []string {
	t.Helper()
	haps := p.Query(pattern.State{Span: spanFull()})
	out := make([]string, len(haps))
	for i, h := range haps {
		out[i] = h.Value
	}
	return out
}

func TestSequenceFastCat(t *testing.T) {
	p, err := Compile("bd sn hh", identDecoder, nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	got := queryVals(t, p)
	want := []string{"bd", "sn", "hh"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestRestProducesNoHap(t *testing.T) {
	p, err := Compile("bd ~ sn", identDecoder, nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	got := queryVals(t, p)
	if len(got) != 2 || got[0] != "bd" || got[1] != "sn" {
		t.Fatalf("expected 2 non-rest haps, got %v", got)
	}
}

func TestStackCommaSeparated(t *testing.T) {
	p, err := Compile("bd, sn", identDecoder, nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	got := queryVals(t, p)
	if len(got) != 2 {
		t.Fatalf("expected a stack of 2, got %v", got)
	}
}

func TestBracketGroupIsOneSlot(t *testing.T) {
	p, err := Compile("bd [sn hh]", identDecoder, nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	got := queryVals(t, p)
	want := []string{"bd", "sn", "hh"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSlowAlternation(t *testing.T) {
	p, err := Compile("<bd sn hh>", identDecoder, nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	haps := p.Query(pattern.State{Span: timespan.New(fraction.FromInt(0), fraction.FromInt(3))})
	want := []string{"bd", "sn", "hh"}
	if len(haps) != 3 {
		t.Fatalf("expected one per cycle, got %d", len(haps))
	}
	for i, h := range haps {
		if h.Value != want[i] {
			t.Fatalf("slowcat order wrong: got %v", haps)
		}
	}
}

func TestModifierFast(t *testing.T) {
	p, err := Compile("bd*2 sn", identDecoder, nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	got := queryVals(t, p)
	want := []string{"bd", "bd", "sn"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestModifierReplicate(t *testing.T) {
	p, err := Compile("bd!3 sn", identDecoder, nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	got := queryVals(t, p)
	want := []string{"bd", "bd", "bd", "sn"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestModifierEuclid(t *testing.T) {
	p, err := Compile("bd(3,8)", identDecoder, nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	got := queryVals(t, p)
	if len(got) != 3 {
		t.Fatalf("expected 3 onsets from bd(3,8), got %v", got)
	}
}

func TestSourceSpanPreserved(t *testing.T) {
	p, err := Compile("bd sn", identDecoder, nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	haps := p.Query(pattern.State{Span: spanFull()})
	for _, h := range haps {
		if len(h.Context.Spans) == 0 {
			t.Fatalf("leaf hap missing source span: %v", h)
		}
	}
}

func TestParseErrorHasSpan(t *testing.T) {
	_, err := Compile("[bd sn", identDecoder, nil)
	if err == nil {
		t.Fatalf("expected a parse error for unbalanced bracket")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Span.Start < 0 {
		t.Fatalf("expected a valid span, got %v", pe.Span)
	}
}

func TestAtomParseNoteAndMidiAndHz(t *testing.T) {
	n := ParseAtom("c4")
	if n.Kind != AtomNote || n.NoteLetter != 'c' || !n.HasOctave || n.NoteOctave != 4 {
		t.Fatalf("unexpected note parse: %+v", n)
	}
	f, ok := n.ToF64()
	if !ok || f != 60 {
		t.Fatalf("c4 should be midi 60, got %v ok=%v", f, ok)
	}

	m := ParseAtom("m60")
	if m.Kind != AtomMidi || m.Midi != 60 {
		t.Fatalf("unexpected midi parse: %+v", m)
	}

	hzAtom := ParseAtom("440hz")
	if hzAtom.Kind != AtomHz || hzAtom.Number != 440 {
		t.Fatalf("unexpected hz parse: %+v", hzAtom)
	}

	ident := ParseAtom("bd")
	if ident.Kind != AtomIdentifier || ident.Text != "bd" {
		t.Fatalf("unexpected identifier parse: %+v", ident)
	}
}

func TestOperatorChainFast(t *testing.T) {
	reg := NewOperatorRegistry[string]()
	RegisterStructuralOperators(reg)
	p, err := Compile("bd sn $ fast(2)", identDecoder, reg)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	haps := p.Query(pattern.State{Span: spanFull()})
	if len(haps) != 4 {
		t.Fatalf("fast(2) over a 2-step sequence should give 4 haps in one cycle, got %d", len(haps))
	}
}

func TestFloatOperatorAdd(t *testing.T) {
	reg := NewOperatorRegistry[float64]()
	RegisterStructuralOperators(reg)
	RegisterArithmeticOperators(reg)
	dec := func(a AtomValue, _ hap.SourceSpan) (float64, error) {
		v, _ := a.ToF64()
		return v, nil
	}
	p, err := Compile("1 2 $ add(10)", dec, reg)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	haps := p.Query(pattern.State{Span: spanFull()})
	if len(haps) != 2 || haps[0].Value != 11 || haps[1].Value != 12 {
		t.Fatalf("expected [11,12] from add(10), got %v", haps)
	}
}
