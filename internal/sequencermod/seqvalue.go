// Package sequencermod implements the sequencer module that bridges the
// pattern layer (internal/pattern, internal/pattern/mini) to the graph
// runtime (internal/graph): it parses mini-notation text into a
// pattern.Pattern[Value], reads a playhead cable every sample, and drives
// cv/gate/trig outputs, querying the pattern only when the playhead leaves
// the cached hap and reusing that hap across every sample inside its span
// the way the teacher's sequencer reuses a
// trackCursor's current event across every tick inside its duration
// instead of rewalking the score (internal/sequencer/sequencer.go).
package sequencermod

import (
	"fmt"
	"math"

	"github.com/patchwerk/engine/internal/graph"
	"github.com/patchwerk/engine/internal/pattern/hap"
	"github.com/patchwerk/engine/internal/pattern/mini"
)

// Kind tags which shape a sequencer pattern's target value, Value, takes
// (§4.8's "target-typed atoms... a tagged union of Voltage(f64),
// Signal{cable,sample_and_hold}, and Rest").
type Kind int

const (
	KindRest Kind = iota
	KindVoltage
	KindSignal
)

// Value is the sequencer's mini-notation target type.
type Value struct {
	Kind Kind

	Voltage float64 // KindVoltage: a plain V/oct-converted number.

	// KindSignal: a cable reference read live each sample, optionally
	// sampled once at the hap's onset and held instead of tracked
	// continuously.
	CableModule   string
	CablePort     string
	CableChannel  int
	SampleAndHold bool
}

func Rest() Value { return Value{Kind: KindRest} }

func Voltage(v float64) Value { return Value{Kind: KindVoltage, Voltage: v} }

func Signal(module, port string, channel int, sampleAndHold bool) Value {
	return Value{
		Kind: KindSignal, CableModule: module, CablePort: port,
		CableChannel: channel, SampleAndHold: sampleAndHold,
	}
}

// decodeAtom decodes a parsed mini-notation atom into a Value: "~" rests
// are handled by the mini parser itself (NodeRest), so this only ever sees
// real atoms. Identifiers of the form "module:port" reference a module's
// output port by id, split at the first ':' (e.g. "lfo1:out"); notes and MIDI numbers convert to V/oct at
// parse time per §4.8. A trailing "&" sample-and-holds a cable atom.
func decodeAtom(a mini.AtomValue, _ hap.SourceSpan) (Value, error) {
	if a.Kind == mini.AtomIdentifier {
		return decodeIdentifier(a.Text)
	}
	v, ok := a.ToF64()
	if !ok {
		return Value{}, fmt.Errorf("sequencer: atom %q has no numeric or cable reading", a.Text)
	}
	// Notes and MIDI numbers are V/oct-converted here. The glossary fixes
	// freq = 27.5*2^v (27.5Hz = MIDI note 21 = A0), so a MIDI note m maps
	// to v = (m-21)/12; ToF64 already returns m for AtomNote/AtomMidi.
	switch a.Kind {
	case mini.AtomNote, mini.AtomMidi:
		return Voltage((v - 21) / 12), nil
	case mini.AtomHz:
		return Voltage(hzToVolts(v)), nil
	default:
		return Voltage(v), nil
	}
}

// hzToVolts inverts the glossary's V/oct convention (freq = 27.5 * 2^v).
func hzToVolts(hz float64) float64 {
	if hz <= 0 {
		return 0
	}
	return math.Log2(hz / 27.5)
}

func decodeIdentifier(text string) (Value, error) {
	sampleAndHold := false
	if len(text) > 0 && text[len(text)-1] == '&' {
		sampleAndHold = true
		text = text[:len(text)-1]
	}
	module, port, ok := splitCableRef(text)
	if !ok {
		return Value{}, fmt.Errorf("sequencer: unrecognized atom %q", text)
	}
	return Signal(module, port, 0, sampleAndHold), nil
}

func splitCableRef(text string) (module, port string, ok bool) {
	for i := 0; i < len(text); i++ {
		if text[i] == ':' {
			return text[:i], text[i+1:], true
		}
	}
	return "", "", false
}

// cableSignalFor builds an unresolved graph.Signal for a KindSignal Value;
// the sequencer resolves it against the live patch when it requeries the
// pattern during Update, not at Connect time.
func cableSignalFor(v Value) graph.Signal {
	return graph.NewCable(v.CableModule, v.CablePort, v.CableChannel)
}
