// Package oscillator implements a wavetable-based audio-rate oscillator
// module, adapting the phase-accumulator and linear-interpolation playback
// from the teacher's wavetable voice engine to a single continuous-tone
// module driven by cable/volts parameters instead of NoteOn/NoteOff events.
package oscillator

import (
	"fmt"
	"math"

	"github.com/patchwerk/engine/internal/graph"
)

const twoPi = math.Pi * 2

// builtin table names understood by the "wave" parameter.
const (
	WaveSine     = "sine"
	WaveSaw      = "saw"
	WaveSquare   = "square"
	WaveTriangle = "triangle"
)

func builtinTable(name string) []float64 {
	const n = 256
	t := make([]float64, n)
	switch name {
	case WaveSaw:
		for i := range t {
			t[i] = 2*(float64(i)/float64(n)) - 1
		}
	case WaveSquare:
		for i := range t {
			if i < n/2 {
				t[i] = 1
			} else {
				t[i] = -1
			}
		}
	case WaveTriangle:
		for i := range t {
			phase := float64(i) / float64(n)
			if phase < 0.5 {
				t[i] = 4*phase - 1
			} else {
				t[i] = 3 - 4*phase
			}
		}
	default: // WaveSine
		for i := range t {
			t[i] = math.Sin(twoPi * float64(i) / float64(n))
		}
	}
	return t
}

// Module is a single free-running oscillator voice: a pitch input in volts
// per octave using this engine's canonical encoding (freq = baseFreq *
// 2^volts, baseFreq defaulting to 27.5 Hz so 0V reads as the glossary's
// "27.5·2^v Hz" convention directly), an amplitude input, and a "wave"
// selecting a built-in table.
type Module struct {
	id         string
	sampleRate float64

	pitch     graph.Signal // volts/octave, 0V == baseFreq
	baseFreq  float64
	amp       graph.Signal
	wave      string
	table     []float64
	ampSmooth *graph.Smoother

	phase    float64
	pending  graph.PolyBuffer
	snapshot graph.PolyBuffer
}

func New(id string, sampleRate float64) (graph.Module, error) {
	return &Module{
		id:         id,
		sampleRate: sampleRate,
		pitch:      graph.NewVolts(0),
		baseFreq:   27.5, // V/oct reference: 27.5Hz at 0V (glossary)
		amp:        graph.NewVolts(1),
		wave:       WaveSine,
		table:      builtinTable(WaveSine),
		ampSmooth:  graph.NewSmoother(),
	}, nil
}

func (m *Module) ID() string         { return m.id }
func (m *Module) ModuleType() string { return "oscillator" }

func (m *Module) UpdateParams(params map[string]any) error {
	if v, ok := params["pitch"]; ok {
		sig, err := graph.SignalFromAny(v)
		if err != nil {
			return fmt.Errorf("pitch: %w", err)
		}
		m.pitch = sig
	}
	if v, ok := params["amp"]; ok {
		sig, err := graph.SignalFromAny(v)
		if err != nil {
			return fmt.Errorf("amp: %w", err)
		}
		m.amp = sig
	}
	if v, ok := params["base_freq"]; ok {
		m.baseFreq = graph.FloatFromAny(v, m.baseFreq)
	}
	if v, ok := params["wave"]; ok {
		m.wave = graph.StringFromAny(v, m.wave)
		m.table = builtinTable(m.wave)
	}
	return nil
}

func (m *Module) Connect(p *graph.Patch) error {
	if err := m.pitch.Resolve(p); err != nil {
		return fmt.Errorf("pitch: %w", err)
	}
	if err := m.amp.Resolve(p); err != nil {
		return fmt.Errorf("amp: %w", err)
	}
	return nil
}

func (m *Module) Update(*graph.Patch) {
	volts := m.pitch.Value(0)
	freq := m.baseFreq * math.Pow(2, volts)
	amp := m.ampSmooth.Step(m.amp.Value(1))

	n := len(m.table)
	if n == 0 {
		m.pending = graph.PolyBuffer{Active: 1}
		return
	}
	idx := math.Floor(m.phase)
	frac := m.phase - idx
	i0 := int(idx) % n
	if i0 < 0 {
		i0 += n
	}
	i1 := (i0 + 1) % n
	sample := m.table[i0]*(1-frac) + m.table[i1]*frac
	m.pending = graph.Mono(sample * amp)

	m.phase += freq * float64(n) / m.sampleRate
	for m.phase >= float64(n) {
		m.phase -= float64(n)
	}
	for m.phase < 0 {
		m.phase += float64(n)
	}
}

func (m *Module) Tick() { m.snapshot = m.pending }

func (m *Module) GetPolySample(port string) (graph.PolyBuffer, error) {
	if port != "out" {
		return graph.PolyBuffer{}, fmt.Errorf("oscillator %q: unknown port %q", m.id, port)
	}
	return m.snapshot, nil
}
