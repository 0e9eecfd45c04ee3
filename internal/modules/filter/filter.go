// Package filter implements a one-pole LP/HP/BP filter module, adapting
// the output-stage filter state machine from the teacher's wavetable voice
// engine (there hard-wired to the engine's own stereo output) into a
// free-standing single-input module addressable from any patch.
package filter

import (
	"fmt"
	"math"

	"github.com/patchwerk/engine/internal/graph"
)

const twoPi = math.Pi * 2

type kind int

const (
	kindLP kind = iota
	kindHP
	kindBP
)

func kindFromString(s string) kind {
	switch s {
	case "hp", "highpass":
		return kindHP
	case "bp", "bandpass":
		return kindBP
	default:
		return kindLP
	}
}

type Module struct {
	id         string
	sampleRate float64

	in       graph.Signal
	cutoff   graph.Signal
	kind     kind
	cutSmooth *graph.Smoother

	lp, bp   float64
	pending  graph.PolyBuffer
	snapshot graph.PolyBuffer
}

func New(id string, sampleRate float64) (graph.Module, error) {
	return &Module{
		id:         id,
		sampleRate: sampleRate,
		in:         graph.NewVolts(0),
		cutoff:     graph.NewVolts(1000),
		kind:       kindLP,
		cutSmooth:  graph.NewSmoother(),
	}, nil
}

func (m *Module) ID() string         { return m.id }
func (m *Module) ModuleType() string { return "filter" }

func (m *Module) UpdateParams(params map[string]any) error {
	if v, ok := params["in"]; ok {
		sig, err := graph.SignalFromAny(v)
		if err != nil {
			return fmt.Errorf("in: %w", err)
		}
		m.in = sig
	}
	if v, ok := params["cutoff"]; ok {
		sig, err := graph.SignalFromAny(v)
		if err != nil {
			return fmt.Errorf("cutoff: %w", err)
		}
		m.cutoff = sig
	}
	if v, ok := params["type"]; ok {
		m.kind = kindFromString(graph.StringFromAny(v, ""))
	}
	return nil
}

func (m *Module) Connect(p *graph.Patch) error {
	if err := m.in.Resolve(p); err != nil {
		return fmt.Errorf("in: %w", err)
	}
	if err := m.cutoff.Resolve(p); err != nil {
		return fmt.Errorf("cutoff: %w", err)
	}
	return nil
}

func (m *Module) Update(*graph.Patch) {
	cutoff := m.cutSmooth.Step(m.cutoff.Value(1000))
	if cutoff < 10 {
		cutoff = 10
	}
	nyquist := m.sampleRate / 2
	if cutoff > nyquist {
		cutoff = nyquist
	}
	rc := 1.0 / (twoPi * cutoff)
	dt := 1.0 / m.sampleRate
	alpha := dt / (rc + dt)

	x := m.in.Value(0)
	m.lp += alpha * (x - m.lp)

	var out float64
	switch m.kind {
	case kindLP:
		out = m.lp
	case kindHP:
		out = x - m.lp
	case kindBP:
		m.bp += alpha * (m.lp - m.bp)
		out = m.lp - m.bp
	}
	m.pending = graph.Mono(out)
}

func (m *Module) Tick() { m.snapshot = m.pending }

func (m *Module) GetPolySample(port string) (graph.PolyBuffer, error) {
	if port != "out" {
		return graph.PolyBuffer{}, fmt.Errorf("filter %q: unknown port %q", m.id, port)
	}
	return m.snapshot, nil
}
