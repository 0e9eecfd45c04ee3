// Package envelope implements a gate-triggered ADSR envelope module,
// adapting the attack/decay/sustain/release state machine from the
// teacher's wavetable voice engine (which drove it from NoteOn/NoteOff) to
// a free-standing module driven by a cable gate input instead.
package envelope

import (
	"fmt"

	"github.com/patchwerk/engine/internal/graph"
)

type stage int

const (
	stageIdle stage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

type Module struct {
	id         string
	sampleRate float64

	gate graph.Signal

	attackSec  float64
	decaySec   float64
	sustain    float64
	releaseSec float64

	stage    stage
	level    float64
	gateHigh bool

	pending  graph.PolyBuffer
	snapshot graph.PolyBuffer
}

func New(id string, sampleRate float64) (graph.Module, error) {
	return &Module{
		id:         id,
		sampleRate: sampleRate,
		gate:       graph.NewVolts(0),
		attackSec:  0.005,
		decaySec:   0.12,
		sustain:    0.75,
		releaseSec: 0.2,
	}, nil
}

func (m *Module) ID() string         { return m.id }
func (m *Module) ModuleType() string { return "envelope" }

func (m *Module) UpdateParams(params map[string]any) error {
	if v, ok := params["gate"]; ok {
		sig, err := graph.SignalFromAny(v)
		if err != nil {
			return fmt.Errorf("gate: %w", err)
		}
		m.gate = sig
	}
	if v, ok := params["attack"]; ok {
		m.attackSec = graph.FloatFromAny(v, m.attackSec)
	}
	if v, ok := params["decay"]; ok {
		m.decaySec = graph.FloatFromAny(v, m.decaySec)
	}
	if v, ok := params["sustain"]; ok {
		m.sustain = graph.FloatFromAny(v, m.sustain)
	}
	if v, ok := params["release"]; ok {
		m.releaseSec = graph.FloatFromAny(v, m.releaseSec)
	}
	return nil
}

func (m *Module) Connect(p *graph.Patch) error {
	if err := m.gate.Resolve(p); err != nil {
		return fmt.Errorf("gate: %w", err)
	}
	return nil
}

func (m *Module) Update(*graph.Patch) {
	high := m.gate.Value(0) > 0.5
	if high && !m.gateHigh {
		m.stage = stageAttack
	} else if !high && m.gateHigh {
		m.stage = stageRelease
	}
	m.gateHigh = high

	switch m.stage {
	case stageIdle:
		m.level = 0
	case stageAttack:
		step := 1.0 / (m.attackSec * m.sampleRate)
		if step <= 0 {
			step = 1
		}
		m.level += step
		if m.level >= 1 {
			m.level = 1
			m.stage = stageDecay
		}
	case stageDecay:
		step := (1 - m.sustain) / (m.decaySec * m.sampleRate)
		if step <= 0 {
			step = 1
		}
		m.level -= step
		if m.level <= m.sustain {
			m.level = m.sustain
			m.stage = stageSustain
		}
	case stageSustain:
		m.level = m.sustain
	case stageRelease:
		step := m.sustain / (m.releaseSec * m.sampleRate)
		if step <= 0 {
			step = m.level
		}
		m.level -= step
		if m.level <= 0.0001 {
			m.level = 0
			m.stage = stageIdle
		}
	}
	m.pending = graph.Mono(m.level)
}

func (m *Module) Tick() { m.snapshot = m.pending }

func (m *Module) GetPolySample(port string) (graph.PolyBuffer, error) {
	if port != "out" {
		return graph.PolyBuffer{}, fmt.Errorf("envelope %q: unknown port %q", m.id, port)
	}
	return m.snapshot, nil
}
