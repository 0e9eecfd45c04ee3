// Package clock implements the tempo-synced transport clock, adapting
// dsp/core/clock.rs's phase/ppq/beat subdivision counters (the richer of
// the original's two overlapping clock modules, chosen as canonical; see
// DESIGN.md) into a module driven by the patch's Update/Tick cycle instead
// of a direct per-sample callback.
package clock

import (
	"fmt"

	"github.com/patchwerk/engine/internal/graph"
	"github.com/patchwerk/engine/internal/messages"
)

type Module struct {
	id         string
	sampleRate float64

	tempo       float64
	numerator   int
	denominator int

	phase      float64
	ppqPhase   float64
	beatPhase  float64
	loopIndex  uint64
	beatInBar  float64

	running bool

	lastBarTrigger  bool
	lastBeatTrigger bool
	lastPPQTrigger  bool

	barTrigger, beatTrigger, ppqTrigger, ramp float64

	pendingPlayhead  graph.PolyBuffer
	snapshotPlayhead graph.PolyBuffer

	pendingScalars  map[string]float64
	snapshotScalars map[string]float64
}

func New(id string, sampleRate float64) (graph.Module, error) {
	m := &Module{
		id:          id,
		sampleRate:  sampleRate,
		tempo:       120,
		numerator:   4,
		denominator: 4,
		running:     true,
	}
	m.pendingScalars = map[string]float64{}
	m.snapshotScalars = map[string]float64{}
	return m, nil
}

func (m *Module) ID() string         { return m.id }
func (m *Module) ModuleType() string { return "clock" }

func (m *Module) UpdateParams(params map[string]any) error {
	if v, ok := params["tempo"]; ok {
		m.tempo = graph.FloatFromAny(v, m.tempo)
	}
	if v, ok := params["numerator"]; ok {
		m.numerator = graph.IntFromAny(v, m.numerator)
	}
	if v, ok := params["denominator"]; ok {
		m.denominator = graph.IntFromAny(v, m.denominator)
	}
	if m.numerator < 1 {
		return fmt.Errorf("numerator must be a positive integer (>= 1)")
	}
	if m.denominator < 1 {
		return fmt.Errorf("denominator must be a positive integer (>= 1)")
	}
	return nil
}

func (m *Module) Connect(*graph.Patch) error { return nil }

func (m *Module) HandledMessageTags() []messages.Tag {
	return []messages.Tag{messages.TagClockStart, messages.TagClockStop}
}

func (m *Module) HandleMessage(msg messages.Message) error {
	switch msg.Tag {
	case messages.TagClockStart:
		m.running = true
		m.phase = 0
		m.ppqPhase = 0
		m.beatPhase = 0
		m.loopIndex = 0
		m.beatInBar = 0
		m.lastBarTrigger = false
		m.lastBeatTrigger = false
		m.lastPPQTrigger = false
	case messages.TagClockStop:
		m.running = false
		m.barTrigger, m.beatTrigger, m.ppqTrigger = 0, 0, 0
		m.phase, m.ppqPhase, m.beatPhase = 0, 0, 0
		m.loopIndex = 0
		m.beatInBar = 0
	}
	return nil
}

func (m *Module) Update(*graph.Patch) {
	if !m.running {
		return
	}

	bpm := m.tempo
	if bpm < 1 {
		bpm = 1
	}
	frequencyHz := bpm / 60

	numerator := float64(m.numerator)
	if numerator < 1 {
		numerator = 1
	}
	denominator := float64(m.denominator)
	if denominator < 1 {
		denominator = 1
	}

	quarterNotesPerBar := numerator * 4 / denominator
	barFrequency := frequencyHz / quarterNotesPerBar
	phaseIncrement := barFrequency / m.sampleRate

	m.phase += phaseIncrement
	m.ppqPhase += phaseIncrement
	m.beatPhase += phaseIncrement

	if m.phase >= 1 {
		m.phase -= 1
		m.loopIndex++
	}

	ppqPeriod := 1.0 / (12.0 * quarterNotesPerBar)
	if m.ppqPhase >= ppqPeriod {
		m.ppqPhase -= ppqPeriod
	}

	beatPeriod := 1.0 / numerator
	if m.beatPhase >= beatPeriod {
		m.beatPhase -= beatPeriod
	}

	m.beatInBar = float64(int(m.phase * numerator))
	m.ramp = m.phase * 5

	shouldBarTrigger := m.phase <= phaseIncrement
	if shouldBarTrigger && !m.lastBarTrigger {
		m.barTrigger = 5
	} else {
		m.barTrigger = 0
	}
	m.lastBarTrigger = shouldBarTrigger

	shouldBeatTrigger := m.beatPhase <= phaseIncrement
	if shouldBeatTrigger && !m.lastBeatTrigger {
		m.beatTrigger = 5
	} else {
		m.beatTrigger = 0
	}
	m.lastBeatTrigger = shouldBeatTrigger

	shouldPPQTrigger := m.ppqPhase <= phaseIncrement
	if shouldPPQTrigger && !m.lastPPQTrigger {
		m.ppqTrigger = 5
	} else {
		m.ppqTrigger = 0
	}
	m.lastPPQTrigger = shouldPPQTrigger

	m.pendingPlayhead = graph.WithChannels(m.phase, float64(m.loopIndex))
	m.pendingScalars = map[string]float64{
		"bar_trigger":  m.barTrigger,
		"beat_trigger": m.beatTrigger,
		"ppq_trigger":  m.ppqTrigger,
		"ramp":         m.ramp,
		"beat_in_bar":  m.beatInBar,
	}
}

func (m *Module) Tick() {
	m.snapshotPlayhead = m.pendingPlayhead
	m.snapshotScalars = m.pendingScalars
}

func (m *Module) GetPolySample(port string) (graph.PolyBuffer, error) {
	if port == "playhead" {
		return m.snapshotPlayhead, nil
	}
	if v, ok := m.snapshotScalars[port]; ok {
		return graph.Mono(v), nil
	}
	return graph.PolyBuffer{}, fmt.Errorf("clock %q: unknown port %q", m.id, port)
}
