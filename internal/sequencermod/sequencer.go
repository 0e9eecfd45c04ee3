// Package sequencermod continues in this file with the Module that bridges
// a compiled mini-notation pattern to cv/gate/trig outputs at sample rate
// (§4.9). The per-sample cache-or-requery logic mirrors the teacher's
// trackCursor's "keep the current event until its tick window closes, only
// then advance" idiom from internal/sequencer/sequencer.go, generalized
// from a tick counter to a queried Fraction-time window.
package sequencermod

import (
	"fmt"

	"github.com/patchwerk/engine/internal/graph"
	"github.com/patchwerk/engine/internal/modules/scale"
	"github.com/patchwerk/engine/internal/pattern"
	"github.com/patchwerk/engine/internal/pattern/fraction"
	"github.com/patchwerk/engine/internal/pattern/hap"
	"github.com/patchwerk/engine/internal/pattern/mini"
	"github.com/patchwerk/engine/internal/pattern/timespan"
)

type Module struct {
	id         string
	sampleRate float64

	playhead graph.Signal
	registry *mini.OperatorRegistry[Value]

	pat         pattern.Pattern[Value]
	patternText string

	scaleSnap      *scale.Snapper
	scaleRoot      int
	scaleName      string
	transposeVolts float64

	cached      *hap.Hap[Value]
	cachedValid bool
	cachedStart float64
	cachedEnd   float64
	openEnded   bool // cached hap is continuous (no Whole): never expires on its own

	prevWholeEnd     *float64
	suppressGateOnce bool

	resolvedCable graph.Signal
	heldCV        float64
	lastGateHigh  bool

	pendingCV, pendingGate, pendingTrig    float64
	snapshotCV, snapshotGate, snapshotTrig float64
}

func New(id string, sampleRate float64) (graph.Module, error) {
	reg := mini.NewOperatorRegistry[Value]()
	mini.RegisterStructuralOperators(reg)
	return &Module{
		id:         id,
		sampleRate: sampleRate,
		playhead:   graph.NewVolts(0),
		registry:   reg,
		pat:        pattern.Silence[Value](),
	}, nil
}

func (m *Module) ID() string         { return m.id }
func (m *Module) ModuleType() string { return "sequencer" }

func (m *Module) UpdateParams(params map[string]any) error {
	if v, ok := params["playhead"]; ok {
		sig, err := graph.SignalFromAny(v)
		if err != nil {
			return fmt.Errorf("playhead: %w", err)
		}
		m.playhead = sig
	}
	if v, ok := params["pattern"]; ok {
		text := graph.StringFromAny(v, "")
		pat, err := mini.Compile[Value](text, decodeAtom, m.registry)
		if err != nil {
			return fmt.Errorf("pattern: %w", err)
		}
		m.pat = pat
		m.patternText = text
		m.cachedValid = false
	}
	if v, ok := params["transpose"]; ok {
		m.transposeVolts = graph.FloatFromAny(v, m.transposeVolts)
	}
	scaleChanged := false
	if v, ok := params["scale"]; ok {
		name := graph.StringFromAny(v, "")
		if name != "" && !scale.Valid(name) {
			return fmt.Errorf("scale: unknown scale %q", name)
		}
		m.scaleName = name
		scaleChanged = true
	}
	if v, ok := params["scale_root"]; ok {
		m.scaleRoot = graph.IntFromAny(v, m.scaleRoot)
		scaleChanged = true
	}
	if scaleChanged {
		if m.scaleName == "" {
			m.scaleSnap = nil
		} else {
			snap, err := scale.NewSnapper(m.scaleRoot, m.scaleName)
			if err != nil {
				return fmt.Errorf("scale: %w", err)
			}
			m.scaleSnap = snap
		}
	}
	return nil
}

func (m *Module) Connect(p *graph.Patch) error {
	return m.playhead.Resolve(p)
}

// applyScaleAndTranspose converts a pattern voltage through the optional
// scale snapper (via MIDI note space, per the glossary's v = (m-21)/12
// encoding) and adds the transpose offset.
func (m *Module) applyScaleAndTranspose(volts float64) float64 {
	v := volts
	if m.scaleSnap != nil {
		midi := v*12 + 21
		midi = m.scaleSnap.SnapMIDI(midi)
		v = (midi - 21) / 12
	}
	return v + m.transposeVolts
}

func (m *Module) requery(p *graph.Patch, t float64) {
	tFrac := fraction.FromFloat(t)
	span := timespan.New(tFrac, tFrac)
	haps := m.pat.Query(pattern.State{Span: span})

	if len(haps) == 0 {
		m.cached = nil
		m.cachedValid = false
		m.prevWholeEnd = nil
		return
	}

	h := haps[0]
	if m.prevWholeEnd != nil && h.Whole != nil {
		if floatsNearlyEqual(*m.prevWholeEnd, h.Whole.Begin.Float64()) {
			m.suppressGateOnce = true
		}
	}

	m.cached = &h
	m.cachedValid = true
	if h.Whole != nil {
		m.cachedStart = h.Whole.Begin.Float64()
		m.cachedEnd = h.Whole.End.Float64()
		m.openEnded = false
		end := m.cachedEnd
		m.prevWholeEnd = &end
	} else {
		m.cachedStart = h.Part.Begin.Float64()
		m.cachedEnd = h.Part.End.Float64()
		m.openEnded = true
		m.prevWholeEnd = nil
	}

	switch h.Value.Kind {
	case KindVoltage:
		m.heldCV = m.applyScaleAndTranspose(h.Value.Voltage)
	case KindSignal:
		sig := cableSignalFor(h.Value)
		_ = sig.Resolve(p)
		m.resolvedCable = sig
		if h.Value.SampleAndHold {
			m.heldCV = m.resolvedCable.Value(0)
		}
	case KindRest:
		// cv holds whatever it already was.
	}
}

func floatsNearlyEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func (m *Module) Update(p *graph.Patch) {
	buf := m.playhead.Buffer(graph.PolyBuffer{})
	t := buf.Get(0) + buf.Get(1)

	needsQuery := !m.cachedValid || t < m.cachedStart || (!m.openEnded && t >= m.cachedEnd)
	if needsQuery {
		m.requery(p, t)
	}

	cv := m.heldCV
	rawGate := false
	if m.cached != nil {
		rawGate = m.cached.Value.Kind != KindRest
		if m.cached.Value.Kind == KindSignal && !m.cached.Value.SampleAndHold {
			cv = m.resolvedCable.Value(m.heldCV)
		}
	}

	gate := rawGate
	if m.suppressGateOnce {
		gate = false
		m.suppressGateOnce = false
	}
	trig := gate && !m.lastGateHigh
	m.lastGateHigh = gate

	m.pendingCV = cv
	m.pendingGate = boolVolts(gate)
	m.pendingTrig = boolVolts(trig)
}

func boolVolts(b bool) float64 {
	if b {
		return 5
	}
	return 0
}

func (m *Module) Tick() {
	m.snapshotCV = m.pendingCV
	m.snapshotGate = m.pendingGate
	m.snapshotTrig = m.pendingTrig
}

func (m *Module) GetPolySample(port string) (graph.PolyBuffer, error) {
	switch port {
	case "cv":
		return graph.Mono(m.snapshotCV), nil
	case "gate":
		return graph.Mono(m.snapshotGate), nil
	case "trig":
		return graph.Mono(m.snapshotTrig), nil
	default:
		return graph.PolyBuffer{}, fmt.Errorf("sequencer %q: unknown port %q", m.id, port)
	}
}
