// Package mixer implements a fixed-width summing mixer module, adapting
// the teacher's MultiEngine.RenderFrame accumulate-and-sum idiom (there
// summing whole voice engines) to summing arbitrary cable inputs channel
// by channel, propagating polyphonic width per the "takes from inputs"
// rule (§4.5).
package mixer

import (
	"fmt"

	"github.com/patchwerk/engine/internal/graph"
)

// MaxInputs bounds how many named input slots a mixer instance exposes;
// unused slots default to Disconnected and contribute nothing.
const MaxInputs = 8

type input struct {
	signal graph.Signal
	gain   graph.Signal
}

type Module struct {
	id         string
	sampleRate float64

	inputs [MaxInputs]input
	gainSmooth [MaxInputs]*graph.Smoother

	pending  graph.PolyBuffer
	snapshot graph.PolyBuffer
}

func New(id string, sampleRate float64) (graph.Module, error) {
	m := &Module{id: id, sampleRate: sampleRate}
	for i := range m.inputs {
		m.inputs[i].gain = graph.NewVolts(1)
		m.gainSmooth[i] = graph.NewSmoother()
	}
	return m, nil
}

func (m *Module) ID() string         { return m.id }
func (m *Module) ModuleType() string { return "mixer" }

func (m *Module) UpdateParams(params map[string]any) error {
	for i := 0; i < MaxInputs; i++ {
		key := fmt.Sprintf("in%d", i)
		if v, ok := params[key]; ok {
			sig, err := graph.SignalFromAny(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			m.inputs[i].signal = sig
		}
		gkey := fmt.Sprintf("gain%d", i)
		if v, ok := params[gkey]; ok {
			sig, err := graph.SignalFromAny(v)
			if err != nil {
				return fmt.Errorf("%s: %w", gkey, err)
			}
			m.inputs[i].gain = sig
		}
	}
	return nil
}

func (m *Module) Connect(p *graph.Patch) error {
	for i := range m.inputs {
		if err := m.inputs[i].signal.Resolve(p); err != nil {
			return fmt.Errorf("in%d: %w", i, err)
		}
		if err := m.inputs[i].gain.Resolve(p); err != nil {
			return fmt.Errorf("gain%d: %w", i, err)
		}
	}
	return nil
}

func (m *Module) Update(*graph.Patch) {
	bufs := make([]graph.PolyBuffer, 0, MaxInputs)
	for i := range m.inputs {
		m.gainSmooth[i].Step(m.inputs[i].gain.Value(1))
		if m.inputs[i].signal.Kind == graph.SignalDisconnected {
			continue
		}
		bufs = append(bufs, m.inputs[i].signal.Buffer(graph.PolyBuffer{}))
	}
	width := graph.WidestChannelCount(bufs...)

	var out graph.PolyBuffer
	out.Active = width
	for ch := 0; ch < width; ch++ {
		var sum float64
		for i := range m.inputs {
			if m.inputs[i].signal.Kind == graph.SignalDisconnected {
				continue
			}
			buf := m.inputs[i].signal.Buffer(graph.PolyBuffer{})
			sum += buf.Get(ch) * m.gainSmooth[i].Current()
		}
		out.Values[ch] = sum
	}
	m.pending = out
}

func (m *Module) Tick() { m.snapshot = m.pending }

func (m *Module) GetPolySample(port string) (graph.PolyBuffer, error) {
	if port != "out" {
		return graph.PolyBuffer{}, fmt.Errorf("mixer %q: unknown port %q", m.id, port)
	}
	return m.snapshot, nil
}
