// Package root implements the trivial sink module a patch's designated
// output anchor defaults to: a single "in" cable republished on "out",
// reading 0V when nothing is wired to it. Every patch carries exactly one
// module at the id the patch was constructed with as its root (§4.3 step 1
// exempts that id from deletion); this is the module type that id defaults
// to before a PatchGraph ever wires something interesting into it, and the
// reason "an empty patch (only root) reads 0.0 for every sample" holds.
package root

import (
	"fmt"

	"github.com/patchwerk/engine/internal/graph"
)

type Module struct {
	id string

	in graph.Signal

	pending  graph.PolyBuffer
	snapshot graph.PolyBuffer
}

func New(id string, sampleRate float64) (graph.Module, error) {
	return &Module{id: id, in: graph.NewVolts(0)}, nil
}

func (m *Module) ID() string         { return m.id }
func (m *Module) ModuleType() string { return "root" }

func (m *Module) UpdateParams(params map[string]any) error {
	if v, ok := params["in"]; ok {
		sig, err := graph.SignalFromAny(v)
		if err != nil {
			return fmt.Errorf("in: %w", err)
		}
		m.in = sig
	}
	return nil
}

func (m *Module) Connect(p *graph.Patch) error {
	return m.in.Resolve(p)
}

func (m *Module) Update(*graph.Patch) {
	m.pending = m.in.Buffer(graph.PolyBuffer{Active: 1})
}

func (m *Module) Tick() { m.snapshot = m.pending }

func (m *Module) GetPolySample(port string) (graph.PolyBuffer, error) {
	if port != "out" {
		return graph.PolyBuffer{}, fmt.Errorf("root %q: unknown port %q", m.id, port)
	}
	return m.snapshot, nil
}
