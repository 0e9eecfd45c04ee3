// Package scope implements a passthrough module that also publishes a
// fixed-size ring buffer of recent samples per input channel, standing in for the
// GUI subscription stream excluded from this engine (§6 item 4). The ring
// buffer's fixed-capacity-array shape follows the same convention as
// graph.PolyBuffer rather than a growable slice, so a scope viewer reading
// Snapshot concurrently with the audio thread never observes a reallocation.
package scope

import (
	"fmt"
	"sync"

	"github.com/patchwerk/engine/internal/graph"
)

// RingSize is the number of most-recent samples retained per scoped port.
const RingSize = 2048

type ring struct {
	mu     sync.Mutex
	buf    [RingSize]float64
	cursor int
	filled bool
}

func (r *ring) push(v float64) {
	r.mu.Lock()
	r.buf[r.cursor] = v
	r.cursor = (r.cursor + 1) % RingSize
	if r.cursor == 0 {
		r.filled = true
	}
	r.mu.Unlock()
}

// Snapshot copies the ring's contents out in chronological order (oldest
// first), safe to call concurrently with the audio thread's writes.
func (r *ring) Snapshot() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.cursor
	if r.filled {
		n = RingSize
	}
	out := make([]float64, n)
	if !r.filled {
		copy(out, r.buf[:r.cursor])
		return out
	}
	copy(out, r.buf[r.cursor:])
	copy(out[RingSize-r.cursor:], r.buf[:r.cursor])
	return out
}

// Module passes its "in" cable through to its own "out" port unchanged
// while recording every sample into a per-channel ring buffer a terminal
// dashboard can poll.
type Module struct {
	id         string
	sampleRate float64

	in graph.Signal

	rings [graph.Capacity]*ring

	pending  graph.PolyBuffer
	snapshot graph.PolyBuffer
}

func New(id string, sampleRate float64) (graph.Module, error) {
	m := &Module{id: id, sampleRate: sampleRate, in: graph.NewVolts(0)}
	for i := range m.rings {
		m.rings[i] = &ring{}
	}
	return m, nil
}

func (m *Module) ID() string         { return m.id }
func (m *Module) ModuleType() string { return "scope" }

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
	buf := m.in.Buffer(graph.PolyBuffer{})
	m.pending = buf
}

func (m *Module) Tick() {
	m.snapshot = m.pending
	width := m.snapshot.Active
	if width < 1 {
		width = 1
	}
	for ch := 0; ch < width && ch < graph.Capacity; ch++ {
		m.rings[ch].push(m.snapshot.Get(ch))
	}
}

func (m *Module) GetPolySample(port string) (graph.PolyBuffer, error) {
	if port != "out" {
		return graph.PolyBuffer{}, fmt.Errorf("scope %q: unknown port %q", m.id, port)
	}
	return m.snapshot, nil
}

// ChannelSnapshot returns the recent sample history for the given channel,
// for a terminal dashboard or other subscriber polling outside the audio
// thread.
func (m *Module) ChannelSnapshot(channel int) []float64 {
	if channel < 0 || channel >= graph.Capacity {
		return nil
	}
	return m.rings[channel].Snapshot()
}
