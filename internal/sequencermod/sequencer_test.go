package sequencermod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwerk/engine/internal/graph"
)

// playheadStub is a directly pokeable "clock" stand-in: GetPolySample
// returns WithChannels(phase, loop) straight from exported fields, letting
// a test walk the sequencer across exact cycle-time values without
// needing a real clock module wired in.
type playheadStub struct {
	phase, loop float64
}

func (m *playheadStub) ID() string                            { return "clk" }
func (m *playheadStub) ModuleType() string                     { return "clockstub" }
func (m *playheadStub) Update(*graph.Patch)                    {}
func (m *playheadStub) Tick()                                  {}
func (m *playheadStub) UpdateParams(map[string]any) error      { return nil }
func (m *playheadStub) Connect(*graph.Patch) error             { return nil }
func (m *playheadStub) GetPolySample(port string) (graph.PolyBuffer, error) {
	return graph.WithChannels(m.phase, m.loop), nil
}

func newPatchWithPattern(t *testing.T, pat string) (*graph.Patch, *playheadStub) {
	t.Helper()
	p := graph.NewPatch(48000, "seq", "cv")
	stub := &playheadStub{}
	reg := graph.Registry{
		"clockstub": func(string, float64) (graph.Module, error) { return stub, nil },
		"sequencer": New,
	}
	require.NoError(t, p.ApplyPatchGraph(graph.PatchGraph{
		Modules: []graph.ModuleState{
			{ID: "clk", ModuleType: "clockstub"},
			{ID: "seq", ModuleType: "sequencer", Params: map[string]any{
				"playhead": graph.NewCable("clk", "playhead", 0),
				"pattern":  pat,
			}},
		},
	}, reg))
	return p, stub
}

func readPort(t *testing.T, p *graph.Patch, port string) float64 {
	t.Helper()
	mod, ok := p.Lookup("seq")
	require.True(t, ok)
	buf, err := mod.GetPolySample(port)
	require.NoError(t, err)
	return buf.Get(0)
}

func TestSequencerHoldsCachedHapAcrossItsWholeSpan(t *testing.T) {
	p, stub := newPatchWithPattern(t, "0 1")

	stub.phase = 0.0
	_, err := p.RunFrame()
	require.NoError(t, err)
	assert.Equal(t, 0.0, readPort(t, p, "cv"))
	assert.Equal(t, 5.0, readPort(t, p, "gate"))
	assert.Equal(t, 5.0, readPort(t, p, "trig"), "gate rising edge on the very first sample fires a trigger")

	stub.phase = 0.25
	_, err = p.RunFrame()
	require.NoError(t, err)
	assert.Equal(t, 0.0, readPort(t, p, "cv"), "still inside the first hap's span, no requery")
	assert.Equal(t, 5.0, readPort(t, p, "gate"))
	assert.Equal(t, 0.0, readPort(t, p, "trig"), "gate was already high, no new edge")
}

func TestSequencerRetriggersAtAdjacentHapBoundary(t *testing.T) {
	p, stub := newPatchWithPattern(t, "0 1")

	stub.phase = 0.0
	_, err := p.RunFrame()
	require.NoError(t, err)

	stub.phase = 0.5
	_, err = p.RunFrame()
	require.NoError(t, err)
	assert.Equal(t, 0.0, readPort(t, p, "gate"), "gate drops for one sample at the shared boundary")
	assert.Equal(t, 0.0, readPort(t, p, "trig"))

	stub.phase = 0.5001
	_, err = p.RunFrame()
	require.NoError(t, err)
	assert.Equal(t, 1.0, readPort(t, p, "cv"))
	assert.Equal(t, 5.0, readPort(t, p, "gate"))
	assert.Equal(t, 5.0, readPort(t, p, "trig"), "gate rises again after the forced-low boundary sample")
}

func TestSequencerRestsProduceNoGate(t *testing.T) {
	p, stub := newPatchWithPattern(t, "0 ~")

	stub.phase = 0.6
	_, err := p.RunFrame()
	require.NoError(t, err)
	assert.Equal(t, 0.0, readPort(t, p, "gate"))
	assert.Equal(t, 0.0, readPort(t, p, "trig"))
}

func TestSequencerTransposeShiftsVoltage(t *testing.T) {
	p := graph.NewPatch(48000, "seq", "cv")
	stub := &playheadStub{}
	reg := graph.Registry{
		"clockstub": func(string, float64) (graph.Module, error) { return stub, nil },
		"sequencer": New,
	}
	require.NoError(t, p.ApplyPatchGraph(graph.PatchGraph{
		Modules: []graph.ModuleState{
			{ID: "clk", ModuleType: "clockstub"},
			{ID: "seq", ModuleType: "sequencer", Params: map[string]any{
				"playhead":  graph.NewCable("clk", "playhead", 0),
				"pattern":   "0",
				"transpose": 1.0,
			}},
		},
	}, reg))

	stub.phase = 0.0
	_, err := p.RunFrame()
	require.NoError(t, err)
	assert.Equal(t, 1.0, readPort(t, p, "cv"))
}

func TestSequencerRejectsUnknownScale(t *testing.T) {
	p := graph.NewPatch(48000, "seq", "cv")
	reg := graph.Registry{"sequencer": New}
	err := p.ApplyPatchGraph(graph.PatchGraph{
		Modules: []graph.ModuleState{
			{ID: "seq", ModuleType: "sequencer", Params: map[string]any{
				"pattern": "0",
				"scale":   "not-a-scale",
			}},
		},
	}, reg)
	require.Error(t, err)
}
