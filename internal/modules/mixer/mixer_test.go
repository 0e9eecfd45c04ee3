package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwerk/engine/internal/graph"
)

type constModule struct {
	val float64
	pb  graph.PolyBuffer
}

func (m *constModule) ID() string         { return "src" }
func (m *constModule) ModuleType() string { return "const" }
func (m *constModule) Update(*graph.Patch) {}
func (m *constModule) Tick()               {}
func (m *constModule) GetPolySample(string) (graph.PolyBuffer, error) {
	if m.pb.Active > 0 {
		return m.pb, nil
	}
	return graph.Mono(m.val), nil
}
func (m *constModule) UpdateParams(params map[string]any) error {
	if v, ok := params["value"]; ok {
		m.val = graph.FloatFromAny(v, m.val)
	}
	return nil
}
func (m *constModule) Connect(*graph.Patch) error { return nil }

func newConst(id string, _ float64) (graph.Module, error) {
	return &constModule{}, nil
}

func TestMixerSumsConnectedInputsWithGain(t *testing.T) {
	p := graph.NewPatch(48000, "mix", "out")
	reg := graph.Registry{
		"const": newConst,
		"mixer": New,
	}
	require.NoError(t, p.ApplyPatchGraph(graph.PatchGraph{
		Modules: []graph.ModuleState{
			{ID: "a", ModuleType: "const", Params: map[string]any{"value": 3.0}},
			{ID: "b", ModuleType: "const", Params: map[string]any{"value": 4.0}},
			{ID: "mix", ModuleType: "mixer", Params: map[string]any{
				"in0":   graph.NewCable("a", "out", 0),
				"gain0": 2.0,
				"in1":   graph.NewCable("b", "out", 0),
				"gain1": 0.5,
			}},
		},
	}, reg))

	for i := 0; i < 5; i++ {
		_, err := p.RunFrame()
		require.NoError(t, err)
	}
	out, err := p.RunFrame()
	require.NoError(t, err)
	// gains are constant from the first frame, so the smoother's no-click
	// snap puts them at target immediately: 3*2 + 4*0.5 = 8.
	assert.InDelta(t, 8.0, out.Get(0), 1e-6)
}

func TestMixerPropagatesWidestInputChannelCount(t *testing.T) {
	pb := graph.WithChannels(1, 2, 3, 4)
	mono := graph.Mono(5)
	width := graph.WidestChannelCount(pb, mono)
	assert.Equal(t, 4, width)
}
