package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwerk/engine/internal/graph"
)

type constModule struct{ val float64 }

func (m *constModule) ID() string         { return "src" }
func (m *constModule) ModuleType() string { return "const" }
func (m *constModule) Update(*graph.Patch) {}
func (m *constModule) Tick()               {}
func (m *constModule) GetPolySample(string) (graph.PolyBuffer, error) {
	return graph.Mono(m.val), nil
}
func (m *constModule) UpdateParams(params map[string]any) error {
	if v, ok := params["value"]; ok {
		m.val = graph.FloatFromAny(v, m.val)
	}
	return nil
}
func (m *constModule) Connect(*graph.Patch) error { return nil }

func TestScopePassesThroughAndRecordsHistory(t *testing.T) {
	p := graph.NewPatch(48000, "scope", "out")
	reg := graph.Registry{
		"const": func(id string, _ float64) (graph.Module, error) { return &constModule{}, nil },
		"scope": New,
	}
	require.NoError(t, p.ApplyPatchGraph(graph.PatchGraph{
		Modules: []graph.ModuleState{
			{ID: "src", ModuleType: "const", Params: map[string]any{"value": 3.0}},
			{ID: "scope", ModuleType: "scope", Params: map[string]any{"in": graph.NewCable("src", "out", 0)}},
		},
	}, reg))

	var out graph.PolyBuffer
	for i := 0; i < 5; i++ {
		var err error
		out, err = p.RunFrame()
		require.NoError(t, err)
	}
	assert.Equal(t, 3.0, out.Get(0))

	mod, ok := p.Lookup("scope")
	require.True(t, ok)
	m := mod.(*Module)
	hist := m.ChannelSnapshot(0)
	require.Len(t, hist, 5)
	for _, v := range hist {
		assert.Equal(t, 3.0, v)
	}
}
