package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwerk/engine/internal/config"
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

func TestProcessScalesVoltsToFullScaleAndDuplicatesMonoToStereo(t *testing.T) {
	cfg := config.Default()
	cfg.RootModuleID = "src"
	cfg.RootModulePort = "out"
	e := New(cfg)

	reg := graph.Registry{"const": func(id string, _ float64) (graph.Module, error) { return &constModule{}, nil }}
	require.NoError(t, e.ApplyPatchGraph(graph.PatchGraph{
		Modules: []graph.ModuleState{
			{ID: "src", ModuleType: "const", Params: map[string]any{"value": 5.0}},
		},
	}, reg))

	dst := make([]float32, 4)
	e.Process(dst)
	assert.InDelta(t, 1.0, dst[0], 1e-6)
	assert.InDelta(t, 1.0, dst[1], 1e-6)
	assert.InDelta(t, 1.0, dst[2], 1e-6)
	assert.InDelta(t, 1.0, dst[3], 1e-6)
}

func TestStereoFrameSplitsWideBuffersIntoLeftRight(t *testing.T) {
	l, r := stereoFrame(graph.WithChannels(1, 2))
	assert.Equal(t, 1.0, l)
	assert.Equal(t, 2.0, r)
}

func TestSanitizeClampsNonFiniteToZero(t *testing.T) {
	assert.Equal(t, float32(0), sanitize(float32(math.NaN())))
	assert.Equal(t, float32(0), sanitize(float32(math.Inf(1))))
}
