package root

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwerk/engine/internal/graph"
)

func TestEmptyPatchRootReadsZero(t *testing.T) {
	p := graph.NewPatch(48000, "root", "out")
	reg := graph.Registry{"root": New}
	require.NoError(t, p.ApplyPatchGraph(graph.PatchGraph{
		Modules: []graph.ModuleState{{ID: "root", ModuleType: "root"}},
	}, reg))

	out, err := p.RunFrame()
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Get(0))
}
