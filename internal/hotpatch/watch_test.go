package hotpatch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwerk/engine/internal/graph"
)

type recordingApplier struct {
	mu   sync.Mutex
	last graph.PatchGraph
	n    int
}

func (a *recordingApplier) ApplyPatchGraph(desired graph.PatchGraph, _ graph.Registry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = desired
	a.n++
	return nil
}

func (a *recordingApplier) snapshot() (graph.PatchGraph, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.n
}

func waitForCount(t *testing.T, a *recordingApplier, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, n := a.snapshot(); n >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for apply count %d", want)
}

func TestWatcherReloadsSynthFileAsFullGraph(t *testing.T) {
	dir := t.TempDir()
	applier := &recordingApplier{}
	initial := graph.PatchGraph{Modules: []graph.ModuleState{{ID: "root", ModuleType: "root"}}}
	w, err := New(dir, initial, graph.Registry{}, applier)
	require.NoError(t, err)
	defer w.Close()

	pg := graph.PatchGraph{Modules: []graph.ModuleState{
		{ID: "root", ModuleType: "root"},
		{ID: "osc", ModuleType: "oscillator"},
	}}
	body, err := json.Marshal(pg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "patch.synth"), body, 0o644))

	waitForCount(t, applier, 1)
	last, _ := applier.snapshot()
	assert.Len(t, last.Modules, 2)
}

func TestWatcherMergesMiniFileIntoNamedModulePattern(t *testing.T) {
	dir := t.TempDir()
	applier := &recordingApplier{}
	initial := graph.PatchGraph{Modules: []graph.ModuleState{
		{ID: "root", ModuleType: "root"},
		{ID: "bass", ModuleType: "sequencer", Params: map[string]any{"pattern": "0"}},
	}}
	w, err := New(dir, initial, graph.Registry{}, applier)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bass.mini"), []byte("0 1 2 3"), 0o644))

	waitForCount(t, applier, 1)
	last, _ := applier.snapshot()
	var found bool
	for _, m := range last.Modules {
		if m.ID == "bass" {
			assert.Equal(t, "0 1 2 3", m.Params["pattern"])
			found = true
		}
	}
	assert.True(t, found)
}
