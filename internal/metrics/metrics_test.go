package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAccumulatesCountAndMinMax(t *testing.T) {
	r := NewRegistry()
	r.Record("osc", "oscillator", 10*time.Microsecond)
	r.Record("osc", "oscillator", 30*time.Microsecond)
	r.Record("osc", "oscillator", 20*time.Microsecond)

	snap := r.Snapshot()
	stats, ok := snap["osc"]
	require.True(t, ok)
	assert.Equal(t, uint64(3), stats.Count)
	assert.Equal(t, uint64(10000), stats.MinNs)
	assert.Equal(t, uint64(30000), stats.MaxNs)
	assert.Equal(t, uint64(20000), stats.AvgNs())
}

func TestForgetRemovesModuleFromSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Record("osc", "oscillator", time.Microsecond)
	r.Forget("osc")
	_, ok := r.Snapshot()["osc"]
	assert.False(t, ok)
}

func TestSortedIDsIsStable(t *testing.T) {
	snap := map[string]ModuleStats{"b": {}, "a": {}, "c": {}}
	assert.Equal(t, []string{"a", "b", "c"}, SortedIDs(snap))
}
