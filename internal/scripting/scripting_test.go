package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBuildsPatchGraphFromAddModuleCalls(t *testing.T) {
	c := NewConsole()
	pg, err := c.Run(`
		add_module("osc", "oscillator", {pitch = 0.0, amp = 1.0})
		add_module("mix", "mixer", {in0 = cable("osc", "out", 0), gain0 = 1.0})
	`)
	require.NoError(t, err)
	require.Len(t, pg.Modules, 2)
	assert.Equal(t, "osc", pg.Modules[0].ID)
	assert.Equal(t, "oscillator", pg.Modules[0].ModuleType)
	assert.Equal(t, 0.0, pg.Modules[0].Params["pitch"])

	mix := pg.Modules[1]
	in0, ok := mix.Params["in0"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "osc", in0["module"])
	assert.Equal(t, "out", in0["port"])
}

func TestRunRecordsRemaps(t *testing.T) {
	c := NewConsole()
	pg, err := c.Run(`remap("old_id", "new_id")`)
	require.NoError(t, err)
	require.Len(t, pg.Remaps, 1)
	assert.Equal(t, "old_id", pg.Remaps[0].From)
	assert.Equal(t, "new_id", pg.Remaps[0].To)
}

func TestRunReportsLuaSyntaxErrors(t *testing.T) {
	c := NewConsole()
	_, err := c.Run(`this is not lua (`)
	require.Error(t, err)
}
