package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwerk/engine/internal/messages"
)

func newStarted(t *testing.T) *Module {
	t.Helper()
	mod, err := New("clk", 48000)
	require.NoError(t, err)
	m := mod.(*Module)
	require.NoError(t, m.HandleMessage(messages.ClockStart()))
	return m
}

func countBeatTriggers(m *Module, samples int) int {
	count := 0
	for i := 0; i < samples; i++ {
		m.Update(nil)
		m.Tick()
		if m.beatTrigger == 5 {
			count++
		}
	}
	return count
}

func TestClockBeatTriggerFires4TimesPerBarIn4_4(t *testing.T) {
	m := newStarted(t)
	// 120 BPM in 4/4 = one bar every 2 seconds = 96000 samples.
	samples := 96_000 - 1
	assert.Equal(t, 4, countBeatTriggers(m, samples))
}

func TestClockBeatTriggerFires3TimesPerBarIn3_4(t *testing.T) {
	mod, err := New("clk", 48000)
	require.NoError(t, err)
	m := mod.(*Module)
	require.NoError(t, m.UpdateParams(map[string]any{"numerator": 3, "denominator": 4}))
	require.NoError(t, m.HandleMessage(messages.ClockStart()))

	samples := 72_000 - 1
	assert.Equal(t, 3, countBeatTriggers(m, samples))
}

func TestClockStopFreezesPhase(t *testing.T) {
	m := newStarted(t)
	for i := 0; i < 128; i++ {
		m.Update(nil)
	}
	require.NoError(t, m.HandleMessage(messages.ClockStop()))
	phaseBefore := m.phase
	for i := 0; i < 128; i++ {
		m.Update(nil)
	}
	assert.InDelta(t, phaseBefore, m.phase, 1e-9)
}

func TestClockRejectsZeroNumerator(t *testing.T) {
	mod, err := New("clk", 48000)
	require.NoError(t, err)
	m := mod.(*Module)
	err = m.UpdateParams(map[string]any{"numerator": 0})
	assert.Error(t, err)
}

func TestClockPlayheadOutputsPhaseAndLoopIndex(t *testing.T) {
	m := newStarted(t)
	for i := 0; i < 96_000; i++ {
		m.Update(nil)
		m.Tick()
	}
	out, err := m.GetPolySample("playhead")
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Get(1))
}
