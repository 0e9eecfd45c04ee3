package scale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapperCMajorLeavesDiatonicNotesUnchanged(t *testing.T) {
	snap, err := NewSnapper(0, "major")
	require.NoError(t, err)

	assert.Equal(t, 60.0, snap.SnapMIDI(60.0))
	assert.Equal(t, 62.0, snap.SnapMIDI(62.0))
}

func TestSnapperCMajorSnapsSharpDownward(t *testing.T) {
	snap, err := NewSnapper(0, "major")
	require.NoError(t, err)

	// C# (61) is one semitone from both C(60) and D(62); the tie goes to
	// the lower degree, C.
	assert.Equal(t, 60.0, snap.SnapMIDI(61.0))
}

func TestSnapperPreservesCents(t *testing.T) {
	snap, err := NewSnapper(0, "major")
	require.NoError(t, err)

	snapped := snap.SnapMIDI(60.5)
	assert.InDelta(t, 60.5, snapped, 1.0)
}

func TestValidRecognizesSpacedAndCompactNames(t *testing.T) {
	assert.True(t, Valid("major"))
	assert.True(t, Valid("Minor"))
	assert.True(t, Valid("harmonic minor"))
	assert.True(t, Valid("harmonicminor"))
	assert.False(t, Valid("unknown_scale"))
}

func TestPitchClassHandlesAccidentals(t *testing.T) {
	assert.Equal(t, 0, PitchClass('c', 0))
	assert.Equal(t, 1, PitchClass('c', '#'))
	assert.Equal(t, 11, PitchClass('c', 'b'))
}
