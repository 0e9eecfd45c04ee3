// Package scale provides named scale tables and MIDI-note quantization,
// adapting dsp/seq/scale.rs's ScaleSnapper (precomputed nearest-degree
// lookup table, ties broken toward the lower pitch) away from its
// rust_music_theory dependency and onto a plain semitone interval set per
// named scale.
package scale

import (
	"fmt"
	"strings"
)

// Intervals lists known scale names and their semitone offsets from the
// root within one octave, always including 0. Mirrors
// scale.rs's KNOWN_SCALE_TYPES.
var Intervals = map[string][]int{
	"major":            {0, 2, 4, 5, 7, 9, 11},
	"minor":            {0, 2, 3, 5, 7, 8, 10},
	"ionian":           {0, 2, 4, 5, 7, 9, 11},
	"dorian":           {0, 2, 3, 5, 7, 9, 10},
	"phrygian":         {0, 1, 3, 5, 7, 8, 10},
	"lydian":           {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":       {0, 2, 4, 5, 7, 9, 10},
	"aeolian":          {0, 2, 3, 5, 7, 8, 10},
	"locrian":          {0, 1, 3, 5, 6, 8, 10},
	"harmonicminor":    {0, 2, 3, 5, 7, 8, 11},
	"melodicminor":     {0, 2, 3, 5, 7, 9, 11},
	"pentatonicmajor":  {0, 2, 4, 7, 9},
	"pentatonicminor":  {0, 3, 5, 7, 10},
	"blues":            {0, 3, 5, 6, 7, 10},
	"wholetone":        {0, 2, 4, 6, 8, 10},
	"chromatic":        {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	"diminished":       {0, 2, 3, 5, 6, 8, 9, 11},
	"augmented":        {0, 3, 4, 7, 8, 11},
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "")
}

// Valid reports whether name is a known scale, case/space-insensitive
// ("harmonic minor" and "harmonicminor" both match).
func Valid(name string) bool {
	_, ok := Intervals[normalize(name)]
	return ok
}

// Snapper snaps arbitrary MIDI note numbers to the nearest degree of a
// scale anchored at a given root pitch class (0 = C).
type Snapper struct {
	table [13]int // signed semitone offset to the nearest degree, index 0..12
	root  int
}

// NewSnapper builds a Snapper for rootPitchClass (0-11, 0=C) and scaleName.
func NewSnapper(rootPitchClass int, scaleName string) (*Snapper, error) {
	degrees, ok := Intervals[normalize(scaleName)]
	if !ok {
		return nil, fmt.Errorf("scale: unknown scale %q", scaleName)
	}

	extended := make([]int, 0, len(degrees)*2+1)
	for _, d := range degrees {
		extended = append(extended, d, d-12, d+12)
	}

	var table [13]int
	for chromatic := 0; chromatic <= 12; chromatic++ {
		bestOffset := 0
		bestDist := 1 << 30
		for _, degree := range extended {
			offset := degree - chromatic
			dist := offset
			if dist < 0 {
				dist = -dist
			}
			if dist < bestDist || (dist == bestDist && offset < bestOffset) {
				bestDist = dist
				bestOffset = offset
			}
		}
		table[chromatic] = bestOffset
	}

	root := ((rootPitchClass % 12) + 12) % 12
	return &Snapper{table: table, root: root}, nil
}

// SnapMIDI snaps a (possibly fractional, for microtuning) MIDI note number
// to the nearest scale degree, preserving the fractional remainder.
func (s *Snapper) SnapMIDI(midi float64) float64 {
	midiInt := int(midi)
	if float64(midiInt) > midi {
		midiInt--
	}
	cents := midi - float64(midiInt)

	midiPC := ((midiInt % 12) + 12) % 12
	pcInScale := ((midiPC-s.root)%12 + 12) % 12
	snapped := midiInt + s.table[pcInScale]
	return float64(snapped) + cents
}

// IsInScale reports whether midi already lands on a scale degree.
func (s *Snapper) IsInScale(midi float64) bool {
	midiInt := int(midi)
	midiPC := ((midiInt % 12) + 12) % 12
	pcInScale := ((midiPC-s.root)%12 + 12) % 12
	return s.table[pcInScale] == 0
}

// PitchClass returns the 0-11 pitch class for a note letter ('a'-'g') with
// an optional '#'/'b' accidental, matching the mini-notation atom decoder's
// note parsing convention.
func PitchClass(letter byte, accidental byte) int {
	base := map[byte]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}[letter]
	switch accidental {
	case '#':
		base++
	case 'b':
		base--
	}
	return ((base % 12) + 12) % 12
}
