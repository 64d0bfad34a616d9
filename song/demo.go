package song

import "time"

// DemoEnvelope is the envelope of the firmware demo.
var DemoEnvelope = Envelope{
	Attack:  100 * time.Millisecond,
	Decay:   100 * time.Millisecond,
	Sustain: 0.2,
	Release: 300 * time.Millisecond,
}

// DemoNoteLength is how long every demo note is held before its release.
const DemoNoteLength = 300 * time.Millisecond

// demoChords is the opening of Beethoven's fifth symphony as three-note
// octave chords: MIDI pitch of the top voice and start in quarter seconds.
var demoChords = []struct {
	pitch   float32
	quarter int
}{
	{67, 1}, {67, 2}, {67, 3}, {63, 4},
	{65, 9}, {65, 10}, {65, 11}, {62, 12},
}

// Demo returns the tune the firmware loops when idle.
func Demo() *Song {
	var tones []Tone
	for _, c := range demoChords {
		for octave := 0; octave < 3; octave++ {
			tones = append(tones, Tone{
				Frequency: MIDIFrequency(c.pitch - float32(12*octave)),
				Start:     time.Duration(c.quarter) * time.Second / 4,
				Duration:  DemoNoteLength,
				Channel:   octave,
			})
		}
	}
	s, err := New("Demo", 60, []string{"high", "mid", "low"}, []Envelope{DemoEnvelope}, tones)
	if err != nil {
		panic(err)
	}
	return s
}
