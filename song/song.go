// Package song holds read-only note sheets and streams them into a
// synth.Scheduler.
package song

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/tinygo-org/picosynth/synth"
)

var (
	ErrNoEnvelope = errors.New("song:tone refers to a missing envelope")
	ErrNoChannel  = errors.New("song:tone refers to a missing channel")
	ErrBadTone    = errors.New("song:tone has a negative time or no pitch")
)

// DefaultVelocity is the velocity of a tone that does not set one.
const DefaultVelocity = 128

// Envelope is an ADSR shape in wall-clock units.
type Envelope struct {
	Attack  time.Duration
	Decay   time.Duration
	Sustain float32 // fraction of full level, 0..1
	Release time.Duration
}

// Profile converts the envelope to per-sample rates.
func (e Envelope) Profile(sampleRate uint32) synth.Profile {
	return synth.NewProfile(sampleRate, e.Attack, e.Decay, e.Sustain, e.Release)
}

// Tone is one note of a song.
type Tone struct {
	Frequency float32
	Start     time.Duration
	Duration  time.Duration
	// Channel indexes Song.Channels; it names the part the tone belongs to.
	Channel int
	// Velocity is kept for display; voices have no per-note gain.
	Velocity uint16
	// Envelope indexes Song.Envelopes.
	Envelope int
}

// End returns when the tone's nominal duration elapses.
func (t Tone) End() time.Duration { return t.Start + t.Duration }

// Song is an immutable sheet of tones sorted by start time, plus a playback
// position used by displays.
type Song struct {
	Name      string
	BPM       int
	Channels  []string
	Envelopes []Envelope

	tones    []Tone
	duration time.Duration
	progress time.Duration
}

// New validates tones and returns a song owning a sorted copy of them.
// Tones starting together keep their relative order. A zero velocity
// becomes DefaultVelocity.
func New(name string, bpm int, channels []string, envelopes []Envelope, tones []Tone) (*Song, error) {
	s := &Song{
		Name:      name,
		BPM:       bpm,
		Channels:  channels,
		Envelopes: envelopes,
		tones:     append([]Tone(nil), tones...),
	}
	for i := range s.tones {
		t := &s.tones[i]
		if t.Velocity == 0 {
			t.Velocity = DefaultVelocity
		}
		switch {
		case t.Start < 0 || t.Duration < 0 || !(t.Frequency > 0) || math.IsInf(float64(t.Frequency), 0):
			return nil, ErrBadTone
		case t.Envelope < 0 || t.Envelope >= len(envelopes):
			return nil, ErrNoEnvelope
		case t.Channel < 0 || (len(channels) > 0 && t.Channel >= len(channels)):
			return nil, ErrNoChannel
		}
		if end := t.End(); end > s.duration {
			s.duration = end
		}
	}
	sort.SliceStable(s.tones, func(i, j int) bool { return s.tones[i].Start < s.tones[j].Start })
	return s, nil
}

// Duration returns the end of the last tone.
func (s *Song) Duration() time.Duration { return s.duration }

// Len returns the number of tones.
func (s *Song) Len() int { return len(s.tones) }

// Tone returns the i-th tone in start order.
func (s *Song) Tone(i int) Tone { return s.tones[i] }

// Tones returns the tones starting within [from, to]. The result shares the
// song's storage and must not be modified.
func (s *Song) Tones(from, to time.Duration) []Tone {
	lo := sort.Search(len(s.tones), func(i int) bool { return s.tones[i].Start >= from })
	hi := sort.Search(len(s.tones), func(i int) bool { return s.tones[i].Start > to })
	if hi < lo {
		hi = lo
	}
	return s.tones[lo:hi:hi]
}

// ActiveTones returns the tones sounding at time at or starting within
// horizon after it. Displays pass Progress as at.
func (s *Song) ActiveTones(at, horizon time.Duration) []Tone {
	end := at + horizon
	hi := sort.Search(len(s.tones), func(i int) bool { return s.tones[i].Start > end })
	var active []Tone
	for _, t := range s.tones[:hi] {
		if t.End() >= at {
			active = append(active, t)
		}
	}
	return active
}

// Progress returns the playback position.
func (s *Song) Progress() time.Duration { return s.progress }

// SetProgress moves the playback position, clamped to the song.
func (s *Song) SetProgress(p time.Duration) {
	switch {
	case p < 0:
		p = 0
	case p > s.duration:
		p = s.duration
	}
	s.progress = p
}

// Advance moves the playback position forward by delta.
func (s *Song) Advance(delta time.Duration) {
	s.SetProgress(s.progress + delta)
}

// MIDIFrequency returns the equal-tempered frequency of a MIDI note number,
// with A4 (69) at 440 Hz. Fractional notes detune.
func MIDIFrequency(note float32) float32 {
	return float32(440 * math.Pow(2, (float64(note)-69)/12))
}
