package synth

import (
	"math"
	"time"
)

// MaxLevel is the envelope level at the peak of the attack phase.
const MaxLevel = math.MaxInt32

// gainShift reduces an envelope level to the 0..255 gain applied to the
// wavetable. A level that shifts to zero is inaudible.
const gainShift = 23

// EnvelopeState is the phase of an ADSR envelope.
type EnvelopeState uint8

const (
	StateRising EnvelopeState = iota
	StateFalling
	StateSustain
	StateReleased
	// StateDone marks a silent envelope; its voice is free for reuse.
	StateDone
)

func (s EnvelopeState) String() string {
	switch s {
	case StateRising:
		return "rising"
	case StateFalling:
		return "falling"
	case StateSustain:
		return "sustain"
	case StateReleased:
		return "released"
	case StateDone:
		return "done"
	}
	return "invalid"
}

// Profile holds the per-sample envelope increments of a note, in the same
// units as the envelope level.
type Profile struct {
	AttackRate   uint32
	DecayRate    uint32
	SustainLevel uint32
	ReleaseRate  uint32
}

// NewProfile derives envelope rates from phase durations and a sustain
// fraction in [0, 1]:
//
//	attack  = MaxLevel / (Fs*Ta)
//	sustain = MaxLevel * Sf
//	decay   = (MaxLevel - sustain) / (Fs*Td)
//	release = sustain / (Fs*Tr)
//
// A zero duration completes its phase in a single sample. A release from a
// zero sustain level is timed from the peak instead, so that an early
// Release still fades out in Tr.
func NewProfile(sampleRate uint32, attack, decay time.Duration, sustain float32, release time.Duration) Profile {
	if !(sustain > 0) {
		sustain = 0
	} else if sustain > 1 {
		sustain = 1
	}
	level := uint32(float64(MaxLevel) * float64(sustain))
	releaseSpan := level
	if releaseSpan == 0 {
		releaseSpan = MaxLevel
	}
	return Profile{
		AttackRate:   rate(MaxLevel, attack, sampleRate),
		DecayRate:    rate(MaxLevel-level, decay, sampleRate),
		SustainLevel: level,
		ReleaseRate:  rate(releaseSpan, release, sampleRate),
	}
}

// rate spreads span over the samples in d. A nonzero span never rounds
// down to a zero rate, which would stall the envelope.
func rate(span uint32, d time.Duration, sampleRate uint32) uint32 {
	n := durationToSamples(d, sampleRate)
	if n == 0 {
		return span
	}
	r := uint64(span) / n
	if r == 0 && span > 0 {
		r = 1
	}
	return uint32(r)
}

// normalized returns p with every rate able to reach its boundary.
func (p Profile) normalized() Profile {
	if p.SustainLevel > MaxLevel {
		p.SustainLevel = MaxLevel
	}
	if p.AttackRate == 0 {
		p.AttackRate = 1
	}
	if p.DecayRate == 0 && p.SustainLevel < MaxLevel {
		p.DecayRate = 1
	}
	if p.ReleaseRate == 0 {
		p.ReleaseRate = 1
	}
	return p
}

type envelope struct {
	level   uint32
	state   EnvelopeState
	profile Profile
}

func (e *envelope) reset(p Profile) {
	e.profile = p.normalized()
	e.level = 0
	e.state = StateRising
}

// gain returns the current level reduced to the wavetable gain range.
func (e *envelope) gain() int32 {
	return int32(e.level >> gainShift)
}

// advance runs the state machine for one sample. remaining is the number of
// samples left until the nominal end of the note. Overflow past MaxLevel and
// wrap-around below zero are both treated as reaching the phase boundary.
func (e *envelope) advance(remaining int32) {
	p := &e.profile
	switch e.state {
	case StateRising:
		next := e.level + p.AttackRate
		if next >= MaxLevel || next < e.level {
			e.level = MaxLevel
			e.state = StateFalling
		} else {
			e.level = next
		}
	case StateFalling:
		next := e.level - p.DecayRate
		if next <= p.SustainLevel || next > e.level {
			if p.SustainLevel>>gainShift == 0 {
				e.level = 0
				e.state = StateDone
			} else {
				e.level = p.SustainLevel
				e.state = StateSustain
			}
		} else {
			e.level = next
		}
	case StateSustain:
		if remaining <= 0 {
			e.state = StateReleased
		}
	case StateReleased:
		next := e.level - p.ReleaseRate
		if next == 0 || next > e.level {
			e.level = 0
			e.state = StateDone
		} else {
			e.level = next
		}
	case StateDone:
		e.level = 0
	}
}
