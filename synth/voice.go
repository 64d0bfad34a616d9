package synth

import "math"

// Voice is one oscillator shaped by an ADSR envelope. The zero value is not
// usable; voices are created by NewVoice and start out Done.
type Voice struct {
	table      *Wavetable
	sampleRate uint32

	phase     uint32
	step      uint32
	remaining int32
	env       envelope
}

// NewVoice returns a free voice reading from table at the given sample rate.
func NewVoice(table *Wavetable, sampleRate uint32) Voice {
	return Voice{
		table:      table,
		sampleRate: sampleRate,
		env:        envelope{state: StateDone},
	}
}

// StepSize returns the phase increment per sample for frequency.
func StepSize(frequency float32, sampleRate uint32) uint32 {
	if !(frequency > 0) || sampleRate == 0 {
		return 0
	}
	step := float64(frequency) / float64(sampleRate) * (1 << 32)
	if step >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(step)
}

// Reset starts a new note on the voice. The frequency must lie within
// [0, sampleRate/2]; callers validate it. duration is the number of samples
// before the sustain phase gives way to the release.
func (v *Voice) Reset(frequency float32, duration uint32, p Profile) {
	v.phase = 0
	v.step = StepSize(frequency, v.sampleRate)
	if duration > math.MaxInt32 {
		duration = math.MaxInt32
	}
	v.remaining = int32(duration)
	v.env.reset(p)
}

// Release moves a sounding voice into its release phase so it fades out.
// It has no effect on a voice that is already Done.
func (v *Voice) Release() {
	if v.env.state != StateDone {
		v.env.state = StateReleased
	}
}

// IsDone reports whether the voice is silent and free for reuse.
func (v *Voice) IsDone() bool { return v.env.state == StateDone }

// State returns the envelope phase.
func (v *Voice) State() EnvelopeState { return v.env.state }

// Level returns the envelope level.
func (v *Voice) Level() uint32 { return v.env.level }

// NextSample advances the oscillator and the envelope by one sample and
// returns the scaled waveform value. The gain applied is the envelope level
// from before the envelope step.
func (v *Voice) NextSample() int32 {
	if v.env.state == StateDone {
		return 0
	}
	v.phase += v.step
	gain := v.env.gain()
	if v.remaining > 0 {
		v.remaining--
	}
	v.env.advance(v.remaining)
	return v.table.At(v.phase) * gain
}
