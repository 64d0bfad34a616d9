package synth

import "time"

// Config holds the fixed parameters of a synthesizer instance.
type Config struct {
	// SampleRate in Hz of the output stream.
	SampleRate uint32
	// Channels is the number of voices that may sound at once.
	Channels int
	// QueueLength is the number of notes that may wait for their start time.
	QueueLength int
	// MaxLateness is how many samples a due note may wait for a free voice
	// before it is dropped. Zero means a note waits forever.
	MaxLateness uint64
}

const (
	DefaultSampleRate  = 48000
	DefaultChannels    = 10
	DefaultQueueLength = 100
)

// DefaultConfig returns the configuration used by the firmware.
func DefaultConfig() Config {
	return Config{
		SampleRate:  DefaultSampleRate,
		Channels:    DefaultChannels,
		QueueLength: DefaultQueueLength,
		MaxLateness: DefaultSampleRate,
	}
}

// Samples converts d to a number of samples at the configured rate.
// Negative durations convert to zero.
func (c Config) Samples(d time.Duration) uint64 {
	return durationToSamples(d, c.SampleRate)
}

func durationToSamples(d time.Duration, sampleRate uint32) uint64 {
	if d <= 0 {
		return 0
	}
	whole, frac := uint64(d/time.Second), uint64(d%time.Second)
	return whole*uint64(sampleRate) + frac*uint64(sampleRate)/uint64(time.Second)
}
