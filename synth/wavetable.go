package synth

import "math"

const (
	// TableBits is log2 of the number of entries in a Wavetable.
	TableBits = 8
	TableSize = 1 << TableBits

	// tableShift moves the table index to the top bits of the phase
	// accumulator. The remaining low bits give sub-entry frequency steps.
	tableShift = 32 - TableBits

	int24Max = 1<<23 - 1
	// tableAmplitude keeps a single voice well below full scale so several
	// voices can peak together before the mix saturates.
	tableAmplitude = 0.15
)

// Wavetable is one period of a waveform sampled at TableSize points.
// It is built once and shared read-only by all voices.
type Wavetable [TableSize]int32

// NewSineTable returns a sine period scaled to a fraction of 24-bit full scale.
func NewSineTable() *Wavetable {
	var t Wavetable
	for i := range t {
		t[i] = int32(int24Max * tableAmplitude * math.Sin(2*math.Pi*float64(i)/TableSize))
	}
	return &t
}

// At returns the entry addressed by the top bits of a phase accumulator.
func (t *Wavetable) At(phase uint32) int32 {
	return t[phase>>tableShift]
}

// Peak returns the largest absolute value in the table.
func (t *Wavetable) Peak() int32 {
	var peak int32
	for _, v := range t {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}
