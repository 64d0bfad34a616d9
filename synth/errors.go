package synth

import "errors"

// Request errors returned by the schedule operations. A rejected request
// leaves the scheduler untouched.
var (
	ErrFrequencyRange   = errors.New("synth:frequency out of range")
	ErrOutOfOrder       = errors.New("synth:start before earliest queued note")
	ErrNegativeDuration = errors.New("synth:negative duration")
	ErrNegativeOffset   = errors.New("synth:negative start offset")
	ErrQueueFull        = errors.New("synth:queue full")

	// ErrPolyphony is returned by Pool.Allocate when every voice is sounding.
	ErrPolyphony = errors.New("synth:no free voice")
)
