// Package audioout streams a double buffer of interleaved stereo samples to a
// DAC through two chained transfer descriptors.
//
// Each descriptor owns one half of the buffer. When a descriptor finishes,
// the hardware moves on to the other half and the completion interrupt
// publishes the finished half to the foreground, which refills it before
// the other half drains. A single atomic flag is the only state shared with
// interrupt context.
package audioout

import (
	"errors"
	"sync/atomic"
)

// DefaultWords is the size of the firmware's output buffer: two halves of
// 512 stereo frames.
const DefaultWords = 2048

var (
	errBufferSize = errors.New("audioout:buffer must hold a whole number of stereo frames per half")
	errStarted    = errors.New("audioout:already started")
)

// Half names a half of the output buffer.
type Half uint32

const (
	None Half = iota
	First
	Second
)

func (h Half) String() string {
	switch h {
	case None:
		return "none"
	case First:
		return "first"
	case Second:
		return "second"
	}
	return "invalid"
}

// Transport moves the buffer halves to the DAC.
//
// Start configures descriptor i to read halves[i], chains each descriptor to
// the other and starts descriptor 0. onComplete must then be called from the
// completion interrupt each time a descriptor finishes.
type Transport interface {
	Start(halves [2][]uint32, onComplete func()) error
	// Completed reports which descriptor finished and acknowledges it.
	Completed() (desc int, ok bool)
	// Rearm points desc back at the start of its half without starting it;
	// the chain from the other descriptor starts it.
	Rearm(desc int)
}

// Engine is the double-buffered output pipeline. The zero value is not
// usable; create engines with New.
type Engine struct {
	buf       []uint32
	halves    [2][]uint32
	transport Transport

	toFill      atomic.Uint32
	underruns   atomic.Uint32
	completions atomic.Uint32
}

// New returns an engine with a zeroed buffer of the given number of 32-bit
// words. A non-positive size selects DefaultWords.
func New(words int) *Engine {
	if words <= 0 {
		words = DefaultWords
	}
	e := &Engine{buf: make([]uint32, words)}
	half := words / 2
	e.halves[0] = e.buf[:half:half]
	e.halves[1] = e.buf[half : 2*half : 2*half]
	return e
}

// Setup hands the two halves to t and starts streaming. The buffer plays
// out as silence until the first half is published for filling.
func (e *Engine) Setup(t Transport) error {
	if e.transport != nil {
		return errStarted
	}
	if len(e.buf) < 4 || len(e.buf)%4 != 0 {
		return errBufferSize
	}
	e.transport = t
	if err := t.Start(e.halves, e.OnTransferComplete); err != nil {
		e.transport = nil
		return err
	}
	return nil
}

// OnTransferComplete handles the completion interrupt: it rearms the
// finished descriptor and publishes its half for filling. It does not
// allocate and runs in bounded time.
func (e *Engine) OnTransferComplete() {
	desc, ok := e.transport.Completed()
	if !ok {
		return
	}
	e.transport.Rearm(desc)
	e.completions.Add(1)
	if Half(e.toFill.Swap(uint32(desc)+1)) != None {
		// The foreground never took the previous half: it played stale data.
		e.underruns.Add(1)
	}
}

// TakeBufferToFill returns the half the hardware has finished reading, if
// any, and clears the notification. Only one goroutine may take buffers.
// The half must be completely written before the other half drains.
func (e *Engine) TakeBufferToFill() ([]uint32, bool) {
	for {
		h := e.toFill.Load()
		if Half(h) == None {
			return nil, false
		}
		if e.toFill.CompareAndSwap(h, uint32(None)) {
			return e.halves[h-1], true
		}
	}
}

// Pending returns the half currently published for filling.
func (e *Engine) Pending() Half { return Half(e.toFill.Load()) }

// Underruns returns how many halves were played again because they were not
// taken in time.
func (e *Engine) Underruns() uint32 { return e.underruns.Load() }

// Completions returns the number of descriptor completions handled.
func (e *Engine) Completions() uint32 { return e.completions.Load() }

// Buffer returns the whole output buffer.
func (e *Engine) Buffer() []uint32 { return e.buf }

// Frames returns the number of stereo frames in one half.
func (e *Engine) Frames() int { return len(e.halves[0]) / 2 }
