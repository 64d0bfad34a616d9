// Package simdac is a software DAC for running the audio pipeline on a host.
//
// It emulates two chained transfer descriptors feeding a sample clock: the
// consumer of the stream (an audio device, a test) pulls frames, and each
// time a descriptor drains its half the completion callback runs in the
// reader's goroutine, as the DMA interrupt would on the device.
package simdac

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// FrameBytes is the size of one stereo frame produced by Read: two
// little-endian float32 samples.
const FrameBytes = 8

var (
	errStarted = errors.New("simdac:already started")
	errHalves  = errors.New("simdac:halves must be equal, non-empty and hold whole frames")
	errDescOOR = errors.New("simdac:descriptor out of range")
)

// DAC implements audioout.Transport in software. Read, ReadFrames and the
// callbacks they run must all happen on one goroutine.
type DAC struct {
	halves     [2][]uint32
	onComplete func()
	started    bool

	active  int
	pos     int
	armed   [2]bool
	done    int
	pending bool

	frames uint64
	stalls uint32

	// Foreground, when set, runs after every completion interrupt. It stands
	// in for the firmware main loop, which refills the released half before
	// the other one drains.
	Foreground func()
	// Gain scales the float output. Zero means unity.
	Gain float32
}

// New returns a stopped DAC that plays silence until started.
func New() *DAC {
	return &DAC{}
}

// Start arms both descriptors and starts descriptor 0.
func (d *DAC) Start(halves [2][]uint32, onComplete func()) error {
	if d.started {
		return errStarted
	}
	if len(halves[0]) == 0 || len(halves[0]) != len(halves[1]) || len(halves[0])%2 != 0 {
		return errHalves
	}
	d.halves = halves
	d.onComplete = onComplete
	d.armed = [2]bool{true, true}
	d.active, d.pos = 0, 0
	d.started = true
	return nil
}

// Completed reports the descriptor that last finished and acknowledges it.
func (d *DAC) Completed() (int, bool) {
	if !d.pending {
		return 0, false
	}
	d.pending = false
	return d.done, true
}

// Rearm resets desc to the start of its half.
func (d *DAC) Rearm(desc int) {
	if desc < 0 || desc > 1 {
		panic(errDescOOR)
	}
	d.armed[desc] = true
}

// Frames returns the number of stereo frames played since Start.
func (d *DAC) Frames() uint64 { return d.frames }

// Stalls returns how many times a descriptor was chained to without having
// been rearmed. The simulated hardware plays silence for that half instead of
// running past the buffer.
func (d *DAC) Stalls() uint32 { return d.stalls }

// next plays one frame.
func (d *DAC) next() (left, right int32) {
	if !d.started {
		return 0, 0
	}
	half := d.halves[d.active]
	if d.armed[d.active] {
		left, right = int32(half[d.pos]), int32(half[d.pos+1])
	}
	d.pos += 2
	d.frames++
	if d.pos < len(half) {
		return left, right
	}

	// The descriptor finished: chain to the other one and raise the
	// interrupt.
	finished := d.active
	d.armed[finished] = false
	d.active, d.pos = 1-finished, 0
	if !d.armed[d.active] {
		d.stalls++
	}
	d.done, d.pending = finished, true
	if d.onComplete != nil {
		d.onComplete()
	}
	if d.Foreground != nil {
		d.Foreground()
	}
	return left, right
}

// ReadFrames plays len(dst) frames into dst as raw 32-bit samples.
func (d *DAC) ReadFrames(dst [][2]int32) {
	for i := range dst {
		dst[i][0], dst[i][1] = d.next()
	}
}

// Read implements io.Reader, producing little-endian float32 stereo frames
// scaled to [-1, 1). Only whole frames are written; a buffer shorter than a
// frame gets io.ErrShortBuffer.
func (d *DAC) Read(p []byte) (int, error) {
	if len(p) < FrameBytes {
		return 0, io.ErrShortBuffer
	}
	gain := d.Gain
	if gain == 0 {
		gain = 1
	}
	n := len(p) / FrameBytes
	for i := 0; i < n; i++ {
		l, r := d.next()
		binary.LittleEndian.PutUint32(p[i*FrameBytes:], math.Float32bits(toFloat(l)*gain))
		binary.LittleEndian.PutUint32(p[i*FrameBytes+4:], math.Float32bits(toFloat(r)*gain))
	}
	return n * FrameBytes, nil
}

func toFloat(s int32) float32 {
	return float32(s) / (1 << 31)
}
