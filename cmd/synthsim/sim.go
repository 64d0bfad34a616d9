package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinygo-org/picosynth/audioout"
	"github.com/tinygo-org/picosynth/audioout/simdac"
	"github.com/tinygo-org/picosynth/song"
	"github.com/tinygo-org/picosynth/synth"
)

// pianoKeys maps a row of the keyboard to semitones above the current octave's C.
const pianoKeys = "awsedftgyhujkolp;"

// liveNote is how long a key press sounds; a terminal reports no key release.
const liveNote = 400 * time.Millisecond

// sim is the firmware main loop running on top of the simulated DAC. Its
// foreground method is called from the goroutine reading audio, the way the
// device's loop runs between interrupts. Everything other goroutines read is
// published through atomics.
type sim struct {
	engine *audioout.Engine
	dac    *simdac.DAC
	sched  *synth.Scheduler
	player *song.Player
	loop   bool

	keys   chan byte
	octave int
	live   synth.Profile

	// log receives the first song tone the scheduler rejects.
	log      io.Writer
	rejected bool

	played   atomic.Uint64
	clock    atomic.Uint64
	finished chan struct{}
	finish   sync.Once
}

func newSim(cfg synth.Config, words int, s *song.Song, loop bool) (*sim, error) {
	m := &sim{
		engine:   audioout.New(words),
		dac:      simdac.New(),
		loop:     loop,
		keys:     make(chan byte, 16),
		octave:   4,
		log:      os.Stderr,
		finished: make(chan struct{}),
	}
	if err := m.engine.Setup(m.dac); err != nil {
		return nil, err
	}
	m.sched = synth.NewScheduler(cfg, synth.NewSineTable(), m.engine)
	m.sched.OnActivate = func(synth.Activation) { m.played.Add(1) }
	m.live = m.sched.Profile(5*time.Millisecond, 80*time.Millisecond, 0.4, 250*time.Millisecond)
	if s != nil {
		m.player = song.NewPlayer(s, m.sched)
		m.player.Start(0)
	}
	m.dac.Foreground = m.foreground
	return m, nil
}

func (m *sim) foreground() {
drain:
	for {
		select {
		case k := <-m.keys:
			m.press(k)
		default:
			break drain
		}
	}
	if m.player != nil {
		if m.player.Done() && !m.sched.Busy() {
			if m.loop {
				m.player.Start(0)
			} else {
				m.done()
			}
		}
		if _, err := m.player.Feed(); err != nil && !m.rejected {
			m.rejected = true
			fmt.Fprintf(m.log, "synthsim: skipping tones of %s: %v\n", m.player.Song().Name, err)
		}
	}
	for m.sched.Tick() {
	}
	m.clock.Store(m.sched.Now())
}

// press plays the note for a piano key or changes octave. It reports false
// for keys it ignores.
func (m *sim) press(k byte) bool {
	switch k {
	case 'z':
		if m.octave > 0 {
			m.octave--
		}
		return true
	case 'x':
		if m.octave < 8 {
			m.octave++
		}
		return true
	case ' ':
		m.sched.Pool().ReleaseAll()
		return true
	}
	for i := 0; i < len(pianoKeys); i++ {
		if pianoKeys[i] != k {
			continue
		}
		pitch := float32(12*(m.octave+1) + i)
		// Live notes go straight to a voice: the queue may already hold
		// later song notes, which a note starting now cannot precede.
		_, err := m.sched.Pool().Allocate(synth.Note{
			Frequency: song.MIDIFrequency(pitch),
			Duration:  uint32(m.sched.Config().Samples(liveNote)),
			Profile:   m.live,
		})
		if err == nil {
			m.played.Add(1)
		}
		return true
	}
	return false
}

// key queues a key press for the next foreground pass. Presses beyond the
// queue's capacity are dropped.
func (m *sim) key(k byte) {
	select {
	case m.keys <- k:
	default:
	}
}

func (m *sim) done() {
	m.finish.Do(func() { close(m.finished) })
}

// render plays d of audio into nowhere, as fast as the host allows.
func (m *sim) render(d time.Duration) {
	frames := m.sched.Config().Samples(d)
	buf := make([][2]int32, 1024)
	for frames > 0 {
		n := uint64(len(buf))
		if frames < n {
			n = frames
		}
		m.dac.ReadFrames(buf[:n])
		frames -= n
	}
}

// elapsed returns the virtual clock as a duration.
func (m *sim) elapsed() time.Duration {
	rate := uint64(m.sched.Config().SampleRate)
	now := m.clock.Load()
	return time.Duration(now/rate)*time.Second + time.Duration(now%rate)*time.Second/time.Duration(rate)
}
