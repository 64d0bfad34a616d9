// Command synthsim runs the synthesizer firmware's audio pipeline on a host.
//
// The scheduler, output engine and song player are the ones the device runs;
// a software DAC stands in for the PIO and DMA hardware and is drained by the
// host's audio device. With -keys the terminal becomes a small piano:
//
//	a w s e d f t g y h u j k   notes from C
//	z x                         octave down, up
//	space                       release every voice
//	q                           quit
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tinygo-org/picosynth/audioout"
	"github.com/tinygo-org/picosynth/song"
	"github.com/tinygo-org/picosynth/song/songlua"
	"github.com/tinygo-org/picosynth/synth"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "synthsim: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		songPath = flag.String("song", "", "Lua song `file` to play (default: the demo tune)")
		rate     = flag.Uint("rate", synth.DefaultSampleRate, "sample rate in Hz")
		words    = flag.Int("words", audioout.DefaultWords, "output buffer size in 32-bit words")
		loop     = flag.Bool("loop", false, "restart the song when it ends")
		keys     = flag.Bool("keys", false, "play notes from the terminal keyboard")
		headless = flag.Bool("headless", false, "render without an audio device and print statistics")
		seconds  = flag.Float64("seconds", 0, "stop after this many seconds (0: when the song ends)")
		gain     = flag.Float64("gain", 1, "output gain")
	)
	flag.Parse()

	var s *song.Song
	switch {
	case *songPath != "":
		var err error
		if s, err = songlua.LoadFile(*songPath); err != nil {
			return err
		}
	case !*keys:
		s = song.Demo()
	}

	cfg := synth.DefaultConfig()
	cfg.SampleRate = uint32(*rate)
	cfg.MaxLateness = uint64(cfg.SampleRate)
	m, err := newSim(cfg, *words, s, *loop)
	if err != nil {
		return err
	}
	m.dac.Gain = float32(*gain)
	limit := time.Duration(*seconds * float64(time.Second))

	if *headless {
		if limit == 0 {
			if s == nil || *loop {
				return errors.New("-headless needs -seconds without a song that ends")
			}
			limit = s.Duration() + time.Second
		}
		start := time.Now()
		m.render(limit)
		fmt.Fprintf(os.Stderr, "synthsim: rendered %v in %v: %d notes, %d dropped, %d underruns, %d stalls\n",
			m.elapsed(), time.Since(start).Round(time.Millisecond), m.played.Load(),
			m.sched.Dropped(), m.engine.Underruns(), m.dac.Stalls())
		return nil
	}
	return play(m, s, limit, *keys)
}
