//go:build !headless

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ebitengine/oto/v3"
	"golang.org/x/sync/errgroup"

	"github.com/tinygo-org/picosynth/audioout/simdac"
	"github.com/tinygo-org/picosynth/song"
)

func play(m *sim, s *song.Song, limit time.Duration, keys bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if limit > 0 {
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(m.sched.Config().SampleRate),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	<-ready
	out := otoCtx.NewPlayer(m.dac)
	out.SetBufferSize(m.engine.Frames() * simdac.FrameBytes)
	defer out.Close()

	g, ctx := errgroup.WithContext(ctx)
	if keys {
		kb, err := openKeyboard(os.Stdin)
		if err != nil {
			return err
		}
		defer kb.restore()
		g.Go(func() error { return kb.run(ctx, m.key, stop) })
	}
	g.Go(func() error {
		select {
		case <-m.finished:
			// Let the last release ring out.
			time.Sleep(500 * time.Millisecond)
			stop()
		case <-ctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		t := time.NewTicker(250 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				fmt.Fprint(os.Stderr, "\r\n")
				return nil
			case <-t.C:
				status(m, s)
			}
			if err := otoCtx.Err(); err != nil {
				return fmt.Errorf("audio: %w", err)
			}
		}
	})

	out.Play()
	err = g.Wait()
	out.Pause()
	fmt.Fprintf(os.Stderr, "synthsim: %d notes, %d underruns\n", m.played.Load(), m.engine.Underruns())
	return err
}

// status prints one overwriting line; raw terminals need the explicit \r.
func status(m *sim, s *song.Song) {
	name := "keys"
	if s != nil {
		name = s.Name
	}
	fmt.Fprintf(os.Stderr, "\r%s  %8v  notes %4d  underruns %d ",
		name, m.elapsed().Round(10*time.Millisecond), m.played.Load(), m.engine.Underruns())
}
