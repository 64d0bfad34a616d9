//go:build headless

package main

import (
	"errors"
	"time"

	"github.com/tinygo-org/picosynth/song"
)

var errNoAudio = errors.New("built without an audio device, run with -headless")

func play(*sim, *song.Song, time.Duration, bool) error {
	return errNoAudio
}
