package song

import (
	"errors"
	"time"

	"github.com/tinygo-org/picosynth/synth"
)

// Player streams a song into a scheduler. The song usually holds more tones
// than fit in the scheduler queue, so Feed is called from the main loop and
// hands over as many upcoming tones as the queue has room for.
type Player struct {
	song     *Song
	sched    *synth.Scheduler
	profiles []synth.Profile

	origin  uint64
	next    int
	started bool
	skipped int
}

// NewPlayer prepares s for playback on sched.
func NewPlayer(s *Song, sched *synth.Scheduler) *Player {
	rate := sched.Config().SampleRate
	profiles := make([]synth.Profile, len(s.Envelopes))
	for i, e := range s.Envelopes {
		profiles[i] = e.Profile(rate)
	}
	return &Player{song: s, sched: sched, profiles: profiles}
}

// Song returns the song being played.
func (p *Player) Song() *Song { return p.song }

// Start begins playback delay after the scheduler's current time.
func (p *Player) Start(delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	p.origin = p.sched.Now() + p.sched.Config().Samples(delay)
	p.next = 0
	p.skipped = 0
	p.started = true
	p.song.SetProgress(0)
}

// Feed schedules upcoming tones while the queue has room and updates the
// song's progress from the scheduler clock. It returns the number of tones
// scheduled.
//
// A tone the scheduler cannot play, such as one above the Nyquist
// frequency, is skipped and its error returned after feeding the rest.
// When another source has queued a later note first, feeding pauses until
// that note starts.
func (p *Player) Feed() (int, error) {
	if !p.started {
		return 0, nil
	}
	if now := p.sched.Now(); now > p.origin {
		rate := uint64(p.sched.Config().SampleRate)
		elapsed := now - p.origin
		p.song.SetProgress(time.Duration(elapsed/rate)*time.Second +
			time.Duration(elapsed%rate)*time.Second/time.Duration(rate))
	}

	var firstErr error
	n := 0
	for p.next < len(p.song.tones) && p.sched.QueueSpace() > 0 {
		t := p.song.tones[p.next]
		start := p.origin + p.sched.Config().Samples(t.Start)
		err := p.sched.ScheduleAbsolute(t.Frequency, start, t.Duration, p.profiles[t.Envelope])
		if errors.Is(err, synth.ErrOutOfOrder) {
			break
		}
		p.next++
		if err != nil {
			p.skipped++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n++
	}
	return n, firstErr
}

// Done reports whether every tone has been handed to the scheduler.
func (p *Player) Done() bool {
	return !p.started || p.next >= len(p.song.tones)
}

// Skipped returns the number of tones the scheduler rejected.
func (p *Player) Skipped() int { return p.skipped }

// Stop ends feeding and releases every sounding voice. Tones already queued
// still start; release is the only way to silence a voice.
func (p *Player) Stop() {
	p.next = len(p.song.tones)
	p.sched.Pool().ReleaseAll()
}
