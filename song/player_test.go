package song

import (
	"errors"
	"testing"
	"time"

	"github.com/tinygo-org/picosynth/synth"
)

type endless struct{ words int }

func (e endless) TakeBufferToFill() ([]uint32, bool) {
	return make([]uint32, e.words), true
}

// At 1 kHz one millisecond is one sample.
func milliScheduler(queue int) *synth.Scheduler {
	cfg := synth.Config{SampleRate: 1000, Channels: 10, QueueLength: queue}
	return synth.NewScheduler(cfg, synth.NewSineTable(), endless{words: 200})
}

func TestPlayerFeedsQueue(t *testing.T) {
	s := testSong(t)
	sched := milliScheduler(4)
	var starts []uint64
	sched.OnActivate = func(a synth.Activation) { starts = append(starts, a.At) }

	p := NewPlayer(s, sched)
	if !p.Done() {
		t.Error("unstarted player is not done")
	}
	sched.Tick() // clock at 100
	p.Start(50 * time.Millisecond)
	if n, err := p.Feed(); n != 4 || err != nil {
		t.Fatalf("first feed got!=expected: %d %v != 4 <nil>", n, err)
	}
	if p.Done() {
		t.Fatal("done after a partial feed")
	}
	for i := 0; i < 20 && !p.Done(); i++ {
		sched.Tick()
		if _, err := p.Feed(); err != nil {
			t.Fatal(err)
		}
	}
	for sched.Busy() {
		sched.Tick()
	}
	if len(starts) != s.Len() {
		t.Fatalf("activations got!=expected: %d != %d", len(starts), s.Len())
	}
	for i, at := range starts {
		if want := uint64(150 + 100*i); at != want {
			t.Errorf("tone %d started at %d, want %d", i, at, want)
		}
	}
}

func TestPlayerProgress(t *testing.T) {
	s := testSong(t)
	sched := milliScheduler(100)
	p := NewPlayer(s, sched)
	p.Start(0)
	p.Feed()
	sched.Tick()
	sched.Tick()
	p.Feed()
	if s.Progress() != 200*time.Millisecond {
		t.Errorf("progress got!=expected: %v != %v", s.Progress(), 200*time.Millisecond)
	}
	if !p.Done() {
		t.Error("player with a large queue not done after one feed")
	}
}

func TestPlayerSkipsUnplayable(t *testing.T) {
	tones := []Tone{
		{Frequency: 100, Start: 0, Duration: ms(10)},
		{Frequency: 600, Start: ms(10), Duration: ms(10)}, // above 500 Hz Nyquist
		{Frequency: 200, Start: ms(20), Duration: ms(10)},
	}
	s, err := New("skip", 120, nil, testEnvelopes, tones)
	if err != nil {
		t.Fatal(err)
	}
	sched := milliScheduler(10)
	p := NewPlayer(s, sched)
	p.Start(0)
	n, err := p.Feed()
	if n != 2 || !errors.Is(err, synth.ErrFrequencyRange) {
		t.Errorf("feed got!=expected: %d %v != 2 %v", n, err, synth.ErrFrequencyRange)
	}
	if p.Skipped() != 1 || !p.Done() || sched.Queued() != 2 {
		t.Errorf("skipped %d done %v queued %d", p.Skipped(), p.Done(), sched.Queued())
	}
}

// A note queued by someone else that starts later than the song's next tone
// holds the song back until it starts.
func TestPlayerWaitsBehindLaterNote(t *testing.T) {
	s := testSong(t)
	sched := milliScheduler(20)
	if err := sched.ScheduleAbsolute(300, 150, time.Millisecond, synth.Profile{}); err != nil {
		t.Fatal(err)
	}
	p := NewPlayer(s, sched)
	p.Start(0)
	if n, err := p.Feed(); n != 0 || err != nil {
		t.Fatalf("feed behind a later note got!=expected: %d %v != 0 <nil>", n, err)
	}
	sched.Tick() // the foreign note is at 150, still ahead
	sched.Tick() // now it has started
	if n, err := p.Feed(); n != s.Len() || err != nil {
		t.Errorf("feed after the note started got!=expected: %d %v != %d <nil>", n, err, s.Len())
	}
}

func TestPlayerStop(t *testing.T) {
	s := testSong(t)
	sched := milliScheduler(20)
	p := NewPlayer(s, sched)
	p.Start(0)
	p.Feed()
	sched.Tick()
	p.Stop()
	if !p.Done() {
		t.Error("stopped player not done")
	}
	for i := 0; i < sched.Pool().Len(); i++ {
		if st := sched.Pool().Voice(i).State(); st != synth.StateReleased && st != synth.StateDone {
			t.Errorf("voice %d still %v after stop", i, st)
		}
	}
}

// The demo chords overlap by at most three and never run out of voices.
func TestDemoPlays(t *testing.T) {
	sched := synth.NewScheduler(synth.DefaultConfig(), synth.NewSineTable(), endless{words: 1024})
	played := 0
	sched.OnActivate = func(synth.Activation) { played++ }
	p := NewPlayer(Demo(), sched)
	p.Start(0)
	for !p.Done() || sched.Busy() {
		p.Feed()
		sched.Tick()
	}
	if played != 24 || sched.Dropped() != 0 {
		t.Errorf("played %d dropped %d, want 24 0", played, sched.Dropped())
	}
	if sched.Now() > uint64(4*synth.DefaultSampleRate) {
		t.Errorf("demo ran %d samples", sched.Now())
	}
}
