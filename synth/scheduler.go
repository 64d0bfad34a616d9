package synth

import (
	"math"
	"time"
)

// BufferSource hands out the half of the output buffer that may be
// overwritten. It returns false when the hardware still owns both halves.
// A returned slice holds interleaved stereo frames.
type BufferSource interface {
	TakeBufferToFill() ([]uint32, bool)
}

// Activation describes a job that became a sounding voice.
type Activation struct {
	Channel int
	Job     Job
	// At is the virtual clock sample of the first output sample of the voice.
	At uint64
}

// Scheduler turns timed note requests into audio. All methods must be called
// from the same foreground loop; only the BufferSource is shared with
// interrupt context.
type Scheduler struct {
	cfg   Config
	out   BufferSource
	pool  *Pool
	queue jobQueue
	// now is the virtual sample clock: samples written so far.
	now     uint64
	dropped uint64

	// OnActivate, when set, is called for every job as it starts sounding.
	OnActivate func(Activation)
	// OnDrop, when set, is called for every job that waited longer than
	// Config.MaxLateness for a free voice and was discarded.
	OnDrop func(Job)
}

// NewScheduler returns a scheduler writing into the buffers handed out by out.
// Zero fields of cfg take their DefaultConfig values.
func NewScheduler(cfg Config, table *Wavetable, out BufferSource) *Scheduler {
	def := DefaultConfig()
	if cfg.SampleRate == 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = def.Channels
	}
	if cfg.QueueLength <= 0 {
		cfg.QueueLength = def.QueueLength
	}
	return &Scheduler{
		cfg:   cfg,
		out:   out,
		pool:  NewPool(cfg.Channels, table, cfg.SampleRate),
		queue: newJobQueue(cfg.QueueLength),
	}
}

// Config returns the configuration in effect.
func (s *Scheduler) Config() Config { return s.cfg }

// Pool returns the voices driven by the scheduler.
func (s *Scheduler) Pool() *Pool { return s.pool }

// Now returns the virtual sample clock.
func (s *Scheduler) Now() uint64 { return s.now }

// Queued returns the number of notes waiting for their start time.
func (s *Scheduler) Queued() int { return s.queue.len() }

// QueueSpace returns how many more notes can be scheduled right now.
func (s *Scheduler) QueueSpace() int { return s.queue.space() }

// Dropped returns the number of notes discarded for lack of a free voice.
func (s *Scheduler) Dropped() uint64 { return s.dropped }

// Busy reports whether any note is queued or still sounding.
func (s *Scheduler) Busy() bool {
	return s.queue.len() > 0 || s.pool.Highest() != noneActive
}

// Profile derives an envelope profile at the scheduler's sample rate.
func (s *Scheduler) Profile(attack, decay time.Duration, sustain float32, release time.Duration) Profile {
	return NewProfile(s.cfg.SampleRate, attack, decay, sustain, release)
}

// ScheduleAbsolute queues a note starting at virtual clock sample start.
// A note may not start before the earliest queued note; notes with equal
// start times sound in the order they were scheduled.
func (s *Scheduler) ScheduleAbsolute(frequency float32, start uint64, duration time.Duration, p Profile) error {
	if !(frequency >= 0 && frequency <= float32(s.cfg.SampleRate)/2) {
		return ErrFrequencyRange
	}
	if duration < 0 {
		return ErrNegativeDuration
	}
	if s.queue.full() {
		return ErrQueueFull
	}
	if s.queue.len() > 0 && start < s.queue.front().Start {
		return ErrOutOfOrder
	}
	n := s.cfg.Samples(duration)
	if n > math.MaxUint32 {
		n = math.MaxUint32
	}
	s.queue.insert(Job{
		Note:  Note{Frequency: frequency, Duration: uint32(n), Profile: p},
		Start: start,
	})
	return nil
}

// ScheduleRelative queues a note starting offset after the current clock.
func (s *Scheduler) ScheduleRelative(frequency float32, offset, duration time.Duration, p Profile) error {
	if offset < 0 {
		return ErrNegativeOffset
	}
	return s.ScheduleAbsolute(frequency, s.now+s.cfg.Samples(offset), duration, p)
}

// ScheduleAt queues a note starting at time at, measured from clock zero.
func (s *Scheduler) ScheduleAt(frequency float32, at, duration time.Duration, p Profile) error {
	if at < 0 {
		return ErrNegativeOffset
	}
	return s.ScheduleAbsolute(frequency, s.cfg.Samples(at), duration, p)
}

// Release starts the release phase of the voice on channel.
func (s *Scheduler) Release(channel int) {
	s.pool.Release(channel)
}

// Tick fills the output half that the hardware has finished with, if any,
// and reports whether it did.
func (s *Scheduler) Tick() bool {
	buf, ok := s.out.TakeBufferToFill()
	if !ok {
		return false
	}
	s.fill(buf)
	return true
}

// fill writes len(buf)/2 stereo frames, starting due jobs at the exact frame
// their start time is reached.
func (s *Scheduler) fill(buf []uint32) {
	for i := 0; i+1 < len(buf); i += 2 {
		s.startDue()
		sample := uint32(s.pool.Mix())
		buf[i] = sample
		buf[i+1] = sample
		s.now++
	}
	s.pool.ReclaimDone()
}

// startDue moves every job whose start time has been reached into the pool.
// A job that finds no free voice stays at the front and is retried on the
// next frame, unless it is already later than the configured limit.
func (s *Scheduler) startDue() {
	for s.queue.len() > 0 {
		job := s.queue.front()
		if job.Start > s.now {
			return
		}
		ch, err := s.pool.Allocate(job.Note)
		if err != nil {
			if s.cfg.MaxLateness == 0 || s.now-job.Start <= s.cfg.MaxLateness {
				return
			}
			lost := s.queue.pop()
			s.dropped++
			if s.OnDrop != nil {
				s.OnDrop(lost)
			}
			continue
		}
		started := s.queue.pop()
		if s.OnActivate != nil {
			s.OnActivate(Activation{Channel: ch, Job: started, At: s.now})
		}
	}
}
