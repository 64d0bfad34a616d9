package synth

// Note is the sound of a job: what a voice is reset with.
type Note struct {
	Frequency float32
	// Duration in samples until the release phase starts.
	Duration uint32
	Profile  Profile
}

// noneActive is the value of Pool.highest when every voice is Done.
const noneActive = -1

// Pool owns a fixed set of voices. A voice is free when it is Done; there is
// no separate free list.
//
// All voices above the highest active index are Done, so mixing never looks
// past it.
type Pool struct {
	voices  []Voice
	highest int
}

// NewPool returns a pool of n free voices sharing table.
func NewPool(n int, table *Wavetable, sampleRate uint32) *Pool {
	p := &Pool{
		voices:  make([]Voice, n),
		highest: noneActive,
	}
	for i := range p.voices {
		p.voices[i] = NewVoice(table, sampleRate)
	}
	return p
}

// Len returns the number of voices in the pool.
func (p *Pool) Len() int { return len(p.voices) }

// Highest returns the index of the highest sounding voice, or -1.
func (p *Pool) Highest() int { return p.highest }

// Voice returns the voice at index i.
func (p *Pool) Voice(i int) *Voice { return &p.voices[i] }

// Active returns the number of voices that are not Done.
func (p *Pool) Active() int {
	n := 0
	for i := 0; i <= p.highest; i++ {
		if !p.voices[i].IsDone() {
			n++
		}
	}
	return n
}

// Allocate starts note on the lowest free voice and returns its index.
// ErrPolyphony is returned when every voice is sounding.
func (p *Pool) Allocate(note Note) (int, error) {
	for i := range p.voices {
		v := &p.voices[i]
		if !v.IsDone() {
			continue
		}
		v.Reset(note.Frequency, note.Duration, note.Profile)
		if i > p.highest {
			p.highest = i
		}
		return i, nil
	}
	return -1, ErrPolyphony
}

// Release starts the release phase of the voice at index i.
func (p *Pool) Release(i int) {
	p.voices[i].Release()
}

// ReleaseAll starts the release phase of every sounding voice.
func (p *Pool) ReleaseAll() {
	for i := 0; i <= p.highest; i++ {
		p.voices[i].Release()
	}
}

// Reclaim is called once the voice at index i has gone Done. When it was the
// highest active voice, the next lower active voice takes its place.
func (p *Pool) Reclaim(i int) {
	if i != p.highest || !p.voices[i].IsDone() {
		return
	}
	for j := i - 1; j >= 0; j-- {
		if !p.voices[j].IsDone() {
			p.highest = j
			return
		}
	}
	p.highest = noneActive
}

// ReclaimDone reclaims every voice that has gone Done.
func (p *Pool) ReclaimDone() {
	for i := p.highest; i >= 0; i-- {
		if p.voices[i].IsDone() {
			p.Reclaim(i)
		}
	}
}

// Mix advances every voice up to the highest active one by a sample and
// returns their saturated sum.
func (p *Pool) Mix() int32 {
	var sum int32
	for i := 0; i <= p.highest; i++ {
		sum = SatAdd(sum, p.voices[i].NextSample())
	}
	return sum
}
