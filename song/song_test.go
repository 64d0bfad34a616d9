package song

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

var testEnvelopes = []Envelope{{Sustain: 1}}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestNewValidates(t *testing.T) {
	for _, tc := range []struct {
		name string
		tone Tone
		err  error
	}{
		{"negative start", Tone{Frequency: 440, Start: -1}, ErrBadTone},
		{"negative duration", Tone{Frequency: 440, Duration: -1}, ErrBadTone},
		{"no pitch", Tone{}, ErrBadTone},
		{"NaN pitch", Tone{Frequency: float32(math.NaN())}, ErrBadTone},
		{"infinite pitch", Tone{Frequency: float32(math.Inf(1))}, ErrBadTone},
		{"missing envelope", Tone{Frequency: 440, Envelope: 1}, ErrNoEnvelope},
		{"negative envelope", Tone{Frequency: 440, Envelope: -1}, ErrNoEnvelope},
		{"missing channel", Tone{Frequency: 440, Channel: 2}, ErrNoChannel},
	} {
		_, err := New("bad", 120, []string{"a", "b"}, testEnvelopes, []Tone{tc.tone})
		if !errors.Is(err, tc.err) {
			t.Errorf("%s: error got!=expected: %v != %v", tc.name, err, tc.err)
		}
	}
	// Without named channels any channel index is accepted.
	if _, err := New("free", 120, nil, testEnvelopes, []Tone{{Frequency: 440, Channel: 7}}); err != nil {
		t.Errorf("unnamed channel rejected: %v", err)
	}
}

func TestNewSorts(t *testing.T) {
	in := []Tone{
		{Frequency: 1, Start: ms(30), Duration: ms(10)},
		{Frequency: 2, Start: ms(10), Duration: ms(50)},
		{Frequency: 3, Start: ms(30), Duration: ms(5)},
		{Frequency: 4, Start: 0, Duration: ms(10), Velocity: 7},
	}
	s, err := New("sorted", 120, nil, testEnvelopes, in)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{4, 2, 1, 3}
	for i, f := range want {
		if got := s.Tone(i).Frequency; got != f {
			t.Errorf("tone %d got!=expected: %v != %v", i, got, f)
		}
	}
	if in[0].Frequency != 1 {
		t.Error("New reordered the caller's slice")
	}
	if s.Duration() != ms(60) {
		t.Errorf("duration got!=expected: %v != %v", s.Duration(), ms(60))
	}
	if s.Tone(0).Velocity != 7 || s.Tone(1).Velocity != DefaultVelocity {
		t.Errorf("velocities got: %d %d", s.Tone(0).Velocity, s.Tone(1).Velocity)
	}
}

func testSong(t *testing.T) *Song {
	t.Helper()
	var tones []Tone
	for i := 0; i < 10; i++ {
		tones = append(tones, Tone{Frequency: float32(100 + i), Start: ms(100 * i), Duration: ms(150)})
	}
	s, err := New("steps", 120, nil, testEnvelopes, tones)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestTonesRange(t *testing.T) {
	s := testSong(t)
	for _, tc := range []struct {
		from, to time.Duration
		want     []float32
	}{
		{0, ms(200), []float32{100, 101, 102}},
		{ms(150), ms(350), []float32{102, 103}},
		{ms(901), ms(5000), nil},
		{ms(300), ms(100), nil},
		{ms(900), ms(900), []float32{109}},
	} {
		got := s.Tones(tc.from, tc.to)
		if len(got) != len(tc.want) {
			t.Errorf("[%v, %v] got %d tones, want %d", tc.from, tc.to, len(got), len(tc.want))
			continue
		}
		for i := range got {
			if got[i].Frequency != tc.want[i] {
				t.Errorf("[%v, %v] tone %d got!=expected: %v != %v", tc.from, tc.to, i, got[i].Frequency, tc.want[i])
			}
		}
	}
}

func TestActiveTones(t *testing.T) {
	s := testSong(t)
	for _, tc := range []struct {
		at, horizon time.Duration
		want        []float32
	}{
		// 300..450 still sounds, 400 sounds, 500 and 600 start within the horizon.
		{ms(420), ms(200), []float32{103, 104, 105, 106}},
		{0, 0, []float32{100}},
		{ms(1050), ms(100), []float32{109}},
		{ms(1100), time.Second, nil},
	} {
		got := s.ActiveTones(tc.at, tc.horizon)
		if len(got) != len(tc.want) {
			t.Errorf("at %v got %d tones, want %d", tc.at, len(got), len(tc.want))
			continue
		}
		for i := range tc.want {
			if got[i].Frequency != tc.want[i] {
				t.Errorf("at %v tone %d got!=expected: %v != %v", tc.at, i, got[i].Frequency, tc.want[i])
			}
		}
	}
	s.SetProgress(ms(420))
	if got := s.ActiveTones(s.Progress(), ms(200)); len(got) != 4 {
		t.Errorf("tones at progress got %d, want 4", len(got))
	}
}

func TestProgressClamp(t *testing.T) {
	s := testSong(t)
	s.Advance(ms(500))
	if s.Progress() != ms(500) {
		t.Errorf("progress got!=expected: %v != %v", s.Progress(), ms(500))
	}
	s.Advance(time.Hour)
	if s.Progress() != s.Duration() {
		t.Errorf("progress past end got!=expected: %v != %v", s.Progress(), s.Duration())
	}
	s.SetProgress(-time.Second)
	if s.Progress() != 0 {
		t.Errorf("negative progress got!=expected: %v != 0", s.Progress())
	}
}

func TestMIDIFrequency(t *testing.T) {
	for _, tc := range []struct {
		note, want float32
	}{
		{69, 440},
		{81, 880},
		{57, 220},
		{60, 261.6256},
	} {
		if got := MIDIFrequency(tc.note); math.Abs(float64(got-tc.want)) > 1e-3 {
			t.Errorf("MIDIFrequency(%v) got!=expected: %v != %v", tc.note, got, tc.want)
		}
	}
}

func TestDemo(t *testing.T) {
	s := Demo()
	if s.Len() != 24 {
		t.Fatalf("demo tones got!=expected: %d != 24", s.Len())
	}
	if s.Duration() != 3*time.Second+DemoNoteLength {
		t.Errorf("demo duration got!=expected: %v != %v", s.Duration(), 3*time.Second+DemoNoteLength)
	}
	first := s.Tones(0, 250*time.Millisecond)
	if len(first) != 3 {
		t.Fatalf("first chord got %d tones", len(first))
	}
	for i, note := range []float32{67, 55, 43} {
		if first[i].Frequency != MIDIFrequency(note) || first[i].Channel != i {
			t.Errorf("first chord tone %d got: %+v", i, first[i])
		}
	}
}

func TestErrorPrefix(t *testing.T) {
	for _, err := range []error{ErrNoEnvelope, ErrNoChannel, ErrBadTone} {
		if msg := err.Error(); !strings.HasPrefix(msg, "song:") || strings.HasPrefix(msg, "song: ") {
			t.Errorf("error %q does not start with song:", msg)
		}
	}
}
