// Package songlua builds songs from Lua scripts.
//
// A script describes a song with a handful of global functions:
//
//	name("Ode to Joy")
//	bpm(120)
//	local lead = channel("lead")
//	local soft = envelope{attack = 0.01, decay = 0.1, sustain = 0.6, release = 0.2}
//	note(64, 0, beats(1), {channel = lead, envelope = soft})
//	tone(440, beats(1), beats(2), {velocity = 90})
//
// Times are in seconds. note takes a MIDI pitch and tone a frequency in Hz.
// Tones without an envelope use the first one declared, or the demo
// envelope when the script declares none.
package songlua

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/tinygo-org/picosynth/song"
)

// DefaultBPM is the tempo of a script that never calls bpm.
const DefaultBPM = 120

// LoadFile runs the script at path. The song is named after the file unless
// the script names it.
func LoadFile(path string) (*song.Song, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("songlua: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Load(name, string(src))
}

// Load runs src and returns the song it describes. name is used as the
// chunk name in errors and as the song name unless the script sets one.
func Load(name, src string) (*song.Song, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	b := &builder{name: name, bpm: DefaultBPM}
	b.register(L)
	fn, err := L.Load(strings.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("songlua: %w", err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, fmt.Errorf("songlua: %w", err)
	}
	return b.build()
}

type builder struct {
	name      string
	bpm       int
	channels  []string
	envelopes []song.Envelope
	tones     []song.Tone
}

func (b *builder) register(L *lua.LState) {
	for name, fn := range map[string]lua.LGFunction{
		"name":     b.luaName,
		"bpm":      b.luaBPM,
		"beats":    b.luaBeats,
		"channel":  b.luaChannel,
		"envelope": b.luaEnvelope,
		"note":     b.luaNote,
		"tone":     b.luaTone,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
}

func (b *builder) build() (*song.Song, error) {
	envelopes := b.envelopes
	if len(envelopes) == 0 {
		envelopes = []song.Envelope{song.DemoEnvelope}
	}
	s, err := song.New(b.name, b.bpm, b.channels, envelopes, b.tones)
	if err != nil {
		return nil, fmt.Errorf("songlua: %s: %w", b.name, err)
	}
	return s, nil
}

func (b *builder) luaName(L *lua.LState) int {
	b.name = L.CheckString(1)
	return 0
}

func (b *builder) luaBPM(L *lua.LState) int {
	bpm := L.CheckInt(1)
	if bpm <= 0 {
		L.ArgError(1, "tempo must be positive")
	}
	b.bpm = bpm
	return 0
}

// beats(n) converts n beats at the current tempo to seconds.
func (b *builder) luaBeats(L *lua.LState) int {
	n := float64(L.CheckNumber(1))
	L.Push(lua.LNumber(n * 60 / float64(b.bpm)))
	return 1
}

// channel(name) returns the index of the named part, declaring it first if
// needed.
func (b *builder) luaChannel(L *lua.LState) int {
	L.Push(lua.LNumber(b.channel(L.CheckString(1))))
	return 1
}

func (b *builder) channel(name string) int {
	for i, c := range b.channels {
		if c == name {
			return i
		}
	}
	b.channels = append(b.channels, name)
	return len(b.channels) - 1
}

// envelope{attack, decay, sustain, release} declares an envelope and returns
// its index. Missing fields are zero.
func (b *builder) luaEnvelope(L *lua.LState) int {
	tbl := L.CheckTable(1)
	sustain := float64(lua.LVAsNumber(tbl.RawGetString("sustain")))
	if sustain < 0 || sustain > 1 {
		L.ArgError(1, "sustain must be within 0..1")
	}
	e := song.Envelope{
		Attack:  seconds(lua.LVAsNumber(tbl.RawGetString("attack"))),
		Decay:   seconds(lua.LVAsNumber(tbl.RawGetString("decay"))),
		Sustain: float32(sustain),
		Release: seconds(lua.LVAsNumber(tbl.RawGetString("release"))),
	}
	if e.Attack < 0 || e.Decay < 0 || e.Release < 0 {
		L.ArgError(1, "envelope times must not be negative")
	}
	b.envelopes = append(b.envelopes, e)
	L.Push(lua.LNumber(len(b.envelopes) - 1))
	return 1
}

// note(pitch, start, duration [, opts]) adds a tone by MIDI pitch.
func (b *builder) luaNote(L *lua.LState) int {
	pitch := float32(L.CheckNumber(1))
	b.addTone(L, song.MIDIFrequency(pitch))
	return 0
}

// tone(frequency, start, duration [, opts]) adds a tone in Hz.
func (b *builder) luaTone(L *lua.LState) int {
	b.addTone(L, float32(L.CheckNumber(1)))
	return 0
}

func (b *builder) addTone(L *lua.LState, freq float32) {
	t := song.Tone{
		Frequency: freq,
		Start:     seconds(L.CheckNumber(2)),
		Duration:  seconds(L.CheckNumber(3)),
	}
	if opts := L.OptTable(4, nil); opts != nil {
		switch ch := opts.RawGetString("channel").(type) {
		case lua.LNumber:
			t.Channel = int(ch)
		case lua.LString:
			t.Channel = b.channel(string(ch))
		}
		if env, ok := opts.RawGetString("envelope").(lua.LNumber); ok {
			t.Envelope = int(env)
		}
		if vel, ok := opts.RawGetString("velocity").(lua.LNumber); ok {
			if vel < 1 || vel > math.MaxUint16 {
				L.ArgError(4, "velocity out of range")
			}
			t.Velocity = uint16(vel)
		}
	}
	b.tones = append(b.tones, t)
}

func seconds(n lua.LNumber) time.Duration {
	return time.Duration(float64(n) * float64(time.Second))
}
