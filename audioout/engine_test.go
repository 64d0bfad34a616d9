package audioout

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeTransport records the engine's calls and lets the test play the role
// of the DMA hardware.
type fakeTransport struct {
	halves     [2][]uint32
	onComplete func()
	done       int
	pending    bool
	rearmed    []int
	startErr   error
}

func (f *fakeTransport) Start(halves [2][]uint32, onComplete func()) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.halves = halves
	f.onComplete = onComplete
	return nil
}

func (f *fakeTransport) Completed() (int, bool) {
	if !f.pending {
		return 0, false
	}
	f.pending = false
	return f.done, true
}

func (f *fakeTransport) Rearm(desc int) { f.rearmed = append(f.rearmed, desc) }

// finish simulates descriptor desc completing and raising the interrupt.
func (f *fakeTransport) finish(desc int) {
	f.done = desc
	f.pending = true
	f.onComplete()
}

func TestSetupHalves(t *testing.T) {
	e := New(0)
	var tr fakeTransport
	if err := e.Setup(&tr); err != nil {
		t.Fatal(err)
	}
	if len(e.Buffer()) != DefaultWords || e.Frames() != 512 {
		t.Fatalf("buffer got!=expected: %d words %d frames != %d words 512 frames", len(e.Buffer()), e.Frames(), DefaultWords)
	}
	if len(tr.halves[0]) != DefaultWords/2 || len(tr.halves[1]) != DefaultWords/2 {
		t.Fatalf("half sizes got: %d %d", len(tr.halves[0]), len(tr.halves[1]))
	}
	if &tr.halves[0][0] != &e.Buffer()[0] || &tr.halves[1][0] != &e.Buffer()[DefaultWords/2] {
		t.Error("halves do not split the buffer")
	}
	if cap(tr.halves[0]) != DefaultWords/2 {
		t.Errorf("first half can grow into the second: cap %d", cap(tr.halves[0]))
	}
	if err := e.Setup(&tr); !errors.Is(err, errStarted) {
		t.Errorf("second setup error got!=expected: %v != %v", err, errStarted)
	}
	if _, ok := e.TakeBufferToFill(); ok {
		t.Error("buffer offered before any transfer completed")
	}
}

func TestSetupErrors(t *testing.T) {
	for _, words := range []int{2, 6, 1022} {
		if err := New(words).Setup(&fakeTransport{}); !errors.Is(err, errBufferSize) {
			t.Errorf("%d words: error got!=expected: %v != %v", words, err, errBufferSize)
		}
	}
	bad := errors.New("no channel")
	e := New(8)
	if err := e.Setup(&fakeTransport{startErr: bad}); !errors.Is(err, bad) {
		t.Errorf("start error got!=expected: %v != %v", err, bad)
	}
	if err := e.Setup(&fakeTransport{}); err != nil {
		t.Errorf("setup after a failed start: %v", err)
	}
}

// Each completion offers exactly the half its descriptor was reading, once.
func TestHandoff(t *testing.T) {
	e := New(8)
	var tr fakeTransport
	if err := e.Setup(&tr); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 6; i++ {
		desc := i % 2
		tr.finish(desc)
		if e.Pending() != Half(desc+1) {
			t.Errorf("pending got!=expected: %v != %v", e.Pending(), Half(desc+1))
		}
		buf, ok := e.TakeBufferToFill()
		if !ok || &buf[0] != &tr.halves[desc][0] || len(buf) != 4 {
			t.Fatalf("completion %d: got wrong half", i)
		}
		if _, ok := e.TakeBufferToFill(); ok {
			t.Fatalf("completion %d: half offered twice", i)
		}
	}
	if len(tr.rearmed) != 6 || tr.rearmed[0] != 0 || tr.rearmed[1] != 1 {
		t.Errorf("rearmed got: %v", tr.rearmed)
	}
	if e.Underruns() != 0 || e.Completions() != 6 {
		t.Errorf("counters got!=expected: %d underruns %d completions != 0 6", e.Underruns(), e.Completions())
	}
}

func TestUnderrun(t *testing.T) {
	e := New(8)
	var tr fakeTransport
	e.Setup(&tr)
	tr.finish(0)
	tr.finish(1)
	if e.Underruns() != 1 {
		t.Errorf("underruns got!=expected: %d != 1", e.Underruns())
	}
	// Only the latest half is offered.
	buf, ok := e.TakeBufferToFill()
	if !ok || &buf[0] != &tr.halves[1][0] {
		t.Error("latest half not offered after an underrun")
	}
}

func TestSpuriousInterrupt(t *testing.T) {
	e := New(8)
	var tr fakeTransport
	e.Setup(&tr)
	tr.onComplete()
	if e.Pending() != None || len(tr.rearmed) != 0 {
		t.Errorf("spurious interrupt changed state: %v %v", e.Pending(), tr.rearmed)
	}
}

// The interrupt side and the foreground side race on the flag; every
// published half is either taken or counted as an underrun.
func TestHandoffConcurrent(t *testing.T) {
	const completions = 20000
	e := New(8)
	var tr fakeTransport
	e.Setup(&tr)

	var taken atomic.Uint32
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			if _, ok := e.TakeBufferToFill(); ok {
				taken.Add(1)
				continue
			}
			select {
			case <-stop:
				return
			default:
			}
		}
	}()
	var mu sync.Mutex // serializes the simulated interrupt
	for i := 0; i < completions; i++ {
		mu.Lock()
		tr.finish(i % 2)
		mu.Unlock()
	}
	close(stop)
	wg.Wait()
	if _, ok := e.TakeBufferToFill(); ok {
		taken.Add(1)
	}
	if got := taken.Load() + e.Underruns(); got != completions {
		t.Errorf("taken + underruns got!=expected: %d != %d", got, completions)
	}
}

func TestHalfString(t *testing.T) {
	for h, want := range map[Half]string{None: "none", First: "first", Second: "second", Half(9): "invalid"} {
		if h.String() != want {
			t.Errorf("got!=expected: %q != %q", h.String(), want)
		}
	}
}
