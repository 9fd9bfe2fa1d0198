package wakeword

import (
	"math"
	"sync"
	"time"
)

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeEngine records calls and fires on a preset frame number
type fakeEngine struct {
	initCalls  int
	initErr    error
	processed  int
	fireAt     int
	fireIndex  int
	closeCalls int
}

func (f *fakeEngine) Init() error {
	f.initCalls++
	return f.initErr
}

func (f *fakeEngine) Process(frame []int16) (int, bool) {
	f.processed++
	if f.fireAt > 0 && f.processed == f.fireAt {
		return f.fireIndex, true
	}
	return 0, false
}

func (f *fakeEngine) Close() error {
	f.closeCalls++
	return nil
}

func tone(freq float64, amplitude float64, n, sampleRate int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}
