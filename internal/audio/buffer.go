package audio

import (
	"sync"
)

// SampleBuffer is a circular buffer of 16-bit samples between the capture
// callback and the listener loop. Writes never block: when the buffer is
// full the oldest samples are overwritten. Reads block until enough samples
// are available or the buffer is closed.
type SampleBuffer struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buffer   []int16
	size     int
	writePos int
	readPos  int
	count    int
	dropped  uint64
	closed   bool
}

// NewSampleBuffer creates a new sample buffer holding up to size samples
func NewSampleBuffer(size int) *SampleBuffer {
	if size <= 0 {
		size = 1
	}
	sb := &SampleBuffer{
		buffer: make([]int16, size),
		size:   size,
	}
	sb.cond = sync.NewCond(&sb.mu)
	return sb
}

// Write appends samples, overwriting the oldest unread samples on overflow
func (sb *SampleBuffer) Write(samples []int16) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.closed {
		return
	}

	for _, s := range samples {
		sb.buffer[sb.writePos] = s
		sb.writePos = (sb.writePos + 1) % sb.size
		if sb.count == sb.size {
			sb.readPos = (sb.readPos + 1) % sb.size
			sb.dropped++
		} else {
			sb.count++
		}
	}

	sb.cond.Broadcast()
}

// WriteBytes appends little-endian 16-bit PCM
func (sb *SampleBuffer) WriteBytes(data []byte) {
	sb.Write(BytesToInt16(data))
}

// ReadFull blocks until len(dst) samples are copied into dst.
// Returns ErrCaptureStopped if the buffer is closed first.
func (sb *SampleBuffer) ReadFull(dst []int16) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	for sb.count < len(dst) && !sb.closed {
		sb.cond.Wait()
	}
	if sb.closed {
		return ErrCaptureStopped
	}

	for i := range dst {
		dst[i] = sb.buffer[sb.readPos]
		sb.readPos = (sb.readPos + 1) % sb.size
	}
	sb.count -= len(dst)

	return nil
}

// Available returns the number of unread samples
func (sb *SampleBuffer) Available() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.count
}

// Dropped returns how many samples were overwritten before being read
func (sb *SampleBuffer) Dropped() uint64 {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.dropped
}

// Reset discards unread samples
func (sb *SampleBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.readPos = 0
	sb.writePos = 0
	sb.count = 0
}

// Close wakes all pending readers; subsequent reads fail
func (sb *SampleBuffer) Close() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.closed = true
	sb.cond.Broadcast()
}
