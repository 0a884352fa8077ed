// SPDX-License-Identifier: MIT
package audio

import "time"

// Frame is one captured buffer of mono samples plus the metadata the
// analysis side needs. Frames are pooled; callers must Release frames
// obtained from Pop once they are done with them.
type Frame struct {
	Samples    []float64
	SampleRate float64
	Timestamp  time.Time
}

// FrameQueue is a bounded handoff between the capture callback and the
// processing loop. When the queue is full the incoming frame is dropped
// so capture never blocks.
//
// Performance Critical:
// - Push and Acquire run inside the audio callback
// - Frames are recycled through a pool channel, no allocations in
//   steady state
type FrameQueue struct {
	frames chan *Frame
	pool   chan *Frame
}

// NewFrameQueue creates a queue holding up to capacity frames, each
// pre-sized for frameSize samples. One extra frame circulates so the
// callback can fill a frame while the queue is full.
func NewFrameQueue(capacity, frameSize int) *FrameQueue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &FrameQueue{
		frames: make(chan *Frame, capacity),
		pool:   make(chan *Frame, capacity+1),
	}
	for range capacity + 1 {
		q.pool <- &Frame{Samples: make([]float64, frameSize)}
	}
	return q
}

// Acquire takes a free frame from the pool without blocking. It returns
// nil when every frame is in flight, which means the consumer has
// stalled completely.
func (q *FrameQueue) Acquire() *Frame {
	select {
	case f := <-q.pool:
		return f
	default:
		return nil
	}
}

// Push enqueues a filled frame without blocking. If the queue is full
// the frame goes straight back to the pool and Push reports false.
func (q *FrameQueue) Push(f *Frame) bool {
	select {
	case q.frames <- f:
		return true
	default:
		q.Release(f)
		return false
	}
}

// Pop dequeues the oldest frame, waiting up to timeout. It returns
// (nil, false) when the wait expires with nothing available.
func (q *FrameQueue) Pop(timeout time.Duration) (*Frame, bool) {
	select {
	case f := <-q.frames:
		return f, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-q.frames:
		return f, true
	case <-timer.C:
		return nil, false
	}
}

// Release returns a frame to the pool for reuse.
func (q *FrameQueue) Release(f *Frame) {
	if f == nil {
		return
	}
	select {
	case q.pool <- f:
	default:
		// Pool full, drop the frame. Happens only if a frame was
		// released twice.
	}
}

// Len reports the number of frames waiting to be processed.
func (q *FrameQueue) Len() int {
	return len(q.frames)
}
