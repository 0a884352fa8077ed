// SPDX-License-Identifier: MIT
package audio

import (
	"sync/atomic"
	"time"
)

// Stats tracks session counters. All counters are atomic so the capture
// callback, the processing loop and observers can touch them without
// coordination.
type Stats struct {
	framesProcessed atomic.Uint64
	framesDropped   atomic.Uint64
	onsets          atomic.Uint64
	streamGlitches  atomic.Uint64
	startTime       time.Time
}

// NewStats creates a stats tracker with the uptime clock started now.
func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

// CountFrame records one fully processed frame.
func (s *Stats) CountFrame() { s.framesProcessed.Add(1) }

// CountDrop records one frame dropped at the queue.
func (s *Stats) CountDrop() { s.framesDropped.Add(1) }

// CountOnset records one detected onset.
func (s *Stats) CountOnset() { s.onsets.Add(1) }

// CountGlitch records one capture stream over- or underflow.
func (s *Stats) CountGlitch() { s.streamGlitches.Add(1) }

// StatsSnapshot is a point-in-time copy of the counters, shaped for the
// monitoring feed.
type StatsSnapshot struct {
	FramesProcessed uint64  `json:"frames_processed"`
	FramesDropped   uint64  `json:"frames_dropped"`
	Onsets          uint64  `json:"onsets"`
	StreamGlitches  uint64  `json:"stream_glitches"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		FramesProcessed: s.framesProcessed.Load(),
		FramesDropped:   s.framesDropped.Load(),
		Onsets:          s.onsets.Load(),
		StreamGlitches:  s.streamGlitches.Load(),
		UptimeSeconds:   time.Since(s.startTime).Seconds(),
	}
}
