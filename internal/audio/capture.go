// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"runtime"
	"time"

	"github.com/gordonklaus/portaudio"

	"synesthesia/internal/config"
	applog "synesthesia/internal/log"
)

// Capture owns the PortAudio input stream and feeds captured frames
// into a FrameQueue. It does no analysis itself; the callback copies
// samples out and returns as fast as possible.
type Capture struct {
	sampleRate      float64
	framesPerBuffer int

	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	queue *FrameQueue
	stats *Stats
}

// NewCapture resolves the configured input device and prepares a capture
// bound to the given queue. PortAudio must be initialized first.
func NewCapture(cfg *config.Config, queue *FrameQueue, stats *Stats) (*Capture, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	c := &Capture{
		sampleRate:      cfg.Audio.SampleRate,
		framesPerBuffer: cfg.Audio.FramesPerBuffer,
		inputDevice:     inputDevice,
		queue:           queue,
		stats:           stats,
	}

	if cfg.Audio.LowLatency {
		c.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		c.inputLatency = inputDevice.DefaultHighInputLatency
	}

	applog.Infof("Capture: Using input device %q (latency %s)", inputDevice.Name, c.inputLatency)
	return c, nil
}

// Start opens and starts the input stream.
func (c *Capture) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 1,
			Device:   c.inputDevice,
			Latency:  c.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: c.framesPerBuffer,
		SampleRate:      c.sampleRate,
	}

	stream, err := portaudio.OpenStream(params, c.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	c.inputStream = stream

	if err := c.inputStream.Start(); err != nil {
		c.inputStream.Close()
		c.inputStream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	return nil
}

// Stop stops and closes the input stream. Safe to call when not started.
func (c *Capture) Stop() error {
	if c.inputStream == nil {
		return nil
	}

	if err := c.inputStream.Stop(); err != nil {
		return err
	}
	if err := c.inputStream.Close(); err != nil {
		return err
	}
	c.inputStream = nil

	return nil
}

// processInputStream is the audio capture callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pooled frames only, no dynamic allocations
// - Never blocks; a full queue drops the frame
func (c *Capture) processInputStream(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if flags&(portaudio.InputOverflow|portaudio.InputUnderflow) != 0 {
		c.stats.CountGlitch()
	}

	frame := c.queue.Acquire()
	if frame == nil {
		// Every pooled frame is in flight; the consumer has stalled.
		c.stats.CountDrop()
		return
	}

	if cap(frame.Samples) < len(in) {
		frame.Samples = make([]float64, len(in))
	}
	frame.Samples = frame.Samples[:len(in)]
	for i, s := range in {
		frame.Samples[i] = float64(s)
	}
	frame.SampleRate = c.sampleRate
	frame.Timestamp = time.Now()

	if !c.queue.Push(frame) {
		c.stats.CountDrop()
	}
}
