// SPDX-License-Identifier: MIT
/*
Package audio implements the real-time capture and processing pipeline:
- Lock-free audio capture using PortAudio
- Bounded frame queue decoupling capture from analysis
- Feature extraction and rule mapping per frame
- Visual command output over OSC
- Optional WAV recording and WebSocket monitoring

Thread Safety:
- The capture callback only touches the queue and atomic counters
- All analysis and I/O happens on the processing goroutine
- Rule documents are swapped atomically and read per frame
*/
package audio

import (
	"sync"
	"time"

	"synesthesia/internal/analysis"
	"synesthesia/internal/config"
	applog "synesthesia/internal/log"
	"synesthesia/internal/rules"
	"synesthesia/internal/synesthesia"
	"synesthesia/internal/transport"
)

// Interval the processing loop waits for a frame before re-checking for
// shutdown.
const popTimeout = 100 * time.Millisecond

// CommandSender delivers visual commands to the renderer.
type CommandSender interface {
	Send(cmd synesthesia.Command) error
	Close() error
}

// Engine wires capture, analysis, mapping and output into one running
// session.
type Engine struct {
	queue     *FrameQueue
	capture   *Capture
	extractor *analysis.Extractor
	rules     *rules.Store
	sender    CommandSender
	monitor   transport.Transport // Optional, may be nil.
	recorder  *Recorder
	stats     *Stats

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewEngine builds an engine from the configuration. PortAudio must be
// initialized before calling this; the configured input device is
// resolved here.
func NewEngine(cfg *config.Config, store *rules.Store, sender CommandSender, monitor transport.Transport) (*Engine, error) {
	stats := NewStats()
	queue := NewFrameQueue(cfg.Audio.QueueDepth, cfg.Audio.FramesPerBuffer)

	capture, err := NewCapture(cfg, queue, stats)
	if err != nil {
		return nil, err
	}

	return &Engine{
		queue:     queue,
		capture:   capture,
		extractor: analysis.NewExtractor(cfg.Audio.FramesPerBuffer, cfg.Audio.SampleRate, cfg.Audio.OnsetThreshold),
		rules:     store,
		sender:    sender,
		monitor:   monitor,
		recorder:  NewRecorder(cfg.Audio.SampleRate, cfg.Audio.FramesPerBuffer),
		stats:     stats,
		stop:      make(chan struct{}),
	}, nil
}

// Start begins capture and launches the processing loop.
func (e *Engine) Start() error {
	if e.capture != nil {
		if err := e.capture.Start(); err != nil {
			return err
		}
	}

	e.wg.Add(1)
	go e.processLoop()
	return nil
}

// processLoop drains the frame queue until shutdown. The frame being
// processed always finishes; the stop signal is only checked between
// frames.
func (e *Engine) processLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.stop:
			return
		default:
		}

		frame, ok := e.queue.Pop(popTimeout)
		if !ok {
			continue
		}
		e.processFrame(frame)
		e.queue.Release(frame)
	}
}

// processFrame runs one frame through extraction, mapping and output.
func (e *Engine) processFrame(frame *Frame) {
	snap := e.extractor.Extract(frame.Samples, frame.SampleRate, frame.Timestamp)

	e.stats.CountFrame()
	if snap.Onset {
		e.stats.CountOnset()
	}

	if e.recorder != nil {
		e.recorder.Write(frame.Samples)
	}

	doc := e.rules.Current()
	for _, cmd := range synesthesia.Map(snap, doc, frame.Timestamp) {
		if err := e.sender.Send(cmd); err != nil {
			// Output failures drop the command, never the session.
			applog.Errorf("Engine: Failed to send %T: %v", cmd, err)
		}
	}

	if e.monitor != nil {
		e.monitor.Send(snap)
	}
}

// StartRecording begins writing captured audio to a WAV file.
func (e *Engine) StartRecording(filename string) error {
	return e.recorder.Start(filename)
}

// StopRecording finalizes a recording in progress.
func (e *Engine) StopRecording() error {
	return e.recorder.Stop()
}

// Stats returns the session counters.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// Close shuts the session down in order: stop capture, drain the
// processing goroutine, finalize the recording, then close the output
// channels. The first error is returned; later steps still run.
func (e *Engine) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if e.capture != nil {
		keep(e.capture.Stop())
	}

	close(e.stop)
	e.wg.Wait()

	if e.recorder != nil {
		keep(e.recorder.Stop())
	}
	keep(e.sender.Close())
	if e.monitor != nil {
		keep(e.monitor.Close())
	}

	return firstErr
}
