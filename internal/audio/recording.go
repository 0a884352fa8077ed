// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "synesthesia/internal/log"
)

// Recorder writes the captured mono stream to a 32-bit WAV file. Writes
// happen on the processing goroutine, after analysis, so the capture
// callback never touches the filesystem.
type Recorder struct {
	sampleRate int
	frameSize  int

	isRecording int32 // Atomic flag for thread-safe state
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *goaudio.IntBuffer // Reusable buffer for format conversion
}

// NewRecorder creates a recorder for the given stream format.
func NewRecorder(sampleRate float64, frameSize int) *Recorder {
	return &Recorder{
		sampleRate: int(sampleRate),
		frameSize:  frameSize,
	}
}

// IsRecording reports whether a recording is in progress.
func (r *Recorder) IsRecording() bool {
	return atomic.LoadInt32(&r.isRecording) == 1
}

// Start opens the output file and begins recording.
func (r *Recorder) Start(filename string) error {
	if atomic.LoadInt32(&r.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	r.outputFile = file

	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, 32, 1, 1)
	r.sampleBuf = &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  r.sampleRate,
		},
		Data: make([]int, r.frameSize),
	}

	atomic.StoreInt32(&r.isRecording, 1)
	applog.Infof("Recorder: Recording to %s", filename)

	return nil
}

// Write appends one frame of samples to the recording. Samples are
// expected in [-1, 1] and are scaled to full int32 range. A no-op when
// not recording.
func (r *Recorder) Write(samples []float64) {
	if atomic.LoadInt32(&r.isRecording) != 1 || r.wavEncoder == nil {
		return
	}

	if cap(r.sampleBuf.Data) < len(samples) {
		r.sampleBuf.Data = make([]int, len(samples))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(samples)]
	for i, s := range samples {
		r.sampleBuf.Data[i] = int(s * math.MaxInt32)
	}

	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		applog.Errorf("Recorder: Error writing to WAV file: %v", err)
	}
}

// Stop finalizes the WAV header and closes the file. A no-op when not
// recording.
func (r *Recorder) Stop() error {
	if atomic.LoadInt32(&r.isRecording) == 0 {
		return nil
	}

	atomic.StoreInt32(&r.isRecording, 0)

	if r.wavEncoder != nil {
		if err := r.wavEncoder.Close(); err != nil {
			return err
		}
		r.wavEncoder = nil
	}

	if r.outputFile != nil {
		if err := r.outputFile.Close(); err != nil {
			return err
		}
		r.outputFile = nil
	}

	return nil
}
