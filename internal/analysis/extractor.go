// SPDX-License-Identifier: MIT
/*
Package analysis extracts perceptual features from raw audio frames:
windowed spectral magnitudes, dominant frequency, RMS intensity, onset
events and banded energy.

The extractor runs on the processing thread, never on the audio callback.
Buffers for the expected frame length are allocated once; an unexpected
frame length takes a slower path that builds a window and FFT plan on the
fly, which is degraded but safe.
*/
package analysis

import (
	"math"
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Perceptual band edges in Hz.
const (
	minPeakHz    = 20.0 // DC and sub-audible content excluded from peak search
	bassLowHz    = 20.0
	bassHighHz   = 250.0
	midHighHz    = 2000.0
	trebleHighHz = 20000.0
)

// DefaultOnsetThreshold is the RMS increase that counts as an onset.
const DefaultOnsetThreshold = 0.3

// Extractor computes a feature Snapshot per frame. It keeps exactly one
// scalar of state between calls: the previous frame's RMS, used for onset
// detection. That state is shared across all frame lengths and is never
// reset when an unexpected length triggers the degraded path.
//
// Not safe for concurrent use; the processing loop is its only caller.
type Extractor struct {
	frameSize      int
	sampleRate     float64
	onsetThreshold float64

	prevRMS float64

	// Cached plan and workspace for the expected frame length.
	fft    *fourier.FFT
	window []float64
	input  []float64
	coeffs []complex128
}

// NewExtractor creates an extractor tuned for frameSize samples at
// sampleRate Hz. A non-positive onsetThreshold selects the default.
func NewExtractor(frameSize int, sampleRate, onsetThreshold float64) *Extractor {
	if onsetThreshold <= 0 {
		onsetThreshold = DefaultOnsetThreshold
	}
	return &Extractor{
		frameSize:      frameSize,
		sampleRate:     sampleRate,
		onsetThreshold: onsetThreshold,
		fft:            fourier.NewFFT(frameSize),
		window:         hannWindow(frameSize),
		input:          make([]float64, frameSize),
		coeffs:         make([]complex128, frameSize/2+1),
	}
}

// Extract computes the feature snapshot for one frame. samples is read
// only; the returned snapshot owns its spectrum slice. NaN or Inf samples
// propagate into the results untouched; nothing here panics on malformed
// numeric input.
func (e *Extractor) Extract(samples []float64, sampleRate float64, ts time.Time) Snapshot {
	if sampleRate <= 0 {
		sampleRate = e.sampleRate
	}

	rms := computeRMS(samples)
	onset := (rms - e.prevRMS) > e.onsetThreshold
	e.prevRMS = rms

	spectrum := e.magnitudes(samples)

	snap := Snapshot{
		Timestamp:    ts,
		SampleRate:   sampleRate,
		Spectrum:     spectrum,
		DominantFreq: dominantFrequency(spectrum, sampleRate, len(samples)),
		RMS:          rms,
		Onset:        onset,
		Bands:        bandEnergies(spectrum, sampleRate, len(samples)),
	}
	return snap
}

// magnitudes windows the frame, runs the DFT and returns normalized
// magnitudes of the first floor(n/2) bins.
func (e *Extractor) magnitudes(samples []float64) []float64 {
	n := len(samples)
	if n == 0 {
		return []float64{}
	}

	fftObj, win, input, coeffs := e.fft, e.window, e.input, e.coeffs
	if n != e.frameSize {
		// Degraded path: rebuild plan and window for this length only.
		// The cached workspace for the expected length stays untouched.
		fftObj = fourier.NewFFT(n)
		win = hannWindow(n)
		input = make([]float64, n)
		coeffs = make([]complex128, n/2+1)
	}

	for i := range input {
		input[i] = samples[i] * win[i]
	}
	fftObj.Coefficients(coeffs, input)

	// Positive frequencies only, normalized by the frame length.
	spectrum := make([]float64, n/2)
	norm := 1.0 / float64(n)
	for i := range spectrum {
		spectrum[i] = cmplx.Abs(coeffs[i]) * norm
	}
	return spectrum
}

// computeRMS returns the root-mean-square of the raw (unwindowed) samples.
// An empty frame yields 0, not an error.
func computeRMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquare float64
	for _, s := range samples {
		sumSquare += s * s
	}
	return math.Sqrt(sumSquare / float64(len(samples)))
}

// dominantFrequency returns the frequency (Hz) of the largest-magnitude
// bin at or above minPeakHz. Bins below that stay in the spectrum but are
// excluded from the peak search. No eligible bins yields 0.
func dominantFrequency(spectrum []float64, sampleRate float64, frameLen int) float64 {
	if len(spectrum) == 0 || frameLen == 0 {
		return 0
	}
	binWidth := sampleRate / float64(frameLen)

	minIdx := len(spectrum)
	for i := range spectrum {
		if float64(i)*binWidth >= minPeakHz {
			minIdx = i
			break
		}
	}
	if minIdx >= len(spectrum) {
		return 0
	}

	peakIdx := minIdx
	for i := minIdx + 1; i < len(spectrum); i++ {
		if spectrum[i] > spectrum[peakIdx] {
			peakIdx = i
		}
	}
	return float64(peakIdx) * binWidth
}

// bandEnergies averages magnitudes per band. A band with no bins in range
// (degenerate sample rates or tiny frames) yields 0.
func bandEnergies(spectrum []float64, sampleRate float64, frameLen int) BandEnergy {
	if len(spectrum) == 0 || frameLen == 0 {
		return BandEnergy{}
	}
	binWidth := sampleRate / float64(frameLen)

	var sums [3]float64
	var counts [3]int
	for i, mag := range spectrum {
		freq := float64(i) * binWidth
		switch {
		case freq >= bassLowHz && freq < bassHighHz:
			sums[0] += mag
			counts[0]++
		case freq >= bassHighHz && freq < midHighHz:
			sums[1] += mag
			counts[1]++
		case freq >= midHighHz && freq < trebleHighHz:
			sums[2] += mag
			counts[2]++
		}
	}

	mean := func(i int) float64 {
		if counts[i] == 0 {
			return 0
		}
		return sums[i] / float64(counts[i])
	}
	return BandEnergy{Bass: mean(0), Mid: mean(1), Treble: mean(2)}
}

// hannWindow returns symmetric Hann coefficients for length n.
func hannWindow(n int) []float64 {
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	return window.Hann(coeffs)
}
