// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
	"time"

	"synesthesia/pkg/utils"
)

const (
	testFrameSize  = 1024
	testSampleRate = 44100.0
)

func newTestExtractor() *Extractor {
	return NewExtractor(testFrameSize, testSampleRate, DefaultOnsetThreshold)
}

func TestExtractSilentFrame(t *testing.T) {
	e := newTestExtractor()
	silent := make([]float64, testFrameSize)

	snap := e.Extract(silent, testSampleRate, time.Now())

	if len(snap.Spectrum) != testFrameSize/2 {
		t.Errorf("spectrum length = %d, want %d", len(snap.Spectrum), testFrameSize/2)
	}
	if snap.RMS != 0 {
		t.Errorf("RMS = %f, want 0", snap.RMS)
	}
	if snap.Onset {
		t.Error("silence must not produce an onset")
	}

	// All-zero spectrum: the peak search lands on the lowest bin at or
	// above 20 Hz, which is bin 1 at 44100/1024 Hz.
	binWidth := testSampleRate / testFrameSize
	if math.Abs(snap.DominantFreq-binWidth) > 1e-9 {
		t.Errorf("dominant freq = %f, want %f", snap.DominantFreq, binWidth)
	}

	if snap.Bands.Bass != 0 || snap.Bands.Mid != 0 || snap.Bands.Treble != 0 {
		t.Errorf("band energies = %+v, want all zero", snap.Bands)
	}
}

func TestExtractSpectrumShapeAndRMSRange(t *testing.T) {
	e := newTestExtractor()

	inputs := [][]float64{
		utils.GenerateSineWave(testFrameSize, testSampleRate, 440),
		utils.GenerateComplexWave(testFrameSize, testSampleRate),
		make([]float64, testFrameSize),
	}

	for _, samples := range inputs {
		snap := e.Extract(samples, testSampleRate, time.Now())
		if len(snap.Spectrum) != len(samples)/2 {
			t.Errorf("spectrum length = %d, want %d", len(snap.Spectrum), len(samples)/2)
		}
		if snap.RMS < 0 || snap.RMS > 1 {
			t.Errorf("RMS = %f outside [0, 1] for bounded samples", snap.RMS)
		}
	}
}

func TestExtractDominantFrequency(t *testing.T) {
	tests := []struct {
		name      string
		frequency float64
	}{
		{"A4", 440},
		{"Bass tone", 100},
		{"Treble tone", 4000},
	}

	binWidth := testSampleRate / testFrameSize
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor()
			samples := utils.GenerateSineWave(testFrameSize, testSampleRate, tt.frequency)
			snap := e.Extract(samples, testSampleRate, time.Now())

			if math.Abs(snap.DominantFreq-tt.frequency) > binWidth {
				t.Errorf("dominant freq = %f, want %f ± %f", snap.DominantFreq, tt.frequency, binWidth)
			}
		})
	}
}

func TestExtractBandEnergies(t *testing.T) {
	e := newTestExtractor()

	// 100 Hz tone: bass band must dominate.
	snap := e.Extract(utils.GenerateSineWave(testFrameSize, testSampleRate, 100), testSampleRate, time.Now())
	if snap.Bands.Bass <= snap.Bands.Mid || snap.Bands.Bass <= snap.Bands.Treble {
		t.Errorf("100 Hz tone: bass %f must exceed mid %f and treble %f",
			snap.Bands.Bass, snap.Bands.Mid, snap.Bands.Treble)
	}

	// 4 kHz tone: treble band must dominate.
	snap = e.Extract(utils.GenerateSineWave(testFrameSize, testSampleRate, 4000), testSampleRate, time.Now())
	if snap.Bands.Treble <= snap.Bands.Bass || snap.Bands.Treble <= snap.Bands.Mid {
		t.Errorf("4 kHz tone: treble %f must exceed bass %f and mid %f",
			snap.Bands.Treble, snap.Bands.Bass, snap.Bands.Mid)
	}
}

func TestOnsetSequence(t *testing.T) {
	e := newTestExtractor()

	// RMS sequence [0.0, 0.0, 0.9] with threshold 0.3 → [false, false, true].
	frames := [][]float64{
		make([]float64, testFrameSize),
		make([]float64, testFrameSize),
		constantFrame(testFrameSize, 0.9),
	}
	want := []bool{false, false, true}

	for i, samples := range frames {
		snap := e.Extract(samples, testSampleRate, time.Now())
		if snap.Onset != want[i] {
			t.Errorf("frame %d: onset = %v, want %v", i, snap.Onset, want[i])
		}
	}

	// A sustained loud signal is not a new onset.
	snap := e.Extract(constantFrame(testFrameSize, 0.9), testSampleRate, time.Now())
	if snap.Onset {
		t.Error("sustained level must not retrigger an onset")
	}
}

func TestOnsetStateSurvivesFrameSizeChange(t *testing.T) {
	e := newTestExtractor()

	// Raise the baseline with an expected-length loud frame, then feed an
	// unexpected-length quiet frame followed by an unexpected-length loud
	// one. The previous-RMS scalar must carry across the size change.
	e.Extract(constantFrame(testFrameSize, 0.9), testSampleRate, time.Now())

	quiet := e.Extract(make([]float64, 512), testSampleRate, time.Now())
	if quiet.Onset {
		t.Error("quiet frame after loud baseline must not be an onset")
	}

	loud := e.Extract(constantFrame(512, 0.9), testSampleRate, time.Now())
	if !loud.Onset {
		t.Error("loud frame after quiet baseline must be an onset, regardless of frame size")
	}
}

func TestExtractUnexpectedFrameLength(t *testing.T) {
	e := newTestExtractor()

	for _, n := range []int{0, 3, 100, 512, 2048} {
		samples := make([]float64, n)
		snap := e.Extract(samples, testSampleRate, time.Now())
		if len(snap.Spectrum) != n/2 {
			t.Errorf("length %d: spectrum length = %d, want %d", n, len(snap.Spectrum), n/2)
		}
	}
}

func TestExtractDegenerateSampleRate(t *testing.T) {
	// At 64 Hz with 4 samples every bin sits below 20 Hz: no peak
	// candidates and no band members. Everything resolves to zero.
	e := NewExtractor(4, 64, DefaultOnsetThreshold)
	snap := e.Extract([]float64{0.1, -0.1, 0.1, -0.1}, 64, time.Now())

	if snap.DominantFreq != 0 {
		t.Errorf("dominant freq = %f, want 0", snap.DominantFreq)
	}
	if snap.Bands != (BandEnergy{}) {
		t.Errorf("band energies = %+v, want all zero", snap.Bands)
	}
}

func TestExtractToleratesNaN(t *testing.T) {
	e := newTestExtractor()
	samples := make([]float64, testFrameSize)
	samples[10] = math.NaN()
	samples[20] = math.Inf(1)

	// Must not panic; NaN propagates through the results.
	snap := e.Extract(samples, testSampleRate, time.Now())
	if !math.IsNaN(snap.RMS) {
		t.Errorf("RMS = %f, expected NaN to propagate", snap.RMS)
	}
}

func TestParsevalSanity(t *testing.T) {
	// The normalized magnitude of a full-scale sine concentrates near half
	// the amplitude in the peak bin (split between positive and negative
	// frequencies, scaled by the Hann window's coherent gain of 0.5).
	e := newTestExtractor()
	samples := utils.GenerateSineWave(testFrameSize, testSampleRate, 440)
	snap := e.Extract(samples, testSampleRate, time.Now())

	peak := utils.FindPeakBin(snap.Spectrum, 1, len(snap.Spectrum)-1)
	// amplitude 0.9 → 0.9/2 (spectral split) * 0.5 (window) ≈ 0.225
	if snap.Spectrum[peak] < 0.1 || snap.Spectrum[peak] > 0.3 {
		t.Errorf("peak magnitude = %f, want ≈0.225", snap.Spectrum[peak])
	}
}

func constantFrame(n int, value float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = value
	}
	return samples
}

func BenchmarkExtract(b *testing.B) {
	e := newTestExtractor()
	samples := utils.GenerateComplexWave(testFrameSize, testSampleRate)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e.Extract(samples, testSampleRate, time.Time{})
	}
}
