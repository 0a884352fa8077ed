// SPDX-License-Identifier: MIT
package analysis

import "time"

// BandEnergy holds the average spectral magnitude in each perceptual band.
type BandEnergy struct {
	Bass   float64 `json:"bass"`
	Mid    float64 `json:"mid"`
	Treble float64 `json:"treble"`
}

// Snapshot is the feature set extracted from one audio frame. It is
// produced exactly once per consumed frame and read-only afterwards.
//
// Spectrum holds normalized magnitudes for the positive-frequency half of
// the DFT: length floor(frameLength/2), index 0 = DC.
type Snapshot struct {
	Timestamp    time.Time  `json:"timestamp"`
	SampleRate   float64    `json:"sample_rate"`
	Spectrum     []float64  `json:"spectrum"`
	DominantFreq float64    `json:"dominant_freq"`
	RMS          float64    `json:"rms"`
	Onset        bool       `json:"onset"`
	Bands        BandEnergy `json:"bands"`
}
