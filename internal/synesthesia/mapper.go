// SPDX-License-Identifier: MIT
/*
Package synesthesia turns feature snapshots into visual commands. The three
mapping functions are pure: identical inputs always produce identical
outputs (motion additionally takes the clock as an explicit argument, so it
stays testable). Rule lookups read an immutable document; choosing which
document to use is the caller's job, one document per snapshot.
*/
package synesthesia

import (
	"math"
	"time"

	"synesthesia/internal/analysis"
	"synesthesia/internal/rules"
)

// MinMotionSpeed is the idle drift speed used between onsets.
const MinMotionSpeed = 0.1

// angleDegreesPerSecond makes repeated onsets sweep a rotating direction.
const angleDegreesPerSecond = 30.0

// FrequencyToColor maps the dominant frequency and intensity to HSV.
// The band whose Hz range contains the frequency supplies hue (midpoint of
// its configured range) and saturation; brightness scales with intensity,
// clamped at full.
func FrequencyToColor(dominantFreq, intensity float64, doc *rules.Document) (h, s, v float64) {
	fr := doc.Rules.ColorMapping.FrequencyRanges

	band := fr.Treble
	switch {
	case dominantFreq < fr.Bass.Hz[1]:
		band = fr.Bass
	case dominantFreq < fr.Mid.Hz[1]:
		band = fr.Mid
	}

	h = (band.Hue[0] + band.Hue[1]) / 2
	s = band.Saturation
	v = math.Min(intensity*2, 1.0)
	return h, s, v
}

// RMSToParticles maps intensity to particle count and size. The quadratic
// count term concentrates particle growth at higher intensities; size is a
// linear lerp across the configured range.
func RMSToParticles(rms float64, doc *rules.Document) (count int, size float64) {
	sizeRange := doc.Rules.ParticleMapping.SizeRange

	count = int(10 + rms*rms*100)
	size = sizeRange[0] + rms*(sizeRange[1]-sizeRange[0])
	return count, size
}

// OnsetToMotion maps an onset to a burst of movement. The angle cycles
// with wall-clock time so consecutive onsets fire in rotating directions;
// without an onset the scene drifts at MinMotionSpeed.
func OnsetToMotion(onset bool, rms float64, now time.Time, doc *rules.Document) (speed, angle float64) {
	if !onset {
		return MinMotionSpeed, 0
	}

	speed = doc.Rules.MotionMapping.OnsetVelocity * (1 + rms)
	seconds := float64(now.UnixNano()) / float64(time.Second)
	angle = math.Mod(seconds*angleDegreesPerSecond, 360)
	return speed, angle
}

// Map composes the mapping functions over one snapshot. Every snapshot
// yields exactly one Color, Particles, Motion, Energy and Spectrum
// command; an Onset command is appended only when the snapshot carries an
// onset.
func Map(snap analysis.Snapshot, doc *rules.Document, now time.Time) []Command {
	h, s, v := FrequencyToColor(snap.DominantFreq, snap.RMS, doc)
	count, size := RMSToParticles(snap.RMS, doc)
	speed, angle := OnsetToMotion(snap.Onset, snap.RMS, now, doc)

	cmds := make([]Command, 0, 6)
	cmds = append(cmds,
		Color{H: h, S: s, V: v},
		Particles{Count: count, Size: size},
		Motion{Speed: speed, Angle: angle},
		Energy{Level: snap.RMS},
		Spectrum{
			Bass:   clamp01(snap.Bands.Bass),
			Mid:    clamp01(snap.Bands.Mid),
			Treble: clamp01(snap.Bands.Treble),
		},
	)
	if snap.Onset {
		cmds = append(cmds, Onset{Intensity: clamp01(snap.RMS)})
	}
	return cmds
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
