// SPDX-License-Identifier: MIT
/*
Package rules holds the mapping-rules document that drives the synesthesia
mapper: per-band hue ranges, particle sizing and motion constants. The
document is an external JSON contract shared with the renderer tooling and
the rule-update agent, so its schema is fixed here and loaded leniently:
a missing or malformed file falls back to the built-in defaults rather than
failing the session.
*/
package rules

import (
	"encoding/json"
	"fmt"
	"os"

	applog "synesthesia/internal/log"
)

// Band describes one frequency band of the color mapping: the Hz range it
// covers, the hue range to pick from and the saturation to render with.
type Band struct {
	Hz         [2]float64 `json:"hz"`
	Hue        [2]float64 `json:"hue"`
	Saturation float64    `json:"saturation"`
}

// FrequencyRanges groups the three color-mapping bands.
type FrequencyRanges struct {
	Bass   Band `json:"bass"`
	Mid    Band `json:"mid"`
	Treble Band `json:"treble"`
}

// ColorMapping maps dominant frequency to color.
type ColorMapping struct {
	FrequencyRanges FrequencyRanges `json:"frequency_ranges"`
}

// MotionMapping holds constants for onset-driven movement.
type MotionMapping struct {
	OnsetVelocity float64 `json:"onset_velocity"`
}

// ParticleMapping holds the particle size range.
type ParticleMapping struct {
	SizeRange [2]float64 `json:"size_range"`
}

// RuleSet groups the three mapping sections.
type RuleSet struct {
	ColorMapping    ColorMapping    `json:"color_mapping"`
	MotionMapping   MotionMapping   `json:"motion_mapping"`
	ParticleMapping ParticleMapping `json:"particle_mapping"`
}

// Document is one complete, immutable mapping-rules document. Replace the
// whole document to change any field; never mutate a Document that has been
// handed to the store.
type Document struct {
	Version string  `json:"version"`
	Rules   RuleSet `json:"rules"`
}

// Default returns the built-in mapping rules: bass maps to warm hues,
// mid to yellow-cyan, treble to blue-purple.
func Default() *Document {
	return &Document{
		Version: "1.0",
		Rules: RuleSet{
			ColorMapping: ColorMapping{
				FrequencyRanges: FrequencyRanges{
					Bass:   Band{Hz: [2]float64{20, 250}, Hue: [2]float64{0, 30}, Saturation: 0.8},
					Mid:    Band{Hz: [2]float64{250, 2000}, Hue: [2]float64{60, 180}, Saturation: 0.8},
					Treble: Band{Hz: [2]float64{2000, 20000}, Hue: [2]float64{240, 300}, Saturation: 0.8},
				},
			},
			MotionMapping:   MotionMapping{OnsetVelocity: 0.75},
			ParticleMapping: ParticleMapping{SizeRange: [2]float64{5, 50}},
		},
	}
}

// Load reads a mapping-rules document from path. Any failure (missing
// file, unreadable file, malformed JSON) is logged and answered with the
// defaults; a rules problem must never take the session down. An empty path
// skips the read entirely.
func Load(path string) *Document {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		applog.Warnf("Rules: cannot read %s, using defaults: %v", path, err)
		return Default()
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		applog.Warnf("Rules: cannot parse %s, using defaults: %v", path, err)
		return Default()
	}

	doc.fillDefaults()
	applog.Infof("Rules: loaded %s (version %s)", path, doc.Version)
	return doc
}

// fillDefaults substitutes built-in values for fields the document left
// out, so mapping code never probes for missing keys at call time.
func (d *Document) fillDefaults() {
	def := Default()
	fr := &d.Rules.ColorMapping.FrequencyRanges
	fillBand(&fr.Bass, def.Rules.ColorMapping.FrequencyRanges.Bass)
	fillBand(&fr.Mid, def.Rules.ColorMapping.FrequencyRanges.Mid)
	fillBand(&fr.Treble, def.Rules.ColorMapping.FrequencyRanges.Treble)

	if d.Rules.MotionMapping.OnsetVelocity <= 0 {
		d.Rules.MotionMapping.OnsetVelocity = def.Rules.MotionMapping.OnsetVelocity
	}
	if d.Rules.ParticleMapping.SizeRange == [2]float64{} {
		d.Rules.ParticleMapping.SizeRange = def.Rules.ParticleMapping.SizeRange
	}
	if d.Version == "" {
		d.Version = def.Version
	}
}

func fillBand(b *Band, def Band) {
	if b.Hz == [2]float64{} {
		b.Hz = def.Hz
	}
	if b.Hue == [2]float64{} {
		b.Hue = def.Hue
	}
	if b.Saturation <= 0 {
		b.Saturation = def.Saturation
	}
}

// String identifies a document in logs.
func (d *Document) String() string {
	return fmt.Sprintf("rules v%s", d.Version)
}
