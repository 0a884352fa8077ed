// SPDX-License-Identifier: MIT
package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping_rules.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp rules: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	doc := Default()

	bass := doc.Rules.ColorMapping.FrequencyRanges.Bass
	if bass.Hue != [2]float64{0, 30} {
		t.Errorf("bass hue = %v, want [0 30]", bass.Hue)
	}
	if bass.Saturation != 0.8 {
		t.Errorf("bass saturation = %f, want 0.8", bass.Saturation)
	}
	if doc.Rules.MotionMapping.OnsetVelocity != 0.75 {
		t.Errorf("onset velocity = %f, want 0.75", doc.Rules.MotionMapping.OnsetVelocity)
	}
	if doc.Rules.ParticleMapping.SizeRange != [2]float64{5, 50} {
		t.Errorf("size range = %v, want [5 50]", doc.Rules.ParticleMapping.SizeRange)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	doc := Load("")
	if doc.Rules.MotionMapping.OnsetVelocity != 0.75 {
		t.Error("empty path should return defaults")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	doc := Load(filepath.Join(t.TempDir(), "nope.json"))
	if doc == nil {
		t.Fatal("missing file must still yield a document")
	}
	if doc.Rules.ParticleMapping.SizeRange != [2]float64{5, 50} {
		t.Error("missing file should return defaults")
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeTempRules(t, "{not json")
	doc := Load(path)
	if doc == nil {
		t.Fatal("malformed file must still yield a document")
	}
	if doc.Rules.MotionMapping.OnsetVelocity != 0.75 {
		t.Error("malformed file should return defaults")
	}
}

func TestLoad_ValidDocument(t *testing.T) {
	path := writeTempRules(t, `{
		"version": "2.3",
		"rules": {
			"color_mapping": {
				"frequency_ranges": {
					"bass": {"hz": [20, 250], "hue": [10, 50], "saturation": 0.9},
					"mid": {"hz": [250, 2000], "hue": [90, 150], "saturation": 0.7},
					"treble": {"hz": [2000, 20000], "hue": [200, 280], "saturation": 0.6}
				}
			},
			"motion_mapping": {"onset_velocity": 1.25},
			"particle_mapping": {"size_range": [2, 80]}
		}
	}`)

	doc := Load(path)
	if doc.Version != "2.3" {
		t.Errorf("version = %q, want 2.3", doc.Version)
	}
	if doc.Rules.ColorMapping.FrequencyRanges.Bass.Hue != [2]float64{10, 50} {
		t.Errorf("bass hue = %v, want [10 50]", doc.Rules.ColorMapping.FrequencyRanges.Bass.Hue)
	}
	if doc.Rules.MotionMapping.OnsetVelocity != 1.25 {
		t.Errorf("onset velocity = %f, want 1.25", doc.Rules.MotionMapping.OnsetVelocity)
	}
	if doc.Rules.ParticleMapping.SizeRange != [2]float64{2, 80} {
		t.Errorf("size range = %v, want [2 80]", doc.Rules.ParticleMapping.SizeRange)
	}
}

func TestLoad_PartialDocumentFilled(t *testing.T) {
	// Only the bass hue is set; everything else must come from defaults.
	path := writeTempRules(t, `{
		"rules": {
			"color_mapping": {
				"frequency_ranges": {
					"bass": {"hue": [100, 120]}
				}
			}
		}
	}`)

	doc := Load(path)
	fr := doc.Rules.ColorMapping.FrequencyRanges
	if fr.Bass.Hue != [2]float64{100, 120} {
		t.Errorf("bass hue = %v, want [100 120]", fr.Bass.Hue)
	}
	if fr.Bass.Saturation != 0.8 {
		t.Errorf("bass saturation = %f, want default 0.8", fr.Bass.Saturation)
	}
	if fr.Mid.Hue != [2]float64{60, 180} {
		t.Errorf("mid hue = %v, want default [60 180]", fr.Mid.Hue)
	}
	if doc.Rules.MotionMapping.OnsetVelocity != 0.75 {
		t.Errorf("onset velocity = %f, want default 0.75", doc.Rules.MotionMapping.OnsetVelocity)
	}
	if doc.Rules.ParticleMapping.SizeRange != [2]float64{5, 50} {
		t.Errorf("size range = %v, want default [5 50]", doc.Rules.ParticleMapping.SizeRange)
	}
	if doc.Version != "1.0" {
		t.Errorf("version = %q, want default 1.0", doc.Version)
	}
}
