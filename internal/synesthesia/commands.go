// SPDX-License-Identifier: MIT
package synesthesia

// Command is one discrete visual instruction for the renderer. Commands
// are transient: built from a snapshot, sent, discarded.
type Command interface {
	isCommand()
}

// Color sets the scene color in HSV. Hue is degrees [0, 360); saturation
// and value are [0, 1]. The wire protocol carries RGB; conversion happens
// at the protocol boundary.
type Color struct {
	H, S, V float64
}

// Particles sets the particle count and base size.
type Particles struct {
	Count int
	Size  float64
}

// Motion sets movement speed and direction angle in degrees.
type Motion struct {
	Speed, Angle float64
}

// Energy sets the overall energy level, [0, 1].
type Energy struct {
	Level float64
}

// Spectrum carries the per-band energy levels, [0, 1].
type Spectrum struct {
	Bass, Mid, Treble float64
}

// Onset pulses a beat with the given intensity, [0, 1]. Emitted only on
// frames where an onset was detected.
type Onset struct {
	Intensity float64
}

func (Color) isCommand()     {}
func (Particles) isCommand() {}
func (Motion) isCommand()    {}
func (Energy) isCommand()    {}
func (Spectrum) isCommand()  {}
func (Onset) isCommand()     {}
