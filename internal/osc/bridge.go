// SPDX-License-Identifier: MIT
/*
Package osc implements the outbound visual protocol: OSC messages over UDP
to the rendering endpoint.

Address table, one message per command, fixed argument order:

	/visual/color     r, g, b       (float32, 0.0–1.0)
	/visual/particles count, size   (int32, float32)
	/visual/motion    speed, angle  (float32, float32 degrees)
	/visual/energy    level         (float32, 0.0–1.0)
	/visual/spectrum  bass,mid,treble (float32)
	/visual/onset     intensity     (float32, 0.0–1.0)
*/
package osc

import (
	"fmt"
	"math"

	goosc "github.com/hypebeast/go-osc/osc"

	"synesthesia/internal/synesthesia"
)

// OSC addresses understood by the renderer.
const (
	AddrColor     = "/visual/color"
	AddrParticles = "/visual/particles"
	AddrMotion    = "/visual/motion"
	AddrEnergy    = "/visual/energy"
	AddrSpectrum  = "/visual/spectrum"
	AddrOnset     = "/visual/onset"
)

// Bridge serializes visual commands into OSC packets and hands them to
// the UDP sender. Color commands arrive as HSV and leave as RGB.
type Bridge struct {
	sender *Sender
}

// NewBridge creates a bridge sending to targetAddress ("host:port").
func NewBridge(targetAddress string) (*Bridge, error) {
	sender, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &Bridge{sender: sender}, nil
}

// Send dispatches one visual command to the renderer.
func (b *Bridge) Send(cmd synesthesia.Command) error {
	switch c := cmd.(type) {
	case synesthesia.Color:
		return b.SendColorHSV(c.H, c.S, c.V)
	case synesthesia.Particles:
		return b.SendParticles(c.Count, c.Size)
	case synesthesia.Motion:
		return b.SendMotion(c.Speed, c.Angle)
	case synesthesia.Energy:
		return b.SendEnergy(c.Level)
	case synesthesia.Spectrum:
		return b.SendSpectrum(c.Bass, c.Mid, c.Treble)
	case synesthesia.Onset:
		return b.SendOnset(c.Intensity)
	default:
		return fmt.Errorf("unknown visual command type %T", cmd)
	}
}

// SendColorHSV converts HSV to RGB and sends a color message.
func (b *Bridge) SendColorHSV(h, s, v float64) error {
	r, g, bl := HSVToRGB(h, s, v)
	msg := goosc.NewMessage(AddrColor, float32(r), float32(g), float32(bl))
	return b.send(msg)
}

// SendParticles sends particle count and size.
func (b *Bridge) SendParticles(count int, size float64) error {
	msg := goosc.NewMessage(AddrParticles, int32(count), float32(size))
	return b.send(msg)
}

// SendMotion sends movement speed and direction angle in degrees.
func (b *Bridge) SendMotion(speed, angle float64) error {
	msg := goosc.NewMessage(AddrMotion, float32(speed), float32(angle))
	return b.send(msg)
}

// SendEnergy sends the overall energy level.
func (b *Bridge) SendEnergy(level float64) error {
	msg := goosc.NewMessage(AddrEnergy, float32(level))
	return b.send(msg)
}

// SendSpectrum sends the three band energy levels.
func (b *Bridge) SendSpectrum(bass, mid, treble float64) error {
	msg := goosc.NewMessage(AddrSpectrum, float32(bass), float32(mid), float32(treble))
	return b.send(msg)
}

// SendOnset sends a beat pulse with the given intensity.
func (b *Bridge) SendOnset(intensity float64) error {
	msg := goosc.NewMessage(AddrOnset, float32(intensity))
	return b.send(msg)
}

func (b *Bridge) send(msg *goosc.Message) error {
	data, err := msg.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal OSC message %s: %w", msg.Address, err)
	}
	return b.sender.Send(data)
}

// Close tears down the underlying transport.
func (b *Bridge) Close() error {
	return b.sender.Close()
}

// HSVToRGB converts hue (degrees, wrapped into [0, 360)), saturation and
// value ([0, 1]) to RGB components in [0, 1].
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}

	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return r + m, g + m, b + m
}
