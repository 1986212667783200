// SPDX-License-Identifier: MIT
package node

import "math"

// Sine is a phase-accumulating sinusoidal oscillator, ported from the
// original engine's Sine generator. Modulator slot 0 is frequency
// (added to the base frequency), slot 1 is amplitude (added to the base
// amplitude).
type Sine struct {
	SampleRate float64

	Frequency float64
	Amplitude float64
	Offset    float64

	phase    float64
	phaseInc float64
}

// NewSine constructs a sine kind and precomputes its phase increment.
func NewSine(sampleRate, frequency, amplitude, offset float64) *Sine {
	s := &Sine{SampleRate: sampleRate, Frequency: frequency, Amplitude: amplitude, Offset: offset}
	s.updatePhaseIncrement(frequency)
	return s
}

func (s *Sine) updatePhaseIncrement(frequency float64) {
	s.phaseInc = (2 * math.Pi * frequency) / s.SampleRate
}

// SetFrequency changes the base frequency and recomputes the increment.
func (s *Sine) SetFrequency(frequency float64) {
	s.Frequency = frequency
	s.updatePhaseIncrement(frequency)
}

func (s *Sine) ProcessSample(n *Node, input float64) float64 {
	freq := s.Frequency
	if fm := n.Modulators(); len(fm) > 0 && fm[0] != nil {
		freq += PullModulator(fm[0], 0)
		s.updatePhaseIncrement(freq)
	}

	sample := math.Sin(s.phase + s.Offset)
	oldPhase := s.phase
	s.phase += s.phaseInc

	wrapped := false
	if s.phase > 2*math.Pi {
		s.phase -= 2 * math.Pi
		wrapped = true
	} else if s.phase < -2*math.Pi {
		s.phase += 2 * math.Pi
		wrapped = true
	}

	amp := s.Amplitude
	if am := n.Modulators(); len(am) > 1 && am[1] != nil {
		amp += PullModulator(am[1], 0)
	}
	sample *= amp

	if input != 0 {
		sample += input
		sample *= 0.5
	}

	n.ReportTransition(freq, amp, oldPhase, wrapped, false, false)

	return sample
}

func (s *Sine) SaveState() any {
	return [2]float64{s.phase, s.phaseInc}
}

func (s *Sine) RestoreState(state any) {
	saved := state.([2]float64)
	s.phase, s.phaseInc = saved[0], saved[1]
}

// Reset restores the sine to phase zero with new parameters, as the
// original engine's Sine::reset does.
func (s *Sine) Reset(frequency, amplitude, offset float64) {
	s.phase = 0
	s.Frequency = frequency
	s.Amplitude = amplitude
	s.Offset = offset
	s.updatePhaseIncrement(frequency)
}
