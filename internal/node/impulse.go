// SPDX-License-Identifier: MIT
package node

// Impulse generates a single spike of Amplitude at the start of every
// cycle and zero elsewhere, ported from the original engine's Impulse
// generator. Modulator slot 0 is frequency (added to base, floored at a
// small positive value to avoid a stalled or reversing phase), slot 1 is
// amplitude (multiplied against the base amplitude).
type Impulse struct {
	SampleRate float64

	Frequency float64
	Amplitude float64
	Offset    float64

	phase    float64
	phaseInc float64
}

func NewImpulse(sampleRate, frequency, amplitude, offset float64) *Impulse {
	im := &Impulse{SampleRate: sampleRate, Frequency: frequency, Amplitude: amplitude, Offset: offset}
	im.updatePhaseIncrement(frequency)
	return im
}

func (im *Impulse) updatePhaseIncrement(frequency float64) {
	im.phaseInc = frequency / im.SampleRate
}

func (im *Impulse) SetFrequency(frequency float64) {
	im.Frequency = frequency
	im.updatePhaseIncrement(frequency)
}

func (im *Impulse) ProcessSample(n *Node, input float64) float64 {
	freq := im.Frequency
	if fm := n.Modulators(); len(fm) > 0 && fm[0] != nil {
		freq += PullModulator(fm[0], input)
		if freq <= 0 {
			freq = 0.001
		}
		im.updatePhaseIncrement(freq)
	}

	occurred := false
	var out float64
	if im.phase < im.phaseInc {
		out = im.Amplitude
		occurred = true
	}

	amp := im.Amplitude
	if am := n.Modulators(); len(am) > 1 && am[1] != nil {
		mod := PullModulator(am[1], input)
		out *= mod
		amp = mod
	}
	out += im.Offset

	oldPhase := im.phase
	im.phase += im.phaseInc
	if im.phase >= 1.0 {
		im.phase -= 1.0
	}

	n.ReportTransition(freq, amp, oldPhase, false, occurred, false)

	return out
}

func (im *Impulse) SaveState() any {
	return [2]float64{im.phase, im.phaseInc}
}

func (im *Impulse) RestoreState(state any) {
	saved := state.([2]float64)
	im.phase, im.phaseInc = saved[0], saved[1]
}

func (im *Impulse) Reset(frequency, amplitude, offset float64) {
	im.phase = 0
	im.Amplitude = amplitude
	im.Offset = offset
	im.SetFrequency(frequency)
}
