// SPDX-License-Identifier: MIT
package node

// Phasor is a linear 0..1 ramp, the raw building block oscillators and
// envelopes are built from. Modulator slots match Sine/Impulse:
// 0 = frequency, 1 = amplitude.
//
// Threshold crossing is simplified from the original engine's
// per-callback threshold list to one configurable threshold per node;
// callers that need several independent thresholds compose several
// Phasor-backed nodes.
type Phasor struct {
	SampleRate float64

	Frequency float64
	Amplitude float64
	Offset    float64
	Threshold float64

	phase          float64
	phaseInc       float64
	thresholdAbove bool
}

func NewPhasor(sampleRate, frequency, amplitude, offset float64) *Phasor {
	p := &Phasor{SampleRate: sampleRate, Frequency: frequency, Amplitude: amplitude, Offset: offset, Threshold: 1}
	p.updatePhaseIncrement(frequency)
	return p
}

func (p *Phasor) updatePhaseIncrement(frequency float64) {
	p.phaseInc = frequency / p.SampleRate
}

func (p *Phasor) SetFrequency(frequency float64) {
	p.Frequency = frequency
	p.updatePhaseIncrement(frequency)
}

func (p *Phasor) ProcessSample(n *Node, input float64) float64 {
	freq := p.Frequency
	if fm := n.Modulators(); len(fm) > 0 && fm[0] != nil {
		freq += PullModulator(fm[0], 0)
		p.updatePhaseIncrement(freq)
	}

	out := p.phase * p.Amplitude

	amp := p.Amplitude
	if am := n.Modulators(); len(am) > 1 && am[1] != nil {
		mod := PullModulator(am[1], 0)
		out *= mod
		amp = mod
	}
	out += p.Offset

	oldPhase := p.phase
	p.phase += p.phaseInc
	wrapped := false
	if p.phase >= 1.0 {
		p.phase -= 1.0
		wrapped = true
	}

	crossed := false
	if out >= p.Threshold && !p.thresholdAbove {
		crossed = true
		p.thresholdAbove = true
	} else if out < p.Threshold {
		p.thresholdAbove = false
	}

	n.ReportTransition(freq, amp, oldPhase, wrapped, false, crossed)

	return out
}

func (p *Phasor) SaveState() any {
	return [3]float64{p.phase, p.phaseInc, boolToFloat(p.thresholdAbove)}
}

func (p *Phasor) RestoreState(state any) {
	saved := state.([3]float64)
	p.phase, p.phaseInc, p.thresholdAbove = saved[0], saved[1], saved[2] != 0
}

func (p *Phasor) Reset(frequency, amplitude, offset, phase float64) {
	p.Frequency = frequency
	p.Amplitude = amplitude
	p.Offset = offset
	for phase >= 1.0 {
		phase -= 1.0
	}
	for phase < 0.0 {
		phase += 1.0
	}
	p.phase = phase
	p.updatePhaseIncrement(frequency)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
