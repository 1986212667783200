// SPDX-License-Identifier: MIT
package node

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// DistributionAlgorithm selects the statistical distribution a Random
// kind samples from, ported from the original engine's NoiseEngine
// distribution selector (Nodes/Generators/Stochastic.hpp).
type DistributionAlgorithm int

const (
	Uniform DistributionAlgorithm = iota
	Gaussian
)

// Random is a stochastic generator sampling from a configurable range
// and distribution. Gaussian sampling uses gonum's stat/distuv rather
// than hand-rolling a Box-Muller transform, since the gonum module is
// already a dependency through the dsp/fourier package used for spectral
// analysis.
type Random struct {
	Algorithm DistributionAlgorithm
	Amplitude float64
	Start     float64
	End       float64
	// NormalSpread scales the standard deviation used for Gaussian
	// sampling, relative to the [Start, End] range's half-width.
	NormalSpread float64

	src rand.Source
}

// NewRandom constructs a Random kind. A nil src gives the kind its own
// source seeded with the fixed value 1, so every such instance produces
// the same sequence; supply a src to choose the seed.
func NewRandom(algo DistributionAlgorithm, start, end, amplitude float64, src rand.Source) *Random {
	if src == nil {
		src = rand.NewSource(1)
	}
	return &Random{Algorithm: algo, Amplitude: amplitude, Start: start, End: end, NormalSpread: 1, src: src}
}

func (r *Random) sample() float64 {
	switch r.Algorithm {
	case Gaussian:
		mid := (r.Start + r.End) / 2
		spread := (r.End - r.Start) / 2 * r.NormalSpread
		if spread <= 0 {
			spread = 1
		}
		d := distuv.Normal{Mu: mid, Sigma: spread, Src: r.src}
		return d.Rand()
	default:
		d := distuv.Uniform{Min: r.Start, Max: r.End, Src: r.src}
		return d.Rand()
	}
}

func (r *Random) ProcessSample(n *Node, input float64) float64 {
	out := input + r.sample()*r.Amplitude
	n.ReportTransition(0, r.Amplitude, 0, false, false, false)
	return out
}

// SetRange updates the sampling bounds.
func (r *Random) SetRange(start, end float64) {
	r.Start = start
	r.End = end
}

// Random carries no mutable state beyond its configuration and PRNG
// source, both of which are safe to leave untouched across a snapshot
// (resampling during a snapshot window is the intended behavior, not a
// side effect to undo).
func (r *Random) SaveState() any        { return nil }
func (r *Random) RestoreState(_ any) {}
