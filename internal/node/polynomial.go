// SPDX-License-Identifier: MIT
package node

// PolynomialMode selects how a Polynomial kind combines the current
// input with its history, ported from the original engine's
// PolynomialProcessor (Nodes/Generators/Polynomial, Buffers/Node/
// PolynomialProcessor.cpp): DIRECT ignores history entirely, RECURSIVE
// feeds back prior outputs, FEEDFORWARD feeds back prior inputs.
type PolynomialMode int

const (
	Direct PolynomialMode = iota
	Recursive
	Feedforward
)

// DirectFunc computes a stateless transfer function of the input alone.
type DirectFunc func(x float64) float64

// HistoryFunc computes an output given a buffer whose element 0 is the
// current input and whose remaining elements are the node's history,
// newest first (prior outputs for RECURSIVE, prior inputs for
// FEEDFORWARD).
type HistoryFunc func(buffer []float64) float64

// Polynomial evaluates either a pure function of its input (DIRECT) or a
// function of its input plus a bounded window of its own history
// (RECURSIVE/FEEDFORWARD), matching the original's deque-backed
// std::function transfer functions without requiring Go generics over
// the function shape.
type Polynomial struct {
	Mode       PolynomialMode
	BufferSize int

	Direct  DirectFunc
	History HistoryFunc

	history []float64 // newest first, length capped at BufferSize-1
}

// NewDirectPolynomial builds a DIRECT-mode polynomial from a pure function.
func NewDirectPolynomial(fn DirectFunc) *Polynomial {
	return &Polynomial{Mode: Direct, Direct: fn}
}

// NewHistoryPolynomial builds a RECURSIVE or FEEDFORWARD polynomial.
// bufferSize bounds how many history entries (output or input,
// depending on mode) are retained alongside the current sample.
func NewHistoryPolynomial(mode PolynomialMode, fn HistoryFunc, bufferSize int) *Polynomial {
	return &Polynomial{Mode: mode, BufferSize: bufferSize, History: fn}
}

func (p *Polynomial) ProcessSample(n *Node, input float64) float64 {
	if p.Mode == Direct {
		return p.Direct(input)
	}

	buf := make([]float64, 0, 1+len(p.history))
	buf = append(buf, input)
	buf = append(buf, p.history...)
	result := p.History(buf)

	var feedback float64
	switch p.Mode {
	case Recursive:
		feedback = result
	case Feedforward:
		feedback = input
	}

	histCap := p.BufferSize - 1
	if histCap <= 0 {
		p.history = nil
	} else {
		p.history = append([]float64{feedback}, p.history...)
		if len(p.history) > histCap {
			p.history = p.history[:histCap]
		}
	}

	return result
}

// SetInitialConditions seeds the history buffer (newest first), mirroring
// Polynomial::set_initial_conditions.
func (p *Polynomial) SetInitialConditions(values []float64) {
	histCap := p.BufferSize - 1
	if histCap <= 0 {
		p.history = nil
		return
	}
	p.history = append([]float64(nil), values...)
	if len(p.history) > histCap {
		p.history = p.history[:histCap]
	}
}

func (p *Polynomial) SaveState() any {
	return append([]float64(nil), p.history...)
}

func (p *Polynomial) RestoreState(state any) {
	p.history = state.([]float64)
}

// Reset clears all retained history.
func (p *Polynomial) Reset() {
	p.history = nil
}
