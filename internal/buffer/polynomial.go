// SPDX-License-Identifier: MIT
package buffer

import "mayaflux/internal/node"

// PolynomialProcessMode selects how a PolynomialProcessor walks a
// buffer's samples (ported from original_source/.../Buffers/Node/
// PolynomialProcessor.hpp's ProcessMode enum).
type PolynomialProcessMode int

const (
	// SampleBySample feeds every sample through the polynomial in
	// order, carrying history across the whole buffer.
	SampleBySample PolynomialProcessMode = iota
	// Batch resets the polynomial's history before processing the
	// buffer, then behaves like SampleBySample.
	Batch
	// Windowed resets history at the start of every WindowSize-sample
	// chunk, bounding how far feedback can reach within the buffer.
	Windowed
)

// PolynomialProcessor applies a node.Polynomial's transfer function to
// every sample of whatever buffer it is attached to (ported from
// original_source Buffers/Node/PolynomialProcessor.{hpp,cpp}).
type PolynomialProcessor struct {
	Poly       *node.Polynomial
	Mode       PolynomialProcessMode
	WindowSize int
}

// NewPolynomialProcessor builds a processor driving poly in the given
// mode; windowSize is only consulted under Windowed mode.
func NewPolynomialProcessor(poly *node.Polynomial, mode PolynomialProcessMode, windowSize int) *PolynomialProcessor {
	if windowSize <= 0 {
		windowSize = 64
	}
	return &PolynomialProcessor{Poly: poly, Mode: mode, WindowSize: windowSize}
}

func (p *PolynomialProcessor) Process(b Buffer) {
	if p.Poly == nil {
		return
	}
	data := b.Data()
	if len(data) == 0 {
		return
	}

	switch p.Mode {
	case SampleBySample:
		for i := range data {
			data[i] = p.Poly.ProcessSample(nil, data[i])
		}
	case Batch:
		p.Poly.Reset()
		for i := range data {
			data[i] = p.Poly.ProcessSample(nil, data[i])
		}
	case Windowed:
		for start := 0; start < len(data); start += p.WindowSize {
			p.Poly.Reset()
			end := start + p.WindowSize
			if end > len(data) {
				end = len(data)
			}
			for i := start; i < end; i++ {
				data[i] = p.Poly.ProcessSample(nil, data[i])
			}
		}
	}
}

// OnAttach resets the polynomial's history, matching the original's
// PolynomialProcessor::on_attach.
func (p *PolynomialProcessor) OnAttach() {
	if p.Poly != nil {
		p.Poly.Reset()
	}
}
