// SPDX-License-Identifier: MIT

// Package buffer implements the hierarchical sample-buffer pipeline: root
// buffers per output channel aggregate their child buffers' data and run
// it through a soft-knee limiter, ported from the original engine's
// Buffers::AudioBuffer / RootBuffer / RootAudioBuffer hierarchy
// (original_source/.../Buffers/{AudioBuffer,Root/RootBuffer,
// RootAudioBuffer}.{hpp,cpp}).
package buffer

import "mayaflux/internal/tokens"

// Processor transforms a Buffer's data in place. It stands in for the
// original's BufferProcessor base class; attach/detach hooks are folded
// into AddProcessor/RemoveProcessor on the owning buffer rather than
// exposed as separate lifecycle methods, since Go processors close over
// whatever per-attachment state they need.
type Processor interface {
	Process(b Buffer)
}

// ProcessorFunc adapts a plain function to Processor, mirroring the
// original's attach_quick_process (a std::function wrapped as a
// processor without a dedicated type).
type ProcessorFunc func(b Buffer)

func (f ProcessorFunc) Process(b Buffer) { f(b) }

// Buffer is the common surface every sample buffer implements: a named
// channel, a resizable sample array, a default processor (the buffer's
// own rendering/aggregation step), and an ordered processor chain run
// after it (spec §3.3/§4.3, original_source AudioBuffer.hpp).
type Buffer interface {
	ChannelID() uint32
	NumSamples() uint32
	Resize(numSamples uint32)
	Clear()

	Data() []float64
	Sample(i uint32) float64
	SetSample(i uint32, v float64)

	// ProcessDefault runs the buffer's own rendering step (aggregation
	// for a root, polynomial application for a PolynomialBuffer, mixing
	// for a FeedbackBuffer, and so on), then every processor in its
	// chain, in attachment order.
	ProcessDefault()

	DefaultProcessorToken() (tokens.BufferToken, bool)

	AddProcessor(p Processor)
	RemoveProcessor(p Processor)
	Processors() []Processor
}

// Base implements the bookkeeping every concrete buffer shares: sample
// storage, channel id, and an attached processor chain. Concrete buffers
// embed Base and supply their own ProcessDefault (and DefaultProcessorToken
// when they have an intrinsic rendering step with a fixed token).
type Base struct {
	channelID uint32
	data      []float64
	chain     []Processor
}

// NewBase allocates a Base with numSamples zeroed samples on channelID.
func NewBase(channelID, numSamples uint32) Base {
	return Base{channelID: channelID, data: make([]float64, numSamples)}
}

func (b *Base) ChannelID() uint32    { return b.channelID }
func (b *Base) NumSamples() uint32   { return uint32(len(b.data)) }
func (b *Base) Data() []float64      { return b.data }

func (b *Base) Resize(numSamples uint32) {
	if uint32(len(b.data)) == numSamples {
		return
	}
	resized := make([]float64, numSamples)
	copy(resized, b.data)
	b.data = resized
}

func (b *Base) Clear() {
	for i := range b.data {
		b.data[i] = 0
	}
}

func (b *Base) Sample(i uint32) float64 { return b.data[i] }

func (b *Base) SetSample(i uint32, v float64) { b.data[i] = v }

func (b *Base) AddProcessor(p Processor) { b.chain = append(b.chain, p) }

func (b *Base) RemoveProcessor(p Processor) {
	for i, existing := range b.chain {
		if existing == p {
			b.chain = append(b.chain[:i], b.chain[i+1:]...)
			return
		}
	}
}

func (b *Base) Processors() []Processor { return b.chain }

// runChain executes every attached processor over owner in order, the
// step every concrete ProcessDefault performs after its own rendering.
func runChain(owner Buffer, chain []Processor) {
	for _, p := range chain {
		p.Process(owner)
	}
}

// SoftKneeLimit applies the engine's soft-knee limiter in place: samples
// at or below the 0.9 knee pass through unchanged; a sample above it is
// scaled by a factor that falls linearly from 1 at the knee to 0 at the
// 1.0 ceiling (and is 0 beyond it), so a limited sample never exceeds the
// knee; the result is then clamped to [-1, 1] (spec §4.3,
// original_source RootAudioBuffer.cpp's ChannelProcessor::process).
func SoftKneeLimit(data []float64) {
	const ceiling = 1.0
	const softKnee = 0.9
	for i, s := range data {
		abs := s
		if abs < 0 {
			abs = -abs
		}
		if abs > softKnee {
			excess := abs - softKnee
			compression := 1.0 - excess/(ceiling-softKnee)
			if compression < 0 {
				compression = 0
			}
			s *= compression
		}
		if s > ceiling {
			s = ceiling
		} else if s < -ceiling {
			s = -ceiling
		}
		data[i] = s
	}
}
