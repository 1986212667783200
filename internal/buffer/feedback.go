// SPDX-License-Identifier: MIT
package buffer

import "mayaflux/internal/tokens"

// FeedbackBuffer mixes its own previous block back into the current one
// at a configurable amount, giving nodes attached downstream a simple
// delay-line/comb-filter building block (ported from original_source
// Buffers/Feedback.{hpp,cpp}'s FeedbackBuffer/FeedbackProcessor pair;
// the two are folded into one type here since the original's processor
// only ever owned a buffer-shaped previous-sample cache — carrying a
// second type bought no flexibility this repo's call sites use).
type FeedbackBuffer struct {
	Base

	Feedback float64
	previous []float64
}

// NewFeedbackBuffer constructs a feedback buffer on channelID with
// numSamples capacity and the given feedback amount in [0, 1].
func NewFeedbackBuffer(channelID, numSamples uint32, feedback float64) *FeedbackBuffer {
	return &FeedbackBuffer{
		Base:     NewBase(channelID, numSamples),
		Feedback: feedback,
		previous: make([]float64, numSamples),
	}
}

func (b *FeedbackBuffer) DefaultProcessorToken() (tokens.BufferToken, bool) { return 0, false }

// ProcessDefault adds feedback*previous[i] into data[i], then stores the
// (now-mixed) data as next block's previous, matching the original's
// FeedbackProcessor::process exactly (it feeds forward the post-mix
// data, not the pre-mix input).
func (b *FeedbackBuffer) ProcessDefault() {
	data := b.Data()
	if len(b.previous) != len(data) {
		resized := make([]float64, len(data))
		copy(resized, b.previous)
		b.previous = resized
	}
	for i := range data {
		data[i] += b.Feedback * b.previous[i]
	}
	copy(b.previous, data)

	runChain(b, b.Processors())
}

func (b *FeedbackBuffer) Resize(numSamples uint32) {
	b.Base.Resize(numSamples)
	resized := make([]float64, numSamples)
	copy(resized, b.previous)
	b.previous = resized
}
