// SPDX-License-Identifier: MIT
package buffer

import (
	"mayaflux/internal/node"
	"mayaflux/internal/tokens"
)

// NodeSourceProcessor mixes a node's rendered block into a buffer at a
// fixed mix ratio, optionally clearing the buffer first (ported from
// original_source/.../Buffers/NodeSource.hpp's NodeSourceProcessor).
type NodeSourceProcessor struct {
	Source            *node.Node
	Mix                float64
	ClearBeforeProcess bool
}

// NewNodeSourceProcessor builds a processor rendering source into any
// buffer it is attached to at the given mix.
func NewNodeSourceProcessor(source *node.Node, mix float64, clearBeforeProcess bool) *NodeSourceProcessor {
	return &NodeSourceProcessor{Source: source, Mix: mix, ClearBeforeProcess: clearBeforeProcess}
}

func (p *NodeSourceProcessor) Process(b Buffer) {
	if p.Source == nil {
		return
	}
	data := b.Data()
	if p.ClearBeforeProcess {
		for i := range data {
			data[i] = 0
		}
	}
	rendered := p.Source.ProcessBlock(len(data))
	for i := 0; i < len(data) && i < len(rendered); i++ {
		data[i] += rendered[i] * p.Mix
	}
}

// NodeBuffer is a child buffer whose default processing step renders a
// single source node's block into its array (original_source NodeSource.hpp
// NodeBuffer). It has no intrinsic processing token of its own — the
// token enforcement surface on a NodeBuffer is its NodeSourceProcessor's,
// which this type does not claim, so without WithToken it passes every
// enforcement strategy. Once WithToken pins a token it is validated like
// any other child: STRICT needs an exact match, FILTERED and OVERRIDE_*
// a compatible token.
type NodeBuffer struct {
	Base

	source    *node.Node
	clear     bool
	token     tokens.BufferToken
	hasToken  bool
}

// NewNodeBuffer constructs a node-backed child buffer on channelID with
// numSamples capacity, rendering source's block each time it processes.
func NewNodeBuffer(channelID, numSamples uint32, source *node.Node, clearBeforeProcess bool) *NodeBuffer {
	return &NodeBuffer{Base: NewBase(channelID, numSamples), source: source, clear: clearBeforeProcess}
}

// WithToken pins this buffer's DefaultProcessorToken for STRICT/FILTERED
// root enforcement, overriding the default "no opinion" behavior.
func (b *NodeBuffer) WithToken(t tokens.BufferToken) *NodeBuffer {
	b.token = t
	b.hasToken = true
	return b
}

func (b *NodeBuffer) DefaultProcessorToken() (tokens.BufferToken, bool) {
	return b.token, b.hasToken
}

func (b *NodeBuffer) ProcessDefault() {
	data := b.Data()
	if b.clear {
		for i := range data {
			data[i] = 0
		}
	}
	if b.source != nil {
		rendered := b.source.ProcessBlock(len(data))
		for i := 0; i < len(data) && i < len(rendered); i++ {
			data[i] += rendered[i]
		}
	}
	runChain(b, b.Processors())
}
