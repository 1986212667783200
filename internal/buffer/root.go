// SPDX-License-Identifier: MIT
package buffer

import (
	"fmt"
	"sync"

	"mayaflux/internal/log"
	"mayaflux/internal/tokens"
)

// RootBuffer is the per-output-channel aggregation point: it holds the
// channel's most recent node-graph output, a list of child buffers that
// each run their own processing before being mixed in, and applies the
// soft-knee limiter to the result (spec §3.3/§4.3, original_source
// Buffers/Root/RootBuffer.hpp + RootAudioBuffer.{hpp,cpp}).
type RootBuffer struct {
	Base

	mu       sync.Mutex
	children []Buffer

	nodeOutput    []float64
	hasNodeOutput bool

	// sources are the node-source mixers registered via Manager's
	// connect_node_to_channel. They render directly into the root's
	// array as part of "writing the channel's node output" (spec §4.3
	// step 2), ahead of the children loop and the limiter — so a
	// connected node is clipped by the same limiter a child buffer is,
	// not mixed in after it.
	sources []*NodeSourceProcessor

	preferredToken    tokens.BufferToken
	enforcementPolicy tokens.EnforcementStrategy
}

// NewRootBuffer constructs a root buffer for channelID with numSamples
// capacity, validating children against preferred under policy.
func NewRootBuffer(channelID, numSamples uint32, preferred tokens.BufferToken, policy tokens.EnforcementStrategy) *RootBuffer {
	return &RootBuffer{
		Base:              NewBase(channelID, numSamples),
		preferredToken:    preferred,
		enforcementPolicy: policy,
	}
}

// SetNodeOutput records this block's rendered node-graph samples for the
// channel; ProcessDefault copies them into the root array before mixing
// in children (original's set_node_output/has_node_output pair).
func (r *RootBuffer) SetNodeOutput(data []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cap(r.nodeOutput) < len(data) {
		r.nodeOutput = make([]float64, len(data))
	} else {
		r.nodeOutput = r.nodeOutput[:len(data)]
	}
	copy(r.nodeOutput, data)
	r.hasNodeOutput = true
}

// ConnectSource registers a node to be rendered and mixed directly into
// this channel's node-output slot every block at the given mix ratio
// (spec's connect_node_to_channel). Multiple connected nodes accumulate
// into the same pre-limiter slot, which is how two full-amplitude sines
// can together drive the limiter into compression.
func (r *RootBuffer) ConnectSource(proc *NodeSourceProcessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, proc)
}

// DisconnectSource removes a previously connected node-source mixer.
func (r *RootBuffer) DisconnectSource(proc *NodeSourceProcessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sources {
		if s == proc {
			r.sources = append(r.sources[:i], r.sources[i+1:]...)
			return
		}
	}
}

// NumChildren returns how many child buffers are attached.
func (r *RootBuffer) NumChildren() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.children)
}

// Children returns a snapshot of the attached child buffers in
// attachment order.
func (r *RootBuffer) Children() []Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Buffer, len(r.children))
	copy(out, r.children)
	return out
}

// IsAcceptable reports whether child would be accepted under the root's
// current enforcement strategy, without attaching it (spec §3.3's
// is_buffer_acceptable).
func (r *RootBuffer) IsAcceptable(child Buffer) (bool, string) {
	childToken, ok := child.DefaultProcessorToken()
	if !ok {
		return true, ""
	}

	switch r.enforcementPolicy {
	case tokens.Strict:
		if childToken != r.preferredToken {
			return false, "child buffer's default processor token does not match the root's preferred token (STRICT mode)"
		}
	case tokens.Filtered:
		if !tokens.AreTokensCompatible(r.preferredToken, childToken) {
			return false, "child buffer's default processor token is incompatible with the root's preferred token (FILTERED mode)"
		}
	case tokens.OverrideSkip, tokens.OverrideReject:
		if !tokens.AreTokensCompatible(r.preferredToken, childToken) {
			return false, fmt.Sprintf("child buffer token incompatible, admitted under %s", r.enforcementPolicy)
		}
	case tokens.Ignore:
		// no validation
	}
	return true, ""
}

// AddChild attaches child to the aggregation hierarchy after validating
// it against the enforcement strategy, resizing it to match the root's
// sample count if needed.
func (r *RootBuffer) AddChild(child Buffer) error {
	ok, reason := r.IsAcceptable(child)
	if !ok && r.enforcementPolicy != tokens.OverrideSkip && r.enforcementPolicy != tokens.OverrideReject {
		return fmt.Errorf("buffer: cannot add child buffer: %s", reason)
	}
	if !ok {
		log.Warnf("buffer: admitting incompatible child under %s: %s", r.enforcementPolicy, reason)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if child.NumSamples() != r.NumSamples() {
		child.Resize(r.NumSamples())
	}
	r.children = append(r.children, child)
	return nil
}

// RemoveChild detaches child, a no-op if it isn't attached.
func (r *RootBuffer) RemoveChild(child Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.children {
		if c == child {
			r.children = append(r.children[:i], r.children[i+1:]...)
			return
		}
	}
}

// sweepRejected drops every attached child currently incompatible with
// the preferred token, the OVERRIDE_REJECT cleanup pass the original
// defers rather than performing at attach time.
func (r *RootBuffer) sweepRejected() {
	if r.enforcementPolicy != tokens.OverrideReject {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	live := r.children[:0]
	for _, c := range r.children {
		if ok, _ := r.IsAcceptable(c); ok {
			live = append(live, c)
		}
	}
	r.children = live
}

func (r *RootBuffer) DefaultProcessorToken() (tokens.BufferToken, bool) {
	return r.preferredToken, true
}

// ProcessDefault runs the root aggregation algorithm (spec §4.3):
// zero the array, copy in this block's node output if present, run each
// child's own processing then add its data in, divide once by the
// number of children, and apply the soft-knee limiter.
func (r *RootBuffer) ProcessDefault() {
	r.sweepRejected()

	data := r.Data()
	for i := range data {
		data[i] = 0
	}

	r.mu.Lock()
	if r.hasNodeOutput {
		n := len(r.nodeOutput)
		if n > len(data) {
			n = len(data)
		}
		copy(data[:n], r.nodeOutput[:n])
	}
	children := make([]Buffer, len(r.children))
	copy(children, r.children)
	sources := make([]*NodeSourceProcessor, len(r.sources))
	copy(sources, r.sources)
	r.mu.Unlock()

	for _, src := range sources {
		src.Process(r)
	}

	for _, child := range children {
		child.ProcessDefault()
		childData := child.Data()
		n := len(childData)
		if n > len(data) {
			n = len(data)
		}
		for i := 0; i < n; i++ {
			data[i] += childData[i]
		}
	}

	if len(children) > 0 {
		count := float64(len(children))
		for i := range data {
			data[i] /= count
		}
	}

	SoftKneeLimit(data)

	runChain(r, r.Processors())
}

func (r *RootBuffer) Resize(numSamples uint32) {
	r.Base.Resize(numSamples)
	r.mu.Lock()
	children := make([]Buffer, len(r.children))
	copy(children, r.children)
	r.mu.Unlock()
	for _, c := range children {
		c.Resize(numSamples)
	}
}

func (r *RootBuffer) Clear() {
	r.Base.Clear()
	r.mu.Lock()
	children := make([]Buffer, len(r.children))
	copy(children, r.children)
	r.mu.Unlock()
	for _, c := range children {
		c.Clear()
	}
}
