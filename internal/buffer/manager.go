// SPDX-License-Identifier: MIT
package buffer

import (
	"fmt"
	"sync"

	"mayaflux/internal/node"
	"mayaflux/internal/tokens"
)

// Manager owns one RootBuffer per output channel plus a global processor
// chain run after every channel's own chain, and the input buffers the
// platform backend pushes samples into (ported from original_source
// Core/BufferManager.{hpp,cpp}).
type Manager struct {
	mu sync.Mutex

	numChannels uint32
	numFrames   uint32

	roots         []*RootBuffer
	globalChain   []Processor
	inputs        map[uint32]*InputBuffer
}

// NewManager constructs a manager with numChannels root buffers of
// numFrames samples each, all defaulting to STRICT/AudioBackend
// enforcement (spec §4.3's default processing token for the audio path).
func NewManager(numChannels, numFrames uint32) *Manager {
	m := &Manager{
		numChannels: numChannels,
		numFrames:   numFrames,
		inputs:      make(map[uint32]*InputBuffer),
	}
	m.roots = make([]*RootBuffer, numChannels)
	for i := uint32(0); i < numChannels; i++ {
		m.roots[i] = NewRootBuffer(i, numFrames, tokens.AudioBackend, tokens.Strict)
	}
	return m
}

func (m *Manager) NumChannels() uint32 { return m.numChannels }
func (m *Manager) NumFrames() uint32   { return m.numFrames }

// Channel returns the root buffer for channelIndex, or an error if out
// of range.
func (m *Manager) Channel(channelIndex uint32) (*RootBuffer, error) {
	if channelIndex >= m.numChannels {
		return nil, fmt.Errorf("buffer: channel index %d out of range (have %d channels)", channelIndex, m.numChannels)
	}
	return m.roots[channelIndex], nil
}

// SetEnforcementStrategy changes how channelIndex's root validates new
// child buffers.
func (m *Manager) SetEnforcementStrategy(channelIndex uint32, strategy tokens.EnforcementStrategy) error {
	root, err := m.Channel(channelIndex)
	if err != nil {
		return err
	}
	root.enforcementPolicy = strategy
	return nil
}

// CreateSpecializedBuffer builds a child buffer with build, attaches it
// to channelIndex's root, and returns it (spec's
// create_specialized_buffer<BufferKind>; Go generics stand in for the
// original's template parameter since the concrete type varies by call
// site but the attach-and-validate steps never do).
func CreateSpecializedBuffer[T Buffer](m *Manager, channelIndex uint32, build func() T) (T, error) {
	var zero T
	root, err := m.Channel(channelIndex)
	if err != nil {
		return zero, err
	}
	child := build()
	if err := root.AddChild(child); err != nil {
		return zero, err
	}
	return child, nil
}

// AddProcessor attaches proc to b's own chain (buffer scope).
func (m *Manager) AddProcessor(proc Processor, b Buffer) { b.AddProcessor(proc) }

// RemoveProcessor detaches proc from b's own chain.
func (m *Manager) RemoveProcessor(proc Processor, b Buffer) { b.RemoveProcessor(proc) }

// AddProcessorToChannel attaches proc to channelIndex's root chain.
func (m *Manager) AddProcessorToChannel(proc Processor, channelIndex uint32) error {
	root, err := m.Channel(channelIndex)
	if err != nil {
		return err
	}
	root.AddProcessor(proc)
	return nil
}

// RemoveProcessorFromChannel detaches proc from channelIndex's root chain.
func (m *Manager) RemoveProcessorFromChannel(proc Processor, channelIndex uint32) error {
	root, err := m.Channel(channelIndex)
	if err != nil {
		return err
	}
	root.RemoveProcessor(proc)
	return nil
}

// AddProcessorToAll attaches proc to the global chain, run after every
// channel's own chain in ProcessChannel.
func (m *Manager) AddProcessorToAll(proc Processor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.globalChain = append(m.globalChain, proc)
}

// RemoveProcessorFromAll detaches proc from the global chain.
func (m *Manager) RemoveProcessorFromAll(proc Processor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.globalChain {
		if p == proc {
			m.globalChain = append(m.globalChain[:i], m.globalChain[i+1:]...)
			return
		}
	}
}

// ConnectNodeToChannel registers a NodeSourceProcessor that renders n's
// block and mixes it directly into channelIndex's node-output slot at
// mix every block, ahead of the children loop and the soft-knee limiter
// (spec's connect_node_to_channel; see RootBuffer.ConnectSource).
func (m *Manager) ConnectNodeToChannel(n *node.Node, channelIndex uint32, mix float64, clearBeforeProcess bool) (*NodeSourceProcessor, error) {
	root, err := m.Channel(channelIndex)
	if err != nil {
		return nil, err
	}
	proc := NewNodeSourceProcessor(n, mix, clearBeforeProcess)
	root.ConnectSource(proc)
	return proc, nil
}

// DisconnectNodeFromChannel removes a processor previously returned by
// ConnectNodeToChannel.
func (m *Manager) DisconnectNodeFromChannel(proc *NodeSourceProcessor, channelIndex uint32) error {
	root, err := m.Channel(channelIndex)
	if err != nil {
		return err
	}
	root.DisconnectSource(proc)
	return nil
}

// ProcessChannel runs channelIndex's root aggregation (which recurses
// into its children), then the channel's own chain, then the global
// chain (spec §4.3).
func (m *Manager) ProcessChannel(channelIndex uint32) error {
	root, err := m.Channel(channelIndex)
	if err != nil {
		return err
	}
	root.ProcessDefault()

	m.mu.Lock()
	global := make([]Processor, len(m.globalChain))
	copy(global, m.globalChain)
	m.mu.Unlock()
	runChain(root, global)
	return nil
}

// ProcessAllChannels processes every output channel in index order.
func (m *Manager) ProcessAllChannels() {
	for i := uint32(0); i < m.numChannels; i++ {
		_ = m.ProcessChannel(i)
	}
}

// RegisterInput creates (or replaces) the input buffer for channelIndex,
// sized to numFrames.
func (m *Manager) RegisterInput(channelIndex, numFrames uint32) *InputBuffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	in := NewInputBuffer(channelIndex, numFrames)
	m.inputs[channelIndex] = in
	return in
}

// ProcessAudioInput pushes one block of input samples for channelIndex
// (one channel's worth, already de-interleaved) into its registered
// input buffer, dispatching to listeners and running its chain. Input
// buffers are a separate path from the root hierarchy and are never
// polled by process_channel (spec §4.3).
func (m *Manager) ProcessAudioInput(channelIndex uint32, data []float64) error {
	m.mu.Lock()
	in, ok := m.inputs[channelIndex]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("buffer: no input buffer registered for channel %d", channelIndex)
	}
	in.WriteBlock(data)
	in.ProcessDefault()
	return nil
}

// FillInterleaved copies each channel's root buffer data into out in
// interleaved [ch0, ch1, ..., ch0, ch1, ...] order, one frame at a time,
// for handoff to the platform backend (spec's fill_interleaved).
func (m *Manager) FillInterleaved(out []float64, nframes uint32) {
	if nframes > m.numFrames {
		nframes = m.numFrames
	}
	for frame := uint32(0); frame < nframes; frame++ {
		for ch := uint32(0); ch < m.numChannels; ch++ {
			idx := frame*m.numChannels + ch
			if int(idx) >= len(out) {
				return
			}
			out[idx] = m.roots[ch].Sample(frame)
		}
	}
}

// FillFromInterleaved is the inverse of FillInterleaved: it de-interleaves
// in into each channel's root buffer array (spec's fill_from_interleaved).
func (m *Manager) FillFromInterleaved(in []float64, nframes uint32) {
	if nframes > m.numFrames {
		nframes = m.numFrames
	}
	for frame := uint32(0); frame < nframes; frame++ {
		for ch := uint32(0); ch < m.numChannels; ch++ {
			idx := frame*m.numChannels + ch
			if int(idx) >= len(in) {
				return
			}
			m.roots[ch].SetSample(frame, in[idx])
		}
	}
}

// Resize changes every channel's frame count, propagating to attached
// children (spec's resize).
func (m *Manager) Resize(numFrames uint32) {
	m.numFrames = numFrames
	for _, root := range m.roots {
		root.Resize(numFrames)
	}
}
