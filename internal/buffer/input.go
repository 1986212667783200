// SPDX-License-Identifier: MIT
package buffer

import (
	"sync"

	"mayaflux/internal/tokens"
)

// InputBuffer receives a block of platform-backend input samples and
// copies them into every registered listener buffer, then runs its own
// processor chain (ported from original_source Buffers/Input/
// InputAudioBuffer.hpp). Input buffers are never polled by a root —
// they are pushed to directly by the backend via BufferManager's
// ProcessAudioInput (spec §4.3).
type InputBuffer struct {
	Base

	mu        sync.Mutex
	listeners []Buffer
}

// NewInputBuffer constructs an input buffer for channelID with
// numSamples capacity.
func NewInputBuffer(channelID, numSamples uint32) *InputBuffer {
	return &InputBuffer{Base: NewBase(channelID, numSamples)}
}

func (b *InputBuffer) DefaultProcessorToken() (tokens.BufferToken, bool) { return 0, false }

// RegisterListener adds buffer to the dispatch list; WriteBlock will
// copy this input's data into it.
func (b *InputBuffer) RegisterListener(buffer Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, buffer)
}

// UnregisterListener removes buffer from the dispatch list.
func (b *InputBuffer) UnregisterListener(buffer Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.listeners {
		if l == buffer {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

// ClearListeners drops every registered listener.
func (b *InputBuffer) ClearListeners() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = nil
}

// WriteBlock copies data into this buffer's array, then into every
// registered listener, matching the original's write_to dispatch.
func (b *InputBuffer) WriteBlock(data []float64) {
	dst := b.Data()
	n := copy(dst, data)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}

	b.mu.Lock()
	listeners := make([]Buffer, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	for _, l := range listeners {
		ldata := l.Data()
		copy(ldata, dst)
	}
}

// ProcessDefault runs this input's own processor chain over its current
// data (the listener dispatch already happened in WriteBlock).
func (b *InputBuffer) ProcessDefault() {
	runChain(b, b.Processors())
}
