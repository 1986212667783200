// SPDX-License-Identifier: MIT
package node

import (
	"sync"

	"mayaflux/internal/log"
	"mayaflux/internal/tokens"
)

// GraphManager holds every live node and the per-channel bindings that
// tell a buffer which nodes feed into it (spec §4.1). Structural edits
// (register/unregister/create) take the mutex; the processing path takes
// it only to copy a channel's node slice and evaluates that copy without
// holding it.
type GraphManager struct {
	mu       sync.Mutex
	channels map[uint32][]*Node
	all      map[*Node]struct{}
}

func NewGraphManager() *GraphManager {
	return &GraphManager{
		channels: make(map[uint32][]*Node),
		all:      make(map[*Node]struct{}),
	}
}

// RegisterNode binds node to channel's root. A node bound to more than
// one channel is processed independently per channel (its PROCESSED
// flag is shared, so the second channel to pull it that block reuses
// its cached output rather than re-running the kind).
func (g *GraphManager) RegisterNode(n *Node, channel uint32) {
	if n == nil {
		log.Warnf("node: RegisterNode called with nil node for channel %d", channel)
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.all[n] = struct{}{}
	g.channels[channel] = append(g.channels[channel], n)
}

// UnregisterNode removes node from channel's binding. It remains live in
// the graph (other channels, or as someone's modulator) until no
// channel references it; callers that want it fully gone should drop
// their own references after unregistering from every channel.
func (g *GraphManager) UnregisterNode(n *Node, channel uint32) {
	if n == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	bound := g.channels[channel]
	for i, c := range bound {
		if c == n {
			g.channels[channel] = append(bound[:i], bound[i+1:]...)
			break
		}
	}
	for _, remaining := range g.channels {
		for _, c := range remaining {
			if c == n {
				return
			}
		}
	}
	delete(g.all, n)
}

func (g *GraphManager) channelNodes(channel uint32) []*Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Node(nil), g.channels[channel]...)
}

// ProcessSample pulls a single sample from every node bound to channel
// and sums them, per spec §4.1. A node registered as both a channel
// member and another node's modulator is evaluated at most once per
// block via the PROCESSED dedup rule.
func (g *GraphManager) ProcessSample(token tokens.NodeToken, channel uint32) float64 {
	nodes := g.channelNodes(channel)
	var sum float64
	for _, n := range nodes {
		if n.Token != token || !n.IsActive() {
			continue
		}
		out := n.ProcessSample(0)
		if !n.ShouldMockProcess() {
			sum += out
		}
	}
	return sum
}

// ProcessChannel pulls nsamples samples for channel, resetting the
// processed state between each sample so generators actually advance.
func (g *GraphManager) ProcessChannel(token tokens.NodeToken, channel uint32, nsamples int) []float64 {
	out := make([]float64, nsamples)
	for i := 0; i < nsamples; i++ {
		out[i] = g.ProcessSample(token, channel)
		g.resetChannelProcessed(channel)
	}
	return out
}

func (g *GraphManager) resetChannelProcessed(channel uint32) {
	for _, n := range g.channelNodes(channel) {
		n.ResetProcessed()
	}
}

// ResetProcessedState clears PROCESSED graph-wide, for callers that
// drive multiple channels from one outer loop and want a single reset
// point at the end of a block (spec §4.1).
func (g *GraphManager) ResetProcessedState() {
	g.mu.Lock()
	all := make([]*Node, 0, len(g.all))
	for n := range g.all {
		all = append(all, n)
	}
	g.mu.Unlock()
	for _, n := range all {
		n.ResetProcessed()
	}
}

// CreateNode constructs a node wrapping kind, stamps it with token, and
// tracks it in the graph's live set without binding it to any channel
// (the caller registers it explicitly, or uses it purely as a
// modulator). The type parameter exists to let callers write
// node.CreateNode[*node.Sine](g, ...) style call sites that read like
// the original engine's create_node<T>; Go's lack of constructors on
// type parameters means the Kind itself is still built by the caller.
func CreateNode[K Kind](g *GraphManager, name string, token tokens.NodeToken, kind K) *Node {
	n := New(name, token, kind)
	g.mu.Lock()
	g.all[n] = struct{}{}
	g.mu.Unlock()
	return n
}
