// SPDX-License-Identifier: MIT

// Package creator provides the fluent construction surface spec §4.5
// names: build a node or buffer, then chain Domain/Channel/With calls
// onto the value returned to wire it into the graph/buffer managers
// once enough context has accumulated (ported from original_source
// API/Proxy/Creator.hpp; see DESIGN.md open question 1 for why only one
// handle type survives the port).
package creator

import (
	"fmt"
	"math/rand"
	"os"

	"mayaflux/internal/buffer"
	"mayaflux/internal/node"
	"mayaflux/internal/scheduler"
	"mayaflux/internal/tokens"
)

// CreationContext accumulates the domain and channel(s) a CreationHandle
// needs before it can wire its value into a manager, plus arbitrary
// metadata a caller wants attached (original's CreationContext).
type CreationContext struct {
	Domain    tokens.Domain
	HasDomain bool
	Channels  []uint32
	Metadata  map[string]any
}

func (c CreationContext) ready() bool {
	return c.HasDomain && len(c.Channels) > 0
}

// Creator owns the live managers new values get wired into. Unlike the
// original's package-level `vega` singleton, this is an explicit value
// a caller constructs once and threads through (spec §9's "no
// process-global singleton" resolution).
type Creator struct {
	Nodes   *node.GraphManager
	Buffers *buffer.Manager
	Tasks   *scheduler.TaskScheduler
}

// New builds a Creator over the given managers.
func New(nodes *node.GraphManager, buffers *buffer.Manager, tasks *scheduler.TaskScheduler) *Creator {
	return &Creator{Nodes: nodes, Buffers: buffers, Tasks: tasks}
}

// CreationHandle wraps a freshly built node or buffer value with the
// fluent Domain/Channel/Channels/With chain. It stands in for the
// original's CreationHandle<T> (CreationProxy's separate type is
// dropped; see DESIGN.md open question 1). Each call re-checks whether
// enough context has accumulated to apply and wire the value, then
// resets the context so a handle can be re-targeted to another channel
// by chaining again.
type CreationHandle[T any] struct {
	Value T

	creator *Creator
	ctx     CreationContext
}

func newCreationHandle[T any](c *Creator, v T) *CreationHandle[T] {
	return &CreationHandle[T]{Value: v, creator: c}
}

// Domain sets the handle's target processing domain.
func (h *CreationHandle[T]) Domain(d tokens.Domain) *CreationHandle[T] {
	h.ctx.Domain = d
	h.ctx.HasDomain = true
	h.tryApply()
	return h
}

// Channel targets a single output channel.
func (h *CreationHandle[T]) Channel(ch uint32) *CreationHandle[T] {
	h.ctx.Channels = []uint32{ch}
	h.tryApply()
	return h
}

// Channels targets every channel listed.
func (h *CreationHandle[T]) Channels(chs ...uint32) *CreationHandle[T] {
	h.ctx.Channels = append([]uint32(nil), chs...)
	h.tryApply()
	return h
}

// With attaches a metadata key/value pair to the handle's context. It
// never triggers application on its own (domain+channel(s) still must
// both be present), matching the original's metadata-only `with` call.
func (h *CreationHandle[T]) With(key string, value any) *CreationHandle[T] {
	if h.ctx.Metadata == nil {
		h.ctx.Metadata = make(map[string]any)
	}
	h.ctx.Metadata[key] = value
	return h
}

func (h *CreationHandle[T]) tryApply() {
	if !h.ctx.ready() {
		return
	}
	applyContext(h.creator, h.Value, h.ctx)
	h.ctx = CreationContext{}
}

// applyContext dispatches on the wrapped value's concrete kind, the
// port of the original's `if constexpr` chain over Node/Buffer/
// SoundFileContainer base classes.
func applyContext[T any](c *Creator, v T, ctx CreationContext) {
	switch val := any(v).(type) {
	case *node.Node:
		applyNodeContext(c, val, ctx)
	case buffer.Buffer:
		applyBufferContext(c, val, ctx)
	}
}

func applyNodeContext(c *Creator, n *node.Node, ctx CreationContext) {
	if c == nil || c.Nodes == nil || n == nil {
		return
	}
	n.Token = ctx.Domain.NodeToken()
	for _, ch := range ctx.Channels {
		c.Nodes.RegisterNode(n, ch)
	}
}

func applyBufferContext(c *Creator, b buffer.Buffer, ctx CreationContext) {
	if c == nil || c.Buffers == nil || b == nil {
		return
	}
	for _, ch := range ctx.Channels {
		root, err := c.Buffers.Channel(ch)
		if err != nil {
			continue
		}
		_ = root.AddChild(b)
	}
}

// Sine builds a sine generator node, tracked in the graph but not yet
// bound to any channel.
func (c *Creator) Sine(name string, sampleRate, frequency, amplitude, offset float64) *CreationHandle[*node.Node] {
	kind := node.NewSine(sampleRate, frequency, amplitude, offset)
	n := node.CreateNode(c.Nodes, name, tokens.AudioRate, kind)
	return newCreationHandle(c, n)
}

// Impulse builds an impulse-train generator node.
func (c *Creator) Impulse(name string, sampleRate, frequency, amplitude, offset float64) *CreationHandle[*node.Node] {
	kind := node.NewImpulse(sampleRate, frequency, amplitude, offset)
	n := node.CreateNode(c.Nodes, name, tokens.AudioRate, kind)
	return newCreationHandle(c, n)
}

// Phasor builds a ramping phase generator node.
func (c *Creator) Phasor(name string, sampleRate, frequency, amplitude, offset float64) *CreationHandle[*node.Node] {
	kind := node.NewPhasor(sampleRate, frequency, amplitude, offset)
	n := node.CreateNode(c.Nodes, name, tokens.AudioRate, kind)
	return newCreationHandle(c, n)
}

// Random builds a stochastic generator node sampling algo over
// [start, end] scaled by amplitude. A nil src seeds from a fixed
// default (node.NewRandom's own contract); pass rand.NewSource(seed)
// for reproducible tests.
func (c *Creator) Random(name string, algo node.DistributionAlgorithm, start, end, amplitude float64, src rand.Source) *CreationHandle[*node.Node] {
	kind := node.NewRandom(algo, start, end, amplitude, src)
	n := node.CreateNode(c.Nodes, name, tokens.AudioRate, kind)
	return newCreationHandle(c, n)
}

// Polynomial builds a node driven by poly's transfer function directly
// (as opposed to attaching a buffer.PolynomialProcessor wrapping the same
// poly to an existing buffer's processor chain via AddProcessor).
func (c *Creator) Polynomial(name string, poly *node.Polynomial) *CreationHandle[*node.Node] {
	n := node.CreateNode(c.Nodes, name, tokens.CustomRate, poly)
	return newCreationHandle(c, n)
}

// Read decodes a WAV file at path into a ContainerBuffer holding
// numSamples per block, standing in for the original's Creator::read
// (spec §1 scopes this to "load one WAV into a buffer"; no generalized
// sound-file-container write path is built).
func (c *Creator) Read(channelID, numSamples uint32, path string) (*CreationHandle[*buffer.ContainerBuffer], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("creator: opening %q: %w", path, err)
	}
	defer f.Close()

	cb, err := buffer.LoadContainerBuffer(channelID, numSamples, f)
	if err != nil {
		return nil, err
	}
	return newCreationHandle(c, cb), nil
}
