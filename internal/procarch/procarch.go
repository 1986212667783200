// SPDX-License-Identifier: MIT

// Package procarch provides the unified, token-scoped handles a subsystem
// uses to drive its slice of the buffer pipeline, node graph, and task
// scheduler without reaching into the managers' full APIs (ported from
// original_source/.../Core/ProcessingArchitecture.{hpp,cpp}, spec §4.4).
package procarch

import (
	"fmt"

	"mayaflux/internal/buffer"
	"mayaflux/internal/node"
	"mayaflux/internal/scheduler"
	"mayaflux/internal/tokens"
)

// SubsystemTokens pins the three processing tokens a subsystem operates
// under: which buffer-pipeline characteristics its channels use, which
// node-graph rate its generators run at, and which scheduler domain its
// routines resume on.
type SubsystemTokens struct {
	Buffer tokens.BufferToken
	Node   tokens.NodeToken
	Task   tokens.TaskToken
}

func (t SubsystemTokens) String() string {
	return fmt.Sprintf("{Buffer:%s Node:%s Task:%s}", t.Buffer, t.Node, t.Task)
}

// BufferProcessingHandle is a subsystem's scoped view of the buffer
// manager: every call is pinned to the handle's token, standing in for
// the original's "acquire write lock, validate, forward" per-call
// sequence. Go's embedding gives the non-copyable-but-moveable original
// no direct analogue; a handle here is just a small value that owns no
// resource beyond the pointers it was built with, so copying it is safe
// and passing it by value is the idiomatic equivalent of "move."
type BufferProcessingHandle struct {
	manager *buffer.Manager
	token   tokens.BufferToken
}

// NewBufferProcessingHandle scopes manager to token.
func NewBufferProcessingHandle(manager *buffer.Manager, token tokens.BufferToken) BufferProcessingHandle {
	return BufferProcessingHandle{manager: manager, token: token}
}

func (h BufferProcessingHandle) ensureValid() error {
	if h.manager == nil {
		return fmt.Errorf("procarch: invalid buffer processing handle (nil manager)")
	}
	return nil
}

// Process runs every channel of the underlying manager (the handle's
// token scopes which buffers a caller is allowed to reach via this
// handle's other methods; the manager itself does not partition
// channels by token, so Process simply forwards to ProcessAllChannels).
func (h BufferProcessingHandle) Process() error {
	if err := h.ensureValid(); err != nil {
		return err
	}
	h.manager.ProcessAllChannels()
	return nil
}

// ProcessChannel runs one channel's aggregation.
func (h BufferProcessingHandle) ProcessChannel(channel uint32) error {
	if err := h.ensureValid(); err != nil {
		return err
	}
	return h.manager.ProcessChannel(channel)
}

// ReadChannelData returns a snapshot of channel's current root data.
func (h BufferProcessingHandle) ReadChannelData(channel uint32) ([]float64, error) {
	if err := h.ensureValid(); err != nil {
		return nil, err
	}
	root, err := h.manager.Channel(channel)
	if err != nil {
		return nil, err
	}
	src := root.Data()
	out := make([]float64, len(src))
	copy(out, src)
	return out, nil
}

// WriteChannelData overwrites channel's root samples in place.
func (h BufferProcessingHandle) WriteChannelData(channel uint32, data []float64) error {
	if err := h.ensureValid(); err != nil {
		return err
	}
	root, err := h.manager.Channel(channel)
	if err != nil {
		return err
	}
	dst := root.Data()
	n := copy(dst, data)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

// SetupChannels resizes every channel to numFrames, the handle's
// equivalent of the original's setup_channels (numChannels is fixed at
// manager construction in this port, so only the frame count varies).
func (h BufferProcessingHandle) SetupChannels(numFrames uint32) error {
	if err := h.ensureValid(); err != nil {
		return err
	}
	h.manager.Resize(numFrames)
	return nil
}

// FillInterleaved delegates to the manager, for a backend pulling this
// handle's channels into one interleaved block.
func (h BufferProcessingHandle) FillInterleaved(out []float64, nframes uint32) error {
	if err := h.ensureValid(); err != nil {
		return err
	}
	h.manager.FillInterleaved(out, nframes)
	return nil
}

// Token returns the buffer token this handle is scoped to.
func (h BufferProcessingHandle) Token() tokens.BufferToken { return h.token }

// NodeProcessingHandle is a subsystem's scoped view of the node graph:
// every node it creates is stamped with the handle's token, and
// processing calls are pinned to that token (spec's NodeProcessingHandle).
type NodeProcessingHandle struct {
	manager *node.GraphManager
	token   tokens.NodeToken
}

// NewNodeProcessingHandle scopes manager to token.
func NewNodeProcessingHandle(manager *node.GraphManager, token tokens.NodeToken) NodeProcessingHandle {
	return NodeProcessingHandle{manager: manager, token: token}
}

// Process pulls one sample per registered channel's worth of routines
// at the handle's token — in this port that's just ProcessSample per
// channel, since the original's "process all" swept every domain at
// once; callers that need a specific channel use ProcessChannel below.
func (h NodeProcessingHandle) Process(channel uint32) float64 {
	if h.manager == nil {
		return 0
	}
	return h.manager.ProcessSample(h.token, channel)
}

// ProcessChannel pulls numSamples samples for channel at the handle's
// token and returns the rendered block.
func (h NodeProcessingHandle) ProcessChannel(channel uint32, numSamples int) []float64 {
	if h.manager == nil {
		return make([]float64, numSamples)
	}
	return h.manager.ProcessChannel(h.token, channel, numSamples)
}

// CreateNode builds a node wrapping kind, stamped with the handle's
// token, and tracks it in the graph's live set (the original's
// create_node<NodeType> template; Go generics supply the type parameter
// the same way). The returned node is not yet bound to any channel —
// call Manager().RegisterNode to bind it, mirroring create_node's own
// contract of returning an unbound node.
func CreateNode[K node.Kind](h NodeProcessingHandle, name string, kind K) *node.Node {
	return node.CreateNode(h.manager, name, h.token, kind)
}

// Manager exposes the underlying graph manager for calls this handle
// doesn't wrap directly (RegisterNode, UnregisterNode).
func (h NodeProcessingHandle) Manager() *node.GraphManager { return h.manager }

// Token returns the node token this handle is scoped to.
func (h NodeProcessingHandle) Token() tokens.NodeToken { return h.token }

// TaskSchedulerHandle is a subsystem's scoped view of the task
// scheduler: Process advances the handle's domain by a unit count and
// resumes every ready routine in it (spec's TaskProcessingHandle).
type TaskSchedulerHandle struct {
	scheduler *scheduler.TaskScheduler
	token     tokens.TaskToken
}

// NewTaskSchedulerHandle scopes scheduler to token. It returns an error
// rather than panicking on a nil scheduler, matching the original's
// constructor throwing on a null TaskScheduler, since Go handles are
// plain values a caller can't be stopped from zero-valuing otherwise.
func NewTaskSchedulerHandle(s *scheduler.TaskScheduler, token tokens.TaskToken) (TaskSchedulerHandle, error) {
	if s == nil {
		return TaskSchedulerHandle{}, fmt.Errorf("procarch: TaskSchedulerHandle requires a non-nil TaskScheduler")
	}
	return TaskSchedulerHandle{scheduler: s, token: token}, nil
}

// Process advances the handle's domain clock by units and resumes every
// ready routine bound to it.
func (h TaskSchedulerHandle) Process(units uint64) {
	h.scheduler.ProcessToken(h.token, units)
}

// AddTask attaches routine under name to the underlying scheduler.
func (h TaskSchedulerHandle) AddTask(r *scheduler.Routine, name string, initialize bool) {
	h.scheduler.AddTask(r, name, initialize)
}

// Token returns the task token this handle is scoped to.
func (h TaskSchedulerHandle) Token() tokens.TaskToken { return h.token }

// Scheduler exposes the underlying scheduler for calls this handle
// doesn't wrap directly (CancelTask, RestartTask, and so on).
func (h TaskSchedulerHandle) Scheduler() *scheduler.TaskScheduler { return h.scheduler }

// SubsystemProcessingHandle bundles the three scoped handles a
// subsystem needs into one value, matching the original's
// SubsystemProcessingHandle aggregate (spec §4.4).
type SubsystemProcessingHandle struct {
	Buffers BufferProcessingHandle
	Nodes   NodeProcessingHandle
	Tasks   TaskSchedulerHandle

	tokens SubsystemTokens
}

// NewSubsystemProcessingHandle builds the three scoped handles from one
// SubsystemTokens value and the three managers they're scoped to.
func NewSubsystemProcessingHandle(
	bufferManager *buffer.Manager,
	nodeManager *node.GraphManager,
	taskScheduler *scheduler.TaskScheduler,
	tk SubsystemTokens,
) (SubsystemProcessingHandle, error) {
	taskHandle, err := NewTaskSchedulerHandle(taskScheduler, tk.Task)
	if err != nil {
		return SubsystemProcessingHandle{}, err
	}
	return SubsystemProcessingHandle{
		Buffers: NewBufferProcessingHandle(bufferManager, tk.Buffer),
		Nodes:   NewNodeProcessingHandle(nodeManager, tk.Node),
		Tasks:   taskHandle,
		tokens:  tk,
	}, nil
}

// Tokens returns the token configuration this handle was built with.
func (h SubsystemProcessingHandle) Tokens() SubsystemTokens { return h.tokens }
