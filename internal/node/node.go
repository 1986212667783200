// SPDX-License-Identifier: MIT
package node

import (
	"errors"
	"math"
	"runtime"
	"sync/atomic"

	"mayaflux/internal/tokens"
)

// ErrSnapshotTimeout is returned by PullWindow when a concurrent claim
// cannot be acquired within the bounded backoff window (spec §4.1).
var ErrSnapshotTimeout = errors.New("node: snapshot claim timed out")

// Kind is the transfer function a Node wraps: a generator, a stochastic
// source, a polynomial recursion, or any user-defined signal source. It
// plays the role the original engine's Node subclasses played, without
// the inheritance: Core supplies identity, state, and hooks; Kind
// supplies the actual math.
type Kind interface {
	// ProcessSample computes the next output sample given an input and a
	// handle back to the owning node (for pulling modulators and firing
	// kind-specific hooks like on_phase_wrap or on_impulse).
	ProcessSample(n *Node, input float64) float64
	// SaveState captures whatever internal state process_sample mutates,
	// for PullWindow's off-thread non-destructive sampling.
	SaveState() any
	// RestoreState reverses a prior SaveState.
	RestoreState(state any)
}

// Node is the Core+Kind composition: a Kind's math plus the bitfield
// state, modulator list, and hook set the graph manager and buffers
// interact with generically (spec §4.1).
type Node struct {
	Name  string
	Token tokens.NodeToken
	Kind  Kind

	state          atomic.Uint32
	snapshotClaim  atomic.Uint64
	lastOutputBits atomic.Uint64
	allowSnapHooks atomic.Bool

	modulators []*Node
	hooks      hookSet
	pending    transition
}

// transition carries the context and transition flags a Kind reports for
// the sample it just produced. Node.ProcessSample is the single place
// hooks actually fire, so a Kind reports here rather than firing hooks
// itself, to avoid double-firing the generic on-tick hooks.
type transition struct {
	freq, amp, phase                  float64
	phaseWrapped, impulse, threshold bool
}

// New constructs an active, unprocessed node wrapping kind.
func New(name string, token tokens.NodeToken, kind Kind) *Node {
	n := &Node{Name: name, Token: token, Kind: kind}
	n.state.Store(uint32(Active))
	return n
}

// State returns the current bitfield snapshot.
func (n *Node) State() State { return State(n.state.Load()) }

func (n *Node) IsActive() bool    { return n.State()&Active != 0 }
func (n *Node) IsProcessed() bool { return n.State()&Processed != 0 }
func (n *Node) ShouldMockProcess() bool { return n.State()&MockProcess != 0 }

// SetActive toggles the ACTIVE bit; inactive nodes are skipped by the
// graph manager's per-block processing pass.
func (n *Node) SetActive(active bool) {
	for {
		cur := State(n.state.Load())
		next := cur &^ Active
		if active {
			next |= Active
		}
		if n.state.CompareAndSwap(uint32(cur), uint32(next)) {
			return
		}
	}
}

// SetMockProcess toggles MOCK_PROCESS: the root buffer still calls
// ProcessSample (so hooks and modulator chains fire) but discards the
// return value when aggregating output (spec §4.3).
func (n *Node) SetMockProcess(mock bool) {
	for {
		cur := State(n.state.Load())
		next := cur &^ MockProcess
		if mock {
			next |= MockProcess
		}
		if n.state.CompareAndSwap(uint32(cur), uint32(next)) {
			return
		}
	}
}

// AllowHooksDuringSnapshot opts a node into firing its hooks even while
// a PullWindow snapshot is in progress. Default is suppressed, since
// snapshot sampling is meant to be side-effect free for everything but
// the analyzer pulling it.
func (n *Node) AllowHooksDuringSnapshot(allow bool) { n.allowSnapHooks.Store(allow) }

func (n *Node) markProcessed() {
	for {
		cur := State(n.state.Load())
		next := cur | Processed
		if n.state.CompareAndSwap(uint32(cur), uint32(next)) {
			return
		}
	}
}

// ResetProcessed clears the PROCESSED bit on this node and, recursively,
// every modulator feeding it (spec §4.1's reset_processed_state, ported
// from Impulse::reset_processed_state).
func (n *Node) ResetProcessed() {
	for {
		cur := State(n.state.Load())
		next := cur &^ Processed
		if n.state.CompareAndSwap(uint32(cur), uint32(next)) {
			break
		}
	}
	for _, m := range n.modulators {
		if m != nil {
			m.ResetProcessed()
		}
	}
}

func (n *Node) LastOutput() float64 { return math.Float64frombits(n.lastOutputBits.Load()) }

func (n *Node) setLastOutput(v float64) { n.lastOutputBits.Store(math.Float64bits(v)) }

// Modulators returns the ordered modulator list a Kind indexes into by
// role (e.g. modulators[0] == frequency, modulators[1] == amplitude).
func (n *Node) Modulators() []*Node { return n.modulators }

// SetModulator assigns the modulator at index i, growing the slice as
// needed. A nil modulator clears that slot.
func (n *Node) SetModulator(i int, m *Node) {
	for len(n.modulators) <= i {
		n.modulators = append(n.modulators, nil)
	}
	n.modulators[i] = m
}

func (n *Node) ClearModulators() {
	for i := range n.modulators {
		n.modulators[i] = nil
	}
}

// OnTick registers an unconditional per-sample hook.
func (n *Node) OnTick(fn Hook) { n.hooks.addTick(fn) }

// OnTickIf registers a conditional per-sample hook.
func (n *Node) OnTickIf(fn Hook, cond Condition) { n.hooks.addTickIf(fn, cond) }

// OnPhaseWrap registers a hook fired when a generator's phase wraps.
func (n *Node) OnPhaseWrap(fn Hook) { n.hooks.addPhaseWrap(fn) }

// OnImpulse registers a hook fired when an impulse generator fires.
func (n *Node) OnImpulse(fn Hook) { n.hooks.addImpulse(fn) }

// OnThreshold registers a hook fired when a kind-defined threshold is
// crossed (e.g. stochastic nodes crossing a configured bound).
func (n *Node) OnThreshold(fn Hook) { n.hooks.addThreshold(fn) }

// ReportTransition lets a Kind record the context and transition flags
// for the sample it is about to return. Node.ProcessSample reads this
// once the Kind call returns and fires every hook family exactly once.
func (n *Node) ReportTransition(freq, amp, phase float64, phaseWrapped, impulse, threshold bool) {
	n.pending = transition{freq: freq, amp: amp, phase: phase, phaseWrapped: phaseWrapped, impulse: impulse, threshold: threshold}
}

func (n *Node) RemoveAllHooks() { n.hooks.clear() }

// PullModulator reads a modulator's contribution for the current block:
// if it was already processed this pass, reuse its last output; if not,
// process it now and mark it processed. This is the rule that prevents
// a modulator shared by two nodes from being evaluated twice per block
// (spec §4.1).
func PullModulator(m *Node, input float64) float64 {
	if m == nil {
		return 0
	}
	if m.IsProcessed() {
		return m.LastOutput()
	}
	return m.ProcessSample(input)
}

// ProcessSample is the owner-thread entry point: the audio callback,
// node graph manager, or buffer pipeline calls this directly without
// claiming a snapshot, since the caller IS the canonical writer. It is
// idempotent within a block: a second call before ResetProcessed just
// returns the cached output.
func (n *Node) ProcessSample(input float64) (out float64) {
	if n.IsProcessed() {
		return n.LastOutput()
	}
	defer func() {
		if r := recover(); r != nil {
			out = 0
		}
	}()

	n.pending = transition{}
	result := n.Kind.ProcessSample(n, input)
	n.setLastOutput(result)
	n.markProcessed()

	if n.snapshotClaim.Load() == 0 || n.allowSnapHooks.Load() {
		t := n.pending
		ctx := Context{Value: result, Frequency: t.freq, Amplitude: t.amp, Phase: t.phase}
		n.hooks.fire(ctx, t.phaseWrapped, t.impulse, t.threshold)
	}
	return result
}

// ProcessBlock calls ProcessSample nsamples times, resetting the
// processed state between each sample so a generator actually advances.
// ResetProcessed also clears every modulator feeding this node, so its
// modulators advance once per sample as well.
func (n *Node) ProcessBlock(nsamples int) []float64 {
	out := make([]float64, nsamples)
	for i := range out {
		n.ResetProcessed()
		out[i] = n.ProcessSample(0)
	}
	return out
}

// claimSnapshot attempts to become the exclusive snapshot owner via a
// single CAS from the unclaimed (0) state.
func (n *Node) claimSnapshot(claimant uint64) bool {
	return n.snapshotClaim.CompareAndSwap(0, claimant)
}

func (n *Node) releaseSnapshot() { n.snapshotClaim.Store(0) }

// PullWindow produces nsamples of non-destructive output for an
// off-thread reader (the analyzer, typically) without disturbing the
// node's canonical state as seen by its owning processing thread. It
// claims exclusive access with a bounded, exponentially-backed-off spin
// (yielding between attempts), saves the Kind's state, advances it
// nsamples times, restores the saved state, and releases the claim
// (spec §4.1's snapshot-safe sampling).
func (n *Node) PullWindow(nsamples int, claimant uint64) ([]float64, error) {
	const maxSpinIterations = 1024
	spin := 1
	for !n.claimSnapshot(claimant) {
		for i := 0; i < spin; i++ {
			runtime.Gosched()
		}
		spin *= 2
		if spin > maxSpinIterations {
			return nil, ErrSnapshotTimeout
		}
	}
	defer n.releaseSnapshot()

	saved := n.Kind.SaveState()
	out := make([]float64, nsamples)
	for i := range out {
		out[i] = n.Kind.ProcessSample(n, 0)
	}
	n.Kind.RestoreState(saved)
	return out, nil
}

var claimCounter atomic.Uint64

// NextClaimID returns a process-wide unique nonzero claimant id for use
// with PullWindow.
func NextClaimID() uint64 {
	return claimCounter.Add(1)
}
