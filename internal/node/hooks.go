// SPDX-License-Identifier: MIT
package node

import "sync"

// Context carries the information a hook callback receives: the sample
// that was just produced plus the generator parameters active when it
// was produced (spec §4.1's GeneratorContext).
type Context struct {
	Value     float64
	Frequency float64
	Amplitude float64
	Phase     float64
}

// Hook is a callback invoked from the owning node's processing thread.
type Hook func(Context)

// Condition gates a conditional hook.
type Condition func(Context) bool

type conditionalHook struct {
	fn   Hook
	cond Condition
}

// hookSet holds the five hook families a node can carry: unconditional
// on-tick, conditional on-tick-if, phase-wrap, impulse, and threshold
// hooks. A mutex
// guards registration only; firing iterates a snapshot copy so a hook
// that registers another hook doesn't deadlock or mutate mid-iteration.
type hookSet struct {
	mu          sync.Mutex
	onTick      []Hook
	onTickIf    []conditionalHook
	onPhaseWrap []Hook
	onImpulse   []Hook
	onThreshold []Hook
}

func (h *hookSet) addTick(fn Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onTick = append(h.onTick, fn)
}

func (h *hookSet) addTickIf(fn Hook, cond Condition) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onTickIf = append(h.onTickIf, conditionalHook{fn, cond})
}

func (h *hookSet) addPhaseWrap(fn Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onPhaseWrap = append(h.onPhaseWrap, fn)
}

func (h *hookSet) addImpulse(fn Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onImpulse = append(h.onImpulse, fn)
}

func (h *hookSet) addThreshold(fn Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onThreshold = append(h.onThreshold, fn)
}

func (h *hookSet) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onTick = nil
	h.onTickIf = nil
	h.onPhaseWrap = nil
	h.onImpulse = nil
	h.onThreshold = nil
}

func (h *hookSet) snapshot() ([]Hook, []conditionalHook, []Hook, []Hook, []Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Hook(nil), h.onTick...),
		append([]conditionalHook(nil), h.onTickIf...),
		append([]Hook(nil), h.onPhaseWrap...),
		append([]Hook(nil), h.onImpulse...),
		append([]Hook(nil), h.onThreshold...)
}

// fire runs the generic on-tick/on-tick-if hooks for every processed
// sample, plus on-phase-wrap/on-impulse/on-threshold when the kind
// signals the corresponding transition occurred.
func (h *hookSet) fire(ctx Context, phaseWrapped, impulseOccurred, thresholdCrossed bool) {
	tick, tickIf, phaseWrap, impulse, threshold := h.snapshot()
	for _, fn := range tick {
		fn(ctx)
	}
	for _, ch := range tickIf {
		if ch.cond(ctx) {
			ch.fn(ctx)
		}
	}
	if phaseWrapped {
		for _, fn := range phaseWrap {
			fn(ctx)
		}
	}
	if impulseOccurred {
		for _, fn := range impulse {
			fn(ctx)
		}
	}
	if thresholdCrossed {
		for _, fn := range threshold {
			fn(ctx)
		}
	}
}
