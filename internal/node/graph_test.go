// SPDX-License-Identifier: MIT
package node

import (
	"testing"

	"mayaflux/internal/tokens"
)

func TestRegisterNodeSumsChannelOutputs(t *testing.T) {
	g := NewGraphManager()
	a := CreateNode(g, "a", tokens.AudioRate, NewDirectPolynomial(func(float64) float64 { return 1 }))
	b := CreateNode(g, "b", tokens.AudioRate, NewDirectPolynomial(func(float64) float64 { return 2 }))
	g.RegisterNode(a, 0)
	g.RegisterNode(b, 0)

	got := g.ProcessSample(tokens.AudioRate, 0)
	if got != 3 {
		t.Errorf("channel sum = %v, want 3", got)
	}
}

func TestUnregisterNodeRemovesItFromChannel(t *testing.T) {
	g := NewGraphManager()
	a := CreateNode(g, "a", tokens.AudioRate, NewDirectPolynomial(func(float64) float64 { return 5 }))
	g.RegisterNode(a, 0)
	g.UnregisterNode(a, 0)

	got := g.ProcessSample(tokens.AudioRate, 0)
	if got != 0 {
		t.Errorf("channel sum after unregister = %v, want 0", got)
	}
}

func TestProcessChannelAdvancesEachSample(t *testing.T) {
	g := NewGraphManager()
	n := CreateNode(g, "sine", tokens.AudioRate, NewSine(48000, 440, 1, 0))
	g.RegisterNode(n, 0)

	block := g.ProcessChannel(tokens.AudioRate, 0, 8)
	if len(block) != 8 {
		t.Fatalf("got %d samples, want 8", len(block))
	}
	allZero := true
	for _, v := range block {
		if v != 0 {
			allZero = false
		}
	}
	if allZero {
		t.Error("expected a 440Hz sine to produce non-zero samples within 8 samples")
	}
}

func TestSharedModulatorEvaluatedOncePerBlock(t *testing.T) {
	g := NewGraphManager()
	calls := 0
	shared := CreateNode(g, "shared-mod", tokens.AudioRate, NewDirectPolynomial(func(float64) float64 {
		calls++
		return 1
	}))

	carrierA := CreateNode(g, "carrier-a", tokens.AudioRate, NewSine(48000, 100, 1, 0))
	carrierB := CreateNode(g, "carrier-b", tokens.AudioRate, NewSine(48000, 200, 1, 0))
	carrierA.SetModulator(1, shared)
	carrierB.SetModulator(1, shared)

	g.RegisterNode(carrierA, 0)
	g.RegisterNode(carrierB, 0)

	g.ProcessSample(tokens.AudioRate, 0)

	if calls != 1 {
		t.Errorf("shared modulator's kind ran %d times in one block, want 1", calls)
	}
}

func TestTokenMismatchIsSkipped(t *testing.T) {
	g := NewGraphManager()
	n := CreateNode(g, "visual", tokens.VisualRate, NewDirectPolynomial(func(float64) float64 { return 99 }))
	g.RegisterNode(n, 0)

	got := g.ProcessSample(tokens.AudioRate, 0)
	if got != 0 {
		t.Errorf("audio-rate query summed a visual-rate node: got %v, want 0", got)
	}
}
