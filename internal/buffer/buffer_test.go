// SPDX-License-Identifier: MIT
package buffer

import (
	"math"
	"testing"

	"mayaflux/internal/node"
	"mayaflux/internal/tokens"
)

func TestRootBufferEmptyGraphIsZero(t *testing.T) {
	root := NewRootBuffer(0, 16, tokens.AudioBackend, tokens.Strict)
	root.ProcessDefault()
	for i, s := range root.Data() {
		if s != 0 {
			t.Fatalf("sample %d = %v, want 0 for an empty graph", i, s)
		}
	}
}

func TestRootBufferOneChildZeroNodeOutputEqualsChild(t *testing.T) {
	root := NewRootBuffer(0, 4, tokens.AudioBackend, tokens.Strict)
	child := NewNodeBuffer(0, 4, nil, false)
	child.Data()[0], child.Data()[1], child.Data()[2], child.Data()[3] = 0.1, 0.2, -0.1, 0.05

	if err := root.AddChild(child); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	root.ProcessDefault()

	want := []float64{0.1, 0.2, -0.1, 0.05}
	got := root.Data()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

// Scenario 2 of the spec's end-to-end scenarios: two 0.7-amplitude sines
// connected to channel 0 at mix=1.0 each peak at 1.4 before limiting;
// the soft-knee limiter must bring every sample to within [-1, 1].
func TestLimiterEngagementClampsSummedSines(t *testing.T) {
	const sampleRate = 48000.0
	const blockSize = 512

	sineA := node.New("sineA", tokens.AudioRate, node.NewSine(sampleRate, 440, 0.7, 0))
	sineB := node.New("sineB", tokens.AudioRate, node.NewSine(sampleRate, 440, 0.7, 0))

	m := NewManager(1, blockSize)
	if _, err := m.ConnectNodeToChannel(sineA, 0, 1.0, false); err != nil {
		t.Fatalf("ConnectNodeToChannel A: %v", err)
	}
	if _, err := m.ConnectNodeToChannel(sineB, 0, 1.0, false); err != nil {
		t.Fatalf("ConnectNodeToChannel B: %v", err)
	}

	if err := m.ProcessChannel(0); err != nil {
		t.Fatalf("ProcessChannel: %v", err)
	}

	root, _ := m.Channel(0)
	peak := 0.0
	for i, s := range root.Data() {
		if s > 1.0 || s < -1.0 {
			t.Fatalf("sample %d = %v exceeds the [-1, 1] ceiling", i, s)
		}
		peak = math.Max(peak, math.Abs(s))
	}
	// Unlimited, the sum peaks at 1.4; the soft knee scales anything above
	// 0.9 by a factor that reaches 0 at 1.0, so no output exceeds the knee.
	if peak > 0.9+1e-12 || peak < 0.5 {
		t.Errorf("peak |sample| = %v, want within [0.5, 0.9]: the limiter must fold the 1.4 summed peak back under the 0.9 knee", peak)
	}
}

func TestManyChildrenClippingNeverExceedsCeiling(t *testing.T) {
	root := NewRootBuffer(0, 8, tokens.AudioBackend, tokens.Ignore)
	for c := 0; c < 5; c++ {
		child := NewNodeBuffer(0, 8, nil, false)
		for i := range child.Data() {
			child.Data()[i] = 10.0
		}
		if err := root.AddChild(child); err != nil {
			t.Fatalf("AddChild %d: %v", c, err)
		}
	}
	root.ProcessDefault()
	for i, s := range root.Data() {
		if s > 1.0 || s < -1.0 {
			t.Errorf("sample %d = %v exceeds ceiling", i, s)
		}
	}
}

// Scenario 6: a root configured STRICT/AUDIO_BACKEND must reject a
// child whose default processor token is GRAPHICS_BACKEND, leaving its
// child count unchanged.
func TestTokenMismatchRejectionUnderStrict(t *testing.T) {
	root := NewRootBuffer(0, 4, tokens.AudioBackend, tokens.Strict)
	mismatched := NewNodeBuffer(0, 4, nil, false).WithToken(tokens.GraphicsBackend)

	err := root.AddChild(mismatched)
	if err == nil {
		t.Fatal("expected AddChild to reject a GRAPHICS_BACKEND child under STRICT/AUDIO_BACKEND")
	}
	if root.NumChildren() != 0 {
		t.Errorf("child count = %d, want 0 after rejection", root.NumChildren())
	}
}

func TestFilteredModeAcceptsCompatibleToken(t *testing.T) {
	root := NewRootBuffer(0, 4, tokens.AudioBackend, tokens.Filtered)
	// Same rate/device/concurrency bits as AudioBackend plus an extra
	// WindowEvents bit AreTokensCompatible never inspects: STRICT would
	// reject this (not an exact match) but FILTERED should accept it.
	nearMatch := NewNodeBuffer(0, 4, nil, false).WithToken(tokens.AudioBackend | tokens.WindowEvents)

	if err := root.AddChild(nearMatch); err != nil {
		t.Fatalf("expected a near-match token to be FILTERED-compatible: %v", err)
	}
	if root.NumChildren() != 1 {
		t.Errorf("child count = %d, want 1", root.NumChildren())
	}
}

func TestSoftKneeLimiterIdempotent(t *testing.T) {
	data := []float64{0.95, -0.99, 0.5, 1.5, -2.0}
	SoftKneeLimit(data)
	once := append([]float64(nil), data...)
	SoftKneeLimit(data)
	for i := range once {
		if math.Abs(data[i]-once[i]) > 1e-12 {
			t.Errorf("sample %d changed on second limiter pass: %v -> %v", i, once[i], data[i])
		}
	}
}

func TestFeedbackBufferMixesPreviousBlock(t *testing.T) {
	fb := NewFeedbackBuffer(0, 2, 0.5)
	fb.Data()[0], fb.Data()[1] = 1.0, 1.0
	fb.ProcessDefault() // previous starts at zero: output unchanged, previous becomes [1, 1]

	fb.Data()[0], fb.Data()[1] = 0.2, 0.2
	fb.ProcessDefault() // output = input + 0.5*previous = 0.2 + 0.5*1.0 = 0.7

	want := 0.7
	for i, s := range fb.Data() {
		if math.Abs(s-want) > 1e-9 {
			t.Errorf("sample %d = %v, want %v", i, s, want)
		}
	}
}

func TestPolynomialProcessorBatchModeResetsHistoryPerBuffer(t *testing.T) {
	poly := node.NewHistoryPolynomial(node.Recursive, func(buf []float64) float64 {
		sum := 0.0
		for _, v := range buf {
			sum += v
		}
		return sum
	}, 3)
	proc := NewPolynomialProcessor(poly, Batch, 0)

	root := NewRootBuffer(0, 2, tokens.AudioBackend, tokens.Ignore)
	root.Data()[0], root.Data()[1] = 1.0, 1.0
	proc.Process(root)

	if root.Data()[0] != 1.0 {
		t.Errorf("first sample = %v, want 1.0 (fresh history)", root.Data()[0])
	}
	if root.Data()[1] != 2.0 {
		t.Errorf("second sample = %v, want 2.0 (1.0 input + 1.0 fed back)", root.Data()[1])
	}
}

func TestInputBufferDispatchesToListeners(t *testing.T) {
	in := NewInputBuffer(0, 3)
	listenerA := NewNodeBuffer(0, 3, nil, false)
	listenerB := NewNodeBuffer(0, 3, nil, false)
	in.RegisterListener(listenerA)
	in.RegisterListener(listenerB)

	in.WriteBlock([]float64{0.1, 0.2, 0.3})

	for _, l := range []*NodeBuffer{listenerA, listenerB} {
		got := l.Data()
		want := []float64{0.1, 0.2, 0.3}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("listener sample %d = %v, want %v", i, got[i], want[i])
			}
		}
	}
}

func TestInputBufferUnregisterStopsDispatch(t *testing.T) {
	in := NewInputBuffer(0, 2)
	listener := NewNodeBuffer(0, 2, nil, false)
	in.RegisterListener(listener)
	in.UnregisterListener(listener)

	in.WriteBlock([]float64{0.5, 0.5})

	for i, s := range listener.Data() {
		if s != 0 {
			t.Errorf("unregistered listener sample %d = %v, want untouched 0", i, s)
		}
	}
}
