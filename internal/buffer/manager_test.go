// SPDX-License-Identifier: MIT
package buffer

import (
	"testing"

	"mayaflux/internal/tokens"
)

func TestCreateSpecializedBufferAttachesToChannelRoot(t *testing.T) {
	m := NewManager(2, 8)

	child, err := CreateSpecializedBuffer(m, 0, func() *FeedbackBuffer {
		return NewFeedbackBuffer(0, 8, 0.3)
	})
	if err != nil {
		t.Fatalf("CreateSpecializedBuffer: %v", err)
	}

	root, _ := m.Channel(0)
	if root.NumChildren() != 1 {
		t.Fatalf("channel 0 child count = %d, want 1", root.NumChildren())
	}
	if root.Children()[0] != Buffer(child) {
		t.Error("attached child is not the buffer CreateSpecializedBuffer returned")
	}
}

func TestCreateSpecializedBufferRejectsOutOfRangeChannel(t *testing.T) {
	m := NewManager(1, 8)
	_, err := CreateSpecializedBuffer(m, 5, func() *FeedbackBuffer {
		return NewFeedbackBuffer(5, 8, 0.3)
	})
	if err == nil {
		t.Fatal("expected an out-of-range channel index to error")
	}
}

func TestFillInterleavedRoundTrip(t *testing.T) {
	m := NewManager(2, 4)
	root0, _ := m.Channel(0)
	root1, _ := m.Channel(1)
	for i := uint32(0); i < 4; i++ {
		root0.SetSample(i, float64(i)/10)
		root1.SetSample(i, -float64(i)/10)
	}

	interleaved := make([]float64, 8)
	m.FillInterleaved(interleaved, 4)

	want := []float64{0, 0, 0.1, -0.1, 0.2, -0.2, 0.3, -0.3}
	for i := range want {
		if interleaved[i] != want[i] {
			t.Errorf("interleaved[%d] = %v, want %v", i, interleaved[i], want[i])
		}
	}

	m2 := NewManager(2, 4)
	m2.FillFromInterleaved(interleaved, 4)
	r0, _ := m2.Channel(0)
	r1, _ := m2.Channel(1)
	for i := uint32(0); i < 4; i++ {
		if r0.Sample(i) != root0.Sample(i) {
			t.Errorf("channel 0 sample %d = %v, want %v", i, r0.Sample(i), root0.Sample(i))
		}
		if r1.Sample(i) != root1.Sample(i) {
			t.Errorf("channel 1 sample %d = %v, want %v", i, r1.Sample(i), root1.Sample(i))
		}
	}
}

func TestProcessAudioInputDispatchesToListener(t *testing.T) {
	m := NewManager(1, 4)
	in := m.RegisterInput(0, 4)
	listener := NewNodeBuffer(0, 4, nil, false)
	in.RegisterListener(listener)

	if err := m.ProcessAudioInput(0, []float64{0.1, 0.2, 0.3, 0.4}); err != nil {
		t.Fatalf("ProcessAudioInput: %v", err)
	}

	want := []float64{0.1, 0.2, 0.3, 0.4}
	for i, s := range listener.Data() {
		if s != want[i] {
			t.Errorf("listener sample %d = %v, want %v", i, s, want[i])
		}
	}
}

func TestProcessAudioInputUnknownChannelErrors(t *testing.T) {
	m := NewManager(1, 4)
	if err := m.ProcessAudioInput(0, []float64{0, 0}); err == nil {
		t.Fatal("expected an error for a channel with no registered input buffer")
	}
}

func TestSetEnforcementStrategyChangesValidation(t *testing.T) {
	m := NewManager(1, 4)
	child := NewNodeBuffer(0, 4, nil, false).WithToken(tokens.GraphicsBackend)

	root, _ := m.Channel(0)
	if err := root.AddChild(child); err == nil {
		t.Fatal("expected STRICT default policy to reject a GRAPHICS_BACKEND child")
	}

	if err := m.SetEnforcementStrategy(0, tokens.Ignore); err != nil {
		t.Fatalf("SetEnforcementStrategy: %v", err)
	}
	if err := root.AddChild(child); err != nil {
		t.Fatalf("expected IGNORE policy to accept any child: %v", err)
	}
}
