// SPDX-License-Identifier: MIT
package backend

import (
	"math"
	"testing"
)

func TestNewRejectsNilOnBlock(t *testing.T) {
	if _, err := New(Config{DeviceID: DefaultDeviceID, Channels: 1, FramesPerBuffer: 64, SampleRate: 44100}, nil); err == nil {
		t.Fatal("expected a nil onBlock callback to error")
	}
}

// TestProcessNormalizesInt32ToFloat64 exercises the callback conversion
// logic directly against a hand-built Backend, bypassing New (which
// needs a real PortAudio device) the way the teacher's own
// processBuffer tests isolate DSP logic from stream setup.
func TestProcessNormalizesInt32ToFloat64(t *testing.T) {
	var got []float64
	var gotFrames int
	b := &Backend{
		config:      Config{Channels: 1, FramesPerBuffer: 4},
		rawBuffer:   make([]int32, 4),
		floatBuffer: make([]float64, 4),
		onBlock: func(input []float64, nframes int) {
			got = append([]float64(nil), input...)
			gotFrames = nframes
		},
	}

	in := []int32{0, math.MaxInt32, math.MinInt32, math.MaxInt32 / 2}
	b.process(in)

	if gotFrames != 4 {
		t.Fatalf("nframes = %d, want 4", gotFrames)
	}
	if got[0] != 0 {
		t.Errorf("got[0] = %v, want 0", got[0])
	}
	if math.Abs(got[1]-1.0) > 1e-9 {
		t.Errorf("got[1] = %v, want ~1.0", got[1])
	}
	if math.Abs(got[2]-(-1.0)) > 1e-9 {
		t.Errorf("got[2] = %v, want ~-1.0", got[2])
	}
	if math.Abs(got[3]-0.5) > 1e-4 {
		t.Errorf("got[3] = %v, want ~0.5", got[3])
	}
}

func TestProcessTruncatesOversizedInput(t *testing.T) {
	var gotFrames int
	b := &Backend{
		config:      Config{Channels: 2, FramesPerBuffer: 2},
		rawBuffer:   make([]int32, 4),
		floatBuffer: make([]float64, 4),
		onBlock: func(input []float64, nframes int) {
			gotFrames = nframes
		},
	}

	// PortAudio should never hand back more than FramesPerBuffer*Channels,
	// but process must not panic if it somehow did.
	in := make([]int32, 10)
	b.process(in)

	if gotFrames != 2 {
		t.Errorf("nframes = %d, want 2 (truncated to rawBuffer capacity)", gotFrames)
	}
}

func TestGateSkipsSilentBlocks(t *testing.T) {
	var called bool
	b := &Backend{
		config:      Config{Channels: 1, FramesPerBuffer: 4},
		rawBuffer:   make([]int32, 4),
		floatBuffer: make([]float64, 4),
		onBlock: func(input []float64, nframes int) {
			called = true
		},
	}
	b.EnableGate()
	b.SetGateThreshold(0.5)

	quiet := []int32{10, -10, 5, -5}
	b.process(quiet)
	if called {
		t.Error("process called onBlock for a block below the gate threshold")
	}

	loud := []int32{math.MaxInt32, 0, 0, 0}
	b.process(loud)
	if !called {
		t.Error("process did not call onBlock for a block above the gate threshold")
	}
}

func TestGateThresholdRoundTrip(t *testing.T) {
	b := &Backend{}
	b.SetGateThreshold(0.25)
	if math.Abs(b.GateThreshold()-0.25) > 1e-4 {
		t.Errorf("GateThreshold() = %v, want ~0.25", b.GateThreshold())
	}
	b.SetGateThreshold(-1)
	if b.GateThreshold() != 0 {
		t.Errorf("SetGateThreshold clamped low: got %v, want 0", b.GateThreshold())
	}
	b.SetGateThreshold(2)
	if math.Abs(b.GateThreshold()-1.0) > 1e-9 {
		t.Errorf("SetGateThreshold clamped high: got %v, want 1", b.GateThreshold())
	}
}
