// SPDX-License-Identifier: MIT
package tokens

import "testing"

func TestDomainRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		domain Domain
		node   NodeToken
		buffer BufferToken
		task   TaskToken
	}{
		{"audio", Audio, AudioRate, AudioBackend, SampleAccurate},
		{"graphics", Graphics, VisualRate, GraphicsBackend, FrameAccurate},
		{"windowing", Windowing, VisualRate, WindowEvents, FrameAccurate},
		{"input-events", InputEvents, CustomRate, WindowEvents, EventDriven},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.domain.NodeToken(); got != tt.node {
				t.Errorf("NodeToken() = %v, want %v", got, tt.node)
			}
			if got := tt.domain.BufferToken(); got != tt.buffer {
				t.Errorf("BufferToken() = %v, want %v", got, tt.buffer)
			}
			if got := tt.domain.TaskToken(); got != tt.task {
				t.Errorf("TaskToken() = %v, want %v", got, tt.task)
			}
		})
	}
}

func TestIsDomainValidRejectsFrameRateAudioNodes(t *testing.T) {
	bad := ComposeDomain(AudioRate, FrameRate, SampleAccurate)
	if IsDomainValid(bad) {
		t.Error("expected AUDIO_RATE node + FRAME_RATE buffer domain to be invalid")
	}
}

func TestIsDomainValidRejectsSequentialParallelMix(t *testing.T) {
	bad := ComposeDomain(CustomRate, Sequential|Parallel, OnDemand)
	if IsDomainValid(bad) {
		t.Error("expected SEQUENTIAL|PARALLEL buffer domain to be invalid")
	}
}

func TestNewCustomDomainValidation(t *testing.T) {
	if _, err := NewCustomDomain(AudioRate, FrameRate, SampleAccurate); err == nil {
		t.Error("expected error for incompatible custom domain")
	}
	d, err := NewCustomDomain(CustomRate, SampleRate|CPU|Sequential, OnDemand)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != CustomOnDemand {
		t.Errorf("got %v, want %v", d, CustomOnDemand)
	}
}

func TestAreTokensCompatible(t *testing.T) {
	tests := []struct {
		name      string
		preferred BufferToken
		candidate BufferToken
		want      bool
	}{
		{"same-backend", AudioBackend, AudioBackend, true},
		{"sample-vs-frame", SampleRate, FrameRate, false},
		{"cpu-vs-gpu", CPU, GPU, false},
		{"sequential-vs-parallel", Sequential, Parallel, false},
		{"compatible-mix", SampleRate | CPU, SampleRate | CPU | Sequential, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AreTokensCompatible(tt.preferred, tt.candidate); got != tt.want {
				t.Errorf("AreTokensCompatible(%v, %v) = %v, want %v", tt.preferred, tt.candidate, got, tt.want)
			}
		})
	}
}
