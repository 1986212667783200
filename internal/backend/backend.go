// SPDX-License-Identifier: MIT
package backend

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/gordonklaus/portaudio"

	applog "mayaflux/internal/log"
)

// Config describes how to open the input stream, ported from the
// teacher's engine.go constructor fields.
type Config struct {
	DeviceID        int
	SampleRate      float64
	Channels        int
	FramesPerBuffer int
	LowLatency      bool
}

// OnBlockFunc is spec §6's on_block contract: input holds
// FramesPerBuffer*Channels samples, already converted from the
// platform's int32 PCM to float64 in [-1, 1], interleaved by channel.
// Implementations must not block or allocate — this runs on PortAudio's
// dedicated callback thread.
type OnBlockFunc func(input []float64, nframes int)

// Backend owns one PortAudio input stream and converts its int32
// callback buffer into the float64 samples the node graph/buffer
// pipeline operate on (internal/node, internal/buffer use float64
// throughout; only this boundary touches int32 PCM).
type Backend struct {
	config  Config
	device  *portaudio.DeviceInfo
	latency time.Duration
	stream  *portaudio.Stream
	onBlock OnBlockFunc

	gateEnabled   bool
	gateThreshold int32 // absolute amplitude threshold, 0..math.MaxInt32

	rawBuffer   []int32
	floatBuffer []float64
}

// EnableGate/DisableGate toggle the noise gate that process checks
// before calling onBlock, skipping silent blocks entirely.
func (b *Backend) EnableGate()  { b.gateEnabled = true }
func (b *Backend) DisableGate() { b.gateEnabled = false }

// SetGateThreshold sets the noise gate threshold as a fraction of full
// scale in [0, 1]. A block passes only if its peak amplitude exceeds the
// threshold, so 0 passes every block that is not entirely silent and 1
// closes the gate for every block.
func (b *Backend) SetGateThreshold(threshold float64) {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	b.gateThreshold = int32(threshold * math.MaxInt32)
}

// GateThreshold returns the current threshold as a fraction of full scale.
func (b *Backend) GateThreshold() float64 {
	return float64(b.gateThreshold) / math.MaxInt32
}

// New resolves cfg.DeviceID to a device and prepares (but does not
// open) a Backend. onBlock must be non-nil.
func New(cfg Config, onBlock OnBlockFunc) (*Backend, error) {
	if onBlock == nil {
		return nil, fmt.Errorf("backend: onBlock callback cannot be nil")
	}

	device, err := InputDevice(cfg.DeviceID)
	if err != nil {
		return nil, err
	}

	latency := device.DefaultHighInputLatency
	if cfg.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	size := cfg.FramesPerBuffer * cfg.Channels
	return &Backend{
		config:      cfg,
		device:      device,
		latency:     latency,
		onBlock:     onBlock,
		rawBuffer:   make([]int32, size),
		floatBuffer: make([]float64, size),
	}, nil
}

// Start initializes PortAudio and opens and starts the input stream.
func (b *Backend) Start() error {
	if err := Initialize(); err != nil {
		return fmt.Errorf("backend: initializing portaudio: %w", err)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: b.config.Channels,
			Device:   b.device,
			Latency:  b.latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: b.config.FramesPerBuffer,
		SampleRate:      b.config.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, b.process)
	if err != nil {
		Terminate()
		return fmt.Errorf("backend: opening stream: %w", err)
	}
	b.stream = stream

	if err := b.stream.Start(); err != nil {
		b.stream.Close()
		Terminate()
		return fmt.Errorf("backend: starting stream: %w", err)
	}

	return nil
}

// Stop stops and closes the stream and tears down PortAudio.
func (b *Backend) Stop() error {
	if b.stream == nil {
		return nil
	}
	if err := b.stream.Stop(); err != nil {
		return fmt.Errorf("backend: stopping stream: %w", err)
	}
	if err := b.stream.Close(); err != nil {
		return fmt.Errorf("backend: closing stream: %w", err)
	}
	b.stream = nil
	return Terminate()
}

// process is the PortAudio callback: it runs on a dedicated OS thread,
// normalizes int32 PCM to float64, and hands the block to onBlock.
// Performance critical — no allocations, no blocking, branchless gate.
func (b *Backend) process(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := len(in)
	if n > len(b.rawBuffer) {
		n = len(b.rawBuffer)
	}
	copy(b.rawBuffer, in[:n])

	if b.gateEnabled {
		var maxAmplitude int32
		for i := 0; i < n; i++ {
			sample := b.rawBuffer[i]
			mask := sample >> 31
			amplitude := (sample ^ mask) - mask
			diff := amplitude - maxAmplitude
			maxAmplitude += (diff & (diff >> 31)) ^ diff
		}
		if maxAmplitude <= b.gateThreshold {
			return
		}
	}

	for i := 0; i < n; i++ {
		b.floatBuffer[i] = float64(b.rawBuffer[i]) / math.MaxInt32
	}

	b.onBlock(b.floatBuffer[:n], n/b.config.Channels)
}

// Close is Stop by another name, for callers that track a generic
// io.Closer (e.g. a slice of transports and backends shut down together).
func (b *Backend) Close() error {
	if err := b.Stop(); err != nil {
		applog.Errorf("backend: close: %v", err)
		return err
	}
	return nil
}
