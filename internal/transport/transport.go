// SPDX-License-Identifier: MIT

// Package transport carries analysis output and scheduler events out of
// the engine to external observers. It is the teacher's
// internal/transport generalized from "ship one FFTProcessor's raw
// magnitudes" to "ship whatever the engine wants to publish": the same
// Transport interface, the same WebSocketTransport broadcast shape, and
// a LoggingTransport for development, now carrying SpectrumFrame
// (internal/analysis output) and RoutineEvent (internal/scheduler
// lifecycle) values instead of only int32 audio-callback buffers. The
// teacher's Processor/FFTResultProvider/DataProcessor interfaces had no
// caller even there (FFTResultProvider's own comment proposes methods
// it never gained) and nothing in this repo processes a raw []int32
// buffer outside internal/backend, so they are dropped rather than
// carried as further dead surface.
package transport

// Transport sends processed data or events to whatever is listening.
// Implementations must be safe for concurrent use: an analysis window
// reader and a scheduler routine may both call Send at any time.
type Transport interface {
	Send(data any) error
	Close() error
}

// SpectrumFrame is what internal/analysis publishes after each window:
// a named node's magnitude spectrum plus enough metadata to read bins
// back into Hz on the receiving end.
type SpectrumFrame struct {
	Node        string    `json:"node"`
	SampleRate  float64   `json:"sample_rate"`
	FFTSize     int       `json:"fft_size"`
	Magnitudes  []float64 `json:"magnitudes"`
	TimestampNs int64     `json:"timestamp_ns"`
}

// RoutineEvent reports a scheduler.Routine's body actually having run
// (spec §8 scenario 3's metro callback): Done marks its final firing.
type RoutineEvent struct {
	Name        string `json:"name"`
	Token       string `json:"token"`
	Units       uint64 `json:"units"`
	Done        bool   `json:"done"`
	TimestampNs int64  `json:"timestamp_ns"`
}
