// SPDX-License-Identifier: MIT
package backend

import (
	"fmt"
	"math"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder taps an OnBlockFunc stream and writes it to a WAV file. It
// is the teacher's Engine.StartRecording/StopRecording (recording.go)
// and its wavEncoder/sampleBuf fields, pulled out of the engine and
// adapted to this repo's float64-only on_block contract: the teacher
// wrote the raw int32 callback buffer straight to the encoder, so here
// Write rescales the already-converted float64 block back to int32 at
// the WAV boundary instead.
type Recorder struct {
	sampleRate int
	channels   int

	recording atomic.Bool
	file      *os.File
	encoder   *wav.Encoder
	sampleBuf *audio.IntBuffer
}

func NewRecorder(sampleRate, channels int) *Recorder {
	return &Recorder{sampleRate: sampleRate, channels: channels}
}

// Start opens path and begins encoding 32-bit PCM WAV frames.
func (r *Recorder) Start(path string) error {
	if r.recording.Load() {
		return fmt.Errorf("backend: already recording")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("backend: creating %q: %w", path, err)
	}

	r.file = file
	r.encoder = wav.NewEncoder(file, r.sampleRate, 32, r.channels, 1)
	r.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{NumChannels: r.channels, SampleRate: r.sampleRate},
	}
	r.recording.Store(true)
	return nil
}

// Stop closes the encoder and output file. A no-op if not recording.
func (r *Recorder) Stop() error {
	if !r.recording.Swap(false) {
		return nil
	}
	if r.encoder != nil {
		if err := r.encoder.Close(); err != nil {
			return fmt.Errorf("backend: closing wav encoder: %w", err)
		}
		r.encoder = nil
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return fmt.Errorf("backend: closing output file: %w", err)
		}
		r.file = nil
	}
	return nil
}

// Write encodes one block of samples if recording is active, silently
// no-oping otherwise so callers can tap every block unconditionally.
func (r *Recorder) Write(samples []float64, nframes int) {
	if !r.recording.Load() || r.encoder == nil {
		return
	}

	data := r.sampleBuf.Data
	if cap(data) < len(samples) {
		data = make([]int, len(samples))
	}
	data = data[:len(samples)]
	for i, s := range samples {
		data[i] = int(s * math.MaxInt32)
	}
	r.sampleBuf.Data = data

	if err := r.encoder.Write(r.sampleBuf); err != nil {
		// A failed write stops recording, so later Write calls return
		// early instead of tearing down the audio callback; the error
		// itself is not logged.
		r.recording.Store(false)
	}
}

// Tap returns an OnBlockFunc calling onBlock then r.Write, so Backend's
// single-callback design can carry a recorder without knowing it exists.
func Tap(onBlock OnBlockFunc, r *Recorder) OnBlockFunc {
	return func(input []float64, nframes int) {
		onBlock(input, nframes)
		r.Write(input, nframes)
	}
}
