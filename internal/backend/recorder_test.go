// SPDX-License-Identifier: MIT
package backend

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecorderWriteNoopWhenNotStarted(t *testing.T) {
	r := NewRecorder(44100, 1)
	// Should not panic despite no Start call.
	r.Write([]float64{0.1, 0.2}, 2)
}

func TestRecorderStartWriteStopProducesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")

	r := NewRecorder(44100, 1)
	if err := r.Start(path); err != nil {
		t.Fatalf("Start: %v", err)
	}

	r.Write([]float64{0, 0.5, -0.5, 1, -1}, 5)

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %q: %v", path, err)
	}
	if info.Size() == 0 {
		t.Errorf("wav file is empty")
	}
}

func TestRecorderStartTwiceErrors(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(44100, 1)
	if err := r.Start(filepath.Join(dir, "a.wav")); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	if err := r.Start(filepath.Join(dir, "b.wav")); err == nil {
		t.Fatal("expected second Start to error while already recording")
	}
}

func TestRecorderStopWithoutStartIsNoop(t *testing.T) {
	r := NewRecorder(44100, 1)
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop without Start: %v", err)
	}
}

func TestTapCallsBothOnBlockAndRecorder(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(44100, 1)
	if err := r.Start(filepath.Join(dir, "tap.wav")); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	var onBlockCalled bool
	tapped := Tap(func(input []float64, nframes int) {
		onBlockCalled = true
	}, r)

	tapped([]float64{0.1, 0.2, 0.3}, 3)

	if !onBlockCalled {
		t.Error("Tap did not call the wrapped onBlock")
	}
}
