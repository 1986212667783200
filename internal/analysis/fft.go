// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"mayaflux/internal/node"
	"mayaflux/pkg/bitint"
)

// FFTWindow turns a node's snapshot window into a magnitude spectrum,
// ported from the teacher's internal/fft.Processor: same pre-allocated
// workspace, same Hann window, same gonum.org/v1/gonum/dsp/fourier
// transform, generalized from "one audio callback's int32 buffer" to
// "one Window() pull of float64 samples from any node" (spec §4.11).
type FFTWindow struct {
	fftSize    int
	sampleRate float64

	fftObj    *fourier.FFT
	window    []float64
	input     []float64
	fftOutput []complex128
	magnitude []float64
}

// NewFFTWindow builds an FFT analyzer for fftSize-sample windows at
// sampleRate. fftSize must be a power of two (the teacher's own
// constraint, enforced with the same bitint helper it uses).
func NewFFTWindow(fftSize int, sampleRate float64) (*FFTWindow, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("analysis: FFT size %d must be a power of two", fftSize)
	}

	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}

	outputSize := fftSize/2 + 1
	return &FFTWindow{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		fftObj:     fourier.NewFFT(fftSize),
		window:     window,
		input:      make([]float64, fftSize),
		fftOutput:  make([]complex128, outputSize),
		magnitude:  make([]float64, outputSize),
	}, nil
}

// AnalyzeNode pulls a non-destructive fftSize-sample window from n via
// Window and returns its magnitude spectrum.
func (f *FFTWindow) AnalyzeNode(n *node.Node) ([]float64, error) {
	samples, err := Window(n, f.fftSize)
	if err != nil {
		return nil, err
	}
	return f.Analyze(samples), nil
}

// Analyze windows and transforms samples in place into the reused
// workspace buffers, returning the magnitude spectrum. samples longer
// than fftSize are truncated; shorter ones are zero-padded.
func (f *FFTWindow) Analyze(samples []float64) []float64 {
	for i := range f.input {
		if i < len(samples) {
			f.input[i] = samples[i] * f.window[i]
		} else {
			f.input[i] = 0
		}
	}

	_ = f.fftObj.Coefficients(f.fftOutput, f.input)
	for i, c := range f.fftOutput {
		f.magnitude[i] = cmplx.Abs(c)
	}
	return f.magnitude
}

// FrequencyBin returns the frequency in Hz for magnitude bin i.
func (f *FFTWindow) FrequencyBin(i int) float64 {
	if i < 0 || i >= len(f.fftOutput) {
		return 0
	}
	return f.fftObj.Freq(i) * f.sampleRate
}
