// SPDX-License-Identifier: MIT
package buffer

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"mayaflux/internal/tokens"
)

// ContainerBuffer holds a fixed block of samples decoded from a WAV file
// and plays them back into the pipeline one ProcessDefault call at a
// time, looping once it reaches the end. It is the minimal reader-side
// backing for the spec's sound-file-container buffer type (spec §4.3);
// file I/O beyond "load one WAV into a buffer" is out of scope (spec §1).
type ContainerBuffer struct {
	Base

	samples []float64
	cursor  int
	Loop    bool
}

// LoadContainerBuffer decodes a mono or interleaved WAV stream from r,
// downmixing multi-channel files to mono by averaging channels, and
// returns a ContainerBuffer holding numSamples per ProcessDefault call.
func LoadContainerBuffer(channelID, numSamples uint32, r io.ReadSeeker) (*ContainerBuffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("buffer: not a valid WAV stream")
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("buffer: decoding WAV: %w", err)
	}

	chans := pcm.Format.NumChannels
	if chans <= 0 {
		chans = 1
	}
	frames := len(pcm.Data) / chans
	samples := make([]float64, frames)
	maxAmp := float64(int(1) << uint(pcm.SourceBitDepth-1))
	if maxAmp <= 0 {
		maxAmp = 1 << 15
	}
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < chans; c++ {
			sum += float64(pcm.Data[i*chans+c])
		}
		samples[i] = (sum / float64(chans)) / maxAmp
	}

	return &ContainerBuffer{
		Base:    NewBase(channelID, numSamples),
		samples: samples,
		Loop:    true,
	}, nil
}

func (b *ContainerBuffer) DefaultProcessorToken() (tokens.BufferToken, bool) { return 0, false }

// ProcessDefault copies the next NumSamples() samples from the decoded
// container into the buffer's array, wrapping around (or padding with
// silence once exhausted, if Loop is false).
func (b *ContainerBuffer) ProcessDefault() {
	data := b.Data()
	if len(b.samples) == 0 {
		for i := range data {
			data[i] = 0
		}
		runChain(b, b.Processors())
		return
	}

	for i := range data {
		if b.cursor >= len(b.samples) {
			if !b.Loop {
				data[i] = 0
				continue
			}
			b.cursor = 0
		}
		data[i] = b.samples[b.cursor]
		b.cursor++
	}

	runChain(b, b.Processors())
}

// Rewind resets playback to the start of the decoded data.
func (b *ContainerBuffer) Rewind() { b.cursor = 0 }
