// SPDX-License-Identifier: MIT
package config

// The accessors below mirror the teacher's compat.go: flattened getters
// for call sites that only need one field instead of reaching through
// Config.Audio/.Transport.

func (c *Config) DeviceID() int { return c.Audio.InputDevice }

func (c *Config) Channels() int { return c.Audio.InputChannels }

func (c *Config) FramesPerBuffer() int { return c.Audio.FramesPerBuffer }

func (c *Config) SampleRate() float64 { return c.Audio.SampleRate }

func (c *Config) LowLatency() bool { return c.Audio.LowLatency }

func (c *Config) FFTSize() int { return c.Audio.FFTSize }
