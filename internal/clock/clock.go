// SPDX-License-Identifier: MIT

// Package clock implements the monotonic position counters that back each
// processing domain: a sample-accurate clock driven by the audio callback,
// a self-advancing frame clock for the graphics thread, and a configurable
// clock for custom domains.
package clock

import (
	"math"
	"sync/atomic"
	"time"
)

// Clock is the common interface the scheduler drives each domain through.
type Clock interface {
	// Tick advances the clock by units domain-specific positions.
	Tick(units uint64)
	// Position returns the current monotonic position.
	Position() uint64
	// Seconds converts the current position to elapsed seconds.
	Seconds() float64
	// Rate returns units-per-second for this clock.
	Rate() uint32
	// Reset returns the clock to position zero.
	Reset()
}

// SampleClock advances strictly by samples handed to it from the audio
// callback; it never advances itself from wall-clock time.
type SampleClock struct {
	sampleRate uint32
	position   atomic.Uint64
}

func NewSampleClock(sampleRate uint32) *SampleClock {
	if sampleRate == 0 {
		sampleRate = 48000
	}
	return &SampleClock{sampleRate: sampleRate}
}

func (c *SampleClock) Tick(samples uint64) { c.position.Add(samples) }
func (c *SampleClock) Position() uint64    { return c.position.Load() }
func (c *SampleClock) Seconds() float64    { return float64(c.Position()) / float64(c.sampleRate) }
func (c *SampleClock) Rate() uint32        { return c.sampleRate }
func (c *SampleClock) Reset()              { c.position.Store(0) }

// SecondsToSamples converts a duration in seconds to a sample count at this
// clock's rate (spec §3.5's seconds_to_units).
func (c *SampleClock) SecondsToSamples(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(seconds * float64(c.sampleRate))
}

// FrameClock self-advances from wall-clock elapsed time toward a target FPS.
// tick() is called from the graphics thread only; Position reads are safe
// from any thread.
type FrameClock struct {
	targetFPS    atomic.Uint32
	frame        atomic.Uint64
	measuredFPS  atomic.Uint64 // bits of a float64, exponentially smoothed
	startTime    time.Time
	lastTickTime time.Time
	fpsAlpha     float64
}

const fpsSmoothingAlpha = 0.1

func NewFrameClock(targetFPS uint32) *FrameClock {
	if targetFPS == 0 {
		targetFPS = 60
	}
	now := time.Now()
	c := &FrameClock{startTime: now, lastTickTime: now, fpsAlpha: fpsSmoothingAlpha}
	c.targetFPS.Store(targetFPS)
	return c
}

// Tick advances the clock. If forcedFrames is nonzero it is used directly
// (useful for tests); otherwise elapsed wall-clock time since the last tick
// determines how many frames have passed.
func (c *FrameClock) Tick(forcedFrames uint64) {
	now := time.Now()
	if forcedFrames != 0 {
		c.frame.Add(forcedFrames)
		c.updateMeasuredFPS(now, forcedFrames)
		c.lastTickTime = now
		return
	}

	elapsed := now.Sub(c.lastTickTime)
	frameDuration := c.frameDuration()
	if frameDuration <= 0 {
		return
	}
	elapsedFrames := uint64(elapsed / frameDuration)
	if elapsedFrames == 0 {
		return
	}
	c.frame.Add(elapsedFrames)
	c.updateMeasuredFPS(now, elapsedFrames)
	c.lastTickTime = now
}

func (c *FrameClock) updateMeasuredFPS(now time.Time, frames uint64) {
	dt := now.Sub(c.lastTickTime).Seconds()
	if dt <= 0 || frames == 0 {
		return
	}
	instantaneous := float64(frames) / dt
	prev := c.GetMeasuredFPS()
	smoothed := prev + c.fpsAlpha*(instantaneous-prev)
	c.measuredFPS.Store(math.Float64bits(smoothed))
}

func (c *FrameClock) frameDuration() time.Duration {
	fps := c.targetFPS.Load()
	if fps == 0 {
		return 0
	}
	return time.Second / time.Duration(fps)
}

func (c *FrameClock) Position() uint64 { return c.frame.Load() }
func (c *FrameClock) Seconds() float64 { return float64(c.Position()) / float64(c.Rate()) }
func (c *FrameClock) Rate() uint32     { return c.targetFPS.Load() }

func (c *FrameClock) Reset() {
	c.frame.Store(0)
	c.startTime = time.Now()
	c.lastTickTime = c.startTime
	c.measuredFPS.Store(0)
}

func (c *FrameClock) GetMeasuredFPS() float64 { return math.Float64frombits(c.measuredFPS.Load()) }

// SetTargetFPS adjusts the target frame rate at runtime.
func (c *FrameClock) SetTargetFPS(fps uint32) { c.targetFPS.Store(fps) }

// IsFrameLate reports whether wall-clock time has moved past when the next
// frame should have ticked.
func (c *FrameClock) IsFrameLate() bool {
	fd := c.frameDuration()
	if fd <= 0 {
		return false
	}
	return time.Since(c.lastTickTime) > fd
}

// FrameLag returns how many frames behind schedule the clock currently is.
func (c *FrameClock) FrameLag() uint64 {
	fd := c.frameDuration()
	if fd <= 0 {
		return 0
	}
	behind := time.Since(c.lastTickTime)
	if behind <= fd {
		return 0
	}
	return uint64(behind / fd)
}

// CustomClock is a configurable clock for domains that don't fit the audio
// or frame pattern: arbitrary rate, arbitrary unit name.
type CustomClock struct {
	rate     uint64
	unitName string
	position atomic.Uint64
}

func NewCustomClock(rate uint64, unitName string) *CustomClock {
	if rate == 0 {
		rate = 1000
	}
	if unitName == "" {
		unitName = "units"
	}
	return &CustomClock{rate: rate, unitName: unitName}
}

func (c *CustomClock) Tick(units uint64) { c.position.Add(units) }
func (c *CustomClock) Position() uint64  { return c.position.Load() }
func (c *CustomClock) Seconds() float64  { return float64(c.Position()) / float64(c.rate) }
func (c *CustomClock) Rate() uint32      { return uint32(c.rate) }
func (c *CustomClock) Reset()            { c.position.Store(0) }
func (c *CustomClock) UnitName() string  { return c.unitName }
