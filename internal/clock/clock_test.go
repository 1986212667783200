// SPDX-License-Identifier: MIT
package clock

import "testing"

func TestSampleClockTickAdditivity(t *testing.T) {
	a := NewSampleClock(48000)
	a.Tick(100)
	a.Tick(50)

	b := NewSampleClock(48000)
	b.Tick(150)

	if a.Position() != b.Position() {
		t.Errorf("tick(100);tick(50) = %d, want tick(150) = %d", a.Position(), b.Position())
	}
}

func TestSampleClockSecondsRoundTrip(t *testing.T) {
	c := NewSampleClock(48000)
	samples := c.SecondsToSamples(1.0)
	if samples != 48000 {
		t.Fatalf("SecondsToSamples(1.0) = %d, want 48000", samples)
	}
	c.Tick(samples)
	if got, want := c.Seconds(), 1.0; got != want {
		t.Errorf("Seconds() = %v, want %v", got, want)
	}
}

func TestCustomClockUnitName(t *testing.T) {
	c := NewCustomClock(1000, "events")
	if c.UnitName() != "events" {
		t.Errorf("UnitName() = %q, want %q", c.UnitName(), "events")
	}
	c.Tick(500)
	if got, want := c.Seconds(), 0.5; got != want {
		t.Errorf("Seconds() = %v, want %v", got, want)
	}
}

func TestCustomClockDefaults(t *testing.T) {
	c := NewCustomClock(0, "")
	if c.Rate() != 1000 {
		t.Errorf("default rate = %d, want 1000", c.Rate())
	}
	if c.UnitName() != "units" {
		t.Errorf("default unit name = %q, want %q", c.UnitName(), "units")
	}
}

func TestFrameClockForcedTick(t *testing.T) {
	c := NewFrameClock(60)
	c.Tick(10)
	if c.Position() != 10 {
		t.Errorf("Position() = %d, want 10", c.Position())
	}
	if c.Rate() != 60 {
		t.Errorf("Rate() = %d, want 60", c.Rate())
	}
}

func TestFrameClockReset(t *testing.T) {
	c := NewFrameClock(30)
	c.Tick(5)
	c.Reset()
	if c.Position() != 0 {
		t.Errorf("Position() after Reset() = %d, want 0", c.Position())
	}
}
