// SPDX-License-Identifier: MIT
package backend

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestFrameTickerCallsOnFrameRepeatedly(t *testing.T) {
	var count atomic.Int32
	ft := NewFrameTicker(200, func() { count.Add(1) })

	ft.Start()
	time.Sleep(60 * time.Millisecond)
	ft.Stop()

	if got := count.Load(); got < 2 {
		t.Errorf("onFrame called %d times in 60ms at 200fps, want at least 2", got)
	}
}

func TestFrameTickerStartIsIdempotent(t *testing.T) {
	var count atomic.Int32
	ft := NewFrameTicker(500, func() { count.Add(1) })

	ft.Start()
	ft.Start() // should be a no-op, not a second goroutine racing the ticker
	time.Sleep(20 * time.Millisecond)
	ft.Stop()
	ft.Stop() // idempotent
}

func TestFrameTickerDefaultsInvalidFPS(t *testing.T) {
	ft := NewFrameTicker(0, func() {})
	if ft.interval <= 0 {
		t.Fatalf("interval = %v, want positive default", ft.interval)
	}
}
