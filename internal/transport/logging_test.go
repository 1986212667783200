// SPDX-License-Identifier: MIT
package transport

import "testing"

func TestLoggingTransportNeverErrors(t *testing.T) {
	lt := NewLoggingTransport()

	cases := []any{
		SpectrumFrame{Node: "sine", SampleRate: 48000, FFTSize: 1024, Magnitudes: []float64{1, 2, 3}},
		RoutineEvent{Name: "metro", Units: 10, Done: false},
		"a plain string",
		42,
	}
	for _, c := range cases {
		if err := lt.Send(c); err != nil {
			t.Errorf("Send(%T) = %v, want nil", c, err)
		}
	}

	if err := lt.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}
