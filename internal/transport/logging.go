// SPDX-License-Identifier: MIT
package transport

import (
	applog "mayaflux/internal/log"
)

// LoggingTransport implements Transport by logging data through the
// engine's own internal/log rather than the teacher's direct stdlib
// log calls, so it picks up the configured level like everything else.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs a compact description of data. SpectrumFrame and
// RoutineEvent get their own summaries so logs stay readable instead of
// dumping a full magnitude slice every tick.
func (lt *LoggingTransport) Send(data any) error {
	switch v := data.(type) {
	case SpectrumFrame:
		applog.Debugf("transport: spectrum node=%s bins=%d", v.Node, len(v.Magnitudes))
	case RoutineEvent:
		applog.Debugf("transport: routine name=%s units=%d done=%v", v.Name, v.Units, v.Done)
	default:
		applog.Debugf("transport: send (%T): %+v", data, data)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Infof("transport: LoggingTransport closed")
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
