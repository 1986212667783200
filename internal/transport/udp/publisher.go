// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "mayaflux/internal/log"
)

// MagnitudeSource supplies the latest magnitude spectrum for a
// Publisher tick. It decouples this package from internal/analysis's
// concrete FFTWindow type — callers typically close over
// FFTWindow.AnalyzeNode for one node, e.g.:
//
//	pub, _ := udp.NewUDPPublisher(16*time.Millisecond, sender, fftSize,
//	    func() ([]float64, error) { return fftWindow.AnalyzeNode(sineNode) })
type MagnitudeSource func() ([]float64, error)

// UDPPublisher periodically pulls a magnitude spectrum from a
// MagnitudeSource, packs it into a fixed binary frame, and sends it
// over UDP using a Sender. It runs in a separate goroutine managed by
// Start and Stop.
type UDPPublisher struct {
	sender   *UDPSender
	source   MagnitudeSource
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	sequenceNum uint32

	// Pre-allocated buffers to reduce allocations in the hot path
	// (buildAndSendPacket). udpF32Buffer is resized (not reallocated
	// on every call) only if a source ever returns a different length.
	udpF32Buffer []float32
	packetBuffer *bytes.Buffer
}

// NewUDPPublisher creates and initializes a new UDPPublisher. fftBins
// sizes the initial float32 buffer (N/2+1 bins, matching
// analysis.NewFFTWindow's output length for a given fftSize); an
// interval <= 0 defaults to 16ms (~60Hz).
func NewUDPPublisher(interval time.Duration, sender *UDPSender, fftBins int, source MagnitudeSource) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("UDPPublisher: magnitude source cannot be nil")
	}

	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDPPublisher: invalid interval, defaulting to %s", interval)
	}

	applog.Infof("UDPPublisher: initializing (interval: %s, bins: %d)", interval, fftBins)

	return &UDPPublisher{
		sender:       sender,
		source:       source,
		interval:     interval,
		udpF32Buffer: make([]float32, fftBins),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start begins the periodic publishing process. It is safe to call
// multiple times; subsequent calls are no-ops if already running.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDPPublisher: publisher goroutine started (interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				applog.Infof("UDPPublisher: publisher goroutine received stop signal")
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it
// to exit. Safe to call multiple times.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		applog.Debugf("UDPPublisher: Stop called but not running")
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDPPublisher: publisher goroutine finished")
	return nil
}

/*
UDP packet layout (BigEndian):

+-------------------+-----------------------+---------------+-------------------------+
|  Sequence Number  |       Timestamp       |   Magnitude   |       Magnitudes        |
|      (uint32)     |        (int64)        |     Count     |      (N * float32)      |
|                   |                       |     (uint16)  |                         |
+-------------------+-----------------------+---------------+-------------------------+
*/

func (p *UDPPublisher) buildAndSendPacket() {
	mags, err := p.source()
	if err != nil {
		applog.Errorf("UDPPublisher: error fetching magnitudes: %v", err)
		return
	}

	if len(p.udpF32Buffer) != len(mags) {
		p.udpF32Buffer = make([]float32, len(mags))
	}
	for i, v := range mags {
		p.udpF32Buffer[i] = float32(v)
	}

	p.sequenceNum++
	timestamp := time.Now().UnixNano()
	magnitudeCount := uint16(len(p.udpF32Buffer))

	p.packetBuffer.Reset()

	err = binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, magnitudeCount)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.udpF32Buffer)
	}
	if err != nil {
		applog.Errorf("UDPPublisher: error packing packet: %v", err)
		return
	}

	packetBytes := p.packetBuffer.Bytes()
	if err := p.sender.Send(packetBytes); err == nil {
		applog.Debugf("UDPPublisher: sent packet %d (%d bytes)", p.sequenceNum, len(packetBytes))
	}
}

// Close stops the publisher goroutine.
func (p *UDPPublisher) Close() error {
	applog.Debugf("UDPPublisher: Close called, stopping publisher")
	return p.Stop()
}

var _ interface{ Close() error } = (*UDPPublisher)(nil)
