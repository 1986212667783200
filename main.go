// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	applog "mayaflux/internal/log"

	"mayaflux/cmd"
	"mayaflux/internal/analysis"
	"mayaflux/internal/backend"
	"mayaflux/internal/buffer"
	"mayaflux/internal/config"
	"mayaflux/internal/creator"
	"mayaflux/internal/node"
	"mayaflux/internal/procarch"
	"mayaflux/internal/scheduler"
	"mayaflux/internal/tokens"
	"mayaflux/internal/transport"
	"mayaflux/internal/transport/udp"
)

// main follows the teacher's three-phase program flow (cold-path
// startup, concurrent hot path, cold-path shutdown), generalized from
// "run one FFT processor against one input stream" to wiring the
// node graph, buffer pipeline, and task scheduler together behind
// whatever domain the CLI/config selects (spec §4.9, §4.10).
func main() {
	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("FATAL: parsing arguments: %v", err)
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	}

	if cfg.Command == "list" {
		if err := runList(); err != nil {
			applog.Fatalf("FATAL: listing devices: %v", err)
		}
		return
	}

	if err := run(cfg); err != nil {
		applog.Fatalf("FATAL: %v", err)
	}
}

func runList() error {
	devices, err := backend.HostDevices()
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}
	if len(devices) == 0 {
		fmt.Println("No audio devices found.")
		return nil
	}

	fmt.Printf("\nAvailable Audio Devices (%d found)\n\n", len(devices))
	for _, d := range devices {
		marker := ""
		switch {
		case d.IsDefaultInput && d.IsDefaultOutput:
			marker = " (Default Input & Output)"
		case d.IsDefaultInput:
			marker = " (Default Input)"
		case d.IsDefaultOutput:
			marker = " (Default Output)"
		}
		fmt.Printf("[%d] %s%s\n", d.ID, d.Name, marker)
		fmt.Printf("    Host API: %s, Channels: In=%d Out=%d\n", d.HostApiName, d.MaxInputChannels, d.MaxOutputChannels)
		fmt.Printf("    Default Sample Rate: %.0f Hz\n\n", d.DefaultSampleRate)
	}
	return nil
}

// engine bundles everything run needs to tear back down on shutdown.
type engine struct {
	backend   *backend.Backend
	recorder  *backend.Recorder
	frames    *backend.FrameTicker
	ws        *transport.WebSocketTransport
	udpPub    *udp.UDPPublisher
	udpSender *udp.UDPSender
	scheduler *scheduler.TaskScheduler
}

func (e *engine) Close() {
	if e.frames != nil {
		e.frames.Stop()
	}
	if e.udpPub != nil {
		e.udpPub.Close()
	}
	if e.udpSender != nil {
		e.udpSender.Close()
	}
	if e.ws != nil {
		e.ws.Close()
	}
	if e.recorder != nil {
		e.recorder.Stop()
	}
	if e.backend != nil {
		e.backend.Close()
	}
}

func run(cfg *config.Config) error {
	domain := cfg.Domain.Resolve()
	if !tokens.IsDomainValid(domain) {
		return fmt.Errorf("config: resolved domain %s is not internally consistent", domain)
	}

	nodes := node.NewGraphManager()
	buffers := buffer.NewManager(uint32(cfg.Audio.InputChannels), uint32(cfg.Audio.FramesPerBuffer))
	tasks := scheduler.NewTaskScheduler(uint32(cfg.Audio.SampleRate), uint32(cfg.Demo.FPS))
	tasks.EnsureDomain(domain.TaskToken(), uint64(cfg.Audio.SampleRate), "samples")

	handle, err := procarch.NewSubsystemProcessingHandle(buffers, nodes, tasks, procarch.SubsystemTokens{
		Buffer: domain.BufferToken(),
		Node:   domain.NodeToken(),
		Task:   domain.TaskToken(),
	})
	if err != nil {
		return fmt.Errorf("building subsystem handle: %w", err)
	}

	build := creator.New(nodes, buffers, tasks)
	tone := build.Sine("demo-tone", cfg.Audio.SampleRate, 220, 0.2, 0).
		Domain(domain).
		Channel(0).
		Value
	if _, err := buffers.ConnectNodeToChannel(tone, 0, 1.0, true); err != nil {
		return fmt.Errorf("connecting demo tone to channel 0: %w", err)
	}

	fftWindow, err := analysis.NewFFTWindow(cfg.Audio.FFTSize, cfg.Audio.SampleRate)
	if err != nil {
		return fmt.Errorf("building FFT analyzer: %w", err)
	}

	e := &engine{scheduler: tasks}
	defer e.Close()

	e.ws = transport.NewWebSocketTransport(cfg.Transport.WSAddr)

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress, cfg.Debug)
		if err != nil {
			return fmt.Errorf("opening UDP sender: %w", err)
		}
		e.udpSender = sender

		pub, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender, cfg.Audio.FFTSize/2+1, func() ([]float64, error) {
			return fftWindow.AnalyzeNode(tone)
		})
		if err != nil {
			return fmt.Errorf("building UDP publisher: %w", err)
		}
		e.udpPub = pub
		pub.Start()
	}

	registerMetro(tasks, domain.TaskToken(), cfg.Demo.MetroInterval, func(units uint64) {
		mags, err := fftWindow.AnalyzeNode(tone)
		if err != nil {
			applog.Warnf("engine: metro FFT analysis: %v", err)
			return
		}
		frame := transport.SpectrumFrame{
			Node:        tone.Name,
			SampleRate:  cfg.Audio.SampleRate,
			FFTSize:     cfg.Audio.FFTSize,
			Magnitudes:  append([]float64(nil), mags...),
			TimestampNs: time.Now().UnixNano(),
		}
		_ = e.ws.Send(frame)
		_ = e.ws.Send(transport.RoutineEvent{
			Name:        "demo-metro",
			Token:       domain.TaskToken().String(),
			Units:       units,
			Done:        false,
			TimestampNs: time.Now().UnixNano(),
		})
	})

	e.frames = backend.NewFrameTicker(cfg.Demo.FPS, func() {
		tasks.ProcessToken(tokens.FrameAccurate, 1)
	})
	e.frames.Start()

	if cfg.Recording.Enabled {
		if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
			return fmt.Errorf("creating recording output dir: %w", err)
		}
		e.recorder = backend.NewRecorder(int(cfg.Audio.SampleRate), cfg.Audio.InputChannels)
		path := cfg.Recording.OutputDir + "/" + time.Now().UTC().Format("02-01-2006-150405") + "." + cfg.Recording.Format
		if err := e.recorder.Start(path); err != nil {
			return fmt.Errorf("starting recorder: %w", err)
		}
	}

	numChannels := cfg.Audio.InputChannels
	deinterleaved := make([][]float64, numChannels)
	for ch := range deinterleaved {
		deinterleaved[ch] = make([]float64, cfg.Audio.FramesPerBuffer)
	}

	// audioBlock de-interleaves the backend's [ch0, ch1, ..., ch0, ch1, ...]
	// block (backend.Backend.process's onBlock contract) into one slice per
	// channel before handing each to its own registered input buffer --
	// ProcessAudioInput expects already de-interleaved, single-channel data.
	audioBlock := func(samples []float64, nframes int) {
		for ch := 0; ch < numChannels; ch++ {
			dst := deinterleaved[ch][:nframes]
			for frame := 0; frame < nframes; frame++ {
				dst[frame] = samples[frame*numChannels+ch]
			}
			if err := buffers.ProcessAudioInput(uint32(ch), dst); err != nil {
				applog.Warnf("engine: processing audio input for channel %d: %v", ch, err)
			}
			if err := handle.Buffers.ProcessChannel(uint32(ch)); err != nil {
				applog.Warnf("engine: processing channel %d: %v", ch, err)
			}
		}
		tasks.ProcessToken(domain.TaskToken(), uint64(nframes))
	}
	if e.recorder != nil {
		audioBlock = backend.Tap(audioBlock, e.recorder)
	}

	for ch := 0; ch < numChannels; ch++ {
		buffers.RegisterInput(uint32(ch), uint32(cfg.Audio.FramesPerBuffer))
	}

	be, err := backend.New(backend.Config{
		DeviceID:        cfg.Audio.InputDevice,
		SampleRate:      cfg.Audio.SampleRate,
		Channels:        cfg.Audio.InputChannels,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		LowLatency:      cfg.Audio.LowLatency,
	}, audioBlock)
	if err != nil {
		return fmt.Errorf("opening audio backend: %w", err)
	}
	e.backend = be
	be.SetGateThreshold(cfg.Audio.GateThreshold)
	if cfg.Audio.GateEnabled {
		be.EnableGate()
	}

	if err := be.Start(); err != nil {
		return fmt.Errorf("starting audio backend: %w", err)
	}
	applog.Infof("engine: running, domain=%s ws=%s", domain, cfg.Transport.WSAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	applog.Infof("engine: shutdown signal received")
	return nil
}

// registerMetro wires a scheduler.Metro routine onto tasks, converting
// interval (specified in wall-clock time by the CLI's --metro flag)
// into token's domain units via the scheduler's own clock rate (spec
// §8 scenario 3's metro callback).
func registerMetro(tasks *scheduler.TaskScheduler, token tokens.TaskToken, interval time.Duration, fn func(units uint64)) {
	units := tasks.SecondsToUnits(interval.Seconds(), token)
	if units == 0 {
		units = 1
	}
	routine := scheduler.Metro(token, units, fn)
	tasks.AddTask(routine, "demo-metro", true)
}
