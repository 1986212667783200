// SPDX-License-Identifier: MIT

// Package config loads engine configuration the way the teacher's
// internal/config/yaml.go does: a YAML file overlaid with defaults and
// ENV_* overrides, then validated. The teacher also carries a second,
// older config.go defining a flat, non-nested Config struct whose field
// names (DeviceID, Channels, FramesPerBuffer, SampleRate) collide with
// the method names its own compat.go declares against the *yaml.go*
// struct shape — the two files describe incompatible versions of the
// same type and cannot coexist in one package. This port keeps the
// yaml.go shape (it's the one LoadConfig/Validate/applyEnvOverrides
// actually build against) and drops the flat duplicate; see DESIGN.md.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "mayaflux/internal/log"
	"mayaflux/internal/tokens"
)

// Domain presets a CLI run can select without spelling out a raw
// tokens.Domain value (spec §3.1's named presets).
const (
	DomainAudio            = "audio"
	DomainAudioParallel    = "audio_parallel"
	DomainGraphics         = "graphics"
	DomainGraphicsAdaptive = "graphics_adaptive"
	DomainAudioGPU         = "audio_gpu"
	DomainAudioVisualSync  = "audio_visual_sync"
	DomainWindowing        = "windowing"
	DomainInputEvents      = "input_events"
	DomainCustomOnDemand   = "custom_on_demand"
	DomainCustomFlexible   = "custom_flexible"
)

// Config holds all runtime configuration for the engine, constructed
// from defaults, an optional YAML file, and ENV_* overrides.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	Command   string          `yaml:"command,omitempty"`
	Domain    DomainConfig    `yaml:"domain"`
	Audio     AudioConfig     `yaml:"audio"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
	Demo      DemoConfig      `yaml:"demo"`
}

// DemoConfig knobs drive the CLI demo's scheduler routines (spec §4.9's
// --metro/--fps flags) rather than anything the engine core requires.
type DemoConfig struct {
	MetroInterval time.Duration `yaml:"metro_interval"`
	FPS           float64       `yaml:"fps"`
}

// DomainConfig selects the tokens.Domain preset the CLI demo wires the
// node graph/buffer pipeline/scheduler into.
type DomainConfig struct {
	Preset string `yaml:"preset"`
}

// Resolve maps Preset to a tokens.Domain, defaulting to tokens.Audio
// for an empty or unrecognized preset.
func (d DomainConfig) Resolve() tokens.Domain {
	switch d.Preset {
	case DomainAudioParallel:
		return tokens.AudioParallelDom
	case DomainGraphics:
		return tokens.Graphics
	case DomainGraphicsAdaptive:
		return tokens.GraphicsAdaptive
	case DomainAudioGPU:
		return tokens.AudioGPU
	case DomainAudioVisualSync:
		return tokens.AudioVisualSync
	case DomainWindowing:
		return tokens.Windowing
	case DomainInputEvents:
		return tokens.InputEvents
	case DomainCustomOnDemand:
		return tokens.CustomOnDemand
	case DomainCustomFlexible:
		return tokens.CustomFlexible
	default:
		return tokens.Audio
	}
}

type AudioConfig struct {
	InputDevice       int     `yaml:"input_device"`
	SampleRate        float64 `yaml:"sample_rate"`
	FramesPerBuffer   int     `yaml:"frames_per_buffer"`
	LowLatency        bool    `yaml:"low_latency"`
	InputChannels     int     `yaml:"input_channels"`
	UseDefaultDevices bool    `yaml:"use_default_devices"`
	FFTSize           int     `yaml:"fft_size"`
	GateEnabled       bool    `yaml:"gate_enabled"`
	GateThreshold     float64 `yaml:"gate_threshold"`
}

type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"`
	BitDepth  int    `yaml:"bit_depth"`
}

type TransportConfig struct {
	WSAddr           string        `yaml:"ws_addr"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
}

// LoadConfig builds a Config from defaults, then an optional YAML file
// at path (or ./config.yaml if path is empty and that file exists),
// then ENV_* overrides, then validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := Config{
		Debug:    false,
		LogLevel: "info",
		Domain:   DomainConfig{Preset: DomainAudio},
		Audio: AudioConfig{
			InputDevice:       -1,
			SampleRate:        44100,
			FramesPerBuffer:   1024,
			LowLatency:        false,
			InputChannels:     1,
			UseDefaultDevices: true,
			FFTSize:           1024,
			GateEnabled:       false,
			GateThreshold:     0.001,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: "./recordings",
			Format:    "wav",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			WSAddr:           ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond,
		},
		Demo: DemoConfig{
			MetroInterval: 500 * time.Millisecond,
			FPS:           60,
		},
	}

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		} else {
			cfg.applyEnvOverrides()
			return &cfg, cfg.Validate()
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %q: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations the engine cannot start with.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return fmt.Errorf("audio.sample_rate %v out of range [8000, 192000]", c.Audio.SampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > 8192 {
		return fmt.Errorf("audio.frames_per_buffer %d out of range (0, 8192]", c.Audio.FramesPerBuffer)
	}
	if c.Audio.InputChannels <= 0 {
		return fmt.Errorf("audio.input_channels must be positive, got %d", c.Audio.InputChannels)
	}
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			return fmt.Errorf("transport.udp_target_address %q appears invalid (missing port?)", c.Transport.UDPTargetAddress)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	return nil
}

func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			applog.Infof("config: overriding debug from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_DOMAIN_PRESET"); ok {
		cfg.Domain.Preset = val
		applog.Infof("config: overriding domain.preset from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			applog.Infof("config: overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Infof("config: overriding transport.udp_target_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			applog.Infof("config: overriding transport.udp_send_interval from env: %s", dur)
		}
	}
	if val, ok := os.LookupEnv("ENV_WS_ADDR"); ok {
		cfg.Transport.WSAddr = val
		applog.Infof("config: overriding transport.ws_addr from env: %s", val)
	}
}
