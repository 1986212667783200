// SPDX-License-Identifier: MIT

// Package backend is the one concrete platform audio backend spec §1
// asks for: gordonklaus/portaudio input capture feeding the engine's
// on_block contract, ported from the teacher's internal/audio (its
// engine.go/devices.go/gate.go/recording.go), generalized from "push
// samples straight into one FFT processor" to "hand a block of
// float64 samples to whatever OnBlockFunc the caller wired up" — here,
// internal/procarch's subsystem handle driving the node graph and
// buffer pipeline (spec §4.10).
package backend

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

// DefaultDeviceID requests the system default input device.
const DefaultDeviceID = -1

var SampleRates = []float64{
	8000, 16000, 22050, 32000, 44100, 48000, 88200, 96000, 176400, 192000,
}

// Device describes one host audio device, ported from the teacher's
// devices.go (the richer of its two conflicting Device definitions;
// see DESIGN.md).
type Device struct {
	ID                       int
	Name                     string
	HostApiName              string
	MaxInputChannels         int
	MaxOutputChannels        int
	DefaultSampleRate        float64
	DefaultLowInputLatency   time.Duration
	DefaultHighInputLatency  time.Duration
	DefaultLowOutputLatency  time.Duration
	DefaultHighOutputLatency time.Duration
	IsDefaultInput           bool
	IsDefaultOutput          bool
}

// Initialize brings up the PortAudio host API. Safe to call more than
// once (PortAudio itself reference-counts Initialize/Terminate).
func Initialize() error { return portaudio.Initialize() }

// Terminate tears down the PortAudio host API.
func Terminate() error { return portaudio.Terminate() }

// HostDevices returns every audio device the host reports, initializing
// and terminating PortAudio around the query.
func HostDevices() ([]Device, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	defer Terminate()

	paDevs, err := paDevices()
	if err != nil {
		return nil, err
	}

	defaultInInfo, errIn := portaudio.DefaultInputDevice()
	defaultOutInfo, errOut := portaudio.DefaultOutputDevice()

	devices := make([]Device, len(paDevs))
	for i, info := range paDevs {
		hostApiName := "Unknown"
		if info.HostApi != nil {
			hostApiName = info.HostApi.Name
		}

		isDefaultIn := errIn == nil && defaultInInfo != nil && info.Name == defaultInInfo.Name
		isDefaultOut := errOut == nil && defaultOutInfo != nil && info.Name == defaultOutInfo.Name

		devices[i] = Device{
			ID:                       i,
			Name:                     info.Name,
			HostApiName:              hostApiName,
			MaxInputChannels:         info.MaxInputChannels,
			MaxOutputChannels:        info.MaxOutputChannels,
			DefaultSampleRate:        info.DefaultSampleRate,
			DefaultLowInputLatency:   info.DefaultLowInputLatency,
			DefaultHighInputLatency:  info.DefaultHighInputLatency,
			DefaultLowOutputLatency:  info.DefaultLowOutputLatency,
			DefaultHighOutputLatency: info.DefaultHighOutputLatency,
			IsDefaultInput:           isDefaultIn,
			IsDefaultOutput:          isDefaultOut,
		}
	}

	return devices, nil
}

// InputDevice resolves deviceID to a *portaudio.DeviceInfo.
// DefaultDeviceID resolves to the system default input device.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	defer Terminate()

	paDevs, err := paDevices()
	if err != nil {
		return nil, err
	}

	if deviceID == DefaultDeviceID {
		return portaudio.DefaultInputDevice()
	}

	if deviceID < 0 || deviceID >= len(paDevs) {
		return nil, fmt.Errorf("backend: invalid device ID %d (must be 0..%d, or %d for default)",
			deviceID, len(paDevs)-1, DefaultDeviceID)
	}

	if paDevs[deviceID].MaxInputChannels == 0 {
		return nil, fmt.Errorf("backend: device %d (%s) does not support input",
			deviceID, paDevs[deviceID].Name)
	}

	return paDevs[deviceID], nil
}

func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if devices == nil {
		return []*portaudio.DeviceInfo{}, nil
	}
	return devices, nil
}
