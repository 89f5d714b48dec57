package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device describes an available audio input device.
type Device struct {
	// Name is the device name as reported by the host API.
	Name string

	// Default is true for the system default input device.
	Default bool

	// MaxInputChannels is the device's input channel capacity.
	MaxInputChannels int
}

// ListInputDevices enumerates input-capable devices. PortAudio must be
// initialized by the caller; NewCapture does this, as does ListDevices.
func ListInputDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audio: enumerate devices: %w", err)
	}
	defaultDevice, _ := portaudio.DefaultInputDevice()

	result := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		result = append(result, Device{
			Name:             d.Name,
			Default:          d == defaultDevice,
			MaxInputChannels: d.MaxInputChannels,
		})
	}
	return result, nil
}

// ListDevices initializes PortAudio, enumerates input devices, and terminates
// PortAudio again. It is a convenience for one-shot CLI listing.
func ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()
	return ListInputDevices()
}

// findInputDevice resolves a device by name, or the default input device when
// name is empty.
func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("audio: default input device: %w", err)
		}
		return device, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audio: enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}
