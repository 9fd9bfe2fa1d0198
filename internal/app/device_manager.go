package app

import (
	"fmt"
	"io"

	"github.com/emmett/voxwake/internal/audio"
)

// DeviceLister enumerates audio devices
type DeviceLister func(kind audio.DeviceType) ([]audio.DeviceInfo, error)

// DeviceManager prints and validates audio devices
type DeviceManager struct {
	list DeviceLister
	out  io.Writer
}

// NewDeviceManager creates a device manager. A nil list uses malgo.
func NewDeviceManager(list DeviceLister, out io.Writer) *DeviceManager {
	if list == nil {
		list = audio.ListDevices
	}
	return &DeviceManager{list: list, out: out}
}

// ListDevices prints capture and playback devices
func (dm *DeviceManager) ListDevices() error {
	for _, kind := range []audio.DeviceType{audio.DeviceTypeCapture, audio.DeviceTypePlayback} {
		devices, err := dm.list(kind)
		if err != nil {
			return fmt.Errorf("failed to list %s devices: %w", kind, err)
		}

		fmt.Fprintf(dm.out, "%s devices (%d):\n", kind, len(devices))
		if len(devices) == 0 {
			fmt.Fprintln(dm.out, "  none found")
		}
		for i, d := range devices {
			marker := ""
			if d.IsDefault {
				marker = " [DEFAULT]"
			}
			fmt.Fprintf(dm.out, "  %d. %s%s\n", i+1, d.Name, marker)
		}
		fmt.Fprintln(dm.out)
	}

	fmt.Fprintln(dm.out, "To use a specific microphone, run:")
	fmt.Fprintln(dm.out, "  voxwake run --device \"<device-name>\"")
	return nil
}

// SelectCapture checks that name matches a capture device. An empty name
// selects the default device.
func (dm *DeviceManager) SelectCapture(name string) (string, error) {
	devices, err := dm.list(audio.DeviceTypeCapture)
	if err != nil {
		return "", fmt.Errorf("failed to list devices: %w", err)
	}
	if len(devices) == 0 {
		return "", fmt.Errorf("no audio capture devices found")
	}

	if name == "" {
		for _, d := range devices {
			if d.IsDefault {
				return d.Name, nil
			}
		}
		return devices[0].Name, nil
	}

	if d, ok := audio.MatchDeviceName(devices, name); ok {
		return d.Name, nil
	}
	return "", fmt.Errorf("capture device %q not found (use 'voxwake devices')", name)
}
