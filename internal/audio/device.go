package audio

import (
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"
)

// DeviceType represents the type of audio device
type DeviceType int

const (
	DeviceTypePlayback DeviceType = iota
	DeviceTypeCapture
)

func (t DeviceType) String() string {
	if t == DeviceTypeCapture {
		return "capture"
	}
	return "playback"
}

// DeviceInfo contains information about an audio device
type DeviceInfo struct {
	ID        string     // Index-based identifier, e.g. capture-0
	Name      string     // Human-readable device name
	Type      DeviceType // Playback or capture
	IsDefault bool       // Whether this is the default device
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	defaultMarker := ""
	if d.IsDefault {
		defaultMarker = " [DEFAULT]"
	}
	return fmt.Sprintf("%s: %s%s", d.ID, d.Name, defaultMarker)
}

// ListDevices returns the available devices of the given type
func ListDevices(kind DeviceType) ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	malgoKind := malgo.Playback
	if kind == DeviceTypeCapture {
		malgoKind = malgo.Capture
	}

	infos, err := ctx.Devices(malgoKind)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i, info := range infos {
		devices = append(devices, DeviceInfo{
			ID:        fmt.Sprintf("%s-%d", kind, i),
			Name:      info.Name(),
			Type:      kind,
			IsDefault: info.IsDefault > 0,
		})
	}

	return devices, nil
}

// MatchDeviceName returns the first device whose name contains name, ignoring case
func MatchDeviceName(devices []DeviceInfo, name string) (DeviceInfo, bool) {
	searchName := strings.ToLower(name)
	for _, device := range devices {
		if strings.Contains(strings.ToLower(device.Name), searchName) {
			return device, true
		}
	}
	return DeviceInfo{}, false
}

// findCaptureDevice resolves a device name against an open malgo context
func findCaptureDevice(ctx *malgo.AllocatedContext, name string) (malgo.DeviceInfo, error) {
	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceInfo{}, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	searchName := strings.ToLower(name)
	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Name()), searchName) {
			return info, nil
		}
	}

	return malgo.DeviceInfo{}, fmt.Errorf("no capture device found matching name: %s", name)
}
