// Package headset talks to the external headsetcontrol utility and turns its
// JSON output into normalized device snapshots.
package headset

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Sentinel errors classifying why a poll produced no device
var (
	ErrToolFailed = errors.New("headsetcontrol invocation failed")
	ErrExitStatus = errors.New("headsetcontrol exited with non-zero status")
	ErrMalformed  = errors.New("malformed headsetcontrol output")
	ErrNoDevices  = errors.New("no devices reported")
)

// UnknownDevice is used when the tool does not report a device name
const UnknownDevice = "Unknown Device"

// Capability names reported in capabilities_str
const (
	CapabilityLights   = "lights"
	CapabilitySidetone = "sidetone"
)

// BatteryStatus is the normalized battery state of a device
type BatteryStatus int

const (
	BatteryUnavailable BatteryStatus = iota
	BatteryAvailable
	BatteryCharging
)

// String returns the status name
func (s BatteryStatus) String() string {
	switch s {
	case BatteryAvailable:
		return "available"
	case BatteryCharging:
		return "charging"
	default:
		return "unavailable"
	}
}

// ParseBatteryStatus maps the tool's status strings to a BatteryStatus
func ParseBatteryStatus(s string) BatteryStatus {
	switch s {
	case "BATTERY_AVAILABLE":
		return BatteryAvailable
	case "BATTERY_CHARGING":
		return BatteryCharging
	default:
		return BatteryUnavailable
	}
}

// Snapshot is one parsed telemetry reading for a single device
type Snapshot struct {
	Device        string
	Capabilities  []string
	BatteryLevel  int
	BatteryStatus BatteryStatus
}

// HasCapability reports whether the device advertises the named capability
func (s Snapshot) HasCapability(name string) bool {
	return slices.Contains(s.Capabilities, name)
}

// Result is the outcome of one poll: either a snapshot or no device.
// Err carries the NoDevice reason and is nil when Found is true.
type Result struct {
	Found    bool
	Snapshot Snapshot
	Err      error
}

// Found wraps a snapshot into a Result
func Found(s Snapshot) Result {
	return Result{Found: true, Snapshot: s}
}

// NoDevice builds a Result for a failed or empty poll
func NoDevice(reason error) Result {
	return Result{Err: reason}
}

// statusDocument mirrors the subset of `headsetcontrol -o json` we consume
type statusDocument struct {
	Devices []deviceEntry `json:"devices"`
}

type deviceEntry struct {
	Device       *string      `json:"device"`
	Capabilities []string     `json:"capabilities_str"`
	Battery      batteryEntry `json:"battery"`
}

type batteryEntry struct {
	Level  int    `json:"level"`
	Status string `json:"status"`
}

// ParseStatus parses the tool's JSON output and returns the first device.
// Only the first entry of "devices" is consumed.
func ParseStatus(data []byte) (Snapshot, error) {
	var doc statusDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(doc.Devices) == 0 {
		return Snapshot{}, ErrNoDevices
	}

	first := doc.Devices[0]
	name := UnknownDevice
	if first.Device != nil && *first.Device != "" {
		name = *first.Device
	}

	return Snapshot{
		Device:        name,
		Capabilities:  first.Capabilities,
		BatteryLevel:  first.Battery.Level,
		BatteryStatus: ParseBatteryStatus(first.Battery.Status),
	}, nil
}
