package presentation

import (
	"fmt"

	"github.com/dokzlo13/headsetd/internal/headset"
)

// Tooltips shown on the tray icon
const (
	TooltipNoDevice    = "No Device Found"
	TooltipCharging    = "Battery Charging"
	TooltipUnavailable = "Battery Unavailable"
)

// View is everything the tray and status surfaces render for one poll
type View struct {
	DeviceFound       bool   `json:"device_found"`
	Device            string `json:"device,omitempty"`
	Status            string `json:"status"`
	Level             int    `json:"level"`
	Charging          bool   `json:"charging"`
	Icon              string `json:"icon"`
	Tooltip           string `json:"tooltip"`
	LightsSupported   bool   `json:"lights_supported"`
	SidetoneSupported bool   `json:"sidetone_supported"`
}

// Present builds the view for a poll result
func Present(res headset.Result, variant Variant) View {
	if !res.Found {
		return View{
			Status:  "Not found",
			Icon:    IconName(0, false, true, variant),
			Tooltip: TooltipNoDevice,
		}
	}

	snap := res.Snapshot
	v := View{
		DeviceFound:       true,
		Device:            snap.Device,
		LightsSupported:   snap.HasCapability(headset.CapabilityLights),
		SidetoneSupported: snap.HasCapability(headset.CapabilitySidetone),
	}

	switch snap.BatteryStatus {
	case headset.BatteryAvailable:
		v.Level = snap.BatteryLevel
		v.Status = fmt.Sprintf("%d%%", snap.BatteryLevel)
		v.Tooltip = fmt.Sprintf("Battery Level: %d%%", snap.BatteryLevel)
		v.Icon = IconName(snap.BatteryLevel, false, false, variant)
	case headset.BatteryCharging:
		v.Charging = true
		v.Status = "Charging"
		v.Tooltip = TooltipCharging
		v.Icon = IconName(snap.BatteryLevel, true, false, variant)
	default:
		v.Status = "Off"
		v.Tooltip = TooltipUnavailable
		v.Icon = IconName(snap.BatteryLevel, false, true, variant)
	}

	return v
}
