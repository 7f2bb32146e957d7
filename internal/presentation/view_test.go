package presentation

import (
	"testing"

	"github.com/dokzlo13/headsetd/internal/headset"
)

func TestPresent(t *testing.T) {
	tests := []struct {
		name   string
		result headset.Result
		want   View
	}{
		{
			name: "available",
			result: headset.Found(headset.Snapshot{
				Device:        "Cloud II",
				Capabilities:  []string{"sidetone", "lights"},
				BatteryLevel:  73,
				BatteryStatus: headset.BatteryAvailable,
			}),
			want: View{
				DeviceFound:       true,
				Device:            "Cloud II",
				Status:            "73%",
				Level:             73,
				Icon:              "battery-080-light",
				Tooltip:           "Battery Level: 73%",
				LightsSupported:   true,
				SidetoneSupported: true,
			},
		},
		{
			name: "charging",
			result: headset.Found(headset.Snapshot{
				Device:        "Cloud II",
				BatteryLevel:  -1,
				BatteryStatus: headset.BatteryCharging,
			}),
			want: View{
				DeviceFound: true,
				Device:      "Cloud II",
				Status:      "Charging",
				Charging:    true,
				Icon:        "battery-100-charging-light",
				Tooltip:     TooltipCharging,
			},
		},
		{
			name: "unavailable",
			result: headset.Found(headset.Snapshot{
				Device:        "Cloud II",
				Capabilities:  []string{"sidetone"},
				BatteryStatus: headset.BatteryUnavailable,
			}),
			want: View{
				DeviceFound:       true,
				Device:            "Cloud II",
				Status:            "Off",
				Icon:              "battery-missing-light",
				Tooltip:           TooltipUnavailable,
				SidetoneSupported: true,
			},
		},
		{
			name:   "no_device",
			result: headset.NoDevice(headset.ErrNoDevices),
			want: View{
				Status:  "Not found",
				Icon:    "battery-missing-light",
				Tooltip: TooltipNoDevice,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Present(tt.result, VariantLight); got != tt.want {
				t.Errorf("Present() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
