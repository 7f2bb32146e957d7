package headset

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Snapshot
		wantErr error
	}{
		{
			name: "available",
			input: `{"name":"HeadsetControl","devices":[{"status":"success","device":"HyperX Cloud Alpha Wireless",
				"capabilities_str":["sidetone","battery","lights"],
				"battery":{"status":"BATTERY_AVAILABLE","level":64}}]}`,
			want: Snapshot{
				Device:        "HyperX Cloud Alpha Wireless",
				Capabilities:  []string{"sidetone", "battery", "lights"},
				BatteryLevel:  64,
				BatteryStatus: BatteryAvailable,
			},
		},
		{
			name:  "charging",
			input: `{"devices":[{"device":"Arctis 7","battery":{"status":"BATTERY_CHARGING","level":-1}}]}`,
			want:  Snapshot{Device: "Arctis 7", BatteryLevel: -1, BatteryStatus: BatteryCharging},
		},
		{
			name:  "unknown_status",
			input: `{"devices":[{"device":"Arctis 7","battery":{"status":"BATTERY_UNAVAILABLE","level":0}}]}`,
			want:  Snapshot{Device: "Arctis 7", BatteryStatus: BatteryUnavailable},
		},
		{
			name:  "missing_fields",
			input: `{"devices":[{}]}`,
			want:  Snapshot{Device: UnknownDevice, BatteryStatus: BatteryUnavailable},
		},
		{
			name:  "first_device_only",
			input: `{"devices":[{"device":"first","battery":{"status":"BATTERY_AVAILABLE","level":10}},{"device":"second"}]}`,
			want:  Snapshot{Device: "first", BatteryLevel: 10, BatteryStatus: BatteryAvailable},
		},
		{
			name:    "empty_devices",
			input:   `{"devices":[]}`,
			wantErr: ErrNoDevices,
		},
		{
			name:    "no_devices_key",
			input:   `{"name":"HeadsetControl"}`,
			wantErr: ErrNoDevices,
		},
		{
			name:    "empty_output",
			input:   ``,
			wantErr: ErrMalformed,
		},
		{
			name:    "garbage",
			input:   `Failed to open device`,
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus([]byte(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseStatus() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus() unexpected error: %v", err)
			}
			if got.Device != tt.want.Device {
				t.Errorf("Device = %q, want %q", got.Device, tt.want.Device)
			}
			if got.BatteryLevel != tt.want.BatteryLevel {
				t.Errorf("BatteryLevel = %d, want %d", got.BatteryLevel, tt.want.BatteryLevel)
			}
			if got.BatteryStatus != tt.want.BatteryStatus {
				t.Errorf("BatteryStatus = %v, want %v", got.BatteryStatus, tt.want.BatteryStatus)
			}
			if len(got.Capabilities) != len(tt.want.Capabilities) {
				t.Errorf("Capabilities = %v, want %v", got.Capabilities, tt.want.Capabilities)
			}
		})
	}
}

func TestSnapshot_HasCapability(t *testing.T) {
	s := Snapshot{Capabilities: []string{CapabilitySidetone, "battery"}}
	if !s.HasCapability(CapabilitySidetone) {
		t.Error("expected sidetone capability")
	}
	if s.HasCapability(CapabilityLights) {
		t.Error("did not expect lights capability")
	}
}
