package settings

import (
	"fmt"

	"github.com/dokzlo13/headsetd/internal/presentation"
)

// IntentKind identifies a user action
type IntentKind string

// Intent kinds
const (
	IntentSetLedEnabled            IntentKind = "set_led_enabled"
	IntentSetLightThreshold        IntentKind = "set_light_threshold"
	IntentSetNotificationThreshold IntentKind = "set_notification_threshold"
	IntentSetSidetone              IntentKind = "set_sidetone"
	IntentSetTheme                 IntentKind = "set_theme"
	IntentSetAutostart             IntentKind = "set_autostart"
)

// Intent is a user action coming from the tray or the status API.
// Enabled is used by boolean intents, Value by numeric ones.
type Intent struct {
	Kind    IntentKind `json:"type"`
	Enabled bool       `json:"enabled,omitempty"`
	Value   int        `json:"value,omitempty"`
}

// SetLedEnabled toggles battery-driven LED management
func SetLedEnabled(enabled bool) Intent {
	return Intent{Kind: IntentSetLedEnabled, Enabled: enabled}
}

// SetLightThreshold sets the LED battery threshold
func SetLightThreshold(v int) Intent {
	return Intent{Kind: IntentSetLightThreshold, Value: v}
}

// SetNotificationThreshold sets the notification battery threshold
func SetNotificationThreshold(v int) Intent {
	return Intent{Kind: IntentSetNotificationThreshold, Value: v}
}

// SetSidetone commits a sidetone level
func SetSidetone(v int) Intent {
	return Intent{Kind: IntentSetSidetone, Value: v}
}

// SetTheme selects the icon theme
func SetTheme(t presentation.Theme) Intent {
	return Intent{Kind: IntentSetTheme, Value: int(t)}
}

// SetAutostart enables or disables login autostart
func SetAutostart(enabled bool) Intent {
	return Intent{Kind: IntentSetAutostart, Enabled: enabled}
}

// Apply returns the settings with the intent applied.
// Numeric values are clamped to their valid ranges. Intents that do not
// change persisted settings (autostart) return the settings unchanged.
func (s Settings) Apply(in Intent) (Settings, error) {
	switch in.Kind {
	case IntentSetLedEnabled:
		s.LedEnabled = in.Enabled
	case IntentSetLightThreshold:
		s.LightThreshold = clamp(in.Value, MinThreshold, MaxThreshold)
	case IntentSetNotificationThreshold:
		s.NotificationThreshold = clamp(in.Value, MinThreshold, MaxThreshold)
	case IntentSetSidetone:
		s.Sidetone = clamp(in.Value, MinSidetone, MaxSidetone)
	case IntentSetTheme:
		theme := presentation.Theme(in.Value)
		if !theme.Valid() {
			return s, fmt.Errorf("unknown theme %d", in.Value)
		}
		s.Theme = theme
	case IntentSetAutostart:
	default:
		return s, fmt.Errorf("unknown intent %q", in.Kind)
	}
	return s, nil
}
