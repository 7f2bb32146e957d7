// Package reconcile derives LED and notification side effects from device
// snapshots, applying hysteresis around user-configured battery thresholds.
package reconcile

import "fmt"

// DefaultHysteresis is the number of percentage points the battery level must
// rise above a threshold before a latch resets.
const DefaultHysteresis = 5

// State is carried from one poll to the next.
// LedOn and NotificationSent are hysteresis latches.
type State struct {
	LedEnabled            bool // user toggle, persisted as led_state
	LightThreshold        int
	NotificationThreshold int
	LedOn                 bool
	NotificationSent      bool // transient for the process lifetime
}

// ActionKind identifies a side effect requested by the reconciler
type ActionKind string

// Action kinds
const (
	ActionLedOff ActionKind = "led_off"
	ActionLedOn  ActionKind = "led_on"
	ActionNotify ActionKind = "notify"
)

// Action is one side effect for the executor
type Action struct {
	Kind  ActionKind
	Title string // notifications only
	Body  string // notifications only
}

// String returns a short description for logging
func (a Action) String() string {
	if a.Kind == ActionNotify {
		return fmt.Sprintf("%s(%q)", a.Kind, a.Body)
	}
	return string(a.Kind)
}

// Outcome is the result of reconciling one poll
type Outcome struct {
	State   State
	Actions []Action
	// Persist is set when settings should be written back (LED latch flipped)
	Persist bool
}
