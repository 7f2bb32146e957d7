package reconcile

import (
	"fmt"

	"github.com/dokzlo13/headsetd/internal/headset"
)

// LowBatteryTitle is the title of the low battery notification
const LowBatteryTitle = "Low battery"

// Reconciler applies threshold logic to poll results.
// It holds no per-device state; State is threaded through explicitly.
type Reconciler struct {
	band int
}

// New creates a Reconciler with the given hysteresis band.
// A negative band selects DefaultHysteresis.
func New(band int) *Reconciler {
	if band < 0 {
		band = DefaultHysteresis
	}
	return &Reconciler{band: band}
}

// Band returns the hysteresis band in percentage points
func (r *Reconciler) Band() int {
	return r.band
}

// Reconcile computes the next state and the actions to execute for one poll.
// NoDevice results and non-Available battery states never touch the latches.
func (r *Reconciler) Reconcile(res headset.Result, st State) Outcome {
	out := Outcome{State: st}
	if !res.Found {
		return out
	}

	snap := res.Snapshot
	if snap.BatteryStatus != headset.BatteryAvailable {
		return out
	}
	level := snap.BatteryLevel

	// LED management
	if st.LedEnabled {
		switch {
		case level < st.LightThreshold && st.LedOn:
			out.Actions = append(out.Actions, Action{Kind: ActionLedOff})
			out.State.LedOn = false
			out.Persist = true
		case level >= st.LightThreshold+r.band && !st.LedOn:
			out.Actions = append(out.Actions, Action{Kind: ActionLedOn})
			out.State.LedOn = true
			out.Persist = true
		}
	}

	// Low battery notification
	switch {
	case level < st.NotificationThreshold && !st.NotificationSent:
		out.Actions = append(out.Actions, Action{
			Kind:  ActionNotify,
			Title: LowBatteryTitle,
			Body:  LowBatteryMessage(snap.Device, level),
		})
		out.State.NotificationSent = true
	case level >= st.NotificationThreshold+r.band && st.NotificationSent:
		out.State.NotificationSent = false
	}

	return out
}

// LowBatteryMessage formats the low battery notification body
func LowBatteryMessage(device string, level int) string {
	return fmt.Sprintf("%s has %d%% battery left.", device, level)
}
