// Package notify shows desktop notifications.
package notify

import (
	"time"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog/log"
)

// Notifier shows desktop notifications through the platform notification
// service. Disabled notifiers only log.
type Notifier struct {
	Enabled  bool
	Icon     string
	Duration time.Duration // logged only; beeep cannot set a display time

	send func(title, body, icon string) error
}

// NewNotifier creates a Notifier backed by beeep
func NewNotifier(enabled bool, icon string, duration time.Duration) *Notifier {
	return &Notifier{
		Enabled:  enabled,
		Icon:     icon,
		Duration: duration,
		send:     beeepNotify,
	}
}

// Notify shows a notification
func (n *Notifier) Notify(title, body string) error {
	log.Info().Str("title", title).Str("body", body).Dur("duration", n.Duration).Msg("Notification")
	if !n.Enabled {
		return nil
	}
	return n.send(title, body, n.Icon)
}

func beeepNotify(title, body, icon string) error {
	return beeep.Notify(title, body, icon)
}
