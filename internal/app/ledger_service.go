package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/headsetd/internal/config"
	"github.com/dokzlo13/headsetd/internal/eventbus"
	"github.com/dokzlo13/headsetd/internal/ledger"
)

// LedgerService records executed actions and settings changes in the
// ledger and periodically drops old entries.
type LedgerService struct {
	cfg    *config.Config
	ledger *ledger.Ledger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(cfg *config.Config, l *ledger.Ledger) *LedgerService {
	return &LedgerService{cfg: cfg, ledger: l}
}

// Subscribe registers the recorder on the bus
func (s *LedgerService) Subscribe(bus *eventbus.Bus) {
	bus.Subscribe(s.record, eventbus.EventAction, eventbus.EventSettings)
}

// Start begins the retention loop.
func (s *LedgerService) Start(ctx context.Context) {
	go s.runLedgerCleanup(ctx)
}

// record converts a bus event into a ledger entry
func (s *LedgerService) record(e eventbus.Event) {
	entry := entryFromEvent(e)
	if _, err := s.ledger.Append(entry); err != nil {
		log.Error().Err(err).Str("event_type", string(entry.EventType)).Msg("Failed to record ledger entry")
	}
}

func entryFromEvent(e eventbus.Event) ledger.Entry {
	entry := ledger.Entry{
		TickID:    e.TickID,
		Timestamp: e.Time,
		Payload:   make(map[string]any, len(e.Data)),
	}
	for k, v := range e.Data {
		switch k {
		case "device":
			entry.Device, _ = v.(string)
		case "source":
			entry.Source, _ = v.(string)
		default:
			entry.Payload[k] = v
		}
	}

	if e.Type == eventbus.EventSettings {
		entry.EventType = ledger.EventSettingsChanged
		return entry
	}
	if _, failed := e.Data["error"]; failed {
		entry.EventType = ledger.EventCommandFailed
		return entry
	}

	kind, _ := e.Data["kind"].(string)
	switch kind {
	case "led_on":
		entry.EventType = ledger.EventLedOn
	case "led_off":
		entry.EventType = ledger.EventLedOff
	case "notify":
		entry.EventType = ledger.EventNotification
	case "sidetone":
		entry.EventType = ledger.EventSidetone
	default:
		entry.EventType = ledger.EventType(kind)
	}
	return entry
}

// runLedgerCleanup periodically cleans up old ledger entries.
func (s *LedgerService) runLedgerCleanup(ctx context.Context) {
	retention := s.cfg.Ledger.RetentionPeriod.Duration()
	interval := s.cfg.Ledger.RetentionInterval.Duration()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.ledger.DeleteOlderThan(retention)
			if err != nil {
				log.Error().Err(err).Msg("Failed to cleanup old ledger entries")
			} else if deleted > 0 {
				log.Info().Int64("deleted", deleted).Dur("retention", retention).Msg("Cleaned up old ledger entries")
			}
		}
	}
}
