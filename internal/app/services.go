package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/headsetd/internal/autostart"
	"github.com/dokzlo13/headsetd/internal/config"
	"github.com/dokzlo13/headsetd/internal/db"
	"github.com/dokzlo13/headsetd/internal/eventbus"
	"github.com/dokzlo13/headsetd/internal/headset"
	"github.com/dokzlo13/headsetd/internal/kv"
	"github.com/dokzlo13/headsetd/internal/ledger"
	"github.com/dokzlo13/headsetd/internal/middleware"
	"github.com/dokzlo13/headsetd/internal/notify"
	"github.com/dokzlo13/headsetd/internal/presentation"
	"github.com/dokzlo13/headsetd/internal/reconcile"
	"github.com/dokzlo13/headsetd/internal/settings"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB     *db.DB
	Ledger *ledger.Ledger
	Bus    *eventbus.Bus

	// Device and presentation
	Client    *headset.Client
	Notifier  *notify.Notifier
	Autostart *autostart.Manager

	// High-level services
	Monitor *Monitor
	Intents *middleware.QuietSink // front door for tray, hooks and status intents
	Records *LedgerService
	Hooks   *HooksService
	Status  *StatusService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config, configPath string) (*Services, error) {
	s := &Services{cfg: cfg}

	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())

	// The database holds the ledger and hook script state
	if cfg.Ledger.IsEnabled() || cfg.Hooks.Script != "" {
		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			s.Close(context.Background())
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.DB = database
	}
	if cfg.Ledger.IsEnabled() {
		s.Ledger = ledger.New(s.DB.DB)
		s.Records = NewLedgerService(cfg, s.Ledger)
	}

	// External device-control tool
	runner := &headset.ExecRunner{
		Path:    cfg.HeadsetControl.Path,
		Timeout: cfg.HeadsetControl.Timeout.Duration(),
	}
	s.Client = headset.NewClient(runner, cfg.HeadsetControl.RateLimitRPS)

	s.Notifier = notify.NewNotifier(
		cfg.Notifications.IsEnabled(),
		cfg.Notifications.Icon,
		cfg.Notifications.Duration.Duration(),
	)

	s.Autostart = autostart.New(cfg.Autostart.Dir, autostartArgs(configPath)...)

	band := reconcile.DefaultHysteresis
	if cfg.Reconciler.HysteresisBand != nil {
		band = *cfg.Reconciler.HysteresisBand
	}

	s.Monitor = NewMonitor(MonitorDeps{
		Device:     s.Client,
		Reconciler: reconcile.New(band),
		Store:      settings.NewStore(cfg.Settings.Path),
		Resolver:   presentation.NewDesktopResolver(),
		Notifier:   s.Notifier,
		Bus:        s.Bus,
		Autostart:  s.Autostart,
		Interval:   cfg.Poll.Interval.Duration(),
	})

	s.Intents = middleware.NewQuietSink(s.Monitor, cfg.Intents.Debounce.Duration())

	// Optional Lua hooks
	if cfg.Hooks.Script != "" {
		s.Hooks = NewHooksService(cfg, s.Intents, s.Notifier, kv.New(s.DB.DB))
	}

	s.Status = NewStatusService(cfg, statusSource{s.Monitor, s.Intents})

	return s, nil
}

// Start starts all services in the correct order.
func (s *Services) Start(ctx context.Context) error {
	// Load Lua script before any event is published
	if s.Hooks != nil {
		if err := s.Hooks.LoadScript(); err != nil {
			return err
		}
	}

	// Observers subscribe before the monitor starts publishing
	if s.Records != nil {
		s.Records.Subscribe(s.Bus)
		s.Records.Start(ctx)
	}
	if s.Hooks != nil {
		s.Hooks.Start(ctx, s.Bus)
	}

	go s.Monitor.Run(ctx)
	s.Status.Start(ctx)

	return nil
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
	defer cancel()
	s.Close(ctx)
	return nil
}

// Close releases all resources.
func (s *Services) Close(ctx context.Context) {
	if s.Intents != nil {
		s.Intents.Close()
	}
	if s.Bus != nil {
		s.Bus.Close(ctx)
	}
	if s.Hooks != nil {
		s.Hooks.Close(ctx)
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}
}

// statusSource reads state from the monitor and submits through the debouncer
type statusSource struct {
	monitor *Monitor
	sink    middleware.Sink
}

func (s statusSource) Status() Status { return s.monitor.Status() }

func (s statusSource) Submit(in settings.Intent) bool { return s.sink.Submit(in) }

// autostartArgs builds the command line of the login entry. The entry runs
// from the executable's folder, so the config path is made absolute.
func autostartArgs(configPath string) []string {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", configPath).Msg("Failed to resolve config path for autostart")
		return []string{"-c", configPath}
	}
	return []string{"-c", abs}
}
