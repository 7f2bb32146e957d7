package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/headsetd/internal/config"
	"github.com/dokzlo13/headsetd/internal/tray"
)

// App is the main application container that manages all services and their lifecycle.
type App struct {
	cfg      *config.Config
	services *Services
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a new App instance with all services initialized but not started.
// configPath is written into the autostart entry.
func New(cfg *config.Config, configPath string) (*App, error) {
	services, err := NewServices(cfg, configPath)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		services: services,
	}, nil
}

// Start initializes and starts all services.
// The provided context is used for cancellation.
func (a *App) Start(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	if err := a.services.Start(a.ctx); err != nil {
		a.cancel()
		return err
	}

	log.Info().Msg("headsetd started")
	return nil
}

// Run starts the application and blocks until shutdown. With the tray
// enabled, the tray event loop runs on the calling goroutine, which must be
// the main goroutine.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	if a.cfg.Tray.IsEnabled() {
		a.runTray()
	} else {
		log.Info().Msg("Tray disabled, running headless")
		a.Wait()
	}

	return a.Stop()
}

// runTray blocks in the tray event loop until the app context ends or the
// user picks Exit.
func (a *App) runTray() {
	monitor := a.services.Monitor
	t := tray.New(a.cfg.Icons.Dir, a.services.Intents, a.cancel)

	go func() {
		<-a.ctx.Done()
		t.Quit()
	}()

	t.Run(func() {
		monitor.AddSurface(t)
		st := monitor.Status()
		t.Render(st.View, st.Settings, st.Autostart)
		log.Info().Msg("Tray ready")
	}, a.cancel)
}

// Stop gracefully shuts down all services.
func (a *App) Stop() error {
	log.Info().Msg("Shutting down...")

	if a.cancel != nil {
		a.cancel()
	}

	if a.services != nil {
		return a.services.Stop()
	}

	return nil
}

// Wait blocks until the application context is cancelled.
func (a *App) Wait() {
	if a.ctx != nil {
		<-a.ctx.Done()
	}
}

// SignalContext creates a context that is cancelled when SIGINT or SIGTERM is received.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return ctx
}
