package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/headsetd/internal/config"
	"github.com/dokzlo13/headsetd/internal/eventbus"
	"github.com/dokzlo13/headsetd/internal/kv"
	luart "github.com/dokzlo13/headsetd/internal/lua"
	"github.com/dokzlo13/headsetd/internal/lua/modules"
)

// HooksService wraps the Lua runtime running the optional hook script.
type HooksService struct {
	cfg     *config.Config
	Runtime *luart.Runtime
	started bool
}

// NewHooksService creates a new HooksService. store may be nil, in which
// case scripts have no "kv" module.
func NewHooksService(cfg *config.Config, sink modules.IntentSink, notifier modules.Notifier, store *kv.Store) *HooksService {
	runtime := luart.NewRuntime(sink, notifier)
	if store != nil {
		runtime.EnableKV(store)
		if n, err := store.CleanupExpired(); err != nil {
			log.Warn().Err(err).Msg("Failed to cleanup expired hook state")
		} else if n > 0 {
			log.Debug().Int64("deleted", n).Msg("Cleaned up expired hook state")
		}
	}

	return &HooksService{
		cfg:     cfg,
		Runtime: runtime,
	}
}

// LoadScript loads and executes the hook script.
// Must be called before Start().
func (s *HooksService) LoadScript() error {
	return s.Runtime.LoadScript(s.cfg.Hooks.Script)
}

// startHookTimeout bounds how long on_start may hold up the monitor
const startHookTimeout = 5 * time.Second

// Start subscribes the hooks to the bus, begins the Lua worker goroutine and
// runs on_start before returning, so it sees no event before it finished.
func (s *HooksService) Start(ctx context.Context, bus *eventbus.Bus) {
	s.Runtime.Subscribe(ctx, bus)

	// Lua worker goroutine - this is the ONLY goroutine that touches Lua
	go s.Runtime.Run(ctx)
	s.started = true

	startCtx, cancel := context.WithTimeout(ctx, startHookTimeout)
	defer cancel()
	if err := s.Runtime.CallStart(startCtx); err != nil {
		log.Error().Err(err).Msg("Lua start hook failed")
	}
	log.Info().Str("script", s.cfg.Hooks.Script).Msg("Lua hooks started")
}

// Close stops the Lua runtime.
func (s *HooksService) Close(ctx context.Context) {
	if !s.started {
		// Run never started, so nobody else will close the VM
		s.Runtime.L.Close()
		return
	}
	s.Runtime.Close(ctx)
}
