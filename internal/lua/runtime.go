// Package lua runs the optional user hook script. Hooks observe daemon
// events and may submit intents; they never touch reconciler state directly.
package lua

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/headsetd/internal/eventbus"
	"github.com/dokzlo13/headsetd/internal/kv"
	"github.com/dokzlo13/headsetd/internal/lua/modules"
)

// ErrRuntimeClosed is returned when the Lua runtime is closed
var ErrRuntimeClosed = fmt.Errorf("lua runtime closed")

// Hook function names looked up in the script's globals
var hookNames = map[eventbus.EventType]string{
	eventbus.EventDeviceFound: "on_device_found",
	eventbus.EventNoDevice:    "on_no_device",
	eventbus.EventAction:      "on_action",
	eventbus.EventSettings:    "on_settings",
}

// startHook is called once, synchronously, before any event hook
const startHook = "on_start"

// LuaWork represents work to be executed on the Lua VM.
// All Lua execution goes through this to keep the VM single-threaded.
type LuaWork func(ctx context.Context, L *lua.LState)

// Runtime manages the Lua VM with single-threaded execution
type Runtime struct {
	L *lua.LState

	workQueue chan LuaWork

	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// NewRuntime creates a new Lua runtime with the log and headset modules preloaded
func NewRuntime(sink modules.IntentSink, notifier modules.Notifier) *Runtime {
	L := lua.NewState()

	L.PreloadModule("log", modules.NewLogModule().Loader)
	L.PreloadModule("headset", modules.NewHeadsetModule(sink, notifier).Loader)

	return &Runtime{
		L:         L,
		workQueue: make(chan LuaWork, 100),
		closing:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// EnableKV makes the "kv" module available to the script (call before LoadScript)
func (r *Runtime) EnableKV(store *kv.Store) {
	r.L.PreloadModule("kv", modules.NewKVModule(store).Loader)
}

// LoadScript loads and executes a Lua script (must be called before Run)
func (r *Runtime) LoadScript(path string) error {
	log.Info().Str("path", path).Msg("Loading Lua hook script")

	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("failed to execute Lua script: %w", err)
	}

	for _, name := range hookNames {
		if fn, ok := r.L.GetGlobal(name).(*lua.LFunction); ok && fn != nil {
			log.Debug().Str("hook", name).Msg("Lua hook registered")
		}
	}
	return nil
}

// Subscribe registers the runtime on the bus for every hookable event type
func (r *Runtime) Subscribe(ctx context.Context, bus *eventbus.Bus) {
	types := make([]eventbus.EventType, 0, len(hookNames))
	for t := range hookNames {
		types = append(types, t)
	}

	bus.Subscribe(func(e eventbus.Event) {
		r.Do(ctx, func(_ context.Context, L *lua.LState) {
			r.callHook(L, e)
		})
	}, types...)
}

// CallStart runs the script's on_start hook, if any, and waits for it.
// Run must already be running.
func (r *Runtime) CallStart(ctx context.Context) error {
	return r.DoSync(ctx, func(L *lua.LState) error {
		fn, ok := L.GetGlobal(startHook).(*lua.LFunction)
		if !ok {
			return nil
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
			return fmt.Errorf("%s hook failed: %w", startHook, err)
		}
		return nil
	})
}

// callHook invokes the hook for e if the script defines one
func (r *Runtime) callHook(L *lua.LState, e eventbus.Event) {
	name := hookNames[e.Type]
	fn, ok := L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return
	}

	arg := modules.MapToLuaTable(L, e.Data)
	L.SetField(arg, "type", lua.LString(e.Type))
	L.SetField(arg, "tick_id", lua.LString(e.TickID))
	L.SetField(arg, "time", lua.LNumber(e.Time.Unix()))

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, arg); err != nil {
		log.Error().Err(err).Str("hook", name).Msg("Lua hook failed")
	}
}

// Do queues work to be executed on the Lua VM (thread-safe, non-blocking).
// Returns false if the runtime is closing, the queue is full, or ctx is done.
func (r *Runtime) Do(ctx context.Context, work LuaWork) bool {
	select {
	case <-r.closing:
		log.Warn().Msg("Lua runtime closing, dropping work")
		return false
	case <-ctx.Done():
		log.Warn().Msg("Context cancelled, dropping Lua work")
		return false
	case r.workQueue <- work:
		return true
	default:
		log.Warn().Msg("Lua work queue full, dropping work")
		return false
	}
}

// DoSync queues work and waits for it to finish
func (r *Runtime) DoSync(ctx context.Context, work func(L *lua.LState) error) error {
	result := make(chan error, 1)
	wrapped := LuaWork(func(_ context.Context, L *lua.LState) {
		result <- work(L)
	})

	select {
	case <-r.closing:
		return ErrRuntimeClosed
	case <-ctx.Done():
		return ctx.Err()
	case r.workQueue <- wrapped:
	}

	select {
	case <-r.closing:
		return ErrRuntimeClosed
	case <-ctx.Done():
		return ctx.Err()
	case err := <-result:
		return err
	}
}

// Run is the only goroutine that touches the Lua VM.
// It exits when ctx is cancelled or the runtime is closed, and closes the VM.
func (r *Runtime) Run(ctx context.Context) {
	defer close(r.done)
	defer r.L.Close()

	for {
		select {
		case <-ctx.Done():
			r.drainQueue(ctx)
			return
		case <-r.closing:
			r.drainQueue(ctx)
			return
		case work := <-r.workQueue:
			r.executeWork(ctx, work)
		}
	}
}

// Close signals the runtime to stop accepting new work and waits for Run to exit
func (r *Runtime) Close(ctx context.Context) {
	r.closeOnce.Do(func() {
		close(r.closing)
	})

	select {
	case <-r.done:
	case <-ctx.Done():
		log.Warn().Msg("Lua runtime did not stop in time")
	}
}

// drainQueue processes any remaining work in the queue before exiting
func (r *Runtime) drainQueue(ctx context.Context) {
	for {
		select {
		case work := <-r.workQueue:
			r.executeWork(ctx, work)
		default:
			return
		}
	}
}

// executeWork runs a single work item with panic recovery
func (r *Runtime) executeWork(ctx context.Context, work LuaWork) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Msg("Lua work panicked - worker continuing")
		}
	}()
	r.L.SetContext(ctx)
	work(ctx, r.L)
}
