package lua

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/headsetd/internal/db"
	"github.com/dokzlo13/headsetd/internal/eventbus"
	"github.com/dokzlo13/headsetd/internal/kv"
	"github.com/dokzlo13/headsetd/internal/settings"
)

type recordingSink struct {
	intents chan settings.Intent
}

func (s *recordingSink) Submit(in settings.Intent) bool {
	s.intents <- in
	return true
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hooks.lua")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRuntime_HookReceivesEvent(t *testing.T) {
	sink := &recordingSink{intents: make(chan settings.Intent, 1)}
	r := NewRuntime(sink, nil)

	script := writeScript(t, `
		local headset = require("headset")
		last_kind = nil
		function on_action(ev)
			last_kind = ev.kind
			if ev.kind == "led_off" then
				headset.set_sidetone(0)
			end
		end
	`)
	if err := r.LoadScript(script); err != nil {
		t.Fatalf("LoadScript() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	bus := eventbus.NewWithConfig(1, 8)
	r.Subscribe(ctx, bus)
	bus.Publish(eventbus.Event{Type: eventbus.EventAction, Data: map[string]any{"kind": "led_off"}})

	select {
	case in := <-sink.intents:
		if in != settings.SetSidetone(0) {
			t.Errorf("intent = %+v, want %+v", in, settings.SetSidetone(0))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hook did not submit an intent")
	}

	err := r.DoSync(ctx, func(L *lua.LState) error {
		if got := L.GetGlobal("last_kind").String(); got != "led_off" {
			t.Errorf("last_kind = %q, want led_off", got)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	bus.Close(ctx)
	r.Close(ctx)
}

func TestRuntime_HookErrorIsContained(t *testing.T) {
	r := NewRuntime(nil, nil)
	script := writeScript(t, `
		calls = 0
		function on_no_device(ev)
			calls = calls + 1
			error("boom")
		end
	`)
	if err := r.LoadScript(script); err != nil {
		t.Fatalf("LoadScript() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	for i := 0; i < 2; i++ {
		ev := eventbus.Event{Type: eventbus.EventNoDevice, Time: time.Now()}
		if !r.Do(ctx, func(_ context.Context, L *lua.LState) { r.callHook(L, ev) }) {
			t.Fatal("Do() rejected work")
		}
	}

	err := r.DoSync(ctx, func(L *lua.LState) error {
		if got := L.GetGlobal("calls").String(); got != "2" {
			t.Errorf("calls = %s, want 2", got)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	r.Close(ctx)
}

func TestRuntime_CallStart(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr bool
		started string
	}{
		{
			name:    "no hook defined",
			script:  `started = "never"`,
			started: "never",
		},
		{
			name:    "hook runs before returning",
			script:  `started = "no"; function on_start() started = "yes" end`,
			started: "yes",
		},
		{
			name:    "hook error is reported",
			script:  `started = "no"; function on_start() error("boom") end`,
			wantErr: true,
			started: "no",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRuntime(nil, nil)
			if err := r.LoadScript(writeScript(t, tt.script)); err != nil {
				t.Fatalf("LoadScript() error: %v", err)
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go r.Run(ctx)
			defer r.Close(ctx)

			err := r.CallStart(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CallStart() error = %v, wantErr %v", err, tt.wantErr)
			}

			err = r.DoSync(ctx, func(L *lua.LState) error {
				if got := L.GetGlobal("started").String(); got != tt.started {
					t.Errorf("started = %q, want %q", got, tt.started)
				}
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestRuntime_CallStartAfterClose(t *testing.T) {
	r := NewRuntime(nil, nil)
	ctx := context.Background()
	go r.Run(ctx)
	r.Close(ctx)

	if err := r.CallStart(ctx); !errors.Is(err, ErrRuntimeClosed) {
		t.Errorf("CallStart() error = %v, want ErrRuntimeClosed", err)
	}
}

func TestRuntime_LoadScriptError(t *testing.T) {
	r := NewRuntime(nil, nil)
	defer r.L.Close()

	if err := r.LoadScript(writeScript(t, `this is not lua`)); err == nil {
		t.Error("expected error for invalid script")
	}
}

func TestRuntime_KVModule(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "hooks.sqlite"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer database.Close()
	store := kv.New(database.DB)

	r := NewRuntime(nil, nil)
	defer r.L.Close()
	r.EnableKV(store)

	script := writeScript(t, `
		local kv = require("kv")
		kv.set("low_count", 3)
		kv.set("device", "G733")
		kv.delete("device")
		count = kv.get("low_count")
		missing = kv.get("device")
		nkeys = #kv.keys()
	`)
	if err := r.LoadScript(script); err != nil {
		t.Fatalf("LoadScript() error: %v", err)
	}

	if got := r.L.GetGlobal("count"); got != lua.LNumber(3) {
		t.Errorf("count = %v, want 3", got)
	}
	if got := r.L.GetGlobal("missing"); got != lua.LNil {
		t.Errorf("missing = %v, want nil", got)
	}
	if got := r.L.GetGlobal("nkeys"); got != lua.LNumber(1) {
		t.Errorf("nkeys = %v, want 1", got)
	}

	// Values survive in the database
	if v, _ := store.Get("low_count"); v != float64(3) {
		t.Errorf("stored low_count = %v", v)
	}
}
