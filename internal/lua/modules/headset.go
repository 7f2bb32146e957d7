package modules

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/headsetd/internal/settings"
)

// IntentSink accepts user intents on behalf of a script
type IntentSink interface {
	Submit(in settings.Intent) bool
}

// Notifier shows a desktop notification
type Notifier interface {
	Notify(title, body string) error
}

// HeadsetModule lets hook scripts steer the daemon through the same intents
// the tray uses, and raise their own notifications.
//
//	local headset = require("headset")
//	headset.set_sidetone(32)
//	headset.notify("Headset", "Sidetone lowered")
type HeadsetModule struct {
	sink     IntentSink
	notifier Notifier
}

// NewHeadsetModule creates a new headset module
func NewHeadsetModule(sink IntentSink, notifier Notifier) *HeadsetModule {
	return &HeadsetModule{sink: sink, notifier: notifier}
}

// Loader is the module loader for Lua
func (m *HeadsetModule) Loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "set_led_enabled", L.NewFunction(m.boolIntent(settings.SetLedEnabled)))
	L.SetField(mod, "set_autostart", L.NewFunction(m.boolIntent(settings.SetAutostart)))
	L.SetField(mod, "set_light_threshold", L.NewFunction(m.intIntent(settings.SetLightThreshold)))
	L.SetField(mod, "set_notification_threshold", L.NewFunction(m.intIntent(settings.SetNotificationThreshold)))
	L.SetField(mod, "set_sidetone", L.NewFunction(m.intIntent(settings.SetSidetone)))
	L.SetField(mod, "notify", L.NewFunction(m.notify))

	L.Push(mod)
	return 1
}

func (m *HeadsetModule) boolIntent(build func(bool) settings.Intent) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LBool(m.submit(build(L.CheckBool(1)))))
		return 1
	}
}

func (m *HeadsetModule) intIntent(build func(int) settings.Intent) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LBool(m.submit(build(L.CheckInt(1)))))
		return 1
	}
}

func (m *HeadsetModule) submit(in settings.Intent) bool {
	if m.sink == nil {
		return false
	}
	return m.sink.Submit(in)
}

// notify(title, body) -> ok, err
func (m *HeadsetModule) notify(L *lua.LState) int {
	title := L.CheckString(1)
	body := L.CheckString(2)

	if m.notifier == nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString("notifications unavailable"))
		return 2
	}
	if err := m.notifier.Notify(title, body); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}
